package main

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/betcli/gotrade/clob/book"
	"github.com/betcli/gotrade/clob/client"
	"github.com/betcli/gotrade/clob/dataapi"
	"github.com/betcli/gotrade/clob/types"
	"github.com/betcli/gotrade/internal/journal"
	"github.com/betcli/gotrade/internal/pnl"
	"github.com/betcli/gotrade/pkg/secretstore"
	"github.com/betcli/gotrade/pkg/wallet"
)

// runSearch 按关键词搜索市场，输出 outcome 与 token ID 的配对
func (a *app) runSearch(ctx context.Context, query string) error {
	gamma := client.NewGammaClient(a.cfg.API.GammaHost)
	markets, err := gamma.SearchMarkets(ctx, query, 10)
	if err != nil {
		return err
	}

	if len(markets) == 0 {
		fmt.Println("未找到市场。")
		return nil
	}

	fmt.Printf("找到 %d 个市场:\n", len(markets))
	for _, m := range markets {
		fmt.Printf("- 市场: %s (ID: %s)\n", m.Question, m.ID)
		pairs := pairOutcomes(m.Outcomes, m.ClobTokenIDs)
		if len(pairs) > 0 {
			fmt.Println("    Outcomes:")
			for _, p := range pairs {
				fmt.Printf("      - %s: %s\n", p[0], p[1])
			}
		} else {
			fmt.Printf("    Outcomes (raw): %s\n", m.Outcomes)
			fmt.Printf("    Token IDs (raw): %s\n", m.ClobTokenIDs)
		}
	}
	return nil
}

// pairOutcomes 将 Gamma 返回的 JSON 字符串字段配对为 (outcome, tokenID)。
// 两个列表长度不一致时返回 nil，让调用方回退到原始输出。
func pairOutcomes(outcomesJSON, tokenIDsJSON string) [][2]string {
	var outcomes, tokenIDs []string
	if err := json.Unmarshal([]byte(outcomesJSON), &outcomes); err != nil {
		return nil
	}
	if err := json.Unmarshal([]byte(tokenIDsJSON), &tokenIDs); err != nil {
		return nil
	}
	if len(outcomes) == 0 || len(outcomes) != len(tokenIDs) {
		return nil
	}
	pairs := make([][2]string, len(outcomes))
	for i := range outcomes {
		pairs[i] = [2]string{outcomes[i], tokenIDs[i]}
	}
	return pairs
}

// runPositions 查看持仓，地址解析顺序：-user > USER_ADDRESS 配置 > 私钥派生
func (a *app) runPositions(ctx context.Context, user string) error {
	addr, err := a.resolveUserAddress(user)
	if err != nil {
		return err
	}

	data := dataapi.NewClient(a.cfg.API.DataHost)
	positions, err := data.Positions(ctx, addr, 50)
	if err != nil {
		return err
	}

	fmt.Printf("持仓 (%s):\n", addr)
	for _, pos := range positions {
		fmt.Printf("- 市场: %s\n", pos.Title)
		fmt.Printf("  Token ID: %s\n", pos.Asset)
		fmt.Printf("  Outcome: %s\n", pos.Outcome)
		fmt.Printf("  数量: %v\n", pos.Size)
		fmt.Printf("  均价: %v\n", pos.AvgPrice)

		// 用本地定点计算核对 API 给出的估值
		v, err := pnl.Evaluate(
			decimal.NewFromFloat(pos.Size),
			decimal.NewFromFloat(pos.AvgPrice),
			decimal.NewFromFloat(pos.CurPrice),
		)
		if err != nil {
			fmt.Printf("  当前价值: $%v\n", pos.CurrentValue)
			fmt.Printf("  盈亏: $%v (%v%%)\n", pos.CashPnL, pos.PercentPnL)
		} else {
			fmt.Printf("  当前价值: $%s\n", v.Value.StringFixed(2))
			if pct, err := v.PercentReturn(); err == nil {
				fmt.Printf("  盈亏: $%s (%s%%)\n", v.PnL.StringFixed(2), signedPct(pct))
			} else {
				fmt.Printf("  盈亏: $%s\n", v.PnL.StringFixed(2))
			}
		}
		fmt.Println("--------------------------------------------------")
	}
	return nil
}

func (a *app) resolveUserAddress(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if a.cfg.UserAddress != "" {
		return a.cfg.UserAddress, nil
	}
	key, err := a.loadWalletKey()
	if err != nil {
		return "", fmt.Errorf("需要 -user、USER_ADDRESS 或可派生地址的钱包配置: %w", err)
	}
	defer wallet.Zero(key)
	return wallet.Address(key).Hex(), nil
}

// runOrderBook 查看订单簿，附带中间价与价差
func (a *app) runOrderBook(ctx context.Context, tokenID string) error {
	if tokenID == "" {
		return fmt.Errorf("需要 -token")
	}

	clob := client.NewClient(a.cfg.API.ClobHost, a.cfg.Chain(), nil, nil)
	summary, err := clob.GetOrderBook(ctx, tokenID)
	if err != nil {
		return err
	}
	snapshot, err := book.FromSummary(summary)
	if err != nil {
		return err
	}

	fmt.Printf("订单簿 (%s):\n", tokenID)
	if mid, err := clob.GetMidpoint(ctx, tokenID); err == nil {
		fmt.Printf("  中间价: %s\n", mid.Mid)
	} else {
		fmt.Println("  中间价: N/A")
	}
	if spread, err := clob.GetSpread(ctx, tokenID); err == nil {
		fmt.Printf("  价差: %s\n", spread.Spread)
	} else {
		fmt.Println("  价差: N/A")
	}

	// 价格按市场 tick 精度打印
	places := tickPlaces(summary.TickSize)
	fmt.Println("  Bids:")
	for _, lvl := range snapshot.Bids() {
		fmt.Printf("    价格: %s, 数量: %s\n", lvl.Price.StringFixed(places), lvl.Size)
	}
	fmt.Println("  Asks:")
	for _, lvl := range snapshot.Asks() {
		fmt.Printf("    价格: %s, 数量: %s\n", lvl.Price.StringFixed(places), lvl.Size)
	}
	return nil
}

// tickPlaces tick 字符串的小数位数，解析失败时退回 2
func tickPlaces(tick string) int32 {
	t, err := decimal.NewFromString(tick)
	if err != nil || t.Exponent() >= 0 {
		return 2
	}
	return -t.Exponent()
}

// signedPct 百分比保留一位小数并带符号
func signedPct(pct decimal.Decimal) string {
	s := pct.StringFixed(1)
	if pct.Sign() >= 0 {
		return "+" + s
	}
	return s
}

// runTrades 查看市场最近成交
func (a *app) runTrades(ctx context.Context, tokenID string) error {
	if tokenID == "" {
		return fmt.Errorf("需要 -token")
	}

	data := dataapi.NewClient(a.cfg.API.DataHost)
	trades, err := data.MarketTrades(ctx, tokenID, 20)
	if err != nil {
		return err
	}

	fmt.Printf("最近成交 (%s):\n", tokenID)
	for _, tr := range trades {
		ts := time.Unix(tr.Timestamp, 0).Format("2006-01-02 15:04:05")
		fmt.Printf("- %s %s %v @ %v (%s)\n", ts, tr.Side, tr.Size, tr.Price, tr.Outcome)
	}
	return nil
}

// runMidpoint 查看中间价
func (a *app) runMidpoint(ctx context.Context, tokenID string) error {
	if tokenID == "" {
		return fmt.Errorf("需要 -token")
	}

	clob := client.NewClient(a.cfg.API.ClobHost, a.cfg.Chain(), nil, nil)
	mid, err := clob.GetMidpoint(ctx, tokenID)
	if err != nil {
		return err
	}
	fmt.Printf("中间价: %s\n", mid.Mid)
	return nil
}

type orderArgs struct {
	TokenID string
	Side    string
	Amount  string
	Price   string
}

// runOrder 下单：构建意图、装配签名、落日志、提交。
// 提交失败时日志保留 assembled/failed 状态，便于排查与重放。
func (a *app) runOrder(ctx context.Context, args orderArgs) error {
	if args.TokenID == "" {
		return fmt.Errorf("需要 -token")
	}
	side, err := parseSide(args.Side)
	if err != nil {
		return err
	}
	amount, err := decimal.NewFromString(args.Amount)
	if err != nil {
		return fmt.Errorf("无效的 -amount: %s", args.Amount)
	}

	key, err := a.loadWalletKey()
	if err != nil {
		return err
	}
	defer wallet.Zero(key)

	clob, err := a.newAuthedClient(ctx, key)
	if err != nil {
		return err
	}

	jnl, err := journal.Open(a.cfg.JournalPath)
	if err != nil {
		return err
	}
	defer jnl.Close()

	builder := client.NewOrderBuilder(clob, client.BuilderConfig{
		ChainID:       a.cfg.Chain(),
		SignatureType: types.SignatureType(a.cfg.Wallet.SignatureType),
		FunderAddress: a.cfg.Wallet.FunderAddress,
	})

	intent := &types.OrderIntent{TokenID: args.TokenID, Side: side}
	if args.Price != "" {
		price, err := decimal.NewFromString(args.Price)
		if err != nil {
			return fmt.Errorf("无效的 -price: %s", args.Price)
		}
		intent.Kind = types.LimitKind(price)
		intent.Size = amount
		fmt.Printf("限价 %s: %s 份 @ %s\n", side, amount, price)
	} else {
		intent.Kind = types.MarketKind(amount)
		if side == types.SideBuy {
			fmt.Printf("市价买入: %s USDC\n", amount)
		} else {
			fmt.Printf("市价卖出: %s 份\n", amount)
		}
	}

	// 市场元数据决定价格精度、最小下单量与交易所合约
	summary, err := clob.GetOrderBook(ctx, args.TokenID)
	if err != nil {
		return err
	}
	options := &types.CreateOrderOptions{
		TickSize: types.TickSize(summary.TickSize),
		NegRisk:  summary.NegRisk,
	}
	if minSize, err := decimal.NewFromString(summary.MinOrderSize); err == nil {
		options.MinSize = minSize
	}

	// 费率表挂在市场元数据上；拉一次填充客户端缓存，签名时回落读取
	if _, err := clob.GetMarket(ctx, summary.Market); err != nil {
		a.log.WithError(err).Warn("获取市场费率失败，费率按 0 处理")
	}

	assembled, err := builder.Assemble(ctx, intent, options)
	if err != nil {
		return err
	}

	if err := jnl.Record(ctx, assembled); err != nil {
		return err
	}

	resp, err := clob.PostOrder(ctx, assembled)
	if err != nil {
		if types.IsRetryable(err) {
			_ = jnl.MarkFailed(ctx, assembled.IntentID, err.Error())
		} else {
			_ = jnl.MarkRejected(ctx, assembled.IntentID, err.Error())
		}
		return err
	}

	if !resp.Success {
		_ = jnl.MarkRejected(ctx, assembled.IntentID, resp.ErrorMsg)
		return fmt.Errorf("订单被拒绝: %s", resp.ErrorMsg)
	}

	if err := jnl.MarkSubmitted(ctx, assembled.IntentID, resp.OrderID); err != nil {
		a.log.WithError(err).Warn("更新订单日志失败")
	}

	fmt.Printf("订单已提交: %s (状态: %s)\n", resp.OrderID, resp.Status)
	if !assembled.EstimatedShares.IsZero() {
		fmt.Printf("  预估成交: %s 份 @ 均价 %s\n",
			assembled.EstimatedShares, assembled.EstimatedAvgPrice)
	}
	return nil
}

// runResubmit 重放日志里未得到终态的订单
func (a *app) runResubmit(ctx context.Context) error {
	key, err := a.loadWalletKey()
	if err != nil {
		return err
	}
	defer wallet.Zero(key)

	clob, err := a.newAuthedClient(ctx, key)
	if err != nil {
		return err
	}

	jnl, err := journal.Open(a.cfg.JournalPath)
	if err != nil {
		return err
	}
	defer jnl.Close()

	submitted, total, err := resubmitPending(ctx, clob, jnl)
	if err != nil {
		return err
	}
	if total == 0 {
		fmt.Println("没有待重放的订单。")
		return nil
	}
	fmt.Printf("重放完成: %d/%d 提交成功\n", submitted, total)
	return nil
}

// resubmitPending 把 pending 条目按落库时的原始字节重放给交易所。
// 订单不会被重新组装或重新签名；单条失败不阻塞后续条目。
func resubmitPending(ctx context.Context, clob *client.Client, jnl *journal.Journal) (submitted, total int, err error) {
	entries, err := jnl.Pending(ctx)
	if err != nil {
		return 0, 0, err
	}

	for i := range entries {
		e := &entries[i]
		assembled := &types.AssembledOrder{
			IntentID:  e.IntentID,
			Order:     e.Order,
			OrderType: e.OrderType,
			TokenID:   e.TokenID,
		}

		resp, err := clob.PostOrder(ctx, assembled)
		if err != nil {
			if types.IsRetryable(err) {
				_ = jnl.MarkFailed(ctx, e.IntentID, err.Error())
			} else {
				_ = jnl.MarkRejected(ctx, e.IntentID, err.Error())
			}
			continue
		}
		if !resp.Success {
			_ = jnl.MarkRejected(ctx, e.IntentID, resp.ErrorMsg)
			continue
		}

		_ = jnl.MarkSubmitted(ctx, e.IntentID, resp.OrderID)
		fmt.Printf("已重新提交 %s -> %s\n", e.IntentID, resp.OrderID)
		submitted++
	}

	return submitted, len(entries), nil
}

// runStatus 查看可用资金（USDC 余额与授权）
func (a *app) runStatus(ctx context.Context) error {
	key, err := a.loadWalletKey()
	if err != nil {
		return err
	}
	defer wallet.Zero(key)

	fmt.Printf("用户地址: %s\n", wallet.Address(key).Hex())

	clob, err := a.newAuthedClient(ctx, key)
	if err != nil {
		return err
	}

	sigType := types.SignatureType(a.cfg.Wallet.SignatureType)
	resp, err := clob.GetBalanceAllowance(ctx, &types.BalanceAllowanceParams{
		AssetType:     types.AssetTypeCollateral,
		SignatureType: &sigType,
	})
	if err != nil {
		return err
	}

	fmt.Printf("USDC 余额: $%s\n", formatBaseUnits(resp.Balance))
	fmt.Printf("USDC 授权: $%s\n", formatBaseUnits(resp.Allowance))
	return nil
}

// formatBaseUnits 基础单位（1e-6）转可读金额
func formatBaseUnits(raw string) string {
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return raw
	}
	return v.Shift(-6).StringFixed(6)
}

func parseSide(s string) (types.Side, error) {
	switch strings.ToLower(s) {
	case "buy":
		return types.SideBuy, nil
	case "sell":
		return types.SideSell, nil
	default:
		return "", fmt.Errorf("无效的 -side: 只接受 buy 或 sell")
	}
}

// loadWalletKey 从配置加载私钥，优先十六进制私钥，其次助记词派生
func (a *app) loadWalletKey() (*ecdsa.PrivateKey, error) {
	if a.cfg.Wallet.PrivateKey != "" {
		return wallet.FromHex(a.cfg.Wallet.PrivateKey)
	}
	if a.cfg.Wallet.Mnemonic != "" {
		path := a.cfg.Wallet.DerivationPath
		if path == "" {
			path = wallet.DefaultDerivationPath
		}
		return wallet.FromMnemonic(a.cfg.Wallet.Mnemonic, path)
	}
	return nil, fmt.Errorf("未配置钱包：需要 private_key 或 mnemonic")
}

// newAuthedClient 创建带 L2 凭证的 CLOB 客户端。
// 凭证来源顺序：配置 > 本地密钥库 > 向服务端派生（随后存入密钥库）。
func (a *app) newAuthedClient(ctx context.Context, key *ecdsa.PrivateKey) (*client.Client, error) {
	creds := a.cfg.APICreds()
	address := wallet.Address(key).Hex()

	var store *secretstore.Store
	if creds == nil && a.cfg.SecretsPath != "" {
		opts := secretstore.OpenOptions{Path: a.cfg.SecretsPath}
		if raw := os.Getenv("POLYMARKET_SECRETS_KEY"); raw != "" {
			encKey, err := secretstore.ParseKey(raw)
			if err != nil {
				return nil, err
			}
			opts.EncryptionKey = encKey
		}
		var err error
		store, err = secretstore.Open(opts)
		if err != nil {
			return nil, err
		}
		defer store.Close()

		if cached, ok, err := store.LoadCreds(address); err != nil {
			return nil, err
		} else if ok {
			creds = cached
		}
	}

	clob := client.NewClient(a.cfg.API.ClobHost, a.cfg.Chain(), key, creds)
	if creds != nil {
		return clob, nil
	}

	// 首次运行：用 L1 签名派生 L2 凭证
	derived, err := clob.CreateOrDeriveAPIKey(ctx, nil)
	if err != nil {
		return nil, err
	}
	if store != nil {
		if err := store.SaveCreds(address, derived); err != nil {
			a.log.WithError(err).Warn("保存 API 凭证失败")
		}
	}

	return client.NewClient(a.cfg.API.ClobHost, a.cfg.Chain(), key, derived), nil
}
