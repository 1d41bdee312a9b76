package client

import (
	"context"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/betcli/gotrade/clob/book"
	"github.com/betcli/gotrade/clob/signing"
	"github.com/betcli/gotrade/clob/types"
	"github.com/betcli/gotrade/pkg/numeric"
)

// fokWindow 市价单（FOK）的过期窗口。
// 过期时间只挡住陈旧的重放，不参与撮合判定。
const fokWindow = 60 * time.Second

// BuilderConfig 订单构建器配置
//
// 所有依赖显式注入，不读取全局状态。
type BuilderConfig struct {
	ChainID       types.Chain
	SignatureType types.SignatureType

	// FunderAddress 资金地址；为空时 maker = signer
	FunderAddress string

	// Salt 盐值来源；nil 时使用密码学安全随机源
	Salt signing.SaltSource

	// Now 时钟；nil 时使用 time.Now，测试可注入
	Now func() time.Time
}

// OrderBuilder 订单构建器：把用户意图组装成已签名订单
type OrderBuilder struct {
	client *Client
	cfg    BuilderConfig
}

// NewOrderBuilder 创建新的订单构建器
func NewOrderBuilder(client *Client, cfg BuilderConfig) *OrderBuilder {
	if cfg.Salt == nil {
		cfg.Salt = signing.RandomSalt
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.ChainID == 0 {
		cfg.ChainID = client.GetChainID()
	}
	return &OrderBuilder{client: client, cfg: cfg}
}

// Assemble 组装订单：限价单直接归一化，市价单先取一次订单簿
// 快照再推导数量。每次调用最多一次行情读取，组装后的订单不可变。
func (ob *OrderBuilder) Assemble(ctx context.Context, intent *types.OrderIntent, options *types.CreateOrderOptions) (*types.AssembledOrder, error) {
	if intent.TokenID == "" {
		return nil, types.ErrInvalidTokenID.WithField("token_id")
	}
	if _, ok := new(big.Int).SetString(intent.TokenID, 10); !ok {
		return nil, types.ErrInvalidTokenID.WithField("token_id")
	}

	switch intent.Kind.Type {
	case types.OrderKindLimit:
		return ob.assembleLimit(ctx, intent, options)
	case types.OrderKindMarket:
		return ob.assembleMarket(ctx, intent, options)
	default:
		return nil, &types.Error{Kind: types.ErrKindValidation, Field: "kind", Msg: "unknown order kind"}
	}
}

// assembleLimit 组装限价单（GTC，不过期）
func (ob *OrderBuilder) assembleLimit(ctx context.Context, intent *types.OrderIntent, options *types.CreateOrderOptions) (*types.AssembledOrder, error) {
	rc, err := numeric.ConfigFor(options.TickSize)
	if err != nil {
		return nil, err
	}
	tick, err := numeric.TickDecimal(options.TickSize)
	if err != nil {
		return nil, err
	}

	price, err := numeric.NormalizePrice(intent.Kind.Price, tick)
	if err != nil {
		return nil, err
	}
	size, err := numeric.NormalizeSize(intent.Size, rc.Size, options.MinSize)
	if err != nil {
		return nil, err
	}

	// 买入: maker 支付 USDC，taker 得到份额；卖出相反。
	// 金额按配置位数只舍不入，保证承诺不超过归一化意图。
	var makerAmt, takerAmt decimal.Decimal
	quote := size.Mul(price).RoundFloor(rc.Amount)
	if intent.Side == types.SideBuy {
		makerAmt = quote
		takerAmt = size
	} else {
		makerAmt = size
		takerAmt = quote
	}

	return ob.sign(intent, makerAmt, takerAmt, types.OrderTypeGTC, size, price, options)
}

// assembleMarket 组装市价单（FOK，短窗口过期）
func (ob *OrderBuilder) assembleMarket(ctx context.Context, intent *types.OrderIntent, options *types.CreateOrderOptions) (*types.AssembledOrder, error) {
	rc, err := numeric.ConfigFor(options.TickSize)
	if err != nil {
		return nil, err
	}

	// 卖出时 Amount 即份额，直接受市场最小下单量约束；
	// 买入时 Amount 是 USDC 预算，份额下限在深度推导后检查。
	minSize := decimal.Zero
	if intent.Side == types.SideSell {
		minSize = options.MinSize
	}
	amount, err := numeric.NormalizeSize(intent.Kind.Amount, rc.Size, minSize)
	if err != nil {
		return nil, err
	}

	// 市价单需要一次订单簿快照，仅此一次
	summary, err := ob.client.GetOrderBook(ctx, intent.TokenID)
	if err != nil {
		return nil, err
	}
	snapshot, err := book.FromSummary(summary)
	if err != nil {
		return nil, err
	}

	var makerAmt, takerAmt decimal.Decimal
	var estShares, estAvg decimal.Decimal

	if intent.Side == types.SideBuy {
		// Amount 是 USDC 预算：按 ask 深度推导能换到的份额
		shares, avgPrice, err := snapshot.WalkForQuote(types.SideBuy, amount)
		if err != nil {
			return nil, err
		}
		makerAmt = amount
		takerAmt = shares.RoundFloor(rc.Size)
		if takerAmt.LessThan(options.MinSize) {
			return nil, types.ErrBelowMinimumSize.WithField("size")
		}
		estShares = shares
		estAvg = avgPrice
	} else {
		// Amount 是份额数量：验证 bid 深度足够吃下
		notional, avgPrice, err := snapshot.WalkForShares(types.SideSell, amount)
		if err != nil {
			return nil, err
		}
		makerAmt = amount
		takerAmt = notional.RoundFloor(rc.Amount)
		estShares = amount
		estAvg = avgPrice
	}

	return ob.sign(intent, makerAmt, takerAmt, types.OrderTypeFOK, estShares, estAvg, options)
}

// sign 签名并打包订单。私钥只在此调用帧内使用，
// 绝不写入任何返回值或日志。
func (ob *OrderBuilder) sign(
	intent *types.OrderIntent,
	makerAmt, takerAmt decimal.Decimal,
	orderType types.OrderType,
	estShares, estAvg decimal.Decimal,
	options *types.CreateOrderOptions,
) (*types.AssembledOrder, error) {
	if err := ob.client.CanL1Auth(); err != nil {
		return nil, err
	}

	contractConfig, err := GetContractConfig(ob.cfg.ChainID)
	if err != nil {
		return nil, err
	}
	exchangeAddress := contractConfig.ExchangeAddress(options.NegRisk)

	signerAddress := signing.AddressFromPrivateKey(ob.client.authConfig.PrivateKey).Hex()
	maker := signerAddress
	if ob.cfg.FunderAddress != "" {
		maker = ob.cfg.FunderAddress
	}

	taker := types.ZeroAddress
	if intent.Taker != nil && *intent.Taker != "" {
		taker = *intent.Taker
	}

	// 意图未指定费率时回落到市场元数据缓存的费率
	feeRateBps := int64(0)
	if intent.FeeRateBps != nil {
		feeRateBps = int64(*intent.FeeRateBps)
	} else {
		ob.client.mu.RLock()
		if bps, ok := ob.client.feeRates[intent.TokenID]; ok {
			feeRateBps = int64(bps)
		}
		ob.client.mu.RUnlock()
	}

	nonce := int64(0)
	if intent.Nonce != nil {
		nonce = *intent.Nonce
	}

	expiration := big.NewInt(0)
	if orderType == types.OrderTypeFOK {
		expiration = big.NewInt(ob.cfg.Now().Add(fokWindow).Unix())
	}

	salt, err := ob.cfg.Salt()
	if err != nil {
		return nil, err
	}

	tokenID, _ := new(big.Int).SetString(intent.TokenID, 10)
	makerUnits := numeric.ToBaseUnits(makerAmt)
	takerUnits := numeric.ToBaseUnits(takerAmt)

	orderData := &signing.OrderData{
		Salt:          salt,
		Maker:         maker,
		Signer:        signerAddress,
		Taker:         taker,
		TokenID:       tokenID,
		MakerAmount:   makerUnits,
		TakerAmount:   takerUnits,
		Expiration:    expiration,
		Nonce:         big.NewInt(nonce),
		FeeRateBps:    big.NewInt(feeRateBps),
		Side:          intent.Side,
		SignatureType: ob.cfg.SignatureType,
	}

	signature, err := signing.SignOrder(
		ob.client.authConfig.PrivateKey,
		ob.cfg.ChainID,
		exchangeAddress,
		orderData,
	)
	if err != nil {
		return nil, err
	}

	return &types.AssembledOrder{
		IntentID: uuid.NewString(),
		Order: types.SignedOrder{
			Salt:          salt.String(),
			Maker:         maker,
			Signer:        signerAddress,
			Taker:         taker,
			TokenID:       intent.TokenID,
			MakerAmount:   makerUnits.String(),
			TakerAmount:   takerUnits.String(),
			Expiration:    expiration.String(),
			Nonce:         orderData.Nonce.String(),
			FeeRateBps:    orderData.FeeRateBps.String(),
			Side:          intent.Side,
			SignatureType: int(ob.cfg.SignatureType),
			Signature:     signature,
		},
		OrderType:         orderType,
		TokenID:           intent.TokenID,
		CreatedAt:         ob.cfg.Now().Unix(),
		EstimatedShares:   estShares,
		EstimatedAvgPrice: estAvg,
	}, nil
}
