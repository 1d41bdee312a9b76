// Package book 提供订单簿的不可变快照模型。
//
// 快照在每次获取时重建，决策到签名期间绝不原地修改。
// 要更新行情就重新获取，避免在挂起点之间基于过期内存状态行动。
package book

import (
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/betcli/gotrade/clob/types"
)

// Level 订单簿档位
type Level struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

// Snapshot 某个 token 订单簿的时点视图
//
// bids 按价格降序，asks 按价格升序；构造后不可变。
// 正常情况下 best bid < best ask（不交叉），单边为空时
// 其余计算仍需可用。
type Snapshot struct {
	TokenID   string
	Timestamp time.Time

	bids []Level
	asks []Level
}

// FromSummary 从 REST 订单簿摘要构建快照
func FromSummary(summary *types.OrderBookSummary) (*Snapshot, error) {
	bids, err := parseLevels(summary.Bids, "bids")
	if err != nil {
		return nil, err
	}
	asks, err := parseLevels(summary.Asks, "asks")
	if err != nil {
		return nil, err
	}

	// bids 降序（最高买价优先），asks 升序（最低卖价优先）
	sort.Slice(bids, func(i, j int) bool { return bids[i].Price.GreaterThan(bids[j].Price) })
	sort.Slice(asks, func(i, j int) bool { return asks[i].Price.LessThan(asks[j].Price) })

	ts := time.Now()
	if ms, err := strconv.ParseInt(summary.Timestamp, 10, 64); err == nil {
		ts = time.UnixMilli(ms)
	}

	return &Snapshot{
		TokenID:   summary.AssetID,
		Timestamp: ts,
		bids:      bids,
		asks:      asks,
	}, nil
}

func parseLevels(raw []types.OrderSummary, field string) ([]Level, error) {
	levels := make([]Level, 0, len(raw))
	for _, l := range raw {
		price, err := decimal.NewFromString(l.Price)
		if err != nil {
			return nil, (&types.Error{Kind: types.ErrKindValidation, Msg: "malformed book level price"}).WithField(field).WithCause(err)
		}
		size, err := decimal.NewFromString(l.Size)
		if err != nil {
			return nil, (&types.Error{Kind: types.ErrKindValidation, Msg: "malformed book level size"}).WithField(field).WithCause(err)
		}
		if size.LessThanOrEqual(decimal.Zero) {
			continue
		}
		levels = append(levels, Level{Price: price, Size: size})
	}
	return levels, nil
}

// Bids 返回买盘档位副本（降序）
func (s *Snapshot) Bids() []Level {
	out := make([]Level, len(s.bids))
	copy(out, s.bids)
	return out
}

// Asks 返回卖盘档位副本（升序）
func (s *Snapshot) Asks() []Level {
	out := make([]Level, len(s.asks))
	copy(out, s.asks)
	return out
}

// BestBid 最优买价
func (s *Snapshot) BestBid() (Level, bool) {
	if len(s.bids) == 0 {
		return Level{}, false
	}
	return s.bids[0], true
}

// BestAsk 最优卖价
func (s *Snapshot) BestAsk() (Level, bool) {
	if len(s.asks) == 0 {
		return Level{}, false
	}
	return s.asks[0], true
}

var two = decimal.NewFromInt(2)

// Midpoint 中间价：最优买卖价的平均。
// 单边为空时返回另一边的最优价；两边都空返回 ErrNoLiquidity。
func (s *Snapshot) Midpoint() (decimal.Decimal, error) {
	bid, hasBid := s.BestBid()
	ask, hasAsk := s.BestAsk()
	switch {
	case hasBid && hasAsk:
		return bid.Price.Add(ask.Price).Div(two), nil
	case hasBid:
		return bid.Price, nil
	case hasAsk:
		return ask.Price, nil
	}
	return decimal.Zero, types.ErrNoLiquidity.WithField("book")
}

// Spread 价差：best ask − best bid。任一边为空返回 ErrNoLiquidity。
func (s *Snapshot) Spread() (decimal.Decimal, error) {
	bid, hasBid := s.BestBid()
	ask, hasAsk := s.BestAsk()
	if !hasBid || !hasAsk {
		return decimal.Zero, types.ErrNoLiquidity.WithField("book")
	}
	return ask.Price.Sub(bid.Price), nil
}

// sideLevels 返回吃单方向消耗的档位：买入吃 asks，卖出吃 bids
func (s *Snapshot) sideLevels(side types.Side) []Level {
	if side == types.SideBuy {
		return s.asks
	}
	return s.bids
}

// WalkForQuote 按价格优先顺序模拟消耗档位，直到累计名义金额
// （价格×数量）达到 quoteAmount，最后一档可部分消耗。
//
// 返回成交份额总数与成交量加权平均价。整本订单簿耗尽仍不足
// quoteAmount 时返回 ErrInsufficientLiquidity。
//
// 市价买入即通过该走簿把 USDC 金额换算成 taker 份额数。
func (s *Snapshot) WalkForQuote(side types.Side, quoteAmount decimal.Decimal) (shares, avgPrice decimal.Decimal, err error) {
	if quoteAmount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, decimal.Zero, (&types.Error{Kind: types.ErrKindValidation, Msg: "quote amount must be positive"}).WithField("amount")
	}

	remaining := quoteAmount
	totalShares := decimal.Zero
	totalCost := decimal.Zero

	for _, level := range s.sideLevels(side) {
		levelNotional := level.Price.Mul(level.Size)
		if levelNotional.LessThanOrEqual(remaining) {
			// 整档消耗
			totalShares = totalShares.Add(level.Size)
			totalCost = totalCost.Add(levelNotional)
			remaining = remaining.Sub(levelNotional)
		} else {
			// 部分消耗最后一档
			fill := remaining.Div(level.Price)
			totalShares = totalShares.Add(fill)
			totalCost = totalCost.Add(remaining)
			remaining = decimal.Zero
		}
		if remaining.IsZero() {
			break
		}
	}

	if remaining.GreaterThan(decimal.Zero) {
		return decimal.Zero, decimal.Zero, types.ErrInsufficientLiquidity.WithField("amount")
	}
	return totalShares, totalCost.Div(totalShares), nil
}

// WalkForShares 按份额数量走簿：消耗档位直到累计份额达到
// shareAmount，返回名义金额总数与加权平均价。
//
// 市价卖出用它对买盘估算最差可接受平均成交价（仅本地校验，
// 签名的 taker 数量仍是字面份额数，FOK 定价由交易所端保证）。
func (s *Snapshot) WalkForShares(side types.Side, shareAmount decimal.Decimal) (notional, avgPrice decimal.Decimal, err error) {
	if shareAmount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, decimal.Zero, (&types.Error{Kind: types.ErrKindValidation, Msg: "share amount must be positive"}).WithField("amount")
	}

	remaining := shareAmount
	totalCost := decimal.Zero

	for _, level := range s.sideLevels(side) {
		if level.Size.LessThanOrEqual(remaining) {
			totalCost = totalCost.Add(level.Price.Mul(level.Size))
			remaining = remaining.Sub(level.Size)
		} else {
			totalCost = totalCost.Add(level.Price.Mul(remaining))
			remaining = decimal.Zero
		}
		if remaining.IsZero() {
			break
		}
	}

	if remaining.GreaterThan(decimal.Zero) {
		return decimal.Zero, decimal.Zero, types.ErrInsufficientLiquidity.WithField("amount")
	}
	return totalCost, totalCost.Div(shareAmount), nil
}
