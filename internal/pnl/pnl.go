// Package pnl 计算持仓的市值与盈亏。
package pnl

import (
	"github.com/shopspring/decimal"

	"github.com/betcli/gotrade/clob/types"
)

var hundred = decimal.NewFromInt(100)

// Valuation 持仓估值
type Valuation struct {
	// Size 持仓份额
	Size decimal.Decimal

	// AvgPrice 开仓均价
	AvgPrice decimal.Decimal

	// MarkPrice 估值用标记价（通常为中间价）
	MarkPrice decimal.Decimal

	// Value 当前市值 = Size × MarkPrice
	Value decimal.Decimal

	// PnL 未实现盈亏 = (MarkPrice − AvgPrice) × Size
	PnL decimal.Decimal
}

// Evaluate 按标记价对持仓估值。
//
// 全程定点运算，份额与价格保持 API 返回的原始精度。
func Evaluate(size, avgPrice, markPrice decimal.Decimal) (*Valuation, error) {
	if size.LessThan(decimal.Zero) {
		return nil, (&types.Error{Kind: types.ErrKindValidation, Msg: "position size cannot be negative"}).WithField("size")
	}
	if avgPrice.LessThan(decimal.Zero) {
		return nil, (&types.Error{Kind: types.ErrKindValidation, Msg: "entry price cannot be negative"}).WithField("avg_price")
	}
	if markPrice.LessThan(decimal.Zero) {
		return nil, (&types.Error{Kind: types.ErrKindValidation, Msg: "mark price cannot be negative"}).WithField("mark_price")
	}

	return &Valuation{
		Size:      size,
		AvgPrice:  avgPrice,
		MarkPrice: markPrice,
		Value:     size.Mul(markPrice),
		PnL:       markPrice.Sub(avgPrice).Mul(size),
	}, nil
}

// PercentReturn 收益率（百分数）。
// 开仓均价为零时无定义，返回 ErrUndefinedPercentage，
// 调用方可展示市值并略去百分比。
func (v *Valuation) PercentReturn() (decimal.Decimal, error) {
	if v.AvgPrice.IsZero() {
		return decimal.Zero, types.ErrUndefinedPercentage.WithField("avg_price")
	}
	return v.MarkPrice.Sub(v.AvgPrice).Div(v.AvgPrice).Mul(hundred), nil
}
