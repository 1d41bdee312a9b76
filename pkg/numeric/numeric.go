// Package numeric 提供订单价格/数量的归一化运算。
//
// 所有运算使用定点 decimal，绝不使用二进制浮点：
// 签名订单的整数基础单位必须在签名方与验证合约之间逐位一致，
// 任何浮点舍入偏差都会导致哈希不匹配、签名被拒。
package numeric

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/betcli/gotrade/clob/types"
)

// CollateralDecimals 抵押品代币精度（USDC = 6）
const CollateralDecimals = 6

// RoundConfig 舍入配置（各字段为小数位数）
type RoundConfig struct {
	Price  int32 // 价格小数位数
	Size   int32 // 数量小数位数
	Amount int32 // 金额小数位数
}

// RoundingConfig 按 tick size 的舍入配置
var RoundingConfig = map[types.TickSize]RoundConfig{
	types.TickSize01:    {Price: 1, Size: 2, Amount: 3},
	types.TickSize001:   {Price: 2, Size: 2, Amount: 4},
	types.TickSize0001:  {Price: 3, Size: 2, Amount: 5},
	types.TickSize00001: {Price: 4, Size: 2, Amount: 6},
}

// ConfigFor 返回 tick size 对应的舍入配置
func ConfigFor(tick types.TickSize) (RoundConfig, error) {
	rc, ok := RoundingConfig[tick]
	if !ok {
		return RoundConfig{}, types.ErrInvalidTick.WithField("tick_size")
	}
	return rc, nil
}

var one = decimal.NewFromInt(1)

// NormalizePrice 将价格舍入到最近的有效 tick。
//
// 结果价格必须落在 (0, 1) 开区间内：结果代币价格是概率，
// 0 和 1 本身不可成交。
func NormalizePrice(price, tick decimal.Decimal) (decimal.Decimal, error) {
	if tick.LessThanOrEqual(decimal.Zero) || tick.GreaterThanOrEqual(one) {
		return decimal.Zero, types.ErrInvalidTick.WithField("tick_size")
	}
	if price.LessThanOrEqual(decimal.Zero) || price.GreaterThanOrEqual(one) {
		return decimal.Zero, types.ErrInvalidTick.WithField("price")
	}
	normalized := price.Div(tick).Round(0).Mul(tick)
	if normalized.LessThanOrEqual(decimal.Zero) || normalized.GreaterThanOrEqual(one) {
		return decimal.Zero, types.ErrInvalidTick.WithField("price")
	}
	return normalized, nil
}

// NormalizeSize 将数量向下取整到 lot 精度。
//
// 只舍不入：承诺的抵押品/份额永远不能超过用户授权的数量。
// 取整后为零或低于市场最小下单量时返回 ErrBelowMinimumSize。
func NormalizeSize(amount decimal.Decimal, lotPlaces int32, minSize decimal.Decimal) (decimal.Decimal, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, types.ErrBelowMinimumSize.WithField("size")
	}
	floored := amount.RoundFloor(lotPlaces)
	if floored.LessThanOrEqual(decimal.Zero) || floored.LessThan(minSize) {
		return decimal.Zero, types.ErrBelowMinimumSize.WithField("size")
	}
	return floored, nil
}

// ToBaseUnits 转换为整数基础单位（×10^6，截断）
func ToBaseUnits(v decimal.Decimal) *big.Int {
	return v.Shift(CollateralDecimals).Truncate(0).BigInt()
}

// FromBaseUnits 从整数基础单位还原 decimal
func FromBaseUnits(u *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(u, -CollateralDecimals)
}

// TickDecimal 返回 tick size 的 decimal 值
func TickDecimal(tick types.TickSize) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(string(tick))
	if err != nil {
		return decimal.Zero, types.ErrInvalidTick.WithField("tick_size")
	}
	return d, nil
}

// TickSizeFromFloat 将市场元数据中的最小 tick（float）映射为 TickSize
func TickSizeFromFloat(v float64) (types.TickSize, error) {
	switch {
	case v == 0.1:
		return types.TickSize01, nil
	case v == 0.01:
		return types.TickSize001, nil
	case v == 0.001:
		return types.TickSize0001, nil
	case v == 0.0001:
		return types.TickSize00001, nil
	}
	return "", types.ErrInvalidTick.WithField("minimum_tick_size")
}
