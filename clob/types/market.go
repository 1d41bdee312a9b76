package types

import "github.com/shopspring/decimal"

// Market 市场元数据（GET /markets/{condition_id}）
//
// 一经获取不可变；数值字段保持 API 原始类型，
// 换算为 decimal 在引擎边界完成。
type Market struct {
	ConditionID     string        `json:"condition_id"`
	QuestionID      string        `json:"question_id"`
	Question        string        `json:"question"`
	MarketSlug      string        `json:"market_slug"`
	Active          bool          `json:"active"`
	Closed          bool          `json:"closed"`
	MinimumOrderSize float64      `json:"minimum_order_size"`
	MinimumTickSize  float64      `json:"minimum_tick_size"`
	NegRisk         bool          `json:"neg_risk"`
	MakerBaseFee    float64       `json:"maker_base_fee"`
	TakerBaseFee    float64       `json:"taker_base_fee"`
	Tokens          []MarketToken `json:"tokens"`
}

// MarketToken 市场的一个结果代币（Yes/No）
type MarketToken struct {
	TokenID string  `json:"token_id"`
	Outcome string  `json:"outcome"`
	Price   float64 `json:"price"`
	Winner  bool    `json:"winner"`
}

// MarketPrice 市场价格
type MarketPrice struct {
	Price string `json:"price"`
}

// MidpointResponse 中间价响应
type MidpointResponse struct {
	Mid string `json:"mid"`
}

// SpreadResponse 价差响应
type SpreadResponse struct {
	Spread string `json:"spread"`
}

// OrderBookSummary 订单簿摘要（GET /book）
type OrderBookSummary struct {
	Market       string         `json:"market"`
	AssetID      string         `json:"asset_id"`
	Timestamp    string         `json:"timestamp"`
	Bids         []OrderSummary `json:"bids"`
	Asks         []OrderSummary `json:"asks"`
	MinOrderSize string         `json:"min_order_size"`
	TickSize     string         `json:"tick_size"`
	NegRisk      bool           `json:"neg_risk"`
	Hash         string         `json:"hash"`
}

// OrderSummary 订单簿档位
type OrderSummary struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// BalanceAllowanceParams 余额和授权查询参数
type BalanceAllowanceParams struct {
	AssetType     AssetType
	TokenID       *string
	SignatureType *SignatureType
}

// BalanceAllowanceResponse 余额和授权响应
type BalanceAllowanceResponse struct {
	Balance   string `json:"balance"`
	Allowance string `json:"allowance"`
}

// CreateOrderOptions 创建订单选项（从市场元数据派生）
type CreateOrderOptions struct {
	TickSize TickSize
	NegRisk  bool

	// MinSize 市场最小下单份额；零值表示市场未设下限
	MinSize decimal.Decimal
}

// TickSizes token -> 价格精度缓存
type TickSizes map[string]TickSize

// NegRiskFlags token -> 负风险标志缓存
type NegRiskFlags map[string]bool

// FeeRates token -> 手续费率（基点）缓存
type FeeRates map[string]int
