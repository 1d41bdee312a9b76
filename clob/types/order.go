package types

import "github.com/shopspring/decimal"

// OrderKindType 订单种类（限价/市价）
type OrderKindType string

const (
	OrderKindLimit  OrderKindType = "limit"
	OrderKindMarket OrderKindType = "market"
)

// OrderKind 订单种类标签变体
//
// Limit 携带限价；Market 携带金额：
//   - BUY  市价单: Amount 为 USDC 金额
//   - SELL 市价单: Amount 为份额数量
type OrderKind struct {
	Type   OrderKindType
	Price  decimal.Decimal // 仅 Limit 有效
	Amount decimal.Decimal // 仅 Market 有效
}

// LimitKind 限价种类
func LimitKind(price decimal.Decimal) OrderKind {
	return OrderKind{Type: OrderKindLimit, Price: price}
}

// MarketKind 市价种类
func MarketKind(amount decimal.Decimal) OrderKind {
	return OrderKind{Type: OrderKindMarket, Amount: amount}
}

// OrderIntent 用户下单意图（每次 CLI 调用构造一次，之后不可变）
type OrderIntent struct {
	// TokenID 条件代币资产 ID
	TokenID string

	// Side 订单方向
	Side Side

	// Kind 限价或市价
	Kind OrderKind

	// Size 份额数量（仅限价单使用；市价单数量由 Kind.Amount 表达）
	Size decimal.Decimal

	// FeeRateBps 手续费率（基点），可选；nil 表示按市场费率表
	FeeRateBps *int

	// Nonce 用于链上取消订单的 nonce，可选
	Nonce *int64

	// Taker 订单接受者地址，零地址表示公开订单，可选
	Taker *string
}

// SignedOrder 已签名的订单
//
// maker/taker 金额均为整数基础单位（1e-6），比率即有效价格。
// 一经构造不可变，提交重试必须复用同一对象。
type SignedOrder struct {
	Salt          string `json:"salt"`
	Maker         string `json:"maker"`
	Signer        string `json:"signer"`
	Taker         string `json:"taker"`
	TokenID       string `json:"tokenId"`
	MakerAmount   string `json:"makerAmount"`
	TakerAmount   string `json:"takerAmount"`
	Expiration    string `json:"expiration"`
	Nonce         string `json:"nonce"`
	FeeRateBps    string `json:"feeRateBps"`
	Side          Side   `json:"side"`
	SignatureType int    `json:"signatureType"`
	Signature     string `json:"signature"`
}

// AssembledOrder 组装完成的订单（SignedOrder + 本地元数据）
//
// IntentID 是本地幂等键：提交层和订单日志用它保证
// 传输重试时复用 bit 级相同的已签名载荷，绝不重新签名。
type AssembledOrder struct {
	IntentID  string      `json:"intent_id"`
	Order     SignedOrder `json:"order"`
	OrderType OrderType   `json:"order_type"`
	TokenID   string      `json:"token_id"`
	CreatedAt int64       `json:"created_at"`

	// 市价单的本地估算（仅诊断用，不参与签名）
	EstimatedShares   decimal.Decimal `json:"estimated_shares"`
	EstimatedAvgPrice decimal.Decimal `json:"estimated_avg_price"`
}

// NewOrder 提交载荷（POST /order）
type NewOrder struct {
	Order     SignedOrder `json:"order"`
	Owner     string      `json:"owner"`
	OrderType OrderType   `json:"orderType"`
}

// OrderResponse 订单提交响应
type OrderResponse struct {
	Success           bool     `json:"success"`
	ErrorMsg          string   `json:"errorMsg"`
	OrderID           string   `json:"orderID"`
	TransactionHashes []string `json:"transactionsHashes"`
	Status            string   `json:"status"`
	TakingAmount      string   `json:"takingAmount"`
	MakingAmount      string   `json:"makingAmount"`
}

// OpenOrder 开放订单
type OpenOrder struct {
	ID              string   `json:"id"`
	Status          string   `json:"status"`
	Owner           string   `json:"owner"`
	MakerAddress    string   `json:"maker_address"`
	Market          string   `json:"market"`
	AssetID         string   `json:"asset_id"`
	Side            string   `json:"side"`
	OriginalSize    string   `json:"original_size"`
	SizeMatched     string   `json:"size_matched"`
	Price           string   `json:"price"`
	AssociateTrades []string `json:"associate_trades"`
	Outcome         string   `json:"outcome"`
	CreatedAt       int64    `json:"created_at"`
	Expiration      string   `json:"expiration"`
	OrderType       string   `json:"order_type"`
}

// OpenOrdersAPIResponse API 返回的开放订单响应结构
type OpenOrdersAPIResponse struct {
	Data       []OpenOrder `json:"data"`
	NextCursor string      `json:"next_cursor"`
	Limit      int         `json:"limit"`
	Count      int         `json:"count"`
}

// OpenOrderParams 查询开放订单参数
type OpenOrderParams struct {
	ID      *string
	Market  *string
	AssetID *string
}
