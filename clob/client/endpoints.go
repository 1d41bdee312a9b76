package client

// API 端点常量
const (
	// Server Time
	EndpointTime = "/time"

	// API Key endpoints
	EndpointCreateAPIKey = "/auth/api-key"
	EndpointDeriveAPIKey = "/auth/derive-api-key"
	EndpointDeleteAPIKey = "/auth/api-key"

	// Markets
	EndpointGetMarket    = "/markets/"
	EndpointGetOrderBook = "/book"
	EndpointGetMidpoint  = "/midpoint"
	EndpointGetSpread    = "/spread"
	EndpointGetPrice     = "/price"

	// Order endpoints
	EndpointPostOrder     = "/order"
	EndpointCancelOrder   = "/order"
	EndpointCancelAll     = "/cancel-all"
	EndpointGetOrder      = "/data/order/"
	EndpointGetOpenOrders = "/data/orders"
	EndpointGetTrades     = "/data/trades"

	// Balance
	EndpointGetBalanceAllowance = "/balance-allowance"
)

// DefaultHost CLOB 主网 API 地址
const DefaultHost = "https://clob.polymarket.com"
