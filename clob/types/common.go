package types

// Side 订单方向
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Uint8 返回链上合约使用的方向编码（BUY=0, SELL=1）
func (s Side) Uint8() uint8 {
	if s == SideBuy {
		return 0
	}
	return 1
}

// OrderType 订单执行类型
type OrderType string

const (
	OrderTypeGTC OrderType = "GTC" // Good Till Cancel - 一直有效直到取消
	OrderTypeFOK OrderType = "FOK" // Fill or Kill - 全部成交或全部取消
	OrderTypeGTD OrderType = "GTD" // Good Till Date - 指定日期前有效
	OrderTypeFAK OrderType = "FAK" // Fill and Kill - 部分成交，剩余取消
)

// Chain 区块链网络
type Chain int

const (
	ChainPolygon Chain = 137
	ChainAmoy    Chain = 80002
)

// SignatureType 签名类型
type SignatureType int

const (
	SignatureTypeEOA        SignatureType = 0 // 标准以太坊钱包直接签名
	SignatureTypePolyProxy  SignatureType = 1 // Magic Link 邮箱登录代理钱包
	SignatureTypeGnosisSafe SignatureType = 2 // Gnosis Safe 代理钱包
)

// AssetType 资产类型
type AssetType string

const (
	AssetTypeCollateral  AssetType = "COLLATERAL"
	AssetTypeConditional AssetType = "CONDITIONAL"
)

// TickSize 价格精度
type TickSize string

const (
	TickSize01    TickSize = "0.1"
	TickSize001   TickSize = "0.01"
	TickSize0001  TickSize = "0.001"
	TickSize00001 TickSize = "0.0001"
)

// ApiKeyCreds API 密钥凭证
type ApiKeyCreds struct {
	Key        string
	Secret     string
	Passphrase string
}

// ApiKeyRaw 原始 API 密钥（API 返回格式）
type ApiKeyRaw struct {
	ApiKey     string `json:"apiKey"`
	Secret     string `json:"secret"`
	Passphrase string `json:"passphrase"`
}

// ZeroAddress 公开订单的 taker 地址
const ZeroAddress = "0x0000000000000000000000000000000000000000"
