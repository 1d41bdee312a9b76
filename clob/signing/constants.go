package signing

const (
	// ClobAuthDomainName CLOB 认证域的 EIP712 域名
	ClobAuthDomainName = "ClobAuthDomain"

	// ExchangeDomainName 订单签名域的 EIP712 域名
	// 必须与验证合约一字不差，否则交易所按签名不匹配拒单
	ExchangeDomainName = "Polymarket CTF Exchange"

	// ProtocolVersion EIP712 版本
	ProtocolVersion = "1"

	// MsgToSign L1 认证签名消息
	MsgToSign = "This message attests that I control the given wallet"
)
