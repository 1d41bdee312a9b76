package signing

import (
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/betcli/gotrade/clob/types"
)

// OrderData 待签名的订单数据（规范字段序）
//
// 字段顺序与类型定义必须与验证合约的 Order 结构一字不差：
// 任何偏差产生的哈希都会被交易所当作签名不匹配拒绝，
// 而不是语义错误。
type OrderData struct {
	Salt          *big.Int
	Maker         string
	Signer        string
	Taker         string
	TokenID       *big.Int
	MakerAmount   *big.Int
	TakerAmount   *big.Int
	Expiration    *big.Int
	Nonce         *big.Int
	FeeRateBps    *big.Int
	Side          types.Side
	SignatureType types.SignatureType
}

// orderTypes 订单域的 EIP712 类型定义
var orderTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	"Order": {
		{Name: "salt", Type: "uint256"},
		{Name: "maker", Type: "address"},
		{Name: "signer", Type: "address"},
		{Name: "taker", Type: "address"},
		{Name: "tokenId", Type: "uint256"},
		{Name: "makerAmount", Type: "uint256"},
		{Name: "takerAmount", Type: "uint256"},
		{Name: "expiration", Type: "uint256"},
		{Name: "nonce", Type: "uint256"},
		{Name: "feeRateBps", Type: "uint256"},
		{Name: "side", Type: "uint8"},
		{Name: "signatureType", Type: "uint8"},
	},
}

// OrderDigest 计算订单的 EIP712 结构化哈希。
// 摘要从规范编码确定性计算，绝不来自松散序列化形式。
func OrderDigest(chainID types.Chain, exchangeAddress string, order *OrderData) ([]byte, error) {
	domain := apitypes.TypedDataDomain{
		Name:              ExchangeDomainName,
		Version:           ProtocolVersion,
		ChainId:           math.NewHexOrDecimal256(int64(chainID)),
		VerifyingContract: exchangeAddress,
	}

	message := map[string]interface{}{
		"salt":          order.Salt,
		"maker":         common.HexToAddress(order.Maker).Hex(),
		"signer":        common.HexToAddress(order.Signer).Hex(),
		"taker":         common.HexToAddress(order.Taker).Hex(),
		"tokenId":       order.TokenID,
		"makerAmount":   order.MakerAmount,
		"takerAmount":   order.TakerAmount,
		"expiration":    order.Expiration,
		"nonce":         order.Nonce,
		"feeRateBps":    order.FeeRateBps,
		"side":          big.NewInt(int64(order.Side.Uint8())),
		"signatureType": big.NewInt(int64(order.SignatureType)),
	}

	typedData := apitypes.TypedData{
		Types:       orderTypes,
		PrimaryType: "Order",
		Domain:      domain,
		Message:     message,
	}

	digest, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return nil, types.ErrSigningFailure.WithField("order").WithCause(err)
	}
	return digest, nil
}

// SignOrder 对订单摘要签名，返回可恢复出签名者地址的
// 65 字节签名（r‖s‖v），0x 前缀十六进制。
func SignOrder(privateKey *ecdsa.PrivateKey, chainID types.Chain, exchangeAddress string, order *OrderData) (string, error) {
	if privateKey == nil || privateKey.PublicKey.X == nil {
		return "", types.ErrInvalidKey.WithField("private_key")
	}

	digest, err := OrderDigest(chainID, exchangeAddress, order)
	if err != nil {
		return "", err
	}

	signature, err := crypto.Sign(digest, privateKey)
	if err != nil {
		return "", types.ErrSigningFailure.WithField("order").WithCause(err)
	}

	return "0x" + common.Bytes2Hex(signature), nil
}
