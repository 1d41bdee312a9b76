package signing

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/betcli/gotrade/clob/types"
)

// BuildClobAuthSignature 构建 L1 认证的 EIP712 签名。
// ClobAuth 域不含 verifyingContract，链上不验证此签名，
// 只用于向 CLOB 证明钱包控制权以派生 API 密钥。
func BuildClobAuthSignature(
	privateKey *ecdsa.PrivateKey,
	chainID types.Chain,
	timestamp int64,
	nonce int64,
) (string, error) {
	address := crypto.PubkeyToAddress(privateKey.PublicKey)

	domain := apitypes.TypedDataDomain{
		Name:    ClobAuthDomainName,
		Version: ProtocolVersion,
		ChainId: math.NewHexOrDecimal256(int64(chainID)),
	}

	typeDefs := apitypes.Types{
		"EIP712Domain": {
			{Name: "name", Type: "string"},
			{Name: "version", Type: "string"},
			{Name: "chainId", Type: "uint256"},
		},
		"ClobAuth": {
			{Name: "address", Type: "address"},
			{Name: "timestamp", Type: "string"},
			{Name: "nonce", Type: "uint256"},
			{Name: "message", Type: "string"},
		},
	}

	message := map[string]interface{}{
		"address":   address.Hex(),
		"timestamp": fmt.Sprintf("%d", timestamp),
		"nonce":     big.NewInt(nonce),
		"message":   MsgToSign,
	}

	typedData := apitypes.TypedData{
		Types:       typeDefs,
		PrimaryType: "ClobAuth",
		Domain:      domain,
		Message:     message,
	}

	digest, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return "", types.ErrSigningFailure.WithField("clob_auth").WithCause(err)
	}

	// crypto.Sign 返回 65 字节：r(32) + s(32) + v(1)
	signature, err := crypto.Sign(digest, privateKey)
	if err != nil {
		return "", types.ErrSigningFailure.WithField("clob_auth").WithCause(err)
	}

	return "0x" + common.Bytes2Hex(signature), nil
}
