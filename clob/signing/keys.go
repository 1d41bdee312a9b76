package signing

import (
	"crypto/ecdsa"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/betcli/gotrade/clob/types"
)

// PrivateKeyFromHex 从十六进制字符串解析私钥。
// 私钥绝不写入日志或错误信息，错误只携带分类。
func PrivateKeyFromHex(hexKey string) (*ecdsa.PrivateKey, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		// 注意：不包含 err，避免泄露密钥材料片段
		return nil, types.ErrInvalidKey.WithField("private_key")
	}
	return key, nil
}

// AddressFromPrivateKey 从私钥推导地址
func AddressFromPrivateKey(privateKey *ecdsa.PrivateKey) common.Address {
	return crypto.PubkeyToAddress(privateKey.PublicKey)
}
