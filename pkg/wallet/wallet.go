// Package wallet 负责签名密钥的加载与派生。
//
// 私钥只在调用帧内流动：本包的函数返回 *ecdsa.PrivateKey，
// 任何结构体都不长期持有密钥，也绝不把密钥写入日志或错误。
package wallet

import (
	"crypto/ecdsa"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	hdwallet "github.com/miguelmota/go-ethereum-hdwallet"

	"github.com/betcli/gotrade/clob/signing"
	"github.com/betcli/gotrade/clob/types"
)

// DefaultDerivationPath 以太坊标准派生路径
const DefaultDerivationPath = "m/44'/60'/0'/0/0"

// FromHex 从十六进制私钥加载
func FromHex(hexKey string) (*ecdsa.PrivateKey, error) {
	return signing.PrivateKeyFromHex(hexKey)
}

// FromMnemonic 从助记词按派生路径推导私钥
func FromMnemonic(mnemonic, derivationPath string) (*ecdsa.PrivateKey, error) {
	mnemonic = strings.TrimSpace(mnemonic)
	if mnemonic == "" {
		return nil, types.ErrInvalidKey.WithField("mnemonic")
	}
	if derivationPath == "" {
		derivationPath = DefaultDerivationPath
	}

	w, err := hdwallet.NewFromMnemonic(mnemonic)
	if err != nil {
		// 不携带底层错误，避免回显助记词片段
		return nil, types.ErrInvalidKey.WithField("mnemonic")
	}

	path, err := hdwallet.ParseDerivationPath(derivationPath)
	if err != nil {
		return nil, types.ErrInvalidKey.WithField("derivation_path")
	}

	acct, err := w.Derive(path, false)
	if err != nil {
		return nil, types.ErrInvalidKey.WithField("derivation_path")
	}

	key, err := w.PrivateKey(acct)
	if err != nil {
		return nil, types.ErrInvalidKey.WithField("mnemonic")
	}
	return key, nil
}

// Address 返回私钥对应的地址
func Address(key *ecdsa.PrivateKey) common.Address {
	return signing.AddressFromPrivateKey(key)
}

// Zero 用零覆写私钥标量。调用后密钥不可再用于签名。
func Zero(key *ecdsa.PrivateKey) {
	if key == nil || key.D == nil {
		return
	}
	bits := key.D.Bits()
	for i := range bits {
		bits[i] = 0
	}
	key.D.SetInt64(0)
}
