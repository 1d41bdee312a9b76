package wallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betcli/gotrade/clob/types"
)

// 公开测试助记词（BIP39 标准测试向量，绝不可用于真实资金）
const testMnemonic = "test test test test test test test test test test test junk"

func TestFromMnemonic(t *testing.T) {
	key, err := FromMnemonic(testMnemonic, "")
	require.NoError(t, err)

	// Hardhat/Foundry 默认账户 0
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", Address(key).Hex())
}

func TestFromMnemonic_SecondAccount(t *testing.T) {
	key, err := FromMnemonic(testMnemonic, "m/44'/60'/0'/0/1")
	require.NoError(t, err)

	assert.Equal(t, "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", Address(key).Hex())
}

func TestFromMnemonic_Invalid(t *testing.T) {
	for _, mnemonic := range []string{"", "not a mnemonic", "banana banana banana"} {
		_, err := FromMnemonic(mnemonic, "")
		require.Error(t, err, "mnemonic %q", mnemonic)
		assert.ErrorIs(t, err, types.ErrInvalidKey)
		// 错误信息不得回显助记词
		assert.NotContains(t, err.Error(), "banana")
	}
}

func TestFromHex(t *testing.T) {
	key, err := FromHex("ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
	require.NoError(t, err)
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", Address(key).Hex())
}

func TestZero(t *testing.T) {
	key, err := FromHex("ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
	require.NoError(t, err)

	Zero(key)
	assert.Equal(t, int64(0), key.D.Int64())

	// nil 安全
	Zero(nil)
}
