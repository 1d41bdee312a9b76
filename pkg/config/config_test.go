package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betcli/gotrade/clob/types"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, types.ChainPolygon, cfg.Chain())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "data/orders.db", cfg.JournalPath)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
wallet:
  funder_address: "0x76564A875522c78263B7c0c51B3760A1776877af"
  signature_type: 2
api:
  clob_host: "https://example.test"
  chain_id: 80002
log:
  level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0x76564A875522c78263B7c0c51B3760A1776877af", cfg.Wallet.FunderAddress)
	assert.Equal(t, 2, cfg.Wallet.SignatureType)
	assert.Equal(t, "https://example.test", cfg.API.ClobHost)
	assert.Equal(t, types.ChainAmoy, cfg.Chain())
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o644))

	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_PrivateKeyEnvPrecedence(t *testing.T) {
	t.Setenv("PRIVATE_KEY", "aa")
	t.Setenv("POLYMARKET_PRIVATE_KEY", "bb")

	cfg, err := Load("")
	require.NoError(t, err)
	// 带命名空间的变量优先
	assert.Equal(t, "bb", cfg.Wallet.PrivateKey)
}

func TestLoad_PrivateKeyFallback(t *testing.T) {
	t.Setenv("PRIVATE_KEY", "aa")
	t.Setenv("POLYMARKET_PRIVATE_KEY", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "aa", cfg.Wallet.PrivateKey)
	assert.True(t, cfg.HasWallet())
}

func TestAPICreds(t *testing.T) {
	cfg := defaults()
	assert.Nil(t, cfg.APICreds())

	cfg.Creds = CredsConfig{Key: "k", Secret: "s", Passphrase: "p"}
	creds := cfg.APICreds()
	require.NotNil(t, creds)
	assert.Equal(t, "k", creds.Key)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("wallet: [not a map"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
