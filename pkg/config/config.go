// Package config 加载 CLI 配置。
//
// 优先级：环境变量 > YAML 配置文件 > 默认值。
// .env 文件通过 godotenv 读入进程环境后按同样优先级参与。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/betcli/gotrade/clob/types"
)

// WalletConfig 钱包配置
type WalletConfig struct {
	// PrivateKey 十六进制私钥；与 Mnemonic 二选一
	PrivateKey string `yaml:"private_key"`

	// Mnemonic 助记词；设置时按 DerivationPath 派生
	Mnemonic       string `yaml:"mnemonic"`
	DerivationPath string `yaml:"derivation_path"`

	// FunderAddress 资金地址（代理钱包）；为空时 maker = signer
	FunderAddress string `yaml:"funder_address"`

	// SignatureType 0=EOA 1=PolyProxy 2=GnosisSafe
	SignatureType int `yaml:"signature_type"`
}

// APIConfig API 端点配置
type APIConfig struct {
	ClobHost  string `yaml:"clob_host"`
	GammaHost string `yaml:"gamma_host"`
	DataHost  string `yaml:"data_host"`
	ChainID   int    `yaml:"chain_id"`
}

// CredsConfig L2 API 凭证
type CredsConfig struct {
	Key        string `yaml:"key"`
	Secret     string `yaml:"secret"`
	Passphrase string `yaml:"passphrase"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Config CLI 配置
type Config struct {
	Wallet      WalletConfig `yaml:"wallet"`
	API         APIConfig    `yaml:"api"`
	Creds       CredsConfig  `yaml:"creds"`
	Log         LogConfig    `yaml:"log"`
	JournalPath string       `yaml:"journal_path"`
	SecretsPath string       `yaml:"secrets_path"`
	UserAddress string       `yaml:"user_address"`
}

// Load 加载配置：先读 .env（存在时），再读可选 YAML 文件，
// 最后用环境变量覆盖。
func Load(configPath string) (*Config, error) {
	// .env 不存在不算错误
	_ = godotenv.Load()

	cfg := defaults()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("读取配置文件失败 %s: %w", configPath, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("解析配置文件失败 %s: %w", configPath, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		API: APIConfig{
			ChainID: int(types.ChainPolygon),
		},
		Log: LogConfig{
			Level: "info",
		},
		JournalPath: "data/orders.db",
		SecretsPath: "data/secrets",
	}
}

func applyEnv(cfg *Config) {
	// 私钥同时接受带命名空间和不带命名空间的变量名，
	// 带命名空间的优先，避免与其他工具的 PRIVATE_KEY 撞名
	if v := firstEnv("POLYMARKET_PRIVATE_KEY", "PRIVATE_KEY"); v != "" {
		cfg.Wallet.PrivateKey = v
	}
	if v := os.Getenv("POLYMARKET_MNEMONIC"); v != "" {
		cfg.Wallet.Mnemonic = v
	}
	if v := os.Getenv("POLYMARKET_FUNDER_ADDRESS"); v != "" {
		cfg.Wallet.FunderAddress = v
	}
	if v := os.Getenv("POLYMARKET_SIGNATURE_TYPE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Wallet.SignatureType = n
		}
	}

	if v := os.Getenv("USER_ADDRESS"); v != "" {
		cfg.UserAddress = v
	}

	if v := os.Getenv("CLOB_HOST"); v != "" {
		cfg.API.ClobHost = v
	}
	if v := os.Getenv("GAMMA_HOST"); v != "" {
		cfg.API.GammaHost = v
	}
	if v := os.Getenv("DATA_HOST"); v != "" {
		cfg.API.DataHost = v
	}
	if v := os.Getenv("CHAIN_ID"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.API.ChainID = n
		}
	}

	if v := os.Getenv("POLY_API_KEY"); v != "" {
		cfg.Creds.Key = v
	}
	if v := os.Getenv("POLY_API_SECRET"); v != "" {
		cfg.Creds.Secret = v
	}
	if v := os.Getenv("POLY_PASSPHRASE"); v != "" {
		cfg.Creds.Passphrase = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Log.File = v
	}

	if v := os.Getenv("JOURNAL_PATH"); v != "" {
		cfg.JournalPath = v
	}
	if v := os.Getenv("SECRETS_PATH"); v != "" {
		cfg.SecretsPath = v
	}
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

// Chain 返回配置的链 ID
func (c *Config) Chain() types.Chain {
	return types.Chain(c.API.ChainID)
}

// HasWallet 是否配置了可用的签名材料
func (c *Config) HasWallet() bool {
	return c.Wallet.PrivateKey != "" || c.Wallet.Mnemonic != ""
}

// HasCreds 是否配置了完整的 L2 凭证
func (c *Config) HasCreds() bool {
	return c.Creds.Key != "" && c.Creds.Secret != "" && c.Creds.Passphrase != ""
}

// APICreds 转换为客户端凭证；不完整时返回 nil
func (c *Config) APICreds() *types.ApiKeyCreds {
	if !c.HasCreds() {
		return nil
	}
	return &types.ApiKeyCreds{
		Key:        c.Creds.Key,
		Secret:     c.Creds.Secret,
		Passphrase: c.Creds.Passphrase,
	}
}
