package client

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"

	"github.com/betcli/gotrade/clob/signing"
	"github.com/betcli/gotrade/clob/types"
)

// AuthConfig 认证配置
type AuthConfig struct {
	PrivateKey *ecdsa.PrivateKey
	ChainID    types.Chain
	Creds      *types.ApiKeyCreds
}

// CanL2Auth 检查是否可以进行 L2 认证
func (c *Client) CanL2Auth() error {
	if c.authConfig == nil || c.authConfig.Creds == nil {
		return types.ErrMissingCredentials.WithField("api_creds")
	}
	return nil
}

// CanL1Auth 检查是否可以进行 L1 认证
func (c *Client) CanL1Auth() error {
	if c.authConfig == nil || c.authConfig.PrivateKey == nil {
		return types.ErrMissingCredentials.WithField("private_key")
	}
	return nil
}

// GetAddress 获取账号地址（从私钥计算）
func (c *Client) GetAddress() (common.Address, error) {
	if err := c.CanL1Auth(); err != nil {
		return common.Address{}, err
	}
	return signing.AddressFromPrivateKey(c.authConfig.PrivateKey), nil
}

// l2HeaderMap 构建 L2 认证头并转换为请求头 map
func (c *Client) l2HeaderMap(method, requestPath string, body *string) (map[string]string, error) {
	headers, err := signing.CreateL2Headers(
		c.authConfig.PrivateKey,
		c.authConfig.Creds,
		&types.L2HeaderArgs{
			Method:      method,
			RequestPath: requestPath,
			Body:        body,
		},
		nil,
	)
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"POLY_ADDRESS":    headers.PolyAddress,
		"POLY_SIGNATURE":  headers.PolySignature,
		"POLY_TIMESTAMP":  headers.PolyTimestamp,
		"POLY_API_KEY":    headers.PolyAPIKey,
		"POLY_PASSPHRASE": headers.PolyPassphrase,
	}, nil
}
