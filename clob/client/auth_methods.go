package client

import (
	"context"
	"io"
	"net/http"

	"github.com/betcli/gotrade/clob/signing"
	"github.com/betcli/gotrade/clob/types"
)

// CreateOrDeriveAPIKey 创建或推导 API 密钥（L1 方法）。
// 先尝试推导已有密钥；400 说明账户尚无密钥，转为创建。
func (c *Client) CreateOrDeriveAPIKey(ctx context.Context, nonce *int64) (*types.ApiKeyCreds, error) {
	if err := c.CanL1Auth(); err != nil {
		return nil, err
	}

	var n int64 = 0
	if nonce != nil {
		n = *nonce
	}

	headers, err := signing.CreateL1Headers(
		c.authConfig.PrivateKey,
		c.authConfig.ChainID,
		&n,
		nil,
	)
	if err != nil {
		return nil, err
	}

	headerMap := map[string]string{
		"POLY_ADDRESS":   headers.PolyAddress,
		"POLY_SIGNATURE": headers.PolySignature,
		"POLY_TIMESTAMP": headers.PolyTimestamp,
		"POLY_NONCE":     headers.PolyNonce,
	}

	resp, err := c.httpClient.get(ctx, EndpointDeriveAPIKey, headerMap, nil)
	if err == nil && resp != nil {
		if resp.StatusCode == http.StatusOK {
			var raw types.ApiKeyRaw
			if err := parseResponse(resp, &raw); err != nil {
				return nil, err
			}
			return &types.ApiKeyCreds{
				Key:        raw.ApiKey,
				Secret:     raw.Secret,
				Passphrase: raw.Passphrase,
			}, nil
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			c.log.WithField("status", resp.StatusCode).Warn("derive api key failed, falling back to create")
		}
	}

	resp, err = c.httpClient.post(ctx, EndpointCreateAPIKey, headerMap, []byte("{}"))
	if err != nil {
		return nil, err
	}

	var raw types.ApiKeyRaw
	if err := parseResponse(resp, &raw); err != nil {
		return nil, err
	}

	return &types.ApiKeyCreds{
		Key:        raw.ApiKey,
		Secret:     raw.Secret,
		Passphrase: raw.Passphrase,
	}, nil
}

// DeriveAPIKey 推导现有 API 密钥
func (c *Client) DeriveAPIKey(ctx context.Context, nonce int64) (*types.ApiKeyCreds, error) {
	return c.CreateOrDeriveAPIKey(ctx, &nonce)
}

// CreateAPIKey 创建新的 API 密钥
func (c *Client) CreateAPIKey(ctx context.Context) (*types.ApiKeyCreds, error) {
	return c.CreateOrDeriveAPIKey(ctx, nil)
}
