package client

import (
	"crypto/ecdsa"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/betcli/gotrade/clob/types"
)

// Client CLOB 客户端
type Client struct {
	host       string
	chainID    types.Chain
	authConfig *AuthConfig
	httpClient *httpClient
	log        *logrus.Entry

	// 市场元数据缓存（token -> 属性），只增不删
	mu        sync.RWMutex
	tickSizes types.TickSizes
	negRisk   types.NegRiskFlags
	feeRates  types.FeeRates
}

// Option 客户端选项
type Option func(*Client)

// WithTimeout 设置 HTTP 超时
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient = newHTTPClient(c.host, d)
	}
}

// WithLogger 设置日志记录器
func WithLogger(log *logrus.Entry) Option {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient 创建新的 CLOB 客户端
func NewClient(
	host string,
	chainID types.Chain,
	privateKey *ecdsa.PrivateKey,
	creds *types.ApiKeyCreds,
	opts ...Option,
) *Client {
	if host == "" {
		host = DefaultHost
	}

	c := &Client{
		host:    strings.TrimSuffix(host, "/"),
		chainID: chainID,
		authConfig: &AuthConfig{
			PrivateKey: privateKey,
			ChainID:    chainID,
			Creds:      creds,
		},
		httpClient: newHTTPClient(host, 0),
		log:        logrus.NewEntry(logrus.StandardLogger()),
		tickSizes:  make(types.TickSizes),
		negRisk:    make(types.NegRiskFlags),
		feeRates:   make(types.FeeRates),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// GetHost 获取主机地址
func (c *Client) GetHost() string {
	return c.host
}

// GetChainID 获取链 ID
func (c *Client) GetChainID() types.Chain {
	return c.chainID
}

func (c *Client) cachedTickSize(tokenID string) (types.TickSize, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ts, ok := c.tickSizes[tokenID]
	return ts, ok
}

func (c *Client) cacheMarketMeta(tokenID string, tick types.TickSize, negRisk bool, feeBps int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tickSizes[tokenID] = tick
	c.negRisk[tokenID] = negRisk
	c.feeRates[tokenID] = feeBps
}
