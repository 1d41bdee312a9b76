// Package dataapi 访问 Polymarket Data API（持仓、成交记录）。
package dataapi

import (
	"context"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/betcli/gotrade/clob/types"
)

// DefaultHost Data API 地址
const DefaultHost = "https://data-api.polymarket.com"

// Position 用户持仓
type Position struct {
	ProxyWallet  string  `json:"proxyWallet"`
	Asset        string  `json:"asset"`
	ConditionID  string  `json:"conditionId"`
	Size         float64 `json:"size"`
	AvgPrice     float64 `json:"avgPrice"`
	InitialValue float64 `json:"initialValue"`
	CurrentValue float64 `json:"currentValue"`
	CashPnL      float64 `json:"cashPnl"`
	PercentPnL   float64 `json:"percentPnl"`
	CurPrice     float64 `json:"curPrice"`
	Title        string  `json:"title"`
	Slug         string  `json:"slug"`
	Outcome      string  `json:"outcome"`
	Redeemable   bool    `json:"redeemable"`
}

// Trade 成交记录
type Trade struct {
	ProxyWallet     string  `json:"proxyWallet"`
	Asset           string  `json:"asset"`
	ConditionID     string  `json:"conditionId"`
	Side            string  `json:"side"`
	Size            float64 `json:"size"`
	Price           float64 `json:"price"`
	Timestamp       int64   `json:"timestamp"`
	Title           string  `json:"title"`
	Outcome         string  `json:"outcome"`
	TransactionHash string  `json:"transactionHash"`
}

// Client Data API 客户端
type Client struct {
	client *resty.Client
}

// NewClient 创建 Data API 客户端
func NewClient(host string) *Client {
	if host == "" {
		host = DefaultHost
	}
	client := resty.New().
		SetBaseURL(host).
		SetTimeout(30 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(10 * time.Second)
	return &Client{client: client}
}

// Positions 查询地址的持仓列表
func (c *Client) Positions(ctx context.Context, user string, limit int) ([]Position, error) {
	if user == "" {
		return nil, (&types.Error{Kind: types.ErrKindValidation, Msg: "user address required"}).WithField("user")
	}
	if limit <= 0 {
		limit = 50
	}

	var positions []Position
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("user", user).
		SetQueryParam("limit", strconv.Itoa(limit)).
		SetResult(&positions).
		Get("/positions")
	if err != nil {
		return nil, types.ErrTransient.WithCause(errors.Wrap(err, "fetch positions"))
	}
	if resp.IsError() {
		return nil, classifyStatus(resp.StatusCode(), "fetch positions")
	}

	return positions, nil
}

// Trades 查询地址的成交记录
func (c *Client) Trades(ctx context.Context, user string, limit int) ([]Trade, error) {
	if user == "" {
		return nil, (&types.Error{Kind: types.ErrKindValidation, Msg: "user address required"}).WithField("user")
	}
	if limit <= 0 {
		limit = 50
	}

	var trades []Trade
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("user", user).
		SetQueryParam("limit", strconv.Itoa(limit)).
		SetResult(&trades).
		Get("/trades")
	if err != nil {
		return nil, types.ErrTransient.WithCause(errors.Wrap(err, "fetch trades"))
	}
	if resp.IsError() {
		return nil, classifyStatus(resp.StatusCode(), "fetch trades")
	}

	return trades, nil
}

// MarketTrades 查询市场（condition ID 或 token ID）的成交记录
func (c *Client) MarketTrades(ctx context.Context, market string, limit int) ([]Trade, error) {
	if market == "" {
		return nil, (&types.Error{Kind: types.ErrKindValidation, Msg: "market id required"}).WithField("market")
	}
	if limit <= 0 {
		limit = 50
	}

	var trades []Trade
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("market", market).
		SetQueryParam("limit", strconv.Itoa(limit)).
		SetResult(&trades).
		Get("/trades")
	if err != nil {
		return nil, types.ErrTransient.WithCause(errors.Wrap(err, "fetch market trades"))
	}
	if resp.IsError() {
		return nil, classifyStatus(resp.StatusCode(), "fetch market trades")
	}

	return trades, nil
}

func classifyStatus(status int, op string) error {
	if status == 429 || status >= 500 {
		return types.ErrTransient.WithCause(errors.Errorf("%s: HTTP %d", op, status))
	}
	if status == 404 {
		return types.ErrNotFound.WithCause(errors.Errorf("%s: HTTP %d", op, status))
	}
	return &types.Error{
		Kind:  types.ErrKindValidation,
		Msg:   "request rejected",
		Cause: errors.Errorf("%s: HTTP %d", op, status),
	}
}
