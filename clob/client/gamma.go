package client

import (
	"context"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/betcli/gotrade/clob/types"
)

// GammaHost Gamma 元数据 API 地址
const GammaHost = "https://gamma-api.polymarket.com"

// GammaMarket Gamma API 市场数据结构
type GammaMarket struct {
	ID           string `json:"id"`
	Question     string `json:"question"`
	ConditionID  string `json:"conditionId"`
	Slug         string `json:"slug"`
	ClobTokenIDs string `json:"clobTokenIds"`
	Outcomes     string `json:"outcomes"`
	EndDate      string `json:"endDate"`
	Category     string `json:"category"`
	Volume       string `json:"volume"`
	Active       bool   `json:"active"`
	Closed       bool   `json:"closed"`
}

// GammaClient Gamma API 客户端
type GammaClient struct {
	client *resty.Client
}

// NewGammaClient 创建 Gamma API 客户端
func NewGammaClient(host string) *GammaClient {
	if host == "" {
		host = GammaHost
	}
	client := resty.New().
		SetBaseURL(host).
		SetTimeout(30 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(10 * time.Second)
	return &GammaClient{client: client}
}

// SearchMarkets 按关键词搜索活跃市场
func (g *GammaClient) SearchMarkets(ctx context.Context, query string, limit int) ([]GammaMarket, error) {
	if limit <= 0 {
		limit = 10
	}

	var result struct {
		Markets []GammaMarket `json:"markets"`
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParam("q", query).
		SetQueryParam("limit_per_type", strconv.Itoa(limit)).
		SetQueryParam("events_status", "active").
		SetResult(&result).
		Get("/public-search")
	if err != nil {
		return nil, types.ErrTransient.WithCause(errors.Wrap(err, "gamma search"))
	}
	if resp.IsError() {
		return nil, classifyGammaStatus(resp.StatusCode(), "gamma search")
	}

	return result.Markets, nil
}

// FetchMarketBySlug 按 slug 获取市场
func (g *GammaClient) FetchMarketBySlug(ctx context.Context, slug string) (*GammaMarket, error) {
	var markets []GammaMarket

	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParam("slug", slug).
		SetResult(&markets).
		Get("/markets")
	if err != nil {
		return nil, types.ErrTransient.WithCause(errors.Wrap(err, "gamma markets"))
	}
	if resp.IsError() {
		return nil, classifyGammaStatus(resp.StatusCode(), "gamma markets")
	}
	if len(markets) == 0 {
		return nil, types.ErrNotFound.WithField("slug")
	}

	return &markets[0], nil
}

func classifyGammaStatus(status int, op string) error {
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
