package client

import (
	"context"
	"fmt"
	"math"

	"github.com/betcli/gotrade/clob/types"
	"github.com/betcli/gotrade/pkg/numeric"
)

// GetMarket 获取市场元数据
func (c *Client) GetMarket(ctx context.Context, conditionID string) (*types.Market, error) {
	resp, err := c.httpClient.get(ctx, EndpointGetMarket+conditionID, nil, nil)
	if err != nil {
		return nil, err
	}

	var market types.Market
	if err := parseResponse(resp, &market); err != nil {
		return nil, err
	}

	// 缓存每个 token 的属性，供订单构建复用
	tick, err := numeric.TickSizeFromFloat(market.MinimumTickSize)
	if err == nil {
		feeBps := int(math.Round(math.Max(market.MakerBaseFee, market.TakerBaseFee)))
		for _, token := range market.Tokens {
			c.cacheMarketMeta(token.TokenID, tick, market.NegRisk, feeBps)
		}
	}

	return &market, nil
}

// GetOrderBook 获取订单簿
func (c *Client) GetOrderBook(ctx context.Context, tokenID string) (*types.OrderBookSummary, error) {
	if tokenID == "" {
		return nil, types.ErrInvalidTokenID.WithField("token_id")
	}

	resp, err := c.httpClient.get(ctx, EndpointGetOrderBook, nil, map[string]string{
		"token_id": tokenID,
	})
	if err != nil {
		return nil, err
	}

	var book types.OrderBookSummary
	if err := parseResponse(resp, &book); err != nil {
		return nil, err
	}

	return &book, nil
}

// GetMidpoint 获取中间价
func (c *Client) GetMidpoint(ctx context.Context, tokenID string) (*types.MidpointResponse, error) {
	resp, err := c.httpClient.get(ctx, EndpointGetMidpoint, nil, map[string]string{
		"token_id": tokenID,
	})
	if err != nil {
		return nil, err
	}

	var mid types.MidpointResponse
	if err := parseResponse(resp, &mid); err != nil {
		return nil, err
	}

	return &mid, nil
}

// GetSpread 获取买卖价差
func (c *Client) GetSpread(ctx context.Context, tokenID string) (*types.SpreadResponse, error) {
	resp, err := c.httpClient.get(ctx, EndpointGetSpread, nil, map[string]string{
		"token_id": tokenID,
	})
	if err != nil {
		return nil, err
	}

	var spread types.SpreadResponse
	if err := parseResponse(resp, &spread); err != nil {
		return nil, err
	}

	return &spread, nil
}

// GetPrice 获取指定方向的最优价格
func (c *Client) GetPrice(ctx context.Context, tokenID string, side types.Side) (*types.MarketPrice, error) {
	resp, err := c.httpClient.get(ctx, EndpointGetPrice, nil, map[string]string{
		"token_id": tokenID,
		"side":     string(side),
	})
	if err != nil {
		return nil, err
	}

	var price types.MarketPrice
	if err := parseResponse(resp, &price); err != nil {
		return nil, err
	}

	return &price, nil
}

// GetBalanceAllowance 获取余额和授权
func (c *Client) GetBalanceAllowance(ctx context.Context, params *types.BalanceAllowanceParams) (*types.BalanceAllowanceResponse, error) {
	if err := c.CanL2Auth(); err != nil {
		return nil, err
	}

	queryParams := map[string]string{
		"asset_type": string(params.AssetType),
	}
	if params.TokenID != nil {
		queryParams["token_id"] = *params.TokenID
	}
	if params.SignatureType != nil {
		queryParams["signature_type"] = fmt.Sprintf("%d", int(*params.SignatureType))
	}

	headerMap, err := c.l2HeaderMap("GET", EndpointGetBalanceAllowance, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.get(ctx, EndpointGetBalanceAllowance, headerMap, queryParams)
	if err != nil {
		return nil, err
	}

	var balance types.BalanceAllowanceResponse
	if err := parseResponse(resp, &balance); err != nil {
		return nil, err
	}

	return &balance, nil
}
