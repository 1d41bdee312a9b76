package client

import (
	"context"
	"encoding/json"
	"time"

	"github.com/betcli/gotrade/clob/types"
)

// submitRetryLimit 瞬时错误的最大提交次数
const submitRetryLimit = 3

// submitRetryBackoff 重试间隔基数
const submitRetryBackoff = 500 * time.Millisecond

// PostOrder 提交已组装的订单。
//
// 载荷在进入重试循环前序列化一次，每次尝试复用同一份字节：
// 订单绝不重新签名、绝不重新序列化，交易所侧按订单哈希去重。
// 仅 transient 错误触发重试；验证拒绝立即返回。
func (c *Client) PostOrder(ctx context.Context, assembled *types.AssembledOrder) (*types.OrderResponse, error) {
	if err := c.CanL2Auth(); err != nil {
		return nil, err
	}

	payload := types.NewOrder{
		Order:     assembled.Order,
		Owner:     c.authConfig.Creds.Key,
		OrderType: assembled.OrderType,
	}

	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, &types.Error{Kind: types.ErrKindValidation, Field: "order", Msg: "marshal order payload failed", Cause: err}
	}
	bodyStr := string(bodyBytes)

	log := c.log.WithFields(map[string]interface{}{
		"intent_id":  assembled.IntentID,
		"token_id":   assembled.TokenID,
		"order_type": assembled.OrderType,
	})

	var lastErr error
	for attempt := 0; attempt < submitRetryLimit; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, types.ErrTransient.WithCause(ctx.Err())
			case <-time.After(submitRetryBackoff * time.Duration(attempt)):
			}
			log.WithField("attempt", attempt+1).Warn("retrying order submission")
		}

		// 认证头每次重算（时间戳变化），订单字节不变
		headerMap, err := c.l2HeaderMap("POST", EndpointPostOrder, &bodyStr)
		if err != nil {
			return nil, err
		}

		resp, err := c.httpClient.post(ctx, EndpointPostOrder, headerMap, bodyBytes)
		if err != nil {
			if types.IsRetryable(err) {
				lastErr = err
				continue
			}
			return nil, err
		}

		var orderResp types.OrderResponse
		if err := parseResponse(resp, &orderResp); err != nil {
			if types.IsRetryable(err) {
				lastErr = err
				continue
			}
			return nil, err
		}

		log.WithFields(map[string]interface{}{
			"order_id": orderResp.OrderID,
			"status":   orderResp.Status,
		}).Info("order submitted")
		return &orderResp, nil
	}

	return nil, lastErr
}

// CancelOrder 取消订单
func (c *Client) CancelOrder(ctx context.Context, orderID string) (*types.OrderResponse, error) {
	if err := c.CanL2Auth(); err != nil {
		return nil, err
	}

	bodyBytes, err := json.Marshal(map[string]string{"orderID": orderID})
	if err != nil {
		return nil, &types.Error{Kind: types.ErrKindValidation, Field: "order_id", Msg: "marshal cancel payload failed", Cause: err}
	}
	bodyStr := string(bodyBytes)

	headerMap, err := c.l2HeaderMap("DELETE", EndpointCancelOrder, &bodyStr)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.delete(ctx, EndpointCancelOrder, headerMap, bodyBytes)
	if err != nil {
		return nil, err
	}

	var orderResp types.OrderResponse
	if err := parseResponse(resp, &orderResp); err != nil {
		return nil, err
	}

	return &orderResp, nil
}

// GetOrder 获取订单详情
func (c *Client) GetOrder(ctx context.Context, orderID string) (*types.OpenOrder, error) {
	if err := c.CanL2Auth(); err != nil {
		return nil, err
	}

	endpoint := EndpointGetOrder + orderID

	headerMap, err := c.l2HeaderMap("GET", endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.get(ctx, endpoint, headerMap, nil)
	if err != nil {
		return nil, err
	}

	var order types.OpenOrder
	if err := parseResponse(resp, &order); err != nil {
		return nil, err
	}

	return &order, nil
}

// GetOpenOrders 获取开放订单
func (c *Client) GetOpenOrders(ctx context.Context, params *types.OpenOrderParams) ([]types.OpenOrder, error) {
	if err := c.CanL2Auth(); err != nil {
		return nil, err
	}

	queryParams := make(map[string]string)
	if params != nil {
		if params.ID != nil {
			queryParams["id"] = *params.ID
		}
		if params.Market != nil {
			queryParams["market"] = *params.Market
		}
		if params.AssetID != nil {
			queryParams["asset_id"] = *params.AssetID
		}
	}

	headerMap, err := c.l2HeaderMap("GET", EndpointGetOpenOrders, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.get(ctx, EndpointGetOpenOrders, headerMap, queryParams)
	if err != nil {
		return nil, err
	}

	var apiResp types.OpenOrdersAPIResponse
	if err := parseResponse(resp, &apiResp); err != nil {
		return nil, err
	}

	return apiResp.Data, nil
}
