package stream

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/betcli/gotrade/clob/book"
	"github.com/betcli/gotrade/clob/types"
)

// EventType 表示市场频道事件类型
type EventType string

const (
	EventBook           EventType = "book"             // 订单簿全量
	EventPriceChange    EventType = "price_change"     // 档位变化
	EventLastTradePrice EventType = "last_trade_price" // 最新成交价
	EventTickSizeChange EventType = "tick_size_change" // 最小报价单位变化
)

// Event 是市场频道事件的公共接口
type Event interface {
	Type() EventType
	Token() string
}

// BookEvent 订单簿全量事件，Book 为解析后的快照
type BookEvent struct {
	TokenID   string
	Market    string
	Timestamp time.Time
	Hash      string
	Book      *book.Snapshot
}

func (e BookEvent) Type() EventType { return EventBook }
func (e BookEvent) Token() string   { return e.TokenID }

// PriceLevelChange 单个档位的变化
type PriceLevelChange struct {
	Price decimal.Decimal
	Size  decimal.Decimal
	Side  types.Side
}

// PriceChangeEvent 档位变化事件
type PriceChangeEvent struct {
	TokenID   string
	Market    string
	Timestamp time.Time
	Changes   []PriceLevelChange
}

func (e PriceChangeEvent) Type() EventType { return EventPriceChange }
func (e PriceChangeEvent) Token() string   { return e.TokenID }

// LastTradeEvent 最新成交价事件
type LastTradeEvent struct {
	TokenID   string
	Market    string
	Timestamp time.Time
	Price     decimal.Decimal
	Size      decimal.Decimal
	Side      types.Side
}

func (e LastTradeEvent) Type() EventType { return EventLastTradePrice }
func (e LastTradeEvent) Token() string   { return e.TokenID }

// TickSizeChangeEvent 最小报价单位变化事件
type TickSizeChangeEvent struct {
	TokenID     string
	Market      string
	Timestamp   time.Time
	OldTickSize decimal.Decimal
	NewTickSize decimal.Decimal
}

func (e TickSizeChangeEvent) Type() EventType { return EventTickSizeChange }
func (e TickSizeChangeEvent) Token() string   { return e.TokenID }

// wireMessage 是市场频道消息的线格式。
// timestamp 为毫秒字符串，book 事件复用 OrderBookSummary 的档位格式。
type wireMessage struct {
	EventType   string               `json:"event_type"`
	AssetID     string               `json:"asset_id"`
	Market      string               `json:"market"`
	Timestamp   string               `json:"timestamp"`
	Hash        string               `json:"hash,omitempty"`
	Bids        []types.OrderSummary `json:"bids,omitempty"`
	Asks        []types.OrderSummary `json:"asks,omitempty"`
	Price       string               `json:"price,omitempty"`
	Size        string               `json:"size,omitempty"`
	Side        string               `json:"side,omitempty"`
	OldTickSize string               `json:"old_tick_size,omitempty"`
	NewTickSize string               `json:"new_tick_size,omitempty"`
	Changes     []wireChange         `json:"changes,omitempty"`
}

type wireChange struct {
	Price string `json:"price"`
	Size  string `json:"size"`
	Side  string `json:"side"`
}

// handleMessage 解析单条 WebSocket 消息。
// 服务端既可能发送单个对象，也可能发送对象数组；
// 心跳回应 "PONG" 为纯文本。
func (s *MarketStream) handleMessage(data []byte) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return
	}

	if trimmed[0] != '{' && trimmed[0] != '[' {
		text := string(trimmed)
		if text == "PONG" || text == "pong" {
			return
		}
		s.log.Debugf("收到非 JSON 文本消息: %s", text)
		return
	}

	var raws []wireMessage
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			s.reportParseError(trimmed, err)
			return
		}
	} else {
		var raw wireMessage
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			s.reportParseError(trimmed, err)
			return
		}
		raws = append(raws, raw)
	}

	for i := range raws {
		ev, err := parseEvent(&raws[i])
		if err != nil {
			s.reportParseError(trimmed, err)
			continue
		}
		if ev != nil {
			s.emit(ev)
		}
	}
}

func (s *MarketStream) reportParseError(data []byte, err error) {
	preview := string(data)
	if len(preview) > 100 {
		preview = preview[:100] + "..."
	}
	select {
	case s.errChan <- errors.Wrapf(err, "parse market message: %s", preview):
	default:
	}
}

func parseEvent(raw *wireMessage) (Event, error) {
	ts := parseMillis(raw.Timestamp)

	switch EventType(raw.EventType) {
	case EventBook:
		snapshot, err := book.FromSummary(&types.OrderBookSummary{
			Market:    raw.Market,
			AssetID:   raw.AssetID,
			Timestamp: raw.Timestamp,
			Bids:      raw.Bids,
			Asks:      raw.Asks,
			Hash:      raw.Hash,
		})
		if err != nil {
			return nil, err
		}
		return BookEvent{
			TokenID:   raw.AssetID,
			Market:    raw.Market,
			Timestamp: ts,
			Hash:      raw.Hash,
			Book:      snapshot,
		}, nil

	case EventPriceChange:
		changes := make([]PriceLevelChange, 0, len(raw.Changes))
		for _, ch := range raw.Changes {
			price, err := decimal.NewFromString(ch.Price)
			if err != nil {
				return nil, errors.Wrap(err, "price_change price")
			}
			size, err := decimal.NewFromString(ch.Size)
			if err != nil {
				return nil, errors.Wrap(err, "price_change size")
			}
			changes = append(changes, PriceLevelChange{
				Price: price,
				Size:  size,
				Side:  parseSide(ch.Side),
			})
		}
		return PriceChangeEvent{
			TokenID:   raw.AssetID,
			Market:    raw.Market,
			Timestamp: ts,
			Changes:   changes,
		}, nil

	case EventLastTradePrice:
		price, err := decimal.NewFromString(raw.Price)
		if err != nil {
			return nil, errors.Wrap(err, "last_trade_price price")
		}
		size := decimal.Zero
		if raw.Size != "" {
			size, err = decimal.NewFromString(raw.Size)
			if err != nil {
				return nil, errors.Wrap(err, "last_trade_price size")
			}
		}
		return LastTradeEvent{
			TokenID:   raw.AssetID,
			Market:    raw.Market,
			Timestamp: ts,
			Price:     price,
			Size:      size,
			Side:      parseSide(raw.Side),
		}, nil

	case EventTickSizeChange:
		oldTick, err := decimal.NewFromString(raw.OldTickSize)
		if err != nil {
			return nil, errors.Wrap(err, "tick_size_change old")
		}
		newTick, err := decimal.NewFromString(raw.NewTickSize)
		if err != nil {
			return nil, errors.Wrap(err, "tick_size_change new")
		}
		return TickSizeChangeEvent{
			TokenID:     raw.AssetID,
			Market:      raw.Market,
			Timestamp:   ts,
			OldTickSize: oldTick,
			NewTickSize: newTick,
		}, nil
	}

	// 未知事件类型直接忽略，服务端可能新增类型
	return nil, nil
}

func parseSide(s string) types.Side {
	if s == "SELL" || s == "sell" {
		return types.SideSell
	}
	return types.SideBuy
}

func parseMillis(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
