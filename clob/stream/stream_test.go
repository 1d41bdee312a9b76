package stream

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/betcli/gotrade/clob/types"
)

// TestNew 测试创建默认客户端
func TestNew(t *testing.T) {
	s := New()
	if s == nil {
		t.Fatal("New 应该返回非 nil 客户端")
	}
	if s.config.URL != DefaultMarketURL {
		t.Errorf("期望默认 URL 为 %s，得到 %s", DefaultMarketURL, s.config.URL)
	}
	if s.eventChan == nil {
		t.Error("事件通道应该被初始化")
	}
	if s.errChan == nil {
		t.Error("错误通道应该被初始化")
	}
	if s.IsRunning() {
		t.Error("新建客户端不应处于运行状态")
	}
}

// TestNewWithConfig 测试自定义配置
func TestNewWithConfig(t *testing.T) {
	config := DefaultConfig()
	config.EventBufferSize = 16
	config.ReconnectDelay = 5 * time.Second

	s := NewWithConfig(config)
	if cap(s.eventChan) != 16 {
		t.Errorf("期望事件缓冲区为 16，得到 %d", cap(s.eventChan))
	}
	if s.config.ReconnectDelay != 5*time.Second {
		t.Errorf("期望重连延迟为 5s，得到 %v", s.config.ReconnectDelay)
	}
}

// TestSubscribe_TracksSubscriptions 测试订阅映射维护
func TestSubscribe_TracksSubscriptions(t *testing.T) {
	s := New()

	// 未连接时发送会失败，但订阅应进入内部映射
	_ = s.Subscribe("token1", "token2", "token3")
	if s.SubscriptionCount() != 3 {
		t.Errorf("期望订阅数量为 3，得到 %d", s.SubscriptionCount())
	}

	// 重复订阅被忽略
	_ = s.Subscribe("token1", "token4")
	if s.SubscriptionCount() != 4 {
		t.Errorf("期望订阅数量为 4，得到 %d", s.SubscriptionCount())
	}

	// 空订阅不报错
	if err := s.Subscribe(); err != nil {
		t.Fatalf("空订阅不应该失败: %v", err)
	}

	_ = s.Unsubscribe("token1", "missing")
	if s.SubscriptionCount() != 3 {
		t.Errorf("取消订阅后期望数量为 3，得到 %d", s.SubscriptionCount())
	}
}

// TestHandleMessage_Pong 测试 PONG 文本消息被静默消化
func TestHandleMessage_Pong(t *testing.T) {
	s := New()
	s.handleMessage([]byte("PONG"))
	s.handleMessage([]byte("  pong  "))

	select {
	case ev := <-s.eventChan:
		t.Fatalf("PONG 不应产生事件: %v", ev)
	case err := <-s.errChan:
		t.Fatalf("PONG 不应产生错误: %v", err)
	default:
	}
}

// TestHandleMessage_BookEvent 测试订单簿全量事件解析
func TestHandleMessage_BookEvent(t *testing.T) {
	s := New()
	payload := `{
		"event_type": "book",
		"asset_id": "123456",
		"market": "0xabc",
		"timestamp": "1700000000000",
		"hash": "0xhash",
		"bids": [{"price": "0.48", "size": "100"}, {"price": "0.50", "size": "40"}],
		"asks": [{"price": "0.55", "size": "60"}]
	}`
	s.handleMessage([]byte(payload))

	select {
	case ev := <-s.eventChan:
		book, ok := ev.(BookEvent)
		if !ok {
			t.Fatalf("期望 BookEvent，得到 %T", ev)
		}
		if book.TokenID != "123456" {
			t.Errorf("期望 token 为 123456，得到 %s", book.TokenID)
		}
		best, ok := book.Book.BestBid()
		if !ok {
			t.Fatal("快照应该有最优买价")
		}
		if best.Price.String() != "0.5" {
			t.Errorf("期望最优买价为 0.5，得到 %s", best.Price)
		}
		if !book.Timestamp.Equal(time.UnixMilli(1700000000000)) {
			t.Errorf("时间戳解析错误: %v", book.Timestamp)
		}
	default:
		t.Fatal("应该产生一个事件")
	}
}

// TestHandleMessage_EventArray 测试数组形式的消息
func TestHandleMessage_EventArray(t *testing.T) {
	s := New()
	payload := `[
		{"event_type": "last_trade_price", "asset_id": "t1", "market": "m", "price": "0.61", "size": "25", "side": "SELL", "timestamp": "1700000000000"},
		{"event_type": "price_change", "asset_id": "t1", "market": "m", "timestamp": "1700000001000",
		 "changes": [{"price": "0.60", "size": "0", "side": "BUY"}]}
	]`
	s.handleMessage([]byte(payload))

	ev1 := <-s.eventChan
	trade, ok := ev1.(LastTradeEvent)
	if !ok {
		t.Fatalf("期望 LastTradeEvent，得到 %T", ev1)
	}
	if trade.Price.String() != "0.61" || trade.Side != types.SideSell {
		t.Errorf("成交价事件解析错误: %+v", trade)
	}

	ev2 := <-s.eventChan
	change, ok := ev2.(PriceChangeEvent)
	if !ok {
		t.Fatalf("期望 PriceChangeEvent，得到 %T", ev2)
	}
	if len(change.Changes) != 1 {
		t.Fatalf("期望 1 个档位变化，得到 %d", len(change.Changes))
	}
	if !change.Changes[0].Size.IsZero() {
		t.Errorf("期望档位被清空，得到 size=%s", change.Changes[0].Size)
	}
}

// TestHandleMessage_TickSizeChange 测试最小报价单位变化事件
func TestHandleMessage_TickSizeChange(t *testing.T) {
	s := New()
	payload := `{"event_type": "tick_size_change", "asset_id": "t1", "market": "m",
		"old_tick_size": "0.01", "new_tick_size": "0.001", "timestamp": "1700000000000"}`
	s.handleMessage([]byte(payload))

	ev := <-s.eventChan
	tick, ok := ev.(TickSizeChangeEvent)
	if !ok {
		t.Fatalf("期望 TickSizeChangeEvent，得到 %T", ev)
	}
	if tick.NewTickSize.String() != "0.001" {
		t.Errorf("期望新 tick 为 0.001，得到 %s", tick.NewTickSize)
	}
}

// TestHandleMessage_UnknownEventIgnored 测试未知事件类型被忽略
func TestHandleMessage_UnknownEventIgnored(t *testing.T) {
	s := New()
	s.handleMessage([]byte(`{"event_type": "future_event", "asset_id": "t1"}`))

	select {
	case ev := <-s.eventChan:
		t.Fatalf("未知事件不应被交付: %v", ev)
	case err := <-s.errChan:
		t.Fatalf("未知事件不应报错: %v", err)
	default:
	}
}

// TestHandleMessage_MalformedJSON 测试坏数据进入错误通道
func TestHandleMessage_MalformedJSON(t *testing.T) {
	s := New()
	s.handleMessage([]byte(`{"event_type": "book", "bids": [{"price": "not-a-number"}]}`))

	select {
	case err := <-s.errChan:
		if err == nil {
			t.Fatal("期望非 nil 错误")
		}
	default:
		t.Fatal("坏数据应该产生错误")
	}
}

// TestEmit_DropsWhenFull 测试事件通道满时丢弃并告警
func TestEmit_DropsWhenFull(t *testing.T) {
	config := DefaultConfig()
	config.EventBufferSize = 1
	s := NewWithConfig(config)

	s.emit(LastTradeEvent{TokenID: "a"})
	s.emit(LastTradeEvent{TokenID: "b"})

	select {
	case err := <-s.errChan:
		if !strings.Contains(err.Error(), "channel full") {
			t.Errorf("期望通道满告警，得到: %v", err)
		}
	default:
		t.Fatal("通道满时应该告警")
	}
}

// wsTestServer 启动一个本地 WebSocket 服务端，回放给定事件
func wsTestServer(t *testing.T, onSubscribe func(conn *websocket.Conn, msg map[string]interface{})) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("升级失败: %v", err)
			return
		}
		defer conn.Close()
		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if msgType == websocket.TextMessage && string(data) == "PING" {
				_ = conn.WriteMessage(websocket.TextMessage, []byte("PONG"))
				continue
			}
			var msg map[string]interface{}
			if err := json.Unmarshal(data, &msg); err == nil && msg["type"] == "market" {
				onSubscribe(conn, msg)
			}
		}
	}))
}

// TestMarketStream_EndToEnd 测试连接、订阅与事件交付
func TestMarketStream_EndToEnd(t *testing.T) {
	server := wsTestServer(t, func(conn *websocket.Conn, msg map[string]interface{}) {
		// 订阅后回放一条订单簿消息
		_ = conn.WriteJSON(map[string]interface{}{
			"event_type": "book",
			"asset_id":   "42",
			"market":     "0xdef",
			"timestamp":  "1700000000000",
			"bids":       []map[string]string{{"price": "0.30", "size": "10"}},
			"asks":       []map[string]string{{"price": "0.35", "size": "10"}},
		})
	})
	defer server.Close()

	config := DefaultConfig()
	config.URL = "ws" + strings.TrimPrefix(server.URL, "http")
	config.ReconnectEnabled = false

	s := NewWithConfig(config)
	if err := s.Start(); err != nil {
		t.Fatalf("Start 失败: %v", err)
	}
	defer s.Stop()

	if !s.IsRunning() {
		t.Error("Start 后客户端应处于运行状态")
	}

	if err := s.Subscribe("42"); err != nil {
		t.Fatalf("Subscribe 失败: %v", err)
	}

	select {
	case ev := <-s.Events():
		book, ok := ev.(BookEvent)
		if !ok {
			t.Fatalf("期望 BookEvent，得到 %T", ev)
		}
		if book.TokenID != "42" {
			t.Errorf("期望 token 为 42，得到 %s", book.TokenID)
		}
	case err := <-s.Errors():
		t.Fatalf("收到错误: %v", err)
	case <-time.After(3 * time.Second):
		t.Fatal("等待事件超时")
	}
}

// TestMarketStream_StartTwice 测试重复启动被拒绝
func TestMarketStream_StartTwice(t *testing.T) {
	server := wsTestServer(t, func(conn *websocket.Conn, msg map[string]interface{}) {})
	defer server.Close()

	config := DefaultConfig()
	config.URL = "ws" + strings.TrimPrefix(server.URL, "http")

	s := NewWithConfig(config)
	if err := s.Start(); err != nil {
		t.Fatalf("Start 失败: %v", err)
	}
	defer s.Stop()

	if err := s.Start(); err == nil {
		t.Error("重复 Start 应该失败")
	}
}
