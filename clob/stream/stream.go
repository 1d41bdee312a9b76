// Package stream 提供 CLOB 市场频道的 WebSocket 客户端。
// 订阅 token 的 book / price_change / last_trade_price 事件，
// 断线后自动重连并恢复全部订阅。
package stream

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultMarketURL 是官方市场频道端点
	DefaultMarketURL = "wss://ws-subscriptions-clob.polymarket.com/ws/market"

	// 重连设置
	defaultReconnectDelay    = 2 * time.Second
	defaultMaxReconnectDelay = 30 * time.Second

	// 官方文档要求每 10 秒发送一次 PING
	defaultPingInterval = 10 * time.Second

	// 订阅批处理大小（服务端限制每批最多 100 个 token）
	maxBatchSize = 100

	// 通道缓冲区大小
	defaultEventBufferSize = 1000
	defaultErrorBufferSize = 100

	// 单次连接的拨号重试次数
	dialRetries = 3
)

// Config 是市场流客户端配置
type Config struct {
	URL      string // WebSocket 端点，默认 DefaultMarketURL
	ProxyURL string // 代理 URL（可选）

	ReconnectEnabled     bool
	ReconnectDelay       time.Duration
	MaxReconnectDelay    time.Duration
	MaxReconnectAttempts int

	PingInterval     time.Duration
	HandshakeTimeout time.Duration

	EventBufferSize int
	ErrorBufferSize int
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		URL:                  DefaultMarketURL,
		ReconnectEnabled:     true,
		ReconnectDelay:       defaultReconnectDelay,
		MaxReconnectDelay:    defaultMaxReconnectDelay,
		MaxReconnectAttempts: 10,
		PingInterval:         defaultPingInterval,
		HandshakeTimeout:     15 * time.Second,
		EventBufferSize:      defaultEventBufferSize,
		ErrorBufferSize:      defaultErrorBufferSize,
	}
}

// MarketStream 是市场频道的 WebSocket 客户端。
// 事件经 Events() 通道交付，通道满时丢弃最旧语义不可行，
// 因此直接丢弃当前事件并经 Errors() 告警。
type MarketStream struct {
	config *Config
	log    *logrus.Entry

	conn   *websocket.Conn
	connMu sync.Mutex

	subscriptions map[string]bool
	subMu         sync.RWMutex

	eventChan chan Event
	errChan   chan error

	ctx    context.Context
	cancel context.CancelFunc
	stopCh chan struct{}
	doneCh chan struct{}

	running   bool
	runningMu sync.RWMutex

	reconnectAttempts int
	reconnectMu       sync.Mutex
}

// New 使用默认配置创建市场流客户端
func New() *MarketStream {
	return NewWithConfig(nil)
}

// NewWithConfig 使用自定义配置创建市场流客户端
func NewWithConfig(config *Config) *MarketStream {
	if config == nil {
		config = DefaultConfig()
	}
	if config.URL == "" {
		config.URL = DefaultMarketURL
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &MarketStream{
		config:        config,
		log:           logrus.WithField("component", "market_stream"),
		subscriptions: make(map[string]bool),
		eventChan:     make(chan Event, config.EventBufferSize),
		errChan:       make(chan error, config.ErrorBufferSize),
		ctx:           ctx,
		cancel:        cancel,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
}

// Start 建立连接并启动读取与心跳循环
func (s *MarketStream) Start() error {
	s.runningMu.Lock()
	if s.running {
		s.runningMu.Unlock()
		return errors.New("market stream already running")
	}
	s.running = true
	s.runningMu.Unlock()

	if err := s.connect(); err != nil {
		s.runningMu.Lock()
		s.running = false
		s.runningMu.Unlock()
		return err
	}

	go s.readLoop()
	go s.pingLoop()

	return nil
}

// Stop 关闭连接并等待读取循环退出
func (s *MarketStream) Stop() {
	s.runningMu.Lock()
	if !s.running {
		s.runningMu.Unlock()
		return
	}
	s.running = false
	s.runningMu.Unlock()

	close(s.stopCh)
	s.cancel()

	s.connMu.Lock()
	if s.conn != nil {
		deadline := time.Now().Add(time.Second)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		s.conn.Close()
		s.conn = nil
	}
	s.connMu.Unlock()

	select {
	case <-s.doneCh:
	case <-time.After(5 * time.Second):
		s.log.Warn("等待读取循环退出超时")
	}
}

// Subscribe 订阅 token 的市场事件。重复订阅会被忽略。
func (s *MarketStream) Subscribe(tokenIDs ...string) error {
	s.subMu.Lock()
	newSubs := make([]string, 0, len(tokenIDs))
	for _, id := range tokenIDs {
		if !s.subscriptions[id] {
			s.subscriptions[id] = true
			newSubs = append(newSubs, id)
		}
	}
	s.subMu.Unlock()

	if len(newSubs) == 0 {
		return nil
	}

	return s.sendSubscription(newSubs)
}

// Unsubscribe 取消订阅指定 token
func (s *MarketStream) Unsubscribe(tokenIDs ...string) error {
	s.subMu.Lock()
	toRemove := make([]string, 0, len(tokenIDs))
	for _, id := range tokenIDs {
		if s.subscriptions[id] {
			delete(s.subscriptions, id)
			toRemove = append(toRemove, id)
		}
	}
	s.subMu.Unlock()

	if len(toRemove) == 0 {
		return nil
	}

	msg := map[string]interface{}{
		"type":       "unsubscribe",
		"assets_ids": toRemove,
	}

	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn == nil {
		return errors.New("not connected")
	}

	return s.conn.WriteJSON(msg)
}

// SubscriptionCount 返回活跃订阅数量
func (s *MarketStream) SubscriptionCount() int {
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	return len(s.subscriptions)
}

// Events 返回市场事件通道
func (s *MarketStream) Events() <-chan Event {
	return s.eventChan
}

// Errors 返回错误通道
func (s *MarketStream) Errors() <-chan error {
	return s.errChan
}

// IsRunning 检查客户端是否正在运行
func (s *MarketStream) IsRunning() bool {
	s.runningMu.RLock()
	defer s.runningMu.RUnlock()
	return s.running
}

func (s *MarketStream) connect() error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn != nil {
		s.conn.Close()
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: s.config.HandshakeTimeout,
	}

	if s.config.ProxyURL != "" {
		proxyURL, err := url.Parse(s.config.ProxyURL)
		if err != nil {
			return errors.Wrap(err, "invalid proxy url")
		}
		dialer.Proxy = http.ProxyURL(proxyURL)
	}

	var conn *websocket.Conn
	var err error
	for i := 0; i < dialRetries; i++ {
		conn, _, err = dialer.Dial(s.config.URL, nil)
		if err == nil {
			break
		}
		if i < dialRetries-1 {
			s.log.WithError(err).Warnf("连接尝试 %d/%d 失败，重试中", i+1, dialRetries)
			time.Sleep(time.Duration(i+1) * time.Second)
		}
	}
	if err != nil {
		return errors.Wrap(err, "dial market stream")
	}

	s.conn = conn

	s.reconnectMu.Lock()
	s.reconnectAttempts = 0
	s.reconnectMu.Unlock()

	return nil
}

func (s *MarketStream) sendSubscription(tokenIDs []string) error {
	if len(tokenIDs) == 0 {
		return nil
	}

	// 按批发送，服务端限制每批最多 100 个 token
	for i := 0; i < len(tokenIDs); i += maxBatchSize {
		end := i + maxBatchSize
		if end > len(tokenIDs) {
			end = len(tokenIDs)
		}

		msg := map[string]interface{}{
			"type":       "market",
			"assets_ids": tokenIDs[i:end],
		}

		s.connMu.Lock()
		if s.conn == nil {
			s.connMu.Unlock()
			return errors.New("not connected")
		}
		err := s.conn.WriteJSON(msg)
		s.connMu.Unlock()

		if err != nil {
			return errors.Wrap(err, "send subscription")
		}

		s.log.Debugf("已订阅 %d 个 token", end-i)
	}

	return nil
}

// resubscribe 重连后恢复全部订阅
func (s *MarketStream) resubscribe() error {
	s.subMu.RLock()
	tokenIDs := make([]string, 0, len(s.subscriptions))
	for id := range s.subscriptions {
		tokenIDs = append(tokenIDs, id)
	}
	s.subMu.RUnlock()

	if len(tokenIDs) == 0 {
		return nil
	}

	return s.sendSubscription(tokenIDs)
}

func (s *MarketStream) readLoop() {
	defer close(s.doneCh)

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.stopCh:
			return
		default:
		}

		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()

		if conn == nil {
			if s.config.ReconnectEnabled {
				s.reconnect()
			}
			time.Sleep(time.Second)
			continue
		}

		// 不设置读取超时，连接健康由 ping/pong 与读取错误共同判断
		_, message, err := conn.ReadMessage()
		if err != nil {
			s.connMu.Lock()
			if s.conn != nil {
				s.conn.Close()
				s.conn = nil
			}
			s.connMu.Unlock()

			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Info("连接正常关闭")
				return
			}

			select {
			case <-s.stopCh:
				return
			default:
			}

			s.log.WithError(err).Warn("读取错误，准备重连")
			if s.config.ReconnectEnabled {
				s.reconnect()
			} else {
				time.Sleep(time.Second)
			}
			continue
		}

		s.handleMessage(message)
	}
}

// pingLoop 定期发送 "PING" 文本消息。
// 服务端以 "PONG" 文本回应，在 handleMessage 中消化。
func (s *MarketStream) pingLoop() {
	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.connMu.Lock()
			conn := s.conn
			s.connMu.Unlock()

			if conn == nil {
				continue
			}

			if err := conn.WriteMessage(websocket.TextMessage, []byte("PING")); err != nil {
				s.log.WithError(err).Warn("PING 发送失败")
			}
		}
	}
}

// reconnect 带指数退避的重连
func (s *MarketStream) reconnect() {
	s.reconnectMu.Lock()
	s.reconnectAttempts++
	attempts := s.reconnectAttempts
	s.reconnectMu.Unlock()

	if attempts > s.config.MaxReconnectAttempts {
		select {
		case s.errChan <- errors.Errorf("reached max reconnect attempts (%d)", s.config.MaxReconnectAttempts):
		default:
		}
		return
	}

	delay := s.config.ReconnectDelay * time.Duration(attempts)
	if delay > s.config.MaxReconnectDelay {
		delay = s.config.MaxReconnectDelay
	}

	s.log.Infof("%v 后重连（尝试 %d/%d）", delay, attempts, s.config.MaxReconnectAttempts)

	select {
	case <-s.ctx.Done():
		return
	case <-s.stopCh:
		return
	case <-time.After(delay):
	}

	if err := s.connect(); err != nil {
		s.log.WithError(err).Warn("重连失败")
		return
	}

	if err := s.resubscribe(); err != nil {
		s.log.WithError(err).Warn("重新订阅失败")
	}
}

func (s *MarketStream) emit(ev Event) {
	select {
	case s.eventChan <- ev:
	default:
		// 消费者落后时丢弃事件，经错误通道告警
		select {
		case s.errChan <- errors.New("event channel full, dropping event"):
		default:
		}
	}
}
