package websocket

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// RawMessage is one inbound WebSocket frame, handed to the caller unparsed.
// Venue-specific decoding (Polymarket's book/price_change/last_trade_price
// discriminant, Kalshi's channel envelope) happens one layer up in
// internal/venue/*, keeping this transport venue-agnostic.
type RawMessage struct {
	Data       []byte
	ReceivedAt time.Time
}

// Manager manages a single persistent WebSocket connection to one venue.
type Manager struct {
	url             string
	header          http.Header // optional auth headers for the handshake (Kalshi)
	conn            *websocket.Conn
	logger          *zap.Logger
	reconnectMgr    *ReconnectManager
	config          Config
	messageChan     chan *RawMessage
	ctx             context.Context
	cancel          context.CancelFunc
	wg              sync.WaitGroup
	mu              sync.RWMutex
	subscribed      map[string]bool
	subscribeBuild  SubscribeBuilder
	connected       atomic.Bool
	lastPongTime    atomic.Int64
	connectionStart atomic.Int64
}

// SubscribeBuilder builds the wire payload for a (re)subscribe request.
// initial is true for the very first subscription sent on a fresh
// connection (Polymarket distinguishes "type":"market" from an incremental
// "operation":"subscribe"); venues that don't care can ignore it.
type SubscribeBuilder func(assetIDs []string, initial bool) any

// UnsubscribeBuilder builds the wire payload for an unsubscribe request.
type UnsubscribeBuilder func(assetIDs []string) any

// Config holds WebSocket manager configuration.
type Config struct {
	URL                   string
	Header                http.Header
	DialTimeout           time.Duration
	PongTimeout           time.Duration
	PingInterval          time.Duration
	ReconnectInitialDelay time.Duration
	ReconnectMaxDelay     time.Duration
	ReconnectBackoffMult  float64
	MessageBufferSize     int
	SubscribeBuild        SubscribeBuilder
	UnsubscribeBuild      UnsubscribeBuilder
	Logger                *zap.Logger
}

// New creates a new WebSocket manager.
func New(cfg Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	reconnectCfg := ReconnectConfig{
		InitialDelay:      cfg.ReconnectInitialDelay,
		MaxDelay:          cfg.ReconnectMaxDelay,
		BackoffMultiplier: cfg.ReconnectBackoffMult,
		JitterPercent:     0.2,
	}

	return &Manager{
		url:            cfg.URL,
		header:         cfg.Header,
		logger:         cfg.Logger,
		reconnectMgr:   NewReconnectManager(reconnectCfg, cfg.Logger),
		config:         cfg,
		messageChan:    make(chan *RawMessage, cfg.MessageBufferSize),
		ctx:            ctx,
		cancel:         cancel,
		subscribed:     make(map[string]bool),
		subscribeBuild: cfg.SubscribeBuild,
	}
}

// Start starts the WebSocket manager.
func (m *Manager) Start() error {
	m.logger.Info("websocket-manager-starting", zap.String("url", m.url))

	if err := m.connect(m.ctx); err != nil {
		return fmt.Errorf("initial connection: %w", err)
	}

	m.wg.Add(4)
	go m.readLoop()
	go m.pingLoop()
	go m.reconnectLoop()
	go m.watchdogLoop()

	return nil
}

// connect establishes a WebSocket connection, attaching venue auth headers
// at handshake when the venue requires them.
func (m *Manager) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: m.config.DialTimeout}

	m.logger.Info("connecting-to-websocket", zap.String("url", m.url))

	conn, _, err := dialer.DialContext(ctx, m.url, m.header)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	conn.SetPongHandler(func(string) error {
		m.lastPongTime.Store(time.Now().Unix())
		return nil
	})

	m.mu.Lock()
	m.conn = conn
	m.mu.Unlock()

	now := time.Now()
	m.connected.Store(true)
	m.lastPongTime.Store(now.Unix())
	m.connectionStart.Store(now.Unix())
	ActiveConnections.Set(1)

	m.logger.Info("websocket-connected")

	return nil
}

// Subscribe subscribes to a list of asset ids not already subscribed.
func (m *Manager) Subscribe(ctx context.Context, assetIDs []string) error {
	if len(assetIDs) == 0 {
		return nil
	}

	m.mu.Lock()

	newIDs := make([]string, 0, len(assetIDs))
	for _, id := range assetIDs {
		if !m.subscribed[id] {
			newIDs = append(newIDs, id)
			m.subscribed[id] = true
		}
	}

	if len(newIDs) == 0 {
		m.mu.Unlock()
		m.logger.Debug("all-assets-already-subscribed")
		return nil
	}

	initial := len(m.subscribed) == len(newIDs)
	totalSubscribed := len(m.subscribed)
	m.mu.Unlock()

	msg := m.subscribeBuild(newIDs, initial)

	err := m.conn.WriteJSON(msg)
	if err != nil {
		m.mu.Lock()
		for _, id := range newIDs {
			delete(m.subscribed, id)
		}
		totalSubscribed = len(m.subscribed)
		m.mu.Unlock()

		SubscriptionCount.Set(float64(totalSubscribed))
		return fmt.Errorf("write subscribe message: %w", err)
	}

	SubscriptionCount.Set(float64(totalSubscribed))

	m.logger.Info("subscribed-to-assets",
		zap.Int("new-count", len(newIDs)),
		zap.Int("total-count", totalSubscribed))

	return nil
}

// Unsubscribe unsubscribes from a list of asset ids.
func (m *Manager) Unsubscribe(ctx context.Context, assetIDs []string) error {
	if len(assetIDs) == 0 || m.config.UnsubscribeBuild == nil {
		return nil
	}

	m.mu.Lock()

	toRemove := make([]string, 0, len(assetIDs))
	for _, id := range assetIDs {
		if m.subscribed[id] {
			toRemove = append(toRemove, id)
			delete(m.subscribed, id)
		}
	}

	if len(toRemove) == 0 {
		m.mu.Unlock()
		return nil
	}

	totalSubscribed := len(m.subscribed)
	m.mu.Unlock()

	msg := m.config.UnsubscribeBuild(toRemove)

	err := m.conn.WriteJSON(msg)
	if err != nil {
		m.mu.Lock()
		for _, id := range toRemove {
			m.subscribed[id] = true
		}
		totalSubscribed = len(m.subscribed)
		m.mu.Unlock()

		SubscriptionCount.Set(float64(totalSubscribed))
		return fmt.Errorf("write unsubscribe message: %w", err)
	}

	SubscriptionCount.Set(float64(totalSubscribed))
	UnsubscriptionsTotal.Inc()

	m.logger.Info("unsubscribed-from-assets",
		zap.Int("count", len(toRemove)),
		zap.Int("remaining-count", totalSubscribed))

	return nil
}

// readLoop reads raw frames from the WebSocket and forwards them unparsed.
func (m *Manager) readLoop() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		m.mu.RLock()
		conn := m.conn
		m.mu.RUnlock()

		if conn == nil {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			m.logger.Warn("read-error", zap.Error(err))

			startTime := m.connectionStart.Load()
			if startTime > 0 {
				duration := time.Since(time.Unix(startTime, 0)).Seconds()
				ConnectionDuration.Observe(duration)
			}

			m.connected.Store(false)
			ActiveConnections.Set(0)
			return
		}

		m.lastPongTime.Store(time.Now().Unix())

		start := time.Now()
		raw := &RawMessage{Data: message, ReceivedAt: start}

		select {
		case m.messageChan <- raw:
		default:
			m.logger.Warn("message-channel-full", zap.Int("bytes", len(message)))
			MessagesDroppedTotal.WithLabelValues("channel_full").Inc()
		}

		MessageLatencySeconds.Observe(time.Since(start).Seconds())
	}
}

// pingLoop sends periodic PING frames at a fixed ~30s interval.
func (m *Manager) pingLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			if !m.connected.Load() {
				continue
			}

			m.mu.RLock()
			conn := m.conn
			m.mu.RUnlock()

			if conn == nil {
				continue
			}

			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(time.Second)); err != nil {
				m.logger.Warn("ping-error", zap.Error(err))
			}
		}
	}
}

// reconnectLoop reconnects with exponential backoff on disconnect,
// starting at 2s and capped at 60s; re-subscribes the current asset set.
func (m *Manager) reconnectLoop() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		if m.connected.Load() {
			time.Sleep(time.Second)
			continue
		}

		m.logger.Warn("connection-lost-initiating-reconnect")

		err := m.reconnectMgr.Reconnect(m.ctx, m.connect)
		if err != nil {
			if err == context.Canceled {
				return
			}
			m.logger.Error("reconnection-failed", zap.Error(err))
			continue
		}

		if err := m.resubscribeAll(m.ctx); err != nil {
			m.logger.Error("resubscribe-failed", zap.Error(err))
			m.connected.Store(false)
			continue
		}

		m.logger.Info("reconnection-complete-restarting-read-loop")

		m.wg.Add(1)
		go m.readLoop()
	}
}

// watchdogLoop forces a reconnect when no frame (data or pong) has arrived
// for config.PongTimeout, catching a peer that stops sending without ever
// closing the TCP connection — a silent stall conn.ReadMessage() never
// surfaces on its own. Disabled when PongTimeout is non-positive.
func (m *Manager) watchdogLoop() {
	defer m.wg.Done()

	if m.config.PongTimeout <= 0 {
		return
	}

	interval := m.config.PongTimeout / 3
	if interval <= 0 {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			if !m.connected.Load() {
				continue
			}

			last := m.lastPongTime.Load()
			if last == 0 || time.Since(time.Unix(last, 0)) <= m.config.PongTimeout {
				continue
			}

			m.logger.Warn("silence-timeout-forcing-reconnect",
				zap.Duration("timeout", m.config.PongTimeout),
				zap.Time("last-seen", time.Unix(last, 0)))

			m.mu.RLock()
			conn := m.conn
			m.mu.RUnlock()

			if conn != nil {
				conn.Close()
			}

			m.connected.Store(false)
			ActiveConnections.Set(0)
		}
	}
}

// resubscribeAll re-sends the subscription payload for every asset id
// subscribed before the disconnect.
func (m *Manager) resubscribeAll(ctx context.Context) error {
	m.mu.RLock()
	assetIDs := make([]string, 0, len(m.subscribed))
	for id := range m.subscribed {
		assetIDs = append(assetIDs, id)
	}
	m.mu.RUnlock()

	if len(assetIDs) == 0 {
		return nil
	}

	msg := m.subscribeBuild(assetIDs, true)

	m.mu.RLock()
	err := m.conn.WriteJSON(msg)
	m.mu.RUnlock()

	if err != nil {
		return fmt.Errorf("write resubscribe message: %w", err)
	}

	m.logger.Info("resubscribed-to-all-assets", zap.Int("count", len(assetIDs)))

	return nil
}

// MessageChan returns the channel for receiving raw WebSocket frames.
func (m *Manager) MessageChan() <-chan *RawMessage {
	return m.messageChan
}

// Close gracefully closes the WebSocket manager.
func (m *Manager) Close() error {
	m.logger.Info("closing-websocket-manager")

	m.cancel()

	m.mu.RLock()
	if m.conn != nil {
		m.conn.Close()
	}
	m.mu.RUnlock()

	m.wg.Wait()

	close(m.messageChan)

	ActiveConnections.Set(0)

	m.logger.Info("websocket-manager-closed")

	return nil
}
