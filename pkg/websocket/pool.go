package websocket

import (
	"context"
	"fmt"
	"hash/crc32"
	"net/http"
	"reflect"
	"sync"
	"time"

	"go.uber.org/zap"
)

// PoolConfig holds WebSocket pool configuration.
type PoolConfig struct {
	Size                  int
	WSUrl                 string
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

// Pool manages multiple WebSocket connections to one venue, sharding asset
// ids across connections by CRC32 hash for load distribution.
type Pool struct {
	cfg                PoolConfig
	managers           []*Manager
	assetToIndex       map[string]int
	totalSubscriptions int
	mu                 sync.RWMutex
	messageChan        chan *RawMessage
	ctx                context.Context
	cancel             context.CancelFunc
	wg                 sync.WaitGroup
	logger             *zap.Logger
}

// NewPool creates a new WebSocket connection pool.
func NewPool(cfg PoolConfig) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	messageBufferSize := cfg.Size * cfg.MessageBufferSize

	pool := &Pool{
		cfg:          cfg,
		managers:     make([]*Manager, cfg.Size),
		assetToIndex: make(map[string]int),
		messageChan:  make(chan *RawMessage, messageBufferSize),
		ctx:          ctx,
		cancel:       cancel,
		logger:       cfg.Logger,
	}

	for i := range cfg.Size {
		managerCfg := Config{
			URL:                   cfg.WSUrl,
			Header:                cfg.Header,
			DialTimeout:           cfg.DialTimeout,
			PongTimeout:           cfg.PongTimeout,
			PingInterval:          cfg.PingInterval,
			ReconnectInitialDelay: cfg.ReconnectInitialDelay,
			ReconnectMaxDelay:     cfg.ReconnectMaxDelay,
			ReconnectBackoffMult:  cfg.ReconnectBackoffMult,
			MessageBufferSize:     cfg.MessageBufferSize,
			SubscribeBuild:        cfg.SubscribeBuild,
			UnsubscribeBuild:      cfg.UnsubscribeBuild,
			Logger:                cfg.Logger.With(zap.Int("manager-id", i)),
		}

		pool.managers[i] = New(managerCfg)
	}

	return pool
}

// Start starts all WebSocket managers in the pool.
func (p *Pool) Start() error {
	p.logger.Info("websocket-pool-starting", zap.Int("pool-size", p.cfg.Size))

	errChan := make(chan error, p.cfg.Size)
	var startWg sync.WaitGroup

	for i, mgr := range p.managers {
		startWg.Add(1)
		go func(index int, manager *Manager) {
			defer startWg.Done()

			if err := manager.Start(); err != nil {
				p.logger.Error("manager-start-failed", zap.Int("manager-id", index), zap.Error(err))
				errChan <- fmt.Errorf("manager %d start failed: %w", index, err)
			}
		}(i, mgr)
	}

	startWg.Wait()
	close(errChan)

	var startErrors []error
	for err := range errChan {
		startErrors = append(startErrors, err)
	}

	if len(startErrors) > 0 {
		return fmt.Errorf("failed to start %d managers: %v", len(startErrors), startErrors)
	}

	p.wg.Add(1)
	go p.multiplexMessages()

	PoolActiveConnections.Set(float64(p.cfg.Size))

	p.logger.Info("websocket-pool-started", zap.Int("active-managers", p.cfg.Size))

	return nil
}

// Subscribe distributes asset subscriptions across managers by hash.
func (p *Pool) Subscribe(ctx context.Context, assetIDs []string) error {
	if len(assetIDs) == 0 {
		return nil
	}

	assetsByManager := make(map[int][]string)
	newCount := 0

	p.mu.Lock()
	for _, id := range assetIDs {
		if _, exists := p.assetToIndex[id]; exists {
			continue
		}

		idx := p.getManagerIndex(id)
		p.assetToIndex[id] = idx
		assetsByManager[idx] = append(assetsByManager[idx], id)
		newCount++
	}
	p.mu.Unlock()

	errChan := make(chan error, len(assetsByManager))
	var subWg sync.WaitGroup

	for idx, ids := range assetsByManager {
		subWg.Add(1)
		go func(i int, assets []string) {
			defer subWg.Done()

			if err := p.managers[i].Subscribe(ctx, assets); err != nil {
				p.logger.Error("manager-subscribe-failed", zap.Int("manager-id", i), zap.Int("count", len(assets)), zap.Error(err))
				errChan <- fmt.Errorf("manager %d subscribe failed: %w", i, err)
			}
		}(idx, ids)
	}

	subWg.Wait()
	close(errChan)

	var subscribeErrors []error
	for err := range errChan {
		subscribeErrors = append(subscribeErrors, err)
	}

	if len(subscribeErrors) > 0 {
		return fmt.Errorf("failed to subscribe on %d managers: %v", len(subscribeErrors), subscribeErrors)
	}

	p.mu.Lock()
	p.totalSubscriptions += newCount
	totalSubs := p.totalSubscriptions
	p.mu.Unlock()

	SubscriptionCount.Set(float64(totalSubs))
	p.updateDistributionMetrics()

	p.logger.Info("pool-subscribed-to-assets",
		zap.Int("new-assets", newCount),
		zap.Int("total-subscriptions", totalSubs),
		zap.Int("managers-used", len(assetsByManager)))

	return nil
}

// Unsubscribe removes asset subscriptions from their assigned managers.
func (p *Pool) Unsubscribe(ctx context.Context, assetIDs []string) error {
	if len(assetIDs) == 0 {
		return nil
	}

	assetsByManager := make(map[int][]string)
	removedCount := 0

	p.mu.Lock()
	for _, id := range assetIDs {
		if idx, exists := p.assetToIndex[id]; exists {
			assetsByManager[idx] = append(assetsByManager[idx], id)
			delete(p.assetToIndex, id)
			removedCount++
		}
	}
	p.mu.Unlock()

	errChan := make(chan error, len(assetsByManager))
	var unsubWg sync.WaitGroup

	for idx, ids := range assetsByManager {
		unsubWg.Add(1)
		go func(i int, assets []string) {
			defer unsubWg.Done()

			if err := p.managers[i].Unsubscribe(ctx, assets); err != nil {
				p.logger.Error("manager-unsubscribe-failed", zap.Int("manager-id", i), zap.Int("count", len(assets)), zap.Error(err))
				errChan <- fmt.Errorf("manager %d unsubscribe failed: %w", i, err)
			}
		}(idx, ids)
	}

	unsubWg.Wait()
	close(errChan)

	var unsubscribeErrors []error
	for err := range errChan {
		unsubscribeErrors = append(unsubscribeErrors, err)
	}

	if len(unsubscribeErrors) > 0 {
		return fmt.Errorf("failed to unsubscribe on %d managers: %v", len(unsubscribeErrors), unsubscribeErrors)
	}

	p.mu.Lock()
	p.totalSubscriptions -= removedCount
	totalSubs := p.totalSubscriptions
	p.mu.Unlock()

	SubscriptionCount.Set(float64(totalSubs))

	p.logger.Info("pool-unsubscribed-from-assets",
		zap.Int("removed-assets", removedCount),
		zap.Int("total-subscriptions", totalSubs),
		zap.Int("managers-used", len(assetsByManager)))

	return nil
}

// MessageChan returns the multiplexed raw-message channel receiving from
// all managers in the pool.
func (p *Pool) MessageChan() <-chan *RawMessage {
	return p.messageChan
}

// Close gracefully closes all WebSocket managers in the pool.
func (p *Pool) Close() error {
	p.logger.Info("closing-websocket-pool")

	p.cancel()

	var closeWg sync.WaitGroup
	for i, mgr := range p.managers {
		closeWg.Add(1)
		go func(index int, manager *Manager) {
			defer closeWg.Done()

			if err := manager.Close(); err != nil {
				p.logger.Error("manager-close-failed", zap.Int("manager-id", index), zap.Error(err))
			}
		}(i, mgr)
	}

	closeWg.Wait()
	p.wg.Wait()
	close(p.messageChan)

	PoolActiveConnections.Set(0)

	p.logger.Info("websocket-pool-closed")

	return nil
}

// multiplexMessages receives from every manager's channel and forwards to
// the pool's single output channel, using reflect.Select to fan-in an
// unbounded set of channels without a dedicated goroutine per manager.
func (p *Pool) multiplexMessages() {
	defer p.wg.Done()

	cases := make([]reflect.SelectCase, len(p.managers)+1)

	cases[0] = reflect.SelectCase{
		Dir:  reflect.SelectRecv,
		Chan: reflect.ValueOf(p.ctx.Done()),
	}

	for i, mgr := range p.managers {
		cases[i+1] = reflect.SelectCase{
			Dir:  reflect.SelectRecv,
			Chan: reflect.ValueOf(mgr.MessageChan()),
		}
	}

	p.logger.Info("message-multiplexer-started", zap.Int("manager-count", len(p.managers)))

	for {
		chosen, value, ok := reflect.Select(cases)

		if chosen == 0 {
			p.logger.Info("message-multiplexer-stopped")
			return
		}

		if !ok {
			p.logger.Warn("manager-channel-closed", zap.Int("manager-id", chosen-1))
			cases[chosen].Chan = reflect.ValueOf(make(chan *RawMessage))
			continue
		}

		msg, ok := value.Interface().(*RawMessage)
		if !ok {
			p.logger.Error("invalid-message-type", zap.Int("manager-id", chosen-1), zap.String("type", fmt.Sprintf("%T", value.Interface())))
			continue
		}

		select {
		case p.messageChan <- msg:
		default:
			p.logger.Warn("dropped-message-from-multiplexer", zap.Int("manager-id", chosen-1))
		}
	}
}

// getManagerIndex calculates the manager index for an asset id using CRC32.
// Must be called with p.mu held.
func (p *Pool) getManagerIndex(assetID string) int {
	hash := crc32.ChecksumIEEE([]byte(assetID))
	return int(hash) % p.cfg.Size
}

// updateDistributionMetrics updates Prometheus metrics for the
// subscriptions-per-manager distribution.
func (p *Pool) updateDistributionMetrics() {
	subscriptionsPerManager := make(map[int]int)

	p.mu.RLock()
	for _, idx := range p.assetToIndex {
		subscriptionsPerManager[idx]++
	}
	p.mu.RUnlock()

	for _, count := range subscriptionsPerManager {
		PoolSubscriptionDistribution.Observe(float64(count))
	}
}
