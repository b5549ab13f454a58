// Package orderbook implements a per-asset L2 order book cache,
// writer-prioritized for concurrent access, fed by decoded WebSocket
// updates from either venue.
package orderbook

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-arb/pkg/types"
)

// Update is a venue-decoded book mutation: either a full snapshot (Bids/Asks
// replace the book wholesale) or an incremental top-of-book change. Venue
// packages translate their wire format into this before handing it to the
// Manager, keeping the cache itself venue-agnostic.
type Update struct {
	AssetID        string
	Snapshot       bool // true: full book replace. false: incremental top update.
	Bids           []types.OrderBookLevel
	Asks           []types.OrderBookLevel
	LastTradePrice float64 // >0 when this update is a last_trade_price event
}

// Manager is the thread-safe order book cache. Writers: the WS feed,
// via the update channel drained by Start. Readers: the execution engine, via Snapshot. has()/get()
// semantics are folded into Snapshot returning the empty-book convention
// rather than failing.
type Manager struct {
	books   map[string]*types.OrderBook
	mu      sync.RWMutex
	logger  *zap.Logger
	updates <-chan Update
	outChan chan types.OrderBook
	ctx     context.Context
	wg      sync.WaitGroup
}

// Config holds orderbook manager configuration.
type Config struct {
	Logger      *zap.Logger
	UpdateChan  <-chan Update
	OutBufSize  int // subscriber notification buffer; default 100000 if 0
}

// New creates a new order book manager.
func New(cfg *Config) *Manager {
	bufSize := cfg.OutBufSize
	if bufSize == 0 {
		bufSize = 100000
	}

	return &Manager{
		books:   make(map[string]*types.OrderBook),
		logger:  cfg.Logger,
		updates: cfg.UpdateChan,
		outChan: make(chan types.OrderBook, bufSize),
	}
}

// Start begins consuming decoded updates.
func (m *Manager) Start(ctx context.Context) error {
	m.ctx = ctx
	m.logger.Info("orderbook-manager-starting")

	m.wg.Add(1)
	go m.processUpdates()

	return nil
}

func (m *Manager) processUpdates() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			m.logger.Info("orderbook-manager-stopping")
			return
		case upd, ok := <-m.updates:
			if !ok {
				m.logger.Info("update-channel-closed")
				return
			}
			m.apply(upd)
		}
	}
}

// apply mutates the cache for one asset id under a single-key critical
// section: readers never wait beyond a single-key critical section.
func (m *Manager) apply(upd Update) {
	timer := prometheus.NewTimer(UpdateProcessingDuration)
	defer timer.ObserveDuration()

	eventType := "price_change"
	if upd.Snapshot {
		eventType = "book"
	} else if upd.LastTradePrice > 0 {
		eventType = "last_trade_price"
	}
	UpdatesTotal.WithLabelValues(eventType).Inc()

	lockStart := time.Now()
	m.mu.Lock()
	LockContentionDuration.Observe(time.Since(lockStart).Seconds())

	book, exists := m.books[upd.AssetID]
	if !exists {
		empty := types.EmptyOrderBook(upd.AssetID)
		book = &empty
		m.books[upd.AssetID] = book
	}

	switch {
	case upd.Snapshot:
		book.Bids = sortedDescending(upd.Bids)
		book.Asks = sortedAscending(upd.Asks)
	case upd.LastTradePrice > 0:
		// last_trade_price only bootstraps a synthetic top-of-book when the
		// book is otherwise empty; once real book/price_change data arrives
		// it is never consulted again.
		if len(book.Bids) == 0 && len(book.Asks) == 0 {
			book.Bids = []types.OrderBookLevel{{Price: upd.LastTradePrice, Size: 1}}
			book.Asks = []types.OrderBookLevel{{Price: upd.LastTradePrice, Size: 1}}
		}
	default:
		if len(upd.Bids) > 0 {
			book.Bids = mergeTop(book.Bids, upd.Bids[0], true)
		}
		if len(upd.Asks) > 0 {
			book.Asks = mergeTop(book.Asks, upd.Asks[0], false)
		}
	}

	book.UpdatedAt = time.Now()
	snapshot := *book
	SnapshotsTracked.Set(float64(len(m.books)))
	m.mu.Unlock()

	m.logger.Debug("orderbook-updated",
		zap.String("asset-id", upd.AssetID),
		zap.String("event-type", eventType),
		zap.Float64("best-bid", snapshot.BestBid()),
		zap.Float64("best-ask", snapshot.BestAsk()))

	select {
	case m.outChan <- snapshot:
	default:
		m.logger.Warn("orderbook-subscriber-channel-full", zap.String("asset-id", upd.AssetID))
		UpdatesDroppedTotal.WithLabelValues("channel_full").Inc()
	}
}

// mergeTop replaces the best level on one side with a fresh top-of-book
// quote from a price_change event, preserving deeper levels as-is. A
// zero-size top level removes that level: price_change carries size="0"
// to clear it.
func mergeTop(levels []types.OrderBookLevel, newTop types.OrderBookLevel, descending bool) []types.OrderBookLevel {
	rest := levels
	if len(levels) > 0 {
		rest = levels[1:]
	}
	if newTop.Size <= 0 {
		return rest
	}

	merged := append([]types.OrderBookLevel{newTop}, rest...)
	if descending {
		sort.Slice(merged, func(i, j int) bool { return merged[i].Price > merged[j].Price })
	} else {
		sort.Slice(merged, func(i, j int) bool { return merged[i].Price < merged[j].Price })
	}
	return merged
}

func sortedDescending(levels []types.OrderBookLevel) []types.OrderBookLevel {
	out := append([]types.OrderBookLevel(nil), levels...)
	sort.Slice(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	return out
}

func sortedAscending(levels []types.OrderBookLevel) []types.OrderBookLevel {
	out := append([]types.OrderBookLevel(nil), levels...)
	sort.Slice(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out
}

// Snapshot returns the current book for an asset id, or the empty-book
// convention if unknown. Never fails.
func (m *Manager) Snapshot(assetID string) (types.OrderBook, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	book, exists := m.books[assetID]
	if !exists {
		return types.EmptyOrderBook(assetID), false
	}
	return *book, true
}

// AllSnapshots returns a copy of every tracked book.
func (m *Manager) AllSnapshots() map[string]types.OrderBook {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]types.OrderBook, len(m.books))
	for assetID, book := range m.books {
		out[assetID] = *book
	}
	return out
}

// UpdateChan returns the channel subscribers use to observe book changes.
func (m *Manager) UpdateChan() <-chan types.OrderBook {
	return m.outChan
}

// Close gracefully stops the manager.
func (m *Manager) Close() error {
	m.logger.Info("closing-orderbook-manager")
	m.wg.Wait()
	close(m.outChan)
	m.logger.Info("orderbook-manager-closed")
	return nil
}
