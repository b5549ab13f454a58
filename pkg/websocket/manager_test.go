package websocket

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func testConfig() Config {
	logger, _ := zap.NewDevelopment()
	return Config{
		URL:                   "wss://example.invalid/ws",
		DialTimeout:           10 * time.Second,
		PongTimeout:           15 * time.Second,
		PingInterval:          30 * time.Second,
		ReconnectInitialDelay: 2 * time.Second,
		ReconnectMaxDelay:     60 * time.Second,
		ReconnectBackoffMult:  2.0,
		MessageBufferSize:     100,
		SubscribeBuild: func(ids []string, initial bool) any {
			return map[string]any{"assets_ids": ids, "initial": initial}
		},
		UnsubscribeBuild: func(ids []string) any {
			return map[string]any{"assets_ids": ids, "operation": "unsubscribe"}
		},
		Logger: logger,
	}
}

func TestNew(t *testing.T) {
	mgr := New(testConfig())

	if mgr == nil {
		t.Fatal("expected non-nil manager")
	}
	if mgr.messageChan == nil {
		t.Error("expected non-nil message channel")
	}
	if cap(mgr.messageChan) != 100 {
		t.Errorf("expected buffer 100, got %d", cap(mgr.messageChan))
	}
	if mgr.subscribed == nil {
		t.Error("expected non-nil subscribed map")
	}
}

func TestSubscribe_EmptyIsNoop(t *testing.T) {
	mgr := New(testConfig())

	if err := mgr.Subscribe(nil, nil); err != nil {
		t.Errorf("expected no error subscribing to nothing, got %v", err)
	}
}

func TestSubscribe_DedupesAlreadySubscribed(t *testing.T) {
	mgr := New(testConfig())
	mgr.subscribed["tok-1"] = true

	mgr.mu.Lock()
	newIDs := make([]string, 0)
	for _, id := range []string{"tok-1", "tok-2"} {
		if !mgr.subscribed[id] {
			newIDs = append(newIDs, id)
		}
	}
	mgr.mu.Unlock()

	if len(newIDs) != 1 || newIDs[0] != "tok-2" {
		t.Errorf("expected only tok-2 to be new, got %v", newIDs)
	}
}
