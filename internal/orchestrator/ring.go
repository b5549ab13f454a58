package orchestrator

import (
	"sync"

	"github.com/mselser95/polymarket-arb/pkg/types"
)

// ring is a fixed-capacity, mutex-guarded ring buffer of the most recently
// detected opportunities, backing LatestOpportunities for the HTTP
// opportunities_handler debug endpoint.
type ring struct {
	mu   sync.Mutex
	buf  []types.ArbitrageOpportunity
	next int
	full bool
}

func newRing(capacity int) ring {
	return ring{buf: make([]types.ArbitrageOpportunity, capacity)}
}

func (r *ring) push(opp types.ArbitrageOpportunity) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buf[r.next] = opp
	r.next = (r.next + 1) % len(r.buf)
	if r.next == 0 {
		r.full = true
	}
}

// snapshot returns the buffered opportunities oldest-first.
func (r *ring) snapshot() []types.ArbitrageOpportunity {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.full {
		out := make([]types.ArbitrageOpportunity, r.next)
		copy(out, r.buf[:r.next])
		return out
	}

	out := make([]types.ArbitrageOpportunity, len(r.buf))
	copy(out, r.buf[r.next:])
	copy(out[len(r.buf)-r.next:], r.buf[:r.next])
	return out
}
