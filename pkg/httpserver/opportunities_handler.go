package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/mselser95/polymarket-arb/pkg/types"
	"go.uber.org/zap"
)

// OpportunityProvider is satisfied by the cycle orchestrator: it exposes
// the last N detected opportunities from its in-memory ring buffer.
type OpportunityProvider interface {
	LatestOpportunities() []types.ArbitrageOpportunity
}

// OrderBookProvider is satisfied by the order book cache: a read-only
// snapshot lookup by asset id.
type OrderBookProvider interface {
	Snapshot(assetID string) (types.OrderBook, bool)
}

// OpportunitiesHandler serves the debug/operability surface for arbitrage
// detection: the most recent opportunities the orchestrator has found.
type OpportunitiesHandler struct {
	opportunities OpportunityProvider
	logger        *zap.Logger
}

// NewOpportunitiesHandler creates a new opportunities handler.
func NewOpportunitiesHandler(provider OpportunityProvider, logger *zap.Logger) *OpportunitiesHandler {
	return &OpportunitiesHandler{
		opportunities: provider,
		logger:        logger,
	}
}

// opportunityView is the wire shape for one reported opportunity.
type opportunityView struct {
	ID             string    `json:"id"`
	MarketIndices  []int     `json:"market_indices"`
	P              []float64 `json:"p"`
	Q              []float64 `json:"q"`
	Delta          []float64 `json:"delta"`
	ExpectedProfit float64   `json:"expected_profit"`
	Mispricing     float64   `json:"mispricing"`
	DetectedAt     string    `json:"detected_at"`
	Iterations     int       `json:"iterations"`
	Converged      bool      `json:"converged"`
	FWElapsedMs    float64   `json:"fw_elapsed_ms"`
}

// ErrorResponse represents an HTTP error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HandleOpportunities handles GET /api/opportunities requests.
func (h *OpportunitiesHandler) HandleOpportunities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	latest := h.opportunities.LatestOpportunities()

	views := make([]opportunityView, 0, len(latest))
	for _, opp := range latest {
		indices := make([]int, len(opp.MarketIndices))
		for i, idx := range opp.MarketIndices {
			indices[i] = int(idx)
		}

		views = append(views, opportunityView{
			ID:             opp.ID,
			MarketIndices:  indices,
			P:              opp.P,
			Q:              opp.Q,
			Delta:          opp.Delta,
			ExpectedProfit: opp.ExpectedProfit,
			Mispricing:     opp.Mispricing,
			DetectedAt:     opp.DetectedAt.Format("2006-01-02T15:04:05.000Z07:00"),
			Iterations:     opp.Iterations,
			Converged:      opp.Converged,
			FWElapsedMs:    float64(opp.FWElapsed.Microseconds()) / 1000.0,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(views); err != nil {
		h.logger.Error("failed-to-encode-response", zap.Error(err))
	}
}

func (h *OpportunitiesHandler) writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: message}); err != nil {
		h.logger.Error("failed-to-encode-error-response", zap.Error(err))
	}
}
