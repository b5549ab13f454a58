package dependency

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// HTTPClassifier calls an external semantic market-dependency service over
// REST. The service's own classification logic is a collaborator outside
// this repo's scope; this is only the thin client that submits a batch and
// parses its response into the four-value relation alphabet Classify must
// return.
type HTTPClassifier struct {
	http   *resty.Client
	model  string
	logger *zap.Logger
}

// NewHTTPClassifier builds an HTTPClassifier posting batches to baseURL.
func NewHTTPClassifier(baseURL, model string, logger *zap.Logger) *HTTPClassifier {
	return &HTTPClassifier{
		http:   resty.New().SetBaseURL(baseURL).SetRetryCount(2),
		model:  model,
		logger: logger,
	}
}

type classifyRequest struct {
	Model string `json:"model"`
	Pairs []Pair `json:"pairs"`
}

type classifyResponse struct {
	Results []PairResult `json:"results"`
}

// Classify submits pairs as a single batch and returns the service's
// relation rows. Pairs with an unrecognized relation string are dropped by
// the caller, not here.
func (c *HTTPClassifier) Classify(ctx context.Context, pairs []Pair) ([]PairResult, error) {
	var out classifyResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(classifyRequest{Model: c.model, Pairs: pairs}).
		SetResult(&out).
		Post("/classify")
	if err != nil {
		return nil, fmt.Errorf("classify request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("classify request: status %s", resp.Status())
	}

	return out.Results, nil
}
