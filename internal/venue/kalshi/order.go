package kalshi

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-arb/pkg/types"
)

// SubmitOrder creates a GTC-equivalent limit order via
// POST /trade-api/v2/portfolio/orders. Kalshi has no native GTC/IOC split at
// this endpoint surface; type:"limit" with no expiration behaves as resting
// until filled or canceled, matching the engine's GTC semantics.
func (c *Client) SubmitOrder(ctx context.Context, assetID string, side types.Side, price, size float64) (string, error) {
	if c.signer == nil {
		return "paper-" + uuid.NewString(), nil
	}

	ticker, isNo := strings.CutSuffix(assetID, noAssetSuffix)
	if !isNo {
		ticker = assetID
	}

	kalshiSide := "yes"
	orderPrice := price
	if isNo {
		kalshiSide = "no"
	}

	priceCents := int(orderPrice*100 + 0.5)

	req := orderRequest{
		Ticker:        ticker,
		Action:        "buy",
		Type:          "limit",
		Side:          kalshiSide,
		Count:         int(size + 0.5),
		ClientOrderID: uuid.NewString(),
	}
	if kalshiSide == "yes" {
		req.YesPrice = &priceCents
	} else {
		req.NoPrice = &priceCents
	}

	if side == types.SideSell {
		// The engine expresses "sell YES" as "buy NO" where a venue
		// disallows short selling; Kalshi is such a venue.
		req.Side = "no"
		noPriceCents := int((1-orderPrice)*100 + 0.5)
		req.YesPrice = nil
		req.NoPrice = &noPriceCents
	}

	const path = "/trade-api/v2/portfolio/orders"
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)

	signature, err := c.signer.Sign(timestamp, "POST", path)
	if err != nil {
		return "", err
	}

	var result orderResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("KALSHI-ACCESS-KEY", c.signer.accessKey).
		SetHeader("KALSHI-ACCESS-SIGNATURE", signature).
		SetHeader("KALSHI-ACCESS-TIMESTAMP", timestamp).
		SetBody(req).
		SetResult(&result).
		Post(path)

	if err != nil {
		return "", &types.TransientNetworkError{Op: "kalshi-submit-order", Err: err}
	}
	if resp.StatusCode() >= 500 {
		return "", &types.TransientNetworkError{Op: "kalshi-submit-order", Err: fmt.Errorf("status %d", resp.StatusCode())}
	}
	if resp.StatusCode() >= 400 || result.Error != nil {
		code, msg := "", resp.String()
		if result.Error != nil {
			code, msg = result.Error.Code, result.Error.Message
		}
		return "", &types.RejectedByVenueError{Code: code, Message: msg, AssetID: assetID, Side: side}
	}

	c.logger.Info("order-submitted",
		zap.String("ticker", ticker),
		zap.String("side", req.Side),
		zap.String("order-id", result.Order.OrderID))

	return result.Order.OrderID, nil
}

// OrderStatus queries GET /trade-api/v2/portfolio/orders/{id} for a
// previously submitted order's current fill state. Fill size is derived as
// count minus remaining_count, since Kalshi doesn't report a filled-size
// field directly. In paper mode (no signer) it reports a synthetic state
// with status "paper" and zero fill sizes, without touching the network.
func (c *Client) OrderStatus(ctx context.Context, orderID string) (types.OrderState, error) {
	if c.signer == nil {
		return types.OrderState{OrderID: orderID, Status: "paper"}, nil
	}

	path := "/trade-api/v2/portfolio/orders/" + orderID
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)

	signature, err := c.signer.Sign(timestamp, "GET", path)
	if err != nil {
		return types.OrderState{}, err
	}

	var result orderStatusResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("KALSHI-ACCESS-KEY", c.signer.accessKey).
		SetHeader("KALSHI-ACCESS-SIGNATURE", signature).
		SetHeader("KALSHI-ACCESS-TIMESTAMP", timestamp).
		SetResult(&result).
		Get(path)

	if err != nil {
		return types.OrderState{}, &types.TransientNetworkError{Op: "kalshi-order-status", Err: err}
	}
	if resp.StatusCode() >= 500 {
		return types.OrderState{}, &types.TransientNetworkError{Op: "kalshi-order-status", Err: fmt.Errorf("status %d", resp.StatusCode())}
	}
	if resp.StatusCode() >= 400 || result.Error != nil {
		msg := resp.String()
		if result.Error != nil {
			msg = result.Error.Message
		}
		return types.OrderState{}, fmt.Errorf("kalshi order status: %s", msg)
	}

	filled := float64(result.Order.Count - result.Order.RemainingCount)

	return types.OrderState{
		OrderID:      result.Order.OrderID,
		Status:       result.Order.Status,
		SizeFilled:   filled,
		SizeOriginal: float64(result.Order.Count),
	}, nil
}
