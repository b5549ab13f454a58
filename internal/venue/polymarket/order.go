package polymarket

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-arb/pkg/types"
)

// SubmitOrder creates a GTC limit order. In paper mode (no signer
// configured) it returns a synthetic id without touching the network. In
// live mode it signs and posts to POST /order.
func (c *Client) SubmitOrder(ctx context.Context, assetID string, side types.Side, price, size float64) (string, error) {
	if c.signer == nil {
		return "paper-" + uuid.NewString(), nil
	}

	sideStr := "BUY"
	if side == types.SideSell {
		sideStr = "SELL"
	}

	makerAmount := strconv.FormatFloat(price*size, 'f', 6, 64)
	takerAmount := strconv.FormatFloat(size, 'f', 6, 64)

	signature, err := c.signer.SignOrder(assetID, side, makerAmount, takerAmount)
	if err != nil {
		return "", err // ErrSigningError: fatal in live mode, caller decides
	}

	reqBody := clobOrderRequest{
		TokenID:   assetID,
		Side:      sideStr,
		Price:     price,
		Size:      size,
		Type:      "GTC",
		Maker:     c.signer.MakerAddress(),
		Signer:    c.signer.MakerAddress(),
		Signature: signature,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal order: %w", err)
	}

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	const path = "/order"

	authSig, err := c.signer.SignRequest(timestamp, http.MethodPost, path, string(bodyBytes))
	if err != nil {
		return "", err
	}

	endpoint := c.clobURL + path

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", &types.TransientNetworkError{Op: "clob-submit-order", Err: err}
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Poly-Api-Key", c.signer.apiKey)
	httpReq.Header.Set("Poly-Api-Signature", authSig)
	httpReq.Header.Set("Poly-Api-Timestamp", timestamp)
	httpReq.Header.Set("Poly-Api-Passphrase", c.signer.passphrase)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &types.TransientNetworkError{Op: "clob-submit-order", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &types.TransientNetworkError{Op: "clob-submit-order", Err: err}
	}

	if resp.StatusCode >= 500 {
		return "", &types.TransientNetworkError{Op: "clob-submit-order", Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	var orderResp clobOrderResponse
	if err := json.Unmarshal(respBody, &orderResp); err != nil {
		return "", &types.ParseError{Source: "clob-order-response", Err: err}
	}

	if resp.StatusCode >= 400 || !orderResp.Success {
		return "", &types.RejectedByVenueError{
			Code:    orderResp.ErrorMsg,
			Message: orderResp.ErrorMsg,
			AssetID: assetID,
			Side:    side,
		}
	}

	c.logger.Info("order-submitted",
		zap.String("asset-id", assetID),
		zap.String("side", sideStr),
		zap.String("order-id", orderResp.OrderID))

	return orderResp.OrderID, nil
}

// OrderStatus queries GET /data/order/{id}, signed the same way as
// SubmitOrder's L2 auth headers, for a previously submitted order's current
// fill state. In paper mode (no signer) it reports a synthetic state with
// status "paper" and zero fill sizes, without touching the network.
func (c *Client) OrderStatus(ctx context.Context, orderID string) (types.OrderState, error) {
	if c.signer == nil {
		return types.OrderState{OrderID: orderID, Status: "paper"}, nil
	}

	path := "/data/order/" + orderID
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)

	authSig, err := c.signer.SignRequest(timestamp, http.MethodGet, path, "")
	if err != nil {
		return types.OrderState{}, err
	}

	endpoint := c.clobURL + path

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return types.OrderState{}, &types.TransientNetworkError{Op: "clob-order-status", Err: err}
	}

	httpReq.Header.Set("Poly-Api-Key", c.signer.apiKey)
	httpReq.Header.Set("Poly-Api-Signature", authSig)
	httpReq.Header.Set("Poly-Api-Timestamp", timestamp)
	httpReq.Header.Set("Poly-Api-Passphrase", c.signer.passphrase)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return types.OrderState{}, &types.TransientNetworkError{Op: "clob-order-status", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.OrderState{}, &types.TransientNetworkError{Op: "clob-order-status", Err: err}
	}

	if resp.StatusCode >= 500 {
		return types.OrderState{}, &types.TransientNetworkError{Op: "clob-order-status", Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	if resp.StatusCode >= 400 {
		return types.OrderState{}, fmt.Errorf("clob order status: status %d: %s", resp.StatusCode, string(body))
	}

	var raw clobOrderStatusResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return types.OrderState{}, &types.ParseError{Source: "clob-order-status", Err: err}
	}

	filled, _ := strconv.ParseFloat(raw.SizeMatched, 64)
	original, _ := strconv.ParseFloat(raw.OriginalSize, 64)

	return types.OrderState{
		OrderID:      orderID,
		Status:       raw.Status,
		SizeFilled:   filled,
		SizeOriginal: original,
	}, nil
}
