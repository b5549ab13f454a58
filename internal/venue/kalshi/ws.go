package kalshi

import (
	json "github.com/goccy/go-json"

	"github.com/mselser95/polymarket-arb/internal/orderbook"
	"github.com/mselser95/polymarket-arb/pkg/types"
)

// subscribeParams/subscribeMessage mirror Kalshi's {id, cmd:"subscribe",
// params:{channels:["trade","ticker"]}} wire format.
type subscribeParams struct {
	Channels      []string `json:"channels"`
	MarketTickers []string `json:"market_tickers,omitempty"`
}

type subscribeMessage struct {
	ID     int             `json:"id"`
	Cmd    string          `json:"cmd"`
	Params subscribeParams `json:"params"`
}

type unsubscribeMessage struct {
	ID  int    `json:"id"`
	Cmd string `json:"cmd"`
}

// Subscribe builds the subscribe command for the ticker and trade channels scoped to
// the given tickers. Kalshi ids subscriptions with an incrementing request
// id; 1 is sufficient here since the manager only ever holds one open
// subscribe command per asset batch.
func Subscribe(tickers []string, _ bool) any {
	return subscribeMessage{
		ID:  1,
		Cmd: "subscribe",
		Params: subscribeParams{
			Channels:      []string{"ticker", "trade"},
			MarketTickers: tickers,
		},
	}
}

// Unsubscribe builds the unsubscribe command. Kalshi's v2 API unsubscribes
// by subscription id rather than ticker; since this engine resubscribes the
// full asset set on any change instead of tracking per-subscription ids,
// unsubscribe is a no-op at the wire level.
func Unsubscribe(_ []string) any {
	return unsubscribeMessage{ID: 1, Cmd: "unsubscribe"}
}

// tickerMessage is Kalshi's ticker channel envelope: best bid/ask in cents
// for a market, refreshed on every book change.
type tickerMessage struct {
	Type string `json:"type"`
	Msg  struct {
		MarketTicker string `json:"market_ticker"`
		YesBid       int    `json:"yes_bid"`
		YesAsk       int    `json:"yes_ask"`
	} `json:"msg"`
}

// Decode classifies one raw WS frame by its "type" envelope field. Only the
// ticker channel feeds the order book cache; trade-channel messages are
// logged by the caller and otherwise ignored. The trade feed's
// "taker_side" must never be used to infer buy/sell here.
func Decode(data []byte) []orderbook.Update {
	var msg tickerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil
	}

	if msg.Type != "ticker" || msg.Msg.MarketTicker == "" {
		return nil
	}

	ticker := msg.Msg.MarketTicker
	yesBid := float64(msg.Msg.YesBid) / 100.0
	yesAsk := float64(msg.Msg.YesAsk) / 100.0

	updates := []orderbook.Update{
		{
			AssetID: ticker,
			Bids:    priceLevel(yesBid),
			Asks:    priceLevel(yesAsk),
		},
	}

	if yesBid > 0 && yesAsk > 0 {
		noTicker := ticker + noAssetSuffix
		updates = append(updates, orderbook.Update{
			AssetID: noTicker,
			Bids:    priceLevel(1 - yesAsk),
			Asks:    priceLevel(1 - yesBid),
		})
	}

	return updates
}

func priceLevel(price float64) []types.OrderBookLevel {
	if price <= 0 {
		return nil
	}
	return []types.OrderBookLevel{{Price: price, Size: 1}}
}
