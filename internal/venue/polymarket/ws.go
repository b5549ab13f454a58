package polymarket

import (
	json "github.com/goccy/go-json"

	"github.com/mselser95/polymarket-arb/internal/orderbook"
	"github.com/mselser95/polymarket-arb/pkg/types"
)

// subscribeMessage is the wire payload for subscribe/resubscribe:
// {type:"market", assets_ids:[...]}. Polymarket has no separate incremental
// subscribe verb, so initial is accepted but unused.
type subscribeMessage struct {
	Type      string   `json:"type"`
	AssetsIDs []string `json:"assets_ids"`
}

// Subscribe builds the {"type":"market","assets_ids":[...]} payload
// Polymarket's market channel expects. Satisfies
// pkg/websocket.SubscribeBuilder.
func Subscribe(assetIDs []string, _ bool) any {
	return subscribeMessage{Type: "market", AssetsIDs: assetIDs}
}

// wireEvent is the envelope every Polymarket market-channel message shares:
// an event_type discriminant plus the fields relevant to that type.
type wireEvent struct {
	EventType string          `json:"event_type"`
	AssetID   string          `json:"asset_id"`
	Market    string          `json:"market"`
	Bids      []clobBookLevel `json:"bids"`
	Asks      []clobBookLevel `json:"asks"`
	Price     string          `json:"price"`
}

// Decode classifies one raw WS frame by its event_type discriminant and
// turns it into order book cache updates. Unknown event types are ignored.
// A frame may arrive as a single object or an array of objects.
func Decode(data []byte) []orderbook.Update {
	var events []wireEvent

	if data[0] == '[' {
		if err := json.Unmarshal(data, &events); err != nil {
			return nil
		}
	} else {
		var single wireEvent
		if err := json.Unmarshal(data, &single); err != nil {
			return nil
		}
		events = []wireEvent{single}
	}

	updates := make([]orderbook.Update, 0, len(events))

	for _, evt := range events {
		switch evt.EventType {
		case "book":
			updates = append(updates, orderbook.Update{
				AssetID:  evt.AssetID,
				Snapshot: true,
				Bids:     levelsToBook(evt.Bids),
				Asks:     levelsToBook(evt.Asks),
			})
		case "price_change":
			updates = append(updates, orderbook.Update{
				AssetID: evt.AssetID,
				Bids:    levelsToBook(evt.Bids),
				Asks:    levelsToBook(evt.Asks),
			})
		case "last_trade_price":
			price, _, ok := parseLevel(evt.Price, "0")
			if !ok {
				continue
			}
			updates = append(updates, orderbook.Update{AssetID: evt.AssetID, LastTradePrice: price})
		default:
			continue
		}
	}

	return updates
}

func levelsToBook(levels []clobBookLevel) []types.OrderBookLevel {
	out := make([]types.OrderBookLevel, 0, len(levels))
	for _, lvl := range levels {
		price, size, ok := parseLevel(lvl.Price, lvl.Size)
		if !ok {
			continue
		}
		out = append(out, types.OrderBookLevel{Price: price, Size: size})
	}
	return out
}
