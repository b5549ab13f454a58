package kalshi

// eventsResponse is GET /trade-api/v2/events's response shape when
// with_nested_markets=true.
type eventsResponse struct {
	Events []kalshiEvent `json:"events"`
}

type kalshiEvent struct {
	EventTicker string          `json:"event_ticker"`
	Title       string          `json:"title"`
	Category    string          `json:"category"`
	Markets     []kalshiMarket  `json:"markets"`
}

// kalshiMarket is one binary market nested under an event. Prices are
// integer cents, converted to [0,1] at the adapter boundary.
type kalshiMarket struct {
	Ticker   string `json:"ticker"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	YesBid   int    `json:"yes_bid"`
	YesAsk   int    `json:"yes_ask"`
	Volume24 int    `json:"volume_24h"`
}

// orderbookResponse is GET /trade-api/v2/markets/{ticker}/orderbook. Levels
// are [price_cents, size] pairs per side.
type orderbookResponse struct {
	Orderbook struct {
		Yes [][2]int `json:"yes"`
		No  [][2]int `json:"no"`
	} `json:"orderbook"`
}

// orderRequest is the body of POST /trade-api/v2/portfolio/orders.
type orderRequest struct {
	Ticker        string `json:"ticker"`
	Action        string `json:"action"` // "buy"
	Type          string `json:"type"`   // "limit"
	Side          string `json:"side"`   // "yes" | "no"
	Count         int    `json:"count"`
	YesPrice      *int   `json:"yes_price,omitempty"`
	NoPrice       *int   `json:"no_price,omitempty"`
	ClientOrderID string `json:"client_order_id"`
}

// orderResponse is the portfolio-order endpoint's success/failure response.
type orderResponse struct {
	Order struct {
		OrderID string `json:"order_id"`
		Status  string `json:"status"`
	} `json:"order"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// orderStatusResponse is GET /trade-api/v2/portfolio/orders/{id}'s response
// shape. Fill size isn't reported directly; it's derived as count minus
// remaining_count.
type orderStatusResponse struct {
	Order struct {
		OrderID        string `json:"order_id"`
		Status         string `json:"status"`
		Count          int    `json:"count"`
		RemainingCount int    `json:"remaining_count"`
	} `json:"order"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}
