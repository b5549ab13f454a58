package polymarket

// gammaMarket is one element of the Gamma API's /markets array response:
// conditionId, question, slug, category, closed, volumeNum, plus two
// JSON-stringified fields (clobTokenIds, outcomePrices) that must be
// unmarshaled a second time.
type gammaMarket struct {
	ConditionID   string `json:"conditionId"`
	Question      string `json:"question"`
	Slug          string `json:"slug"`
	Category      string `json:"category"`
	Closed        bool   `json:"closed"`
	VolumeNum     float64 `json:"volumeNum"`
	ClobTokenIDs  string `json:"clobTokenIds"`  // JSON-stringified []string, len 2
	OutcomePrices string `json:"outcomePrices"` // JSON-stringified []string, len 2
}

// clobBookLevel is one {price,size} entry in the CLOB book response, both
// quoted as decimal strings in [0,1].
type clobBookLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// clobBookResponse is GET /book?token_id=ID's response shape.
type clobBookResponse struct {
	Bids []clobBookLevel `json:"bids"`
	Asks []clobBookLevel `json:"asks"`
}

// clobOrderRequest is the body of POST /order. Signature is the EIP-712
// maker signature over the order intent (go-order-utils); the HMAC headers
// authenticate the API call itself, a separate layer from the order signature.
type clobOrderRequest struct {
	TokenID   string  `json:"tokenID"`
	Side      string  `json:"side"` // BUY | SELL
	Price     float64 `json:"price"`
	Size      float64 `json:"size"`
	Type      string  `json:"type"` // GTC
	Maker     string  `json:"maker,omitempty"`
	Signer    string  `json:"signer,omitempty"`
	Signature string  `json:"signature,omitempty"`
}

// clobOrderResponse is POST /order's success/failure response.
type clobOrderResponse struct {
	Success   bool   `json:"success"`
	OrderID   string `json:"orderID"`
	ErrorMsg  string `json:"errorMsg"`
	Status    string `json:"status"`
}

// clobOrderStatusResponse is GET /data/order/{id}'s response shape. Sizes
// come back as decimal strings like the book levels do.
type clobOrderStatusResponse struct {
	OrderID      string `json:"id"`
	Status       string `json:"status"`
	SizeMatched  string `json:"size_matched"`
	OriginalSize string `json:"original_size"`
}
