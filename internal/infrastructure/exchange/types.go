package exchange

// Wire types for the Hyperliquid REST API. Field order matters on the action
// structs: the signature covers the msgpack encoding, which follows struct
// declaration order, and the venue rejects signatures over reordered fields.

type limitWire struct {
	Tif string `msgpack:"tif" json:"tif"`
}

type orderTypeWire struct {
	Limit limitWire `msgpack:"limit" json:"limit"`
}

type orderWire struct {
	Asset      int           `msgpack:"a" json:"a"`
	IsBuy      bool          `msgpack:"b" json:"b"`
	Price      string        `msgpack:"p" json:"p"`
	Size       string        `msgpack:"s" json:"s"`
	ReduceOnly bool          `msgpack:"r" json:"r"`
	Type       orderTypeWire `msgpack:"t" json:"t"`
}

type orderAction struct {
	Type     string      `msgpack:"type" json:"type"`
	Orders   []orderWire `msgpack:"orders" json:"orders"`
	Grouping string      `msgpack:"grouping" json:"grouping"`
}

type cancelWire struct {
	Asset int   `msgpack:"a" json:"a"`
	Oid   int64 `msgpack:"o" json:"o"`
}

type cancelAction struct {
	Type    string       `msgpack:"type" json:"type"`
	Cancels []cancelWire `msgpack:"cancels" json:"cancels"`
}

type updateLeverageAction struct {
	Type     string `msgpack:"type" json:"type"`
	Asset    int    `msgpack:"asset" json:"asset"`
	IsCross  bool   `msgpack:"isCross" json:"isCross"`
	Leverage int    `msgpack:"leverage" json:"leverage"`
}

// exchangeRequest is the signed envelope POSTed to /exchange.
type exchangeRequest struct {
	Action       any        `json:"action"`
	Nonce        uint64     `json:"nonce"`
	Signature    *signature `json:"signature"`
	VaultAddress string     `json:"vaultAddress,omitempty"`
}

// exchangeResponse is the envelope returned by /exchange. Top-level status is
// "ok" or "err"; per-order results live in response.data.statuses.
type exchangeResponse struct {
	Status   string `json:"status"`
	Response struct {
		Type string `json:"type"`
		Data struct {
			Statuses []orderStatusWire `json:"statuses"`
		} `json:"data"`
	} `json:"response"`
}

// orderStatusWire carries exactly one of resting/filled/error per item.
type orderStatusWire struct {
	Resting *struct {
		Oid int64 `json:"oid"`
	} `json:"resting,omitempty"`
	Filled *struct {
		Oid     int64  `json:"oid"`
		AvgPx   string `json:"avgPx"`
		TotalSz string `json:"totalSz"`
	} `json:"filled,omitempty"`
	Error string `json:"error,omitempty"`
}

// Info endpoint payloads.

type infoRequest struct {
	Type string `json:"type"`
	User string `json:"user,omitempty"`
}

type assetMetaWire struct {
	Name         string `json:"name"`
	SzDecimals   int    `json:"szDecimals"`
	MaxLeverage  int    `json:"maxLeverage"`
	OnlyIsolated bool   `json:"onlyIsolated,omitempty"`
}

type assetCtxWire struct {
	MidPx        string   `json:"midPx"`
	MarkPx       string   `json:"markPx"`
	OraclePx     string   `json:"oraclePx"`
	Funding      string   `json:"funding"`
	ImpactPxs    []string `json:"impactPxs"`
	Premium      string   `json:"premium"`
	OpenInterest string   `json:"openInterest"`
	DayNtlVlm    string   `json:"dayNtlVlm"`
}

type clearinghouseStateWire struct {
	Withdrawable string `json:"withdrawable"`
}
