package domain

// MarketContext is the live market snapshot fetched immediately before every
// order. It is never cached across requests: leverage caps and tick sizes can
// change between webhooks, and a stale snapshot is worse than the extra fetch.
type MarketContext struct {
	Symbol           string
	MidPrice         float64
	MarkPrice        float64
	OraclePrice      float64
	Funding          float64
	ImpactBuyPrice   float64
	ImpactSellPrice  float64
	MaxLeverage      int
	SzDecimals       int
	AvailableBalance float64
}
