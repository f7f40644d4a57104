package domain

import (
	"strings"
	"time"
)

// Alert is the typed TradingView webhook payload. Numeric fields arrive as
// JSON strings or numbers depending on how the alert template is written, so
// they are kept as strings here and parsed at the point of use.
type Alert struct {
	General    AlertGeneral    `json:"general"`
	SymbolData AlertSymbolData `json:"symbol_data"`
	Currency   AlertCurrency   `json:"currency"`
	Order      AlertOrder      `json:"order"`
	Market     AlertMarket     `json:"market"`
}

type AlertGeneral struct {
	Strategy string    `json:"strategy,omitempty"`
	Ticker   string    `json:"ticker"`
	Exchange string    `json:"exchange"`
	Interval string    `json:"interval"`
	Time     time.Time `json:"time"`
	TimeNow  time.Time `json:"timenow"`
	Secret   string    `json:"secret,omitempty"`
	Leverage string    `json:"leverage,omitempty"`
}

type AlertSymbolData struct {
	Open   FlexFloat `json:"open"`
	Close  FlexFloat `json:"close"`
	High   FlexFloat `json:"high"`
	Low    FlexFloat `json:"low"`
	Volume FlexFloat `json:"volume"`
}

type AlertCurrency struct {
	Quote string `json:"quote"`
	Base  string `json:"base"`
}

type AlertOrder struct {
	Action       string    `json:"action"`
	Contracts    FlexFloat `json:"contracts"`
	Price        FlexFloat `json:"price"`
	ID           string    `json:"id"`
	Comment      string    `json:"comment,omitempty"`
	AlertMessage string    `json:"alert_message,omitempty"`
}

type AlertMarket struct {
	Position             string    `json:"position"`
	PositionSize         FlexFloat `json:"position_size"`
	PreviousPosition     string    `json:"previous_position"`
	PreviousPositionSize FlexFloat `json:"previous_position_size"`
}

// Validate mirrors the webhook JSON schema: required fields present, action
// and position values within their enums. Position strings are checked
// leniently elsewhere; here only structural requirements are enforced.
func (a *Alert) Validate() error {
	if strings.TrimSpace(a.General.Ticker) == "" {
		return NewValidationError("general.ticker is required")
	}
	if strings.TrimSpace(a.General.Exchange) == "" {
		return NewValidationError("general.exchange is required")
	}
	if strings.TrimSpace(a.General.Interval) == "" {
		return NewValidationError("general.interval is required")
	}
	if a.General.Time.IsZero() || a.General.TimeNow.IsZero() {
		return NewValidationError("general.time and general.timenow are required")
	}
	switch strings.ToLower(a.Order.Action) {
	case "buy", "sell":
	default:
		return NewValidationError("order.action must be buy or sell, got %q", a.Order.Action)
	}
	if strings.TrimSpace(a.Order.ID) == "" {
		return NewValidationError("order.id is required")
	}
	if a.Market.Position == "" || a.Market.PreviousPosition == "" {
		return NewValidationError("market.position and market.previous_position are required")
	}
	return nil
}

// Symbol returns the uppercased ticker used as the exchange symbol.
func (a *Alert) Symbol() string {
	return strings.ToUpper(strings.TrimSpace(a.General.Ticker))
}
