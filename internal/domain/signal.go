package domain

import "strings"

// PositionState is the position side reported by the alert source for a symbol.
type PositionState string

const (
	PositionFlat  PositionState = "flat"
	PositionLong  PositionState = "long"
	PositionShort PositionState = "short"
)

// Opposite returns the opposing exposure. Flat has no opposite and maps to itself.
func (p PositionState) Opposite() PositionState {
	switch p {
	case PositionLong:
		return PositionShort
	case PositionShort:
		return PositionLong
	}
	return p
}

// OrderSide returns the order side that opens this exposure
// (LONG opens with a buy, SHORT with a sell). False for flat.
func (p PositionState) OrderSide() (Side, bool) {
	switch p {
	case PositionLong:
		return SideBuy, true
	case PositionShort:
		return SideSell, true
	}
	return "", false
}

// OrderAction is the raw directional intent carried by the alert.
type OrderAction string

const (
	ActionBuy  OrderAction = "buy"
	ActionSell OrderAction = "sell"
)

// Side is the direction of an order submitted to the exchange.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// SignalKind is the normalized trading signal derived from a position transition.
type SignalKind string

const (
	SignalOpenLong       SignalKind = "OPEN_LONG"
	SignalCloseLong      SignalKind = "CLOSE_LONG"
	SignalOpenShort      SignalKind = "OPEN_SHORT"
	SignalCloseShort     SignalKind = "CLOSE_SHORT"
	SignalAddLong        SignalKind = "ADD_LONG"
	SignalReduceLong     SignalKind = "REDUCE_LONG"
	SignalAddShort       SignalKind = "ADD_SHORT"
	SignalReduceShort    SignalKind = "REDUCE_SHORT"
	SignalReverseToLong  SignalKind = "REVERSE_TO_LONG"
	SignalReverseToShort SignalKind = "REVERSE_TO_SHORT"
	SignalNoAction       SignalKind = "NO_ACTION"
)

// ParsePositionState maps a raw payload string to a PositionState.
// Unknown values degrade to flat; the second return reports whether the
// input was recognized so callers can log the degradation.
func ParsePositionState(s string) (PositionState, bool) {
	switch PositionState(strings.ToLower(strings.TrimSpace(s))) {
	case PositionFlat:
		return PositionFlat, true
	case PositionLong:
		return PositionLong, true
	case PositionShort:
		return PositionShort, true
	}
	return PositionFlat, false
}

// ParseOrderAction maps a raw payload string to an OrderAction.
// Unknown values are reported via the second return; the caller should
// treat them as no-action rather than failing the request.
func ParseOrderAction(s string) (OrderAction, bool) {
	switch OrderAction(strings.ToLower(strings.TrimSpace(s))) {
	case ActionBuy:
		return ActionBuy, true
	case ActionSell:
		return ActionSell, true
	}
	return "", false
}

// Classify maps a (previous, current, action) triple to a normalized signal.
// The function is total: any combination outside the transition table yields
// SignalNoAction, never an error.
func Classify(previous, current PositionState, action OrderAction) SignalKind {
	// Open / close transitions through flat.
	switch {
	case previous == PositionFlat && current == PositionLong && action == ActionBuy:
		return SignalOpenLong
	case previous == PositionLong && current == PositionFlat && action == ActionSell:
		return SignalCloseLong
	case previous == PositionFlat && current == PositionShort && action == ActionSell:
		return SignalOpenShort
	case previous == PositionShort && current == PositionFlat && action == ActionBuy:
		return SignalCloseShort
	}

	// Same-side scaling or partial closes.
	if previous == current && (current == PositionLong || current == PositionShort) {
		switch {
		case current == PositionLong && action == ActionBuy:
			return SignalAddLong
		case current == PositionLong && action == ActionSell:
			return SignalReduceLong
		case current == PositionShort && action == ActionSell:
			return SignalAddShort
		case current == PositionShort && action == ActionBuy:
			return SignalReduceShort
		}
	}

	// Reversals ignore the action.
	if previous == PositionShort && current == PositionLong {
		return SignalReverseToLong
	}
	if previous == PositionLong && current == PositionShort {
		return SignalReverseToShort
	}

	return SignalNoAction
}

// SignalSide maps a signal to the order side it implies. The second return
// is false for SignalNoAction, which carries no side.
func SignalSide(sig SignalKind) (Side, bool) {
	switch sig {
	case SignalOpenLong, SignalCloseShort, SignalAddLong, SignalReverseToLong, SignalReduceShort:
		return SideBuy, true
	case SignalOpenShort, SignalCloseLong, SignalAddShort, SignalReverseToShort, SignalReduceLong:
		return SideSell, true
	}
	return "", false
}
