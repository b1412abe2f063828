package models

import "time"

// Order represents a simulated trading order.
// Once created an order is immutable except for Status (via cancel or the
// simulated fill) and the fields explicitly carried by an OrderModification.
type Order struct {
	ID           string
	Symbol       string
	Side         OrderSide
	Type         OrderType
	Product      ProductType
	Quantity     int
	Price        float64
	TriggerPrice float64
	Status       OrderStatus
	PlacedAt     time.Time
}

// OrderRequest holds the caller-supplied fields of a new order.
// ID, status and timestamp are assigned by the store at placement.
type OrderRequest struct {
	Symbol       string
	Side         OrderSide
	Type         OrderType
	Product      ProductType
	Quantity     int
	Price        float64
	TriggerPrice float64
}

// OrderModification carries the fields that may be changed on an open order.
// Nil fields are left untouched.
type OrderModification struct {
	Quantity     *int
	Price        *float64
	TriggerPrice *float64
}

// Position represents an open simulated position. At most one position
// exists per symbol; size is unsigned with direction carried by the UI layer.
// PnL fields are externally supplied; the store never marks to market.
type Position struct {
	Symbol        string
	Product       ProductType
	Quantity      int
	AveragePrice  float64
	PnL           float64
	UnrealizedPnL float64
}

// Value returns the notional value of the position at its entry price.
func (p Position) Value() float64 {
	return float64(p.Quantity) * p.AveragePrice
}

// AccountSummary is the derived account/risk aggregate.
type AccountSummary struct {
	Balance         float64
	MarginUsed      float64
	AvailableMargin float64
	RiskLevel       RiskLevel
}
