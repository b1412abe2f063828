package feed

import (
	"paper-trader/internal/models"
	"paper-trader/internal/sim"
)

// Marker pushes mark-to-market PnL into the simulation store as ticks
// arrive. The store itself never computes PnL from prices, so some
// collaborator has to.
type Marker struct {
	store *sim.Store
}

// NewMarker creates a marker bound to a simulation store.
func NewMarker(store *sim.Store) *Marker {
	return &Marker{store: store}
}

// HandleTick recomputes PnL for the position matching the tick's symbol, if
// any, and merges it back into the store.
func (m *Marker) HandleTick(tick models.Tick) {
	pos, ok := m.store.Position(tick.Symbol)
	if !ok {
		return
	}

	pnl := (tick.LTP - pos.AveragePrice) * float64(pos.Quantity)
	pos.PnL = pnl
	pos.UnrealizedPnL = pnl
	m.store.UpdatePosition(pos)
}
