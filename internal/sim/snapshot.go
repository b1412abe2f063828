package sim

import (
	"paper-trader/internal/models"
)

// Snapshot is a point-in-time copy of the full store state, suitable for
// handing to a persistence layer. The store itself never writes anywhere;
// the application decides when to snapshot and when to restore.
type Snapshot struct {
	Balance         float64
	MarginUsed      float64
	AvailableMargin float64
	RiskLevel       models.RiskLevel
	Orders          []models.Order
	TradeHistory    []models.Order
	Positions       []models.Position
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &Snapshot{
		Balance:         s.balance,
		MarginUsed:      s.marginUsed,
		AvailableMargin: s.availableMargin,
		RiskLevel:       s.riskLevel,
		Orders:          make([]models.Order, 0, len(s.orders)),
		TradeHistory:    make([]models.Order, 0, len(s.history)),
		Positions:       make([]models.Position, 0, len(s.positions)),
	}
	for _, o := range s.orders {
		snap.Orders = append(snap.Orders, *o)
	}
	for _, o := range s.history {
		snap.TradeHistory = append(snap.TradeHistory, *o)
	}
	for _, p := range s.positions {
		snap.Positions = append(snap.Positions, *p)
	}
	return snap
}

// Restore replaces the store state with the snapshot contents. Orders that
// were OPEN when the snapshot was taken stay OPEN: their fill timers died
// with the previous session and are not rescheduled.
func (s *Store) Restore(snap *Snapshot) {
	if snap == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}

	s.balance = snap.Balance
	s.marginUsed = snap.MarginUsed
	s.availableMargin = snap.AvailableMargin
	s.riskLevel = snap.RiskLevel
	if s.riskLevel == "" {
		s.riskLevel = models.RiskLow
	}

	s.orders = make([]*models.Order, 0, len(snap.Orders))
	for i := range snap.Orders {
		cp := snap.Orders[i]
		s.orders = append(s.orders, &cp)
	}
	s.history = make([]*models.Order, 0, len(snap.TradeHistory))
	for i := range snap.TradeHistory {
		cp := snap.TradeHistory[i]
		s.history = append(s.history, &cp)
	}
	s.positions = make([]*models.Position, 0, len(snap.Positions))
	for i := range snap.Positions {
		cp := snap.Positions[i]
		s.positions = append(s.positions, &cp)
	}

	// Keep new IDs from colliding with restored ones.
	if len(s.history) > s.orderCounter {
		s.orderCounter = len(s.history)
	}
}
