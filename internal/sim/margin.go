package sim

import (
	"paper-trader/internal/models"
)

// CalculateMargin recomputes margin used as MarginRate times total position
// notional (sum of quantity x average price), refreshes available margin and
// the risk level, and returns margin used. This is a pull-based
// recomputation: position and order mutations do not trigger it, callers
// refresh the risk fields explicitly.
func (s *Store) CalculateMargin() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recalculateMargin()
	return s.marginUsed
}

// recalculateMargin refreshes the derived margin/risk fields.
// Caller must hold the lock.
func (s *Store) recalculateMargin() {
	var notional float64
	for _, pos := range s.positions {
		notional += pos.Value()
	}

	s.marginUsed = s.cfg.MarginRate * notional
	s.availableMargin = s.balance - s.marginUsed
	s.riskLevel = classifyRisk(s.availableMargin, s.balance, s.cfg)
}

// classifyRisk buckets available margin relative to total balance.
func classifyRisk(available, balance float64, cfg Config) models.RiskLevel {
	switch {
	case available < cfg.HighRiskThreshold*balance:
		return models.RiskHigh
	case available < cfg.MediumRiskThreshold*balance:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// Balance returns the current cash balance.
func (s *Store) Balance() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balance
}

// MarginUsed returns margin used as of the last CalculateMargin call.
func (s *Store) MarginUsed() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.marginUsed
}

// AvailableMargin returns available margin as of the last CalculateMargin call.
func (s *Store) AvailableMargin() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.availableMargin
}

// RiskLevel returns the risk level as of the last CalculateMargin call.
func (s *Store) RiskLevel() models.RiskLevel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.riskLevel
}

// Account returns the derived account aggregate as of the last
// CalculateMargin call.
func (s *Store) Account() models.AccountSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.AccountSummary{
		Balance:         s.balance,
		MarginUsed:      s.marginUsed,
		AvailableMargin: s.availableMargin,
		RiskLevel:       s.riskLevel,
	}
}

// Orders returns a copy of all orders in placement order.
func (s *Store) Orders() []models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, *o)
	}
	return out
}

// Order returns a copy of the order with the given ID.
func (s *Store) Order(orderID string) (models.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if o := s.findOrder(orderID); o != nil {
		return *o, true
	}
	return models.Order{}, false
}

// Positions returns a copy of all open positions.
func (s *Store) Positions() []models.Position {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Position, 0, len(s.positions))
	for _, p := range s.positions {
		out = append(out, *p)
	}
	return out
}

// Position returns a copy of the position for the symbol.
func (s *Store) Position(symbol string) (models.Position, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.positions {
		if p.Symbol == symbol {
			return *p, true
		}
	}
	return models.Position{}, false
}

// TradeHistory returns a copy of every order ever placed, including orders
// placed before the last account reset.
func (s *Store) TradeHistory() []models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Order, 0, len(s.history))
	for _, o := range s.history {
		out = append(out, *o)
	}
	return out
}
