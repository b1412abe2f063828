// Package sim provides the paper trading simulation store.
package sim

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	apperrors "paper-trader/internal/errors"
	"paper-trader/internal/models"
)

// Config holds simulation parameters.
type Config struct {
	// InitialBalance is the cash balance a fresh or reset account starts with.
	InitialBalance float64
	// FillDelay is how long a placed order stays OPEN before the simulated
	// fill transitions it to EXECUTED.
	FillDelay time.Duration
	// MarginRate is the fraction of total position notional reserved as margin.
	MarginRate float64
	// MediumRiskThreshold and HighRiskThreshold classify available margin
	// relative to balance: below High*balance is HIGH, below Medium*balance
	// is MEDIUM, otherwise LOW.
	MediumRiskThreshold float64
	HighRiskThreshold   float64
}

// DefaultConfig returns the default simulation parameters.
func DefaultConfig() Config {
	return Config{
		InitialBalance:      100000,
		FillDelay:           2 * time.Second,
		MarginRate:          0.20,
		MediumRiskThreshold: 0.6,
		HighRiskThreshold:   0.3,
	}
}

// Store maintains a self-consistent simulated trading account: cash balance,
// open orders, trade history and open positions. It is safe for concurrent
// use; all mutations are atomic under a single lock. Construct one per
// session and pass it by reference; there is no package-level instance.
type Store struct {
	cfg    Config
	logger zerolog.Logger

	mu        sync.RWMutex
	balance   float64
	orders    []*models.Order
	history   []*models.Order
	positions []*models.Position

	marginUsed      float64
	availableMargin float64
	riskLevel       models.RiskLevel

	orderCounter int
	timers       map[string]*time.Timer
	closed       bool
}

// NewStore creates a new simulation store with the given parameters.
func NewStore(cfg Config, logger zerolog.Logger) *Store {
	if cfg.InitialBalance == 0 {
		cfg.InitialBalance = DefaultConfig().InitialBalance
	}
	if cfg.FillDelay == 0 {
		cfg.FillDelay = DefaultConfig().FillDelay
	}
	if cfg.MarginRate == 0 {
		cfg.MarginRate = DefaultConfig().MarginRate
	}
	if cfg.MediumRiskThreshold == 0 {
		cfg.MediumRiskThreshold = DefaultConfig().MediumRiskThreshold
	}
	if cfg.HighRiskThreshold == 0 {
		cfg.HighRiskThreshold = DefaultConfig().HighRiskThreshold
	}

	return &Store{
		cfg:             cfg,
		logger:          logger,
		balance:         cfg.InitialBalance,
		availableMargin: cfg.InitialBalance,
		riskLevel:       models.RiskLow,
		timers:          make(map[string]*time.Timer),
	}
}

// PlaceOrder validates the request, assigns a fresh order ID, records the
// order as OPEN in both the order book and the trade history, and schedules
// the simulated fill. The returned order is a copy.
func (s *Store) PlaceOrder(req models.OrderRequest) (*models.Order, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.orderCounter++
	order := &models.Order{
		ID:           fmt.Sprintf("PAPER_%d_%d", time.Now().Unix(), s.orderCounter),
		Symbol:       req.Symbol,
		Side:         req.Side,
		Type:         req.Type,
		Product:      req.Product,
		Quantity:     req.Quantity,
		Price:        req.Price,
		TriggerPrice: req.TriggerPrice,
		Status:       models.OrderStatusOpen,
		PlacedAt:     time.Now(),
	}

	// The same record backs both collections, so the audit trail reflects
	// later status transitions just like the live order book.
	s.orders = append(s.orders, order)
	s.history = append(s.history, order)

	if !s.closed {
		id := order.ID
		s.timers[id] = time.AfterFunc(s.cfg.FillDelay, func() {
			s.fill(id)
		})
	}

	s.logger.Info().
		Str("order_id", order.ID).
		Str("symbol", order.Symbol).
		Str("side", string(order.Side)).
		Int("quantity", order.Quantity).
		Msg("Order placed")

	cp := *order
	return &cp, nil
}

// fill is the delayed simulated execution. The transition is guarded: it
// only fires if the order is still OPEN, so a cancel that lands first wins.
func (s *Store) fill(orderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.timers, orderID)

	order := s.findOrder(orderID)
	if order == nil || order.Status != models.OrderStatusOpen {
		return
	}
	order.Status = models.OrderStatusExecuted

	s.logger.Info().
		Str("order_id", orderID).
		Str("symbol", order.Symbol).
		Msg("Order executed")
}

// CancelOrder transitions an OPEN order to CANCELLED.
func (s *Store) CancelOrder(orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order := s.findOrder(orderID)
	if order == nil {
		return apperrors.NewOrderError(orderID, "cancel", apperrors.ErrOrderNotFound)
	}
	if order.Status.Terminal() {
		return apperrors.NewOrderError(orderID, "cancel", apperrors.ErrOrderTerminal)
	}

	order.Status = models.OrderStatusCancelled
	if t, ok := s.timers[orderID]; ok {
		t.Stop()
		delete(s.timers, orderID)
	}

	s.logger.Info().Str("order_id", orderID).Msg("Order cancelled")
	return nil
}

// ModifyOrder merges the non-nil modification fields into an OPEN order.
func (s *Store) ModifyOrder(orderID string, mod models.OrderModification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order := s.findOrder(orderID)
	if order == nil {
		return apperrors.NewOrderError(orderID, "modify", apperrors.ErrOrderNotFound)
	}
	if order.Status.Terminal() {
		return apperrors.NewOrderError(orderID, "modify", apperrors.ErrOrderTerminal)
	}

	if mod.Quantity != nil {
		if *mod.Quantity <= 0 {
			return &apperrors.ValidationError{Field: "quantity", Message: "must be positive"}
		}
		order.Quantity = *mod.Quantity
	}
	if mod.Price != nil {
		order.Price = *mod.Price
	}
	if mod.TriggerPrice != nil {
		order.TriggerPrice = *mod.TriggerPrice
	}

	s.logger.Info().Str("order_id", orderID).Msg("Order modified")
	return nil
}

// UpdatePosition merges the given position into the existing entry for its
// symbol, or appends it as new. The incoming fields win wholesale; the store
// performs no weighted-average recomputation; callers supply the computed
// AveragePrice and Quantity.
func (s *Store) UpdatePosition(pos models.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.positions {
		if existing.Symbol == pos.Symbol {
			*existing = pos
			return
		}
	}
	cp := pos
	s.positions = append(s.positions, &cp)
}

// ClosePosition removes the position for the symbol entirely. No realized
// PnL record is created.
func (s *Store) ClosePosition(symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, pos := range s.positions {
		if pos.Symbol == symbol {
			s.positions = append(s.positions[:i], s.positions[i+1:]...)
			s.logger.Info().Str("symbol", symbol).Msg("Position closed")
			return nil
		}
	}
	return fmt.Errorf("close %s: %w", symbol, apperrors.ErrPositionNotFound)
}

// SetBalance overwrites the cash balance unconditionally. Margin and risk
// fields are not refreshed; call CalculateMargin for that.
func (s *Store) SetBalance(balance float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balance = balance
}

// ResetBalance restores the account to its starting state: default balance,
// no positions, no orders, zero margin used, LOW risk. The trade history is
// an audit trail of every order ever placed and survives the reset.
func (s *Store) ResetBalance() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}

	s.balance = s.cfg.InitialBalance
	s.orders = nil
	s.positions = nil
	s.marginUsed = 0
	s.availableMargin = s.balance
	s.riskLevel = models.RiskLow

	s.logger.Info().Float64("balance", s.balance).Msg("Account reset")
}

// Close stops all pending fill timers. Orders left OPEN stay OPEN; a torn
// down session never fills.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

// findOrder returns the live order record for the ID, or nil.
// Caller must hold the lock.
func (s *Store) findOrder(orderID string) *models.Order {
	for _, o := range s.orders {
		if o.ID == orderID {
			return o
		}
	}
	return nil
}

func validateRequest(req models.OrderRequest) error {
	if req.Symbol == "" {
		return &apperrors.ValidationError{Field: "symbol", Message: "must not be empty"}
	}
	if req.Quantity <= 0 {
		return &apperrors.ValidationError{Field: "quantity", Message: "must be positive"}
	}
	switch req.Side {
	case models.OrderSideBuy, models.OrderSideSell:
	default:
		return &apperrors.ValidationError{Field: "side", Message: "must be BUY or SELL"}
	}
	switch req.Type {
	case models.OrderTypeMarket, models.OrderTypeLimit, models.OrderTypeStopLoss, models.OrderTypeStopLossM:
	default:
		return &apperrors.ValidationError{Field: "type", Message: "must be MARKET, LIMIT, SL or SL-M"}
	}
	if req.Type.RequiresPrice() && req.Price <= 0 {
		return &apperrors.ValidationError{Field: "price", Message: fmt.Sprintf("required for %s orders", req.Type)}
	}
	if req.Type.RequiresTrigger() && req.TriggerPrice <= 0 {
		return &apperrors.ValidationError{Field: "trigger_price", Message: fmt.Sprintf("required for %s orders", req.Type)}
	}
	return nil
}
