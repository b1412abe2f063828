// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"paper-trader/internal/models"
	"paper-trader/internal/sim"
)

// SnapshotStore defines the persistence interface for the simulation state.
// The simulation store itself never touches storage; the application layer
// loads once at startup and saves at mutation boundaries.
type SnapshotStore interface {
	// Load returns the last saved snapshot, or nil if none exists yet.
	Load(ctx context.Context) (*sim.Snapshot, error)
	// Save atomically replaces the stored snapshot.
	Save(ctx context.Context, snap *sim.Snapshot) error
	// GetTradeHistory returns persisted trade history entries matching the filter.
	GetTradeHistory(ctx context.Context, filter TradeFilter) ([]models.Order, error)
	// Close releases the underlying storage.
	Close() error
}

// TradeFilter narrows trade history queries. Zero values match everything.
type TradeFilter struct {
	Symbol string
	Status models.OrderStatus
	From   time.Time
	To     time.Time
	Limit  int
}
