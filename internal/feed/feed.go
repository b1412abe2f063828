// Package feed provides simulated and remote market data sources.
package feed

import (
	"context"

	"paper-trader/internal/models"
)

// PriceCallback is called for every tick a feed produces.
type PriceCallback func(tick models.Tick)

// Feed defines the market data capability the application consumes. Prices
// are display inputs only: the simulation store never reads a feed itself,
// collaborators push derived values (PnL) into it.
type Feed interface {
	Start(ctx context.Context) error
	Stop() error
	Subscribe(symbols []string) error
	OnTick(handler PriceCallback)
}
