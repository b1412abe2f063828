package feed

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"paper-trader/internal/models"
)

// MockFeedConfig holds configuration for the simulated feed.
type MockFeedConfig struct {
	// Interval between ticks per symbol.
	Interval time.Duration
	// BasePrice seeds the random walk for symbols with no explicit price.
	BasePrice float64
	// Volatility is the maximum fractional move per tick.
	Volatility float64
	// Seed makes the walk reproducible; 0 seeds from the clock.
	Seed int64
}

// DefaultMockFeedConfig returns the default mock feed configuration.
func DefaultMockFeedConfig() MockFeedConfig {
	return MockFeedConfig{
		Interval:   time.Second,
		BasePrice:  1000,
		Volatility: 0.002,
	}
}

// MockFeed generates random-walk prices for subscribed symbols. It stands in
// for real exchange connectivity, which this application deliberately lacks.
type MockFeed struct {
	cfg MockFeedConfig

	mu      sync.RWMutex
	prices  map[string]float64
	handler PriceCallback
	rng     *rand.Rand
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// NewMockFeed creates a new simulated price feed.
func NewMockFeed(cfg MockFeedConfig) *MockFeed {
	if cfg.Interval == 0 {
		cfg.Interval = DefaultMockFeedConfig().Interval
	}
	if cfg.BasePrice == 0 {
		cfg.BasePrice = DefaultMockFeedConfig().BasePrice
	}
	if cfg.Volatility == 0 {
		cfg.Volatility = DefaultMockFeedConfig().Volatility
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &MockFeed{
		cfg:    cfg,
		prices: make(map[string]float64),
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Subscribe registers symbols for tick generation. May be called before or
// after Start.
func (f *MockFeed) Subscribe(symbols []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range symbols {
		if _, ok := f.prices[s]; !ok {
			f.prices[s] = f.cfg.BasePrice
		}
	}
	return nil
}

// SetPrice pins the current price for a symbol.
func (f *MockFeed) SetPrice(symbol string, price float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prices[symbol] = price
}

// OnTick registers the tick handler.
func (f *MockFeed) OnTick(handler PriceCallback) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = handler
}

// Start launches the tick generation loop.
func (f *MockFeed) Start(ctx context.Context) error {
	f.mu.Lock()
	if f.started {
		f.mu.Unlock()
		return nil
	}
	f.started = true
	ctx, f.cancel = context.WithCancel(ctx)
	f.done = make(chan struct{})
	f.mu.Unlock()

	go f.loop(ctx)
	return nil
}

// Stop terminates tick generation.
func (f *MockFeed) Stop() error {
	f.mu.Lock()
	if !f.started {
		f.mu.Unlock()
		return nil
	}
	f.started = false
	cancel := f.cancel
	done := f.done
	f.mu.Unlock()

	cancel()
	<-done
	return nil
}

func (f *MockFeed) loop(ctx context.Context) {
	defer close(f.done)

	ticker := time.NewTicker(f.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.emit()
		}
	}
}

func (f *MockFeed) emit() {
	f.mu.Lock()
	handler := f.handler
	ticks := make([]models.Tick, 0, len(f.prices))
	for symbol, price := range f.prices {
		// Random walk around the last price.
		move := (f.rng.Float64()*2 - 1) * f.cfg.Volatility
		next := price * (1 + move)
		if next <= 0 {
			next = price
		}
		f.prices[symbol] = next
		ticks = append(ticks, models.Tick{
			Symbol:    symbol,
			LTP:       next,
			Timestamp: time.Now(),
		})
	}
	f.mu.Unlock()

	if handler == nil {
		return
	}
	for _, t := range ticks {
		handler(t)
	}
}

// Ensure MockFeed implements Feed
var _ Feed = (*MockFeed)(nil)
