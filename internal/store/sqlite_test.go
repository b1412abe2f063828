package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paper-trader/internal/models"
	"paper-trader/internal/sim"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *SQLiteStore {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "paper-trader-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")
	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	t.Cleanup(func() {
		s.Close()
		os.RemoveAll(tmpDir)
	})
	return s
}

func sampleSnapshot() *sim.Snapshot {
	placed := time.Date(2025, 6, 2, 10, 15, 0, 0, time.UTC)
	open := models.Order{
		ID:       "PAPER_1_1",
		Symbol:   "RELIANCE",
		Side:     models.OrderSideBuy,
		Type:     models.OrderTypeLimit,
		Product:  models.ProductMIS,
		Quantity: 10,
		Price:    2850.5,
		Status:   models.OrderStatusOpen,
		PlacedAt: placed,
	}
	executed := models.Order{
		ID:       "PAPER_1_2",
		Symbol:   "TCS",
		Side:     models.OrderSideSell,
		Type:     models.OrderTypeMarket,
		Product:  models.ProductNRML,
		Quantity: 5,
		Status:   models.OrderStatusExecuted,
		PlacedAt: placed.Add(time.Minute),
	}

	return &sim.Snapshot{
		Balance:         75000,
		MarginUsed:      5701,
		AvailableMargin: 69299,
		RiskLevel:       models.RiskLow,
		Orders:          []models.Order{open, executed},
		TradeHistory:    []models.Order{open, executed},
		Positions: []models.Position{
			{Symbol: "RELIANCE", Product: models.ProductMIS, Quantity: 10, AveragePrice: 2850.5, PnL: 120},
		},
	}
}

func TestSQLiteStore_LoadEmpty(t *testing.T) {
	s := setupTestDB(t)

	snap, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snap, "fresh database must load a nil snapshot")
}

func TestSQLiteStore_SaveAndLoad(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleSnapshot()))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, 75000.0, loaded.Balance)
	assert.Equal(t, 5701.0, loaded.MarginUsed)
	assert.Equal(t, models.RiskLow, loaded.RiskLevel)

	require.Len(t, loaded.Orders, 2)
	assert.Equal(t, "PAPER_1_1", loaded.Orders[0].ID)
	assert.Equal(t, models.OrderStatusOpen, loaded.Orders[0].Status)
	assert.Equal(t, models.OrderTypeLimit, loaded.Orders[0].Type)
	assert.Equal(t, 2850.5, loaded.Orders[0].Price)

	require.Len(t, loaded.TradeHistory, 2)
	assert.Equal(t, models.OrderStatusExecuted, loaded.TradeHistory[1].Status)

	require.Len(t, loaded.Positions, 1)
	assert.Equal(t, "RELIANCE", loaded.Positions[0].Symbol)
	assert.Equal(t, 10, loaded.Positions[0].Quantity)
	assert.Equal(t, 120.0, loaded.Positions[0].PnL)
}

func TestSQLiteStore_SaveReplacesPrevious(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleSnapshot()))

	// A reset account: empty book, history retained.
	snap := sampleSnapshot()
	snap.Balance = 100000
	snap.MarginUsed = 0
	snap.AvailableMargin = 100000
	snap.Orders = nil
	snap.Positions = nil
	require.NoError(t, s.Save(ctx, snap))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, 100000.0, loaded.Balance)
	assert.Empty(t, loaded.Orders)
	assert.Empty(t, loaded.Positions)
	assert.Len(t, loaded.TradeHistory, 2, "audit trail persists across resets")
}

func TestSQLiteStore_GetTradeHistory(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleSnapshot()))

	all, err := s.GetTradeHistory(ctx, TradeFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	bySymbol, err := s.GetTradeHistory(ctx, TradeFilter{Symbol: "TCS"})
	require.NoError(t, err)
	require.Len(t, bySymbol, 1)
	assert.Equal(t, "PAPER_1_2", bySymbol[0].ID)

	byStatus, err := s.GetTradeHistory(ctx, TradeFilter{Status: models.OrderStatusOpen})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "PAPER_1_1", byStatus[0].ID)

	limited, err := s.GetTradeHistory(ctx, TradeFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	cutoff := time.Date(2025, 6, 2, 10, 15, 30, 0, time.UTC)
	recent, err := s.GetTradeHistory(ctx, TradeFilter{From: cutoff})
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "PAPER_1_2", recent[0].ID)
}

func TestSQLiteStore_RoundTripWithSimStore(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	src := sim.NewStore(sim.Config{InitialBalance: 50000, FillDelay: time.Minute}, zerolog.Nop())
	defer src.Close()

	_, err := src.PlaceOrder(models.OrderRequest{
		Symbol:   "INFY",
		Side:     models.OrderSideBuy,
		Type:     models.OrderTypeMarket,
		Product:  models.ProductMIS,
		Quantity: 3,
	})
	require.NoError(t, err)
	src.UpdatePosition(models.Position{Symbol: "INFY", Product: models.ProductMIS, Quantity: 3, AveragePrice: 1500})
	src.CalculateMargin()

	require.NoError(t, s.Save(ctx, src.Snapshot()))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	dst := sim.NewStore(sim.Config{InitialBalance: 50000, FillDelay: time.Minute}, zerolog.Nop())
	defer dst.Close()
	dst.Restore(loaded)

	assert.Equal(t, src.Balance(), dst.Balance())
	assert.Equal(t, src.MarginUsed(), dst.MarginUsed())
	assert.Len(t, dst.Orders(), 1)
	assert.Len(t, dst.Positions(), 1)
}
