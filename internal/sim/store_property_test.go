package sim

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"paper-trader/internal/models"
)

// Property: margin used is always MarginRate times total position notional,
// available margin is balance minus margin used, and the risk level matches
// the threshold definition, for any balance and any set of positions.
func TestProperty_MarginIsPureFunctionOfBalanceAndPositions(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	balanceGen := gen.Float64Range(1, 1e7)
	qtyGen := gen.IntRange(1, 500)
	priceGen := gen.Float64Range(0.05, 5000)
	countGen := gen.IntRange(0, 8)

	properties.Property("margin fields satisfy their defining formulas", prop.ForAll(
		func(balance float64, count, qty int, price float64) bool {
			s := newTestStore(time.Minute)
			defer s.Close()

			s.SetBalance(balance)

			var notional float64
			for i := 0; i < count; i++ {
				pos := models.Position{
					Symbol:       fmt.Sprintf("SYM%d", i),
					Quantity:     qty + i,
					AveragePrice: price,
				}
				s.UpdatePosition(pos)
				notional += pos.Value()
			}

			used := s.CalculateMargin()
			wantUsed := 0.2 * notional
			wantAvail := balance - wantUsed

			if math.Abs(used-wantUsed) > 1e-6 {
				return false
			}
			if math.Abs(s.AvailableMargin()-wantAvail) > 1e-6 {
				return false
			}

			switch s.RiskLevel() {
			case models.RiskHigh:
				return wantAvail < 0.3*balance
			case models.RiskMedium:
				return wantAvail >= 0.3*balance && wantAvail < 0.6*balance
			case models.RiskLow:
				return wantAvail >= 0.6*balance
			}
			return false
		},
		balanceGen, countGen, qtyGen, priceGen,
	))

	properties.TestingRun(t)
}

// Property: UpdatePosition is idempotent by symbol: any sequence of updates
// for one symbol leaves exactly one entry holding the last update's fields.
func TestProperty_UpdatePositionIdempotentBySymbol(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("one entry per symbol, last update wins", prop.ForAll(
		func(updates []int, price float64) bool {
			if len(updates) == 0 {
				return true
			}

			s := newTestStore(time.Minute)
			defer s.Close()

			for _, qty := range updates {
				s.UpdatePosition(models.Position{
					Symbol:       "TEST",
					Quantity:     qty,
					AveragePrice: price,
				})
			}

			positions := s.Positions()
			return len(positions) == 1 &&
				positions[0].Quantity == updates[len(updates)-1]
		},
		gen.SliceOf(gen.IntRange(1, 1000)),
		gen.Float64Range(0.05, 5000),
	))

	properties.TestingRun(t)
}

// Property: every structurally valid request produces an order that is OPEN
// immediately after placement and grows both the order book and the trade
// history by exactly one.
func TestProperty_ValidOrdersStartOpen(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	sideGen := gen.OneConstOf(models.OrderSideBuy, models.OrderSideSell)
	productGen := gen.OneConstOf(models.ProductMIS, models.ProductNRML)
	typeGen := gen.OneConstOf(
		models.OrderTypeMarket,
		models.OrderTypeLimit,
		models.OrderTypeStopLoss,
		models.OrderTypeStopLossM,
	)

	properties.Property("placement yields OPEN and appends to both collections", prop.ForAll(
		func(side models.OrderSide, product models.ProductType, typ models.OrderType, qty int, price float64) bool {
			s := newTestStore(time.Minute)
			defer s.Close()

			req := models.OrderRequest{
				Symbol:   "TEST",
				Side:     side,
				Type:     typ,
				Product:  product,
				Quantity: qty,
			}
			if typ.RequiresPrice() {
				req.Price = price
			}
			if typ.RequiresTrigger() {
				req.TriggerPrice = price
			}

			order, err := s.PlaceOrder(req)
			if err != nil {
				return false
			}
			return order.Status == models.OrderStatusOpen &&
				len(s.Orders()) == 1 &&
				len(s.TradeHistory()) == 1
		},
		sideGen, productGen, typeGen,
		gen.IntRange(1, 10000),
		gen.Float64Range(0.05, 100000),
	))

	properties.TestingRun(t)
}
