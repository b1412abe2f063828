package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"paper-trader/internal/models"
	"paper-trader/internal/store"
)

// addHistoryCommands adds trade history commands.
func addHistoryCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newHistoryCmd(app))
}

// historyRow is the CSV export shape for a trade history entry.
type historyRow struct {
	OrderID      string  `csv:"order_id"`
	Symbol       string  `csv:"symbol"`
	Side         string  `csv:"side"`
	Type         string  `csv:"type"`
	Product      string  `csv:"product"`
	Quantity     int     `csv:"quantity"`
	Price        float64 `csv:"price"`
	TriggerPrice float64 `csv:"trigger_price"`
	Status       string  `csv:"status"`
	PlacedAt     string  `csv:"placed_at"`
}

func newHistoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the trade history audit trail",
		Long: `Show every order ever placed, including orders placed before account
resets. The persisted history supports filtering; the in-memory store is
used as a fallback when persistence is unavailable.`,
		Example: `  trader history
  trader history --symbol RELIANCE --status EXECUTED
  trader history --export trades.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			symbol, _ := cmd.Flags().GetString("symbol")
			status, _ := cmd.Flags().GetString("status")
			limit, _ := cmd.Flags().GetInt("limit")
			export, _ := cmd.Flags().GetString("export")

			history, err := app.loadHistory(symbol, status, limit)
			if err != nil {
				output.Error("History query failed: %v", err)
				return err
			}

			if export != "" {
				if err := exportHistoryCSV(export, history); err != nil {
					output.Error("Export failed: %v", err)
					return err
				}
				output.Success("✓ Exported %d entries to %s", len(history), export)
				return nil
			}

			if output.IsJSON() {
				return output.JSON(history)
			}

			if len(history) == 0 {
				output.Dim("No trade history.")
				return nil
			}

			output.Bold("%-26s %-10s %-4s %-8s %5s %12s %-9s %s",
				"ORDER ID", "SYMBOL", "SIDE", "TYPE", "QTY", "PRICE", "STATUS", "PLACED")
			for _, o := range history {
				output.Printf("%-26s %-10s %-4s %-8s %5d %12s %-9s %s\n",
					o.ID, o.Symbol, o.Side, o.Type, o.Quantity,
					formatOrderPrice(o), o.Status, o.PlacedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}

	cmd.Flags().String("symbol", "", "Filter by symbol")
	cmd.Flags().String("status", "", "Filter by status (OPEN, EXECUTED, CANCELLED)")
	cmd.Flags().Int("limit", 0, "Limit the number of entries")
	cmd.Flags().String("export", "", "Export to a CSV file instead of printing")

	return cmd
}

func (app *App) loadHistory(symbol, status string, limit int) ([]models.Order, error) {
	if app.Snapshots != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return app.Snapshots.GetTradeHistory(ctx, store.TradeFilter{
			Symbol: strings.ToUpper(symbol),
			Status: models.OrderStatus(strings.ToUpper(status)),
			Limit:  limit,
		})
	}

	// In-memory fallback.
	var out []models.Order
	for _, o := range app.Sim.TradeHistory() {
		if symbol != "" && o.Symbol != strings.ToUpper(symbol) {
			continue
		}
		if status != "" && o.Status != models.OrderStatus(strings.ToUpper(status)) {
			continue
		}
		out = append(out, o)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func exportHistoryCSV(path string, history []models.Order) error {
	rows := make([]historyRow, 0, len(history))
	for _, o := range history {
		rows = append(rows, historyRow{
			OrderID:      o.ID,
			Symbol:       o.Symbol,
			Side:         string(o.Side),
			Type:         string(o.Type),
			Product:      string(o.Product),
			Quantity:     o.Quantity,
			Price:        o.Price,
			TriggerPrice: o.TriggerPrice,
			Status:       string(o.Status),
			PlacedAt:     o.PlacedAt.Format(time.RFC3339),
		})
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	return gocsv.MarshalFile(&rows, f)
}
