package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"paper-trader/internal/models"
)

// addPositionCommands adds position book commands.
func addPositionCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newPositionsCmd(app))
	rootCmd.AddCommand(newClosePositionCmd(app))
	rootCmd.AddCommand(newUpdatePositionCmd(app))
}

func newPositionsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "positions",
		Short: "List open positions",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			positions := app.Sim.Positions()
			if output.IsJSON() {
				return output.JSON(positions)
			}

			if len(positions) == 0 {
				output.Dim("No open positions.")
				return nil
			}

			profit := color.New(color.FgGreen)
			loss := color.New(color.FgRed)

			output.Bold("%-10s %-6s %6s %12s %12s %12s", "SYMBOL", "PROD", "QTY", "AVG PRICE", "VALUE", "P&L")
			var totalPnL float64
			for _, p := range positions {
				pnlText := FormatCurrency(p.PnL)
				if p.PnL > 0 {
					pnlText = profit.Sprint(pnlText)
				} else if p.PnL < 0 {
					pnlText = loss.Sprint(pnlText)
				}
				output.Printf("%-10s %-6s %6d %12s %12s %12s\n",
					p.Symbol, p.Product, p.Quantity,
					FormatCurrency(p.AveragePrice), FormatCurrency(p.Value()), pnlText)
				totalPnL += p.PnL
			}

			output.Println()
			totalText := FormatCurrency(totalPnL)
			if totalPnL > 0 {
				totalText = profit.Sprint(totalText)
			} else if totalPnL < 0 {
				totalText = loss.Sprint(totalText)
			}
			output.Printf("Total P&L: %s\n", totalText)
			return nil
		},
	}
}

func newClosePositionCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "close <symbol>",
		Short:   "Close the position for a symbol",
		Example: `  trader close RELIANCE`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			symbol := strings.ToUpper(args[0])

			if err := app.Sim.ClosePosition(symbol); err != nil {
				output.Error("Close failed: %v", err)
				return err
			}
			app.save()

			if output.IsJSON() {
				return output.JSON(map[string]string{"symbol": symbol, "result": "closed"})
			}
			output.Success("✓ Position %s closed", symbol)
			return nil
		},
	}
}

// update-position is the entry point collaborators (or a user poking at the
// simulation) use to push externally computed position state into the store:
// the store itself never derives average price or PnL.
func newUpdatePositionCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "update-position <symbol>",
		Short:   "Create or overwrite the position for a symbol",
		Example: `  trader update-position RELIANCE --quantity 10 --avg-price 2850.50 --pnl 120`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			symbol := strings.ToUpper(args[0])

			qty, _ := cmd.Flags().GetInt("quantity")
			avgPrice, _ := cmd.Flags().GetFloat64("avg-price")
			pnl, _ := cmd.Flags().GetFloat64("pnl")
			product, _ := cmd.Flags().GetString("product")

			if qty <= 0 || avgPrice <= 0 {
				output.Error("Both --quantity and --avg-price must be positive")
				return fmt.Errorf("invalid position")
			}
			if product == "" {
				product = app.Config.Trading.DefaultProduct
			}

			app.Sim.UpdatePosition(models.Position{
				Symbol:        symbol,
				Product:       models.ProductType(strings.ToUpper(product)),
				Quantity:      qty,
				AveragePrice:  avgPrice,
				PnL:           pnl,
				UnrealizedPnL: pnl,
			})
			app.save()

			pos, _ := app.Sim.Position(symbol)
			if output.IsJSON() {
				return output.JSON(pos)
			}
			output.Success("✓ Position %s updated: %d @ %s", symbol, pos.Quantity, FormatCurrency(pos.AveragePrice))
			return nil
		},
	}

	cmd.Flags().Int("quantity", 0, "Position size")
	cmd.Flags().Float64("avg-price", 0, "Volume-weighted average entry price")
	cmd.Flags().Float64("pnl", 0, "Current profit/loss")
	cmd.Flags().String("product", "", "Product type (MIS, NRML)")

	return cmd
}
