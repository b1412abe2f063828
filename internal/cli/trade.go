package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"paper-trader/internal/models"
)

// addTradingCommands adds order entry and order book commands.
func addTradingCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newBuyCmd(app))
	rootCmd.AddCommand(newSellCmd(app))
	rootCmd.AddCommand(newCancelCmd(app))
	rootCmd.AddCommand(newModifyCmd(app))
	rootCmd.AddCommand(newOrdersCmd(app))
}

func newBuyCmd(app *App) *cobra.Command {
	cmd := newOrderEntryCmd(app, models.OrderSideBuy, "buy", "Place a buy order",
		`  trader buy RELIANCE 10
  trader buy INFY 5 --type LIMIT --price 1500
  trader buy TCS 10 --product NRML --type SL --price 3400 --trigger 3390`)
	return cmd
}

func newSellCmd(app *App) *cobra.Command {
	cmd := newOrderEntryCmd(app, models.OrderSideSell, "sell", "Place a sell order",
		`  trader sell RELIANCE 10
  trader sell INFY 5 --type LIMIT --price 1550
  trader sell TCS 10 --type SL-M --trigger 3350`)
	return cmd
}

func newOrderEntryCmd(app *App, side models.OrderSide, use, short, example string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     use + " <symbol> <quantity>",
		Short:   short,
		Example: example,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			symbol := strings.ToUpper(args[0])
			qty, err := strconv.Atoi(args[1])
			if err != nil || qty <= 0 {
				output.Error("Invalid quantity: %s", args[1])
				return fmt.Errorf("invalid quantity")
			}

			price, _ := cmd.Flags().GetFloat64("price")
			trigger, _ := cmd.Flags().GetFloat64("trigger")
			product, _ := cmd.Flags().GetString("product")
			orderType, _ := cmd.Flags().GetString("type")
			wait, _ := cmd.Flags().GetBool("wait")

			// MARKET by default, LIMIT when a price is given.
			ot := models.OrderTypeMarket
			if price > 0 {
				ot = models.OrderTypeLimit
			}
			if orderType != "" {
				ot = models.OrderType(strings.ToUpper(orderType))
			}
			if product == "" {
				product = app.Config.Trading.DefaultProduct
			}

			order, err := app.Sim.PlaceOrder(models.OrderRequest{
				Symbol:       symbol,
				Side:         side,
				Type:         ot,
				Product:      models.ProductType(strings.ToUpper(product)),
				Quantity:     qty,
				Price:        price,
				TriggerPrice: trigger,
			})
			if err != nil {
				output.Error("Order failed: %v", err)
				return err
			}

			if wait {
				app.waitForFill()
				if updated, ok := app.Sim.Order(order.ID); ok {
					order = &updated
				}
			}
			app.save()

			if output.IsJSON() {
				return output.JSON(order)
			}

			output.Success("✓ Order placed")
			output.Printf("  Order ID: %s\n", order.ID)
			output.Printf("  %s %d %s @ %s (%s, %s)\n",
				order.Side, order.Quantity, order.Symbol,
				formatOrderPrice(*order), order.Type, order.Product)
			output.Printf("  Status:   %s\n", order.Status)
			if !wait {
				output.Dim("Simulated fill in %s. Use 'trader orders' to check status.",
					app.Config.Trading.FillDelay)
			}
			return nil
		},
	}

	cmd.Flags().Float64P("price", "p", 0, "Limit price (required for LIMIT and SL)")
	cmd.Flags().Float64("trigger", 0, "Trigger price (required for SL and SL-M)")
	cmd.Flags().String("product", "", "Product type (MIS, NRML)")
	cmd.Flags().String("type", "", "Order type (MARKET, LIMIT, SL, SL-M)")
	cmd.Flags().Bool("wait", false, "Wait for the simulated fill before exiting")

	return cmd
}

func newCancelCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "cancel <order-id>",
		Short:   "Cancel an open order",
		Example: `  trader cancel PAPER_1717320000_1`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			if err := app.Sim.CancelOrder(args[0]); err != nil {
				output.Error("Cancel failed: %v", err)
				return err
			}
			app.save()

			if output.IsJSON() {
				order, _ := app.Sim.Order(args[0])
				return output.JSON(order)
			}
			output.Success("✓ Order %s cancelled", args[0])
			return nil
		},
	}
}

func newModifyCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "modify <order-id>",
		Short:   "Modify an open order",
		Example: `  trader modify PAPER_1717320000_1 --quantity 20 --price 1480`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			var mod models.OrderModification
			if cmd.Flags().Changed("quantity") {
				qty, _ := cmd.Flags().GetInt("quantity")
				mod.Quantity = &qty
			}
			if cmd.Flags().Changed("price") {
				price, _ := cmd.Flags().GetFloat64("price")
				mod.Price = &price
			}
			if cmd.Flags().Changed("trigger") {
				trigger, _ := cmd.Flags().GetFloat64("trigger")
				mod.TriggerPrice = &trigger
			}
			if mod.Quantity == nil && mod.Price == nil && mod.TriggerPrice == nil {
				output.Error("Nothing to modify: pass --quantity, --price or --trigger")
				return fmt.Errorf("no modifications given")
			}

			if err := app.Sim.ModifyOrder(args[0], mod); err != nil {
				output.Error("Modify failed: %v", err)
				return err
			}
			app.save()

			order, _ := app.Sim.Order(args[0])
			if output.IsJSON() {
				return output.JSON(order)
			}
			output.Success("✓ Order %s modified", args[0])
			output.Printf("  %s %d %s @ %s (%s)\n",
				order.Side, order.Quantity, order.Symbol,
				formatOrderPrice(order), order.Type)
			return nil
		},
	}

	cmd.Flags().Int("quantity", 0, "New quantity")
	cmd.Flags().Float64("price", 0, "New limit price")
	cmd.Flags().Float64("trigger", 0, "New trigger price")

	return cmd
}

func newOrdersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			status, _ := cmd.Flags().GetString("status")
			orders := app.Sim.Orders()
			if status != "" {
				want := models.OrderStatus(strings.ToUpper(status))
				filtered := orders[:0]
				for _, o := range orders {
					if o.Status == want {
						filtered = append(filtered, o)
					}
				}
				orders = filtered
			}

			if output.IsJSON() {
				return output.JSON(orders)
			}

			if len(orders) == 0 {
				output.Dim("No orders.")
				return nil
			}

			output.Bold("%-26s %-10s %-4s %-8s %5s %12s %-9s", "ORDER ID", "SYMBOL", "SIDE", "TYPE", "QTY", "PRICE", "STATUS")
			for _, o := range orders {
				statusText := string(o.Status)
				switch o.Status {
				case models.OrderStatusExecuted:
					statusText = output.Green(statusText)
				case models.OrderStatusCancelled, models.OrderStatusRejected:
					statusText = output.Red(statusText)
				case models.OrderStatusOpen:
					statusText = output.Yellow(statusText)
				}
				output.Printf("%-26s %-10s %-4s %-8s %5d %12s %-9s\n",
					o.ID, o.Symbol, o.Side, o.Type, o.Quantity, formatOrderPrice(o), statusText)
			}
			return nil
		},
	}

	cmd.Flags().String("status", "", "Filter by status (OPEN, EXECUTED, CANCELLED)")

	return cmd
}

func formatOrderPrice(o models.Order) string {
	if o.Type == models.OrderTypeMarket || o.Type == models.OrderTypeStopLossM {
		if o.TriggerPrice > 0 {
			return fmt.Sprintf("trg %s", FormatCurrency(o.TriggerPrice))
		}
		return "MKT"
	}
	return FormatCurrency(o.Price)
}
