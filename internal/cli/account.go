package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"paper-trader/internal/models"
)

// addAccountCommands adds balance and margin commands.
func addAccountCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newBalanceCmd(app))
	rootCmd.AddCommand(newSetBalanceCmd(app))
	rootCmd.AddCommand(newResetCmd(app))
	rootCmd.AddCommand(newMarginCmd(app))
}

func newBalanceCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show account balance and margin",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			// Refresh derived fields before displaying.
			app.Sim.CalculateMargin()
			account := app.Sim.Account()

			if output.IsJSON() {
				return output.JSON(account)
			}

			output.Bold("Account")
			output.Printf("  Balance:          %s\n", FormatCurrency(account.Balance))
			output.Printf("  Margin Used:      %s\n", FormatCurrency(account.MarginUsed))
			output.Printf("  Available Margin: %s\n", FormatCurrency(account.AvailableMargin))
			output.Printf("  Risk Level:       %s\n", riskText(output, account.RiskLevel))
			return nil
		},
	}
}

func newSetBalanceCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "set-balance <amount>",
		Short:   "Overwrite the cash balance",
		Example: `  trader set-balance 250000`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			balance, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				output.Error("Invalid amount: %s", args[0])
				return fmt.Errorf("invalid amount")
			}

			app.Sim.SetBalance(balance)
			app.save()

			if output.IsJSON() {
				return output.JSON(map[string]float64{"balance": balance})
			}
			output.Success("✓ Balance set to %s", FormatCurrency(balance))
			return nil
		},
	}
}

func newResetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset the account to its starting state",
		Long: `Reset the account: default balance, no orders, no positions, zero margin.
The trade history is an audit trail and is kept.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			app.Sim.ResetBalance()
			app.save()

			account := app.Sim.Account()
			if output.IsJSON() {
				return output.JSON(account)
			}
			output.Success("✓ Account reset")
			output.Printf("  Balance: %s\n", FormatCurrency(account.Balance))
			return nil
		},
	}
}

func newMarginCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "margin",
		Short: "Recompute and show margin utilization",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			used := app.Sim.CalculateMargin()
			app.save()
			account := app.Sim.Account()

			if output.IsJSON() {
				return output.JSON(account)
			}

			var notional float64
			for _, p := range app.Sim.Positions() {
				notional += p.Value()
			}

			output.Bold("Margin")
			output.Printf("  Position Notional: %s\n", FormatCurrency(notional))
			output.Printf("  Margin Used:       %s (%.0f%% of notional)\n",
				FormatCurrency(used), app.Config.Trading.MarginRate*100)
			output.Printf("  Available Margin:  %s\n", FormatCurrency(account.AvailableMargin))
			output.Printf("  Risk Level:        %s\n", riskText(output, account.RiskLevel))
			return nil
		},
	}
}

func riskText(output *Output, level models.RiskLevel) string {
	switch level {
	case models.RiskHigh:
		return output.Red(string(level))
	case models.RiskMedium:
		return output.Yellow(string(level))
	default:
		return output.Green(string(level))
	}
}
