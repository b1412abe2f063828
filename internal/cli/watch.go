package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"paper-trader/internal/feed"
	"paper-trader/internal/models"
)

// addWatchCommand adds the live tick watcher.
func addWatchCommand(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "watch [symbols...]",
		Short: "Stream simulated prices and mark positions to market",
		Long: `Stream ticks from the configured feed (mock random walk by default,
or a websocket endpoint) and continuously push mark-to-market P&L into
open positions. Runs until interrupted.`,
		Example: `  trader watch RELIANCE TCS
  trader watch --duration 30s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			duration, _ := cmd.Flags().GetDuration("duration")

			symbols := make([]string, 0, len(args))
			for _, a := range args {
				symbols = append(symbols, strings.ToUpper(a))
			}
			if len(symbols) == 0 {
				symbols = append(symbols, app.Config.Feed.Symbols...)
			}
			for _, p := range app.Sim.Positions() {
				symbols = append(symbols, p.Symbol)
			}
			symbols = dedupe(symbols)
			if len(symbols) == 0 {
				output.Error("No symbols to watch: pass symbols or open a position first")
				return fmt.Errorf("no symbols")
			}

			f, err := app.buildFeed()
			if err != nil {
				output.Error("Feed setup failed: %v", err)
				return err
			}

			hub := feed.NewHub()
			hub.Start()
			defer hub.Stop()

			marker := feed.NewMarker(app.Sim)
			f.OnTick(func(tick models.Tick) {
				marker.HandleTick(tick)
				hub.Publish(tick)
			})

			channels := make(map[string]<-chan models.Tick, len(symbols))
			for _, s := range symbols {
				channels[s] = hub.Subscribe(s)
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if duration > 0 {
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			if err := f.Subscribe(symbols); err != nil {
				output.Error("Subscribe failed: %v", err)
				return err
			}
			if err := f.Start(ctx); err != nil {
				output.Error("Feed start failed: %v", err)
				return err
			}
			defer func() {
				f.Stop()
				app.save()
			}()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sig)

			output.Info("Watching %s (Ctrl-C to stop)", strings.Join(symbols, ", "))

			up := color.New(color.FgGreen)
			down := color.New(color.FgRed)
			last := make(map[string]float64)

			for {
				gotTick := false
				for _, ch := range channels {
					select {
					case tick, ok := <-ch:
						if !ok {
							return nil
						}
						gotTick = true
						text := fmt.Sprintf("%-10s %12s", tick.Symbol, FormatCurrency(tick.LTP))
						if prev, ok := last[tick.Symbol]; ok {
							if tick.LTP > prev {
								text = up.Sprint(text + " ▲")
							} else if tick.LTP < prev {
								text = down.Sprint(text + " ▼")
							}
						}
						last[tick.Symbol] = tick.LTP
						output.Printf("%s  %s\n", tick.Timestamp.Format("15:04:05"), text)
					default:
					}
				}

				select {
				case <-ctx.Done():
					return nil
				case <-sig:
					return nil
				default:
				}
				if !gotTick {
					time.Sleep(10 * time.Millisecond)
				}
			}
		},
	}

	cmd.Flags().Duration("duration", 0, "Stop after this duration (0 = until interrupted)")

	rootCmd.AddCommand(cmd)
}

// buildFeed constructs the configured market data source.
func (app *App) buildFeed() (feed.Feed, error) {
	switch app.Config.Feed.Mode {
	case "websocket":
		return feed.NewWSFeed(feed.WSFeedConfig{URL: app.Config.Feed.WSURL}, app.Logger), nil
	case "mock", "":
		return feed.NewMockFeed(feed.MockFeedConfig{
			Interval:   app.Config.Feed.TickInterval,
			BasePrice:  app.Config.Feed.BasePrice,
			Volatility: app.Config.Feed.Volatility,
		}), nil
	default:
		return nil, fmt.Errorf("unknown feed mode %q", app.Config.Feed.Mode)
	}
}

func dedupe(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := symbols[:0]
	for _, s := range symbols {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
