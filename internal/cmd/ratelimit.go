package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/resumeforge/resumeforge/internal/output"
	"github.com/resumeforge/resumeforge/internal/ratelimit"
)

var (
	simulateRequests int
	simulateClients  int
	simulateInterval time.Duration
	simulateWindow   time.Duration
	simulateMax      int
	simulateOutput   string
)

var rateLimitCmd = &cobra.Command{
	Use:     "ratelimit",
	Aliases: []string{"rate-limit"},
	Short:   "Inspect the generation rate limiter",
}

var rateLimitSimulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Replay a request schedule against the configured limiter",
	Long: `Replay a synthetic request schedule through a fresh limiter built from the
current configuration and print each decision. Nothing is sent to the server.

Requests from the clients are interleaved: request n of every client arrives
at n * interval.`,
	Example: `  resumeforge ratelimit simulate --requests 12
  resumeforge ratelimit simulate --requests 12 --clients 2 --interval 30s -o markdown`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(simulateOutput)
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		limiterCfg := cfg.RateLimit.Limiter()
		if simulateWindow > 0 {
			limiterCfg.Window = simulateWindow
		}
		if simulateMax > 0 {
			limiterCfg.MaxRequests = simulateMax
		}

		sim, err := simulate(limiterCfg, simulateRequests, simulateClients, simulateInterval)
		if err != nil {
			return err
		}

		rendered, err := output.NewFormatter(format).FormatSimulation(sim)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
		return err
	},
}

// simulate runs requests per client through a new limiter on a synthetic clock.
func simulate(cfg ratelimit.Config, requests, clients int, interval time.Duration) (*output.Simulation, error) {
	if requests <= 0 {
		return nil, fmt.Errorf("requests must be positive")
	}
	if clients <= 0 {
		clients = 1
	}
	if interval < 0 {
		return nil, fmt.Errorf("interval must not be negative")
	}

	limiter, err := ratelimit.New(cfg)
	if err != nil {
		return nil, err
	}

	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	sim := &output.Simulation{
		Window:      cfg.Window,
		MaxRequests: cfg.MaxRequests,
		Steps:       make([]output.SimulationStep, 0, requests*clients),
	}

	for n := 0; n < requests; n++ {
		offset := time.Duration(n) * interval
		now := start.Add(offset)
		for c := 0; c < clients; c++ {
			id := fmt.Sprintf("client-%d", c+1)
			decision := limiter.Admit(id, now)

			remaining := 0
			if snap, ok := limiter.Peek(id, now); ok {
				remaining = snap.Remaining
			}

			sim.Steps = append(sim.Steps, output.SimulationStep{
				Request:    len(sim.Steps) + 1,
				Identifier: id,
				Offset:     offset,
				Admitted:   decision.Admitted,
				Remaining:  remaining,
				RetryAfter: decision.RetryAfter,
			})
		}
	}
	return sim, nil
}

func init() {
	rootCmd.AddCommand(rateLimitCmd)
	rateLimitCmd.AddCommand(rateLimitSimulateCmd)

	rateLimitSimulateCmd.Flags().IntVarP(&simulateRequests, "requests", "n", 12, "requests per client")
	rateLimitSimulateCmd.Flags().IntVar(&simulateClients, "clients", 1, "number of distinct clients")
	rateLimitSimulateCmd.Flags().DurationVar(&simulateInterval, "interval", 10*time.Second, "time between requests")
	rateLimitSimulateCmd.Flags().DurationVar(&simulateWindow, "window", 0, "window override (default from ratelimit.window)")
	rateLimitSimulateCmd.Flags().IntVar(&simulateMax, "max", 0, "max requests override (default from ratelimit.max_requests)")
	rateLimitSimulateCmd.Flags().StringVarP(&simulateOutput, "output-format", "o", "table", "output format: table, json, markdown")
}
