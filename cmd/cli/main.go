// Package main provides counter-cli, an operator tool that talks to the
// counter database directly through the same service code as the server.
//
// Run with: go run ./cmd/cli history
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fleveque/counter-service/internal/config"
	"github.com/fleveque/counter-service/internal/events"
	"github.com/fleveque/counter-service/internal/service"
	"github.com/fleveque/counter-service/internal/storage"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app bundles what every subcommand needs. It is built in PersistentPreRunE
// so --help works without a database.
type app struct {
	configPath string
	db         *sqlx.DB
	publisher  events.Publisher
	counter    *service.CounterService
	logger     *zap.Logger
}

func rootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "counter-cli",
		Short:        "Counter service operator tools",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", os.Getenv("COUNTER_CONFIG_PATH"), "path to a YAML config file")

	root.AddCommand(
		countCmd(a),
		incrementCmd(a),
		historyCmd(a),
		migrateCmd(a),
		pingCmd(a),
	)
	return root
}

func (a *app) open() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Always use development mode for the CLI
	a.logger, err = zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}

	a.db, err = storage.NewDatabase(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	a.publisher, err = events.New(cfg.Events)
	if err != nil {
		return fmt.Errorf("creating event publisher: %w", err)
	}

	a.counter = service.NewCounterService(storage.NewCounterRepository(a.db), a.publisher, a.logger)
	return nil
}

func (a *app) close() error {
	if a.publisher != nil {
		_ = a.publisher.Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// signalContext is cancelled on Ctrl+C so long queries can be abandoned.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func countCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the current count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			count, err := a.counter.GetCount(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]int64{"count": count})
		},
	}
}

func incrementCmd(a *app) *cobra.Command {
	var times int

	cmd := &cobra.Command{
		Use:   "increment",
		Short: "Increment the counter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if times < 1 {
				return fmt.Errorf("--times must be at least 1")
			}
			ctx, cancel := signalContext()
			defer cancel()

			for i := 0; i < times; i++ {
				res, err := a.counter.Increment(ctx)
				if err != nil {
					return err
				}
				if err := printJSON(cmd.OutOrStdout(), res); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&times, "times", 1, "number of increments to perform")
	return cmd
}

func historyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Print the ten most recent counter records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			records, err := a.counter.History(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"history": records})
		},
	}
}

func migrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the counter_history table if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			if err := storage.EnsureSchema(ctx, a.db); err != nil {
				return err
			}
			a.logger.Info("schema ready")
			return nil
		},
	}
}

func pingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check database connectivity and print the database clock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			now, err := storage.ServerTime(ctx, a.db)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{"server_time": now})
		},
	}
}
