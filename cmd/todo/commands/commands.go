package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/a920604a/to-do-list/internal/infrastructure/config"
	"github.com/a920604a/to-do-list/internal/infrastructure/database"
	"github.com/a920604a/to-do-list/internal/infrastructure/logger"
	"github.com/a920604a/to-do-list/internal/infrastructure/server"
)

// BuildInfo is stamped into the binary at link time
type BuildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

// rootOptions are the persistent flags shared by every command
type rootOptions struct {
	configPath string
	output     string
}

// NewRootCommand assembles the todo command tree
func NewRootCommand(info BuildInfo) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:          "todo",
		Short:        "To-do board server and command line",
		Long:         `todo serves the task board API and reads or edits an owner's board from the command line.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file (yaml, json or toml); environment variables override it")
	rootCmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "text", "Output format: text, json or yaml")

	rootCmd.AddCommand(NewServeCommand(opts))
	rootCmd.AddCommand(NewMigrateCommand(opts))
	rootCmd.AddCommand(NewTokenCommand(opts))
	rootCmd.AddCommand(NewAddCommand(opts))
	rootCmd.AddCommand(NewTasksCommand(opts))
	rootCmd.AddCommand(NewStatsCommand(opts))
	rootCmd.AddCommand(NewVersionCommand(opts, info))

	return rootCmd
}

// NewServeCommand creates the serve command
func NewServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the task board API server",
		Long:  "Start the HTTP API with the configured store, middleware and routes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(opts.configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			return runServer(cmd.Context(), cfg)
		},
	}
}

// NewMigrateCommand creates the migrate command with subcommands
func NewMigrateCommand(opts *rootOptions) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Manage the postgres store schema (up, down, version)",
	}

	for _, direction := range []string{"up", "down"} {
		migrateCmd.AddCommand(&cobra.Command{
			Use:   direction,
			Short: fmt.Sprintf("Run all %s migrations", direction),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDatabase(opts, func(db *database.DB) error {
					changed, err := db.Migrate(direction)
					if err != nil {
						return err
					}
					if !changed {
						fmt.Fprintln(cmd.OutOrStdout(), "No migrations to run")
						return nil
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Migration %s completed successfully\n", direction)
					return nil
				})
			},
		})
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print current migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(opts, func(db *database.DB) error {
				status, err := db.MigrationVersion()
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), opts.output, status, func(p printer) {
					p.line("Current migration version: %d", status.Version)
					p.line("Dirty: %t", status.Dirty)
				})
			})
		},
	})

	return migrateCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand(opts *rootOptions, info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the todo version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return render(cmd.OutOrStdout(), opts.output, info, func(p printer) {
				p.line("todo %s", info.Version)
				p.line("Git Commit: %s", info.Commit)
			})
		},
	}
}

func runServer(ctx context.Context, cfg *config.Config) error {
	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	loc, err := cfg.App.Location()
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	backend, err := server.OpenBackend(cfg, loc, registry, appLogger)
	if err != nil {
		return err
	}
	defer backend.Close()

	srv, err := server.New(cfg, backend, registry, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		appLogger.Infow("Starting todo API server",
			"port", cfg.Server.Port,
			"environment", cfg.App.Environment,
		)
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	appLogger.Info("Server stopped")
	return nil
}

func withDatabase(opts *rootOptions, fn func(db *database.DB) error) error {
	cfg, err := config.LoadFile(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	return fn(db)
}
