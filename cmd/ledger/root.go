package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/go-petr/pet-ledger/cmd/httpserver"
	"github.com/go-petr/pet-ledger/internal/console"
	"github.com/go-petr/pet-ledger/internal/middleware"
	"github.com/go-petr/pet-ledger/pkg/configpkg"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"
	"github.com/go-petr/pet-ledger/pkg/workerpool"
)

const shutdownTimeout = 10 * time.Second

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "ledger",
		Short:         "Account ledger",
		Long:          `Opens accounts, moves money between them and keeps an audit trail of every accepted transaction.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsole(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "./configs", "directory holding app.env")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "console",
			Short: "Serve the ledger through the interactive menu",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runConsole(cmd, opts)
			},
		},
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the ledger over HTTP",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(cmd, opts)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply pending database migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMigrate(cmd, opts)
			},
		},
	)

	return cmd
}

func setup(ctx context.Context, opts *rootOptions) (configpkg.Config, zerolog.Logger, *app, error) {
	config, err := configpkg.Load(opts.configPath)
	if err != nil {
		return config, zerolog.Nop(), nil, err
	}

	logger := middleware.CreateLogger(config)

	a, err := newApp(logger.WithContext(ctx), config, logger)
	if err != nil {
		return config, logger, nil, err
	}

	return config, logger, a, nil
}

func isTerminal(in any) bool {
	f, ok := in.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func runConsole(cmd *cobra.Command, opts *rootOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config, logger, a, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	c := console.New(
		a.service,
		workerpool.New(config.WorkerPoolSize),
		cmd.InOrStdin(),
		cmd.OutOrStdout(),
		console.WithInteractive(isTerminal(cmd.InOrStdin())),
		console.WithLogger(logger),
	)

	return c.Run(ctx)
}

func runServe(cmd *cobra.Command, opts *rootOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config, logger, a, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	server, err := httpserver.New(a.service, logger, a.registry)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              config.ServerAddress,
		Handler:           server,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Info().Str("address", config.ServerAddress).Msg("LEDGER API SERVER HAS STARTED")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	logger.Info().Msg("server stopped")

	return nil
}

func runMigrate(cmd *cobra.Command, opts *rootOptions) error {
	config, err := configpkg.Load(opts.configPath)
	if err != nil {
		return err
	}

	if config.Store != configpkg.StorePostgres {
		return fmt.Errorf("store %q has no schema to migrate", config.Store)
	}

	if err := dbpkg.MigrateUp(config.MigrationURL, config.DBSource); err != nil {
		return err
	}

	logger := middleware.CreateLogger(config)
	logger.Info().Str("source", config.MigrationURL).Msg("schema is up to date")

	return nil
}
