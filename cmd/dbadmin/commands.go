package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/JonMunkholm/parkcrm/internal/admin"
	"github.com/JonMunkholm/parkcrm/internal/config"
	"github.com/JonMunkholm/parkcrm/internal/database"
	"github.com/JonMunkholm/parkcrm/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var errNotConfirmed = errors.New("refusing to run without --yes")

type rootOptions struct {
	envFile string
	yes     bool
}

type action func(m *admin.Maintainer, ctx context.Context) error

func newRootCmd() *cobra.Command {
	var opts rootOptions

	root := &cobra.Command{
		Use:           "dbadmin",
		Short:         "Create, reset or drop the booking tables",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Optional .env file to load")
	root.PersistentFlags().BoolVarP(&opts.yes, "yes", "y", false, "Confirm a destructive operation")

	root.AddCommand(
		newActionCmd(&opts, "create", "Create missing tables and indexes", false, "Tables created",
			(*admin.Maintainer).Create),
		newActionCmd(&opts, "reset", "Delete all rows from every table", true, "All tables emptied",
			(*admin.Maintainer).ResetAll),
		newActionCmd(&opts, "drop", "Drop every table", true, "All tables dropped",
			(*admin.Maintainer).Drop),
		newActionCmd(&opts, "recreate", "Drop and recreate every table", true, "Tables recreated",
			(*admin.Maintainer).Recreate),
	)

	return root
}

func newActionCmd(opts *rootOptions, use, short string, destructive bool, done string, fn action) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if destructive && !opts.yes {
				return fmt.Errorf("%s: %w", use, errNotConfirmed)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), opts.envFile, done, fn)
		},
	}
}

func run(ctx context.Context, out io.Writer, envFile, done string, fn action) error {
	if err := godotenv.Overload(envFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.SetupWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	pool, err := database.Connect(ctx, database.PoolOptions{URL: cfg.Database.URL, MaxConns: 1})
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := fn(&admin.Maintainer{DB: pool}, ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, done)
	return nil
}
