package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/JonMunkholm/parkcrm/internal/config"
	"github.com/JonMunkholm/parkcrm/internal/core"
	"github.com/JonMunkholm/parkcrm/internal/database"
	"github.com/JonMunkholm/parkcrm/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// maxPrintedErrors is how many row errors the summary lists.
const maxPrintedErrors = 10

type importOptions struct {
	path         string
	source       string
	createTables bool
	envFile      string
}

func newImportCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:           "import <file.csv>",
		Short:         "Import booking rows from a CSV file",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			opts.path = args[0]
			return checkFile(opts.path)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.source, "source", core.SourceCSVScript, "Source tag stored on each booking")
	cmd.Flags().BoolVar(&opts.createTables, "create-tables", true, "Create missing tables before importing")
	cmd.Flags().StringVar(&opts.envFile, "env-file", ".env", "Optional .env file to load")

	return cmd
}

func checkFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("CSV file not found: %s", path)
		}
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("path is not a file: %s", path)
	}
	return nil
}

func runImport(ctx context.Context, out io.Writer, opts importOptions) error {
	if opts.source = strings.TrimSpace(opts.source); opts.source == "" {
		return fmt.Errorf("--source must not be empty")
	}

	if err := godotenv.Overload(opts.envFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load %s: %w", opts.envFile, err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.SetupWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	pool, err := database.Connect(ctx, database.PoolOptions{
		URL:             cfg.Database.URL,
		MaxConns:        2,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
	})
	if err != nil {
		return err
	}
	defer pool.Close()

	if opts.createTables || cfg.Database.AutoCreateTables {
		if err := database.Migrate(ctx, pool); err != nil {
			return err
		}
	}

	service := core.NewService(database.NewStore(pool), core.WithRunTimeout(cfg.Upload.Timeout))

	fmt.Fprintf(out, "Importing CSV file: %s\n", opts.path)
	fmt.Fprintln(out, strings.Repeat("-", 60))

	stats, err := service.ImportFromFile(ctx, opts.path, opts.source)
	if err != nil {
		return err
	}

	printSummary(out, stats)
	slog.Debug("import command finished", "source", opts.source)
	return nil
}

func printSummary(out io.Writer, stats *core.Statistics) {
	fmt.Fprintf(out, "\nImport completed!\n")
	fmt.Fprintf(out, "Total rows processed: %d\n", stats.TotalRows)
	fmt.Fprintf(out, "Successful imports: %d\n", stats.Successful)
	fmt.Fprintf(out, "Failed imports: %d\n", stats.Failed)
	fmt.Fprintf(out, "Skipped rows: %d\n", stats.Skipped)

	if n := len(stats.Errors); n > 0 {
		fmt.Fprintf(out, "\nErrors encountered (%d):\n", n)
		for _, e := range stats.Errors[:min(n, maxPrintedErrors)] {
			fmt.Fprintf(out, "  Row %d: %s\n", e.Row, e.Error)
		}
		if n > maxPrintedErrors {
			fmt.Fprintf(out, "  ... and %d more errors\n", n-maxPrintedErrors)
		}
	}

	fmt.Fprintf(out, "\n%s\n", strings.Repeat("-", 60))
	fmt.Fprintln(out, "Import finished successfully!")
}
