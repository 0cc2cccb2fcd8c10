// Command import loads a CSV export of booking form responses into the
// database.
//
//	import bookings.csv
//	import --source google_sheet_backfill exports/march.csv
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newImportCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "\nError during import: %v\n", err)
		stop()
		os.Exit(1)
	}
}
