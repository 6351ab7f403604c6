// Command lifeboard-export writes the transaction ledger to Google Sheets,
// once or on an interval, and re-exports whenever another instance reports a
// transaction change.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lifeboard-export",
	Short: "Export lifeboard transactions to Google Sheets",
	Long: `lifeboard-export replaces one "<year> <sheet>" tab and one "<year> Summary"
tab per year found in the transaction ledger.

With --interval it keeps running, exporting on every tick and whenever a
transaction change event arrives on the configured AMQP exchange.`,
	SilenceUsage: true,
	RunE:         runExport,
}

func init() {
	rootCmd.Flags().Bool("dry-run", false, "build the sheets in memory and print a summary instead of writing")
	rootCmd.Flags().Duration("interval", 0, "repeat the export on this interval; 0 exports once")
	rootCmd.Flags().String("log-level", "", "log level (debug, info, warn, error); defaults to LOG_LEVEL")
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
