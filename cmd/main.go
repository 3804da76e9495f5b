package main

import (
	"fmt"
	"os"

	"github.com/senyabanana/funding-service/internal/cli"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "funding",
		Short: "Funding service - operations, bids and the funding ledger",
		Long: `Funding service accepts funding operations from operators and bids from investors,
tracking the collected amount and closing operations when funded or expired.`,
	}

	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.MigrateCmd())
	rootCmd.AddCommand(cli.SweepCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
