package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:     "kioskd",
		Short:   "kioskd - repair shop status board",
		Version: version,
		Long: `kioskd keeps the shop's repair jobs in memory, serves a REST API for them
and pushes a rotating status board to kiosk displays over websocket.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(watchCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
