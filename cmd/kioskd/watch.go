package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/repairboard/kioskd/internal/logging"
	"github.com/repairboard/kioskd/internal/viewer"
)

func watchCmd() *cobra.Command {
	var (
		url       string
		name      string
		logLevel  string
		reconnect time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Connect to a board as a display and print its pages",
		Example: `  kioskd watch
  kioskd watch --url ws://shop-pc:8080/ws/display --name "front desk"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := logging.New(logLevel, "console")
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			v := viewer.New(url, cmd.OutOrStdout(),
				viewer.WithName(name),
				viewer.WithLogger(logger),
				viewer.WithReconnectDelay(reconnect),
			)
			if err := v.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			id, pages, summaries := v.Stats()
			logger.Infof("Viewer stopped (last display id: %s, pages: %d, summaries: %d)", id, pages, summaries)
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "ws://localhost:8080/ws/display", "Board websocket URL")
	cmd.Flags().StringVar(&name, "name", "terminal", "Display name reported to the board")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level")
	cmd.Flags().DurationVar(&reconnect, "reconnect", viewer.DefaultReconnectDelay, "Delay between reconnect attempts")
	return cmd
}
