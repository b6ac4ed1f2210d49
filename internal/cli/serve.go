package cli

import (
	"context"
	"log"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"l2wp/internal/gateway/app"
)

// ServeCmd runs the gateway until interrupted.
func ServeCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and connect gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if p := strings.TrimSpace(port); p != "" {
				if !strings.Contains(p, ":") {
					p = ":" + p
				}
				cfg.Port = p
			}
			a, err := app.NewWithConfig(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			errCh := make(chan error, 1)
			go func() { errCh <- a.Start() }()

			select {
			case err = <-errCh:
			case <-ctx.Done():
				log.Println("Shutting down server...")
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if serr := a.Shutdown(shutdownCtx); err == nil {
				err = serr
			}
			return err
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "Port to listen on (overrides server.port)")
	return cmd
}
