package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"shopclone/internal/api"
	"shopclone/internal/session"
)

func newServeCmd(s *settings) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Example: `  # Listen on API_PORT (default 8080)
  shopclone serve

  # Listen on a custom port
  shopclone serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.serve(cmd.Context(), port)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (overrides API_PORT)")

	return cmd
}

func (s *settings) serve(ctx context.Context, port string) error {
	rt, err := s.build()
	if err != nil {
		return err
	}
	defer rt.close()

	if port != "" {
		rt.cfg.APIPort = port
	}

	sessions := session.NewRegistry(rt.cfg.SessionCapacity, rt.cfg.SessionTTL)
	server := api.New(rt.cfg, rt.logger, rt.service, sessions, rt.metrics)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Stop(shutdownCtx); err != nil {
			rt.logger.Error("Server shutdown failed: %v", err)
			return err
		}
		rt.logger.Info("Server stopped")
		return nil
	case err := <-serverErr:
		return err
	}
}
