// Package cli implements the shopclone command line.
package cli

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"shopclone/internal/config"
	"shopclone/internal/events"
	"shopclone/internal/logger"
	"shopclone/internal/services/pipeline"
	"shopclone/internal/services/shopify"
)

// Option adjusts how commands build their pipeline.
type Option func(*settings)

type settings struct {
	httpClient *http.Client
	sleep      shopify.Sleeper
	config     *config.Config
}

// WithHTTPClient routes every outbound call through c.
func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) { s.httpClient = c }
}

// WithSleeper replaces backoff and page-delay waits.
func WithSleeper(sleep shopify.Sleeper) Option {
	return func(s *settings) { s.sleep = sleep }
}

// WithConfig skips loading configuration from the environment.
func WithConfig(cfg *config.Config) Option {
	return func(s *settings) { s.config = cfg }
}

func NewRootCmd(opts ...Option) *cobra.Command {
	s := &settings{}
	for _, opt := range opts {
		opt(s)
	}

	cmd := &cobra.Command{
		Use:   "shopclone",
		Short: "Copy a Shopify catalog from one store to another",
		Long: `shopclone reads the public catalog of a Shopify storefront, normalizes
prices to USD and re-creates chosen products and collections on a store
you own through the Admin API.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(newScrapeCmd(s))
	cmd.AddCommand(newUploadCmd(s))
	cmd.AddCommand(newServeCmd(s))

	return cmd
}

// runtime is the wired service graph shared by the commands.
type runtime struct {
	cfg     *config.Config
	logger  *logger.Logger
	metrics *shopify.Metrics
	service *pipeline.Service
	history *events.HistoryPublisher
}

func (s *settings) build() (*runtime, error) {
	cfg := s.config
	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = loaded
	}

	log := logger.New(cfg.LogLevel, cfg.Env)
	metrics := shopify.NewMetrics()

	rt := &runtime{cfg: cfg, logger: log, metrics: metrics}

	opts := []pipeline.Option{
		pipeline.WithHTTPClient(s.httpClient),
		pipeline.WithSleeper(s.sleep),
	}
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		rt.history = events.NewHistoryPublisher(brokers, cfg.HistoryTopic, log)
		opts = append(opts, pipeline.WithHistorySink(rt.history))
	}

	service, err := pipeline.New(cfg, log, metrics, opts...)
	if err != nil {
		return nil, err
	}
	rt.service = service
	return rt, nil
}

func (rt *runtime) close() {
	if rt.history != nil {
		if err := rt.history.Close(); err != nil {
			rt.logger.Warn("Failed to close history publisher: %v", err)
		}
	}
	_ = rt.logger.Sync()
}

// Serve runs the HTTP API until ctx is cancelled.
func Serve(ctx context.Context, opts ...Option) error {
	s := &settings{}
	for _, opt := range opts {
		opt(s)
	}
	return s.serve(ctx, "")
}
