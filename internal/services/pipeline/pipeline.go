// Package pipeline sequences the two entry points of the service: scraping
// a source store into a catalog, and publishing a curated catalog to a
// destination store.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"shopclone/internal/config"
	"shopclone/internal/currency"
	"shopclone/internal/logger"
	"shopclone/internal/models"
	"shopclone/internal/services/shopify"
)

// CertificateErrorMessage replaces raw TLS failures in user-facing errors.
const CertificateErrorMessage = "SSL Certificate Error: The SSL certificate validation failed. This often happens if your system clock is incorrect. Please check your system date and time settings and ensure they are correct. If the issue persists, the target store may have an expired certificate."

// HistorySink receives a record after every well-formed upload.
type HistorySink interface {
	RecordHistory(ctx context.Context, h models.UploadHistory) error
}

// Multiplier accepts a JSON number or numeric string. Anything else
// decodes to 0, which publishing treats as 1.
type Multiplier float64

func (m *Multiplier) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*m = 0
		return nil
	}
	if strings.HasPrefix(raw, "\"") {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*m = 0
		return nil
	}
	*m = Multiplier(v)
	return nil
}

type UploadRequest struct {
	StoreURL                 string              `json:"storeUrl"`
	AdminToken               string              `json:"adminToken"`
	SourceStoreURL           string              `json:"sourceStoreUrl,omitempty"`
	Products                 []models.Product    `json:"products,omitempty"`
	Collections              []models.Collection `json:"collections,omitempty"`
	PriceMultiplier          Multiplier          `json:"priceMultiplier"`
	PrefixKeyword            string              `json:"prefixKeyword"`
	DescriptionPrefixKeyword string              `json:"descriptionPrefixKeyword,omitempty"`
}

// Validate checks the credentials needed to reach the destination store.
func (r UploadRequest) Validate() error {
	if strings.TrimSpace(r.StoreURL) == "" || strings.TrimSpace(r.AdminToken) == "" {
		return &shopify.ValidationError{Field: "storeUrl", Message: "Store URL and Admin Token are required"}
	}
	return nil
}

type UploadResult struct {
	Success             bool     `json:"success"`
	UploadedProducts    int      `json:"uploadedProducts"`
	UploadedCollections int      `json:"uploadedCollections"`
	Errors              []string `json:"errors,omitempty"`
	Message             string   `json:"message"`
	HistoryID           string   `json:"historyId,omitempty"`
}

type Option func(*Service)

// WithHTTPClient replaces the client used for every outbound call.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Service) {
		if c != nil {
			s.httpClient = c
		}
	}
}

// WithSleeper replaces the wait used for backoff and politeness delays.
func WithSleeper(sleep shopify.Sleeper) Option {
	return func(s *Service) { s.sleep = sleep }
}

// WithHistorySink adds a sink that sees every upload.
func WithHistorySink(sink HistorySink) Option {
	return func(s *Service) {
		if sink != nil {
			s.sinks = append(s.sinks, sink)
		}
	}
}

// Service runs scrapes and uploads.
type Service struct {
	cfg         *config.Config
	logger      *logger.Logger
	metrics     *shopify.Metrics
	httpClient  *http.Client
	sleep       shopify.Sleeper
	sinks       []HistorySink
	fetcher     *shopify.Fetcher
	scraper     *shopify.Scraper
	transformer *shopify.Transformer
}

func New(cfg *config.Config, log *logger.Logger, metrics *shopify.Metrics, opts ...Option) (*Service, error) {
	if log == nil {
		log = logger.NewNop()
	}
	converter, err := currency.NewConverter(cfg.JPYToUSDRate)
	if err != nil {
		return nil, fmt.Errorf("invalid JPY_TO_USD_RATE %q: %w", cfg.JPYToUSDRate, err)
	}
	log.Debug("Converting JPY prices at %s USD per yen", converter.Rate())

	s := &Service{
		cfg:        cfg,
		logger:     log,
		metrics:    metrics,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.fetcher = shopify.NewFetcher(log,
		shopify.WithHTTPClient(s.httpClient),
		shopify.WithRetries(cfg.MaxRetries, cfg.RetryBaseDelay),
		shopify.WithUserAgent(cfg.UserAgent),
		shopify.WithMetrics(metrics),
		shopify.WithSleeper(s.sleep),
	)
	s.scraper = shopify.NewScraper(s.fetcher, log, cfg.ScrapePageDelay)
	s.transformer = shopify.NewTransformer(converter)
	return s, nil
}

// Scrape crawls products and collections concurrently. Each collection's
// products are crawled concurrently with the other collections, page by
// page within one collection.
func (s *Service) Scrape(ctx context.Context, storeURL string) (*models.Catalog, error) {
	shop, err := shopify.ResolveShopDomain(storeURL)
	if err != nil {
		return nil, err
	}
	host := shopify.StoreHost(shop)
	s.logger.Info("Fetching products and collections for: %s", host)

	var rawProducts []shopify.StorefrontProduct
	var collections []models.Collection

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		products, err := s.scraper.FetchProducts(gctx, host)
		if err != nil {
			return err
		}
		rawProducts = products
		return nil
	})
	g.Go(func() error {
		raw, err := s.scraper.FetchCollections(gctx, host)
		if err != nil {
			return err
		}

		collections = make([]models.Collection, len(raw))
		var cg errgroup.Group
		for i, c := range raw {
			cg.Go(func() error {
				products := s.scraper.FetchCollectionProducts(gctx, host, c.Handle)
				collections[i] = s.transformer.TransformCollection(c, products)
				return nil
			})
		}
		return cg.Wait()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	catalog := &models.Catalog{
		StoreURL:    "https://" + host,
		Products:    s.transformer.TransformProducts(rawProducts),
		Collections: collections,
	}
	s.logger.Info("Fetched %d products and %d collections from %s", len(catalog.Products), len(catalog.Collections), host)
	return catalog, nil
}

// Upload publishes the request's products and collections and records an
// UploadHistory with every configured sink plus any extra ones given.
// Per-item failures are reported in the result, not as an error.
func (s *Service) Upload(ctx context.Context, req UploadRequest, extra ...HistorySink) (*UploadResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	shop, err := shopify.ResolveShopDomain(req.StoreURL)
	if err != nil {
		return nil, err
	}

	limiter := rate.NewLimiter(rate.Limit(s.cfg.AdminRateLimit), s.cfg.AdminRateBurst)
	client := shopify.NewAdminClient(shop, strings.TrimSpace(req.AdminToken), s.fetcher, limiter, s.logger)
	log := s.logger.With("shop", client.ShopDomain())
	publisher := shopify.NewPublisher(client, shopify.PublishOptions{
		PriceMultiplier:          float64(req.PriceMultiplier),
		PrefixKeyword:            req.PrefixKeyword,
		DescriptionPrefixKeyword: req.DescriptionPrefixKeyword,
	}, log,
		shopify.WithPublisherMetrics(s.metrics),
		shopify.WithExistenceDelay(s.cfg.ExistencePageDelay, s.sleep),
	)

	log.Info("Starting upload of %d products and %d collections", len(req.Products), len(req.Collections))
	published := publisher.Publish(ctx, req.Products, req.Collections)

	result := &UploadResult{
		Success:             true,
		UploadedProducts:    len(published.ProductIDs),
		UploadedCollections: len(published.CollectionIDs),
		Errors:              published.Errors,
		Message: fmt.Sprintf("Successfully uploaded %d products and %d collections",
			len(published.ProductIDs), len(published.CollectionIDs)),
	}
	if len(result.Errors) > 0 {
		log.With("errors", SummarizeErrors(result.Errors, 5)).Warn("Upload finished with %d errors", len(result.Errors))
	}

	history := models.NewUploadHistory(req.SourceStoreURL, req.StoreURL, req.Products, req.Collections)
	result.HistoryID = history.ID
	s.recordHistory(ctx, history, extra)

	log.Info("%s", result.Message)
	return result, nil
}

func (s *Service) recordHistory(ctx context.Context, h models.UploadHistory, extra []HistorySink) {
	sinks := append(append([]HistorySink(nil), s.sinks...), extra...)
	for _, sink := range sinks {
		if sink == nil {
			continue
		}
		if err := sink.RecordHistory(ctx, h); err != nil {
			s.logger.Error("Failed to record upload history %s: %v", h.ID, err)
		}
	}
}

// SummarizeErrors returns at most limit errors followed by an overflow
// line when more were dropped.
func SummarizeErrors(errs []string, limit int) []string {
	if limit < 0 {
		limit = 0
	}
	if len(errs) <= limit {
		return append([]string(nil), errs...)
	}
	out := append([]string(nil), errs[:limit]...)
	return append(out, fmt.Sprintf("...and %d more error(s)", len(errs)-limit))
}

// UserMessage renders err for an API or CLI user. TLS validation failures
// get an explanation instead of the transport message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if shopify.IsCertificateError(err) {
		return CertificateErrorMessage
	}
	return err.Error()
}
