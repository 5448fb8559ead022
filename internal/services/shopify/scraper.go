package shopify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"shopclone/internal/logger"
)

const (
	// PageLimit is the largest page the storefront endpoints return.
	PageLimit        = 250
	DefaultPageDelay = time.Second

	myshopifySuffix = ".myshopify.com"
)

// ResolveShopDomain reduces a user-supplied store identifier to the shop
// name, e.g. "https://teststore.myshopify.com/" and "teststore" both
// resolve to "teststore".
func ResolveShopDomain(storeURL string) (string, error) {
	clean := strings.TrimSpace(storeURL)
	if clean == "" {
		return "", &ValidationError{Field: "storeUrl", Message: "Store URL is required"}
	}

	lower := strings.ToLower(clean)
	switch {
	case strings.HasPrefix(lower, "https://"):
		clean = clean[len("https://"):]
	case strings.HasPrefix(lower, "http://"):
		clean = clean[len("http://"):]
	}
	clean = strings.TrimSuffix(clean, "/")

	if i := strings.Index(clean, myshopifySuffix); i >= 0 {
		clean = clean[:i]
	} else if i := strings.Index(clean, "/"); i >= 0 {
		clean = clean[:i]
	}

	if clean == "" || strings.ContainsAny(clean, " \t\r\n/?#") {
		return "", &ValidationError{
			Field:   "storeUrl",
			Message: `Invalid store URL format. Please use format like "store.myshopify.com" or just "store"`,
		}
	}
	return clean, nil
}

// StoreHost returns the host to request for a resolved shop name. Names
// that already contain a dot are treated as custom domains.
func StoreHost(shop string) string {
	if strings.Contains(shop, ".") {
		return shop
	}
	return shop + myshopifySuffix
}

// Scraper crawls the public storefront JSON endpoints of a source store.
type Scraper struct {
	fetcher   *Fetcher
	logger    *logger.Logger
	metrics   *Metrics
	pageDelay time.Duration
}

func NewScraper(fetcher *Fetcher, log *logger.Logger, pageDelay time.Duration) *Scraper {
	if log == nil {
		log = logger.NewNop()
	}
	if pageDelay < 0 {
		pageDelay = DefaultPageDelay
	}
	return &Scraper{
		fetcher:   fetcher,
		logger:    log,
		metrics:   fetcher.metrics,
		pageDelay: pageDelay,
	}
}

// FetchProducts crawls products.json. Any failure is fatal.
func (s *Scraper) FetchProducts(ctx context.Context, host string) ([]StorefrontProduct, error) {
	products, err := paginate(ctx, s, func(ctx context.Context, page int) ([]StorefrontProduct, error) {
		pageURL := s.pageURL(host, "/products.json", page)
		s.logger.Info("Fetching products from page %d: %s", page, pageURL)

		var resp productsPage
		if err := s.fetcher.GetJSON(ctx, "products", pageURL, nil, &resp); err != nil {
			return nil, err
		}
		s.metrics.AddItems("product", len(resp.Products))
		return resp.Products, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}

	s.logger.Info("Total products fetched: %d", len(products))
	return products, nil
}

// FetchCollections crawls collections.json. A 403 means the store hides
// its collections and yields what was collected so far, as does a rate
// limit that outlasts every retry.
func (s *Scraper) FetchCollections(ctx context.Context, host string) ([]StorefrontCollection, error) {
	collections, err := paginate(ctx, s, func(ctx context.Context, page int) ([]StorefrontCollection, error) {
		pageURL := s.pageURL(host, "/collections.json", page)
		s.logger.Info("Fetching collections from page %d: %s", page, pageURL)

		var resp collectionsPage
		if err := s.fetcher.GetJSON(ctx, "collections", pageURL, nil, &resp); err != nil {
			return nil, err
		}
		s.metrics.AddItems("collection", len(resp.Collections))
		return resp.Collections, nil
	})

	switch {
	case err == nil:
	case IsStatus(err, http.StatusForbidden):
		s.logger.Warn("Collections endpoint returned 403 for %s, continuing without collections", host)
	case errors.Is(err, ErrRateLimitExceeded):
		s.logger.Warn("Collections endpoint rate limited after retries for %s, continuing with %d collections", host, len(collections))
	default:
		return nil, fmt.Errorf("failed to fetch collections: %w", err)
	}

	s.logger.Info("Total collections fetched: %d", len(collections))
	return collections, nil
}

// FetchCollectionProducts crawls one collection's products. Failures end
// the crawl and return whatever pages were already read.
func (s *Scraper) FetchCollectionProducts(ctx context.Context, host, handle string) []StorefrontProduct {
	path := "/collections/" + url.PathEscape(handle) + "/products.json"
	products, err := paginate(ctx, s, func(ctx context.Context, page int) ([]StorefrontProduct, error) {
		var resp productsPage
		if err := s.fetcher.GetJSON(ctx, "collection_products", s.pageURL(host, path, page), nil, &resp); err != nil {
			return nil, err
		}
		s.metrics.AddItems("collection_product", len(resp.Products))
		return resp.Products, nil
	})
	if err != nil {
		s.logger.Warn("Stopped fetching products for collection %s after %d products: %v", handle, len(products), err)
	}
	return products
}

func (s *Scraper) pageURL(host, path string, page int) string {
	return fmt.Sprintf("https://%s%s?limit=%d&page=%d", host, path, PageLimit, page)
}

// paginate requests pages from 1 until one holds fewer than PageLimit
// items, pausing between pages. On error it returns the items gathered
// so far alongside the error.
func paginate[T any](ctx context.Context, s *Scraper, fetch func(ctx context.Context, page int) ([]T, error)) ([]T, error) {
	all := make([]T, 0)
	for page := 1; ; page++ {
		items, err := fetch(ctx, page)
		if err != nil {
			return all, err
		}
		all = append(all, items...)
		if len(items) < PageLimit {
			return all, nil
		}
		if err := s.fetcher.Pause(ctx, s.pageDelay); err != nil {
			return all, err
		}
	}
}
