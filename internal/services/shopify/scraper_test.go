package shopify

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"shopclone/internal/logger"
)

func TestResolveShopDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "teststore.myshopify.com", want: "teststore"},
		{in: "teststore", want: "teststore"},
		{in: "https://teststore.myshopify.com/", want: "teststore"},
		{in: "http://teststore.myshopify.com/collections/all", want: "teststore"},
		{in: "  teststore  ", want: "teststore"},
		{in: "shop.example.com", want: "shop.example.com"},
		{in: "https://shop.example.com/products/mug", want: "shop.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ResolveShopDomain(tt.in)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if got != tt.want {
				t.Fatalf("ResolveShopDomain(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestResolveShopDomainRejectsInvalid(t *testing.T) {
	for _, in := range []string{"", "   ", "https://", "my store", ".myshopify.com"} {
		_, err := ResolveShopDomain(in)
		var validation *ValidationError
		if !errors.As(err, &validation) {
			t.Fatalf("ResolveShopDomain(%q) err = %v, want ValidationError", in, err)
		}
	}
}

func TestProperty_ShopDomainForms(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("bare name, myshopify host and full URL resolve alike", prop.ForAll(
		func(name string) bool {
			forms := []string{
				name,
				name + ".myshopify.com",
				"https://" + name + ".myshopify.com/",
				"http://" + name + ".myshopify.com",
			}
			for _, f := range forms {
				got, err := ResolveShopDomain(f)
				if err != nil || got != name {
					return false
				}
			}
			return StoreHost(name) == name+".myshopify.com"
		},
		gen.Identifier(),
	))

	properties.TestingRun(t)
}

func TestStoreHost(t *testing.T) {
	if got := StoreHost("teststore"); got != "teststore.myshopify.com" {
		t.Fatalf("StoreHost = %q", got)
	}
	if got := StoreHost("shop.example.com"); got != "shop.example.com" {
		t.Fatalf("StoreHost = %q", got)
	}
}

func makeProducts(start, n int) []map[string]any {
	out := make([]map[string]any, n)
	for i := range out {
		out[i] = map[string]any{
			"id":    start + i,
			"title": "Product " + strconv.Itoa(start+i),
		}
	}
	return out
}

// pagedResponder serves sizes[page-1] items under key and counts calls.
func pagedResponder(key string, sizes []int, calls *int32) httpmock.Responder {
	return func(req *http.Request) (*http.Response, error) {
		atomic.AddInt32(calls, 1)
		page, err := strconv.Atoi(req.URL.Query().Get("page"))
		if err != nil || page < 1 {
			return httpmock.NewStringResponse(400, "bad page"), nil
		}
		if req.URL.Query().Get("limit") != "250" {
			return httpmock.NewStringResponse(400, "bad limit"), nil
		}
		n := 0
		if page <= len(sizes) {
			n = sizes[page-1]
		}
		return httpmock.NewJsonResponse(200, map[string]any{key: makeProducts(page*1000, n)})
	}
}

func newTestScraper(transport http.RoundTripper) (*Scraper, *recordingSleeper) {
	sleeper := &recordingSleeper{}
	f := newTestFetcher(transport, sleeper)
	return NewScraper(f, logger.NewNop(), time.Second), sleeper
}

func TestFetchProductsPaginates(t *testing.T) {
	transport := httpmock.NewMockTransport()
	var calls int32
	transport.RegisterResponder("GET", "https://teststore.myshopify.com/products.json",
		pagedResponder("products", []int{250, 250, 10}, &calls))

	s, sleeper := newTestScraper(transport)
	products, err := s.FetchProducts(context.Background(), "teststore.myshopify.com")
	if err != nil {
		t.Fatalf("fetch products: %v", err)
	}
	if len(products) != 510 {
		t.Fatalf("products = %d, want 510", len(products))
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
	if products[0].ID != 1000 || products[509].ID != 3009 {
		t.Fatalf("unexpected order: first=%d last=%d", products[0].ID, products[509].ID)
	}
	waits := sleeper.Waits()
	if len(waits) != 2 || waits[0] != time.Second {
		t.Fatalf("page delays = %v, want two 1s pauses", waits)
	}
}

func TestProperty_PaginationCounts(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("aggregate equals sum of pages and stops at first short page", prop.ForAll(
		func(fullPages, last int) bool {
			sizes := make([]int, 0, fullPages+2)
			for i := 0; i < fullPages; i++ {
				sizes = append(sizes, PageLimit)
			}
			// A trailing full page after the short one must never be read.
			sizes = append(sizes, last, PageLimit)

			transport := httpmock.NewMockTransport()
			var calls int32
			transport.RegisterResponder("GET", "https://teststore.myshopify.com/products.json",
				pagedResponder("products", sizes, &calls))

			s, _ := newTestScraper(transport)
			products, err := s.FetchProducts(context.Background(), "teststore.myshopify.com")
			if err != nil {
				return false
			}
			return len(products) == fullPages*PageLimit+last && int(calls) == fullPages+1
		},
		gen.IntRange(0, 3),
		gen.IntRange(0, PageLimit-1),
	))

	properties.TestingRun(t)
}

func TestFetchProductsFailsOnHTTPError(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "https://teststore.myshopify.com/products.json",
		httpmock.NewStringResponder(404, "not found"))

	s, _ := newTestScraper(transport)
	_, err := s.FetchProducts(context.Background(), "teststore.myshopify.com")
	if !IsStatus(err, http.StatusNotFound) {
		t.Fatalf("err = %v, want 404", err)
	}
}

func TestFetchCollectionsForbiddenYieldsNone(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "https://teststore.myshopify.com/collections.json",
		httpmock.NewStringResponder(403, "forbidden"))

	s, _ := newTestScraper(transport)
	collections, err := s.FetchCollections(context.Background(), "teststore.myshopify.com")
	if err != nil {
		t.Fatalf("fetch collections: %v", err)
	}
	if collections == nil || len(collections) != 0 {
		t.Fatalf("collections = %v, want empty", collections)
	}
}

func TestFetchCollectionsRateLimitKeepsPartial(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "https://teststore.myshopify.com/collections.json",
		func(req *http.Request) (*http.Response, error) {
			if req.URL.Query().Get("page") == "1" {
				return httpmock.NewJsonResponse(200, map[string]any{"collections": makeProducts(1, PageLimit)})
			}
			return httpmock.NewStringResponse(429, "slow down"), nil
		})

	s, _ := newTestScraper(transport)
	collections, err := s.FetchCollections(context.Background(), "teststore.myshopify.com")
	if err != nil {
		t.Fatalf("fetch collections: %v", err)
	}
	if len(collections) != PageLimit {
		t.Fatalf("collections = %d, want %d", len(collections), PageLimit)
	}
}

func TestFetchCollectionsOtherErrorsAreFatal(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "https://teststore.myshopify.com/collections.json",
		httpmock.NewStringResponder(500, "boom"))

	s, _ := newTestScraper(transport)
	if _, err := s.FetchCollections(context.Background(), "teststore.myshopify.com"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestFetchCollectionProductsReturnsPartialOnError(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "https://teststore.myshopify.com/collections/summer/products.json",
		func(req *http.Request) (*http.Response, error) {
			if req.URL.Query().Get("page") == "1" {
				return httpmock.NewJsonResponse(200, map[string]any{"products": makeProducts(1, PageLimit)})
			}
			return httpmock.NewStringResponse(500, "boom"), nil
		})

	s, _ := newTestScraper(transport)
	products := s.FetchCollectionProducts(context.Background(), "teststore.myshopify.com", "summer")
	if len(products) != PageLimit {
		t.Fatalf("products = %d, want %d", len(products), PageLimit)
	}
}
