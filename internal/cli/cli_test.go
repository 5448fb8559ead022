package cli

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"

	"shopclone/internal/config"
)

func noSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.LogLevel = "error"
	cfg.ScrapePageDelay = 0
	cfg.ExistencePageDelay = 0
	return cfg
}

func sourceTransport() *httpmock.MockTransport {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "https://source.myshopify.com/products.json",
		httpmock.NewJsonResponderOrPanic(200, map[string]any{
			"products": []map[string]any{
				{"id": 1, "title": "Red Shirt", "variants": []map[string]any{{"id": 11, "price": "1500"}}},
			},
		}))
	transport.RegisterResponder("GET", "https://source.myshopify.com/collections.json",
		httpmock.NewStringResponder(403, "forbidden"))
	return transport
}

func run(t *testing.T, transport http.RoundTripper, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd(
		WithConfig(testConfig()),
		WithHTTPClient(&http.Client{Transport: transport}),
		WithSleeper(noSleep),
	)
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestScrapeCommandJSON(t *testing.T) {
	out, errOut, err := run(t, sourceTransport(), "scrape", "source")
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	if !strings.Contains(out, `"storeUrl": "https://source.myshopify.com"`) || !strings.Contains(out, `"price": 10.05`) {
		t.Fatalf("output = %s", out)
	}
	if !strings.Contains(errOut, "Fetched 1 products and 0 collections") {
		t.Fatalf("stderr = %s", errOut)
	}
}

func TestScrapeThenUploadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if _, _, err := run(t, sourceTransport(), "scrape", "source", "--format", "yaml", "--output", path); err != nil {
		t.Fatalf("scrape: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(raw), "storeUrl: https://source.myshopify.com") {
		t.Fatalf("yaml = %s", raw)
	}

	catalog, err := readCatalog(path)
	if err != nil {
		t.Fatalf("readCatalog: %v", err)
	}
	if len(catalog.Products) != 1 || catalog.Products[0].Name != "Red Shirt" || catalog.Products[0].Variants[0].Price != "10.05" {
		t.Fatalf("catalog = %+v", catalog)
	}

	dest := httpmock.NewMockTransport()
	base := "https://dest.myshopify.com/admin/api/2024-01"
	dest.RegisterResponder("GET", base+"/products.json",
		httpmock.NewJsonResponderOrPanic(200, map[string]any{"products": []any{}}))
	var created string
	dest.RegisterResponder("POST", base+"/products.json",
		func(req *http.Request) (*http.Response, error) {
			var buf bytes.Buffer
			_, _ = buf.ReadFrom(req.Body)
			created = buf.String()
			return httpmock.NewJsonResponse(201, map[string]any{"product": map[string]any{"id": 5}})
		})

	out, _, err := run(t, dest, "upload", "--store", "dest", "--token", "shpat_test",
		"--input", path, "--multiplier", "2", "--prefix", "NEW")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.Contains(out, "Successfully uploaded 1 products and 0 collections") {
		t.Fatalf("output = %s", out)
	}
	if !strings.Contains(created, `"title":"NEW Shirt"`) || !strings.Contains(created, `"price":"20.10"`) {
		t.Fatalf("payload = %s", created)
	}
}

func TestUploadCommandReportsItemErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	body := `{"storeUrl":"https://source.myshopify.com","products":[{"id":"product-1","name":"Mug","description":"","image":"","price":1}],"collections":[]}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	dest := httpmock.NewMockTransport()
	base := "https://dest.myshopify.com/admin/api/2024-01"
	dest.RegisterResponder("GET", base+"/products.json",
		httpmock.NewJsonResponderOrPanic(200, map[string]any{"products": []any{}}))
	dest.RegisterResponder("POST", base+"/products.json", httpmock.NewStringResponder(422, "{}"))

	out, _, err := run(t, dest, "upload", "--store", "dest", "--token", "t", "--input", path)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.Contains(out, "1 item(s) failed") || !strings.Contains(out, `Failed to upload product "Mug"`) {
		t.Fatalf("output = %s", out)
	}
}

func TestUploadCommandRequiresCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, []byte(`{"storeUrl":"","products":[],"collections":[]}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, _, err := run(t, httpmock.NewMockTransport(), "upload", "--input", path)
	if err == nil || err.Error() != "Store URL and Admin Token are required" {
		t.Fatalf("err = %v", err)
	}
}

func TestScrapeCommandRejectsFormat(t *testing.T) {
	_, _, err := run(t, httpmock.NewMockTransport(), "scrape", "source", "--format", "xml")
	if err == nil || !strings.Contains(err.Error(), "unsupported format") {
		t.Fatalf("err = %v", err)
	}
}
