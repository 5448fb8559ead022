package shopify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/jarcoal/httpmock"
	"golang.org/x/time/rate"

	"shopclone/internal/logger"
)

const testAdminBase = "https://dest.myshopify.com/admin/api/2024-01"

func newTestAdminClient(transport http.RoundTripper) *AdminClient {
	f := newTestFetcher(transport, &recordingSleeper{})
	return NewAdminClient("dest", "shpat_test", f, rate.NewLimiter(rate.Inf, 1), logger.NewNop())
}

func TestAdminClientCreateProduct(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("POST", testAdminBase+"/products.json",
		func(req *http.Request) (*http.Response, error) {
			if req.Header.Get("X-Shopify-Access-Token") != "shpat_test" {
				return httpmock.NewStringResponse(401, "unauthorized"), nil
			}
			body, _ := io.ReadAll(req.Body)
			if !strings.Contains(string(body), `"inventory_management":null`) {
				return httpmock.NewStringResponse(400, string(body)), nil
			}
			var payload struct {
				Product ProductInput `json:"product"`
			}
			if err := json.Unmarshal(body, &payload); err != nil {
				return httpmock.NewStringResponse(400, err.Error()), nil
			}
			return httpmock.NewJsonResponse(201, map[string]any{
				"product": map[string]any{
					"id":       99,
					"title":    payload.Product.Title,
					"variants": []map[string]any{{"id": 501}},
					"images":   []map[string]any{{"id": 701, "src": "https://cdn.example/a.jpg"}},
				},
			})
		})

	c := newTestAdminClient(transport)
	created, err := c.CreateProduct(context.Background(), ProductInput{
		Title:    "PREMIUM Shirt",
		Variants: []VariantInput{{Price: "20.00", InventoryPolicy: "deny"}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID != 99 || created.Variants[0].ID != 501 || created.Images[0].ID != 701 {
		t.Fatalf("created = %+v", created)
	}
}

func TestAdminClientCreateProductError(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("POST", testAdminBase+"/products.json",
		httpmock.NewStringResponder(422, `{"errors":{"title":["can't be blank"]}}`))

	c := newTestAdminClient(transport)
	_, err := c.CreateProduct(context.Background(), ProductInput{})
	if err == nil || err.Error() != "failed to create product: HTTP 422: Unprocessable Entity" {
		t.Fatalf("err = %v", err)
	}
}

func TestAdminClientListProductsQuery(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", testAdminBase+"/products.json",
		func(req *http.Request) (*http.Response, error) {
			q := req.URL.Query()
			if q.Get("limit") != "250" || q.Get("page") != "2" {
				return httpmock.NewStringResponse(400, req.URL.RawQuery), nil
			}
			return httpmock.NewJsonResponse(200, map[string]any{
				"products": []map[string]any{{"id": 1, "title": "Mug"}},
			})
		})

	c := newTestAdminClient(transport)
	if got := c.ShopDomain(); got != "dest" {
		t.Fatalf("shop domain = %q, want dest", got)
	}
	products, err := c.ListProducts(context.Background(), 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(products) != 1 || products[0].Title != "Mug" {
		t.Fatalf("products = %+v", products)
	}
}

func TestAdminClientAddCollectTreats422AsSuccess(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("POST", testAdminBase+"/collects.json",
		httpmock.NewStringResponder(422, `{"errors":{"product_id":["already exists"]}}`))

	c := newTestAdminClient(transport)
	if err := c.AddCollect(context.Background(), 5, 6); err != nil {
		t.Fatalf("422 must be treated as success: %v", err)
	}

	transport.RegisterResponder("POST", testAdminBase+"/collects.json",
		httpmock.NewStringResponder(404, "missing"))
	if err := c.AddCollect(context.Background(), 5, 6); err == nil {
		t.Fatalf("expected error on 404")
	}
}

func TestAdminClientUpdateVariantImage(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("PUT", testAdminBase+"/variants/501.json",
		func(req *http.Request) (*http.Response, error) {
			var payload struct {
				Variant struct {
					ImageID int64 `json:"image_id"`
				} `json:"variant"`
			}
			if err := json.NewDecoder(req.Body).Decode(&payload); err != nil || payload.Variant.ImageID != 701 {
				return httpmock.NewStringResponse(400, "bad payload"), nil
			}
			return httpmock.NewStringResponse(200, `{"variant":{"id":501,"image_id":701}}`), nil
		})

	c := newTestAdminClient(transport)
	if err := c.UpdateVariantImage(context.Background(), 501, 701); err != nil {
		t.Fatalf("update: %v", err)
	}
}

func TestAdminClientSmartCollectionPayload(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("POST", testAdminBase+"/smart_collections.json",
		func(req *http.Request) (*http.Response, error) {
			body, _ := io.ReadAll(req.Body)
			if !strings.Contains(string(body), `"rules":[{"column":"id","relation":"equals","condition":"1,2"}]`) {
				return httpmock.NewStringResponse(400, string(body)), nil
			}
			if !strings.Contains(string(body), `"image":null`) {
				return httpmock.NewStringResponse(400, string(body)), nil
			}
			return httpmock.NewJsonResponse(201, map[string]any{"smart_collection": map[string]any{"id": 3, "title": "Summer"}})
		})

	c := newTestAdminClient(transport)
	created, err := c.CreateSmartCollection(context.Background(), SmartCollectionInput{
		Title: "Summer",
		Rules: []CollectionRule{{Column: "id", Relation: "equals", Condition: "1,2"}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID != 3 {
		t.Fatalf("created = %+v", created)
	}
}
