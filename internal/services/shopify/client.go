package shopify

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/time/rate"

	"shopclone/internal/logger"
)

const (
	AdminAPIVersion = "2024-01"

	collectionListLimit = 5000
)

// AdminClient talks to a destination store's Admin API. Every call waits
// on a shared token bucket and goes through the retrying Fetcher.
type AdminClient struct {
	shopDomain  string
	accessToken string
	baseURL     string
	fetcher     *Fetcher
	limiter     *rate.Limiter
	logger      *logger.Logger
}

func NewAdminClient(shopDomain, accessToken string, fetcher *Fetcher, limiter *rate.Limiter, log *logger.Logger) *AdminClient {
	if log == nil {
		log = logger.NewNop()
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &AdminClient{
		shopDomain:  shopDomain,
		accessToken: accessToken,
		baseURL:     fmt.Sprintf("https://%s%s/admin/api/%s", shopDomain, myshopifySuffix, AdminAPIVersion),
		fetcher:     fetcher,
		limiter:     limiter,
		logger:      log,
	}
}

// ShopDomain returns the shop name the client was built for.
func (c *AdminClient) ShopDomain() string {
	return c.shopDomain
}

// ListProducts fetches one page of destination products.
func (c *AdminClient) ListProducts(ctx context.Context, page int) ([]AdminProduct, error) {
	var resp struct {
		Products []AdminProduct `json:"products"`
	}
	url := fmt.Sprintf("%s/products.json?limit=%d&page=%d", c.baseURL, PageLimit, page)
	if err := c.get(ctx, "admin_products", url, &resp); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return resp.Products, nil
}

func (c *AdminClient) ListSmartCollections(ctx context.Context) ([]AdminCollection, error) {
	var resp struct {
		SmartCollections []AdminCollection `json:"smart_collections"`
	}
	url := fmt.Sprintf("%s/smart_collections.json?limit=%d", c.baseURL, collectionListLimit)
	if err := c.get(ctx, "admin_collections", url, &resp); err != nil {
		return nil, fmt.Errorf("failed to list smart collections: %w", err)
	}
	return resp.SmartCollections, nil
}

func (c *AdminClient) ListCustomCollections(ctx context.Context) ([]AdminCollection, error) {
	var resp struct {
		CustomCollections []AdminCollection `json:"custom_collections"`
	}
	url := fmt.Sprintf("%s/custom_collections.json?limit=%d", c.baseURL, collectionListLimit)
	if err := c.get(ctx, "admin_collections", url, &resp); err != nil {
		return nil, fmt.Errorf("failed to list custom collections: %w", err)
	}
	return resp.CustomCollections, nil
}

// CreateProduct creates a product and returns it with its new variant and
// image ids.
func (c *AdminClient) CreateProduct(ctx context.Context, input ProductInput) (*AdminProduct, error) {
	payload := struct {
		Product ProductInput `json:"product"`
	}{Product: input}

	var resp struct {
		Product AdminProduct `json:"product"`
	}
	if err := c.send(ctx, http.MethodPost, "admin_create_product", c.baseURL+"/products.json", payload, &resp); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &resp.Product, nil
}

// UpdateVariantImage binds a destination variant to a destination image.
func (c *AdminClient) UpdateVariantImage(ctx context.Context, variantID, imageID int64) error {
	payload := map[string]any{
		"variant": map[string]int64{"image_id": imageID},
	}
	url := fmt.Sprintf("%s/variants/%d.json", c.baseURL, variantID)
	if err := c.send(ctx, http.MethodPut, "admin_update_variant", url, payload, nil); err != nil {
		return fmt.Errorf("failed to update variant %d: %w", variantID, err)
	}
	return nil
}

func (c *AdminClient) CreateSmartCollection(ctx context.Context, input SmartCollectionInput) (*AdminCollection, error) {
	payload := struct {
		SmartCollection SmartCollectionInput `json:"smart_collection"`
	}{SmartCollection: input}

	var resp struct {
		SmartCollection AdminCollection `json:"smart_collection"`
	}
	if err := c.send(ctx, http.MethodPost, "admin_create_collection", c.baseURL+"/smart_collections.json", payload, &resp); err != nil {
		return nil, fmt.Errorf("failed to create smart collection: %w", err)
	}
	return &resp.SmartCollection, nil
}

func (c *AdminClient) CreateCustomCollection(ctx context.Context, input CustomCollectionInput) (*AdminCollection, error) {
	payload := struct {
		CustomCollection CustomCollectionInput `json:"custom_collection"`
	}{CustomCollection: input}

	var resp struct {
		CustomCollection AdminCollection `json:"custom_collection"`
	}
	if err := c.send(ctx, http.MethodPost, "admin_create_collection", c.baseURL+"/custom_collections.json", payload, &resp); err != nil {
		return nil, fmt.Errorf("failed to create custom collection: %w", err)
	}
	return &resp.CustomCollection, nil
}

// AddCollect attaches a product to a custom collection. 422 means the
// product is already a member and is not an error.
func (c *AdminClient) AddCollect(ctx context.Context, collectionID, productID int64) error {
	payload := struct {
		Collect CollectInput `json:"collect"`
	}{Collect: CollectInput{ProductID: productID, CollectionID: collectionID}}

	err := c.send(ctx, http.MethodPost, "admin_collect", c.baseURL+"/collects.json", payload, nil)
	if err == nil || IsStatus(err, http.StatusUnprocessableEntity) {
		return nil
	}
	return fmt.Errorf("failed to add product %d to collection %d: %w", productID, collectionID, err)
}

func (c *AdminClient) get(ctx context.Context, phase, url string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	return c.fetcher.GetJSON(ctx, phase, url, c.headers(), out)
}

func (c *AdminClient) send(ctx context.Context, method, phase, url string, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	return c.fetcher.SendJSON(ctx, method, phase, url, c.headers(), in, out)
}

func (c *AdminClient) headers() http.Header {
	h := http.Header{}
	h.Set("X-Shopify-Access-Token", c.accessToken)
	h.Set("Content-Type", "application/json")
	return h
}
