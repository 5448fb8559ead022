package shopify

import (
	"encoding/json"
	"strings"

	"shopclone/internal/models"
)

// Amount is a price that storefronts send either as a string or as a
// number. null decodes to the empty string.
type Amount string

func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*a = ""
		return nil
	}
	if strings.HasPrefix(raw, "\"") {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*a = Amount(n.String())
	return nil
}

// StorefrontProduct is a record from the public products.json endpoints.
// Timestamps stay strings; they are passed through, never interpreted.
type StorefrontProduct struct {
	ID          int64               `json:"id"`
	Title       string              `json:"title"`
	BodyHTML    string              `json:"body_html"`
	Vendor      string              `json:"vendor"`
	ProductType string              `json:"product_type"`
	Handle      string              `json:"handle"`
	Tags        models.Tags         `json:"tags"`
	PublishedAt string              `json:"published_at"`
	CreatedAt   string              `json:"created_at"`
	UpdatedAt   string              `json:"updated_at"`
	Variants    []StorefrontVariant `json:"variants"`
	Images      []StorefrontImage   `json:"images"`
	Options     []StorefrontOption  `json:"options"`
}

// StorefrontVariant is a product variant
type StorefrontVariant struct {
	ID                int64    `json:"id"`
	Title             string   `json:"title"`
	Price             Amount   `json:"price"`
	SKU               *string  `json:"sku"`
	Position          *int     `json:"position"`
	CompareAtPrice    Amount   `json:"compare_at_price"`
	Option1           *string  `json:"option1"`
	Option2           *string  `json:"option2"`
	Option3           *string  `json:"option3"`
	Taxable           *bool    `json:"taxable"`
	Barcode           *string  `json:"barcode"`
	Grams             *int     `json:"grams"`
	ImageID           *int64   `json:"image_id"`
	Weight            *float64 `json:"weight"`
	WeightUnit        *string  `json:"weight_unit"`
	InventoryQuantity *int     `json:"inventory_quantity"`
	RequiresShipping  *bool    `json:"requires_shipping"`
	Available         *bool    `json:"available"`
}

// StorefrontImage is a product image
type StorefrontImage struct {
	ID         int64   `json:"id"`
	ProductID  int64   `json:"product_id"`
	Position   *int    `json:"position"`
	Alt        *string `json:"alt"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Src        string  `json:"src"`
	VariantIDs []int64 `json:"variant_ids"`
}

// StorefrontOption is a product option
type StorefrontOption struct {
	Name     string   `json:"name"`
	Position *int     `json:"position"`
	Values   []string `json:"values"`
}

// StorefrontCollection is a record from collections.json.
type StorefrontCollection struct {
	ID            int64            `json:"id"`
	Handle        string           `json:"handle"`
	Title         string           `json:"title"`
	BodyHTML      string           `json:"body_html"`
	PublishedAt   string           `json:"published_at"`
	UpdatedAt     string           `json:"updated_at"`
	ProductsCount int              `json:"products_count"`
	Image         *CollectionImage `json:"image"`
}

type CollectionImage struct {
	Src    string  `json:"src"`
	Alt    *string `json:"alt,omitempty"`
	Width  int     `json:"width,omitempty"`
	Height int     `json:"height,omitempty"`
}

type productsPage struct {
	Products []StorefrontProduct `json:"products"`
}

type collectionsPage struct {
	Collections []StorefrontCollection `json:"collections"`
}

// ProductInput is the Admin API create payload. Field order matters:
// options must precede variants.
type ProductInput struct {
	Title       string         `json:"title"`
	BodyHTML    string         `json:"body_html"`
	Vendor      string         `json:"vendor,omitempty"`
	ProductType string         `json:"product_type,omitempty"`
	Tags        string         `json:"tags,omitempty"`
	Handle      string         `json:"handle,omitempty"`
	PublishedAt string         `json:"published_at,omitempty"`
	Images      []ImageInput   `json:"images,omitempty"`
	Options     []OptionInput  `json:"options,omitempty"`
	Variants    []VariantInput `json:"variants,omitempty"`
}

type ImageInput struct {
	Src      string `json:"src"`
	Alt      string `json:"alt,omitempty"`
	Position *int   `json:"position,omitempty"`
}

type OptionInput struct {
	Name     string   `json:"name"`
	Values   []string `json:"values"`
	Position int      `json:"position"`
}

// VariantInput always sends inventory_management as null so the
// destination does not track stock.
type VariantInput struct {
	Price               string   `json:"price"`
	InventoryManagement *string  `json:"inventory_management"`
	InventoryPolicy     string   `json:"inventory_policy"`
	Option1             string   `json:"option1,omitempty"`
	Option2             string   `json:"option2,omitempty"`
	Option3             string   `json:"option3,omitempty"`
	SKU                 string   `json:"sku,omitempty"`
	CompareAtPrice      string   `json:"compare_at_price,omitempty"`
	Barcode             string   `json:"barcode,omitempty"`
	Weight              *float64 `json:"weight,omitempty"`
	WeightUnit          string   `json:"weight_unit,omitempty"`
	Grams               *int     `json:"grams,omitempty"`
	InventoryQuantity   *int     `json:"inventory_quantity,omitempty"`
	Taxable             *bool    `json:"taxable,omitempty"`
	RequiresShipping    *bool    `json:"requires_shipping,omitempty"`
	Position            *int     `json:"position,omitempty"`
}

// AdminProduct is the subset of an Admin API product the publisher reads.
type AdminProduct struct {
	ID       int64          `json:"id"`
	Title    string         `json:"title"`
	Variants []AdminVariant `json:"variants"`
	Images   []AdminImage   `json:"images"`
}

type AdminVariant struct {
	ID      int64  `json:"id"`
	ImageID *int64 `json:"image_id"`
}

type AdminImage struct {
	ID  int64  `json:"id"`
	Src string `json:"src"`
}

type AdminCollection struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type CollectionRule struct {
	Column    string `json:"column"`
	Relation  string `json:"relation"`
	Condition string `json:"condition"`
}

type CollectionImageInput struct {
	Src string `json:"src"`
}

type SmartCollectionInput struct {
	Title    string                `json:"title"`
	BodyHTML string                `json:"body_html"`
	Image    *CollectionImageInput `json:"image"`
	Rules    []CollectionRule      `json:"rules"`
}

type CustomCollectionInput struct {
	Title    string                `json:"title"`
	BodyHTML string                `json:"body_html"`
	Image    *CollectionImageInput `json:"image"`
}

type CollectInput struct {
	ProductID    int64 `json:"product_id"`
	CollectionID int64 `json:"collection_id"`
}
