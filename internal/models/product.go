package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	PlaceholderImage   = "https://via.placeholder.com/300"
	DefaultDescription = "No description available"
	MaxDescriptionLen  = 500
)

// Product is a normalized catalog entry scraped from a source store.
// Variants, Options and Images are either carried whole or left nil.
type Product struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Image        string    `json:"image"`
	Price        float64   `json:"price"`
	DisplayPrice string    `json:"displayPrice,omitempty"`
	Vendor       string    `json:"vendor,omitempty"`
	ProductType  string    `json:"product_type,omitempty"`
	Tags         Tags      `json:"tags,omitempty"`
	Handle       string    `json:"handle,omitempty"`
	PublishedAt  string    `json:"published_at,omitempty"`
	Variants     []Variant `json:"variants,omitempty"`
	Options      []Option  `json:"options,omitempty"`
	Images       []Image   `json:"images,omitempty"`
}

// Variant prices are two-decimal strings in the display currency.
type Variant struct {
	Price             string   `json:"price"`
	SKU               string   `json:"sku,omitempty"`
	CompareAtPrice    string   `json:"compare_at_price,omitempty"`
	Option1           string   `json:"option1,omitempty"`
	Option2           string   `json:"option2,omitempty"`
	Option3           string   `json:"option3,omitempty"`
	Barcode           string   `json:"barcode,omitempty"`
	Weight            *float64 `json:"weight,omitempty"`
	WeightUnit        string   `json:"weight_unit,omitempty"`
	Grams             *int     `json:"grams,omitempty"`
	InventoryQuantity *int     `json:"inventory_quantity,omitempty"`
	Taxable           *bool    `json:"taxable,omitempty"`
	RequiresShipping  *bool    `json:"requires_shipping,omitempty"`
	ImageID           *int64   `json:"image_id,omitempty"`
	Position          *int     `json:"position,omitempty"`
}

// Label names the variant by its first option value, or by its 1-based
// position when it has none.
func (v Variant) Label(index int) string {
	for _, o := range []string{v.Option1, v.Option2, v.Option3} {
		if o != "" {
			return o
		}
	}
	return fmt.Sprintf("variant-%d", index+1)
}

type Option struct {
	Name     string   `json:"name"`
	Values   []string `json:"values"`
	Position *int     `json:"position,omitempty"`
}

// Image keeps the source-side id only for matching within one request.
type Image struct {
	ID         int64   `json:"id,omitempty"`
	Src        string  `json:"src"`
	Alt        string  `json:"alt,omitempty"`
	Position   *int    `json:"position,omitempty"`
	VariantIDs []int64 `json:"variant_ids,omitempty"`
}

// Collection owns a snapshot of its products.
type Collection struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	Products    []Product `json:"products"`
}

// Catalog is the result of scraping one source store.
type Catalog struct {
	StoreURL    string       `json:"storeUrl"`
	Products    []Product    `json:"products"`
	Collections []Collection `json:"collections"`
}

// Tags accepts either a JSON array of strings or a single string.
// A string is kept as one element so it round-trips unchanged on upload.
type Tags []string

func (t *Tags) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*t = nil
		return nil
	}
	if strings.HasPrefix(trimmed, "\"") {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*t = nil
			return nil
		}
		*t = Tags{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("tags must be a string or an array of strings: %w", err)
	}
	*t = list
	return nil
}

// Join renders the tags the way the Admin API expects them.
func (t Tags) Join() string {
	return strings.Join(t, ", ")
}
