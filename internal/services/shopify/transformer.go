package shopify

import (
	"fmt"
	"regexp"
	"strconv"
	"unicode/utf8"

	"shopclone/internal/currency"
	"shopclone/internal/models"
)

var htmlTag = regexp.MustCompile(`<[^>]*>`)

// Transformer maps storefront records into normalized catalog entries.
type Transformer struct {
	converter currency.Converter
}

func NewTransformer(converter currency.Converter) *Transformer {
	return &Transformer{converter: converter}
}

// TransformProduct converts a storefront product to our canonical format
func (t *Transformer) TransformProduct(p StorefrontProduct) models.Product {
	image := models.PlaceholderImage
	if len(p.Images) > 0 {
		image = p.Images[0].Src
	}

	var price float64
	if len(p.Variants) > 0 {
		price = t.converter.ConvertString(string(p.Variants[0].Price))
	}

	product := models.Product{
		ID:           fmt.Sprintf("product-%d", p.ID),
		Name:         p.Title,
		Description:  StripDescription(p.BodyHTML),
		Image:        image,
		Price:        price,
		DisplayPrice: currency.FormatUSD(price),
		Vendor:       p.Vendor,
		ProductType:  p.ProductType,
		Tags:         p.Tags,
		Handle:       p.Handle,
		PublishedAt:  p.PublishedAt,
	}

	if len(p.Variants) > 0 {
		product.Variants = make([]models.Variant, len(p.Variants))
		for i, v := range p.Variants {
			product.Variants[i] = t.TransformVariant(v)
		}
	}

	if len(p.Options) > 0 {
		product.Options = make([]models.Option, len(p.Options))
		for i, o := range p.Options {
			product.Options[i] = models.Option{
				Name:     o.Name,
				Values:   o.Values,
				Position: o.Position,
			}
		}
	}

	if len(p.Images) > 0 {
		product.Images = make([]models.Image, len(p.Images))
		for i, img := range p.Images {
			product.Images[i] = models.Image{
				ID:         img.ID,
				Src:        img.Src,
				Alt:        deref(img.Alt),
				Position:   img.Position,
				VariantIDs: img.VariantIDs,
			}
		}
	}

	return product
}

// TransformVariant converts price and compare-at price independently.
// A compare-at price that converts to zero is dropped.
func (t *Transformer) TransformVariant(v StorefrontVariant) models.Variant {
	out := models.Variant{
		Price:             formatCents(t.converter.ConvertString(string(v.Price))),
		SKU:               deref(v.SKU),
		Option1:           deref(v.Option1),
		Option2:           deref(v.Option2),
		Option3:           deref(v.Option3),
		Barcode:           deref(v.Barcode),
		Weight:            v.Weight,
		WeightUnit:        deref(v.WeightUnit),
		Grams:             v.Grams,
		InventoryQuantity: v.InventoryQuantity,
		Taxable:           v.Taxable,
		RequiresShipping:  v.RequiresShipping,
		ImageID:           v.ImageID,
		Position:          v.Position,
	}
	if compare := t.converter.ConvertString(string(v.CompareAtPrice)); compare > 0 {
		out.CompareAtPrice = formatCents(compare)
	}
	return out
}

// TransformCollection maps a collection together with the products
// fetched for it.
func (t *Transformer) TransformCollection(c StorefrontCollection, products []StorefrontProduct) models.Collection {
	image := models.PlaceholderImage
	if c.Image != nil && c.Image.Src != "" {
		image = c.Image.Src
	}

	out := models.Collection{
		ID:          fmt.Sprintf("collection-%d", c.ID),
		Name:        c.Title,
		Description: StripDescription(c.BodyHTML),
		Image:       image,
		Products:    make([]models.Product, 0, len(products)),
	}
	for _, p := range products {
		out.Products = append(out.Products, t.TransformProduct(p))
	}
	return out
}

// TransformProducts maps a page-ordered slice of storefront products.
func (t *Transformer) TransformProducts(products []StorefrontProduct) []models.Product {
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		out = append(out, t.TransformProduct(p))
	}
	return out
}

// StripDescription removes HTML tags and truncates to the first 500
// characters. An empty body yields the default description.
func StripDescription(body string) string {
	if body == "" {
		return models.DefaultDescription
	}
	text := htmlTag.ReplaceAllString(body, "")
	if utf8.RuneCountInString(text) <= models.MaxDescriptionLen {
		return text
	}
	return string([]rune(text)[:models.MaxDescriptionLen])
}

func formatCents(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
