package shopify

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"shopclone/internal/currency"
	"shopclone/internal/logger"
	"shopclone/internal/models"
)

const (
	DefaultExistenceDelay = 200 * time.Millisecond

	knownTitleCacheSize = 4096
)

// AdminAPI is the part of the Admin API the publisher needs.
type AdminAPI interface {
	ListProducts(ctx context.Context, page int) ([]AdminProduct, error)
	ListSmartCollections(ctx context.Context) ([]AdminCollection, error)
	ListCustomCollections(ctx context.Context) ([]AdminCollection, error)
	CreateProduct(ctx context.Context, input ProductInput) (*AdminProduct, error)
	UpdateVariantImage(ctx context.Context, variantID, imageID int64) error
	CreateSmartCollection(ctx context.Context, input SmartCollectionInput) (*AdminCollection, error)
	CreateCustomCollection(ctx context.Context, input CustomCollectionInput) (*AdminCollection, error)
	AddCollect(ctx context.Context, collectionID, productID int64) error
}

// PublishOptions are the user-supplied knobs of one upload.
type PublishOptions struct {
	PriceMultiplier          float64
	PrefixKeyword            string
	DescriptionPrefixKeyword string
}

// Normalize trims the keywords and replaces a missing, non-positive or
// non-finite multiplier with 1.
func (o PublishOptions) Normalize() PublishOptions {
	m := o.PriceMultiplier
	if math.IsNaN(m) || math.IsInf(m, 0) || m <= 0 {
		m = 1
	}
	return PublishOptions{
		PriceMultiplier:          m,
		PrefixKeyword:            strings.TrimSpace(o.PrefixKeyword),
		DescriptionPrefixKeyword: strings.TrimSpace(o.DescriptionPrefixKeyword),
	}
}

// CollectionKind tells which creation strategy succeeded.
type CollectionKind int

const (
	CreatedSmart CollectionKind = iota + 1
	CreatedManual
)

func (k CollectionKind) String() string {
	switch k {
	case CreatedSmart:
		return "smart"
	case CreatedManual:
		return "manual"
	default:
		return "unknown"
	}
}

type CollectionResult struct {
	ID   int64
	Kind CollectionKind
	// Attached counts products explicitly added to a manual collection.
	Attached int
}

// LinkReport is the outcome of the variant-image pass for one product.
type LinkReport struct {
	Linked int
	Failed int
	Errors []error
}

func (r *LinkReport) fail(err error) {
	r.Failed++
	r.Errors = append(r.Errors, err)
}

// PublishResult holds the remote ids touched by an upload and the
// per-item failures. Errors never abort the batch.
type PublishResult struct {
	ProductIDs    []int64
	CollectionIDs []int64
	Errors        []string
}

type PublisherOption func(*Publisher)

func WithPublisherMetrics(m *Metrics) PublisherOption {
	return func(p *Publisher) { p.metrics = m }
}

// WithExistenceDelay sets the pause between product-list pages during
// existence checks.
func WithExistenceDelay(d time.Duration, sleep Sleeper) PublisherOption {
	return func(p *Publisher) {
		if d >= 0 {
			p.existenceDelay = d
		}
		if sleep != nil {
			p.sleep = sleep
		}
	}
}

// Publisher re-creates curated products and collections on a destination
// store. Writes are issued one at a time.
type Publisher struct {
	api            AdminAPI
	opts           PublishOptions
	logger         *logger.Logger
	metrics        *Metrics
	existenceDelay time.Duration
	sleep          Sleeper
	known          *lru.Cache[string, int64]
}

func NewPublisher(api AdminAPI, opts PublishOptions, log *logger.Logger, options ...PublisherOption) *Publisher {
	if log == nil {
		log = logger.NewNop()
	}
	known, _ := lru.New[string, int64](knownTitleCacheSize)
	p := &Publisher{
		api:            api,
		opts:           opts.Normalize(),
		logger:         log,
		existenceDelay: DefaultExistenceDelay,
		sleep:          sleepContext,
		known:          known,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// DeriveProductName replaces the first space-delimited word of name with
// prefix. An empty prefix leaves the name unchanged.
func DeriveProductName(name, prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return name
	}
	parts := strings.SplitN(name, " ", 2)
	parts[0] = prefix
	return strings.Join(parts, " ")
}

// FindProduct pages through destination products looking for an exact
// title match. Any fetch failure reports "not found".
func (p *Publisher) FindProduct(ctx context.Context, title string) (int64, bool) {
	if id, ok := p.known.Get(title); ok {
		return id, true
	}

	for page := 1; ; page++ {
		products, err := p.api.ListProducts(ctx, page)
		if err != nil {
			p.logger.Warn("Error checking if product exists: %s: %v", title, err)
			return 0, false
		}
		for _, product := range products {
			if product.Title == title {
				p.known.Add(title, product.ID)
				return product.ID, true
			}
		}
		if len(products) < PageLimit {
			return 0, false
		}
		if err := p.sleep(ctx, p.existenceDelay); err != nil {
			return 0, false
		}
	}
}

// CollectionExists checks smart and custom collections concurrently for an
// exact title match. A failed listing counts as no match.
func (p *Publisher) CollectionExists(ctx context.Context, title string) bool {
	var smart, custom []AdminCollection
	var g errgroup.Group

	g.Go(func() error {
		cols, err := p.api.ListSmartCollections(ctx)
		if err != nil {
			p.logger.Warn("Error listing smart collections: %v", err)
			return nil
		}
		smart = cols
		return nil
	})
	g.Go(func() error {
		cols, err := p.api.ListCustomCollections(ctx)
		if err != nil {
			p.logger.Warn("Error listing custom collections: %v", err)
			return nil
		}
		custom = cols
		return nil
	})
	_ = g.Wait()

	return hasTitle(smart, title) || hasTitle(custom, title)
}

// BuildProductInput prepares the create payload for product.
func (p *Publisher) BuildProductInput(product models.Product) ProductInput {
	input := ProductInput{
		Title:       DeriveProductName(product.Name, p.opts.PrefixKeyword),
		BodyHTML:    product.Description,
		Vendor:      product.Vendor,
		ProductType: product.ProductType,
		Tags:        product.Tags.Join(),
		Handle:      product.Handle,
		PublishedAt: product.PublishedAt,
	}
	if p.opts.DescriptionPrefixKeyword != "" {
		input.BodyHTML = p.opts.DescriptionPrefixKeyword + " " + product.Description
	}

	switch {
	case len(product.Images) > 0:
		input.Images = make([]ImageInput, len(product.Images))
		for i, img := range product.Images {
			input.Images[i] = ImageInput{Src: img.Src, Alt: img.Alt, Position: img.Position}
		}
	case product.Image != "":
		input.Images = []ImageInput{{Src: product.Image}}
	}

	if len(product.Options) > 0 {
		input.Options = make([]OptionInput, len(product.Options))
		for i, o := range product.Options {
			position := 1
			if o.Position != nil && *o.Position != 0 {
				position = *o.Position
			}
			input.Options[i] = OptionInput{Name: o.Name, Values: o.Values, Position: position}
		}
	}

	if len(product.Variants) > 0 {
		input.Variants = make([]VariantInput, len(product.Variants))
		for i, v := range product.Variants {
			input.Variants[i] = p.buildVariant(v)
		}
	} else {
		input.Variants = []VariantInput{{
			Price:           currency.ApplyMultiplier(strconv.FormatFloat(product.Price, 'f', -1, 64), p.opts.PriceMultiplier),
			InventoryPolicy: "deny",
		}}
	}

	return input
}

func (p *Publisher) buildVariant(v models.Variant) VariantInput {
	out := VariantInput{
		Price:             currency.ApplyMultiplier(v.Price, p.opts.PriceMultiplier),
		InventoryPolicy:   "deny",
		Option1:           v.Option1,
		Option2:           v.Option2,
		Option3:           v.Option3,
		SKU:               v.SKU,
		Barcode:           v.Barcode,
		Weight:            v.Weight,
		WeightUnit:        v.WeightUnit,
		Grams:             v.Grams,
		InventoryQuantity: v.InventoryQuantity,
		Taxable:           v.Taxable,
		RequiresShipping:  v.RequiresShipping,
		Position:          v.Position,
	}
	if v.CompareAtPrice != "" {
		out.CompareAtPrice = currency.ApplyMultiplier(v.CompareAtPrice, p.opts.PriceMultiplier)
	}
	return out
}

// ResolveVariantImages picks a source image for each variant, in order:
// image_id used as an index into images, then images carrying
// variant_ids taken in sequence, then the image at the variant's own
// position. Entries are nil where nothing applies.
func ResolveVariantImages(variants []models.Variant, images []models.Image) []*models.Image {
	var tagged []*models.Image
	for i := range images {
		if len(images[i].VariantIDs) > 0 {
			tagged = append(tagged, &images[i])
		}
	}

	out := make([]*models.Image, len(variants))
	for i, v := range variants {
		switch {
		case v.ImageID != nil && *v.ImageID >= 0 && *v.ImageID < int64(len(images)):
			out[i] = &images[*v.ImageID]
		case i < len(tagged):
			out[i] = tagged[i]
		case i < len(images):
			out[i] = &images[i]
		}
	}
	return out
}

// LinkVariantImages binds each created variant to the created image whose
// src equals the resolved source image. Failures are counted, not returned.
func (p *Publisher) LinkVariantImages(ctx context.Context, product models.Product, created *AdminProduct) LinkReport {
	var report LinkReport
	if created == nil || len(created.Variants) == 0 || len(product.Variants) == 0 ||
		len(created.Images) == 0 || len(product.Images) == 0 {
		return report
	}

	resolved := ResolveVariantImages(product.Variants, product.Images)
	n := min(len(created.Variants), len(product.Variants))
	for i := 0; i < n; i++ {
		label := product.Variants[i].Label(i)
		source := resolved[i]
		if source == nil {
			report.fail(fmt.Errorf("no matching image found for variant %s", label))
			continue
		}

		imageID, ok := findImageBySrc(created.Images, source.Src)
		if !ok {
			report.fail(fmt.Errorf("could not find created image matching %s for variant %s", source.Src, label))
			continue
		}

		variantID := created.Variants[i].ID
		if err := p.api.UpdateVariantImage(ctx, variantID, imageID); err != nil {
			report.fail(err)
			continue
		}
		p.logger.Debug("Associated image ID %d with variant %q (variant ID: %d)", imageID, label, variantID)
		report.Linked++
	}

	for _, err := range report.Errors {
		p.logger.Warn("Variant image association failed: %v", err)
	}
	p.metrics.addUploads("variant_image", "linked", report.Linked)
	p.metrics.addUploads("variant_image", "failed", report.Failed)
	return report
}

// UploadProduct creates product unless a product with its derived name
// already exists, returning the remote id either way.
func (p *Publisher) UploadProduct(ctx context.Context, product models.Product) (id int64, existed bool, err error) {
	name := DeriveProductName(product.Name, p.opts.PrefixKeyword)
	if id, ok := p.FindProduct(ctx, name); ok {
		p.logger.Info("Product %q already exists (ID: %d), skipping", name, id)
		p.metrics.IncUpload("product", "existing")
		return id, true, nil
	}

	input := p.BuildProductInput(product)
	p.logger.Info("Uploading product %q with %d images, %d variants, %d options",
		name, len(input.Images), len(input.Variants), len(input.Options))

	created, err := p.api.CreateProduct(ctx, input)
	if err != nil {
		p.metrics.IncUpload("product", "failed")
		return 0, false, err
	}
	p.known.Add(name, created.ID)
	p.metrics.IncUpload("product", "created")

	report := p.LinkVariantImages(ctx, product, created)
	if report.Linked+report.Failed > 0 {
		p.logger.Info("Completed variant image associations for %q: %d successful, %d failed", name, report.Linked, report.Failed)
	}
	return created.ID, false, nil
}

// CreateCollection tries a smart collection whose single rule matches the
// given product ids. If that fails it creates a manual collection and
// attaches each product explicitly.
func (p *Publisher) CreateCollection(ctx context.Context, collection models.Collection, productIDs []int64) (CollectionResult, error) {
	image := collectionImage(collection.Image)

	ids := make([]string, len(productIDs))
	for i, id := range productIDs {
		ids[i] = strconv.FormatInt(id, 10)
	}
	smart, err := p.api.CreateSmartCollection(ctx, SmartCollectionInput{
		Title:    collection.Name,
		BodyHTML: collection.Description,
		Image:    image,
		Rules: []CollectionRule{{
			Column:    "id",
			Relation:  "equals",
			Condition: strings.Join(ids, ","),
		}},
	})
	if err == nil {
		p.metrics.IncUpload("collection", CreatedSmart.String())
		return CollectionResult{ID: smart.ID, Kind: CreatedSmart}, nil
	}
	p.logger.Warn("Failed to create smart collection %q, falling back to manual: %v", collection.Name, err)

	custom, err := p.api.CreateCustomCollection(ctx, CustomCollectionInput{
		Title:    collection.Name,
		BodyHTML: collection.Description,
		Image:    image,
	})
	if err != nil {
		p.metrics.IncUpload("collection", "failed")
		return CollectionResult{}, err
	}

	result := CollectionResult{ID: custom.ID, Kind: CreatedManual}
	for _, productID := range productIDs {
		if err := p.api.AddCollect(ctx, custom.ID, productID); err != nil {
			p.logger.Error("Failed to add product %d to collection %q: %v", productID, collection.Name, err)
			continue
		}
		result.Attached++
	}
	p.metrics.IncUpload("collection", CreatedManual.String())
	return result, nil
}

// Publish uploads standalone products first, then each collection that
// does not exist yet together with its products.
func (p *Publisher) Publish(ctx context.Context, products []models.Product, collections []models.Collection) PublishResult {
	var result PublishResult
	uploaded := newIDSet()

	if len(products) > 0 {
		p.logger.Info("Checking and uploading %d products", len(products))
	}
	for _, product := range products {
		id, _, err := p.UploadProduct(ctx, product)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Failed to upload product %q: %v", product.Name, err))
			continue
		}
		uploaded.add(id)
	}

	if len(collections) > 0 {
		p.logger.Info("Checking and uploading %d collections", len(collections))
	}
	for _, collection := range collections {
		if p.CollectionExists(ctx, collection.Name) {
			p.logger.Info("Collection %q already exists, skipping", collection.Name)
			p.metrics.IncUpload("collection", "existing")
			continue
		}

		var productIDs []int64
		for _, product := range collection.Products {
			id, _, err := p.UploadProduct(ctx, product)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("Failed to upload product %q in collection: %v", product.Name, err))
				continue
			}
			productIDs = append(productIDs, id)
			uploaded.add(id)
		}

		if len(productIDs) == 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Collection %q has no products to upload", collection.Name))
			continue
		}

		created, err := p.CreateCollection(ctx, collection, productIDs)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Failed to upload collection %q: %v", collection.Name, err))
			continue
		}
		p.logger.Info("Collection %q uploaded as %s collection", collection.Name, created.Kind)
		result.CollectionIDs = append(result.CollectionIDs, created.ID)
	}

	result.ProductIDs = uploaded.ids
	return result
}

// idSet keeps remote ids unique in insertion order.
type idSet struct {
	seen map[int64]struct{}
	ids  []int64
}

func newIDSet() *idSet {
	return &idSet{seen: make(map[int64]struct{})}
}

func (s *idSet) add(id int64) {
	if _, ok := s.seen[id]; ok {
		return
	}
	s.seen[id] = struct{}{}
	s.ids = append(s.ids, id)
}

func hasTitle(cols []AdminCollection, title string) bool {
	for _, c := range cols {
		if c.Title == title {
			return true
		}
	}
	return false
}

func findImageBySrc(images []AdminImage, src string) (int64, bool) {
	for _, img := range images {
		if img.Src == src && img.ID != 0 {
			return img.ID, true
		}
	}
	return 0, false
}

func collectionImage(src string) *CollectionImageInput {
	if src == "" {
		return nil
	}
	return &CollectionImageInput{Src: src}
}
