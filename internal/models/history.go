package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// UploadHistory records one publish operation.
type UploadHistory struct {
	ID              string    `json:"id"`
	ScrapeStoreURL  string    `json:"scrapeStoreUrl"`
	MyStoreURL      string    `json:"myStoreUrl"`
	ProductNames    []string  `json:"productNames"`
	CollectionNames []string  `json:"collectionNames"`
	DateTime        time.Time `json:"dateTime"`
}

func NewUploadHistory(scrapeStoreURL, myStoreURL string, products []Product, collections []Collection) UploadHistory {
	h := UploadHistory{
		ID:              uuid.New().String(),
		ScrapeStoreURL:  scrapeStoreURL,
		MyStoreURL:      myStoreURL,
		ProductNames:    make([]string, 0, len(products)),
		CollectionNames: make([]string, 0, len(collections)),
		DateTime:        time.Now().UTC(),
	}
	for _, p := range products {
		h.ProductNames = append(h.ProductNames, p.Name)
	}
	for _, c := range collections {
		h.CollectionNames = append(h.CollectionNames, c.Name)
	}
	return h
}

// Validate checks the fields a consumer relies on.
func (h UploadHistory) Validate() error {
	if h.ID == "" {
		return errors.New("history id is required")
	}
	if _, err := uuid.Parse(h.ID); err != nil {
		return errors.New("history id must be a uuid")
	}
	if h.MyStoreURL == "" {
		return errors.New("destination store url is required")
	}
	if h.DateTime.IsZero() {
		return errors.New("history timestamp is required")
	}
	return nil
}
