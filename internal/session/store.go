// Package session holds the per-user working set between a scrape and an
// upload: the scraped catalog, the current selection, the upload-ready set
// and the upload history.
package session

import (
	"context"
	"slices"
	"sync"
	"time"

	"shopclone/internal/models"
)

// State is a point-in-time copy of a Store.
type State struct {
	ID                     string                 `json:"id"`
	ScrapeStoreURL         string                 `json:"scrapeStoreUrl"`
	Products               []models.Product       `json:"products"`
	Collections            []models.Collection    `json:"collections"`
	SelectedProducts       []string               `json:"selectedProducts"`
	SelectedCollections    []string               `json:"selectedCollections"`
	UploadReadyProducts    []models.Product       `json:"uploadReadyProducts"`
	UploadReadyCollections []models.Collection    `json:"uploadReadyCollections"`
	History                []models.UploadHistory `json:"history"`
	CreatedAt              time.Time              `json:"createdAt"`
}

// Store is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	state State
}

func NewStore(id string) *Store {
	s := &Store{}
	s.state.ID = id
	s.state.CreatedAt = time.Now().UTC()
	return s
}

func (s *Store) ID() string {
	return s.state.ID
}

// SetCatalog replaces the scraped catalog and drops any selection that
// referred to the previous one. The ready set and history are kept.
func (s *Store) SetCatalog(catalog models.Catalog) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.ScrapeStoreURL = catalog.StoreURL
	s.state.Products = slices.Clone(catalog.Products)
	s.state.Collections = slices.Clone(catalog.Collections)
	s.state.SelectedProducts = nil
	s.state.SelectedCollections = nil
}

// ToggleProduct flips id in the product selection and reports whether it
// is now selected. Unknown ids are ignored.
func (s *Store) ToggleProduct(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !slices.ContainsFunc(s.state.Products, func(p models.Product) bool { return p.ID == id }) {
		return false
	}
	var selected bool
	s.state.SelectedProducts, selected = toggle(s.state.SelectedProducts, id)
	return selected
}

func (s *Store) ToggleCollection(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !slices.ContainsFunc(s.state.Collections, func(c models.Collection) bool { return c.ID == id }) {
		return false
	}
	var selected bool
	s.state.SelectedCollections, selected = toggle(s.state.SelectedCollections, id)
	return selected
}

// MoveSelectedToReady appends the selected items to the ready set, skipping
// ones already there, and clears the selection. It returns how many
// products and collections were added.
func (s *Store) MoveSelectedToReady() (products, collections int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.state.Products {
		if slices.Contains(s.state.SelectedProducts, p.ID) && s.addReadyProduct(p) {
			products++
		}
	}
	for _, c := range s.state.Collections {
		if slices.Contains(s.state.SelectedCollections, c.ID) && s.addReadyCollection(c) {
			collections++
		}
	}
	s.state.SelectedProducts = nil
	s.state.SelectedCollections = nil
	return products, collections
}

func (s *Store) AddReadyProducts(products ...models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range products {
		s.addReadyProduct(p)
	}
}

func (s *Store) AddReadyCollections(collections ...models.Collection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range collections {
		s.addReadyCollection(c)
	}
}

// RemoveReadyProduct reports whether a product with id was removed.
func (s *Store) RemoveReadyProduct(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.state.UploadReadyProducts)
	s.state.UploadReadyProducts = slices.DeleteFunc(s.state.UploadReadyProducts, func(p models.Product) bool { return p.ID == id })
	return len(s.state.UploadReadyProducts) != n
}

func (s *Store) RemoveReadyCollection(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.state.UploadReadyCollections)
	s.state.UploadReadyCollections = slices.DeleteFunc(s.state.UploadReadyCollections, func(c models.Collection) bool { return c.ID == id })
	return len(s.state.UploadReadyCollections) != n
}

func (s *Store) ClearSelected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SelectedProducts = nil
	s.state.SelectedCollections = nil
}

// ReadySet returns copies of the upload-ready products and collections.
func (s *Store) ReadySet() ([]models.Product, []models.Collection) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.state.UploadReadyProducts), slices.Clone(s.state.UploadReadyCollections)
}

// AddHistory prepends h so the newest upload comes first.
func (s *Store) AddHistory(h models.UploadHistory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.History = slices.Insert(s.state.History, 0, h)
}

func (s *Store) RemoveHistory(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.state.History)
	s.state.History = slices.DeleteFunc(s.state.History, func(h models.UploadHistory) bool { return h.ID == id })
	return len(s.state.History) != n
}

func (s *Store) History() []models.UploadHistory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return nonNil(slices.Clone(s.state.History))
}

// RecordHistory lets a Store receive upload records directly.
func (s *Store) RecordHistory(_ context.Context, h models.UploadHistory) error {
	s.AddHistory(h)
	return nil
}

// Snapshot returns a copy with every list non-nil.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := s.state
	st.Products = nonNil(slices.Clone(st.Products))
	st.Collections = nonNil(slices.Clone(st.Collections))
	st.SelectedProducts = nonNil(slices.Clone(st.SelectedProducts))
	st.SelectedCollections = nonNil(slices.Clone(st.SelectedCollections))
	st.UploadReadyProducts = nonNil(slices.Clone(st.UploadReadyProducts))
	st.UploadReadyCollections = nonNil(slices.Clone(st.UploadReadyCollections))
	st.History = nonNil(slices.Clone(st.History))
	return st
}

func (s *Store) addReadyProduct(p models.Product) bool {
	if slices.ContainsFunc(s.state.UploadReadyProducts, func(r models.Product) bool { return r.ID == p.ID }) {
		return false
	}
	s.state.UploadReadyProducts = append(s.state.UploadReadyProducts, p)
	return true
}

func (s *Store) addReadyCollection(c models.Collection) bool {
	if slices.ContainsFunc(s.state.UploadReadyCollections, func(r models.Collection) bool { return r.ID == c.ID }) {
		return false
	}
	s.state.UploadReadyCollections = append(s.state.UploadReadyCollections, c)
	return true
}

func toggle(ids []string, id string) ([]string, bool) {
	if i := slices.Index(ids, id); i >= 0 {
		return slices.Delete(ids, i, i+1), false
	}
	return append(ids, id), true
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
