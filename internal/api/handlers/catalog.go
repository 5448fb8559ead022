package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"shopclone/internal/api/middleware"
	"shopclone/internal/logger"
	"shopclone/internal/models"
	"shopclone/internal/services/pipeline"
	"shopclone/internal/services/shopify"
	"shopclone/internal/session"

	"github.com/gin-gonic/gin"
)

// CatalogService is the scrape/upload surface the handlers need.
type CatalogService interface {
	Scrape(ctx context.Context, storeURL string) (*models.Catalog, error)
	Upload(ctx context.Context, req pipeline.UploadRequest, extra ...pipeline.HistorySink) (*pipeline.UploadResult, error)
}

// scrapeResponse wraps a catalog in the success envelope.
type scrapeResponse struct {
	Success bool `json:"success"`
	*models.Catalog
}

type CatalogHandler struct {
	service  CatalogService
	sessions *session.Registry
	logger   *logger.Logger
}

func NewCatalogHandler(service CatalogService, sessions *session.Registry, logger *logger.Logger) *CatalogHandler {
	return &CatalogHandler{
		service:  service,
		sessions: sessions,
		logger:   logger,
	}
}

// Scrape crawls a source store and returns its normalized catalog.
func (h *CatalogHandler) Scrape(c *gin.Context) {
	var request struct {
		StoreURL string `json:"storeUrl"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	store, ok := h.boundSession(c)
	if !ok {
		return
	}

	catalog, err := h.service.Scrape(c.Request.Context(), request.StoreURL)
	if err != nil {
		h.respondError(c, "Scrape failed", err)
		return
	}

	if store != nil {
		store.SetCatalog(*catalog)
	}
	c.JSON(http.StatusOK, scrapeResponse{Success: true, Catalog: catalog})
}

// Upload publishes products and collections to a destination store. With a
// session bound and no items in the body, the session's ready set is used.
func (h *CatalogHandler) Upload(c *gin.Context) {
	var request pipeline.UploadRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	store, ok := h.boundSession(c)
	if !ok {
		return
	}

	var sinks []pipeline.HistorySink
	if store != nil {
		if len(request.Products) == 0 && len(request.Collections) == 0 {
			request.Products, request.Collections = store.ReadySet()
		}
		if request.SourceStoreURL == "" {
			request.SourceStoreURL = store.Snapshot().ScrapeStoreURL
		}
		sinks = append(sinks, store)
	}

	result, err := h.service.Upload(c.Request.Context(), request, sinks...)
	if err != nil {
		h.respondError(c, "Upload failed", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// boundSession resolves the optional session header. It writes a 404 and
// returns false when the header names an unknown session.
func (h *CatalogHandler) boundSession(c *gin.Context) (*session.Store, bool) {
	id := strings.TrimSpace(c.GetHeader(middleware.SessionHeader))
	if id == "" || h.sessions == nil {
		return nil, true
	}
	store, ok := h.sessions.Get(id)
	if !ok {
		fail(c, http.StatusNotFound, "Session not found")
		return nil, false
	}
	c.Header(middleware.SessionHeader, id)
	return store, true
}

func (h *CatalogHandler) respondError(c *gin.Context, action string, err error) {
	var validation *shopify.ValidationError
	if errors.As(err, &validation) {
		fail(c, http.StatusBadRequest, validation.Message)
		return
	}

	h.logger.Error("%s: %v", action, err)
	fail(c, http.StatusInternalServerError, pipeline.UserMessage(err))
}

// fail writes the failure envelope shared by every API error.
func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "error": message})
}
