package handlers

import (
	"net/http"

	"shopclone/internal/logger"
	"shopclone/internal/session"

	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	sessions *session.Registry
	logger   *logger.Logger
}

func NewSessionHandler(sessions *session.Registry, logger *logger.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		logger:   logger,
	}
}

func (h *SessionHandler) Create(c *gin.Context) {
	store := h.sessions.Create()
	h.logger.Debug("Created session %s", store.ID())
	c.JSON(http.StatusCreated, store.Snapshot())
}

func (h *SessionHandler) Get(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, store.Snapshot())
}

// ToggleSelection flips each listed id in the selection.
func (h *SessionHandler) ToggleSelection(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}

	var request struct {
		ProductIDs    []string `json:"productIds"`
		CollectionIDs []string `json:"collectionIds"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	for _, id := range request.ProductIDs {
		store.ToggleProduct(id)
	}
	for _, id := range request.CollectionIDs {
		store.ToggleCollection(id)
	}

	st := store.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"selectedProducts":    st.SelectedProducts,
		"selectedCollections": st.SelectedCollections,
	})
}

func (h *SessionHandler) ClearSelection(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	store.ClearSelected()
	c.Status(http.StatusNoContent)
}

// MoveToReady moves the current selection into the upload-ready set.
func (h *SessionHandler) MoveToReady(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}

	products, collections := store.MoveSelectedToReady()
	st := store.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"movedProducts":          products,
		"movedCollections":       collections,
		"uploadReadyProducts":    st.UploadReadyProducts,
		"uploadReadyCollections": st.UploadReadyCollections,
	})
}

func (h *SessionHandler) RemoveReadyProduct(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	if !store.RemoveReadyProduct(c.Param("productId")) {
		fail(c, http.StatusNotFound, "Product not found")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) RemoveReadyCollection(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	if !store.RemoveReadyCollection(c.Param("collectionId")) {
		fail(c, http.StatusNotFound, "Collection not found")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) History(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": store.History()})
}

func (h *SessionHandler) RemoveHistory(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	if !store.RemoveHistory(c.Param("historyId")) {
		fail(c, http.StatusNotFound, "History entry not found")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) store(c *gin.Context) (*session.Store, bool) {
	store, ok := h.sessions.Get(c.Param("id"))
	if !ok {
		fail(c, http.StatusNotFound, "Session not found")
		return nil, false
	}
	return store, true
}
