package handler

import (
	"log/slog"
	"net/http"

	"chatrelay/internal/catalog"
	"chatrelay/internal/httputil"
)

// ModelsHandler serves the chat model catalog
type ModelsHandler struct {
	catalog *catalog.Registry
	logger  *slog.Logger
}

// NewModelsHandler creates a new models handler
func NewModelsHandler(catalog *catalog.Registry, logger *slog.Logger) *ModelsHandler {
	return &ModelsHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// List returns the selectable chat models
// GET /api/models
func (h *ModelsHandler) List(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.catalog.List())
}
