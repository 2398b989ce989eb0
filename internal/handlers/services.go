package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/coopsite/apiserver/internal/services"
	"github.com/coopsite/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
)

// ServicesHandler serves the read-only services catalog.
type ServicesHandler struct {
	catalog *services.CatalogService
}

func NewServicesHandler(catalog *services.CatalogService) *ServicesHandler {
	return &ServicesHandler{catalog: catalog}
}

// ServicesRouter registers catalog routes on the given router.
func ServicesRouter(r chi.Router, catalog *services.CatalogService) {
	handler := NewServicesHandler(catalog)

	r.Get("/", handler.ListServices)
	r.Get("/{serviceID}", handler.GetService)
}

func (h *ServicesHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.List())
}

func (h *ServicesHandler) GetService(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "serviceID"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "service id is required")
		return
	}

	svc, err := h.catalog.Get(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "service not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch service")
		return
	}
	writeJSON(w, http.StatusOK, svc)
}
