package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/coopsite/apiserver/internal/catalog"
	"github.com/coopsite/apiserver/internal/services"
	"github.com/coopsite/apiserver/types"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServicesRouter(t *testing.T) *chi.Mux {
	t.Helper()

	document := `[
		{"id": "savings", "title": "Savings Accounts"},
		{"id": "credit", "title": "Member Credit Lines"}
	]`
	path := filepath.Join(t.TempDir(), "services.json")
	require.NoError(t, os.WriteFile(path, []byte(document), 0o600))

	catalogService, err := services.NewCatalogService(context.Background(), catalog.NewFileSource(path))
	require.NoError(t, err)

	router := chi.NewRouter()
	router.Route("/api/services", func(r chi.Router) {
		ServicesRouter(r, catalogService)
	})
	return router
}

func TestListServices(t *testing.T) {
	router := newServicesRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/services", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var listed []types.Service
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&listed))
	require.Len(t, listed, 2)
	assert.Equal(t, "savings", listed[0].ID)
}

func TestGetService(t *testing.T) {
	router := newServicesRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/services/credit", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var svc types.Service
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&svc))
	assert.Equal(t, "Member Credit Lines", svc.Title)
}

func TestGetServiceNotFound(t *testing.T) {
	router := newServicesRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/services/unknown", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
