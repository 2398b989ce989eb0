package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/coopsite/apiserver/internal/catalog"
	"github.com/coopsite/apiserver/internal/store"
	"github.com/coopsite/apiserver/types"
)

// CatalogService serves the read-only services catalog. The catalog is
// loaded once at startup; content changes require a restart, the same as
// any other static asset of the site.
type CatalogService struct {
	services []types.Service
	byID     map[string]types.Service
}

// NewCatalogService reads and parses the catalog document from the source.
func NewCatalogService(ctx context.Context, source catalog.Source) (*CatalogService, error) {
	rc, err := source.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open catalog source: %w", err)
	}
	defer rc.Close()

	var services []types.Service
	if err := json.NewDecoder(rc).Decode(&services); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	byID := make(map[string]types.Service, len(services))
	for _, svc := range services {
		byID[svc.ID] = svc
	}

	return &CatalogService{
		services: services,
		byID:     byID,
	}, nil
}

// List returns all catalog entries in document order.
func (s *CatalogService) List() []types.Service {
	out := make([]types.Service, len(s.services))
	copy(out, s.services)
	return out
}

// Get returns the entry with the given id, or store.ErrNotFound.
func (s *CatalogService) Get(id string) (types.Service, error) {
	svc, ok := s.byID[id]
	if !ok {
		return types.Service{}, store.ErrNotFound
	}
	return svc, nil
}
