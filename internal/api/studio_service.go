package api

import (
	"context"
	"fmt"

	"studiorouter/internal/routing"
	"studiorouter/internal/studio"
	"studiorouter/internal/studiodef"
)

// StudioStore abstracts the studio persistence operations the service needs.
type StudioStore interface {
	List(ctx context.Context) ([]*studio.Studio, error)
	Get(ctx context.Context, id string) (*studio.Studio, error)
	Replace(ctx context.Context, st *studio.Studio) (*studio.Studio, error)
	Delete(ctx context.Context, id string) error
	SetRouteSetActive(ctx context.Context, studioID, routeSetID string, active, force bool) (*studio.Studio, error)
}

// RoutingReader serves resolved routing, typically from a cache. Resolve
// reports the mappings hash of the configuration the resolution came from.
type RoutingReader interface {
	Resolve(ctx context.Context, studioID string) (routing.Resolution, string, error)
}

// StudioService exposes studio operations returning API DTOs.
type StudioService struct {
	store   StudioStore
	routing RoutingReader
}

// NewStudioService constructs a StudioService. When reader is nil routing is
// resolved directly from the stored studio on every call.
func NewStudioService(store StudioStore, reader RoutingReader) *StudioService {
	if store == nil {
		return nil
	}
	return &StudioService{store: store, routing: reader}
}

// List returns every studio as a summary.
func (s *StudioService) List(ctx context.Context) ([]StudioSummary, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	studios, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return FromStudios(studios), nil
}

// Describe fetches a single studio. It returns nil when the studio does not
// exist.
func (s *StudioService) Describe(ctx context.Context, id string) (*Studio, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	st, err := s.store.Get(ctx, id)
	if err != nil || st == nil {
		return nil, err
	}
	dto := FromStudio(st)
	return &dto, nil
}

// EffectiveMappings returns the resolved mapping table, or the configured
// base table when base is set.
func (s *StudioService) EffectiveMappings(ctx context.Context, id string, base bool) (*MappingsResponse, error) {
	st, err := s.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := &MappingsResponse{StudioID: st.ID, MappingsHash: st.MappingsHash, Base: base}
	if base {
		resp.Mappings = FromMappings(st.Mappings)
		return resp, nil
	}
	res, hash, err := s.explain(ctx, st)
	if err != nil {
		return nil, err
	}
	resp.MappingsHash = hash
	resp.Mappings = FromMappings(res.Mappings)
	return resp, nil
}

// ActiveRoutes returns the routes applied in the studio.
func (s *StudioService) ActiveRoutes(ctx context.Context, id string) (*RoutesResponse, error) {
	st, err := s.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}
	res, hash, err := s.explain(ctx, st)
	if err != nil {
		return nil, err
	}
	return &RoutesResponse{StudioID: st.ID, MappingsHash: hash, Routes: FromActiveRoutes(res.Routes)}, nil
}

// Explain returns the resolution of the studio with its decision trace.
func (s *StudioService) Explain(ctx context.Context, id string) (*Resolution, error) {
	st, err := s.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}
	res, hash, err := s.explain(ctx, st)
	if err != nil {
		return nil, err
	}
	dto := FromResolution(st.ID, hash, res)
	return &dto, nil
}

// SetRouteSetActive switches a route set and returns the updated studio.
func (s *StudioService) SetRouteSetActive(ctx context.Context, studioID, routeSetID string, req RouteSetActivationRequest) (*Studio, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("%s: %w", studioID, studio.ErrNotFound)
	}
	st, err := s.store.SetRouteSetActive(ctx, studioID, routeSetID, req.Active, req.Force)
	if err != nil {
		return nil, err
	}
	dto := FromStudio(st)
	return &dto, nil
}

// Delete removes a studio.
func (s *StudioService) Delete(ctx context.Context, id string) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("%s: %w", id, studio.ErrNotFound)
	}
	return s.store.Delete(ctx, id)
}

// Import stores every definition, replacing studios with the same ID. A
// failing definition does not stop the others.
func (s *StudioService) Import(ctx context.Context, defs []*studiodef.Definition) ImportResult {
	result := ImportResult{Imported: []string{}}
	for _, def := range defs {
		if def == nil {
			continue
		}
		stored, err := s.store.Replace(ctx, def.ToStudio())
		if err != nil {
			source := def.Source
			if source == "" {
				source = def.ID
			}
			result.Failed = append(result.Failed, ImportFailure{Source: source, Error: err.Error()})
			continue
		}
		result.Imported = append(result.Imported, stored.ID)
	}
	return result
}

func (s *StudioService) mustGet(ctx context.Context, id string) (*studio.Studio, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("%s: %w", id, studio.ErrNotFound)
	}
	st, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, fmt.Errorf("%s: %w", id, studio.ErrNotFound)
	}
	return st, nil
}

// explain resolves st and returns the hash the resolution belongs to. The
// reader loads its own copy of the studio, so its hash wins over st's.
func (s *StudioService) explain(ctx context.Context, st *studio.Studio) (routing.Resolution, string, error) {
	if s.routing == nil {
		return st.Explain(), st.MappingsHash, nil
	}
	return s.routing.Resolve(ctx, st.ID)
}
