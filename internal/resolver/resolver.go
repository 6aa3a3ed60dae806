// Package resolver serves resolved studio routing, recomputing a studio's
// tables only when its stored routing changes.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"studiorouter/internal/logging"
	"studiorouter/internal/routing"
	"studiorouter/internal/studio"
)

// Store is the subset of studio.Store the resolver reads from.
type Store interface {
	Get(ctx context.Context, id string) (*studio.Studio, error)
	Subscribe(fn func(studio.Change)) (cancel func())
}

type entry struct {
	hash       string
	resolution routing.Resolution
}

// Resolver caches one Resolution per studio, keyed by the studio's mappings
// hash. Cached entries are dropped when the store reports a routing change.
// It is safe for concurrent use.
type Resolver struct {
	store  Store
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[string]entry

	cancel func()
}

// New subscribes to store changes and returns a ready resolver.
func New(store Store, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Resolver{
		store:   store,
		logger:  logging.NewComponentLogger(logger, "resolver"),
		entries: make(map[string]entry),
	}
	r.cancel = store.Subscribe(r.handleChange)
	return r
}

// Close stops listening for store changes.
func (r *Resolver) Close() {
	if r == nil || r.cancel == nil {
		return
	}
	r.cancel()
}

func (r *Resolver) handleChange(change studio.Change) {
	if !change.MappingsChanged {
		return
	}
	r.mu.Lock()
	_, cached := r.entries[change.StudioID]
	delete(r.entries, change.StudioID)
	r.mu.Unlock()
	if cached {
		r.logger.Debug("routing cache invalidated",
			logging.String(logging.FieldStudioID, change.StudioID),
			logging.String("change", string(change.Kind)),
			logging.String("mappings_hash", change.MappingsHash),
		)
	}
}

// Explain returns the full resolution for the studio, including the
// decision trace.
func (r *Resolver) Explain(ctx context.Context, studioID string) (routing.Resolution, error) {
	resolution, _, err := r.Resolve(ctx, studioID)
	return resolution, err
}

// Resolve returns the studio's resolution together with the mappings hash of
// the configuration it was computed from.
func (r *Resolver) Resolve(ctx context.Context, studioID string) (routing.Resolution, string, error) {
	st, err := r.store.Get(ctx, studioID)
	if err != nil {
		return routing.Resolution{}, "", err
	}
	if st == nil {
		return routing.Resolution{}, "", fmt.Errorf("%s: %w", studioID, studio.ErrNotFound)
	}

	r.mu.RLock()
	cached, ok := r.entries[studioID]
	r.mu.RUnlock()
	if ok && cached.hash == st.MappingsHash {
		return cloneResolution(cached.resolution), cached.hash, nil
	}

	resolution := st.Explain()
	r.mu.Lock()
	r.entries[studioID] = entry{hash: st.MappingsHash, resolution: resolution}
	r.mu.Unlock()
	r.logger.Debug("routing resolved",
		logging.String(logging.FieldStudioID, studioID),
		logging.String("mappings_hash", st.MappingsHash),
		logging.Int("layers", resolution.Mappings.Len()),
		logging.Int("collisions", len(resolution.Collisions)),
	)
	return cloneResolution(resolution), st.MappingsHash, nil
}

// EffectiveMappings returns the studio's resolved mapping table.
func (r *Resolver) EffectiveMappings(ctx context.Context, studioID string) (*routing.Mappings, error) {
	resolution, err := r.Explain(ctx, studioID)
	if err != nil {
		return nil, err
	}
	return resolution.Mappings, nil
}

// ActiveRoutes returns the routes currently applied in the studio.
func (r *Resolver) ActiveRoutes(ctx context.Context, studioID string) (routing.ActiveRoutes, error) {
	resolution, err := r.Explain(ctx, studioID)
	if err != nil {
		return nil, err
	}
	return resolution.Routes, nil
}

// Cached reports whether a resolution for the studio is held.
func (r *Resolver) Cached(studioID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[studioID]
	return ok
}

func cloneResolution(res routing.Resolution) routing.Resolution {
	out := res
	out.Mappings = res.Mappings.Clone()
	if res.Routes != nil {
		out.Routes = make(routing.ActiveRoutes, len(res.Routes))
		for layer, outcomes := range res.Routes {
			copied := make([]routing.RouteOutcome, len(outcomes))
			for i, outcome := range outcomes {
				copied[i] = routing.RouteOutcome{
					OutputMappedLayer: outcome.OutputMappedLayer,
					Remapping:         outcome.Remapping.Clone(),
				}
			}
			out.Routes[layer] = copied
		}
	}
	out.Applied = append([]string(nil), res.Applied...)
	out.Inactive = append([]string(nil), res.Inactive...)
	out.Suppressed = append([]routing.Suppression(nil), res.Suppressed...)
	out.Inert = append([]routing.InertRoute(nil), res.Inert...)
	if res.Collisions != nil {
		out.Collisions = make([]routing.Collision, len(res.Collisions))
		for i, c := range res.Collisions {
			out.Collisions[i] = routing.Collision{OutputLayer: c.OutputLayer, Sources: append([]string(nil), c.Sources...)}
		}
	}
	return out
}
