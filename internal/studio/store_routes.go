package studio

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"studiorouter/internal/routing"
)

// SetMappings replaces the studio's base mappings.
func (s *Store) SetMappings(ctx context.Context, id string, mappings *routing.Mappings) (*Studio, error) {
	return s.update(ctx, id, func(st *Studio) error {
		st.Mappings = mappings.Clone()
		return nil
	})
}

// SetRouteSets replaces the studio's route sets, in order.
func (s *Store) SetRouteSets(ctx context.Context, id string, sets routing.RouteSets) (*Studio, error) {
	return s.update(ctx, id, func(st *Studio) error {
		st.RouteSets = sets.Clone()
		return nil
	})
}

// SetBlueprintConfig replaces the blueprint configuration.
func (s *Store) SetBlueprintConfig(ctx context.Context, id string, config map[string]any) (*Studio, error) {
	return s.update(ctx, id, func(st *Studio) error {
		st.BlueprintConfig = maps.Clone(config)
		return nil
	})
}

// SetSettings replaces the studio settings.
func (s *Store) SetSettings(ctx context.Context, id string, settings Settings) (*Studio, error) {
	return s.update(ctx, id, func(st *Studio) error {
		st.Settings = settings
		return nil
	})
}

// SetRouteSetActive switches a route set on or off. Activating a set
// deactivates every other set sharing its exclusivity group. Deactivating an
// activate-only set fails with ErrActivateOnly unless force is set.
func (s *Store) SetRouteSetActive(ctx context.Context, studioID, routeSetID string, active, force bool) (*Studio, error) {
	return s.update(ctx, studioID, func(st *Studio) error {
		idx := st.RouteSets.Index(routeSetID)
		if idx < 0 {
			return fmt.Errorf("%s/%s: %w", studioID, routeSetID, ErrRouteSetNotFound)
		}
		target := &st.RouteSets[idx]
		if !active && target.Behavior == routing.BehaviorActivateOnly && !force {
			return fmt.Errorf("%s/%s: %w", studioID, routeSetID, ErrActivateOnly)
		}
		target.Active = active
		if !active || target.ExclusivityGroup == "" {
			return nil
		}
		for i := range st.RouteSets {
			if i != idx && st.RouteSets[i].ExclusivityGroup == target.ExclusivityGroup {
				st.RouteSets[i].Active = false
			}
		}
		return nil
	})
}

// SetExclusivityGroup adds a named exclusivity group or renames an existing one.
func (s *Store) SetExclusivityGroup(ctx context.Context, studioID, groupID, name string) (*Studio, error) {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return nil, fmt.Errorf("%w: exclusivity group id is required", ErrInvalid)
	}
	if strings.TrimSpace(name) == "" {
		name = groupID
	}
	return s.update(ctx, studioID, func(st *Studio) error {
		for i := range st.ExclusivityGroups {
			if st.ExclusivityGroups[i].ID == groupID {
				st.ExclusivityGroups[i].Name = name
				return nil
			}
		}
		st.ExclusivityGroups = append(st.ExclusivityGroups, ExclusivityGroup{ID: groupID, Name: name})
		return nil
	})
}

// RemoveExclusivityGroup deletes a group from the catalogue. Groups still
// referenced by a route set cannot be removed.
func (s *Store) RemoveExclusivityGroup(ctx context.Context, studioID, groupID string) (*Studio, error) {
	return s.update(ctx, studioID, func(st *Studio) error {
		for _, set := range st.RouteSets {
			if set.ExclusivityGroup == groupID {
				return fmt.Errorf("%w: exclusivity group %q is used by route set %q", ErrInvalid, groupID, set.ID)
			}
		}
		kept := st.ExclusivityGroups[:0]
		found := false
		for _, group := range st.ExclusivityGroups {
			if group.ID == groupID {
				found = true
				continue
			}
			kept = append(kept, group)
		}
		if !found {
			return fmt.Errorf("%w: exclusivity group %q not found", ErrInvalid, groupID)
		}
		st.ExclusivityGroups = kept
		return nil
	})
}
