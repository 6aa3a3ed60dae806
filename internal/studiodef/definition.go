package studiodef

import (
	"errors"
	"fmt"
	"maps"

	"studiorouter/internal/routing"
	"studiorouter/internal/studio"
)

// Definition is one studio as authored in a definition file.
type Definition struct {
	ID                string                    `json:"id"`
	Name              string                    `json:"name,omitempty"`
	OrganizationID    string                    `json:"organization_id,omitempty"`
	BlueprintID       string                    `json:"blueprint_id,omitempty"`
	Settings          studio.Settings           `json:"settings"`
	BlueprintConfig   map[string]any            `json:"blueprint_config,omitempty"`
	ExclusivityGroups []studio.ExclusivityGroup `json:"exclusivity_groups,omitempty"`
	Mappings          []routing.LayerMapping    `json:"mappings,omitempty"`
	RouteSets         routing.RouteSets         `json:"route_sets,omitempty"`

	// Source is the file the definition was loaded from.
	Source string `json:"-"`
}

// Validate reports problems the schema cannot express: repeated layer names
// and route set IDs.
func (d *Definition) Validate() error {
	var errs []error
	layers := make(map[string]struct{}, len(d.Mappings))
	for _, entry := range d.Mappings {
		if _, dup := layers[entry.Layer]; dup {
			errs = append(errs, fmt.Errorf("mapping %q: duplicate layer", entry.Layer))
			continue
		}
		layers[entry.Layer] = struct{}{}
	}
	if err := d.RouteSets.Validate(); err != nil {
		errs = append(errs, err)
	}
	groups := make(map[string]struct{}, len(d.ExclusivityGroups))
	for _, group := range d.ExclusivityGroups {
		if _, dup := groups[group.ID]; dup {
			errs = append(errs, fmt.Errorf("exclusivity group %q: duplicate id", group.ID))
		}
		groups[group.ID] = struct{}{}
	}
	return errors.Join(errs...)
}

// ToStudio converts the definition into a storable studio.
func (d *Definition) ToStudio() *studio.Studio {
	st := &studio.Studio{
		ID:                d.ID,
		Name:              d.Name,
		OrganizationID:    d.OrganizationID,
		BlueprintID:       d.BlueprintID,
		Settings:          d.Settings,
		BlueprintConfig:   maps.Clone(d.BlueprintConfig),
		Mappings:          routing.MappingsFromList(d.Mappings).Clone(),
		RouteSets:         d.RouteSets.Clone(),
		ExclusivityGroups: append([]studio.ExclusivityGroup(nil), d.ExclusivityGroups...),
	}
	for i := range st.ExclusivityGroups {
		if st.ExclusivityGroups[i].Name == "" {
			st.ExclusivityGroups[i].Name = st.ExclusivityGroups[i].ID
		}
	}
	return st
}

// FromStudio builds the definition that recreates st.
func FromStudio(st *studio.Studio) *Definition {
	sets := st.RouteSets.Clone()
	for i := range sets {
		if sets[i].Routes == nil {
			sets[i].Routes = []routing.Route{}
		}
	}
	return &Definition{
		ID:                st.ID,
		Name:              st.Name,
		OrganizationID:    st.OrganizationID,
		BlueprintID:       st.BlueprintID,
		Settings:          st.Settings,
		BlueprintConfig:   maps.Clone(st.BlueprintConfig),
		ExclusivityGroups: append([]studio.ExclusivityGroup(nil), st.ExclusivityGroups...),
		Mappings:          st.Mappings.Clone().List(),
		RouteSets:         sets,
	}
}
