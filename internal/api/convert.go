package api

import (
	"maps"
	"slices"
	"time"

	"studiorouter/internal/routing"
	"studiorouter/internal/studio"
)

// FromMapping converts one layer of a table.
func FromMapping(layer string, m routing.Mapping) Mapping {
	dto := Mapping{
		Layer:                      layer,
		Device:                     m.Device,
		DeviceID:                   m.DeviceID,
		Lookahead:                  string(m.Lookahead),
		LookaheadDepth:             copyPtr(m.LookaheadDepth),
		LookaheadMaxSearchDistance: copyPtr(m.LookaheadMaxSearchDistance),
		LayerName:                  m.LayerName,
		Internal:                   m.Internal,
	}
	if len(m.Options) > 0 {
		dto.Options = maps.Clone(m.Options)
	}
	return dto
}

// FromMappings converts a table, keeping its layer order.
func FromMappings(table *routing.Mappings) []Mapping {
	out := make([]Mapping, 0, table.Len())
	table.Each(func(layer string, m routing.Mapping) bool {
		out = append(out, FromMapping(layer, m))
		return true
	})
	return out
}

// FromRemapping converts a route override; nil stays nil.
func FromRemapping(r *routing.Remapping) *Remapping {
	if r.IsZero() {
		return nil
	}
	dto := &Remapping{
		Device:                     copyPtr(r.Device),
		DeviceID:                   copyPtr(r.DeviceID),
		LookaheadDepth:             copyPtr(r.LookaheadDepth),
		LookaheadMaxSearchDistance: copyPtr(r.LookaheadMaxSearchDistance),
		LayerName:                  copyPtr(r.LayerName),
		Internal:                   copyPtr(r.Internal),
	}
	if r.Lookahead != nil {
		mode := string(*r.Lookahead)
		dto.Lookahead = &mode
	}
	if len(r.Options) > 0 {
		dto.Options = maps.Clone(r.Options)
	}
	return dto
}

// FromRouteSet converts a route set and its routes.
func FromRouteSet(set routing.RouteSet) RouteSet {
	dto := RouteSet{
		ID:               set.ID,
		Name:             set.Name,
		Active:           set.Active,
		ExclusivityGroup: set.ExclusivityGroup,
		Behavior:         set.Behavior.String(),
		Routes:           make([]Route, 0, len(set.Routes)),
	}
	for _, route := range set.Routes {
		dto.Routes = append(dto.Routes, Route{
			MappedLayer:       route.MappedLayer,
			OutputMappedLayer: route.OutputMappedLayer,
			Remapping:         FromRemapping(route.Remapping),
			Inert:             route.Inert(),
		})
	}
	return dto
}

// FromActiveRoutes flattens the source-keyed table. Sources are sorted by
// name; outcomes keep configuration order.
func FromActiveRoutes(routes routing.ActiveRoutes) []ActiveRoute {
	out := make([]ActiveRoute, 0, len(routes))
	for _, source := range slices.Sorted(maps.Keys(routes)) {
		for _, outcome := range routes[source] {
			out = append(out, ActiveRoute{
				SourceLayer: source,
				OutputLayer: outcome.OutputMappedLayer,
				Remapping:   FromRemapping(outcome.Remapping),
			})
		}
	}
	return out
}

// FromStudioSummary converts a studio to its list view.
func FromStudioSummary(st *studio.Studio) StudioSummary {
	if st == nil {
		return StudioSummary{}
	}
	dto := StudioSummary{
		ID:              st.ID,
		Name:            st.Name,
		BlueprintID:     st.BlueprintID,
		MappingCount:    st.Mappings.Len(),
		RouteSetCount:   len(st.RouteSets),
		ActiveRouteSets: []string{},
		MappingsHash:    st.MappingsHash,
		UpdatedAt:       formatTime(st.UpdatedAt),
	}
	for _, set := range st.RouteSets {
		if set.Active {
			dto.ActiveRouteSets = append(dto.ActiveRouteSets, set.ID)
		}
	}
	return dto
}

// FromStudios converts a list of studios to summaries.
func FromStudios(studios []*studio.Studio) []StudioSummary {
	out := make([]StudioSummary, 0, len(studios))
	for _, st := range studios {
		out = append(out, FromStudioSummary(st))
	}
	return out
}

// FromStudio converts a studio to its detail view.
func FromStudio(st *studio.Studio) Studio {
	if st == nil {
		return Studio{}
	}
	dto := Studio{
		StudioSummary:  FromStudioSummary(st),
		OrganizationID: st.OrganizationID,
		Settings: StudioSettings{
			MediaPreviewsURL:       st.Settings.MediaPreviewsURL,
			CoreURL:                st.Settings.CoreURL,
			SlackEvaluationURLs:    st.Settings.SlackEvaluationURLs,
			SupportedMediaFormats:  st.Settings.SupportedMediaFormats,
			SupportedAudioStreams:  st.Settings.SupportedAudioStreams,
			EnablePlayFromAnywhere: st.Settings.EnablePlayFromAnywhere,
			ForceSettingNowTime:    st.Settings.ForceSettingNowTime,
			NowSafeLatencyMS:       st.Settings.NowSafeLatencyMS,
		},
		RundownVersionHash: st.RundownVersionHash,
		CreatedAt:          formatTime(st.CreatedAt),
		Mappings:           FromMappings(st.Mappings),
		RouteSets:          make([]RouteSet, 0, len(st.RouteSets)),
		ExclusivityGroups:  make([]ExclusivityGroup, 0, len(st.ExclusivityGroups)),
	}
	if len(st.BlueprintConfig) > 0 {
		dto.BlueprintConfig = maps.Clone(st.BlueprintConfig)
	}
	for _, set := range st.RouteSets {
		dto.RouteSets = append(dto.RouteSets, FromRouteSet(set))
	}
	for _, group := range st.ExclusivityGroups {
		dto.ExclusivityGroups = append(dto.ExclusivityGroups, ExclusivityGroup{ID: group.ID, Name: group.Name})
	}
	return dto
}

// FromResolution converts a resolution and its trace.
func FromResolution(studioID, hash string, res routing.Resolution) Resolution {
	dto := Resolution{
		StudioID:     studioID,
		MappingsHash: hash,
		Mappings:     FromMappings(res.Mappings),
		Routes:       FromActiveRoutes(res.Routes),
		Applied:      nonNil(res.Applied),
		Inactive:     nonNil(res.Inactive),
		Suppressed:   make([]Suppression, 0, len(res.Suppressed)),
		Inert:        make([]InertRoute, 0, len(res.Inert)),
		Collisions:   make([]Collision, 0, len(res.Collisions)),
	}
	for _, s := range res.Suppressed {
		dto.Suppressed = append(dto.Suppressed, Suppression{RouteSetID: s.RouteSetID, Group: s.Group, WinnerID: s.WinnerID})
	}
	for _, r := range res.Inert {
		dto.Inert = append(dto.Inert, InertRoute{RouteSetID: r.RouteSetID, Index: r.Index})
	}
	for _, c := range res.Collisions {
		dto.Collisions = append(dto.Collisions, Collision{OutputLayer: c.OutputLayer, Sources: nonNil(c.Sources)})
	}
	return dto
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

func copyPtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return slices.Clone(values)
}
