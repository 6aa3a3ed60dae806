package routing

// RouteOutcome is what one applied route contributes for its source layer.
type RouteOutcome struct {
	OutputMappedLayer string     `json:"output_mapped_layer"`
	Remapping         *Remapping `json:"remapping,omitempty"`
}

// ActiveRoutes maps a source layer to every outcome routed from it, in the
// order the routes were configured.
type ActiveRoutes map[string][]RouteOutcome

// SelectActiveRoutes returns the routes of every active route set that is not
// suppressed by its exclusivity group.
//
// Route sets are visited in order. The first active set to name a group
// claims it; later active sets in the same group contribute nothing. Sets
// without a group always apply. Inert routes are skipped.
func SelectActiveRoutes(sets RouteSets) ActiveRoutes {
	return selectRoutes(sets, nil)
}

// RewriteMappings applies routes to base and returns the effective table.
//
// A routed layer yields one entry per outcome, keyed by the output layer,
// with the outcome's remapping merged over the base mapping. An unrouted
// layer is copied under its own name. When two writes land on the same
// output layer the later one wins and keeps the position of the first.
// base is not modified.
func RewriteMappings(base *Mappings, routes ActiveRoutes) *Mappings {
	return rewrite(base, routes, nil)
}

// Resolve returns the effective mappings for the given configuration.
func Resolve(sets RouteSets, base *Mappings) *Mappings {
	return RewriteMappings(base, SelectActiveRoutes(sets))
}

func selectRoutes(sets RouteSets, obs *Resolution) ActiveRoutes {
	routes := make(ActiveRoutes)
	claimed := make(map[string]string)

	for _, set := range sets {
		if !set.Active {
			obs.inactive(set.ID)
			continue
		}
		if group := set.ExclusivityGroup; group != "" {
			if winner, taken := claimed[group]; taken {
				obs.suppressed(set.ID, group, winner)
				continue
			}
			claimed[group] = set.ID
		}
		obs.applied(set.ID)
		for i, route := range set.Routes {
			if route.Inert() {
				obs.inert(set.ID, i)
				continue
			}
			routes[route.MappedLayer] = append(routes[route.MappedLayer], RouteOutcome{
				OutputMappedLayer: route.OutputMappedLayer,
				Remapping:         route.Remapping,
			})
		}
	}
	return routes
}

func rewrite(base *Mappings, routes ActiveRoutes, obs *Resolution) *Mappings {
	out := NewMappings()
	writers := make(map[string]string)
	write := func(output, source string, mapping Mapping) {
		if prev, ok := writers[output]; ok {
			obs.collision(output, prev, source)
		}
		writers[output] = source
		out.Set(output, mapping)
	}

	base.Each(func(layer string, mapping Mapping) bool {
		outcomes, routed := routes[layer]
		if !routed {
			write(layer, layer, mapping.Clone())
			return true
		}
		for _, outcome := range outcomes {
			write(outcome.OutputMappedLayer, layer, outcome.Remapping.Apply(mapping))
		}
		return true
	})
	return out
}
