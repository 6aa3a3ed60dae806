package studio

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"studiorouter/internal/routing"
)

var (
	mappingsHashSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("studiorouter:mappings"))
	rundownHashSpace  = uuid.NewSHA1(uuid.NameSpaceURL, []byte("studiorouter:blueprint-config"))
)

// MappingsHash returns a stable identifier for a mappings + route sets
// snapshot. Equal configuration always yields the same hash, so a table
// resolved from one snapshot can be matched to it later.
func MappingsHash(mappings *routing.Mappings, sets routing.RouteSets) (string, error) {
	canonical := make(routing.RouteSets, len(sets))
	for i, set := range sets {
		canonical[i] = set
		if canonical[i].Routes == nil {
			canonical[i].Routes = []routing.Route{}
		}
	}
	payload := struct {
		Mappings  []routing.LayerMapping `json:"mappings"`
		RouteSets routing.RouteSets      `json:"route_sets"`
	}{Mappings: mappings.List(), RouteSets: canonical}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode mappings for hash: %w", err)
	}
	return uuid.NewSHA1(mappingsHashSpace, data).String(), nil
}

// RundownVersionHash returns a stable identifier for a blueprint config.
func RundownVersionHash(config map[string]any) (string, error) {
	if len(config) == 0 {
		config = map[string]any{}
	}
	data, err := json.Marshal(config)
	if err != nil {
		return "", fmt.Errorf("encode blueprint config for hash: %w", err)
	}
	return uuid.NewSHA1(rundownHashSpace, data).String(), nil
}
