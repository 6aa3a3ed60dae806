package testsupport

import (
	"context"
	"testing"

	"studiorouter/internal/config"
	"studiorouter/internal/routing"
	"studiorouter/internal/studio"
)

// MustOpenStore opens a studio.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *studio.Store {
	t.Helper()

	store, err := studio.Open(cfg)
	if err != nil {
		t.Fatalf("studio.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// NewStudio builds the reference studio used across tests: two sources fed
// into a program output, switchable through the "main" exclusivity group.
//
//	program <- cam1 (set "use-cam1", active) or cam2 (set "use-cam2")
//	audio   <- mic1 through set "mics", which also pins a lookahead depth
func NewStudio(id string) *studio.Studio {
	depth := 2
	mappings := routing.NewMappings()
	mappings.Set("program", routing.Mapping{Device: "atem", DeviceID: "switcher0", Lookahead: routing.LookaheadNone})
	mappings.Set("cam1", routing.Mapping{Device: "casparcg", DeviceID: "ccg0", Lookahead: routing.LookaheadPreload})
	mappings.Set("cam2", routing.Mapping{Device: "casparcg", DeviceID: "ccg1", Lookahead: routing.LookaheadPreload})
	mappings.Set("audio", routing.Mapping{Device: "sisyfos", DeviceID: "mixer0"})
	mappings.Set("mic1", routing.Mapping{Device: "sisyfos", DeviceID: "mixer1", LayerName: "Mic 1"})

	return &studio.Studio{
		ID:   id,
		Name: "Studio " + id,
		Settings: studio.Settings{
			SupportedMediaFormats: "1920x1080i5000",
			NowSafeLatencyMS:      40,
		},
		BlueprintConfig: map[string]any{"show": "news"},
		Mappings:        mappings,
		RouteSets: routing.RouteSets{
			{
				ID:               "use-cam1",
				Name:             "Camera 1",
				Active:           true,
				ExclusivityGroup: "main",
				Behavior:         routing.BehaviorToggle,
				Routes:           []routing.Route{{MappedLayer: "cam1", OutputMappedLayer: "program"}},
			},
			{
				ID:               "use-cam2",
				Name:             "Camera 2",
				ExclusivityGroup: "main",
				Behavior:         routing.BehaviorToggle,
				Routes:           []routing.Route{{MappedLayer: "cam2", OutputMappedLayer: "program"}},
			},
			{
				ID:       "mics",
				Name:     "Microphones",
				Active:   true,
				Behavior: routing.BehaviorActivateOnly,
				Routes: []routing.Route{{
					MappedLayer:       "mic1",
					OutputMappedLayer: "audio",
					Remapping:         &routing.Remapping{LookaheadDepth: &depth},
				}},
			},
		},
		ExclusivityGroups: []studio.ExclusivityGroup{{ID: "main", Name: "Main camera"}},
	}
}

// MustCreateStudio stores NewStudio(id) and returns the persisted copy.
func MustCreateStudio(t testing.TB, store *studio.Store, id string) *studio.Studio {
	t.Helper()

	created, err := store.Create(context.Background(), NewStudio(id))
	if err != nil {
		t.Fatalf("create studio %s: %v", id, err)
	}
	return created
}
