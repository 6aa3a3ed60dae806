package routing_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiorouter/internal/routing"
)

func ptr[T any](v T) *T { return &v }

func baseMappings() *routing.Mappings {
	return routing.MappingsFromList([]routing.LayerMapping{
		{Layer: "cam1", Mapping: routing.Mapping{Device: "A"}},
		{Layer: "cam2", Mapping: routing.Mapping{Device: "B"}},
	})
}

func TestResolveWithoutRouteSetsReturnsBase(t *testing.T) {
	base := routing.MappingsFromList([]routing.LayerMapping{
		{Layer: "cam1", Mapping: routing.Mapping{Device: "A", DeviceID: "atem0", Options: map[string]any{"input": 1}}},
		{Layer: "audio", Mapping: routing.Mapping{Device: "lawo", Lookahead: routing.LookaheadPreload, LookaheadDepth: ptr(2)}},
		{Layer: "gfx", Mapping: routing.Mapping{Device: "casparcg", Internal: true}},
	})

	for _, sets := range []routing.RouteSets{nil, {}} {
		got := routing.Resolve(sets, base)
		assert.True(t, got.Equal(base), "resolved table should equal base")
		assert.Equal(t, base.Layers(), got.Layers())
	}
}

func TestResolveWorkedExample(t *testing.T) {
	sets := routing.RouteSets{
		{
			ID:               "rs1",
			Active:           true,
			ExclusivityGroup: "grp",
			Routes: []routing.Route{{
				MappedLayer:       "cam1",
				OutputMappedLayer: "program",
				Remapping:         &routing.Remapping{Device: ptr("X")},
			}},
		},
		{
			ID:               "rs2",
			Active:           true,
			ExclusivityGroup: "grp",
			Routes:           []routing.Route{{MappedLayer: "cam1", OutputMappedLayer: "preview"}},
		},
	}

	got := routing.Resolve(sets, baseMappings())

	want := routing.MappingsFromList([]routing.LayerMapping{
		{Layer: "program", Mapping: routing.Mapping{Device: "X"}},
		{Layer: "cam2", Mapping: routing.Mapping{Device: "B"}},
	})
	assert.True(t, got.Equal(want), "got layers %v", got.Layers())
	_, hasCam1 := got.Get("cam1")
	assert.False(t, hasCam1, "routed source layer must not fall back")
	_, hasPreview := got.Get("preview")
	assert.False(t, hasPreview, "suppressed route set must not contribute")
}

func TestSelectActiveRoutesExclusivity(t *testing.T) {
	sets := routing.RouteSets{
		{ID: "a", Active: true, ExclusivityGroup: "g", Routes: []routing.Route{{MappedLayer: "in", OutputMappedLayer: "from-a"}}},
		{ID: "b", Active: true, ExclusivityGroup: "g", Routes: []routing.Route{
			{MappedLayer: "in", OutputMappedLayer: "from-b"},
			{MappedLayer: "other", OutputMappedLayer: "from-b-other"},
		}},
	}

	routes := routing.SelectActiveRoutes(sets)

	require.Len(t, routes, 1)
	assert.Equal(t, []routing.RouteOutcome{{OutputMappedLayer: "from-a"}}, routes["in"])
	assert.NotContains(t, routes, "other")
}

func TestSelectActiveRoutesInactiveSetDoesNotClaimGroup(t *testing.T) {
	sets := routing.RouteSets{
		{ID: "a", Active: false, ExclusivityGroup: "g", Routes: []routing.Route{{MappedLayer: "in", OutputMappedLayer: "from-a"}}},
		{ID: "b", Active: true, ExclusivityGroup: "g", Routes: []routing.Route{{MappedLayer: "in", OutputMappedLayer: "from-b"}}},
	}

	routes := routing.SelectActiveRoutes(sets)

	assert.Equal(t, []routing.RouteOutcome{{OutputMappedLayer: "from-b"}}, routes["in"])
}

func TestSelectActiveRoutesIndependentGroupsFanOut(t *testing.T) {
	sets := routing.RouteSets{
		{ID: "ungrouped", Active: true, Routes: []routing.Route{{MappedLayer: "cam1", OutputMappedLayer: "mon1"}}},
		{ID: "g1", Active: true, ExclusivityGroup: "one", Routes: []routing.Route{{MappedLayer: "cam1", OutputMappedLayer: "mon2"}}},
		{ID: "g2", Active: true, ExclusivityGroup: "two", Routes: []routing.Route{{MappedLayer: "cam1", OutputMappedLayer: "mon3"}}},
	}

	routes := routing.SelectActiveRoutes(sets)
	require.Len(t, routes["cam1"], 3)

	got := routing.RewriteMappings(baseMappings(), routes)
	assert.Equal(t, []string{"mon1", "mon2", "mon3", "cam2"}, got.Layers())
	for _, layer := range []string{"mon1", "mon2", "mon3"} {
		mapping, ok := got.Get(layer)
		require.True(t, ok, layer)
		assert.Equal(t, "A", mapping.Device)
	}
}

func TestSelectActiveRoutesSkipsInertRoutes(t *testing.T) {
	sets := routing.RouteSets{{
		ID:     "rs",
		Active: true,
		Routes: []routing.Route{
			{MappedLayer: "", OutputMappedLayer: "program"},
			{MappedLayer: "cam1", OutputMappedLayer: ""},
			{MappedLayer: "cam2", OutputMappedLayer: "program"},
		},
	}}

	routes := routing.SelectActiveRoutes(sets)

	assert.Len(t, routes, 1)
	assert.Contains(t, routes, "cam2")

	got := routing.RewriteMappings(baseMappings(), routes)
	cam1, ok := got.Get("cam1")
	require.True(t, ok, "cam1 only had an inert route and must fall back")
	assert.Equal(t, "A", cam1.Device)
}

func TestRemappingMergePrecedence(t *testing.T) {
	base := routing.MappingsFromList([]routing.LayerMapping{
		{Layer: "src", Mapping: routing.Mapping{Device: "atem", DeviceID: "atem0", Options: map[string]any{"x": 1, "y": 5}}},
	})
	sets := routing.RouteSets{{
		ID:     "rs",
		Active: true,
		Routes: []routing.Route{{
			MappedLayer:       "src",
			OutputMappedLayer: "dst",
			Remapping:         &routing.Remapping{DeviceID: ptr("atem1"), Options: map[string]any{"x": 2}},
		}},
	}}

	got := routing.Resolve(sets, base)

	dst, ok := got.Get("dst")
	require.True(t, ok)
	assert.Equal(t, "atem", dst.Device)
	assert.Equal(t, "atem1", dst.DeviceID)
	assert.Equal(t, map[string]any{"x": 2, "y": 5}, dst.Options)

	src, _ := base.Get("src")
	assert.Equal(t, map[string]any{"x": 1, "y": 5}, src.Options, "base must not be mutated")
	assert.Equal(t, "atem0", src.DeviceID)
}

func TestResolvedNestedOptionsDoNotAliasInputs(t *testing.T) {
	base := routing.MappingsFromList([]routing.LayerMapping{
		{Layer: "src", Mapping: routing.Mapping{Device: "atem", Options: map[string]any{
			"transition": map[string]any{"type": "cut"},
			"inputs":     []any{map[string]any{"x": 1}},
		}}},
	})
	remap := &routing.Remapping{Options: map[string]any{"overlay": map[string]any{"key": "dsk1"}}}
	sets := routing.RouteSets{{
		ID:     "rs",
		Active: true,
		Routes: []routing.Route{{MappedLayer: "src", OutputMappedLayer: "dst", Remapping: remap}},
	}}

	passthrough := routing.Resolve(nil, base)
	src, ok := passthrough.Get("src")
	require.True(t, ok)
	src.Options["transition"].(map[string]any)["type"] = "mix"
	src.Options["inputs"].([]any)[0].(map[string]any)["x"] = 99

	routed := routing.Resolve(sets, base)
	dst, ok := routed.Get("dst")
	require.True(t, ok)
	dst.Options["overlay"].(map[string]any)["key"] = "dsk2"
	dst.Options["transition"].(map[string]any)["type"] = "wipe"

	orig, _ := base.Get("src")
	assert.Equal(t, map[string]any{"type": "cut"}, orig.Options["transition"])
	assert.Equal(t, []any{map[string]any{"x": 1}}, orig.Options["inputs"])
	assert.Equal(t, map[string]any{"key": "dsk1"}, remap.Options["overlay"])

	cloned := remap.Clone()
	cloned.Options["overlay"].(map[string]any)["key"] = "dsk3"
	assert.Equal(t, map[string]any{"key": "dsk1"}, remap.Options["overlay"])
}

func TestRewriteMappingsOutputCollisionLastWriteWins(t *testing.T) {
	base := routing.MappingsFromList([]routing.LayerMapping{
		{Layer: "cam1", Mapping: routing.Mapping{Device: "A"}},
		{Layer: "cam2", Mapping: routing.Mapping{Device: "B"}},
		{Layer: "cam3", Mapping: routing.Mapping{Device: "C"}},
	})
	routes := routing.ActiveRoutes{
		"cam1": {{OutputMappedLayer: "program"}},
		"cam2": {{OutputMappedLayer: "program"}},
	}

	got := routing.RewriteMappings(base, routes)

	assert.Equal(t, []string{"program", "cam3"}, got.Layers())
	program, _ := got.Get("program")
	assert.Equal(t, "B", program.Device)
}

func TestResolveIsIdempotentAndConcurrencySafe(t *testing.T) {
	sets := routing.RouteSets{
		{ID: "rs1", Active: true, ExclusivityGroup: "grp", Routes: []routing.Route{
			{MappedLayer: "cam1", OutputMappedLayer: "program", Remapping: &routing.Remapping{Options: map[string]any{"input": 3}}},
		}},
	}
	base := baseMappings()
	first := routing.Resolve(sets, base)

	var wg sync.WaitGroup
	results := make([]*routing.Mappings, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = routing.Resolve(sets, base)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.True(t, got.Equal(first))
		assert.Equal(t, first.Layers(), got.Layers())
	}
}

func TestExplainReportsDecisions(t *testing.T) {
	sets := routing.RouteSets{
		{ID: "off", Active: false, Routes: []routing.Route{{MappedLayer: "cam1", OutputMappedLayer: "x"}}},
		{ID: "rs1", Active: true, ExclusivityGroup: "grp", Routes: []routing.Route{
			{MappedLayer: "cam1", OutputMappedLayer: "program"},
			{MappedLayer: "cam2", OutputMappedLayer: ""},
		}},
		{ID: "rs2", Active: true, ExclusivityGroup: "grp"},
		{ID: "free", Active: true, Routes: []routing.Route{{MappedLayer: "cam2", OutputMappedLayer: "program"}}},
	}

	res := routing.Explain(sets, baseMappings())

	assert.Equal(t, []string{"rs1", "free"}, res.Applied)
	assert.Equal(t, []string{"off"}, res.Inactive)
	assert.Equal(t, []routing.Suppression{{RouteSetID: "rs2", Group: "grp", WinnerID: "rs1"}}, res.Suppressed)
	assert.Equal(t, []routing.InertRoute{{RouteSetID: "rs1", Index: 1}}, res.Inert)
	assert.Equal(t, []routing.Collision{{OutputLayer: "program", Sources: []string{"cam1", "cam2"}}}, res.Collisions)
	assert.True(t, res.Mappings.Equal(routing.Resolve(sets, baseMappings())))
}
