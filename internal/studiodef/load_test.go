package studiodef

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"studiorouter/internal/routing"
)

func TestLoadTOMLDefinition(t *testing.T) {
	def, err := Load(filepath.Join("testdata", "a_news.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if def.ID != "news" || def.Name != "News Studio" {
		t.Fatalf("unexpected identity %q/%q", def.ID, def.Name)
	}
	if def.Settings.NowSafeLatencyMS != 40 {
		t.Fatalf("expected latency 40, got %d", def.Settings.NowSafeLatencyMS)
	}

	var layers []string
	for _, entry := range def.Mappings {
		layers = append(layers, entry.Layer)
	}
	if want := []string{"program", "cam1", "cam2"}; !slices.Equal(layers, want) {
		t.Fatalf("expected layers %v, got %v", want, layers)
	}

	if len(def.RouteSets) != 2 {
		t.Fatalf("expected 2 route sets, got %d", len(def.RouteSets))
	}
	cam2 := def.RouteSets[1]
	if cam2.Behavior != routing.BehaviorToggle || cam2.ExclusivityGroup != "main" {
		t.Fatalf("unexpected route set %#v", cam2)
	}
	remap := cam2.Routes[0].Remapping
	if remap == nil || remap.LookaheadDepth == nil || *remap.LookaheadDepth != 3 {
		t.Fatalf("expected lookahead depth remap, got %#v", remap)
	}
	if remap.Options["channel"] != float64(2) {
		t.Fatalf("expected channel option 2, got %#v", remap.Options["channel"])
	}
}

func TestToStudioResolves(t *testing.T) {
	def, err := Load(filepath.Join("testdata", "a_news.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	st := def.ToStudio()
	program, ok := st.EffectiveMappings().Get("program")
	if !ok || program.DeviceID != "ccg0" {
		t.Fatalf("expected program routed from cam1, got %#v", program)
	}
	if got := st.Mappings.Layers(); !slices.Equal(got, []string{"program", "cam1", "cam2"}) {
		t.Fatalf("unexpected base layers %v", got)
	}
}

func TestLoadYAMLAndJSON(t *testing.T) {
	sport, err := Load(filepath.Join("testdata", "b_sport.yaml"))
	if err != nil {
		t.Fatalf("Load yaml failed: %v", err)
	}
	if sport.RouteSets[0].Behavior != routing.BehaviorActivateOnly {
		t.Fatalf("expected activate_only, got %s", sport.RouteSets[0].Behavior)
	}
	if sport.Mappings[1].Options["channel"] != float64(1) {
		t.Fatalf("expected options to survive, got %#v", sport.Mappings[1].Options)
	}

	radio, err := Load(filepath.Join("testdata", "c_radio.json"))
	if err != nil {
		t.Fatalf("Load json failed: %v", err)
	}
	if radio.ID != "radio" || len(radio.Mappings) != 1 {
		t.Fatalf("unexpected radio definition %#v", radio)
	}
}

func TestLoadDirOrdersAndSkips(t *testing.T) {
	defs, err := LoadDir("testdata")
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
	var ids []string
	for _, def := range defs {
		ids = append(ids, def.ID)
		if def.Source == "" {
			t.Fatalf("expected source path on %s", def.ID)
		}
	}
	if want := []string{"news", "sport", "radio"}; !slices.Equal(ids, want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
}

func TestLoadDirMissingIsEmpty(t *testing.T) {
	defs, err := LoadDir(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(defs) != 0 {
		t.Fatalf("expected no definitions, got %d", len(defs))
	}
}

func TestLoadDirReportsBadFilesAndDuplicates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "1.json"), `{"id": "a"}`)
	writeFile(t, filepath.Join(dir, "2.yaml"), "id: a\n")
	writeFile(t, filepath.Join(dir, "3.toml"), "id = \"b\"\nbogus = 1\n")

	defs, err := LoadDir(dir)
	if err == nil {
		t.Fatal("expected errors")
	}
	if len(defs) != 1 || defs[0].ID != "a" {
		t.Fatalf("expected only the first definition to load, got %d", len(defs))
	}
	msg := err.Error()
	if !strings.Contains(msg, "already defined") {
		t.Fatalf("expected duplicate report, got %q", msg)
	}
	if !strings.Contains(msg, "3.toml") {
		t.Fatalf("expected error to name the bad file, got %q", msg)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"missing id", `{"name": "x"}`},
		{"unknown behavior", `{"id": "s", "route_sets": [{"id": "r", "behavior": "sometimes"}]}`},
		{"mapping without device", `{"id": "s", "mappings": [{"layer": "a"}]}`},
		{"unknown mapping field", `{"id": "s", "mappings": [{"layer": "a", "device": "d", "colour": "red"}]}`},
		{"unknown remap field", `{"id": "s", "route_sets": [{"id": "r", "routes": [{"remapping": {"layer": "x"}}]}]}`},
		{"bad lookahead", `{"id": "s", "mappings": [{"layer": "a", "device": "d", "lookahead": "soon"}]}`},
		{"duplicate layer", `{"id": "s", "mappings": [{"layer": "a", "device": "d"}, {"layer": "a", "device": "e"}]}`},
		{"duplicate route set", `{"id": "s", "route_sets": [{"id": "r"}, {"id": "r"}]}`},
		{"empty", `null`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.doc), FormatJSON); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestParseAllowsInertRoutes(t *testing.T) {
	doc := `{"id": "s", "route_sets": [{"id": "r", "active": true, "routes": [{"mapped_layer": "a"}]}]}`
	def, err := Parse([]byte(doc), FormatJSON)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !def.RouteSets[0].Routes[0].Inert() {
		t.Fatal("expected inert route to load")
	}
}

func TestFormatFromPath(t *testing.T) {
	cases := map[string]Format{
		"a.toml": FormatTOML,
		"a.YAML": FormatYAML,
		"a.yml":  FormatYAML,
		"a.json": FormatJSON,
	}
	for path, want := range cases {
		got, err := FormatFromPath(path)
		if err != nil || got != want {
			t.Fatalf("%s: expected %s, got %s (%v)", path, want, got, err)
		}
	}
	if _, err := FormatFromPath("a.ini"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	def, err := Load(filepath.Join("testdata", "a_news.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	original := def.ToStudio()

	for _, format := range []Format{FormatTOML, FormatYAML, FormatJSON} {
		t.Run(string(format), func(t *testing.T) {
			data, err := Encode(FromStudio(original), format)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			parsed, err := Parse(data, format)
			if err != nil {
				t.Fatalf("Parse of encoded %s failed: %v\n%s", format, err, data)
			}
			back := parsed.ToStudio()
			if !slices.Equal(back.Mappings.Layers(), original.Mappings.Layers()) {
				t.Fatalf("layer order changed: %v", back.Mappings.Layers())
			}
			if !back.EffectiveMappings().Equal(original.EffectiveMappings()) {
				t.Fatal("resolved mappings differ after round trip")
			}
			if back.RouteSets[1].ID != "use-cam2" || back.RouteSets[1].Routes[0].Remapping == nil {
				t.Fatalf("route sets changed: %#v", back.RouteSets)
			}
		})
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
