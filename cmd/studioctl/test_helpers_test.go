package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"studiorouter/internal/config"
	"studiorouter/internal/testsupport"
)

const newsDefinition = `id = "news"
name = "News Studio"

[[exclusivity_groups]]
id = "main"
name = "Main camera"

[[mappings]]
layer = "program"
device = "atem"
device_id = "switcher0"
lookahead = "none"

[[mappings]]
layer = "cam1"
device = "casparcg"
device_id = "ccg0"

[[mappings]]
layer = "cam2"
device = "casparcg"
device_id = "ccg1"

[[route_sets]]
id = "use-cam1"
name = "Camera 1"
active = true
exclusivity_group = "main"
behavior = "toggle"

[[route_sets.routes]]
mapped_layer = "cam1"
output_mapped_layer = "program"

[[route_sets]]
id = "use-cam2"
name = "Camera 2"
exclusivity_group = "main"
behavior = "toggle"

[[route_sets.routes]]
mapped_layer = "cam2"
output_mapped_layer = "program"

[route_sets.routes.remapping]
lookahead_depth = 3

[[route_sets]]
id = "overlay"
name = "Overlay"
active = true
behavior = "activate_only"
`

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	t.Setenv("STUDIOROUTER_API_TOKEN", "")
	t.Setenv("STUDIOROUTER_LOG_LEVEL", "")
	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))

	if err := os.MkdirAll(cfg.Studios.DefinitionsDir, 0o755); err != nil {
		t.Fatalf("mkdir definitions: %v", err)
	}
	writeFile(t, filepath.Join(cfg.Studios.DefinitionsDir, "news.toml"), newsDefinition)

	env := &cliTestEnv{
		cfg:        cfg,
		configPath: filepath.Join(base, "studiorouter.toml"),
		baseDir:    base,
	}
	writeTestConfig(t, env.configPath, cfg)
	return env
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// mustRunCLI runs args against env's config and fails the test on error.
func mustRunCLI(t *testing.T, env *cliTestEnv, args ...string) string {
	t.Helper()
	out, stderr, err := runCLI(t, args, env.configPath)
	if err != nil {
		t.Fatalf("studioctl %s: %v\nstdout: %s\nstderr: %s", strings.Join(args, " "), err, out, stderr)
	}
	return out
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\ndata_dir = %q\nlog_dir = %q\n\n[api]\nbind = %q\ntoken = %q\n\n[studios]\ndefinitions_dir = %q\nseed_on_start = false\n",
		cfg.Paths.DataDir,
		cfg.Paths.LogDir,
		cfg.API.Bind,
		cfg.API.Token,
		cfg.Studios.DefinitionsDir,
	)
	writeFile(t, path, content)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
