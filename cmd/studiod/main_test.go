package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"studiorouter/internal/logging"
	"studiorouter/internal/testsupport"
)

func TestBootstrapServesStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	d, err := bootstrap(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	resp, err := http.Get("http://" + d.Addr() + "/api/status")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestRunStopsWhenContextEnds(t *testing.T) {
	t.Setenv("STUDIOROUTER_API_TOKEN", "")
	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "studiorouter.toml")
	content := fmt.Sprintf("[paths]\ndata_dir = %q\nlog_dir = %q\n\n[api]\nbind = \"127.0.0.1:0\"\n\n[studios]\nseed_on_start = false\n\n[logging]\nlevel = \"error\"\n",
		cfg.Paths.DataDir, cfg.Paths.LogDir)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := run(ctx, configPath); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := os.Stat(cfg.DatabasePath()); err != nil {
		t.Fatalf("expected database at %s: %v", cfg.DatabasePath(), err)
	}
}
