package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()

	if cfg.CacheTTL != 7*24*time.Hour {
		t.Fatalf("CacheTTL = %v, want 168h", cfg.CacheTTL)
	}
	if cfg.FetchRetries != 3 {
		t.Fatalf("FetchRetries = %d, want 3", cfg.FetchRetries)
	}
	if cfg.Bounds.MinX != 500000 || cfg.Bounds.MaxX != 800000 {
		t.Fatalf("unexpected X bounds: %+v", cfg.Bounds)
	}
	if cfg.Bounds.MinY != 4000000 || cfg.Bounds.MaxY != 4800000 {
		t.Fatalf("unexpected Y bounds: %+v", cfg.Bounds)
	}
	if cfg.CacheBackend != "memory" {
		t.Fatalf("CacheBackend = %q, want memory", cfg.CacheBackend)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("CACHE_TTL", "48h")
	t.Setenv("QUERY_WORKERS", "1")
	t.Setenv("INVALIDATION_ENABLED", "true")

	cfg := FromEnv()
	if cfg.CacheTTL != 48*time.Hour {
		t.Fatalf("CacheTTL = %v, want 48h", cfg.CacheTTL)
	}
	if cfg.QueryWorkers != 1 {
		t.Fatalf("QueryWorkers = %d, want 1", cfg.QueryWorkers)
	}
	if !cfg.Invalidation.Enabled {
		t.Fatal("Invalidation.Enabled = false, want true")
	}
}

func TestApplyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "afecciones.yaml")
	body := `
geoserver_url: http://localhost:8080/geoserver
cache_ttl: 24h
bounds:
  min_x: 400000
  max_x: 900000
  min_y: 4000000
  max_y: 4800000
endpoints:
  vp: http://localhost:8080/geoserver/custom/wfs
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := ApplyFile(FromEnv(), path)
	if err != nil {
		t.Fatalf("ApplyFile: %v", err)
	}
	if cfg.GeoServerURL != "http://localhost:8080/geoserver" {
		t.Fatalf("GeoServerURL = %q", cfg.GeoServerURL)
	}
	if cfg.CacheTTL != 24*time.Hour {
		t.Fatalf("CacheTTL = %v, want 24h", cfg.CacheTTL)
	}
	if cfg.Bounds.MinX != 400000 {
		t.Fatalf("Bounds.MinX = %v, want 400000", cfg.Bounds.MinX)
	}
	if cfg.EndpointOverrides["vp"] != "http://localhost:8080/geoserver/custom/wfs" {
		t.Fatalf("EndpointOverrides = %v", cfg.EndpointOverrides)
	}
	// the env defaults not named in the file stay put
	if cfg.CatastroURL == "" || cfg.FetchRetries != 3 {
		t.Fatalf("unrelated fields changed: %+v", cfg)
	}
}

func TestApplyFile_MissingFile(t *testing.T) {
	if _, err := ApplyFile(FromEnv(), "/nonexistent/afecciones.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
