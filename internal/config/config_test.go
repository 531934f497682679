package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
vault:
  root: "./vault"
linking:
  filter_prefix: "inbox"
  top_k: 3
indexing:
  poll_interval: 2s
  timeout: 90s
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Vault.Root != filepath.Join(dir, "vault") {
		t.Errorf("vault root = %s", cfg.Vault.Root)
	}
	if cfg.Linking.FilterPrefix != "inbox" || cfg.Linking.TopK != 3 {
		t.Errorf("unexpected linking config: %+v", cfg.Linking)
	}
	if cfg.Linking.Threshold != 0.45 {
		t.Errorf("threshold should default to 0.45, got %v", cfg.Linking.Threshold)
	}
	if cfg.Indexing.PollInterval != 2*time.Second || cfg.Indexing.Timeout != 90*time.Second {
		t.Errorf("unexpected indexing config: %+v", cfg.Indexing)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_debugTrue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("debug: true\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config")
	}
}

func TestLoad_invalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("linking: [unclosed"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoad_storePathStaysVaultRelative(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("vault:\n  store_path: \"index/cache.db\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Vault.StorePath != "index/cache.db" {
		t.Errorf("store_path = %s, want it left relative to the vault root", cfg.Vault.StorePath)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Vault.StorePath != ".nexus/cache.db" {
		t.Errorf("default store path: got %s", cfg.Vault.StorePath)
	}
	if cfg.Linking.FilterPrefix != "unprocessed" {
		t.Errorf("default filter prefix: got %s", cfg.Linking.FilterPrefix)
	}
	if cfg.Linking.TopK != 5 || cfg.Linking.Threshold != 0.45 {
		t.Errorf("default ranking: top_k=%d threshold=%v", cfg.Linking.TopK, cfg.Linking.Threshold)
	}
	if cfg.Linking.Dimensions != 384 || cfg.Linking.ChunkCapacity != 1024 {
		t.Errorf("default layout: dims=%d capacity=%d", cfg.Linking.Dimensions, cfg.Linking.ChunkCapacity)
	}
	if cfg.Linking.Marker != "## Related Notes" {
		t.Errorf("default marker: got %q", cfg.Linking.Marker)
	}
	if cfg.Indexing.PollInterval != 5*time.Second || cfg.Indexing.Timeout != time.Minute {
		t.Errorf("default indexing: %+v", cfg.Indexing)
	}
	if len(cfg.Watch.Extensions) != 1 || cfg.Watch.Extensions[0] != ".md" {
		t.Errorf("watch extensions: got %v", cfg.Watch.Extensions)
	}
}
