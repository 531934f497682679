// Package config provides configuration loading and structs for notelink.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug    bool           `yaml:"debug"`
	Vault    VaultConfig    `yaml:"vault"`
	Linking  LinkingConfig  `yaml:"linking"`
	Indexing IndexingConfig `yaml:"indexing"`
	Watch    WatchConfig    `yaml:"watch"`
}

// VaultConfig locates the note collection and its embedding store.
type VaultConfig struct {
	// Root is the vault directory. When empty, RootCandidates are probed.
	Root           string   `yaml:"root"`
	RootCandidates []string `yaml:"root_candidates"`
	// StorePath is the embedding store location, relative to the vault root unless absolute.
	StorePath string `yaml:"store_path"`
}

// LinkingConfig holds similarity and link-writing settings.
type LinkingConfig struct {
	FilterPrefix  string  `yaml:"filter_prefix"`
	TopK          int     `yaml:"top_k"`
	Threshold     float64 `yaml:"threshold"`
	Dimensions    int     `yaml:"dimensions"`
	ChunkCapacity int     `yaml:"chunk_capacity"`
	StrictChunks  bool    `yaml:"strict_chunks"`
	Marker        string  `yaml:"marker"`
	NoteExtension string  `yaml:"note_extension"`
	IndexType     string  `yaml:"index_type"`
}

// IndexingConfig controls waiting for the external indexer.
type IndexingConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	Timeout      time.Duration `yaml:"timeout"`
}

// WatchConfig holds settings for watch mode.
type WatchConfig struct {
	Debounce   time.Duration `yaml:"debounce"`
	Extensions []string      `yaml:"extensions"`
}

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	if cfg.Vault.Root != "" {
		cfg.Vault.Root = expandPath(cfg.Vault.Root, configDir)
	}
	for i := range cfg.Vault.RootCandidates {
		cfg.Vault.RootCandidates[i] = expandPath(cfg.Vault.RootCandidates[i], configDir)
	}
	if filepath.IsAbs(cfg.Vault.StorePath) || strings.HasPrefix(cfg.Vault.StorePath, "~/") {
		cfg.Vault.StorePath = expandPath(cfg.Vault.StorePath, configDir)
	}

	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// "~/" and other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	path = strings.TrimPrefix(path, "~/")
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
