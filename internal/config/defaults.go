package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Vault.StorePath == "" {
		cfg.Vault.StorePath = ".nexus/cache.db"
	}
	if cfg.Linking.FilterPrefix == "" {
		cfg.Linking.FilterPrefix = "unprocessed"
	}
	if cfg.Linking.TopK == 0 {
		cfg.Linking.TopK = 5
	}
	if cfg.Linking.Threshold == 0 {
		cfg.Linking.Threshold = 0.45
	}
	if cfg.Linking.Dimensions == 0 {
		cfg.Linking.Dimensions = 384
	}
	if cfg.Linking.ChunkCapacity == 0 {
		cfg.Linking.ChunkCapacity = 1024
	}
	if cfg.Linking.Marker == "" {
		cfg.Linking.Marker = "## Related Notes"
	}
	if cfg.Linking.NoteExtension == "" {
		cfg.Linking.NoteExtension = ".md"
	}
	if cfg.Linking.IndexType == "" {
		cfg.Linking.IndexType = "memory"
	}
	if cfg.Indexing.PollInterval == 0 {
		cfg.Indexing.PollInterval = 5 * time.Second
	}
	if cfg.Indexing.Timeout == 0 {
		cfg.Indexing.Timeout = 60 * time.Second
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 2 * time.Second
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{cfg.Linking.NoteExtension}
	}
}
