package linking

import (
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/notelink/internal/config"
	"github.com/hyperjump/notelink/internal/waiter"
)

// DefaultFilterPrefix selects notes still waiting to be linked.
const DefaultFilterPrefix = "unprocessed"

// Options configures one linking pass.
type Options struct {
	// Root is the note collection root. Stored note paths are relative to it.
	Root string
	// StorePath is the embedding store location, absolute or relative to Root.
	StorePath string
	// FilterPrefix selects query notes by a plain prefix test on their stored path.
	FilterPrefix string
	// WaitFor lists newly created note file names to wait for before reading the store.
	WaitFor      []string
	Timeout      time.Duration
	PollInterval time.Duration

	TopK          int
	Threshold     float64
	Dimensions    int
	ChunkCapacity int
	StrictChunks  bool
	Marker        string
	IndexType     string

	Logger *zap.Logger
	Clock  waiter.Clock
}

// OptionsFromConfig builds pass options for root from cfg.
func OptionsFromConfig(cfg *config.Config, root string) Options {
	return Options{
		Root:          root,
		StorePath:     cfg.Vault.StorePath,
		FilterPrefix:  cfg.Linking.FilterPrefix,
		Timeout:       cfg.Indexing.Timeout,
		PollInterval:  cfg.Indexing.PollInterval,
		TopK:          cfg.Linking.TopK,
		Threshold:     cfg.Linking.Threshold,
		Dimensions:    cfg.Linking.Dimensions,
		ChunkCapacity: cfg.Linking.ChunkCapacity,
		StrictChunks:  cfg.Linking.StrictChunks,
		Marker:        cfg.Linking.Marker,
		IndexType:     cfg.Linking.IndexType,
	}
}

func (o *Options) applyDefaults() {
	if o.FilterPrefix == "" {
		o.FilterPrefix = DefaultFilterPrefix
	}
	if o.Timeout <= 0 {
		o.Timeout = waiter.DefaultTimeout
	}
	if o.PollInterval <= 0 {
		o.PollInterval = waiter.DefaultPollInterval
	}
	if o.Clock == nil {
		o.Clock = waiter.RealClock{}
	}
}
