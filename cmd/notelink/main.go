// Package main is the notelink CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/notelink/internal/cli"
	"github.com/hyperjump/notelink/internal/config"
	"github.com/hyperjump/notelink/internal/linking"
	"github.com/hyperjump/notelink/internal/storage"
	"github.com/hyperjump/notelink/internal/watcher"
	"github.com/hyperjump/notelink/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/notelink/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in the current
// directory is preferred if present, and a missing default file yields built-in defaults.
// Returns the config and the path that was actually loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "link":
		os.Exit(runLink(os.Args[2:]))
	case "watch":
		os.Exit(runWatch(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "version", "--version", "-v":
		fmt.Printf("notelink version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// commonFlags are shared by every subcommand.
type commonFlags struct {
	configPath *string
	root       *string
	prefix     *string
	output     *string
	debug      *bool
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	return &commonFlags{
		configPath: fs.String("config", defaultConfigPath, "config file path"),
		root:       fs.String("root", "", "vault root (default: probe current directory and configured candidates)"),
		prefix:     fs.String("prefix", "", "path prefix selecting notes to link (default from config: unprocessed)"),
		output:     fs.String("output", "text", "output format: text or json"),
		debug:      fs.Bool("debug", false, "enable debug logging"),
	}
}

// setup loads config, applies flag overrides, builds a logger, and resolves the vault root.
func (f *commonFlags) setup() (*config.Config, *zap.Logger, string, cli.OutputFormat, error) {
	format, err := cli.ParseOutputFormat(*f.output)
	if err != nil {
		return nil, nil, "", "", err
	}
	cfg, loaded, err := loadConfig(*f.configPath)
	if err != nil {
		return nil, nil, "", "", fmt.Errorf("failed to load config: %w", err)
	}
	if *f.root != "" {
		cfg.Vault.Root = *f.root
	}
	if *f.prefix != "" {
		cfg.Linking.FilterPrefix = *f.prefix
	}
	debugMode := cfg.Debug || *f.debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		return nil, nil, "", "", fmt.Errorf("failed to create logger: %w", err)
	}
	root, err := config.ResolveVaultRoot(cfg)
	if err != nil {
		return nil, nil, "", "", fmt.Errorf("resolve vault root: %w", err)
	}
	logger.Debug("config loaded",
		zap.String("config_path", loaded),
		zap.String("root", root),
		zap.Bool("debug", debugMode))
	return cfg, logger, root, format, nil
}

// splitArgs moves every flag, with its value, ahead of the positional arguments so flags may
// appear anywhere; the flag package stops at the first non-flag argument. A "--" is placed
// between the two groups, and a "--" in args ends flag scanning.
func splitArgs(fs *flag.FlagSet, args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if len(a) < 2 || a[0] != '-' {
			positional = append(positional, a)
			continue
		}
		flags = append(flags, a)
		name := strings.TrimLeft(a, "-")
		if strings.Contains(name, "=") {
			continue
		}
		if f := fs.Lookup(name); f != nil && !isBoolFlag(f) && i+1 < len(args) {
			i++
			flags = append(flags, args[i])
		}
	}
	out := append(flags, "--")
	return append(out, positional...)
}

func isBoolFlag(f *flag.Flag) bool {
	bf, ok := f.Value.(interface{ IsBoolFlag() bool })
	return ok && bf.IsBoolFlag()
}

// newNotesInFolder lists note file names directly inside <root>/<prefix>.
func newNotesInFolder(root, prefix, ext string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(root, filepath.FromSlash(prefix)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ext) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func runLink(args []string) int {
	fs := flag.NewFlagSet("link", flag.ExitOnError)
	common := addCommonFlags(fs)
	timeout := fs.Duration("timeout", 0, "how long to wait for new notes to be indexed (default from config: 60s)")
	waitNew := fs.Bool("wait-new", false, "wait for every note currently in the prefix folder to be indexed")
	strict := fs.Bool("strict-chunks", false, "treat vector chunks with trailing bytes as corrupt")
	_ = fs.Parse(splitArgs(fs, args))

	cfg, logger, root, format, err := common.setup()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer logger.Sync()

	opts := linking.OptionsFromConfig(cfg, root)
	opts.Logger = logger
	opts.WaitFor = fs.Args()
	if *timeout > 0 {
		opts.Timeout = *timeout
	}
	if *strict {
		opts.StrictChunks = true
	}
	if *waitNew {
		names, err := newNotesInFolder(root, cfg.Linking.FilterPrefix, cfg.Linking.NoteExtension)
		if err != nil {
			fmt.Fprintf(os.Stderr, "List new notes failed: %v\n", err)
			return 1
		}
		opts.WaitFor = append(opts.WaitFor, names...)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	summary, err := linking.Run(ctx, opts)
	if summary != nil {
		if werr := cli.WriteSummary(os.Stdout, summary, format); werr != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", werr)
			return 1
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Linking failed: %v\n", err)
		return 1
	}
	return 0
}

func runWatch(args []string) int {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	common := addCommonFlags(fs)
	debounce := fs.Duration("debounce", 0, "quiet period before a batch of new notes is linked (default from config: 2s)")
	_ = fs.Parse(splitArgs(fs, args))

	cfg, logger, root, format, err := common.setup()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer logger.Sync()
	if *debounce > 0 {
		cfg.Watch.Debounce = *debounce
	}

	dir := filepath.Join(root, filepath.FromSlash(cfg.Linking.FilterPrefix))
	onBatch := func(ctx context.Context, paths []string) []string {
		opts := linking.OptionsFromConfig(cfg, root)
		opts.Logger = logger
		for _, p := range paths {
			opts.WaitFor = append(opts.WaitFor, filepath.Base(p))
		}
		summary, err := linking.Run(ctx, opts)
		if err != nil {
			logger.Warn("linking pass failed", zap.Int("files", len(paths)), zap.Error(err))
			return nil
		}
		if err := cli.WriteSummary(os.Stdout, summary, format); err != nil {
			logger.Warn("write summary", zap.Error(err))
		}
		written := make([]string, 0, len(summary.UpdatedPaths))
		for _, rel := range summary.UpdatedPaths {
			written = append(written, filepath.Join(root, filepath.FromSlash(rel)))
		}
		return written
	}

	watchOpts := []watcher.Option{watcher.WithDebounce(cfg.Watch.Debounce)}
	if cfg.Debug || *common.debug {
		watchOpts = append(watchOpts, watcher.WithLogger(logger))
	}
	w := watcher.New(dir, cfg.Watch.Extensions, onBatch, watchOpts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := w.Start(ctx); err != nil {
		logger.Error("failed to start watcher", zap.String("dir", dir), zap.Error(err))
		return 1
	}
	logger.Info("watching for new notes", zap.String("dir", dir), zap.Duration("debounce", cfg.Watch.Debounce))
	w.SyncExistingFiles()

	<-ctx.Done()
	logger.Info("Shutting down...")
	w.Stop()
	return 0
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	common := addCommonFlags(fs)
	_ = fs.Parse(splitArgs(fs, args))

	cfg, logger, root, format, err := common.setup()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	st, err := storage.Inspect(ctx, root, cfg.Vault.StorePath, cfg.Linking.FilterPrefix)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		return 1
	}
	if err := cli.WriteStatus(os.Stdout, st, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		return 1
	}
	return 0
}

func printUsage() {
	fmt.Println(`notelink - Link related notes using the embeddings of an external indexer

Usage:
  notelink link [flags] [filenames...]  Run one linking pass, optionally waiting for filenames to be indexed
  notelink watch [flags]                Link new notes as they arrive in the prefix folder
  notelink status [flags]               Show embedding store status
  notelink version                      Show version
  notelink help                         Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/notelink/config.yaml, or ./config.yaml)
  --root string      Vault root (default: probe current directory and vault.root_candidates)
  --prefix string    Path prefix selecting notes to link (default: unprocessed)
  --output string    Output format: text or json (default: text)
  --debug            Enable debug logging

Link Flags:
  --timeout duration  How long to wait for new notes to be indexed (default: 60s)
  --wait-new          Wait for every note currently in the prefix folder
  --strict-chunks     Treat vector chunks with trailing bytes as corrupt

Watch Flags:
  --debounce duration  Quiet period before linking a batch (default: 2s)

Examples:
  notelink link
  notelink link --root ~/Obsidian --wait-new
  notelink link meeting-notes.md --timeout 90s
  notelink link --output json
  notelink watch --root ~/Obsidian
  notelink status --output json`)
}
