package config

import (
	"os"
	"path/filepath"
)

// ResolveVaultRoot returns the vault root to link. An explicit root wins. Otherwise the current
// directory and then each configured candidate are probed, and the first one holding the embedding
// store is used. When none does, the current directory is returned and the caller's store check
// reports the store as unavailable.
func ResolveVaultRoot(cfg *Config) (string, error) {
	if cfg.Vault.Root != "" {
		return filepath.Abs(cfg.Vault.Root)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	candidates := append([]string{cwd}, cfg.Vault.RootCandidates...)
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if hasStore(c, cfg.Vault.StorePath) {
			return filepath.Abs(c)
		}
	}
	return cwd, nil
}

func hasStore(root, storePath string) bool {
	p := storePath
	if !filepath.IsAbs(p) {
		p = filepath.Join(root, filepath.FromSlash(storePath))
	}
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}
