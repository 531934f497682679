package storage

import (
	"os"
	"path/filepath"
)

// Locate returns the store path for a vault root. storePath may be absolute or relative to root.
func Locate(root, storePath string) string {
	if storePath == "" {
		storePath = DefaultStorePath
	}
	if filepath.IsAbs(storePath) {
		return storePath
	}
	return filepath.Join(root, filepath.FromSlash(storePath))
}

// Exists reports whether a regular file exists at dbPath.
func Exists(dbPath string) bool {
	info, err := os.Stat(dbPath)
	return err == nil && info.Mode().IsRegular()
}

// DiskUsageBytes returns the on-disk size of the store, including its WAL and shared-memory
// side files when present. A missing store contributes 0.
func DiskUsageBytes(dbPath string) (int64, error) {
	var total int64
	for _, p := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, err
		}
		if !info.IsDir() {
			total += info.Size()
		}
	}
	return total, nil
}
