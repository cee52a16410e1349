package workshop

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// LocalIDs scans the two content roots and returns the ids materialized on
// disk, read from directory names.
func LocalIDs(assetsDir, modsDir string) map[int64]struct{} {
	ids := make(map[int64]struct{})
	for _, dir := range []string{assetsDir, modsDir} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			id, err := strconv.ParseInt(entry.Name(), 10, 64)
			if err != nil {
				continue
			}
			ids[id] = struct{}{}
		}
	}
	return ids
}

// newestMTime returns the latest modification time of any file under path,
// or the zero time when there are none.
func newestMTime(path string) time.Time {
	var newest time.Time
	entries, err := os.ReadDir(path)
	if err != nil {
		return newest
	}
	for _, entry := range entries {
		full := filepath.Join(path, entry.Name())
		if entry.IsDir() {
			if t := newestMTime(full); t.After(newest) {
				newest = t
			}
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(newest) {
			newest = info.ModTime()
		}
	}
	return newest
}

// dirSize returns the total size of the files under path in bytes.
// Unreadable entries are skipped.
func dirSize(path string) int64 {
	var total int64
	entries, err := os.ReadDir(path)
	if err != nil {
		info, statErr := os.Stat(path)
		if statErr == nil && !info.IsDir() {
			return info.Size()
		}
		return 0
	}
	for _, entry := range entries {
		full := filepath.Join(path, entry.Name())
		if entry.IsDir() {
			total += dirSize(full)
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		total += info.Size()
	}
	return total
}

// previewFilesFor returns the preview files whose name contains the decimal
// id, regardless of extension.
func previewFilesFor(previewsDir string, id int64) []string {
	needle := strconv.FormatInt(id, 10)
	entries, err := os.ReadDir(previewsDir)
	if err != nil {
		return nil
	}
	var matches []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.Contains(entry.Name(), needle) {
			matches = append(matches, filepath.Join(previewsDir, entry.Name()))
		}
	}
	return matches
}

// removeDirectory deletes an install dir, logging the outcome.
func (e *Engine) removeDirectory(path string) bool {
	if err := os.RemoveAll(path); err != nil {
		e.log.Warnw("Failed to delete directory", zap.String("path", path), zap.Error(err))
		return false
	}
	e.log.Infow("Deleted directory", zap.String("path", path))
	return true
}
