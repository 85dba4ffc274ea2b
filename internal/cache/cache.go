// Package cache stores serialized reports on disk, keyed by a digest of
// everything that can change a report.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/panbanda/scry/pkg/analyzer/dependency"
	"github.com/panbanda/scry/pkg/config"
	"github.com/panbanda/scry/pkg/report"
	"github.com/panbanda/scry/pkg/source"
	"github.com/zeebo/blake3"
)

// Cache is a TTL-bounded report store. A disabled cache misses on every
// lookup and discards every write.
type Cache struct {
	dir     string
	ttl     time.Duration
	enabled bool
	now     func() time.Time
}

// entry is the on-disk envelope of a cached report.
type entry struct {
	Key     string          `json:"key"`
	Created time.Time       `json:"created"`
	Report  json.RawMessage `json:"report"`
}

// New creates a cache from config. Relative directories are resolved
// against base.
func New(cfg config.CacheConfig, base string) (*Cache, error) {
	if !cfg.Enabled {
		return &Cache{}, nil
	}

	dir := cfg.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(base, dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	return &Cache{
		dir:     dir,
		ttl:     time.Duration(cfg.TTL) * time.Hour,
		enabled: true,
		now:     time.Now,
	}, nil
}

// Enabled reports whether the cache stores anything.
func (c *Cache) Enabled() bool {
	return c.enabled
}

// Key digests the snapshot, the dependency manifests and lockfiles at the
// root of project, and the analysis settings. Two runs with equal keys produce
// equal reports apart from the timestamp.
func Key(cfg *config.Config, files []source.File, project fs.FS) (string, error) {
	h := blake3.New()

	settings, err := json.Marshal(struct {
		Analysis     config.AnalysisConfig
		Duplicates   config.DuplicateConfig
		Security     config.SecurityConfig
		Dependencies config.DependencyConfig
	}{cfg.Analysis, cfg.Duplicates, cfg.Security, cfg.Dependencies})
	if err != nil {
		return "", err
	}
	writeField(h, settings)

	for _, f := range files {
		writeField(h, []byte(f.Path))
		writeField(h, []byte(f.Content))
	}

	names := append([]string{dependency.PackageJSON, dependency.CargoToml}, dependency.Lockfiles...)
	for _, name := range names {
		data, err := fs.ReadFile(project, name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		writeField(h, []byte(name))
		writeField(h, data)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// writeField writes a length-prefixed field so adjacent fields cannot
// alias each other.
func writeField(h *blake3.Hasher, b []byte) {
	fmt.Fprintf(h, "%d:", len(b))
	h.Write(b)
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// Get returns the cached report for key, or false when missing, expired
// or unreadable. Expired entries are removed.
func (c *Cache) Get(key string) (*report.AnalysisReport, bool) {
	if !c.enabled {
		return nil, false
	}

	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil || e.Key != key {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(e.Created) > c.ttl {
		os.Remove(c.path(key))
		return nil, false
	}

	var r report.AnalysisReport
	if err := json.Unmarshal(e.Report, &r); err != nil {
		return nil, false
	}
	return &r, true
}

// Put stores r under key. The write goes through a temp file so readers
// never see a partial entry.
func (c *Cache) Put(key string, r *report.AnalysisReport) error {
	if !c.enabled {
		return nil
	}

	body, err := json.Marshal(r)
	if err != nil {
		return err
	}
	data, err := json.Marshal(entry{Key: key, Created: c.now(), Report: body})
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(c.dir, key+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), c.path(key))
}

// Clear removes every entry.
func (c *Cache) Clear() error {
	if !c.enabled {
		return nil
	}
	return os.RemoveAll(c.dir)
}

// Stats describes the cache contents.
type Stats struct {
	Entries   int   `json:"entries"`
	TotalSize int64 `json:"total_size"`
}

// Stats counts the stored entries.
func (c *Cache) Stats() (Stats, error) {
	var s Stats
	if !c.enabled {
		return s, nil
	}

	entries, err := os.ReadDir(c.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, err
	}
	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".json") {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		s.Entries++
		s.TotalSize += info.Size()
	}
	return s, nil
}
