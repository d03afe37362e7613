package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"
)

// Cache stores encoded lowering results keyed by an input fingerprint, so
// an unchanged unit is never lowered twice.
type Cache struct {
	Dir        string
	MaxEntries int // LRU eviction threshold (default 20)
	Logger     *slog.Logger
}

// CacheMeta describes one cached payload.
type CacheMeta struct {
	Fingerprint string    `json:"fingerprint"`
	CreatedAt   time.Time `json:"created_at"`
	GoVersion   string    `json:"go_version"`
	Version     string    `json:"version"`
	Format      string    `json:"format"`
	Source      []string  `json:"source"`
	PayloadSize int64     `json:"payload_size"`
}

// skipDirs are never walked when fingerprinting a source tree.
var skipDirs = map[string]bool{
	"vendor":       true,
	".git":         true,
	"testdata":     true,
	"node_modules": true,
}

type fileEntry struct {
	RelPath   string
	MtimeNs   int64
	SizeBytes int64
}

// FingerprintTree hashes the metadata (path, mtime, size) of every .go,
// go.mod and go.sum file under dir, together with the sorted patterns and
// the output format. The result is a 64-char hex string.
func FingerprintTree(dir string, patterns []string, format string) (string, error) {
	var entries []fileEntry

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		name := d.Name()
		if filepath.Ext(name) != ".go" && name != "go.mod" && name != "go.sum" {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		entries = append(entries, fileEntry{
			RelPath:   filepath.ToSlash(relPath),
			MtimeNs:   info.ModTime().UnixNano(),
			SizeBytes: info.Size(),
		})
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("walking directory %s: %w", dir, err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].RelPath < entries[j].RelPath
	})

	h := sha256.New()
	for _, e := range entries {
		fmt.Fprintf(h, "%s\t%d\t%d\n", e.RelPath, e.MtimeNs, e.SizeBytes)
	}
	sorted := append([]string(nil), patterns...)
	sort.Strings(sorted)
	for _, p := range sorted {
		fmt.Fprintf(h, "pattern:%s\n", p)
	}
	writeEnvironment(h, format)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// FingerprintInput hashes a serialized unit together with the output format.
func FingerprintInput(data []byte, format string) string {
	h := sha256.New()
	fmt.Fprintf(h, "input:%d\n", len(data))
	h.Write(data)
	writeEnvironment(h, format)
	return hex.EncodeToString(h.Sum(nil))
}

func writeEnvironment(h io.Writer, format string) {
	fmt.Fprintf(h, "format:%s\n", format)
	fmt.Fprintf(h, "go:%s\n", runtime.Version())
	fmt.Fprintf(h, "version:%s\n", Version)
}

func (c *Cache) payloadPath(fingerprint string) string {
	return filepath.Join(c.Dir, fingerprint+".out")
}

func (c *Cache) metaPath(fingerprint string) string {
	return filepath.Join(c.Dir, fingerprint+".meta.json")
}

func (c *Cache) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// Get returns the cached payload for fingerprint if its metadata exists and
// was written by this version.
func (c *Cache) Get(fingerprint string) ([]byte, bool) {
	metaData, err := os.ReadFile(c.metaPath(fingerprint))
	if err != nil {
		return nil, false
	}
	var meta CacheMeta
	if err := json.Unmarshal(metaData, &meta); err != nil {
		return nil, false
	}
	if meta.Version != Version {
		return nil, false
	}
	payload, err := os.ReadFile(c.payloadPath(fingerprint))
	if err != nil {
		return nil, false
	}
	return payload, true
}

// Put stores payload under fingerprint with atomic writes, then evicts the
// oldest entries beyond MaxEntries.
func (c *Cache) Put(fingerprint string, payload []byte, format string, source []string) error {
	if err := os.MkdirAll(c.Dir, 0755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	meta := CacheMeta{
		Fingerprint: fingerprint,
		CreatedAt:   time.Now(),
		GoVersion:   runtime.Version(),
		Version:     Version,
		Format:      format,
		Source:      source,
		PayloadSize: int64(len(payload)),
	}
	metaJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling meta: %w", err)
	}

	payloadFile := c.payloadPath(fingerprint)
	if err := atomicWrite(payloadFile, payload); err != nil {
		return fmt.Errorf("writing payload: %w", err)
	}
	if err := atomicWrite(c.metaPath(fingerprint), metaJSON); err != nil {
		os.Remove(payloadFile)
		return fmt.Errorf("writing meta: %w", err)
	}

	if err := c.evict(); err != nil {
		// not fatal: the entry is already stored
		c.logger().Warn("cache eviction failed", "dir", c.Dir, "err", err)
	}
	return nil
}

func atomicWrite(path string, data []byte) error {
	tmpPath := path + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	_, writeErr := f.Write(data)
	closeErr := f.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return writeErr
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return closeErr
	}
	return os.Rename(tmpPath, path)
}

// evict removes the oldest entries (by CreatedAt) beyond MaxEntries.
func (c *Cache) evict() error {
	maxEntries := c.MaxEntries
	if maxEntries <= 0 {
		maxEntries = 20
	}

	dirEntries, err := os.ReadDir(c.Dir)
	if err != nil {
		return fmt.Errorf("reading cache dir: %w", err)
	}

	var metas []CacheMeta
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".meta.json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(c.Dir, de.Name()))
		if err != nil {
			continue
		}
		var meta CacheMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		metas = append(metas, meta)
	}
	if len(metas) <= maxEntries {
		return nil
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].CreatedAt.Before(metas[j].CreatedAt)
	})
	for _, meta := range metas[:len(metas)-maxEntries] {
		os.Remove(c.payloadPath(meta.Fingerprint))
		os.Remove(c.metaPath(meta.Fingerprint))
	}
	return nil
}
