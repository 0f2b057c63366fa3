package audiocache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"log/slog"

	"cadence/internal/logging"
	"cadence/internal/textutil"
)

const (
	indexVersion  = 1
	indexFileName = "cadence.cache.json"
)

// ErrNotCached is returned when an asset is requested that the cache does not hold.
var ErrNotCached = errors.New("audio not cached")

type indexFile struct {
	Version int                    `json:"version"`
	Entries map[string]CachedAudio `json:"entries"`
}

// Cache is the directory-backed audio cache. One file per asset plus a
// versioned JSON index carrying durations and checksums.
type Cache struct {
	dir    string
	verify bool
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[string]CachedAudio
}

// Open scans dir and returns a ready cache. Entries whose backing file is
// missing, or whose checksum no longer matches when verify is set, are
// dropped from the index with a warning.
func Open(dir string, verify bool, logger *slog.Logger) (*Cache, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("audiocache: empty cache directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("audiocache: create cache dir: %w", err)
	}
	c := &Cache{
		dir:     dir,
		verify:  verify,
		logger:  logging.NewComponentLogger(logger, "audiocache"),
		entries: make(map[string]CachedAudio),
	}
	if err := c.scan(); err != nil {
		return nil, err
	}
	return c, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Lookup implements Index.
func (c *Cache) Lookup(id string) (CachedAudio, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	audio, ok := c.entries[id]
	return audio, ok
}

// Len returns the number of cached assets.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Entries returns all cached assets ordered by id.
func (c *Cache) Entries() []CachedAudio {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]CachedAudio, 0, len(c.entries))
	for _, audio := range c.entries {
		out = append(out, audio)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Put stores the asset bytes under id and records duration and checksum.
// The write is atomic: bytes land in a temp file that is renamed into
// place before the index is updated.
func (c *Cache) Put(id string, r io.Reader, durationMS int64) (CachedAudio, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return CachedAudio{}, errors.New("audiocache: empty audio id")
	}
	if durationMS <= 0 {
		return CachedAudio{}, fmt.Errorf("audiocache: non-positive duration for %s", id)
	}

	tmp, err := os.CreateTemp(c.dir, ".cadence-put-*")
	if err != nil {
		return CachedAudio{}, fmt.Errorf("audiocache: create temp: %w", err)
	}
	tmpName := tmp.Name()
	hasher := sha256.New()
	if _, err := io.Copy(io.MultiWriter(tmp, hasher), r); err != nil {
		tmp.Close()
		_ = os.Remove(tmpName)
		return CachedAudio{}, fmt.Errorf("audiocache: write asset %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return CachedAudio{}, fmt.Errorf("audiocache: close temp: %w", err)
	}

	final := filepath.Join(c.dir, assetFileName(id))
	if err := os.Rename(tmpName, final); err != nil {
		_ = os.Remove(tmpName)
		return CachedAudio{}, fmt.Errorf("audiocache: store asset %s: %w", id, err)
	}

	audio := CachedAudio{
		ID:         id,
		Path:       final,
		DurationMS: durationMS,
		Checksum:   hex.EncodeToString(hasher.Sum(nil)),
		FetchedAt:  time.Now().UTC(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = audio
	if err := c.saveIndexLocked(); err != nil {
		return CachedAudio{}, err
	}
	return audio, nil
}

// Remove evicts one asset and its backing file.
func (c *Cache) Remove(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	audio, ok := c.entries[id]
	if !ok {
		return ErrNotCached
	}
	if err := os.Remove(audio.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("audiocache: remove asset %s: %w", id, err)
	}
	delete(c.entries, id)
	return c.saveIndexLocked()
}

func (c *Cache) scan() error {
	payload, err := os.ReadFile(filepath.Join(c.dir, indexFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("audiocache: read index: %w", err)
	}
	var file indexFile
	if err := json.Unmarshal(payload, &file); err != nil {
		return fmt.Errorf("audiocache: decode index: %w", err)
	}
	if file.Version != indexVersion {
		return fmt.Errorf("audiocache: unsupported index version %d", file.Version)
	}

	for id, audio := range file.Entries {
		audio.ID = id
		if err := c.check(audio); err != nil {
			c.logger.Warn("dropping cache entry",
				logging.String(logging.FieldAudioID, id),
				logging.Error(err),
			)
			continue
		}
		c.entries[id] = audio
	}
	return nil
}

func (c *Cache) check(audio CachedAudio) error {
	info, err := os.Stat(audio.Path)
	if err != nil {
		return fmt.Errorf("stat asset: %w", err)
	}
	if info.IsDir() {
		return errors.New("asset path is a directory")
	}
	if !c.verify {
		return nil
	}
	sum, err := fileChecksum(audio.Path)
	if err != nil {
		return fmt.Errorf("checksum asset: %w", err)
	}
	if sum != audio.Checksum {
		return errors.New("checksum mismatch")
	}
	return nil
}

func (c *Cache) saveIndexLocked() error {
	file := indexFile{Version: indexVersion, Entries: c.entries}
	payload, err := json.Marshal(file)
	if err != nil {
		return fmt.Errorf("audiocache: encode index: %w", err)
	}
	target := filepath.Join(c.dir, indexFileName)
	tmp := filepath.Join(c.dir, fmt.Sprintf(".cadence-index-%d.tmp", time.Now().UnixNano()))
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("audiocache: write index temp: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("audiocache: rename index: %w", err)
	}
	return nil
}

func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func assetFileName(id string) string {
	name := textutil.SanitizeFileName(id)
	if name == "" {
		name = "asset"
	}
	return name + ".audio"
}
