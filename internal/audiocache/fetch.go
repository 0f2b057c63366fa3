package audiocache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Request names one asset to fetch.
type Request struct {
	ID         string
	SourceURL  string
	DurationMS int64
}

// Fetcher retrieves one audio asset into the cache. Implementations must
// be safe for concurrent use and honour ctx cancellation.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (CachedAudio, error)
}

// LocalFetcher copies assets from a course media directory into the
// cache. Network delivery lives behind the same interface in the
// surrounding system; the engine itself only moves local bytes.
type LocalFetcher struct {
	MediaDir string
	Cache    *Cache
}

// Fetch implements Fetcher.
func (f *LocalFetcher) Fetch(ctx context.Context, req Request) (CachedAudio, error) {
	if f == nil || f.Cache == nil {
		return CachedAudio{}, errors.New("audiocache: local fetcher not configured")
	}
	if err := ctx.Err(); err != nil {
		return CachedAudio{}, err
	}
	source := strings.TrimSpace(req.SourceURL)
	if source == "" {
		return CachedAudio{}, fmt.Errorf("audiocache: no source for %s", req.ID)
	}
	if !filepath.IsAbs(source) {
		source = filepath.Join(f.MediaDir, source)
	}

	file, err := os.Open(source)
	if err != nil {
		return CachedAudio{}, fmt.Errorf("audiocache: open source for %s: %w", req.ID, err)
	}
	defer file.Close()

	audio, err := f.Cache.Put(req.ID, file, req.DurationMS)
	if err != nil {
		return CachedAudio{}, err
	}
	if err := ctx.Err(); err != nil {
		return CachedAudio{}, err
	}
	return audio, nil
}
