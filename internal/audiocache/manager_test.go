package audiocache_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cadence/internal/audiocache"
	"cadence/internal/logging"
)

type blockingFetcher struct {
	release chan struct{}
	calls   chan string
}

func (f *blockingFetcher) Fetch(ctx context.Context, req audiocache.Request) (audiocache.CachedAudio, error) {
	f.calls <- req.ID
	select {
	case <-f.release:
		return audiocache.CachedAudio{ID: req.ID, DurationMS: req.DurationMS}, nil
	case <-ctx.Done():
		return audiocache.CachedAudio{}, ctx.Err()
	}
}

func TestManagerFetchesThroughLocalFetcher(t *testing.T) {
	mediaDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(mediaDir, "a1.mp3"), []byte("audio-bytes"), 0o644); err != nil {
		t.Fatalf("write media file: %v", err)
	}
	cache, err := audiocache.Open(t.TempDir(), true, logging.NewNop())
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}

	reg := audiocache.NewRegistry()
	if err := reg.Register("a1", "a1.mp3", 1400); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	mgr := audiocache.NewManager(&audiocache.LocalFetcher{MediaDir: mediaDir, Cache: cache}, reg, 2, time.Second, logging.NewNop())
	defer mgr.Close()

	if started := mgr.Request(context.Background(), "a1"); started != 1 {
		t.Fatalf("expected 1 fetch started, got %d", started)
	}

	select {
	case result := <-mgr.Results():
		if result.Err != nil {
			t.Fatalf("fetch failed: %v", result.Err)
		}
		if result.ID != "a1" || result.Audio.DurationMS != 1400 {
			t.Fatalf("unexpected result: %+v", result)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for fetch result")
	}

	if _, ok := cache.Lookup("a1"); !ok {
		t.Fatal("expected asset in cache after fetch")
	}
}

func TestManagerReportsUnknownAudio(t *testing.T) {
	reg := audiocache.NewRegistry()
	fetcher := &blockingFetcher{release: make(chan struct{}), calls: make(chan string, 4)}
	mgr := audiocache.NewManager(fetcher, reg, 1, 0, logging.NewNop())
	defer mgr.Close()

	if started := mgr.Request(context.Background(), "ghost"); started != 0 {
		t.Fatalf("expected no fetch started, got %d", started)
	}

	select {
	case result := <-mgr.Results():
		if !errors.Is(result.Err, audiocache.ErrUnknownAudio) {
			t.Fatalf("expected ErrUnknownAudio, got %v", result.Err)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for unknown-audio result")
	}
}

func TestManagerDeduplicatesInflight(t *testing.T) {
	reg := audiocache.NewRegistry()
	if err := reg.Register("a1", "a1.mp3", 1000); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	fetcher := &blockingFetcher{release: make(chan struct{}), calls: make(chan string, 4)}
	mgr := audiocache.NewManager(fetcher, reg, 2, 0, logging.NewNop())
	defer mgr.Close()

	if started := mgr.Request(context.Background(), "a1"); started != 1 {
		t.Fatalf("expected first request to start, got %d", started)
	}
	<-fetcher.calls
	if started := mgr.Request(context.Background(), "a1"); started != 0 {
		t.Fatalf("expected duplicate request to be ignored, got %d", started)
	}

	close(fetcher.release)

	select {
	case result := <-mgr.Results():
		if result.Err != nil || result.ID != "a1" {
			t.Fatalf("unexpected result: %+v", result)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for result")
	}

	select {
	case extra, open := <-mgr.Results():
		if open {
			t.Fatalf("unexpected second result: %+v", extra)
		}
	case <-time.After(100 * time.Millisecond):
	}
}

func TestManagerCloseClosesResults(t *testing.T) {
	reg := audiocache.NewRegistry()
	fetcher := &blockingFetcher{release: make(chan struct{}), calls: make(chan string, 4)}
	mgr := audiocache.NewManager(fetcher, reg, 1, 0, logging.NewNop())

	mgr.Close()
	if _, open := <-mgr.Results(); open {
		t.Fatal("expected results channel to be closed")
	}
}
