package audiocache_test

import (
	"errors"
	"os"
	"strings"
	"testing"

	"cadence/internal/audiocache"
	"cadence/internal/logging"
)

func TestCachePutLookupAndReopen(t *testing.T) {
	dir := t.TempDir()
	cache, err := audiocache.Open(dir, true, logging.NewNop())
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}

	audio, err := cache.Put("a1", strings.NewReader("payload-a1"), 1400)
	if err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if audio.ID != "a1" || audio.DurationMS != 1400 {
		t.Fatalf("unexpected cached audio: %+v", audio)
	}
	if audio.Checksum == "" {
		t.Fatal("expected checksum to be recorded")
	}
	if _, err := os.Stat(audio.Path); err != nil {
		t.Fatalf("expected backing file: %v", err)
	}

	got, ok := cache.Lookup("a1")
	if !ok || got.Checksum != audio.Checksum {
		t.Fatalf("Lookup mismatch: ok=%v got=%+v", ok, got)
	}
	if _, ok := cache.Lookup("absent"); ok {
		t.Fatal("expected miss for unknown id")
	}

	reopened, err := audiocache.Open(dir, true, logging.NewNop())
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	if reopened.Len() != 1 {
		t.Fatalf("expected 1 entry after reopen, got %d", reopened.Len())
	}
	if _, ok := reopened.Lookup("a1"); !ok {
		t.Fatal("expected a1 to survive reopen")
	}
}

func TestCacheVerifyDropsCorruptEntries(t *testing.T) {
	dir := t.TempDir()
	cache, err := audiocache.Open(dir, true, logging.NewNop())
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	audio, err := cache.Put("a1", strings.NewReader("original"), 900)
	if err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if err := os.WriteFile(audio.Path, []byte("tampered"), 0o644); err != nil {
		t.Fatalf("tamper with asset: %v", err)
	}

	verified, err := audiocache.Open(dir, true, logging.NewNop())
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	if _, ok := verified.Lookup("a1"); ok {
		t.Fatal("expected tampered entry to be dropped when verifying")
	}

	unverified, err := audiocache.Open(dir, false, logging.NewNop())
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	if _, ok := unverified.Lookup("a1"); !ok {
		t.Fatal("expected entry to remain without verification")
	}
}

func TestCacheRemove(t *testing.T) {
	dir := t.TempDir()
	cache, err := audiocache.Open(dir, false, logging.NewNop())
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	audio, err := cache.Put("a1", strings.NewReader("x"), 500)
	if err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	if err := cache.Remove("a1"); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if _, err := os.Stat(audio.Path); !os.IsNotExist(err) {
		t.Fatalf("expected backing file gone, stat err=%v", err)
	}
	if err := cache.Remove("a1"); !errors.Is(err, audiocache.ErrNotCached) {
		t.Fatalf("expected ErrNotCached, got %v", err)
	}
}

func TestCacheRejectsBadPut(t *testing.T) {
	cache, err := audiocache.Open(t.TempDir(), false, logging.NewNop())
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if _, err := cache.Put("", strings.NewReader("x"), 100); err == nil {
		t.Fatal("expected error for empty id")
	}
	if _, err := cache.Put("a1", strings.NewReader("x"), 0); err == nil {
		t.Fatal("expected error for non-positive duration")
	}
}
