package audiocache_test

import (
	"testing"

	"cadence/internal/audiocache"
)

func TestRegistryRegisterAndResolve(t *testing.T) {
	reg := audiocache.NewRegistry()
	if err := reg.Register("a1", "lucia/0001.mp3", 1400); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	source, ok := reg.Resolve("a1")
	if !ok {
		t.Fatal("expected a1 to resolve")
	}
	if source.URL != "lucia/0001.mp3" || source.DurationMS != 1400 {
		t.Fatalf("unexpected source: %+v", source)
	}

	duration, ok := reg.Duration("a1")
	if !ok || duration != 1400 {
		t.Fatalf("unexpected duration: ok=%v d=%d", ok, duration)
	}
	if _, ok := reg.Resolve("absent"); ok {
		t.Fatal("expected miss for unknown id")
	}
	if reg.Len() != 1 {
		t.Fatalf("unexpected length: %d", reg.Len())
	}
}

func TestRegistryRejectsDuplicatesAndBadInput(t *testing.T) {
	reg := audiocache.NewRegistry()
	if err := reg.Register("a1", "x.mp3", 1000); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if err := reg.Register("a1", "y.mp3", 2000); err == nil {
		t.Fatal("expected error for duplicate id")
	}
	if err := reg.Register("", "x.mp3", 1000); err == nil {
		t.Fatal("expected error for empty id")
	}
	if err := reg.Register("a2", "x.mp3", 0); err == nil {
		t.Fatal("expected error for non-positive duration")
	}
}
