package readiness_test

import (
	"reflect"
	"testing"

	"cadence/internal/audiocache"
	"cadence/internal/cycle"
	"cadence/internal/readiness"
)

func practiceCycle(unitID, known, voice1, voice2 string) *cycle.Cycle {
	return &cycle.Cycle{
		ID:     unitID + ":practice",
		UnitID: unitID,
		Type:   cycle.TypePractice,
		Known:  cycle.Prompt{Text: "the house", AudioID: known},
		Target: cycle.Target{
			Text:   "la casa",
			Voice1: cycle.Voice{Name: "lucia", AudioID: voice1},
			Voice2: cycle.Voice{Name: "mateo", AudioID: voice2},
		},
	}
}

func indexWith(ids ...string) *audiocache.MemoryIndex {
	idx := audiocache.NewMemoryIndex()
	for _, id := range ids {
		idx.Put(audiocache.CachedAudio{ID: id, Path: id + ".audio"})
	}
	return idx
}

func TestValidateCycleReportsMissingInOrder(t *testing.T) {
	c := practiceCycle("unit-1", "a1", "a2", "a3")

	result := readiness.ValidateCycle(c, indexWith("a1"))
	if result.Ready {
		t.Fatal("expected cycle with missing voices to not be ready")
	}
	want := []string{"a2", "a3"}
	if !reflect.DeepEqual(result.Missing, want) {
		t.Fatalf("missing = %v, want %v", result.Missing, want)
	}
}

func TestValidateCycleReadyWhenAllCached(t *testing.T) {
	c := practiceCycle("unit-1", "a1", "a2", "a3")

	result := readiness.ValidateCycle(c, indexWith("a1", "a2", "a3"))
	if !result.Ready {
		t.Fatalf("expected ready, got missing %v", result.Missing)
	}
	if len(result.Missing) != 0 {
		t.Fatalf("expected no missing ids, got %v", result.Missing)
	}
}

func TestValidateCycleOrderIsKnownThenVoices(t *testing.T) {
	c := practiceCycle("unit-1", "a1", "a2", "a3")

	result := readiness.ValidateCycle(c, indexWith("a2"))
	want := []string{"a1", "a3"}
	if !reflect.DeepEqual(result.Missing, want) {
		t.Fatalf("missing = %v, want %v", result.Missing, want)
	}
}

func TestValidateSessionDeduplicatesSharedIDs(t *testing.T) {
	first := practiceCycle("unit-1", "a1", "a2", "a3")
	second := practiceCycle("unit-2", "b1", "a2", "b3")

	result := readiness.ValidateSession([]*cycle.Cycle{first, second}, indexWith())
	if result.Ready {
		t.Fatal("expected empty cache to fail session validation")
	}
	want := []string{"a1", "a2", "a3", "b1", "b3"}
	if !reflect.DeepEqual(result.Missing, want) {
		t.Fatalf("missing = %v, want %v", result.Missing, want)
	}
}

func TestValidateSessionEmptyInputIsReady(t *testing.T) {
	result := readiness.ValidateSession(nil, indexWith())
	if !result.Ready {
		t.Fatalf("expected empty session to be ready, got missing %v", result.Missing)
	}

	result = readiness.ValidateSession([]*cycle.Cycle{}, indexWith("a1"))
	if !result.Ready {
		t.Fatalf("expected empty session to be ready, got missing %v", result.Missing)
	}
}

func TestValidateSessionPartialCache(t *testing.T) {
	first := practiceCycle("unit-1", "a1", "a2", "a3")
	second := practiceCycle("unit-2", "b1", "b2", "b3")

	result := readiness.ValidateSession([]*cycle.Cycle{first, second}, indexWith("a1", "a2", "a3", "b2"))
	want := []string{"b1", "b3"}
	if !reflect.DeepEqual(result.Missing, want) {
		t.Fatalf("missing = %v, want %v", result.Missing, want)
	}
}
