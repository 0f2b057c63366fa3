package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cadence/internal/logs"
)

func TestReadLastReturnsTrailingLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cadence-20260825.log")
	content := "one\ntwo\nthree\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	lines, offset, err := logs.ReadLast(path, 2)
	if err != nil {
		t.Fatalf("read last: %v", err)
	}
	if len(lines) != 2 || lines[0] != "two" || lines[1] != "three" {
		t.Fatalf("unexpected lines: %#v", lines)
	}
	if offset != int64(len(content)) {
		t.Fatalf("offset = %d, want %d", offset, len(content))
	}
}

func TestReadLastWholeFileWhenLimitZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cadence-20260825.log")
	if err := os.WriteFile(path, []byte("one\ntwo\nthree\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	lines, _, err := logs.ReadLast(path, 0)
	if err != nil {
		t.Fatalf("read last: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("expected all lines, got %#v", lines)
	}
}

func TestReadLastMissingFile(t *testing.T) {
	lines, offset, err := logs.ReadLast(filepath.Join(t.TempDir(), "absent.log"), 5)
	if err != nil {
		t.Fatalf("read last: %v", err)
	}
	if len(lines) != 0 || offset != 0 {
		t.Fatalf("expected empty result, got %#v at offset %d", lines, offset)
	}
}

func TestLatestPicksNewestDay(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"cadence-20260823.log", "cadence-20260825.log", "cadence-20260824.log", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x\n"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	latest, err := logs.Latest(dir, "cadence-*.log")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if filepath.Base(latest) != "cadence-20260825.log" {
		t.Fatalf("latest = %q, want cadence-20260825.log", latest)
	}
}

func TestLatestEmptyDirectory(t *testing.T) {
	latest, err := logs.Latest(t.TempDir(), "cadence-*.log")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest != "" {
		t.Fatalf("expected empty path, got %q", latest)
	}
}

func TestFollowEmitsAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cadence-20260825.log")
	if err := os.WriteFile(path, []byte("start\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	_, offset, err := logs.ReadLast(path, 1)
	if err != nil {
		t.Fatalf("read last: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	emitted := make(chan string, 4)
	done := make(chan error, 1)
	go func() {
		done <- logs.Follow(ctx, path, offset, func(lines []string) {
			for _, line := range lines {
				emitted <- line
			}
		})
	}()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString("later\n"); err != nil {
		t.Fatalf("append log: %v", err)
	}
	_ = f.Close()

	select {
	case line := <-emitted:
		if line != "later" {
			t.Fatalf("unexpected line %q", line)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("follow did not emit appended line")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("follow returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("follow did not stop after cancel")
	}
}
