package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const followInterval = 500 * time.Millisecond

// Latest returns the lexically newest file in dir matching pattern.
// Dated log names sort chronologically, so the newest day wins. Returns
// an empty string when nothing matches.
func Latest(dir, pattern string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", fmt.Errorf("list log files: %w", err)
	}
	if len(matches) == 0 {
		return "", nil
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

// ReadLast returns up to limit trailing lines of the file at path and
// the byte offset just past them. A limit of zero or less reads the
// whole file. A missing file yields no lines at offset zero.
func ReadLast(path string, limit int) ([]string, int64, error) {
	if limit <= 0 {
		return readFrom(path, 0)
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	ring := make([]string, limit)
	count, next := 0, 0
	scanner := newLineScanner(file)
	for scanner.Scan() {
		ring[next] = scanner.Text()
		next = (next + 1) % limit
		if count < limit {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}
	offset, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, 0, fmt.Errorf("locate log offset: %w", err)
	}

	lines := make([]string, 0, count)
	if count == limit {
		for i := 0; i < limit; i++ {
			lines = append(lines, ring[(next+i)%limit])
		}
	} else {
		lines = append(lines, ring[:count]...)
	}
	return lines, offset, nil
}

// Follow polls path for lines appended after offset and hands each batch
// to emit. It returns nil once ctx is done. A file that does not exist
// yet reads as empty and is picked up when it appears.
func Follow(ctx context.Context, path string, offset int64, emit func(lines []string)) error {
	ticker := time.NewTicker(followInterval)
	defer ticker.Stop()
	for {
		lines, next, err := readFrom(path, offset)
		if err != nil {
			return err
		}
		if len(lines) > 0 {
			emit(lines)
		}
		offset = next
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// readFrom returns the lines appended after offset and the offset just
// past them. A file shorter than offset was rotated out from under us,
// so it is read again from the start.
func readFrom(path string, offset int64) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("stat log file: %w", err)
	}
	if offset < 0 || offset > info.Size() {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, 0, fmt.Errorf("seek log file: %w", err)
	}

	var lines []string
	scanner := newLineScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}
	next, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, 0, fmt.Errorf("locate log offset: %w", err)
	}
	return lines, next, nil
}

func newLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	// JSON-formatted entries can run long.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return scanner
}
