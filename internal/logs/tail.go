package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// pollInterval bounds how long Follow waits when no write event arrives,
// for filesystems that do not deliver inotify events.
const pollInterval = time.Second

// Filter selects log lines. Empty fields match everything.
type Filter struct {
	Component string
	Level     string
	Search    string
}

// Match reports whether line passes the filter. Component and level are
// matched against both the console format ("LEVEL component: msg") and the
// JSON format ("level":"...", "component":"...").
func (f Filter) Match(line string) bool {
	if f.Search != "" && !strings.Contains(strings.ToLower(line), strings.ToLower(f.Search)) {
		return false
	}
	if f.Component != "" &&
		!strings.Contains(line, " "+f.Component+": ") &&
		!strings.Contains(line, `"component":"`+f.Component+`"`) {
		return false
	}
	if f.Level != "" &&
		!strings.Contains(line, " "+strings.ToUpper(f.Level)+" ") &&
		!strings.Contains(line, `"level":"`+strings.ToLower(f.Level)+`"`) {
		return false
	}
	return true
}

// Last returns up to limit matching lines from the end of path and the file
// size at the time of reading. A missing file yields no lines and offset 0.
func Last(path string, limit int, filter Filter) ([]string, int64, error) {
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
	if info.IsDir() {
		return nil, 0, fmt.Errorf("log path %q is a directory", path)
	}
	if limit <= 0 {
		return nil, info.Size(), nil
	}

	ring := make([]string, limit)
	count, idx := 0, 0
	offset, err := scanFrom(file, 0, func(line string) {
		if !filter.Match(line) {
			return
		}
		ring[idx] = line
		idx = (idx + 1) % limit
		if count < limit {
			count++
		}
	})
	if err != nil {
		return nil, 0, err
	}

	lines := make([]string, count)
	if count == limit {
		for i := range count {
			lines[i] = ring[(idx+i)%limit]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, offset, nil
}

// Follow emits matching lines appended to path after offset until ctx is
// canceled. A truncated file is read again from the start.
func Follow(ctx context.Context, path string, offset int64, filter Filter, emit func(string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create log watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch log directory: %w", err)
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		offset, err = readNew(path, offset, filter, emit)
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch log file: %w", err)
		case <-ticker.C:
		}
	}
}

func readNew(path string, offset int64, filter Filter, emit func(string)) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return offset, fmt.Errorf("stat log file: %w", err)
	}
	if offset > info.Size() {
		offset = 0
	}
	return scanFrom(file, offset, func(line string) {
		if filter.Match(line) {
			emit(line)
		}
	})
}

// scanFrom reads complete lines starting at offset and returns the offset
// after the last complete line. A trailing partial line is left for the next
// read.
func scanFrom(file *os.File, offset int64, fn func(string)) (int64, error) {
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, fmt.Errorf("seek log file: %w", err)
	}
	reader := bufio.NewReaderSize(file, 64*1024)
	for {
		line, err := reader.ReadString('\n')
		if err == io.EOF {
			return offset, nil
		}
		if err != nil {
			return offset, fmt.Errorf("read log file: %w", err)
		}
		offset += int64(len(line))
		fn(strings.TrimRight(line, "\r\n"))
	}
}
