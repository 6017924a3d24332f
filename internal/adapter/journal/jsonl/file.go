// Package jsonl stores run journals as canonical JSON Lines files, one file
// per run.
package jsonl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"simopsbot/internal/app/ports"
	"simopsbot/internal/domain/journal"
)

// Dir creates journal files under Root and finds them again by run id.
type Dir struct {
	Root string
}

func (d Dir) Create(name string) (ports.JournalFile, error) {
	if name == "" || filepath.Base(name) != name {
		return nil, fmt.Errorf("journal file name %q: must be a bare file name", name)
	}
	if err := os.MkdirAll(d.Root, 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	path := filepath.Join(d.Root, name)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create journal file: %w", err)
	}
	return &File{path: path, f: f}, nil
}

// ListByRunID scans the directory for the journal whose events carry runID.
func (d Dir) ListByRunID(ctx context.Context, runID string) ([]journal.Event, error) {
	paths, err := filepath.Glob(filepath.Join(d.Root, "*.jsonl"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		events, err := ReadFile(path)
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				continue
			}
			return nil, err
		}
		if len(events) > 0 && events[0].RunID == runID {
			return events, nil
		}
	}
	return nil, fmt.Errorf("journal for run %s: %w", runID, ports.ErrNotFound)
}

// File appends one canonical line per event.
type File struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

func (f *File) Append(_ context.Context, e journal.Event) error {
	line, err := journal.Line(e)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", e.EventID, err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.f == nil {
		return os.ErrClosed
	}
	if _, err := f.f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write %s: %w", f.path, err)
	}
	return nil
}

func (f *File) Path() string { return f.path }

func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.f == nil {
		return nil
	}
	err := f.f.Close()
	f.f = nil
	return err
}
