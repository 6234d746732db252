package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// DefaultSettleDelay is how long a file must stay unchanged before it is ingested.
const DefaultSettleDelay = 500 * time.Millisecond

// WatchResult reports the outcome of one watched file.
type WatchResult struct {
	Path   string
	Result *driving.IngestResult
	Err    error
}

// FolderWatcher ingests files as they appear in a directory.
// Editors write files in bursts, so events for one path are coalesced
// until the file has been quiet for the settle delay.
type FolderWatcher struct {
	ingest driving.IngestService
	dir    string
	settle time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// NewFolderWatcher creates a watcher for dir.
func NewFolderWatcher(ingest driving.IngestService, dir string) *FolderWatcher {
	return &FolderWatcher{
		ingest:  ingest,
		dir:     dir,
		settle:  DefaultSettleDelay,
		pending: make(map[string]*time.Timer),
	}
}

// SetSettleDelay overrides the settle delay.
func (w *FolderWatcher) SetSettleDelay(d time.Duration) {
	w.settle = d
}

// Watch ingests created and modified files until ctx is cancelled.
// The returned channel is closed once the watcher stops.
func (w *FolderWatcher) Watch(ctx context.Context) (<-chan WatchResult, error) {
	info, err := os.Stat(w.dir)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", w.dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch %s: not a directory", w.dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(w.dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", w.dir, err)
	}

	results := make(chan WatchResult, streamBuffer)
	ready := make(chan string)

	var wg sync.WaitGroup
	go func() {
		defer close(results)
		defer fsw.Close()
		defer wg.Wait()
		defer w.stopPending()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				if path := w.handleFsEvent(event); path != "" {
					w.schedule(ctx, path, ready)
				}
			case path := <-ready:
				wg.Add(1)
				go func() {
					defer wg.Done()
					res := w.ingestPath(ctx, path)
					select {
					case results <- res:
					case <-ctx.Done():
					}
				}()
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				logger.Warn("Watcher error: %v", err)
			}
		}
	}()

	logger.Info("Watching %s", w.dir)
	return results, nil
}

// handleFsEvent returns the path to ingest for an event, or "" to ignore it.
func (w *FolderWatcher) handleFsEvent(event fsnotify.Event) string {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return ""
	}
	if isHidden(event.Name) {
		return ""
	}
	info, err := os.Stat(event.Name)
	if err != nil || !info.Mode().IsRegular() {
		return ""
	}
	return event.Name
}

// schedule (re)starts the settle timer for path.
func (w *FolderWatcher) schedule(ctx context.Context, path string, ready chan<- string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Reset(w.settle)
		return
	}
	w.pending[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		select {
		case ready <- path:
		case <-ctx.Done():
		}
	})
}

func (w *FolderWatcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *FolderWatcher) ingestPath(ctx context.Context, path string) WatchResult {
	f, err := os.Open(path)
	if err != nil {
		return WatchResult{Path: path, Err: err}
	}
	defer f.Close()

	var size int64
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}

	res, err := w.ingest.IngestFile(ctx, driving.IngestRequest{
		Filename: filepath.Base(path),
		Size:     size,
		Body:     f,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("Watch ingest %s failed: %v", path, err)
	}
	return WatchResult{Path: path, Result: res, Err: err}
}

// isHidden reports whether the file name starts with a dot.
func isHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}
