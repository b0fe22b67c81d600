// Package watch re-runs a handler whenever a file changes on disk, with
// rapid saves coalesced into one run.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Handler processes the current contents of the watched file.
type Handler func(ctx context.Context, path string) error

// Stats counts watcher activity.
type Stats struct {
	Events   int
	Runs     int
	Failures int
}

// Watcher watches a single file. The parent directory is watched so that
// editors which replace the file by rename are still seen.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	handler  Handler
	log      *slog.Logger

	pending time.Time
	stats   Stats
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// New creates a watcher for path. handler runs once at Start and again
// after every burst of changes has been quiet for debounce.
func New(path string, debounce time.Duration, handler Handler, log *slog.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:  fw,
		path:     abs,
		debounce: debounce,
		handler:  handler,
		log:      log.With("path", abs),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. It is non-blocking.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	// Run once for the file as it is now.
	w.pending = time.Now().Add(-w.debounce)
	w.mu.Unlock()

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}
	w.log.Info("watching file")

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for an in-flight run to finish.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.log.Error("closing watcher", "error", err)
	}
}

// Done is closed when the event loop exits.
func (w *Watcher) Done() <-chan struct{} { return w.doneCh }

// Stats returns a copy of the activity counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	tick := max(w.debounce/2, 10*time.Millisecond)
	debounceTicker := time.NewTicker(tick)
	defer debounceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error("watcher error", "error", err)
		case <-debounceTicker.C:
			w.processDebounced(ctx)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return
	}
	w.mu.Lock()
	w.pending = time.Now()
	w.stats.Events++
	w.mu.Unlock()
}

func (w *Watcher) processDebounced(ctx context.Context) {
	w.mu.Lock()
	ready := !w.pending.IsZero() && time.Since(w.pending) >= w.debounce
	if ready {
		w.pending = time.Time{}
	}
	w.mu.Unlock()
	if ready {
		w.fire(ctx)
	}
}

// fire runs the handler, retrying transient failures.
func (w *Watcher) fire(ctx context.Context) {
	var err error
	for attempt := range MaxRetries {
		err = w.handler(ctx, w.path)
		if err == nil || !IsRetryable(err) {
			break
		}
		w.log.Warn("retryable change error", "attempt", attempt, "error", err)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		}
	}

	w.mu.Lock()
	w.stats.Runs++
	if err != nil {
		w.stats.Failures++
	}
	w.mu.Unlock()
	if err != nil {
		w.log.Error("change handler failed", "error", err)
	}
}
