package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/outlinesync/internal/config"
	"github.com/dgallion1/outlinesync/internal/outline"
	"github.com/dgallion1/outlinesync/internal/reconcile"
)

// job is one queued document waiting for its session.
type job struct {
	sess *Session
	doc  *outline.Document
	done chan Update
}

// Manager owns every session and the worker pool that applies updates.
type Manager struct {
	store *Store
	queue chan *job
	rec   *reconcile.Reconciler
	log   *slog.Logger
	cfg   config.Config

	cancel  context.CancelFunc
	stopped chan struct{}
	stop    sync.Once
	wg      sync.WaitGroup
}

// NewManager creates the manager. Call Start before Apply.
func NewManager(cfg config.Config, log *slog.Logger) *Manager {
	return &Manager{
		store:   NewStore(cfg.SessionTTL),
		queue:   make(chan *job, cfg.MaxQueueSize),
		rec:     reconcile.New(reconcile.WithLogger(log)),
		log:     log,
		cfg:     cfg,
		stopped: make(chan struct{}),
	}
}

// Start launches worker goroutines.
func (m *Manager) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	for range m.cfg.WorkerCount {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			w := NewWorker(m.rec, m.log, m.cfg.AutoAttach)
			for {
				select {
				case <-workerCtx.Done():
					return
				case j := <-m.queue:
					j.done <- w.Process(j.sess, j.doc)
				}
			}
		}()
	}

	// Start session store cleanup.
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				if n := m.store.Cleanup(); n > 0 {
					m.log.Info("evicted idle sessions", "count", n)
				}
			}
		}
	}()
}

// Stop gracefully shuts down the workers. Updates still queued fail with
// ErrStopped.
func (m *Manager) Stop() {
	m.stop.Do(func() {
		close(m.stopped)
		if m.cancel != nil {
			m.cancel()
		}
		m.wg.Wait()
	})
}

// Create starts a new empty session.
func (m *Manager) Create() *Session {
	sess := newSession()
	m.store.Put(sess)
	m.log.Info("session created", "session_id", sess.ID)
	return sess
}

// Get returns a session by ID.
func (m *Manager) Get(id string) (*Session, error) {
	sess := m.store.Get(id)
	if sess == nil {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return sess, nil
}

// Delete drops a session and closes its subscriptions.
func (m *Manager) Delete(id string) error {
	if !m.store.Delete(id) {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	m.log.Info("session deleted", "session_id", id)
	return nil
}

// Apply queues doc as the next generation of session id and waits for the
// pass to finish.
func (m *Manager) Apply(ctx context.Context, id string, doc *outline.Document) (Update, error) {
	sess, err := m.Get(id)
	if err != nil {
		return Update{}, err
	}

	j := &job{sess: sess, doc: doc, done: make(chan Update, 1)}
	select {
	case <-m.stopped:
		return Update{}, ErrStopped
	default:
	}
	select {
	case m.queue <- j:
	default:
		return Update{}, fmt.Errorf("%w (%d)", ErrQueueFull, m.cfg.MaxQueueSize)
	}

	select {
	case u := <-j.done:
		return u, nil
	case <-ctx.Done():
		return Update{}, ctx.Err()
	case <-m.stopped:
		return Update{}, ErrStopped
	}
}

// Subscribe streams every later update of session id until cancel is called
// or the session is deleted.
func (m *Manager) Subscribe(id string) (<-chan Update, func(), error) {
	sess, err := m.Get(id)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := sess.subscribe()
	return ch, cancel, nil
}

// QueueDepth returns current queue depth.
func (m *Manager) QueueDepth() int {
	return len(m.queue)
}

// Sessions returns the number of live sessions.
func (m *Manager) Sessions() int {
	return m.store.Len()
}
