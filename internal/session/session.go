// Package session serializes reconcile passes over long-lived outline trees.
// Each session owns one live tree and its page registry; updates are queued
// to a worker pool and applied one at a time per session.
package session

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/dgallion1/outlinesync/internal/outline"
	"github.com/dgallion1/outlinesync/internal/pages"
	"github.com/dgallion1/outlinesync/internal/reconcile"
	"github.com/dgallion1/outlinesync/internal/target"
	"github.com/dgallion1/outlinesync/internal/tree"
)

var (
	ErrNotFound  = errors.New("session not found")
	ErrQueueFull = errors.New("update queue is full")
	ErrStopped   = errors.New("session manager stopped")
)

// Status is the outcome of one update.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusUnchanged Status = "unchanged"
	StatusFailed    Status = "failed"
)

// Surface is the region rendered for a page: which page, and the generation
// that rendered it. A region kept across generations keeps its original
// generation.
type Surface struct {
	Page       int `json:"page"`
	Generation int `json:"generation"`
}

// Update is published after every applied document.
type Update struct {
	SessionID   string               `json:"session_id"`
	Generation  int                  `json:"generation"`
	Status      Status               `json:"status"`
	PageCount   int                  `json:"page_count"`
	Result      *reconcile.Result    `json:"result,omitempty"`
	Attached    int                  `json:"attached"`
	Regressions []outline.Regression `json:"regressions,omitempty"`
	Error       string               `json:"error,omitempty"`
}

// Session is one live outline tree plus the page registry it displays.
type Session struct {
	mu sync.Mutex

	ID string

	root        *tree.Element
	registry    *pages.Registry
	generation  int
	title       string
	contentHash string
	rendered    int

	createdAt time.Time
	updatedAt time.Time

	subs    map[int]chan Update
	nextSub int
}

func newSession() *Session {
	now := time.Now()
	return &Session{
		ID:        ulid.Make().String(),
		root:      tree.NewElement(target.TagRoot, ""),
		registry:  pages.NewRegistry(),
		createdAt: now,
		updatedAt: now,
		subs:      make(map[int]chan Update),
	}
}

func (s *Session) lastUpdate() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// subscribe registers a buffered channel that receives every later Update.
func (s *Session) subscribe() (<-chan Update, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan Update, 16)
	s.subs[id] = ch
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

// publish must be called with s.mu held. Slow subscribers miss updates
// rather than block the pass.
func (s *Session) publish(u Update) int {
	dropped := 0
	for _, ch := range s.subs {
		select {
		case ch <- u:
		default:
			dropped++
		}
	}
	return dropped
}

// close ends every subscription.
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

// RecordView is a JSON-safe view of one page record.
type RecordView struct {
	Page     int          `json:"page"`
	Action   pages.Action `json:"action"`
	Region   any          `json:"region,omitempty"`
	Attached bool         `json:"attached"`
}

// Snapshot is a read-only, JSON-safe copy of session state.
type Snapshot struct {
	ID         string        `json:"session_id"`
	Title      string        `json:"title"`
	Generation int           `json:"generation"`
	PageCount  int           `json:"page_count"`
	Rendered   int           `json:"rendered"`
	Tree       tree.NodeView `json:"tree"`
	Records    []RecordView  `json:"records"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs := make([]RecordView, 0, s.registry.Len())
	for _, r := range s.registry.Records() {
		recs = append(recs, RecordView{
			Page:     r.Index,
			Action:   r.Action(),
			Region:   r.Element,
			Attached: r.Container != nil && r.Container.Parent() != nil,
		})
	}
	return Snapshot{
		ID:         s.ID,
		Title:      s.title,
		Generation: s.generation,
		PageCount:  s.registry.Len(),
		Rendered:   s.rendered,
		Tree:       tree.View(s.root),
		Records:    recs,
		CreatedAt:  s.createdAt,
		UpdatedAt:  s.updatedAt,
	}
}

// Store is a thread-safe in-memory session registry with TTL eviction.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

func (s *Store) Put(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
}

func (s *Store) Get(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

// Delete removes a session and reports whether it existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		sess.close()
	}
	return ok
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Cleanup removes expired sessions and returns how many were evicted.
func (s *Store) Cleanup() int {
	s.mu.Lock()
	now := time.Now()
	var expired []*Session
	for id, sess := range s.sessions {
		if now.Sub(sess.lastUpdate()) > s.ttl {
			delete(s.sessions, id)
			expired = append(expired, sess)
		}
	}
	s.mu.Unlock()
	for _, sess := range expired {
		sess.close()
	}
	return len(expired)
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
