package session

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/dgallion1/outlinesync/internal/outline"
	"github.com/dgallion1/outlinesync/internal/reconcile"
)

// Worker applies one document to one session.
type Worker struct {
	rec        *reconcile.Reconciler
	log        *slog.Logger
	autoAttach bool
}

func NewWorker(rec *reconcile.Reconciler, log *slog.Logger, autoAttach bool) *Worker {
	return &Worker{rec: rec, log: log, autoAttach: autoAttach}
}

// Process runs one reconcile pass for doc while holding the session lock,
// so passes over the same tree never overlap.
func (w *Worker) Process(sess *Session, doc *outline.Document) Update {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	log := w.log.With("session_id", sess.ID, "generation", sess.generation+1)
	u := Update{SessionID: sess.ID, Generation: sess.generation, PageCount: sess.registry.Len()}

	hash, err := documentHash(doc)
	if err != nil {
		return w.fail(sess, u, log, "hash", err)
	}
	if hash == sess.contentHash {
		log.Info("document unchanged, skipping")
		u.Status = StatusUnchanged
		return u
	}

	u.Regressions = outline.Regressions(doc.Items)
	for _, r := range u.Regressions {
		log.Warn("outline page regresses", "title", r.Title, "page", r.Page, "previous", r.Previous)
	}

	gen := sess.generation + 1
	sess.registry.Resize(doc.PageCount, func(page int) any {
		sess.rendered++
		return Surface{Page: page, Generation: gen}
	})

	res, err := w.rec.Reconcile(sess.root, sess.registry, doc.Items)
	if err != nil {
		// The tree may be partially patched; forget the hash so the same
		// document can be retried.
		sess.contentHash = ""
		u.Result = res
		return w.fail(sess, u, log, "reconcile", err)
	}
	u.Result = res

	if w.autoAttach {
		n, err := sess.registry.AttachPending()
		u.Attached = n
		if err != nil {
			sess.contentHash = ""
			return w.fail(sess, u, log, "attach", err)
		}
	}

	sess.generation = gen
	sess.title = doc.Title
	sess.contentHash = hash
	sess.updatedAt = time.Now()

	u.Generation = gen
	u.PageCount = sess.registry.Len()
	u.Status = StatusCompleted
	log.Info("generation applied",
		"pages", u.PageCount,
		"inserted", res.Inserted,
		"moved", res.Moved,
		"removed", res.Removed,
		"reused", res.Reused,
		"recovered", res.Recovered,
		"attached", u.Attached,
	)
	if dropped := sess.publish(u); dropped > 0 {
		log.Warn("slow subscribers missed update", "dropped", dropped)
	}
	return u
}

func (w *Worker) fail(sess *Session, u Update, log *slog.Logger, phase string, err error) Update {
	log.Error("update failed", "phase", phase, "error", err)
	u.Status = StatusFailed
	u.Error = err.Error()
	sess.updatedAt = time.Now()
	sess.publish(u)
	return u
}

// documentHash identifies a generation by its outline and page count.
func documentHash(doc *outline.Document) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return ContentHashHex(data), nil
}
