package lunatech

import (
	"sync"
	"time"
)

// editorRegistry keeps one EditorController per admin session token.
type editorRegistry struct {
	repo EditorRepository
	now  func() time.Time

	mu       sync.Mutex
	sessions map[string]editorEntry
}

type editorEntry struct {
	ctrl    *EditorController
	expires time.Time
}

func newEditorRegistry(repo EditorRepository) *editorRegistry {
	return &editorRegistry{
		repo:     repo,
		now:      time.Now,
		sessions: make(map[string]editorEntry),
	}
}

// For returns the controller of sess, creating it on first use.
func (r *editorRegistry) For(sess *Session) *EditorController {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked()
	if e, ok := r.sessions[sess.Token]; ok {
		return e.ctrl
	}
	ctrl := NewEditorController(r.repo, sess)
	r.sessions[sess.Token] = editorEntry{ctrl: ctrl, expires: sess.ExpiresAt}
	return ctrl
}

// Drop forgets the controller of the session with token.
func (r *editorRegistry) Drop(token string) {
	r.mu.Lock()
	delete(r.sessions, token)
	r.mu.Unlock()
}

func (r *editorRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *editorRegistry) pruneLocked() {
	now := r.now()
	for token, e := range r.sessions {
		if !now.Before(e.expires) {
			delete(r.sessions, token)
		}
	}
}

// handle is an OnChange listener dropping editor state on sign-out.
func (r *editorRegistry) handle(ev SessionEvent) {
	if ev.Kind == SignedOut {
		r.Drop(ev.Session.Token)
	}
}
