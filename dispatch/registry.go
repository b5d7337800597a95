package dispatch

import (
	"errors"
	"sync"
	"time"

	"github.com/bluesky-social/warden/flow"
)

var (
	ErrUnknownSession   = errors.New("no session registered for key")
	ErrSessionActive    = errors.New("session has not reached a terminal state")
	ErrNotInReview      = errors.New("session is not awaiting moderator review")
	ErrAlreadyQueued    = errors.New("session is already queued or under review")
	ErrNotReviewSubject = errors.New("session is not the current review subject")
)

// Registry owns the active sessions, keyed by reporter (or "auto:<author>" for auto-flags), and the moderator review
// queue.
//
// At most one session is the current review subject; moderator-channel messages are addressed to it. Other sessions
// that reach the moderator phase wait in FIFO order.
type Registry struct {
	lk         sync.Mutex
	sessions   map[string]*flow.Session
	queue      []string
	current    string
	hasCurrent bool
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*flow.Session),
	}
}

// GetOrCreate returns the session for key, creating it with newSession if absent. created reports which happened.
func (r *Registry) GetOrCreate(key string, newSession func() *flow.Session) (sess *flow.Session, created bool) {
	r.lk.Lock()
	defer r.lk.Unlock()
	if s, ok := r.sessions[key]; ok {
		return s, false
	}
	s := newSession()
	r.sessions[key] = s
	return s, true
}

func (r *Registry) Get(key string) (*flow.Session, bool) {
	r.lk.Lock()
	defer r.lk.Unlock()
	s, ok := r.sessions[key]
	return s, ok
}

// Len is the number of registered sessions.
func (r *Registry) Len() int {
	r.lk.Lock()
	defer r.lk.Unlock()
	return len(r.sessions)
}

// Remove drops a session that reached a terminal state.
func (r *Registry) Remove(key string) error {
	r.lk.Lock()
	defer r.lk.Unlock()
	s, ok := r.sessions[key]
	if !ok {
		return ErrUnknownSession
	}
	if !s.State().IsTerminal() {
		return ErrSessionActive
	}
	delete(r.sessions, key)
	r.dequeueLocked(key)
	return nil
}

func (r *Registry) isQueuedLocked(key string) bool {
	if r.hasCurrent && r.current == key {
		return true
	}
	for _, k := range r.queue {
		if k == key {
			return true
		}
	}
	return false
}

func (r *Registry) dequeueLocked(key string) {
	out := r.queue[:0]
	for _, k := range r.queue {
		if k != key {
			out = append(out, k)
		}
	}
	r.queue = out
}

// EnqueueReview adds a session in the moderator phase to the review queue.
//
// If nothing is under review the session becomes the current subject immediately (becameCurrent). Otherwise ahead is
// the number of reports that will be reviewed before it.
func (r *Registry) EnqueueReview(key string) (becameCurrent bool, ahead int, err error) {
	r.lk.Lock()
	defer r.lk.Unlock()
	s, ok := r.sessions[key]
	if !ok {
		return false, 0, ErrUnknownSession
	}
	if st := s.State(); !st.IsModerator() || st == flow.ModComplete {
		return false, 0, ErrNotInReview
	}
	if r.isQueuedLocked(key) {
		return false, 0, ErrAlreadyQueued
	}
	if !r.hasCurrent {
		r.current = key
		r.hasCurrent = true
		return true, 0, nil
	}
	r.queue = append(r.queue, key)
	return false, len(r.queue), nil
}

// CurrentReviewSubject returns the key of the session moderator messages are addressed to.
func (r *Registry) CurrentReviewSubject() (string, bool) {
	r.lk.Lock()
	defer r.lk.Unlock()
	return r.current, r.hasCurrent
}

// ReleaseReview clears the current subject (which must be key) and promotes the next queued session, if any.
func (r *Registry) ReleaseReview(key string) (next string, promoted bool, err error) {
	r.lk.Lock()
	defer r.lk.Unlock()
	if !r.hasCurrent || r.current != key {
		return "", false, ErrNotReviewSubject
	}
	r.current = ""
	r.hasCurrent = false

	for len(r.queue) > 0 {
		k := r.queue[0]
		r.queue = r.queue[1:]
		s, ok := r.sessions[k]
		if !ok || !s.State().IsModerator() || s.State() == flow.ModComplete {
			continue
		}
		r.current = k
		r.hasCurrent = true
		return k, true, nil
	}
	return "", false, nil
}

// PendingReviews is the number of sessions waiting behind the current review subject.
func (r *Registry) PendingReviews() int {
	r.lk.Lock()
	defer r.lk.Unlock()
	return len(r.queue)
}

type ReapedSession struct {
	Key     string
	Session *flow.Session
}

// Reap removes intake sessions that have been idle for longer than ttl. Sessions in the moderator phase are never
// reaped.
func (r *Registry) Reap(now time.Time, ttl time.Duration) []ReapedSession {
	r.lk.Lock()
	defer r.lk.Unlock()
	var out []ReapedSession
	for k, s := range r.sessions {
		st := s.State()
		if st.IsModerator() || r.isQueuedLocked(k) {
			continue
		}
		if now.Sub(s.LastActivity()) <= ttl {
			continue
		}
		delete(r.sessions, k)
		out = append(out, ReapedSession{Key: k, Session: s})
	}
	return out
}
