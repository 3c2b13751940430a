// internal/advisor/session.go
package advisor

import (
	"sync"
	"time"
)

// inflightCall tracks one in-progress provider invocation so that concurrent
// requests for the same uncached key within a session share a single call.
type inflightCall struct {
	done chan struct{}
	text string
	err  error
}

// session holds the per-session advisor state: the TTL cache, the provider
// call budget and in-flight call tracking. All mutation happens under mu.
type session struct {
	mu       sync.Mutex
	cache    *suggestionCache
	budget   int
	inflight map[string]*inflightCall
	lastSeen time.Time
}

func newSession() *session {
	return &session{
		cache:    newSuggestionCache(),
		inflight: make(map[string]*inflightCall),
		lastSeen: time.Now(),
	}
}

// sessionRegistry maps session identifiers to their state. Sessions are
// created on first use and pruned after a period of inactivity.
type sessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{sessions: make(map[string]*session)}
}

func (r *sessionRegistry) get(sessionID string) *session {
	r.mu.RLock()
	s, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if ok {
		s.mu.Lock()
		s.lastSeen = time.Now()
		s.mu.Unlock()
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[sessionID]; ok {
		return s
	}
	s = newSession()
	r.sessions[sessionID] = s
	return s
}

// prune drops sessions idle for longer than maxIdle and returns how many
// were removed.
func (r *sessionRegistry) prune(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		s.mu.Lock()
		idle := s.lastSeen.Before(cutoff) && len(s.inflight) == 0
		s.mu.Unlock()
		if idle {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

func (r *sessionRegistry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
