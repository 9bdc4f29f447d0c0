package oauth

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"levermcp/pkg/logging"
)

// sessionCleanupInterval controls how often the background sweep removes
// expired sessions. Expiry is also checked lazily on every access, so the
// sweep only bounds memory, never correctness.
const sessionCleanupInterval = 1 * time.Minute

type sessionEntry struct {
	createdAt time.Time
	status    SessionStatus
	code      string
	state     string
}

// SessionRegistry tracks pending OAuth relay sessions in memory.
//
// A session is created when a flow starts, becomes ready when the browser
// redirect delivers an authorization code, and is removed the moment the
// code is claimed. Under concurrent polling exactly one caller receives
// the code; everyone else observes the session as unknown afterwards.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
	ttl      time.Duration

	// now is replaceable in tests to exercise expiry without sleeping.
	now func() time.Time

	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// NewSessionRegistry creates a registry with the standard TTL and starts
// the background cleanup goroutine. Call Stop when done.
func NewSessionRegistry() *SessionRegistry {
	r := &SessionRegistry{
		sessions:    make(map[string]*sessionEntry),
		ttl:         SessionTTL,
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}
	go r.cleanupLoop()
	return r
}

// Create registers a new pending session and returns its opaque identifier.
func (r *SessionRegistry) Create() string {
	id := uuid.New().String()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[id] = &sessionEntry{
		createdAt: r.now(),
		status:    SessionPending,
	}

	logging.Debug("Relay", "Created OAuth session %s", logging.TruncateSessionID(id))
	return id
}

// Deliver records the authorization code for a pending session, making it
// ready to claim. Delivery to an unknown or expired session is dropped;
// delivery to a session that is already ready overwrites the previous code
// (the user may have re-authorized in a second browser tab).
func (r *SessionRegistry) Deliver(id, code, state string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok {
		logging.Warn("Relay", "Dropping authorization code for unknown session %s", logging.TruncateSessionID(id))
		return false
	}
	if r.expired(e) {
		delete(r.sessions, id)
		logging.Warn("Relay", "Dropping authorization code for expired session %s", logging.TruncateSessionID(id))
		return false
	}

	e.status = SessionReady
	e.code = code
	e.state = state
	logging.Info("Relay", "Authorization code ready for session %s", logging.TruncateSessionID(id))
	return true
}

// Claim attempts to consume the authorization code for a session. The
// expiry check runs before the status check, so a ready-but-stale code is
// never handed out. On a successful claim the session is removed; exactly
// one concurrent caller can win.
func (r *SessionRegistry) Claim(id string) ClaimResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok {
		return ClaimResult{Status: SessionUnknown}
	}
	if r.expired(e) {
		delete(r.sessions, id)
		logging.Info("Relay", "Session %s expired before claim", logging.TruncateSessionID(id))
		return ClaimResult{Status: SessionExpired}
	}
	if e.status != SessionReady {
		return ClaimResult{Status: SessionPending}
	}

	delete(r.sessions, id)
	logging.Info("Relay", "Session %s claimed", logging.TruncateSessionID(id))
	return ClaimResult{Status: SessionClaimed, Code: e.code, State: e.state}
}

// Status reports the current state of a session without consuming it.
func (r *SessionRegistry) Status(id string) SessionStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok {
		return SessionUnknown
	}
	if r.expired(e) {
		delete(r.sessions, id)
		return SessionExpired
	}
	return e.status
}

// Len returns the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Stop terminates the background cleanup goroutine. Safe to call more
// than once.
func (r *SessionRegistry) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCleanup)
	})
}

func (r *SessionRegistry) expired(e *sessionEntry) bool {
	return r.now().Sub(e.createdAt) >= r.ttl
}

func (r *SessionRegistry) cleanupLoop() {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.sweep()
		case <-r.stopCleanup:
			return
		}
	}
}

func (r *SessionRegistry) sweep() {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, e := range r.sessions {
		if r.expired(e) {
			delete(r.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		logging.Debug("Relay", "Swept %d expired OAuth sessions", removed)
	}
}
