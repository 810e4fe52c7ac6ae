package domain

import "sync"

// SessionState is where a relay connection is in its lifecycle.
type SessionState int

const (
	StateUnauthenticated SessionState = iota
	StateAuthenticated
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session is the per-connection relay state. It moves from
// unauthenticated to authenticated on the first accepted auth frame and to
// closed exactly once; a closed session never changes again.
type Session struct {
	ID             string
	state          SessionState
	userID         int64
	verifiedUserID int64
	mu             sync.RWMutex
}

func NewSession(id string) *Session {
	return &Session{ID: id}
}

// Authenticate records userID as the connection's identity and returns the
// identity it replaced. ok is false once the session is closed.
func (s *Session) Authenticate(userID int64) (previous int64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return 0, false
	}
	previous = s.userID
	s.userID = userID
	s.state = StateAuthenticated
	return previous, true
}

// Identity returns the authenticated user and the current state.
func (s *Session) Identity() (int64, SessionState) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID, s.state
}

// Close moves the session to closed and returns the identity it held. A
// second Close returns zero.
func (s *Session) Close() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return 0
	}
	s.state = StateClosed
	return s.userID
}

func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) GetUserID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// SetVerifiedUserID pins the identity proven by a bearer token at upgrade.
func (s *Session) SetVerifiedUserID(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verifiedUserID = userID
}

// VerifiedUserID returns the token identity, or zero when none was presented.
func (s *Session) VerifiedUserID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.verifiedUserID
}
