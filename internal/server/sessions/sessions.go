// Package sessions tracks per-browser flow state across stateless request
// cycles: which account is signed in and which multi-step flow (registration
// or password reset) is currently in progress.
//
// State is held server-side in memory; the client only carries an opaque
// session ID inside a signed cookie. State is process-local and vanishes on
// restart, which matches the lifetime of the verification flows it guards.
package sessions

import (
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/dayplanner/internal/common"
	"github.com/google/uuid"
)

// State is the finite set of per-session flow states. Exactly one is active
// at a time; ad hoc boolean flags are deliberately not part of this model.
type State string

const (
	StateAnonymous                 State = "anonymous"
	StateAwaitingEmailVerification State = "awaiting_email_verification"
	StateAwaitingResetRequest      State = "awaiting_reset_request"
	StateAwaitingResetVerification State = "awaiting_reset_verification"
	StateAuthenticated             State = "authenticated"
)

// transitions is the strict transition table. Any move not listed here is
// rejected with common.ErrInvalidTransition.
var transitions = map[State][]State{
	StateAnonymous: {
		StateAwaitingEmailVerification, // registration submitted
		StateAwaitingResetRequest,      // reset flow opened
		StateAuthenticated,             // direct login
	},
	StateAwaitingEmailVerification: {
		StateAuthenticated,             // code verified, account written
		StateAwaitingEmailVerification, // registration resubmitted, fresh code issued
		StateAnonymous,                 // flow abandoned
	},
	StateAwaitingResetRequest: {
		StateAwaitingResetVerification, // code issued
		StateAnonymous,                 // flow abandoned
	},
	StateAwaitingResetVerification: {
		StateAnonymous,            // reset complete or abandoned
		StateAwaitingResetRequest, // re-request a code
	},
	StateAuthenticated: {
		StateAnonymous, // logout
	},
}

func allowed(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Session is the server-side record behind one session cookie.
type Session struct {
	ID          string
	State       State
	Username    string // account name, set while Authenticated
	ChallengeID string // pending verification challenge, if any
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// Store is an in-memory session table guarded by a mutex. Sessions expire
// after the configured TTL and are dropped lazily on access.
type Store struct {
	mu  sync.Mutex
	m   map[string]*Session
	ttl time.Duration
	now func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		m:   make(map[string]*Session),
		ttl: ttl,
		now: time.Now,
	}
}

// Create starts a new anonymous session and returns a copy of it.
func (s *Store) Create() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sess := &Session{
		ID:        uuid.NewString(),
		State:     StateAnonymous,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	s.m[sess.ID] = sess

	c := *sess
	return &c
}

// Get returns a copy of the session or common.ErrSessionExpired when the
// session is unknown or past its TTL.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.locked(id)
	if err != nil {
		return nil, err
	}
	c := *sess
	return &c, nil
}

// Transition moves the session to a new state, applying mutate (may be nil)
// to the session record under the store lock. Moves not present in the
// transition table fail with common.ErrInvalidTransition and leave the
// session unchanged.
func (s *Store) Transition(id string, to State, mutate func(*Session)) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.locked(id)
	if err != nil {
		return nil, err
	}

	if !allowed(sess.State, to) {
		return nil, fmt.Errorf("%w: %s -> %s", common.ErrInvalidTransition, sess.State, to)
	}

	sess.State = to
	if mutate != nil {
		mutate(sess)
	}

	c := *sess
	return &c, nil
}

// Delete forgets a session. Unknown IDs are a no-op.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, id)
}

// locked looks up a live session. Caller holds s.mu.
func (s *Store) locked(id string) (*Session, error) {
	sess, ok := s.m[id]
	if !ok {
		return nil, common.ErrSessionExpired
	}
	if s.now().After(sess.ExpiresAt) {
		delete(s.m, id)
		return nil, common.ErrSessionExpired
	}
	return sess, nil
}
