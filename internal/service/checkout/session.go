package checkout

import (
	"sync"
	"time"

	"github.com/evensta/evensta-go/internal/domain"
	"github.com/evensta/evensta-go/internal/pricing"
	"github.com/google/uuid"
)

// Session is one open checkout. It is created when a checkout view opens and
// discarded when it closes. Fees start at the platform defaults and are
// replaced only if the async settings fetch lands while the session is still
// live; a resolution carrying a stale token is dropped.
type Session struct {
	Token    uuid.UUID
	EventID  int64
	BuyerID  int64
	Fees     domain.FeeConfig
	OpenedAt time.Time
}

// Sessions is an in-memory registry of open checkouts. A buyer has at most
// one live session; reopening replaces the previous one, which invalidates
// any fee resolution still in flight for it.
type Sessions struct {
	mu      sync.Mutex
	byToken map[uuid.UUID]*Session
	byBuyer map[int64]uuid.UUID
}

func NewSessions() *Sessions {
	return &Sessions{
		byToken: make(map[uuid.UUID]*Session),
		byBuyer: make(map[int64]uuid.UUID),
	}
}

// Open registers a new session for buyerID, replacing any previous one.
func (s *Sessions) Open(buyerID, eventID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.byBuyer[buyerID]; ok {
		delete(s.byToken, prev)
	}

	sess := &Session{
		Token:    uuid.New(),
		EventID:  eventID,
		BuyerID:  buyerID,
		Fees:     pricing.DefaultFeeConfig,
		OpenedAt: time.Now(),
	}
	s.byToken[sess.Token] = sess
	s.byBuyer[buyerID] = sess.Token

	return sess
}

// ResolveFees applies a fetched fee configuration to the session identified
// by token. It reports false when the session has since closed or been
// replaced, in which case the result is dropped.
func (s *Sessions) ResolveFees(token uuid.UUID, fees domain.FeeConfig) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.byToken[token]
	if !ok {
		return false
	}
	sess.Fees = pricing.NormalizeFees(fees)
	return true
}

// Get returns a snapshot of the session for token.
func (s *Sessions) Get(token uuid.UUID) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.byToken[token]
	if !ok {
		return Session{}, false
	}
	return *sess, true
}

// Close discards the session for token. Closing an already-closed session
// is a no-op.
func (s *Sessions) Close(token uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.byToken[token]
	if !ok {
		return
	}
	delete(s.byToken, token)
	if cur, ok := s.byBuyer[sess.BuyerID]; ok && cur == token {
		delete(s.byBuyer, sess.BuyerID)
	}
}
