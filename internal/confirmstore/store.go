// Package confirmstore holds at most one pending, time-boxed transfer intent
// per conversation while the bot waits for an explicit "yes".
package confirmstore

import (
	"sync"
	"time"

	"wallet-agent/internal/domain"
)

// TTL is how long a pending transfer stays confirmable after Put.
const TTL = 300 * time.Second

type entry struct {
	intent    domain.TransferIntent
	expiresAt time.Time
}

// Store is a keyed pending-transfer store. A new Put overwrites any previous
// entry for the same conversation (last write wins, no stacking), and
// TakeIfPending consumes the entry atomically, so an intent can be confirmed
// at most once. Expired entries are dropped lazily on read; there is no
// background purge.
type Store struct {
	mu      sync.Mutex
	pending map[string]entry
	now     func() time.Time
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		pending: make(map[string]entry),
		now:     time.Now,
	}
}

// Put stores the intent for the conversation, replacing any existing entry
// and resetting the TTL.
func (s *Store) Put(conversationID string, intent domain.TransferIntent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[conversationID] = entry{
		intent:    intent,
		expiresAt: s.now().Add(TTL),
	}
}

// TakeIfPending atomically removes and returns the pending intent for the
// conversation. It reports false when no entry exists or the entry has
// expired; an expired entry is removed but never returned.
func (s *Store) TakeIfPending(conversationID string) (domain.TransferIntent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.pending[conversationID]
	if !ok {
		return domain.TransferIntent{}, false
	}
	delete(s.pending, conversationID)

	if s.now().After(e.expiresAt) {
		return domain.TransferIntent{}, false
	}
	return e.intent, true
}

// Clear removes any entry for the conversation unconditionally.
func (s *Store) Clear(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, conversationID)
}
