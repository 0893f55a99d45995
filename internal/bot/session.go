package bot

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Flow identifies a multi-step dialog.
type Flow int

const (
	FlowNone Flow = iota
	FlowAdd
	FlowRemove
	FlowNews
	FlowSchedule
)

func (f Flow) String() string {
	switch f {
	case FlowAdd:
		return "add"
	case FlowRemove:
		return "remove"
	case FlowNews:
		return "news"
	case FlowSchedule:
		return "schedule"
	default:
		return "none"
	}
}

// State identifies the step a session is waiting on. Each state belongs to
// exactly one flow, so an input is only ever evaluated against the step that
// produced the prompt.
type State int

const (
	StateNone State = iota

	StateAddChooseSuggestion
	StateAddEnterCode
	StateAddEnterBuyPrice
	StateAddEnterQuantity

	StateRemoveChooseHolding
	StateRemoveEnterSellPrice
	StateRemoveEnterSellQuantity

	StateNewsEnterStockName

	StateScheduleChooseOnOff
)

// Scratch carries the partially collected inputs of a flow in progress.
type Scratch struct {
	StockCode   string
	BuyPrice    decimal.Decimal
	RemovalID   string
	RemovalCode string
	SellPrice   decimal.Decimal
}

// Session is the per-user record of the active flow. In-memory only: a
// process restart loses in-flight dialogs, which is acceptable.
type Session struct {
	UserID    int64
	Username  string
	Flow      Flow
	State     State
	Scratch   Scratch
	UpdatedAt time.Time
}

const sessionShardCount = 16

type sessionShard struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	locks    map[int64]*sync.Mutex
}

// SessionStore keeps at most one session per user, sharded by user id so
// concurrent users never contend on a single global lock.
type SessionStore struct {
	shards [sessionShardCount]*sessionShard
}

func NewSessionStore() *SessionStore {
	s := &SessionStore{}
	for i := range s.shards {
		s.shards[i] = &sessionShard{
			sessions: make(map[int64]*Session),
			locks:    make(map[int64]*sync.Mutex),
		}
	}
	return s
}

func (s *SessionStore) shard(userID int64) *sessionShard {
	idx := userID % sessionShardCount
	if idx < 0 {
		idx += sessionShardCount
	}
	return s.shards[idx]
}

// LockUser serializes event handling for one user. Session state is not
// re-entrant: a second message from the same user must wait until the first
// one finished its transition. Returns the unlock func.
func (s *SessionStore) LockUser(userID int64) func() {
	sh := s.shard(userID)

	sh.mu.Lock()
	l, ok := sh.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		sh.locks[userID] = l
	}
	sh.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Get returns the user's active session, if any.
func (s *SessionStore) Get(userID int64) (*Session, bool) {
	sh := s.shard(userID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess, ok := sh.sessions[userID]
	return sess, ok
}

// Put replaces any existing session for the user. Starting a new flow
// abandons the old one; scratch data is discarded, never merged.
func (s *SessionStore) Put(sess *Session) {
	sess.UpdatedAt = time.Now()

	sh := s.shard(sess.UserID)
	sh.mu.Lock()
	sh.sessions[sess.UserID] = sess
	sh.mu.Unlock()
}

// Touch refreshes the idle timer after a valid transition.
func (s *SessionStore) Touch(userID int64) {
	sh := s.shard(userID)
	sh.mu.Lock()
	if sess, ok := sh.sessions[userID]; ok {
		sess.UpdatedAt = time.Now()
	}
	sh.mu.Unlock()
}

// Delete removes the user's session. No-op when none exists.
func (s *SessionStore) Delete(userID int64) {
	sh := s.shard(userID)
	sh.mu.Lock()
	delete(sh.sessions, userID)
	sh.mu.Unlock()
}

// Count returns the number of active sessions across all shards.
func (s *SessionStore) Count() int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		total += len(sh.sessions)
		sh.mu.Unlock()
	}
	return total
}

// StartExpiry sweeps abandoned sessions so the table cannot grow without
// bound from users who walked away mid-flow. Runs until ctx is cancelled.
func (s *SessionStore) StartExpiry(ctx context.Context, ttl time.Duration) {
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep(ttl)
			}
		}
	}()
}

func (s *SessionStore) sweep(ttl time.Duration) {
	cutoff := time.Now().Add(-ttl)

	for _, sh := range s.shards {
		sh.mu.Lock()
		for userID, sess := range sh.sessions {
			if sess.UpdatedAt.Before(cutoff) {
				delete(sh.sessions, userID)
				log.Printf("Session expired for user %d (flow: %s)", userID, sess.Flow)
			}
		}
		// Per-user lock entries are never pruned: a waiter may hold a
		// pointer to one between lookup and Lock, and recreating the
		// mutex under it would break per-user serialization. One mutex
		// per user ever seen is cheap.
		sh.mu.Unlock()
	}
}
