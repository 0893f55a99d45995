package bot

import (
	"sync"
	"testing"
	"time"
)

func TestSessionStore_PutReplaces(t *testing.T) {
	s := NewSessionStore()

	s.Put(&Session{UserID: 1, Flow: FlowAdd, State: StateAddEnterBuyPrice, Scratch: Scratch{StockCode: "TCS"}})
	s.Put(&Session{UserID: 1, Flow: FlowNews, State: StateNewsEnterStockName})

	sess, ok := s.Get(1)
	if !ok {
		t.Fatal("Expected session for user 1")
	}
	if sess.Flow != FlowNews {
		t.Errorf("Expected news flow after replacement, got %s", sess.Flow)
	}
	if sess.Scratch.StockCode != "" {
		t.Errorf("Expected old scratch discarded, got %q", sess.Scratch.StockCode)
	}
	if s.Count() != 1 {
		t.Errorf("Expected exactly one session, got %d", s.Count())
	}
}

func TestSessionStore_DeleteIsNoOpWithoutSession(t *testing.T) {
	s := NewSessionStore()
	s.Delete(99) // must not panic
	if s.Count() != 0 {
		t.Errorf("Expected 0 sessions, got %d", s.Count())
	}
}

func TestSessionStore_SweepExpiresIdle(t *testing.T) {
	s := NewSessionStore()

	s.Put(&Session{UserID: 1, Flow: FlowAdd})
	s.Put(&Session{UserID: 2, Flow: FlowRemove})

	// Age user 1's session past the TTL.
	sh := s.shard(1)
	sh.mu.Lock()
	sh.sessions[1].UpdatedAt = time.Now().Add(-time.Hour)
	sh.mu.Unlock()

	s.sweep(30 * time.Minute)

	if _, ok := s.Get(1); ok {
		t.Error("Expected idle session swept")
	}
	if _, ok := s.Get(2); !ok {
		t.Error("Expected fresh session kept")
	}
}

func TestSessionStore_LockUserSerializes(t *testing.T) {
	s := NewSessionStore()

	var order []int
	var mu sync.Mutex
	started := make(chan struct{})
	done := make(chan struct{})

	unlock := s.LockUser(7)

	go func() {
		close(started)
		u := s.LockUser(7)
		mu.Lock()
		order = append(order, 2)
		mu.Unlock()
		u()
		close(done)
	}()

	<-started
	time.Sleep(20 * time.Millisecond) // let the goroutine block on the lock
	mu.Lock()
	order = append(order, 1)
	mu.Unlock()
	unlock()
	<-done

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("Expected strict ordering [1 2], got %v", order)
	}
}
