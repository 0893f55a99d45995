package telegram

import (
	"sync"
	"testing"
	"time"
)

func TestDispatcher_SameUserKeepsArrivalOrder(t *testing.T) {
	var mu sync.Mutex
	var got []string
	done := make(chan struct{}, 2)

	first := true
	d := newDispatcher(func(userID int64, username, text string) {
		// Stall the first handler; a goroutine-per-update dispatch would
		// let the second input overtake it here.
		if first {
			first = false
			time.Sleep(20 * time.Millisecond)
		}
		mu.Lock()
		got = append(got, text)
		mu.Unlock()
		done <- struct{}{}
	}, nil)

	// A buy price followed immediately by a quantity, as one getUpdates batch.
	d.enqueue(Update{UpdateID: 1, Message: &Message{Text: "12.5", From: User{ID: 7}}})
	d.enqueue(Update{UpdateID: 2, Message: &Message{Text: "10", From: User{ID: 7}}})

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("Timed out waiting for updates to be handled")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 || got[0] != "12.5" || got[1] != "10" {
		t.Errorf("Expected inputs handled in arrival order [12.5 10], got %v", got)
	}
}

func TestDispatcher_UsersDoNotBlockEachOther(t *testing.T) {
	block := make(chan struct{})
	otherDone := make(chan struct{})

	d := newDispatcher(func(userID int64, username, text string) {
		if userID == 1 {
			<-block
			return
		}
		close(otherDone)
	}, nil)

	d.enqueue(Update{UpdateID: 1, Message: &Message{Text: "slow", From: User{ID: 1}}})
	d.enqueue(Update{UpdateID: 2, Message: &Message{Text: "fast", From: User{ID: 2}}})

	select {
	case <-otherDone:
	case <-time.After(2 * time.Second):
		t.Fatal("User 2's update was blocked behind user 1's slow handler")
	}
	close(block)
}

func TestDispatcher_PanicDoesNotStallQueue(t *testing.T) {
	done := make(chan string, 1)

	first := true
	d := newDispatcher(func(userID int64, username, text string) {
		if first {
			first = false
			panic("boom")
		}
		done <- text
	}, nil)

	d.enqueue(Update{UpdateID: 1, Message: &Message{Text: "bad", From: User{ID: 3}}})
	d.enqueue(Update{UpdateID: 2, Message: &Message{Text: "good", From: User{ID: 3}}})

	select {
	case text := <-done:
		if text != "good" {
			t.Errorf("Expected second update handled, got %q", text)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Queue stalled after a handler panic")
	}
}
