package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"
)

// User identifies the account an update came from.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type Chat struct {
	ID int64 `json:"id"`
}

type Message struct {
	MessageID int    `json:"message_id"`
	Text      string `json:"text"`
	Chat      Chat   `json:"chat"`
	From      User   `json:"from"`
}

type CallbackQuery struct {
	ID      string   `json:"id"`
	Data    string   `json:"data"`
	From    User     `json:"from"`
	Message *Message `json:"message"`
}

// Update represents a Telegram Update object (partial schema).
// Message and CallbackQuery are pointers so we can tell which kind arrived.
type Update struct {
	UpdateID      int            `json:"update_id"`
	Message       *Message       `json:"message"`
	CallbackQuery *CallbackQuery `json:"callback_query"`
}

type UpdateResponse struct {
	Ok          bool     `json:"ok"`
	Result      []Update `json:"result"`
	Description string   `json:"description"`
	ErrorCode   int      `json:"error_code"`
}

// MessageHandler processes an inbound text message (commands included).
type MessageHandler func(userID int64, username, text string)

// CallbackHandler processes an inline button press.
type CallbackHandler func(userID int64, username, callbackID string, messageID int, data string)

// StartListener begins long-polling for updates.
// It runs blocking until ctx is cancelled, so it should be called in a goroutine.
// Updates from different users are handled concurrently; updates from the
// same user are handled one at a time in arrival order, so typing two
// answers quickly can never evaluate them against the wrong dialog step.
func StartListener(ctx context.Context, onMessage MessageHandler, onCallback CallbackHandler) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Println("Telegram Listener: Credentials missing, disabled.")
		return
	}

	// Long-poll window is 60s; client timeout must exceed it.
	pollClient := &http.Client{Timeout: 70 * time.Second}
	offset := 0
	d := newDispatcher(onMessage, onCallback)

	log.Println("Telegram Listener: Started")

	for {
		select {
		case <-ctx.Done():
			log.Println("Telegram Listener: Stopped")
			return
		default:
		}

		url := fmt.Sprintf("%s?offset=%d&timeout=60", apiURL("getUpdates"), offset)
		resp, err := pollClient.Get(url)
		if err != nil {
			log.Printf("Telegram Listener Error: %v", err)
			time.Sleep(5 * time.Second)
			continue
		}

		var result UpdateResponse
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			resp.Body.Close()
			log.Printf("Telegram Decode Error: %v", err)
			time.Sleep(5 * time.Second)
			continue
		}
		resp.Body.Close()

		if !result.Ok {
			log.Printf("Telegram API Error: %s (Code: %d)", result.Description, result.ErrorCode)
			time.Sleep(5 * time.Second)
			continue
		}

		for _, update := range result.Result {
			offset = update.UpdateID + 1
			d.enqueue(update)
		}
	}
}

// dispatcher fans updates out to handler goroutines while keeping each
// user's updates in arrival order. One drain goroutine per user with a
// pending update; users never block each other.
type dispatcher struct {
	mu         sync.Mutex
	queues     map[int64][]Update
	onMessage  MessageHandler
	onCallback CallbackHandler
}

func newDispatcher(onMessage MessageHandler, onCallback CallbackHandler) *dispatcher {
	return &dispatcher{
		queues:     make(map[int64][]Update),
		onMessage:  onMessage,
		onCallback: onCallback,
	}
}

// enqueue appends the update to its user's queue and starts a drain
// goroutine when none is running for that user.
func (d *dispatcher) enqueue(update Update) {
	userID := updateUserID(update)
	if userID == 0 {
		// Neither a message nor a callback; nothing to handle.
		return
	}

	d.mu.Lock()
	d.queues[userID] = append(d.queues[userID], update)
	startWorker := len(d.queues[userID]) == 1
	d.mu.Unlock()

	if startWorker {
		go d.drain(userID)
	}
}

// drain handles the user's queue head-first until it is empty. The head
// stays queued while being handled so enqueue never starts a second worker
// for the same user.
func (d *dispatcher) drain(userID int64) {
	for {
		d.mu.Lock()
		if len(d.queues[userID]) == 0 {
			delete(d.queues, userID)
			d.mu.Unlock()
			return
		}
		update := d.queues[userID][0]
		d.mu.Unlock()

		d.handle(update)

		d.mu.Lock()
		d.queues[userID] = d.queues[userID][1:]
		d.mu.Unlock()
	}
}

// handle routes one update to the right handler with a panic guard, so a
// programming error in one user's turn never kills that user's queue worker
// or leaks into another user's session.
func (d *dispatcher) handle(update Update) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("CRITICAL: panic while handling update %d: %v", update.UpdateID, r)
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		messageID := 0
		if cb.Message != nil {
			messageID = cb.Message.MessageID
		}
		d.onCallback(cb.From.ID, cb.From.Username, cb.ID, messageID, cb.Data)
	case update.Message != nil:
		d.onMessage(update.Message.From.ID, update.Message.From.Username, update.Message.Text)
	}
}

func updateUserID(update Update) int64 {
	switch {
	case update.CallbackQuery != nil:
		return update.CallbackQuery.From.ID
	case update.Message != nil:
		return update.Message.From.ID
	default:
		return 0
	}
}
