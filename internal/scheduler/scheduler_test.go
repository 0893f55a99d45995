package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"stockerbot/internal/ai"
	"stockerbot/internal/models"
	"stockerbot/internal/storage"
)

// StubStore serves a fixed set of opted-in users and their holdings.
type StubStore struct {
	users    []int64
	holdings map[int64][]models.Holding
}

func (s *StubStore) FindUsersWithNotificationsEnabled(ctx context.Context) ([]int64, error) {
	return s.users, nil
}

func (s *StubStore) FindHoldings(ctx context.Context, userID int64) ([]models.Holding, error) {
	return s.holdings[userID], nil
}

// Store methods the scheduler never touches.
func (s *StubStore) InsertHolding(ctx context.Context, h models.Holding) (string, error) {
	return "", nil
}
func (s *StubStore) FindHoldingByID(ctx context.Context, id string) (*models.Holding, error) {
	return nil, storage.ErrNotFound
}
func (s *StubStore) UpdateHolding(ctx context.Context, id string, fields map[string]interface{}) error {
	return nil
}
func (s *StubStore) DeleteHolding(ctx context.Context, id string) error { return nil }
func (s *StubStore) UpsertUserSettings(ctx context.Context, userID int64, enabled bool) error {
	return nil
}
func (s *StubStore) SetNotificationForHoldings(ctx context.Context, userID int64, enabled bool) error {
	return nil
}

// FlakyProvider fails price lookups for stock codes in failFor.
type FlakyProvider struct {
	failFor map[string]bool
}

func (p *FlakyProvider) GetCurrentPrice(ctx context.Context, stockCode string) (decimal.Decimal, error) {
	if p.failFor[stockCode] {
		return decimal.Zero, fmt.Errorf("gateway unavailable for %s", stockCode)
	}
	return decimal.NewFromInt(110), nil
}

func (p *FlakyProvider) GetRecentNews(ctx context.Context, stockCode string) (string, error) {
	return "no news", nil
}

func (p *FlakyProvider) GetStockDetail(ctx context.Context, stockCode string) (*models.StockDetail, error) {
	if p.failFor[stockCode] {
		return nil, fmt.Errorf("gateway unavailable for %s", stockCode)
	}
	return &models.StockDetail{CompanyName: stockCode + " Ltd", Industry: "IT"}, nil
}

// StubPredictor answers "Buy" and records the snapshots it saw.
type StubPredictor struct {
	mu        sync.Mutex
	snapshots []ai.StockSnapshot
}

func (p *StubPredictor) Predict(ctx context.Context, snapshot ai.StockSnapshot) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots = append(p.snapshots, snapshot)
	return "Buy", nil
}

// RecordingNotifier captures outbound messages keyed by chat.
type RecordingNotifier struct {
	mu       sync.Mutex
	messages map[int64][]string
}

func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{messages: make(map[int64][]string)}
}

func (n *RecordingNotifier) SendMessage(chatID int64, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages[chatID] = append(n.messages[chatID], text)
}

func holding(userID int64, code string, buyPrice int64, qty int64) models.Holding {
	return models.Holding{
		UserID:    userID,
		StockCode: code,
		BuyPrice:  decimal.NewFromInt(buyPrice),
		Quantity:  qty,
	}
}

func TestRunDailyJob_FailingUserIsolated(t *testing.T) {
	store := &StubStore{
		users: []int64{1, 2, 3},
		holdings: map[int64][]models.Holding{
			1: {holding(1, "TCS", 100, 5)},
			2: {holding(2, "DOOM", 50, 1)}, // every lookup fails for this user
			3: {holding(3, "INFY", 200, 2)},
		},
	}
	provider := &FlakyProvider{failFor: map[string]bool{"DOOM": true}}
	notifier := NewRecordingNotifier()

	s := New(store, provider, &StubPredictor{}, notifier, 2)
	s.RunDailyJob(context.Background())

	if len(notifier.messages[1]) != 1 {
		t.Errorf("Expected 1 message for user 1, got %d", len(notifier.messages[1]))
	}
	if len(notifier.messages[3]) != 1 {
		t.Errorf("Expected 1 message for user 3, got %d", len(notifier.messages[3]))
	}
	if len(notifier.messages[2]) != 0 {
		t.Errorf("Expected no message for the failing user, got %d", len(notifier.messages[2]))
	}
}

func TestRunDailyJob_PartialHoldingFailure(t *testing.T) {
	store := &StubStore{
		users: []int64{1},
		holdings: map[int64][]models.Holding{
			1: {
				holding(1, "TCS", 100, 5),
				holding(1, "DOOM", 50, 1),
			},
		},
	}
	provider := &FlakyProvider{failFor: map[string]bool{"DOOM": true}}
	notifier := NewRecordingNotifier()

	s := New(store, provider, &StubPredictor{}, notifier, 1)
	s.RunDailyJob(context.Background())

	msgs := notifier.messages[1]
	if len(msgs) != 1 {
		t.Fatalf("Expected 1 consolidated message, got %d", len(msgs))
	}
	if !strings.Contains(msgs[0], "TCS: Buy") {
		t.Errorf("Expected TCS line, got: %s", msgs[0])
	}
	if strings.Contains(msgs[0], "DOOM") {
		t.Errorf("Expected failing holding omitted, got: %s", msgs[0])
	}
}

func TestRunDailyJob_NoHoldingsNoMessage(t *testing.T) {
	store := &StubStore{
		users:    []int64{1},
		holdings: map[int64][]models.Holding{},
	}
	notifier := NewRecordingNotifier()

	s := New(store, &FlakyProvider{}, &StubPredictor{}, notifier, 1)
	s.RunDailyJob(context.Background())

	if len(notifier.messages) != 0 {
		t.Errorf("Expected no messages for a user without holdings, got %v", notifier.messages)
	}
}

func TestRunDailyJob_SnapshotDifference(t *testing.T) {
	store := &StubStore{
		users: []int64{1},
		holdings: map[int64][]models.Holding{
			1: {holding(1, "TCS", 100, 5)},
		},
	}
	predictor := &StubPredictor{}

	s := New(store, &FlakyProvider{}, predictor, NewRecordingNotifier(), 1)
	s.RunDailyJob(context.Background())

	if len(predictor.snapshots) != 1 {
		t.Fatalf("Expected 1 snapshot, got %d", len(predictor.snapshots))
	}
	snap := predictor.snapshots[0]
	if !snap.Difference.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Expected difference 10 (110 - 100), got %s", snap.Difference)
	}
	if snap.CompanyName != "TCS Ltd" {
		t.Errorf("Expected detail merged into snapshot, got %q", snap.CompanyName)
	}
}
