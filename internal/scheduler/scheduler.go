package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"stockerbot/internal/ai"
	"stockerbot/internal/market"
	"stockerbot/internal/models"
	"stockerbot/internal/storage"
)

// Notifier delivers the consolidated message. Satisfied by the telegram
// sender; tests swap in a recorder.
type Notifier interface {
	SendMessage(chatID int64, text string)
}

// Predictor produces a recommendation for one holding snapshot.
type Predictor interface {
	Predict(ctx context.Context, snapshot ai.StockSnapshot) (string, error)
}

// Scheduler runs the daily prediction fan-out: one consolidated message per
// opted-in user, with failures isolated per user and per holding.
type Scheduler struct {
	store     storage.Store
	market    market.Provider
	predictor Predictor
	notifier  Notifier
	workers   int
}

func New(store storage.Store, provider market.Provider, predictor Predictor, notifier Notifier, workers int) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	return &Scheduler{
		store:     store,
		market:    provider,
		predictor: predictor,
		notifier:  notifier,
		workers:   workers,
	}
}

// RunDailyJob processes every opted-in user. Users are independent: one
// user's failure must never abort the others, so each runs inside its own
// error boundary on a bounded worker pool. Re-running the job re-fetches
// live prices; predictions are point-in-time, not cached.
func (s *Scheduler) RunDailyJob(ctx context.Context) {
	users, err := s.store.FindUsersWithNotificationsEnabled(ctx)
	if err != nil {
		log.Printf("ERROR: daily job could not list opted-in users: %v", err)
		return
	}

	log.Printf("Daily prediction job: %d opted-in user(s)", len(users))

	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup

	for _, userID := range users {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Printf("CRITICAL: daily job panic for user %d: %v", userID, r)
				}
			}()

			sem <- struct{}{}
			defer func() { <-sem }()

			s.processUser(ctx, userID)
		}(userID)
	}

	wg.Wait()
	log.Println("Daily prediction job: done")
}

func (s *Scheduler) processUser(ctx context.Context, userID int64) {
	holdings, err := s.store.FindHoldings(ctx, userID)
	if err != nil {
		log.Printf("ERROR: daily job could not load holdings for user %d: %v", userID, err)
		return
	}
	if len(holdings) == 0 {
		return
	}

	var lines []string
	for _, h := range holdings {
		recommendation, err := s.predictHolding(ctx, h)
		if err != nil {
			// Degrade gracefully: omit this line, keep going with
			// the user's other holdings.
			log.Printf("WARNING: prediction skipped for user %d stock %s: %v", userID, h.StockCode, err)
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", h.StockCode, recommendation))
	}

	if len(lines) == 0 {
		log.Printf("Daily job: no predictions produced for user %d, nothing sent", userID)
		return
	}

	log.Printf("Sending daily predictions to user %d (%d line(s))", userID, len(lines))
	s.notifier.SendMessage(userID, "📊 <b>Daily Prediction for your Stocks:</b>\n"+strings.Join(lines, "\n"))
}

// predictHolding assembles the snapshot for one holding and asks the model.
func (s *Scheduler) predictHolding(ctx context.Context, h models.Holding) (string, error) {
	current, err := s.market.GetCurrentPrice(ctx, h.StockCode)
	if err != nil {
		return "", fmt.Errorf("price lookup: %w", err)
	}

	detail, err := s.market.GetStockDetail(ctx, h.StockCode)
	if err != nil {
		return "", fmt.Errorf("detail lookup: %w", err)
	}

	snapshot := ai.StockSnapshot{
		CompanyName:   detail.CompanyName,
		Industry:      detail.Industry,
		CurrentPrice:  current,
		TechnicalData: detail.TechnicalData,
		RiskMeter:     detail.RiskMeter,
		RecentNews:    detail.RecentNews,
		BuyPrice:      h.BuyPrice,
		Quantity:      h.Quantity,
		Difference:    current.Sub(h.BuyPrice),
	}

	return s.predictor.Predict(ctx, snapshot)
}
