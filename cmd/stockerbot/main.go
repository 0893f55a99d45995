package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"stockerbot/internal/ai"
	"stockerbot/internal/bot"
	"stockerbot/internal/config"
	"stockerbot/internal/logger"
	"stockerbot/internal/market"
	"stockerbot/internal/scheduler"
	"stockerbot/internal/storage"
	"stockerbot/internal/telegram"
)

const LogFile = "stockerbot.log"
const VersionFile = "version.latest"

// handlerTimeout bounds one dialog turn, external calls included.
const handlerTimeout = 60 * time.Second

var botCommands = []telegram.BotCommand{
	{Command: "start", Description: "Start the bot 🚀"},
	{Command: "add", Description: "Add Stock to Portfolio 📈"},
	{Command: "view", Description: "View Portfolio 👀"},
	{Command: "remove", Description: "Remove Stock from Portfolio ❌"},
	{Command: "news", Description: "Get Latest News 📰"},
	{Command: "schedule", Description: "Schedule Notification ⏰"},
	{Command: "cancel", Description: "Cancel the current operation ❌"},
}

// main is the entry point of the application.
func main() {
	// 1. Initialization
	// Load configuration first to get logger settings
	cfg := config.Load()
	cfg.Version = readVersion()

	logger.Setup(LogFile, cfg.MaxLogSizeMB, cfg.MaxLogBackups)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Setup Dependencies
	mongoClient, err := storage.Connect(ctx, os.Getenv("MONGO_URI"))
	if err != nil {
		log.Fatalf("CRITICAL: MongoDB connection failed: %v", err)
	}
	defer func() {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		mongoClient.Disconnect(disconnectCtx)
	}()

	store := storage.NewMongoStore(mongoClient, cfg.MongoDatabase)
	provider := market.NewRapidAPIProvider(cfg.RapidAPIHost)
	predictor := ai.NewClient(cfg.GroqModel)
	sender := telegram.NewSender()

	sessions := bot.NewSessionStore()
	sessions.StartExpiry(ctx, time.Duration(cfg.SessionTTLMins)*time.Minute)

	engine := bot.NewEngine(store, provider, sessions)
	daily := scheduler.New(store, provider, predictor, sender, cfg.SchedulerWorkers)

	// One-time registration of the command menu.
	if err := telegram.SetMyCommands(botCommands); err != nil {
		log.Printf("WARNING: could not register command menu: %v", err)
	}

	// 3. Start Telegram Listener (Background)
	go telegram.StartListener(ctx,
		func(userID int64, username, text string) {
			handleMessage(ctx, engine, sender, userID, username, text)
		},
		func(userID int64, username, callbackID string, messageID int, data string) {
			handleCallback(ctx, engine, sender, userID, callbackID, messageID, data)
		},
	)

	// 4. Daily Prediction Schedule
	c := cron.New()
	cronSpec := fmt.Sprintf("%d %d * * *", cfg.PredictionMinute, cfg.PredictionHour)
	if _, err := c.AddFunc(cronSpec, func() { daily.RunDailyJob(ctx) }); err != nil {
		log.Fatalf("CRITICAL: invalid prediction schedule %q: %v", cronSpec, err)
	}
	c.Start()
	defer c.Stop()

	log.Printf("StockerBot %s Initialized", cfg.Version)
	log.Printf("Daily predictions scheduled for %02d:%02d", cfg.PredictionHour, cfg.PredictionMinute)

	// 5. Wait for Shutdown Signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Println("🛑 StockerBot Shutting Down: System signal received.")
	cancel()
}

// handleMessage routes one inbound text message: commands enter (or cancel)
// flows, anything else is evaluated against the user's active flow state.
func handleMessage(ctx context.Context, engine *bot.Engine, sender *telegram.Sender, userID int64, username, text string) {
	hctx, hcancel := context.WithTimeout(ctx, handlerTimeout)
	defer hcancel()

	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "/") {
		log.Printf("Command received from user %d: %s", userID, text)
		sendReply(sender, userID, engine.HandleCommand(hctx, userID, username, text))
		return
	}

	reply, handled := engine.HandleInput(hctx, userID, text)
	if !handled {
		// Free text with no flow in progress is ignored.
		return
	}
	sendReply(sender, userID, reply)
}

// handleCallback routes one button press. The press is acknowledged first
// so the client stops spinning even if handling fails.
func handleCallback(ctx context.Context, engine *bot.Engine, sender *telegram.Sender, userID int64, callbackID string, messageID int, data string) {
	hctx, hcancel := context.WithTimeout(ctx, handlerTimeout)
	defer hcancel()

	sender.AnswerCallbackQuery(callbackID)

	reply, handled := engine.HandleSelection(hctx, userID, data)
	if !handled || reply.Text == "" {
		return
	}

	// Replace the keyboard message so stale buttons disappear.
	if messageID != 0 && len(reply.Buttons) == 0 {
		sender.EditMessageText(userID, messageID, reply.Text)
		return
	}
	sendReply(sender, userID, reply)
}

func sendReply(sender *telegram.Sender, userID int64, reply bot.Reply) {
	if reply.Text == "" {
		return
	}
	if len(reply.Buttons) > 0 {
		sender.SendInteractiveMessage(userID, reply.Text, reply.Buttons)
		return
	}
	sender.SendMessage(userID, reply.Text)
}

func readVersion() string {
	version, err := os.ReadFile(VersionFile)
	if err != nil {
		return "v0.0.0-dev"
	}
	return strings.TrimSpace(string(version))
}
