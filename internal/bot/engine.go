package bot

import (
	"context"
	"log"
	"strings"

	"stockerbot/internal/market"
	"stockerbot/internal/storage"
	"stockerbot/internal/telegram"
)

// Reply is what a handled event sends back to the user. An empty Text means
// nothing to send.
type Reply struct {
	Text    string
	Buttons [][]telegram.Button
}

const (
	msgCancelled      = "❌ Operation cancelled."
	msgGenericFailure = "⚠️ Something went wrong. Please try again later."
	msgUnknownChoice  = "Unknown selection. 🤷‍♀️"
	msgEmptyPortfolio = "😕 Your portfolio is empty."

	msgWelcome = "<b>Welcome to StockerBot! 🚀</b>\n" +
		"I'm here to help you manage your stock portfolio using advanced predictive analytics and AI.\n\n" +
		"Available commands:\n" +
		"/add - Add Stock to Portfolio 📈\n" +
		"/view - View Portfolio 👀\n" +
		"/remove - Remove Stock from Portfolio ❌\n" +
		"/news - Get Latest News 📰\n" +
		"/schedule - Schedule Notification ⏰\n" +
		"/cancel - Cancel the current operation ❌\n\n" +
		"Please use the bot's command menu to navigate and choose your desired option."
)

// Engine routes every inbound event to the right flow/state handler,
// enforcing one active flow per user.
type Engine struct {
	store    storage.Store
	market   market.Provider
	sessions *SessionStore
}

func NewEngine(store storage.Store, provider market.Provider, sessions *SessionStore) *Engine {
	return &Engine{
		store:    store,
		market:   provider,
		sessions: sessions,
	}
}

// HandleCommand processes a /command. Flow entry commands discard any
// existing session for the user and start fresh; /cancel is idempotent.
func (e *Engine) HandleCommand(ctx context.Context, userID int64, username, command string) Reply {
	defer e.sessions.LockUser(userID)()

	switch normalizeCommand(command) {
	case "start":
		return Reply{Text: msgWelcome}
	case "add":
		return e.startAddFlow(userID, username)
	case "view":
		return e.viewPortfolio(ctx, userID)
	case "remove":
		return e.startRemoveFlow(ctx, userID, username)
	case "news":
		return e.startNewsFlow(userID, username)
	case "schedule":
		return e.startScheduleFlow(userID, username)
	case "cancel":
		// Cancelling with no active session is still a success.
		e.sessions.Delete(userID)
		return Reply{Text: msgCancelled}
	default:
		return Reply{Text: "Unknown command. Try /add, /view, /remove, /news or /schedule."}
	}
}

// HandleInput processes free text against the session's current state.
// Returns false when the user has no active flow, so the caller decides the
// fallback wording. Validation failures re-prompt the same state and leave
// the session untouched.
func (e *Engine) HandleInput(ctx context.Context, userID int64, text string) (Reply, bool) {
	defer e.sessions.LockUser(userID)()

	sess, ok := e.sessions.Get(userID)
	if !ok {
		return Reply{}, false
	}

	text = strings.TrimSpace(text)

	switch sess.State {
	case StateAddEnterCode:
		return e.addEnterCode(sess, text), true
	case StateAddEnterBuyPrice:
		return e.addEnterBuyPrice(sess, text), true
	case StateAddEnterQuantity:
		return e.addEnterQuantity(ctx, sess, text), true
	case StateRemoveEnterSellPrice:
		return e.removeEnterSellPrice(sess, text), true
	case StateRemoveEnterSellQuantity:
		return e.removeEnterSellQuantity(ctx, sess, text), true
	case StateNewsEnterStockName:
		return e.newsEnterStockName(ctx, sess, text), true
	case StateAddChooseSuggestion, StateRemoveChooseHolding, StateScheduleChooseOnOff:
		// A keyboard is pending; typed text is not one of the offered
		// tokens. Re-prompt, keep the state.
		return Reply{Text: "Please use the buttons above to make a selection, or /cancel to abort."}, true
	default:
		log.Printf("ERROR: session for user %d in unexpected state %d, dropping it", userID, sess.State)
		e.sessions.Delete(userID)
		return Reply{Text: msgGenericFailure}, true
	}
}

// HandleSelection processes an inline button press. Validation here is
// "token is one of the offered set": anything else (stale keyboards
// included) terminates the active flow with an explanatory message.
func (e *Engine) HandleSelection(ctx context.Context, userID int64, data string) (Reply, bool) {
	defer e.sessions.LockUser(userID)()

	sess, ok := e.sessions.Get(userID)
	if !ok {
		// Stale button from a finished or abandoned flow.
		return Reply{}, false
	}

	switch sess.State {
	case StateAddChooseSuggestion:
		return e.addChooseSuggestion(sess, data), true
	case StateRemoveChooseHolding:
		return e.removeChooseHolding(ctx, sess, data), true
	case StateScheduleChooseOnOff:
		return e.scheduleChooseOnOff(ctx, sess, data), true
	default:
		// A button arrived while the flow is waiting for text.
		e.sessions.Delete(userID)
		return Reply{Text: msgUnknownChoice}, true
	}
}

// normalizeCommand turns "/add@StockerBot extra args" into "add".
func normalizeCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}

	cmd := strings.TrimPrefix(fields[0], "/")
	if at := strings.Index(cmd, "@"); at != -1 {
		cmd = cmd[:at]
	}
	return strings.ToLower(cmd)
}
