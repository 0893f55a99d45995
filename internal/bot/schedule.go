package bot

import (
	"context"
	"log"

	"stockerbot/internal/telegram"
)

var scheduleButtons = [][]telegram.Button{
	{
		{Text: "ON 🔔", CallbackData: "SCHEDULE_ON"},
		{Text: "OFF 🔕", CallbackData: "SCHEDULE_OFF"},
	},
}

func (e *Engine) startScheduleFlow(userID int64, username string) Reply {
	e.sessions.Put(&Session{
		UserID:   userID,
		Username: username,
		Flow:     FlowSchedule,
		State:    StateScheduleChooseOnOff,
	})

	return Reply{
		Text:    "Do you want to turn notifications ON or OFF? Please select:",
		Buttons: scheduleButtons,
	}
}

// scheduleChooseOnOff commits the user's choice: upsert the settings record
// and mirror the flag onto every holding they own. The last selection wins.
func (e *Engine) scheduleChooseOnOff(ctx context.Context, sess *Session, data string) Reply {
	var enabled bool
	var confirmation string

	switch data {
	case "SCHEDULE_ON":
		enabled = true
		confirmation = "✅ Notifications turned ON."
	case "SCHEDULE_OFF":
		enabled = false
		confirmation = "✅ Notifications turned OFF."
	default:
		e.sessions.Delete(sess.UserID)
		return Reply{Text: msgUnknownChoice}
	}

	e.sessions.Delete(sess.UserID)

	if err := e.store.UpsertUserSettings(ctx, sess.UserID, enabled); err != nil {
		log.Printf("ERROR: upsert settings for user %d: %v", sess.UserID, err)
		return Reply{Text: msgGenericFailure}
	}

	if err := e.store.SetNotificationForHoldings(ctx, sess.UserID, enabled); err != nil {
		log.Printf("ERROR: mirror notification flag for user %d: %v", sess.UserID, err)
		return Reply{Text: msgGenericFailure}
	}

	return Reply{Text: confirmation}
}
