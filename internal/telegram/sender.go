package telegram

import (
	"encoding/json"
	"log"
)

// Button represents an inline keyboard button.
type Button struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

// BotCommand is one entry of the command menu shown by the Telegram client.
type BotCommand struct {
	Command     string `json:"command"`
	Description string `json:"description"`
}

// Sender delivers outbound messages. It is a struct (rather than package
// functions) so the bot engine and the scheduler can depend on a narrow
// value that tests swap for a recorder.
type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

// SendMessage sends a plain HTML-formatted message to a chat.
func (s *Sender) SendMessage(chatID int64, text string) {
	payload := map[string]interface{}{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	if err := callMethod("sendMessage", payload); err != nil {
		log.Printf("Telegram Send Failed (chat %d): %v", chatID, err)
	}
}

// SendInteractiveMessage sends a message with inline buttons.
// Each inner slice of buttons becomes one keyboard row.
func (s *Sender) SendInteractiveMessage(chatID int64, text string, buttons [][]Button) {
	keyboard, _ := json.Marshal(map[string]interface{}{
		"inline_keyboard": buttons,
	})

	payload := map[string]interface{}{
		"chat_id":      chatID,
		"text":         text,
		"parse_mode":   "HTML",
		"reply_markup": json.RawMessage(keyboard),
	}
	if err := callMethod("sendMessage", payload); err != nil {
		log.Printf("Telegram Interactive Send Failed (chat %d): %v", chatID, err)
	}
}

// EditMessageText replaces the text of a previously sent message.
// Used after a button press so the stale keyboard disappears.
func (s *Sender) EditMessageText(chatID int64, messageID int, text string) {
	payload := map[string]interface{}{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
		"parse_mode": "HTML",
	}
	if err := callMethod("editMessageText", payload); err != nil {
		log.Printf("Telegram Edit Failed (chat %d): %v", chatID, err)
	}
}

// AnswerCallbackQuery acknowledges a button press so the client stops
// showing the loading spinner on the button.
func (s *Sender) AnswerCallbackQuery(callbackID string) {
	payload := map[string]string{"callback_query_id": callbackID}
	if err := callMethod("answerCallbackQuery", payload); err != nil {
		log.Printf("Telegram AnswerCallback Failed: %v", err)
	}
}

// SetMyCommands registers the bot command menu. One-time call at startup.
func SetMyCommands(commands []BotCommand) error {
	return callMethod("setMyCommands", map[string]interface{}{
		"commands": commands,
	})
}
