package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stockerbot/internal/models"
	"stockerbot/internal/telegram"
)

const (
	msgInvalidPrice    = "❌ Invalid price. Please enter a numeric value for the buying price:"
	msgInvalidQuantity = "❌ Invalid quantity. Please enter a numeric value for the quantity:"
)

// suggestionButtons is the fixed menu of commonly added BSE stocks.
var suggestionButtons = [][]telegram.Button{
	{
		{Text: "Reliance 🤝", CallbackData: "STOCK_RELIANCE"},
		{Text: "TCS 💻", CallbackData: "STOCK_TCS"},
	},
	{
		{Text: "HDFC Bank 🏦", CallbackData: "STOCK_HDFC"},
		{Text: "ICICI Bank 💳", CallbackData: "STOCK_ICICI"},
	},
	{
		{Text: "Other ✍️", CallbackData: "STOCK_OTHER"},
	},
}

func (e *Engine) startAddFlow(userID int64, username string) Reply {
	e.sessions.Put(&Session{
		UserID:   userID,
		Username: username,
		Flow:     FlowAdd,
		State:    StateAddChooseSuggestion,
	})

	return Reply{
		Text:    "Please select a BSE stock or choose 'Other' to enter manually: 🔍",
		Buttons: suggestionButtons,
	}
}

func (e *Engine) addChooseSuggestion(sess *Session, data string) Reply {
	if data == "STOCK_OTHER" {
		sess.State = StateAddEnterCode
		e.sessions.Touch(sess.UserID)
		return Reply{Text: "✍️ Please type the stock name or code:"}
	}

	if strings.HasPrefix(data, "STOCK_") {
		sess.Scratch.StockCode = strings.TrimPrefix(data, "STOCK_")
		sess.State = StateAddEnterBuyPrice
		e.sessions.Touch(sess.UserID)
		return Reply{Text: promptBuyPrice(sess.Scratch.StockCode)}
	}

	e.sessions.Delete(sess.UserID)
	return Reply{Text: msgUnknownChoice}
}

func (e *Engine) addEnterCode(sess *Session, text string) Reply {
	if text == "" {
		return Reply{Text: "✍️ Please type the stock name or code:"}
	}

	sess.Scratch.StockCode = text
	sess.State = StateAddEnterBuyPrice
	e.sessions.Touch(sess.UserID)
	return Reply{Text: promptBuyPrice(sess.Scratch.StockCode)}
}

func (e *Engine) addEnterBuyPrice(sess *Session, text string) Reply {
	price, err := decimal.NewFromString(text)
	if err != nil {
		return Reply{Text: msgInvalidPrice}
	}

	sess.Scratch.BuyPrice = price
	sess.State = StateAddEnterQuantity
	e.sessions.Touch(sess.UserID)
	return Reply{Text: fmt.Sprintf("Please enter the quantity for <b>%s</b>: 📊", sess.Scratch.StockCode)}
}

// addEnterQuantity is the Add flow's terminal state: a valid quantity
// commits the new holding and ends the flow.
func (e *Engine) addEnterQuantity(ctx context.Context, sess *Session, text string) Reply {
	quantity, err := strconv.ParseInt(text, 10, 64)
	if err != nil || quantity < 0 {
		return Reply{Text: msgInvalidQuantity}
	}

	holding := models.Holding{
		UserID:       sess.UserID,
		Username:     sess.Username,
		StockCode:    sess.Scratch.StockCode,
		BuyPrice:     sess.Scratch.BuyPrice,
		Quantity:     quantity,
		BuyTimestamp: time.Now().UTC(),
	}

	// The session ends either way: commit failure is not recoverable by
	// retyping the quantity.
	e.sessions.Delete(sess.UserID)

	if _, err := e.store.InsertHolding(ctx, holding); err != nil {
		log.Printf("ERROR: insert holding for user %d: %v", sess.UserID, err)
		return Reply{Text: msgGenericFailure}
	}

	return Reply{Text: fmt.Sprintf(
		"✅ Stock '<b>%s</b>' purchased at ₹%s for %d shares added to your portfolio!",
		holding.StockCode, holding.BuyPrice.String(), holding.Quantity,
	)}
}

func promptBuyPrice(stockCode string) string {
	return fmt.Sprintf("Please enter the buying price for <b>%s</b>: 💵", stockCode)
}
