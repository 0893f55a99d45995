package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stockerbot/internal/storage"
	"stockerbot/internal/telegram"
)

const removeCallbackPrefix = "REMOVE_STOCK_"

// startRemoveFlow lists the user's holdings as buttons. With an empty
// portfolio the flow ends right here and no session is ever created.
func (e *Engine) startRemoveFlow(ctx context.Context, userID int64, username string) Reply {
	holdings, err := e.store.FindHoldings(ctx, userID)
	if err != nil {
		log.Printf("ERROR: list holdings for user %d: %v", userID, err)
		return Reply{Text: msgGenericFailure}
	}

	if len(holdings) == 0 {
		return Reply{Text: "😕 Your portfolio is empty. Nothing to remove!"}
	}

	var buttons [][]telegram.Button
	for _, h := range holdings {
		buttons = append(buttons, []telegram.Button{{
			Text:         fmt.Sprintf("%s (Qty: %d)", h.StockCode, h.Quantity),
			CallbackData: removeCallbackPrefix + h.ID.Hex(),
		}})
	}

	e.sessions.Put(&Session{
		UserID:   userID,
		Username: username,
		Flow:     FlowRemove,
		State:    StateRemoveChooseHolding,
	})

	return Reply{
		Text:    "Please select a stock to remove: 🗑️",
		Buttons: buttons,
	}
}

func (e *Engine) removeChooseHolding(ctx context.Context, sess *Session, data string) Reply {
	if !strings.HasPrefix(data, removeCallbackPrefix) {
		e.sessions.Delete(sess.UserID)
		return Reply{Text: msgUnknownChoice}
	}

	id := strings.TrimPrefix(data, removeCallbackPrefix)

	holding, err := e.store.FindHoldingByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		e.sessions.Delete(sess.UserID)
		return Reply{Text: "❌ Stock not found."}
	}
	if err != nil {
		log.Printf("ERROR: load holding %s: %v", id, err)
		e.sessions.Delete(sess.UserID)
		return Reply{Text: msgGenericFailure}
	}

	sess.Scratch.RemovalID = id
	sess.Scratch.RemovalCode = holding.StockCode
	sess.State = StateRemoveEnterSellPrice
	e.sessions.Touch(sess.UserID)

	return Reply{Text: fmt.Sprintf("Please enter the selling price for <b>%s</b>: 💰", holding.StockCode)}
}

func (e *Engine) removeEnterSellPrice(sess *Session, text string) Reply {
	price, err := decimal.NewFromString(text)
	if err != nil {
		return Reply{Text: "❌ Invalid price. Please enter a numeric value for the selling price:"}
	}

	sess.Scratch.SellPrice = price
	sess.State = StateRemoveEnterSellQuantity
	e.sessions.Touch(sess.UserID)

	return Reply{Text: fmt.Sprintf("Please enter the quantity to sell for <b>%s</b>: 📊", sess.Scratch.RemovalCode)}
}

// removeEnterSellQuantity is the Remove flow's terminal state: it records
// the sell fields on the holding, then deletes the record. The holding
// disappears from the portfolio; no closed-position history is retained.
func (e *Engine) removeEnterSellQuantity(ctx context.Context, sess *Session, text string) Reply {
	quantity, err := strconv.ParseInt(text, 10, 64)
	if err != nil || quantity < 0 {
		return Reply{Text: msgInvalidQuantity}
	}

	id := sess.Scratch.RemovalID
	stockCode := sess.Scratch.RemovalCode
	sellPrice := sess.Scratch.SellPrice

	e.sessions.Delete(sess.UserID)

	err = e.store.UpdateHolding(ctx, id, map[string]interface{}{
		"sell_price":     sellPrice,
		"sell_quantity":  quantity,
		"sell_timestamp": time.Now().UTC(),
	})
	if errors.Is(err, storage.ErrNotFound) {
		return Reply{Text: "❌ Stock not found."}
	}
	if err != nil {
		log.Printf("ERROR: record sale for holding %s: %v", id, err)
		return Reply{Text: msgGenericFailure}
	}

	if err := e.store.DeleteHolding(ctx, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
		log.Printf("ERROR: delete holding %s: %v", id, err)
		return Reply{Text: msgGenericFailure}
	}

	return Reply{Text: fmt.Sprintf(
		"✅ Stock '<b>%s</b>' sold at ₹%s for %d shares and removed from your portfolio!",
		stockCode, sellPrice.String(), quantity,
	)}
}
