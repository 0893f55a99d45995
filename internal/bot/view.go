package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// viewPortfolio shows every holding with its live price and movement since
// purchase. Read-only, no session: /view works even mid-flow (and leaves
// the active flow alone).
func (e *Engine) viewPortfolio(ctx context.Context, userID int64) Reply {
	holdings, err := e.store.FindHoldings(ctx, userID)
	if err != nil {
		log.Printf("ERROR: list holdings for user %d: %v", userID, err)
		return Reply{Text: msgGenericFailure}
	}

	if len(holdings) == 0 {
		return Reply{Text: msgEmptyPortfolio}
	}

	var lines []string
	for _, h := range holdings {
		current, err := e.market.GetCurrentPrice(ctx, h.StockCode)
		if err != nil {
			log.Printf("WARNING: price lookup for %s: %v", h.StockCode, err)
			lines = append(lines, fmt.Sprintf("⚠️ %s: price unavailable\nQuantity: %d shares", h.StockCode, h.Quantity))
			continue
		}

		diff := current.Sub(h.BuyPrice)
		var emoji, diffText string
		switch {
		case diff.IsPositive():
			emoji = "🔺"
			diffText = fmt.Sprintf("up by ₹%s", diff.StringFixed(2))
		case diff.IsNegative():
			emoji = "🔻"
			diffText = fmt.Sprintf("down by ₹%s", diff.Abs().StringFixed(2))
		default:
			emoji = "➖"
			diffText = "no change"
		}

		lines = append(lines, fmt.Sprintf(
			"✅ %s: Current ₹%s (%s %s)\nQuantity: %d shares",
			h.StockCode, current.StringFixed(2), emoji, diffText, h.Quantity,
		))
	}

	return Reply{Text: "👤 <b>Your Portfolio:</b>\n" + strings.Join(lines, "\n")}
}
