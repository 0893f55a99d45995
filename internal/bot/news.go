package bot

import (
	"context"
	"log"
)

func (e *Engine) startNewsFlow(userID int64, username string) Reply {
	e.sessions.Put(&Session{
		UserID:   userID,
		Username: username,
		Flow:     FlowNews,
		State:    StateNewsEnterStockName,
	})

	return Reply{Text: "📰 Please enter the stock name for which you want the latest news:"}
}

// newsEnterStockName is the News flow's only state. Read-only: fetch and
// show, no store mutation.
func (e *Engine) newsEnterStockName(ctx context.Context, sess *Session, text string) Reply {
	if text == "" {
		return Reply{Text: "📰 Please enter the stock name for which you want the latest news:"}
	}

	e.sessions.Delete(sess.UserID)

	news, err := e.market.GetRecentNews(ctx, text)
	if err != nil {
		log.Printf("ERROR: news lookup for '%s': %v", text, err)
		return Reply{Text: msgGenericFailure}
	}

	return Reply{Text: news}
}
