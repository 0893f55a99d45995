package telegram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"
)

// httpClient is shared across all API calls. The long-poll listener uses its
// own client because it needs a timeout longer than the poll window.
var httpClient = &http.Client{Timeout: 30 * time.Second}

func apiURL(method string) string {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	return fmt.Sprintf("https://api.telegram.org/bot%s/%s", token, method)
}

// callMethod POSTs a JSON payload to a Bot API method and checks the response.
func callMethod(method string, payload interface{}) error {
	if os.Getenv("TELEGRAM_BOT_TOKEN") == "" {
		log.Println("Warning: Telegram credentials missing, skipping API call")
		return fmt.Errorf("telegram token not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := httpClient.Post(apiURL(method), "application/json", bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Description string `json:"description"`
			ErrorCode   int    `json:"error_code"`
		}
		json.NewDecoder(resp.Body).Decode(&apiErr)
		return fmt.Errorf("telegram API error %s: %s (code %d)", method, apiErr.Description, apiErr.ErrorCode)
	}
	return nil
}
