package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// groqBaseURL points the OpenAI-compatible client at Groq's endpoint.
const groqBaseURL = "https://api.groq.com/openai/v1"

const systemPrompt = "You are a stock trading assistant. Provide a recommendation (Buy or Sell) based on the following json data."

// NoPrediction is the sentinel used when the model returns nothing usable.
const NoPrediction = "No prediction"

// Client wraps the Groq chat-completions API for per-holding recommendations.
type Client struct {
	api   *openai.Client
	model string
}

func NewClient(model string) *Client {
	apiKey := os.Getenv("GROQ_API_KEY")
	if apiKey == "" {
		log.Println("WARNING: GROQ_API_KEY not found. Predictions will fail until configured.")
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = groqBaseURL

	return &Client{
		api:   openai.NewClientWithConfig(cfg),
		model: model,
	}
}

// Predict sends one holding snapshot to the model and returns its free-text
// recommendation. An empty completion maps to the NoPrediction sentinel
// rather than an error: the holding was processed, the model just had
// nothing to say.
func (c *Client) Predict(ctx context.Context, snapshot StockSnapshot) (string, error) {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 1,
		MaxTokens:   1024,
		TopP:        1,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: string(payload)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("prediction request: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return NoPrediction, nil
	}
	return resp.Choices[0].Message.Content, nil
}
