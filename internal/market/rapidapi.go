package market

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"stockerbot/internal/models"
)

const maxNewsItems = 3

// stockResponse is the upstream /stock payload. Only the fields we consume.
type stockResponse struct {
	CompanyName  string                 `json:"companyName"`
	Industry     string                 `json:"industry"`
	CurrentPrice map[string]interface{} `json:"currentPrice"`
	Technical    json.RawMessage        `json:"stockTechnicalData"`
	RiskMeter    json.RawMessage        `json:"riskMeter"`
	RecentNews   []models.NewsItem      `json:"recentNews"`
}

// RapidAPIProvider is a concrete implementation of Provider backed by the
// Indian Stock Exchange API on RapidAPI.
type RapidAPIProvider struct {
	client *resty.Client
}

// NewRapidAPIProvider builds a provider for the given RapidAPI host.
// The API key is read from the environment we validated in config.
func NewRapidAPIProvider(host string) *RapidAPIProvider {
	client := resty.New().
		SetBaseURL("https://"+host).
		SetHeader("x-rapidapi-host", host).
		SetHeader("x-rapidapi-key", os.Getenv("RAPID_API_KEY")).
		SetTimeout(15 * time.Second)

	return &RapidAPIProvider{client: client}
}

// fetchStock performs the single upstream lookup every method here is built on.
func (p *RapidAPIProvider) fetchStock(ctx context.Context, stockCode string) (*stockResponse, error) {
	var body stockResponse

	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("name", stockCode).
		SetResult(&body).
		Get("/stock")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("stock lookup for %s failed: status %s", stockCode, resp.Status())
	}
	return &body, nil
}

// GetCurrentPrice prefers the NSE quote and falls back to BSE.
// The upstream serves prices inconsistently as strings or numbers, and
// sometimes not at all; anything unusable resolves to zero.
func (p *RapidAPIProvider) GetCurrentPrice(ctx context.Context, stockCode string) (decimal.Decimal, error) {
	body, err := p.fetchStock(ctx, stockCode)
	if err != nil {
		return decimal.Zero, err
	}

	price := parsePrice(body.CurrentPrice["NSE"])
	if price.IsZero() {
		price = parsePrice(body.CurrentPrice["BSE"])
	}
	return price, nil
}

func (p *RapidAPIProvider) GetRecentNews(ctx context.Context, stockCode string) (string, error) {
	body, err := p.fetchStock(ctx, stockCode)
	if err != nil {
		return "", err
	}
	return formatNews(stockCode, body.RecentNews), nil
}

func (p *RapidAPIProvider) GetStockDetail(ctx context.Context, stockCode string) (*models.StockDetail, error) {
	body, err := p.fetchStock(ctx, stockCode)
	if err != nil {
		return nil, err
	}

	return &models.StockDetail{
		CompanyName:   body.CompanyName,
		Industry:      body.Industry,
		TechnicalData: body.Technical,
		RiskMeter:     body.RiskMeter,
		RecentNews:    formatNews(stockCode, body.RecentNews),
	}, nil
}

// parsePrice tolerates string, float and absent values.
func parsePrice(v interface{}) decimal.Decimal {
	switch val := v.(type) {
	case string:
		price, err := decimal.NewFromString(strings.TrimSpace(val))
		if err != nil {
			return decimal.Zero
		}
		return price
	case float64:
		return decimal.NewFromFloat(val)
	default:
		return decimal.Zero
	}
}

func formatNews(stockCode string, items []models.NewsItem) string {
	if len(items) == 0 {
		return fmt.Sprintf("😕 No recent news found for stock '%s'.", stockCode)
	}

	if len(items) > maxNewsItems {
		items = items[:maxNewsItems]
	}

	lines := make([]string, 0, len(items))
	for _, item := range items {
		headline := item.Headline
		if headline == "" {
			headline = "No headline"
		}
		date := item.Date
		if date == "" {
			date = "Unknown date"
		}
		lines = append(lines, fmt.Sprintf("📰 %s (%s)", headline, date))
	}
	return strings.Join(lines, "\n")
}
