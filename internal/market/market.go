package market

import (
	"context"

	"github.com/shopspring/decimal"

	"stockerbot/internal/models"
)

// Provider is an Interface.
// Interfaces define *behavior*. Any struct that implements these methods
// satisfies the interface. This allows us to swap the RapidAPI backend for
// a Mock in testing, without changing the code that *uses* the provider.
type Provider interface {
	// GetCurrentPrice returns the latest traded price for a stock.
	// A stock the provider cannot price resolves to zero, not an error.
	GetCurrentPrice(ctx context.Context, stockCode string) (decimal.Decimal, error)

	// GetRecentNews returns headline lines ready to show to the user.
	GetRecentNews(ctx context.Context, stockCode string) (string, error)

	// GetStockDetail returns the extended profile used for predictions.
	GetStockDetail(ctx context.Context, stockCode string) (*models.StockDetail, error)
}
