package ai

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// StockSnapshot is the data payload sent to the model for one holding.
// Field names match the JSON contract the prediction prompt was tuned on.
type StockSnapshot struct {
	CompanyName   string          `json:"companyName"`
	Industry      string          `json:"industry"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	TechnicalData json.RawMessage `json:"stockTechnicalData"`
	RiskMeter     json.RawMessage `json:"riskMeter"`
	RecentNews    string          `json:"recentNews"`
	BuyPrice      decimal.Decimal `json:"buy_price"`
	Quantity      int64           `json:"quantity"`
	Difference    decimal.Decimal `json:"difference"`
}
