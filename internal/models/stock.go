package models

import "encoding/json"

// StockDetail is the extended profile returned by the market data provider.
// TechnicalData and RiskMeter are kept as raw JSON: the upstream shapes vary
// per stock and we only ever forward them verbatim to the prediction model.
type StockDetail struct {
	CompanyName   string          `json:"companyName"`
	Industry      string          `json:"industry"`
	TechnicalData json.RawMessage `json:"stockTechnicalData"`
	RiskMeter     json.RawMessage `json:"riskMeter"`
	RecentNews    string          `json:"recentNews"`
}

// NewsItem is a single headline from the provider's recentNews list.
type NewsItem struct {
	Headline string `json:"headline"`
	Date     string `json:"date"`
}
