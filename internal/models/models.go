package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Holding represents a single purchased stock position. Persistence is
// handled by the storage package, which maps prices to a BSON-friendly
// shape; this struct stays on decimal.Decimal for exact arithmetic.
type Holding struct {
	ID            primitive.ObjectID `json:"id"`
	UserID        int64              `json:"user_id"`
	Username      string             `json:"username,omitempty"`
	StockCode     string             `json:"stock_code"`
	BuyPrice      decimal.Decimal    `json:"buy_price"`
	Quantity      int64              `json:"quantity"`
	BuyTimestamp  time.Time          `json:"buy_timestamp"`
	SellPrice     decimal.Decimal    `json:"sell_price,omitempty"`
	SellQuantity  int64              `json:"sell_quantity,omitempty"`
	SellTimestamp *time.Time         `json:"sell_timestamp,omitempty"`

	// NotificationEnabled mirrors the owner's UserSettings at time of write
	// so the daily job can inspect a holding without a join.
	NotificationEnabled bool `json:"notification"`
}

// UserSettings stores per-user preferences. At most one record per user (upsert semantics).
type UserSettings struct {
	UserID               int64     `bson:"user_id" json:"user_id"`
	NotificationsEnabled bool      `bson:"notifications" json:"notifications"`
	UpdatedAt            time.Time `bson:"updated_at" json:"updated_at"`
}
