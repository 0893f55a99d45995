package storage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"stockerbot/internal/models"
)

const (
	portfolioCollection    = "portfolio"
	userSettingsCollection = "user_settings"
)

// holdingDoc is the persisted shape of a Holding. Prices are stored as
// float64: shopspring decimal has no BSON codec, and float64 is all the
// precision the upstream price feed provides anyway.
type holdingDoc struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty"`
	UserID              int64              `bson:"user_id"`
	Username            string             `bson:"username,omitempty"`
	StockCode           string             `bson:"stock_code"`
	BuyPrice            float64            `bson:"buy_price"`
	Quantity            int64              `bson:"quantity"`
	BuyTimestamp        time.Time          `bson:"buy_timestamp"`
	SellPrice           float64            `bson:"sell_price,omitempty"`
	SellQuantity        int64              `bson:"sell_quantity,omitempty"`
	SellTimestamp       *time.Time         `bson:"sell_timestamp,omitempty"`
	NotificationEnabled bool               `bson:"notification"`
}

func toDoc(h models.Holding) holdingDoc {
	return holdingDoc{
		ID:                  h.ID,
		UserID:              h.UserID,
		Username:            h.Username,
		StockCode:           h.StockCode,
		BuyPrice:            h.BuyPrice.InexactFloat64(),
		Quantity:            h.Quantity,
		BuyTimestamp:        h.BuyTimestamp,
		SellPrice:           h.SellPrice.InexactFloat64(),
		SellQuantity:        h.SellQuantity,
		SellTimestamp:       h.SellTimestamp,
		NotificationEnabled: h.NotificationEnabled,
	}
}

func fromDoc(d holdingDoc) models.Holding {
	return models.Holding{
		ID:                  d.ID,
		UserID:              d.UserID,
		Username:            d.Username,
		StockCode:           d.StockCode,
		BuyPrice:            decimal.NewFromFloat(d.BuyPrice),
		Quantity:            d.Quantity,
		BuyTimestamp:        d.BuyTimestamp,
		SellPrice:           decimal.NewFromFloat(d.SellPrice),
		SellQuantity:        d.SellQuantity,
		SellTimestamp:       d.SellTimestamp,
		NotificationEnabled: d.NotificationEnabled,
	}
}

// sanitizeFields converts decimal values to float64 so the driver can
// encode them; everything else passes through untouched.
func sanitizeFields(fields map[string]interface{}) bson.M {
	out := bson.M{}
	for k, v := range fields {
		if d, ok := v.(decimal.Decimal); ok {
			out[k] = d.InexactFloat64()
			continue
		}
		out[k] = v
	}
	return out
}

// MongoStore implements Store on top of MongoDB.
type MongoStore struct {
	portfolio *mongo.Collection
	settings  *mongo.Collection
}

// Connect dials MongoDB and verifies the connection with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client, nil
}

func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	db := client.Database(database)
	return &MongoStore{
		portfolio: db.Collection(portfolioCollection),
		settings:  db.Collection(userSettingsCollection),
	}
}

func (m *MongoStore) InsertHolding(ctx context.Context, h models.Holding) (string, error) {
	if h.BuyTimestamp.IsZero() {
		h.BuyTimestamp = time.Now().UTC()
	}

	res, err := m.portfolio.InsertOne(ctx, toDoc(h))
	if err != nil {
		return "", err
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", nil
	}
	return oid.Hex(), nil
}

func (m *MongoStore) FindHoldings(ctx context.Context, userID int64) ([]models.Holding, error) {
	cur, err := m.portfolio.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var holdings []models.Holding
	for cur.Next(ctx) {
		var d holdingDoc
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		holdings = append(holdings, fromDoc(d))
	}
	return holdings, cur.Err()
}

func (m *MongoStore) FindHoldingByID(ctx context.Context, id string) (*models.Holding, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var d holdingDoc
	err = m.portfolio.FindOne(ctx, bson.M{"_id": oid}).Decode(&d)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	h := fromDoc(d)
	return &h, nil
}

func (m *MongoStore) UpdateHolding(ctx context.Context, id string, fields map[string]interface{}) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	res, err := m.portfolio.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": sanitizeFields(fields)})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoStore) DeleteHolding(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	res, err := m.portfolio.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoStore) UpsertUserSettings(ctx context.Context, userID int64, enabled bool) error {
	_, err := m.settings.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": bson.M{
			"notifications": enabled,
			"updated_at":    time.Now().UTC(),
		}},
		options.Update().SetUpsert(true),
	)
	return err
}

// SetNotificationForHoldings mirrors the user's notification setting onto
// every holding they own.
func (m *MongoStore) SetNotificationForHoldings(ctx context.Context, userID int64, enabled bool) error {
	_, err := m.portfolio.UpdateMany(ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": bson.M{"notification": enabled}},
	)
	return err
}

func (m *MongoStore) FindUsersWithNotificationsEnabled(ctx context.Context) ([]int64, error) {
	cur, err := m.settings.Find(ctx, bson.M{"notifications": true})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []int64
	for cur.Next(ctx) {
		var s models.UserSettings
		if err := cur.Decode(&s); err != nil {
			return nil, err
		}
		users = append(users, s.UserID)
	}
	return users, cur.Err()
}
