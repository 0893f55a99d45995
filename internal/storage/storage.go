package storage

import (
	"context"
	"errors"

	"stockerbot/internal/models"
)

// ErrNotFound is returned when a holding id does not resolve to a record,
// e.g. a stale removal button racing a completed delete.
var ErrNotFound = errors.New("holding not found")

// Store is the persistence boundary for holdings and user settings.
// Interfaces define *behavior*: the bot engine and the scheduler depend on
// this, so tests swap the Mongo implementation for an in-memory mock.
type Store interface {
	InsertHolding(ctx context.Context, h models.Holding) (string, error)
	FindHoldings(ctx context.Context, userID int64) ([]models.Holding, error)
	FindHoldingByID(ctx context.Context, id string) (*models.Holding, error)
	UpdateHolding(ctx context.Context, id string, fields map[string]interface{}) error
	DeleteHolding(ctx context.Context, id string) error
	UpsertUserSettings(ctx context.Context, userID int64, enabled bool) error
	SetNotificationForHoldings(ctx context.Context, userID int64, enabled bool) error
	FindUsersWithNotificationsEnabled(ctx context.Context) ([]int64, error)
}
