package storage

import (
	"context"
	"errors"

	"github.com/devfahim/levelbot/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Storage persists user and group profiles. Both tables auto-create on first
// open. Profiles are owned by the store; callers get copies and write them
// back with the save methods.
type Storage interface {
	// GetUser returns the profile for a Telegram user id, or ErrNotFound.
	GetUser(ctx context.Context, telegramID string) (*models.UserProfile, error)
	// SaveUser upserts the profile keyed by its TelegramID.
	SaveUser(ctx context.Context, user *models.UserProfile) error
	// UserRank returns the 1-based position of the user when all profiles
	// are ordered by descending cumulative XP.
	UserRank(ctx context.Context, telegramID string) (int, error)
	// TopUsersByXP returns up to limit profiles ordered by descending
	// cumulative XP.
	TopUsersByXP(ctx context.Context, limit int) ([]*models.UserProfile, error)

	// GetGroup returns the profile for a chat id, or ErrNotFound.
	GetGroup(ctx context.Context, groupID string) (*models.GroupProfile, error)
	// SaveGroup upserts the group profile keyed by its GroupID.
	SaveGroup(ctx context.Context, group *models.GroupProfile) error

	Close() error
}
