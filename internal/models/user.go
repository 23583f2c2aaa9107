package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// UserProfile is the persistent per-user record. Economy fields (wallet, bank,
// loan) belong to the command layer; the dispatcher only touches the interaction
// counters and the XP block.
type UserProfile struct {
	TelegramID      string          `json:"telegram_id"`
	Username        string          `json:"username"`
	FirstName       string          `json:"first_name"`
	LastName        string          `json:"last_name"`
	CreatedAt       time.Time       `json:"created_at"`
	LastInteraction time.Time       `json:"last_interaction"`
	CommandCount    int64           `json:"command_count"`
	Wallet          int64           `json:"wallet"`
	Bank            int64           `json:"bank"`
	Loan            int64           `json:"loan"`
	LastDailyWork   *time.Time      `json:"last_daily_work,omitempty"`
	XP              int64           `json:"xp"`
	CurrentXP       int64           `json:"current_xp"`
	RequiredXP      int64           `json:"required_xp"`
	Level           int             `json:"level"`
	Rank            int             `json:"rank"`
	Achievements    []string        `json:"achievements"`
	Inventory       []string        `json:"inventory"`
	IsPremium       bool            `json:"is_premium"`
	PremiumExpires  *time.Time      `json:"premium_expires,omitempty"`
	Ban             bool            `json:"ban"`
	BanReason       string          `json:"ban_reason,omitempty"`
	Language        string          `json:"language"`
	Referrer        string          `json:"referrer,omitempty"`
	ReferralCode    string          `json:"referral_code"`
	Referrals       []string        `json:"referrals"`
	Settings        json.RawMessage `json:"settings"`
	Cooldowns       json.RawMessage `json:"cooldowns"`
	LastActiveGroup string          `json:"last_active_group,omitempty"`
}

// NewUserProfile creates a first-seen profile with zeroed economy and XP
// counters. Level starts at 1 with the level-1 threshold.
func NewUserProfile(telegramID, username, firstName, lastName string) *UserProfile {
	now := time.Now()
	return &UserProfile{
		TelegramID:      telegramID,
		Username:        username,
		FirstName:       firstName,
		LastName:        lastName,
		CreatedAt:       now,
		LastInteraction: now,
		RequiredXP:      100,
		Level:           1,
		Language:        "en",
		ReferralCode:    uuid.New().String(),
		Achievements:    []string{},
		Inventory:       []string{},
		Referrals:       []string{},
		Settings:        json.RawMessage("{}"),
		Cooldowns:       json.RawMessage("{}"),
	}
}

// DisplayName returns the best available handle for user-facing messages.
func (u *UserProfile) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return "User"
}
