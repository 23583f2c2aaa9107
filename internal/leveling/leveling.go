// Package leveling holds the XP state machine applied to a user profile on
// every qualifying inbound message. It is pure: no storage, no transport.
package leveling

import "github.com/devfahim/levelbot/internal/models"

// XPPerMessage is the flat award for any qualifying text message.
const XPPerMessage = 10

// RequiredXP is the canonical threshold for advancing past the given level.
func RequiredXP(level int) int64 {
	return 100 + int64(level-1)*50
}

// Award adds amount to both the cumulative and in-level XP counters, then
// settles any pending level-ups. Returns true if at least one level-up
// occurred. The loop terminates because RequiredXP is always positive and
// CurrentXP strictly decreases each iteration.
func Award(u *models.UserProfile, amount int64) bool {
	u.XP += amount
	u.CurrentXP += amount
	return Settle(u)
}

// Settle converts accumulated in-level XP into level increments until
// CurrentXP < RequiredXP. The threshold is re-derived from the formula on
// every step so a stale stored value cannot drift.
func Settle(u *models.UserProfile) bool {
	leveled := false
	for u.CurrentXP >= u.RequiredXP {
		u.CurrentXP -= u.RequiredXP
		u.Level++
		u.RequiredXP = RequiredXP(u.Level)
		leveled = true
	}
	return leveled
}
