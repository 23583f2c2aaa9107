package leveling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devfahim/levelbot/internal/models"
)

func newProfile(level int, currentXP, requiredXP int64) *models.UserProfile {
	return &models.UserProfile{
		TelegramID: "12345",
		Level:      level,
		CurrentXP:  currentXP,
		RequiredXP: requiredXP,
	}
}

func TestAwardSingleLevelUp(t *testing.T) {
	u := newProfile(1, 95, 100)

	leveled := Award(u, XPPerMessage)

	require.True(t, leveled)
	assert.Equal(t, 2, u.Level)
	assert.Equal(t, int64(5), u.CurrentXP)
	assert.Equal(t, int64(150), u.RequiredXP)
	assert.Equal(t, int64(10), u.XP)
}

func TestAwardNoLevelUp(t *testing.T) {
	u := newProfile(1, 0, 100)

	leveled := Award(u, XPPerMessage)

	require.False(t, leveled)
	assert.Equal(t, 1, u.Level)
	assert.Equal(t, int64(10), u.CurrentXP)
	assert.Equal(t, int64(100), u.RequiredXP)
}

func TestSettleMultipleLevelsInOnePass(t *testing.T) {
	// Contrived backlog: enough progress XP for more than one level.
	u := newProfile(1, 295, 100)

	leveled := Settle(u)

	require.True(t, leveled)
	// 295 -> level 2 (carry 195, need 150) -> level 3 (carry 45, need 200).
	assert.Equal(t, 3, u.Level)
	assert.Equal(t, int64(45), u.CurrentXP)
	assert.Equal(t, int64(200), u.RequiredXP)
}

func TestInvariantsHoldAcrossAwards(t *testing.T) {
	u := newProfile(1, 0, 100)

	for i := 0; i < 500; i++ {
		Award(u, XPPerMessage)

		require.GreaterOrEqual(t, u.CurrentXP, int64(0))
		require.Less(t, u.CurrentXP, u.RequiredXP)
		require.GreaterOrEqual(t, u.Level, 1)
		require.Equal(t, RequiredXP(u.Level), u.RequiredXP)
	}
	assert.Equal(t, int64(5000), u.XP)
}

func TestRequiredXPFormula(t *testing.T) {
	assert.Equal(t, int64(100), RequiredXP(1))
	assert.Equal(t, int64(150), RequiredXP(2))
	assert.Equal(t, int64(200), RequiredXP(3))
	assert.Equal(t, int64(100+49*50), RequiredXP(50))
}
