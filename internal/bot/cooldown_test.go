package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCooldownTracker(t *testing.T) {
	now := time.Unix(1000, 0)
	c := NewCooldownTracker()
	c.now = func() time.Time { return now }

	gated, _ := c.IsOnCooldown("u1", "daily", 60)
	assert.False(t, gated, "no prior invocation means no cooldown")

	c.Mark("u1", "daily")

	now = now.Add(30 * time.Second)
	gated, remaining := c.IsOnCooldown("u1", "daily", 60)
	require.True(t, gated)
	assert.Equal(t, 30, remaining)

	// A gated attempt must not advance the clock: remaining keeps shrinking.
	now = now.Add(29 * time.Second)
	gated, remaining = c.IsOnCooldown("u1", "daily", 60)
	require.True(t, gated)
	assert.Equal(t, 1, remaining)

	now = now.Add(time.Second)
	gated, _ = c.IsOnCooldown("u1", "daily", 60)
	assert.False(t, gated, "window elapsed")
}

func TestCooldownRemainingRoundsUp(t *testing.T) {
	now := time.Unix(1000, 0)
	c := NewCooldownTracker()
	c.now = func() time.Time { return now }

	c.Mark("u1", "top")
	now = now.Add(500 * time.Millisecond)

	gated, remaining := c.IsOnCooldown("u1", "top", 10)
	require.True(t, gated)
	assert.Equal(t, 10, remaining, "9.5s remaining rounds up to 10")
}

func TestCooldownKeysAreIndependent(t *testing.T) {
	c := NewCooldownTracker()

	c.Mark("u1", "daily")

	gated, _ := c.IsOnCooldown("u2", "daily", 60)
	assert.False(t, gated, "other users are unaffected")

	gated, _ = c.IsOnCooldown("u1", "top", 60)
	assert.False(t, gated, "other commands are unaffected")
}

func TestCooldownZeroDurationNeverGates(t *testing.T) {
	c := NewCooldownTracker()
	c.Mark("u1", "help")

	gated, _ := c.IsOnCooldown("u1", "help", 0)
	assert.False(t, gated)
}
