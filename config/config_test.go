package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBoundedSecondsDefaults(t *testing.T) {
	assert.Equal(t, 1800*time.Second, boundedSeconds("UNSET_TTL", 1800, 60, 86400))
}

func TestBoundedSecondsInRange(t *testing.T) {
	t.Setenv("TEST_TTL", "300")
	assert.Equal(t, 300*time.Second, boundedSeconds("TEST_TTL", 1800, 60, 86400))
}

func TestBoundedSecondsOutOfRangeFallsBackToDefault(t *testing.T) {
	// Out-of-range values fall back to the default, not to the boundary.
	t.Setenv("TEST_TTL", "5")
	assert.Equal(t, 1800*time.Second, boundedSeconds("TEST_TTL", 1800, 60, 86400))

	t.Setenv("TEST_TTL", "100000")
	assert.Equal(t, 1800*time.Second, boundedSeconds("TEST_TTL", 1800, 60, 86400))

	t.Setenv("TEST_TTL", "not-a-number")
	assert.Equal(t, 1800*time.Second, boundedSeconds("TEST_TTL", 1800, 60, 86400))
}

func TestLoadPulseDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 30*time.Minute, cfg.Pulse.ReservationTTL)
	assert.Equal(t, 2*time.Minute, cfg.Pulse.CartPresenceTTL)
	assert.Equal(t, 45*time.Second, cfg.Pulse.ViewerTTL)
	assert.True(t, cfg.Pulse.LockReserved)
	assert.False(t, cfg.Pulse.UseRedisBackend)
}
