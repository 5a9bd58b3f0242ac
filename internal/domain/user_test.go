package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidPIN(t *testing.T) {
	valid := []string{"0000", "1234", "9999"}
	for _, pin := range valid {
		assert.True(t, ValidPIN(pin), "pin %q", pin)
	}

	invalid := []string{"", "123", "12345", "12a4", " 1234", "1234 ", "12.4", "-123"}
	for _, pin := range invalid {
		assert.False(t, ValidPIN(pin), "pin %q", pin)
	}
}

func TestSessionExpired(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	sess := Session{Username: "bob", ExpiresAt: now.Add(time.Hour).Unix()}

	assert.False(t, sess.Expired(now))
	assert.False(t, sess.Expired(now.Add(time.Hour-time.Second)))
	assert.True(t, sess.Expired(now.Add(time.Hour)))
	assert.True(t, sess.Expired(now.Add(2*time.Hour)))
}

func TestBootstrap(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	snap := Bootstrap("admin", "7197", now)

	require.Len(t, snap.Users, 1)
	admin := snap.Users["admin"]
	require.NotNil(t, admin.PIN)
	assert.Equal(t, "7197", *admin.PIN)
	require.NotNil(t, admin.CreatedAt)
	assert.Equal(t, now.Unix(), *admin.CreatedAt)
	assert.True(t, admin.IsAdmin)
	assert.True(t, admin.Claimed())
	assert.NotNil(t, admin.Resources)
	assert.Empty(t, snap.Sessions)
}
