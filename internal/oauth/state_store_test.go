package oauth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateStore_GenerateAndConsume(t *testing.T) {
	store := NewStateStore(0)
	assert.False(t, store.Pending())

	nonce := store.Generate()
	_, err := uuid.Parse(nonce)
	require.NoError(t, err, "nonce should be a UUID")
	assert.True(t, store.Pending())

	require.NoError(t, store.Consume(nonce))
	assert.False(t, store.Pending())

	// Single use.
	assert.ErrorIs(t, store.Consume(nonce), ErrStateMismatch)
}

func TestStateStore_MismatchLeavesPendingNonce(t *testing.T) {
	store := NewStateStore(0)
	nonce := store.Generate()

	for _, wrong := range []string{"", "wrong", nonce + "x", uuid.NewString()} {
		assert.ErrorIs(t, store.Consume(wrong), ErrStateMismatch)
		assert.True(t, store.Pending())
	}

	assert.NoError(t, store.Consume(nonce))
}

func TestStateStore_NoPendingNonce(t *testing.T) {
	store := NewStateStore(0)
	assert.ErrorIs(t, store.Consume("anything"), ErrStateMismatch)
}

func TestStateStore_GenerateReplacesPending(t *testing.T) {
	store := NewStateStore(0)
	first := store.Generate()
	second := store.Generate()
	require.NotEqual(t, first, second)

	assert.ErrorIs(t, store.Consume(first), ErrStateMismatch)
	assert.NoError(t, store.Consume(second))
}

func TestStateStore_TTL(t *testing.T) {
	clock := newFakeClock(baseTime)

	t.Run("zero ttl never expires", func(t *testing.T) {
		store := NewStateStore(0)
		store.now = clock.Now
		nonce := store.Generate()
		clock.Advance(365 * 24 * time.Hour)
		assert.NoError(t, store.Consume(nonce))
	})

	t.Run("expired nonce rejected", func(t *testing.T) {
		store := NewStateStore(10 * time.Minute)
		store.now = clock.Now
		nonce := store.Generate()
		clock.Advance(11 * time.Minute)
		assert.ErrorIs(t, store.Consume(nonce), ErrStateMismatch)
	})

	t.Run("within ttl accepted", func(t *testing.T) {
		store := NewStateStore(10 * time.Minute)
		store.now = clock.Now
		nonce := store.Generate()
		clock.Advance(9 * time.Minute)
		assert.NoError(t, store.Consume(nonce))
	})
}
