package triage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisSessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisSessionStore(client, time.Hour), mr
}

func TestRedisSessionStoreRoundTrip(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	session := &Session{
		ID:           "sess-1",
		PatientPhone: "0901234567",
		Messages: []ChatMessage{
			{Role: ChatRoleUser, Content: "Tôi bị đau đầu"},
			{Role: ChatRoleAssistant, Content: "Đau bao lâu rồi ạ?"},
		},
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		UpdatedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, store.Save(ctx, session))

	loaded, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, session.PatientPhone, loaded.PatientPhone)
	assert.Equal(t, session.Messages, loaded.Messages)
}

func TestRedisSessionStoreMissing(t *testing.T) {
	store, _ := newRedisStore(t)

	_, err := store.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisSessionStoreTTLExpiry(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &Session{ID: "sess-1"}))

	mr.FastForward(2 * time.Hour)

	_, err := store.Load(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisSessionStoreDelete(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &Session{ID: "sess-1"}))
	require.NoError(t, store.Delete(ctx, "sess-1"))

	_, err := store.Load(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestInMemorySessionStoreIsolation(t *testing.T) {
	store := NewInMemorySessionStore()
	ctx := context.Background()

	session := &Session{ID: "sess-1", Messages: []ChatMessage{{Role: ChatRoleUser, Content: "hi"}}}
	require.NoError(t, store.Save(ctx, session))

	loaded, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)

	// Mutating the loaded copy must not bleed into the stored session.
	loaded.Messages[0].Content = "changed"
	again, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "hi", again.Messages[0].Content)
}
