package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/poiesic/storefront/core"
	"github.com/poiesic/storefront/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := Open(context.Background(), Config{URI: "redis://" + mr.Addr(), SessionTTL: ttl})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func TestOpen_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := Open(context.Background(), Config{URI: addr})
	assert.ErrorIs(t, err, storage.ErrConnectionFailed)
}

func TestOpen_BareAddress(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := Open(context.Background(), Config{URI: mr.Addr()})
	require.NoError(t, err)
	require.NoError(t, store.Close())
	// Second close is a no-op
	require.NoError(t, store.Close())
}

func TestProfile_FlatKeyRecord(t *testing.T) {
	store, mr := newTestStore(t, 0)
	ctx := context.Background()

	id := "551dfc94-764a-4839-b8db-e6f04b5715c6"
	profile := &core.CustomerProfile{
		UserID:           id,
		Name:             "Charles",
		Email:            "charles@example.com",
		PastTransactions: []string{"PMRS123", "UFYM456", "PLDS789", "SSTR101"},
	}
	require.NoError(t, store.PutProfile(ctx, profile))

	raw, err := mr.Get(id)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Charles","email":"charles@example.com","past_transactions":["PMRS123","UFYM456","PLDS789","SSTR101"]}`, raw)

	got, err := store.GetProfile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, profile, got)
}

func TestProfile_Missing(t *testing.T) {
	store, _ := newTestStore(t, 0)

	_, err := store.GetProfile(context.Background(), "nobody")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTurns_OrderAndLimit(t *testing.T) {
	store, _ := newTestStore(t, 0)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 4; i++ {
		require.NoError(t, store.AppendTurn(ctx, &core.ConversationTurn{
			UserID:    "u1",
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Message:   fmt.Sprintf("q%d", i),
		}))
	}

	all, err := store.ListTurns(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "q0", all[0].Message)

	recent, err := store.ListTurns(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "q2", recent[0].Message)
	assert.Equal(t, "q3", recent[1].Message)
}

func TestTurns_SessionExpires(t *testing.T) {
	store, mr := newTestStore(t, 300*time.Second)
	ctx := context.Background()

	require.NoError(t, store.AppendTurn(ctx, &core.ConversationTurn{
		UserID: "u1", Timestamp: time.Now().UTC(), Message: "hello",
	}))
	assert.Equal(t, 300*time.Second, mr.TTL("history:u1"))

	mr.FastForward(301 * time.Second)

	turns, err := store.ListTurns(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Empty(t, turns)
}
