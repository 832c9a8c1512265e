package artifacts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeptools/gw-contracts/db/kvdb"
	"github.com/zeptools/gw-contracts/db/kvdb/impls/memory"
)

func newStore(t *testing.T) (*Store, *memory.Client) {
	t.Helper()
	kv := memory.New(&kvdb.Conf{Type: "memory"})
	require.NoError(t, kv.Init())
	return NewStore(kv, "test", time.Minute), kv
}

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	id, err := s.Put(ctx, "maria", "contrato_JOAO.pdf", 3, []byte("%PDF-1.3"))
	require.NoError(t, err)

	a, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "maria", a.Owner)
	assert.Equal(t, "contrato_JOAO.pdf", a.FileName)
	assert.Equal(t, 3, a.Pages)
	assert.Equal(t, []byte("%PDF-1.3"), a.Data)

	_, err = s.GetOwned(ctx, id, "other")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetOwned(ctx, id, "maria")
	assert.NoError(t, err)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, s.Delete(ctx, id))
	_, err = s.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetRejectsBadIDs(t *testing.T) {
	s, _ := newStore(t)
	for _, id := range []string{"", "../etc", "*"} {
		_, err := s.Get(context.Background(), id)
		assert.ErrorIs(t, err, ErrNotFound, id)
	}
}

func TestExpiry(t *testing.T) {
	ctx := context.Background()
	s, kv := newStore(t)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	kv.Now = func() time.Time { return now }

	id, err := s.Put(ctx, "maria", "a.pdf", 1, []byte("x"))
	require.NoError(t, err)
	now = now.Add(59 * time.Second)
	_, err = s.Get(ctx, id)
	require.NoError(t, err)
	now = now.Add(2 * time.Second)
	_, err = s.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	kv.Sweep(now)
	assert.Equal(t, 0, kv.Len())
}
