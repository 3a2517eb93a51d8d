package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStore_GetPutDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	t.Run("should return ErrNotFound for missing item", func(t *testing.T) {
		// when
		_, err := s.Get(ctx, "PROJECT#p-1", "META")

		// then
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("should upsert on repeated put", func(t *testing.T) {
		// given
		first, err := NewItem("PROJECT#p-1", "META", map[string]string{"name": "Alpha"})
		require.NoError(t, err)
		second, err := NewItem("PROJECT#p-1", "META", map[string]string{"name": "Beta"})
		require.NoError(t, err)

		// when
		require.NoError(t, s.Put(ctx, first))
		require.NoError(t, s.Put(ctx, second))

		// then
		got, err := s.Get(ctx, "PROJECT#p-1", "META")
		require.NoError(t, err)
		assert.JSONEq(t, `{"name":"Beta"}`, string(got.Payload))
		assert.Equal(t, 1, s.Len())
	})

	t.Run("should delete without error when item is absent", func(t *testing.T) {
		assert.NoError(t, s.Delete(ctx, "PROJECT#p-1", "RUBRO#missing"))
	})
}

func TestMemStore_QueryFollowsCursor(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	s.PageSize = 2

	for i := 1; i <= 5; i++ {
		item, err := NewItem("PROJECT#p-1", fmt.Sprintf("ALLOC#MOD-DEV#2026-%02d", i), map[string]int{"n": i})
		require.NoError(t, err)
		require.NoError(t, s.Put(ctx, item))
	}

	// when
	items, err := QueryAll(ctx, s, "PROJECT#p-1", "ALLOC#")

	// then
	require.NoError(t, err)
	assert.Len(t, items, 5)
	// sorted by sort key
	assert.Equal(t, "ALLOC#MOD-DEV#2026-01", items[0].SK)
	assert.Equal(t, "ALLOC#MOD-DEV#2026-05", items[4].SK)
}

func TestMemStore_QueryPrefixIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	alloc, _ := NewItem("PROJECT#p-1", "ALLOC#MOD-DEV#2026-01", map[string]int{})
	rubro, _ := NewItem("PROJECT#p-1", "RUBRO#MOD-DEV", map[string]int{})
	other, _ := NewItem("PROJECT#p-2", "ALLOC#MOD-DEV#2026-01", map[string]int{})
	require.NoError(t, s.Put(ctx, alloc))
	require.NoError(t, s.Put(ctx, rubro))
	require.NoError(t, s.Put(ctx, other))

	page, err := s.Query(ctx, "PROJECT#p-1", "ALLOC#", "")

	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "ALLOC#MOD-DEV#2026-01", page.Items[0].SK)
}

func TestMemStore_BatchGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	item, _ := NewItem("PROJECT#p-1", "META", map[string]string{"name": "Alpha"})
	require.NoError(t, s.Put(ctx, item))

	t.Run("should skip missing keys", func(t *testing.T) {
		items, err := s.BatchGet(ctx, []Key{
			{PK: "PROJECT#p-1", SK: "META"},
			{PK: "PROJECT#p-9", SK: "META"},
		})
		require.NoError(t, err)
		assert.Len(t, items, 1)
	})

	t.Run("should reject oversized batches", func(t *testing.T) {
		keys := make([]Key, MaxBatchKeys+1)
		_, err := s.BatchGet(ctx, keys)
		assert.ErrorIs(t, err, ErrTooManyKeys)
	})
}

func TestMemStore_FaultInjection(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	boom := errors.New("store unavailable")

	s.FailReads = boom
	_, err := s.Get(ctx, "PROJECT#p-1", "META")
	assert.ErrorIs(t, err, boom)

	s.FailReads = nil
	s.FailWrites = boom
	item, _ := NewItem("PROJECT#p-1", "META", map[string]string{})
	assert.ErrorIs(t, s.Put(ctx, item), boom)
}
