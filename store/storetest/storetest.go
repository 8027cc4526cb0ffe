// Package storetest holds the conformance suite every store backend runs.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/rentbook/store"
)

// Run exercises the store.Store contract against a fresh backend.
func Run(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Migrate(ctx), "migrate must be idempotent")
	require.NoError(t, s.Ping(ctx))

	t.Run("missing key", func(t *testing.T) {
		_, err := s.Get(ctx, "missing")
		assert.True(t, errors.Is(err, store.ErrKeyNotFound), "got %v", err)
	})

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, store.KeyTenants, []byte(`[{"id":"1"}]`)))
		got, err := s.Get(ctx, store.KeyTenants)
		require.NoError(t, err)
		assert.JSONEq(t, `[{"id":"1"}]`, string(got))
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, store.KeyTenants, []byte(`[]`)))
		got, err := s.Get(ctx, store.KeyTenants)
		require.NoError(t, err)
		assert.JSONEq(t, `[]`, string(got))
	})

	t.Run("batch", func(t *testing.T) {
		b, ok := s.(store.Batcher)
		if !ok {
			t.Skip("backend has no batch support")
		}
		require.NoError(t, b.SetMany(ctx, map[string][]byte{
			store.KeyTenants: []byte(`[{"id":"a"}]`),
			store.KeyEntries: []byte(`[{"id":"b"}]`),
		}))
		got, err := s.Get(ctx, store.KeyEntries)
		require.NoError(t, err)
		assert.JSONEq(t, `[{"id":"b"}]`, string(got))
	})

	t.Run("keys", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, store.KeyEntries, []byte(`[]`)))
		keys, err := s.Keys(ctx)
		require.NoError(t, err)
		assert.Subset(t, keys, []string{store.KeyTenants, store.KeyEntries})
	})
}
