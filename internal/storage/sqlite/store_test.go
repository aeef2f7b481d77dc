package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dvloznov/ledgerbook/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_PutGet(t *testing.T) {
	s, err := Open("file::memory:")
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()

	_, err = s.Get(ctx, storage.KeyProducts)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Put(ctx, storage.KeyProducts, []byte(`[{"id":"p1"}]`)))
	got, err := s.Get(ctx, storage.KeyProducts)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"p1"}]`, string(got))

	require.NoError(t, s.Put(ctx, storage.KeyProducts, []byte(`[]`)))
	got, err = s.Get(ctx, storage.KeyProducts)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))
}

func TestStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ledger.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, storage.KeyRisk, []byte(`{"overallScore":42}`)))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx, storage.KeyRisk)
	require.NoError(t, err)
	assert.JSONEq(t, `{"overallScore":42}`, string(got))
}
