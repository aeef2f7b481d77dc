package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_GetReturnsCopy(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.Get(ctx, KeyContacts)
	assert.ErrorIs(t, err, ErrNotFound)

	payload := []byte(`[]`)
	require.NoError(t, m.Put(ctx, KeyContacts, payload))
	payload[0] = 'x'

	got, err := m.Get(ctx, KeyContacts)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))

	got[0] = 'y'
	again, _ := m.Get(ctx, KeyContacts)
	assert.Equal(t, "[]", string(again))
}
