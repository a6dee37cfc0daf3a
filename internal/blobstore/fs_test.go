package blobstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSStoreRoundTrip(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "doc-1.pdf", []byte("%PDF-1.4 payload")))

	got, err := store.Get(ctx, "doc-1.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 payload"), got)
}

func TestFSStoreGetMissing(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "nope.pdf")
	assert.Error(t, err)
}
