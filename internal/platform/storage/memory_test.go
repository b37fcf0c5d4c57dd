package storage

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	info, err := store.Put(ctx, "documents/a/planta.pdf", strings.NewReader("%PDF"), PutObjectOptions{Size: 4, ContentType: "application/pdf"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), info.Size)

	rc, got, err := store.Get(ctx, "documents/a/planta.pdf")
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(body))
	assert.Equal(t, "application/pdf", got.ContentType)

	link, err := store.PresignGet(ctx, "documents/a/planta.pdf", time.Minute, "planta.pdf")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "memory://"))

	require.NoError(t, store.Delete(ctx, "documents/a/planta.pdf"))
	assert.Equal(t, 0, store.Len())

	_, _, err = store.Get(ctx, "documents/a/planta.pdf")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}
