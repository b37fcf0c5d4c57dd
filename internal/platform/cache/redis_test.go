package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPingsServer(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := New(context.Background(), Options{Addr: mr.Addr(), DB: 2})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	mr.Select(2)
	got, err := mr.Get("k")
	require.NoError(t, err)
	require.Equal(t, "v", got)
}

func TestNewAuthenticates(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("segredo")

	_, err := New(context.Background(), Options{Addr: mr.Addr()})
	require.Error(t, err)

	client, err := New(context.Background(), Options{Addr: mr.Addr(), Password: "segredo"})
	require.NoError(t, err)
	_ = client.Close()
}

func TestNewFailsWhenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := New(context.Background(), Options{Addr: addr})
	require.Error(t, err)
}

func TestAsynqOptions(t *testing.T) {
	opt := Options{Addr: "redis:6379", Password: "p", DB: 3}.Asynq()
	assert.Equal(t, "redis:6379", opt.Addr)
	assert.Equal(t, "p", opt.Password)
	assert.Equal(t, 3, opt.DB)
}
