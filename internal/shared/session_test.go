package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessions(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "obra_session", time.Hour, false), mr
}

func commitAndCookie(t *testing.T, sm *SessionManager, sess *Session) *http.Cookie {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, sm.Commit(context.Background(), rr, req, sess))
	for _, c := range rr.Result().Cookies() {
		if c.Name == sm.CookieName() {
			return c
		}
	}
	return nil
}

func TestSessionRoundTrip(t *testing.T) {
	sm, _ := newTestSessions(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetUser("42")
	sess.AddFlash(FlashMessage{Kind: "success", Message: "ok"})

	cookie := commitAndCookie(t, sm, sess)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	loaded, err := sm.Load(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "42", loaded.User())
	assert.False(t, loaded.RefreshedAt().IsZero())

	flash := loaded.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "ok", flash.Message)
	assert.Nil(t, loaded.PopFlash())
}

func TestAnonymousSessionIsNotStored(t *testing.T) {
	sm, mr := newTestSessions(t)
	sess, err := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	cookie := commitAndCookie(t, sm, sess)
	assert.Nil(t, cookie)
	assert.Empty(t, mr.Keys())
}

func TestUnknownCookieStartsFreshSession(t *testing.T) {
	sm, _ := newTestSessions(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sm.CookieName(), Value: "attacker-chosen"})

	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, "attacker-chosen", sess.ID)
	assert.Empty(t, sess.User())
}

func TestRegenerateDropsPreviousID(t *testing.T) {
	sm, mr := newTestSessions(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.Set("k", "v")
	cookie := commitAndCookie(t, sm, sess)
	require.NotNil(t, cookie)
	oldID := sess.ID

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	loaded, err := sm.Load(ctx, req)
	require.NoError(t, err)
	sm.Regenerate(loaded)
	loaded.SetUser("7")
	commitAndCookie(t, sm, loaded)

	assert.NotEqual(t, oldID, loaded.ID)
	assert.False(t, mr.Exists("obra:session:"+oldID))
	assert.True(t, mr.Exists("obra:session:"+loaded.ID))
	assert.Equal(t, "v", loaded.Get("k"))
}

func TestDestroyExpiresCookie(t *testing.T) {
	sm, mr := newTestSessions(t)
	ctx := context.Background()
	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetUser("1")
	commitAndCookie(t, sm, sess)

	sm.Destroy(sess)
	cookie := commitAndCookie(t, sm, sess)
	require.NotNil(t, cookie)
	assert.Equal(t, -1, cookie.MaxAge)
	assert.False(t, mr.Exists("obra:session:"+sess.ID))
}
