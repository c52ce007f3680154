package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cookiesByName(t *testing.T, rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	t.Helper()
	out := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

func TestCookieWriter_Development(t *testing.T) {
	w := NewCookieWriter(15*time.Minute, 168*time.Hour, false)
	rec := httptest.NewRecorder()
	w.SetPair(rec, "access-value", "refresh-value")

	cookies := cookiesByName(t, rec)
	require.Len(t, cookies, 2)

	access := cookies["accessToken"]
	require.NotNil(t, access)
	assert.Equal(t, "access-value", access.Value)
	assert.Equal(t, "/", access.Path)
	assert.Equal(t, 900, access.MaxAge)
	assert.True(t, access.HttpOnly)
	assert.False(t, access.Secure)
	assert.Equal(t, http.SameSiteLaxMode, access.SameSite)

	refresh := cookies["refreshToken"]
	require.NotNil(t, refresh)
	assert.Equal(t, "refresh-value", refresh.Value)
	assert.Equal(t, 604800, refresh.MaxAge)
	assert.True(t, refresh.HttpOnly)
}

func TestCookieWriter_Production(t *testing.T) {
	w := NewCookieWriter(15*time.Minute, 168*time.Hour, true)
	rec := httptest.NewRecorder()
	w.SetPair(rec, "a", "r")

	for _, c := range rec.Result().Cookies() {
		assert.True(t, c.Secure, c.Name)
		assert.True(t, c.HttpOnly, c.Name)
		assert.Equal(t, http.SameSiteStrictMode, c.SameSite, c.Name)
	}
}

func TestCookieWriter_Clear(t *testing.T) {
	w := NewCookieWriter(15*time.Minute, 168*time.Hour, false)
	rec := httptest.NewRecorder()
	w.Clear(rec)

	cookies := cookiesByName(t, rec)
	require.Len(t, cookies, 2)
	for _, c := range cookies {
		assert.Empty(t, c.Value)
		assert.Less(t, c.MaxAge, 0)
	}
}
