package handler

import (
	"net/http"
	"time"
)

const (
	accessCookieName  = "accessToken"
	refreshCookieName = "refreshToken"
)

// CookieWriter stamps auth cookies with environment-appropriate
// attributes: Secure and SameSite=Strict in production, Lax otherwise.
type CookieWriter struct {
	accessTTL  time.Duration
	refreshTTL time.Duration
	production bool
}

func NewCookieWriter(accessTTL time.Duration, refreshTTL time.Duration, production bool) *CookieWriter {
	return &CookieWriter{
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		production: production,
	}
}

func (c *CookieWriter) SetPair(w http.ResponseWriter, accessToken string, refreshToken string) {
	http.SetCookie(w, c.build(accessCookieName, accessToken, int(c.accessTTL.Seconds())))
	http.SetCookie(w, c.build(refreshCookieName, refreshToken, int(c.refreshTTL.Seconds())))
}

func (c *CookieWriter) Clear(w http.ResponseWriter) {
	http.SetCookie(w, c.build(accessCookieName, "", -1))
	http.SetCookie(w, c.build(refreshCookieName, "", -1))
}

func (c *CookieWriter) build(name string, value string, maxAge int) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if c.production {
		sameSite = http.SameSiteStrictMode
	}

	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.production,
		SameSite: sameSite,
	}
}
