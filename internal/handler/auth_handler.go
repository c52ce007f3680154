package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"habitcraft/internal/model"
	"habitcraft/internal/service"
	"habitcraft/pkg/apierror"
)

type AuthHandler struct {
	service *service.AuthService
	cookies *CookieWriter
}

func NewAuthHandler(service *service.AuthService, cookies *CookieWriter) *AuthHandler {
	return &AuthHandler{service: service, cookies: cookies}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	user, pair, err := h.service.Register(r.Context(), payload.Email, payload.Password, payload.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	h.cookies.SetPair(w, pair.AccessToken, pair.RefreshToken)
	writeSuccess(w, http.StatusCreated, model.AuthResponse{User: user})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	user, pair, err := h.service.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.cookies.SetPair(w, pair.AccessToken, pair.RefreshToken)
	writeSuccess(w, http.StatusOK, model.AuthResponse{User: user})
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	token := h.refreshTokenFromRequest(r)
	if token == "" {
		writeError(w, model.ErrUnauthorized)
		return
	}

	pair, err := h.service.Refresh(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return
	}

	h.cookies.SetPair(w, pair.AccessToken, pair.RefreshToken)
	writeSuccess(w, http.StatusOK, model.RefreshResponse{
		AccessToken: pair.AccessToken,
		ExpiresIn:   pair.ExpiresIn,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	if token := h.refreshTokenFromRequest(r); token != "" {
		if err := h.service.Logout(r.Context(), token); err != nil {
			writeError(w, err)
			return
		}
	}

	h.cookies.Clear(w)
	writeSuccess(w, http.StatusOK, map[string]any{"loggedOut": true})
}

// refreshTokenFromRequest reads the refresh token from the cookie first,
// then falls back to the JSON body.
func (h *AuthHandler) refreshTokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(refreshCookieName); err == nil {
		if token := strings.TrimSpace(cookie.Value); token != "" {
			return token
		}
	}

	var payload model.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err == nil {
		return strings.TrimSpace(payload.RefreshToken)
	}

	return ""
}
