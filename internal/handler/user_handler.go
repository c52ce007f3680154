package handler

import (
	"encoding/json"
	"net/http"

	"habitcraft/internal/middleware"
	"habitcraft/internal/model"
	"habitcraft/internal/service"
	"habitcraft/pkg/apierror"
)

type UserHandler struct {
	service *service.AuthService
	cookies *CookieWriter
}

func NewUserHandler(service *service.AuthService, cookies *CookieWriter) *UserHandler {
	return &UserHandler{service: service, cookies: cookies}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	user, err := h.service.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user)
}

// ChangePassword rotates the stored hash and kills every outstanding
// session, the caller's included. The cleared cookies force a fresh
// login.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	var payload model.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	revoked, err := h.service.ChangePassword(r.Context(), claims.UserID, payload.CurrentPassword, payload.NewPassword)
	if err != nil {
		writeError(w, err)
		return
	}

	h.cookies.Clear(w)
	writeSuccess(w, http.StatusOK, model.ChangePasswordResponse{RevokedSessions: revoked})
}
