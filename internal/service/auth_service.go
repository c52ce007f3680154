package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"habitcraft/internal/event"
	"habitcraft/internal/model"
	"habitcraft/pkg/apierror"
)

const (
	bcryptCost        = bcrypt.DefaultCost
	minPasswordLength = 8
)

// UserStore is the persistence the credential store needs.
type UserStore interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, u model.User) error
	UpdatePassword(ctx context.Context, userID string, passwordHash string) error
}

// TokenStore is the refresh-token ledger contract.
type TokenStore interface {
	Store(ctx context.Context, userID string, rawToken string, expiresAt time.Time) error
	Validate(ctx context.Context, rawToken string) (model.TokenRecord, error)
	Revoke(ctx context.Context, rawToken string) error
	Consume(ctx context.Context, rawToken string) error
	RevokeAllForUser(ctx context.Context, userID string) (int64, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

type AuthService struct {
	issuer *TokenIssuer
	users  UserStore
	tokens TokenStore
	events event.Sink
}

func NewAuthService(issuer *TokenIssuer, users UserStore, tokens TokenStore, events event.Sink) *AuthService {
	if events == nil {
		events = event.NopSink{}
	}

	return &AuthService{
		issuer: issuer,
		users:  users,
		tokens: tokens,
		events: events,
	}
}

func (s *AuthService) Issuer() *TokenIssuer {
	return s.issuer
}

// Register creates a user and opens their first session.
func (s *AuthService) Register(ctx context.Context, email string, password string, name string) (model.PublicUser, model.TokenPair, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)

	if err := validateEmail(email); err != nil {
		return model.PublicUser{}, model.TokenPair{}, err
	}
	if err := validatePassword(password); err != nil {
		return model.PublicUser{}, model.TokenPair{}, err
	}
	if name == "" {
		return model.PublicUser{}, model.TokenPair{}, apierror.New("VALIDATION_ERROR", "name is required", "name", http.StatusBadRequest)
	}

	taken, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return model.PublicUser{}, model.TokenPair{}, err
	}
	if taken {
		return model.PublicUser{}, model.TokenPair{}, model.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return model.PublicUser{}, model.TokenPair{}, err
	}

	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return model.PublicUser{}, model.TokenPair{}, err
	}

	pair, err := s.openSession(ctx, user.ID)
	if err != nil {
		return model.PublicUser{}, model.TokenPair{}, err
	}

	s.events.Emit(event.Event{Type: event.RegisterSuccess, UserID: user.ID, Email: email, At: now})
	return user.Public(), pair, nil
}

// Login authenticates by email and password. Unknown email and wrong
// password produce the same failure so callers cannot enumerate users.
func (s *AuthService) Login(ctx context.Context, email string, password string) (model.PublicUser, model.TokenPair, error) {
	email = normalizeEmail(email)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			s.events.Emit(event.Event{Type: event.LoginFailure, Email: email, Reason: "unknown_email", At: time.Now().UTC()})
			return model.PublicUser{}, model.TokenPair{}, model.ErrInvalidCredentials
		}
		return model.PublicUser{}, model.TokenPair{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.events.Emit(event.Event{Type: event.LoginFailure, UserID: user.ID, Email: email, Reason: "wrong_password", At: time.Now().UTC()})
		return model.PublicUser{}, model.TokenPair{}, model.ErrInvalidCredentials
	}

	pair, err := s.openSession(ctx, user.ID)
	if err != nil {
		return model.PublicUser{}, model.TokenPair{}, err
	}

	s.events.Emit(event.Event{Type: event.LoginSuccess, UserID: user.ID, Email: email, At: time.Now().UTC()})
	return user.Public(), pair, nil
}

// Refresh rotates a refresh token: the presented token is consumed and a
// new pair is minted. A token that has already been rotated, revoked, or
// raced can never rotate again.
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (model.TokenPair, error) {
	claims, err := s.issuer.Verify(rawToken, TokenTypeRefresh)
	if err != nil {
		s.events.Emit(event.Event{Type: event.RefreshFailure, Reason: refreshReason(err), At: time.Now().UTC()})
		return model.TokenPair{}, model.ErrUnauthorized
	}

	rec, err := s.tokens.Validate(ctx, rawToken)
	if err != nil {
		if errors.Is(err, model.ErrTokenNotFound) || errors.Is(err, model.ErrTokenRevoked) {
			s.events.Emit(event.Event{Type: event.RefreshFailure, UserID: claims.UserID, Reason: refreshReason(err), At: time.Now().UTC()})
			return model.TokenPair{}, model.ErrUnauthorized
		}
		return model.TokenPair{}, err
	}

	// Conditional update: under concurrent refreshes of the same token at
	// most one caller gets past this line.
	if err := s.tokens.Consume(ctx, rawToken); err != nil {
		if errors.Is(err, model.ErrTokenRevoked) {
			s.events.Emit(event.Event{Type: event.RefreshFailure, UserID: rec.UserID, Reason: "token_revoked", At: time.Now().UTC()})
			return model.TokenPair{}, model.ErrUnauthorized
		}
		return model.TokenPair{}, err
	}

	pair, err := s.openSession(ctx, rec.UserID)
	if err != nil {
		return model.TokenPair{}, err
	}

	s.events.Emit(event.Event{Type: event.RefreshSuccess, UserID: rec.UserID, At: time.Now().UTC()})
	return pair, nil
}

// Logout revokes the presented refresh token. Unknown or already-revoked
// tokens are a no-op.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	if strings.TrimSpace(rawToken) == "" {
		return nil
	}

	if err := s.tokens.Revoke(ctx, rawToken); err != nil {
		return err
	}

	s.events.Emit(event.Event{Type: event.Logout, At: time.Now().UTC()})
	return nil
}

// ChangePassword re-verifies the current password, installs the new one,
// and revokes every outstanding session of the user. Forcing other
// devices to re-authenticate is the point, not a side effect.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, currentPassword string, newPassword string) (int64, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return 0, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		s.events.Emit(event.Event{Type: event.PasswordChangeFailure, UserID: userID, Reason: "wrong_password", At: time.Now().UTC()})
		return 0, model.ErrInvalidCredentials
	}

	if err := validatePassword(newPassword); err != nil {
		s.events.Emit(event.Event{Type: event.PasswordChangeFailure, UserID: userID, Reason: "weak_password", At: time.Now().UTC()})
		return 0, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return 0, err
	}

	if err := s.users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return 0, err
	}

	revoked, err := s.tokens.RevokeAllForUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	s.events.Emit(event.Event{Type: event.PasswordChangeSuccess, UserID: userID, At: time.Now().UTC()})
	slog.Info("password changed", "user_id", userID, "revoked_sessions", revoked)
	return revoked, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, userID string) (model.PublicUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return model.PublicUser{}, err
	}
	return user.Public(), nil
}

// StartCleanupTicker sweeps expired ledger records until ctx is
// cancelled. Correctness never depends on this running.
func (s *AuthService) StartCleanupTicker(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.tokens.DeleteExpired(ctx)
			if err != nil {
				slog.Warn("expired token cleanup failed", "error", err)
				continue
			}
			if removed > 0 {
				slog.Info("expired refresh tokens removed", "count", removed)
			}
		}
	}
}

// openSession mints a pair and records the refresh half in the ledger.
func (s *AuthService) openSession(ctx context.Context, userID string) (model.TokenPair, error) {
	pair, err := s.issuer.IssuePair(userID)
	if err != nil {
		return model.TokenPair{}, err
	}

	expiresAt := time.Now().UTC().Add(s.issuer.RefreshTTL())
	if err := s.tokens.Store(ctx, userID, pair.RefreshToken, expiresAt); err != nil {
		return model.TokenPair{}, err
	}

	return pair, nil
}

func refreshReason(err error) string {
	switch {
	case errors.Is(err, model.ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, model.ErrWrongTokenType), errors.Is(err, model.ErrTokenMalformed):
		return "invalid_type_or_signature"
	case errors.Is(err, model.ErrTokenNotFound):
		return "token_not_found"
	case errors.Is(err, model.ErrTokenRevoked):
		return "token_revoked"
	default:
		return "internal_error"
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return apierror.New("VALIDATION_ERROR", "email is required", "email", http.StatusBadRequest)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return apierror.New("VALIDATION_ERROR", "email is not valid", "email", http.StatusBadRequest)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apierror.New("VALIDATION_ERROR", "password must be at least 8 characters", "password", http.StatusBadRequest)
	}
	return nil
}
