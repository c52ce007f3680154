package service

import (
	"context"
	"sync"
	"time"

	"habitcraft/internal/event"
	"habitcraft/internal/model"
	"habitcraft/internal/repository"
)

// memUserStore is an in-memory UserStore for tests.
type memUserStore struct {
	mu    sync.Mutex
	users map[string]model.User // keyed by id
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: map[string]model.User{}}
}

func (s *memUserStore) FindByID(_ context.Context, id string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (s *memUserStore) FindByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *memUserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := s.FindByEmail(ctx, email)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (s *memUserStore) Create(_ context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return model.ErrEmailTaken
		}
	}
	s.users[u.ID] = u
	return nil
}

func (s *memUserStore) UpdatePassword(_ context.Context, userID string, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return model.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now().UTC()
	s.users[userID] = u
	return nil
}

// memTokenStore is an in-memory ledger mirroring the conditional-update
// semantics of the PostgreSQL repository.
type memTokenStore struct {
	mu      sync.Mutex
	records map[string]*model.TokenRecord // keyed by token hash
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{records: map[string]*model.TokenRecord{}}
}

func (s *memTokenStore) Store(_ context.Context, userID string, rawToken string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	hash := repository.HashToken(rawToken)
	s.records[hash] = &model.TokenRecord{
		ID:        hash[:8],
		UserID:    userID,
		TokenHash: hash,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

func (s *memTokenStore) Validate(_ context.Context, rawToken string) (model.TokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[repository.HashToken(rawToken)]
	if !ok {
		return model.TokenRecord{}, model.ErrTokenNotFound
	}
	if rec.Revoked {
		return model.TokenRecord{}, model.ErrTokenRevoked
	}
	return *rec, nil
}

func (s *memTokenStore) Revoke(_ context.Context, rawToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[repository.HashToken(rawToken)]; ok {
		rec.Revoked = true
	}
	return nil
}

func (s *memTokenStore) Consume(_ context.Context, rawToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[repository.HashToken(rawToken)]
	if !ok || rec.Revoked {
		return model.ErrTokenRevoked
	}
	rec.Revoked = true
	return nil
}

func (s *memTokenStore) RevokeAllForUser(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, rec := range s.records {
		if rec.UserID == userID && !rec.Revoked {
			rec.Revoked = true
			n++
		}
	}
	return n, nil
}

func (s *memTokenStore) DeleteExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	var n int64
	for hash, rec := range s.records {
		if rec.ExpiresAt.Before(now) {
			delete(s.records, hash)
			n++
		}
	}
	return n, nil
}

// recordingSink captures every emitted event for assertions.
type recordingSink struct {
	mu     sync.Mutex
	events []event.Event
}

func (s *recordingSink) Emit(e event.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSink) byType(t event.Type) []event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []event.Event
	for _, e := range s.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
