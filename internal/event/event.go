package event

import "time"

// Type names a security-relevant moment in the auth lifecycle.
type Type string

const (
	RegisterSuccess       Type = "register_success"
	LoginSuccess          Type = "login_success"
	LoginFailure          Type = "login_failure"
	RefreshSuccess        Type = "refresh_success"
	RefreshFailure        Type = "refresh_failure"
	Logout                Type = "logout"
	PasswordChangeSuccess Type = "password_change_success"
	PasswordChangeFailure Type = "password_change_failure"
)

// Event is the structured record handed to the security sink. The core
// emits these and never reads them back.
type Event struct {
	Type   Type      `json:"type"`
	UserID string    `json:"user_id,omitempty"`
	Email  string    `json:"email,omitempty"`
	Reason string    `json:"reason,omitempty"`
	At     time.Time `json:"at"`
}

// Sink receives emitted security events. Storage, retention, and
// alerting belong to the sink's owner, not to this package.
type Sink interface {
	Emit(e Event)
}

// NopSink drops every event.
type NopSink struct{}

func (NopSink) Emit(Event) {}
