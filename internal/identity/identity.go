package identity

import (
	"context"
	"time"

	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/pkg/xmap"
)

// Session is an authenticated identity-backend session. UserID links the
// session to the application profile carrying the same id.
type Session struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the session token is past its expiry.
func (s *Session) Expired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// Event is an auth state transition emitted by the backend.
type Event string

const (
	EventSignedIn     Event = "SIGNED_IN"
	EventSignedOut    Event = "SIGNED_OUT"
	EventTokenRevoked Event = "TOKEN_REVOKED"
)

// Metadata carries optional attributes attached to a new identity at
// sign-up, in the raw key/value shape hosted credential providers use.
type Metadata map[string]any

// FullName returns the "full_name" attribute, or "" when absent.
func (m Metadata) FullName() string {
	if v := xmap.GetStringPtr(m, "full_name"); v != nil {
		return *v
	}

	return ""
}

// Callback receives auth state changes. The session is nil for sign-out and
// revocation events.
type Callback func(event Event, session *Session)

// Backend is the credential authority the session layer talks to. The
// application never stores passwords itself; it holds the backend behind this
// interface so local and hosted providers are interchangeable.
type Backend interface {
	// SignUp registers a new identity and returns its initial session.
	SignUp(ctx context.Context, email, password string, meta Metadata) (*Session, error)

	// SignIn verifies credentials and returns a fresh session.
	SignIn(ctx context.Context, email, password string) (*Session, error)

	// SignOut invalidates the current session, if any. Signing out without a
	// session is not an error.
	SignOut(ctx context.Context) error

	// CurrentSession returns the persisted session, or (nil, nil) when no
	// valid session exists.
	CurrentSession(ctx context.Context) (*Session, error)

	// OnAuthStateChange registers cb for auth events and returns an
	// unsubscribe function.
	OnAuthStateChange(cb Callback) (unsubscribe func())

	// UpdatePassword replaces the stored credential for the given identity.
	UpdatePassword(ctx context.Context, userID, newPassword string) error

	// SendPasswordReset initiates a password reset for the given email.
	SendPasswordReset(ctx context.Context, email string) error

	// DeleteUser removes an identity. Used to compensate partially failed
	// sign-up flows.
	DeleteUser(ctx context.Context, userID string) error
}
