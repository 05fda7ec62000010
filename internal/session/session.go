// Package session keeps the server-side state of a browser session: the authenticated user,
// the API token pair and the request-gate marker. The browser only holds the opaque session ID.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/aurcc/bonafide-portal/internal/app/access"
	"github.com/aurcc/bonafide-portal/internal/app/models"
)

// ErrNotFound is returned by a Store for unknown or expired sessions.
var ErrNotFound = errors.New("session not found")

// Store persists sessions
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

// Updater is implemented by stores that apply a read-modify-write of one session atomically.
type Updater interface {
	Update(ctx context.Context, id string, fn func(*Session)) (*Session, error)
}

// FlashKind is the alert style of a flash message
type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashError   FlashKind = "error"
	FlashInfo    FlashKind = "info"
)

// Flash is a one-shot message shown on the next rendered page
type Flash struct {
	Kind    FlashKind `json:"kind"`
	Message string    `json:"message"`
}

// OpenRequestMarker records that the student has a request awaiting review.
// It is set the moment a submission succeeds and reconciled against the fetched history.
type OpenRequestMarker struct {
	RequestID string               `json:"request_id"`
	Status    models.RequestStatus `json:"status"`
	SetAt     time.Time            `json:"set_at"`
}

// Session is one signed-in browser
type Session struct {
	ID              string             `json:"id"`
	User            models.User        `json:"user"`
	AccessToken     string             `json:"access_token"`
	RefreshToken    string             `json:"refresh_token"`
	AccessExpiresAt time.Time          `json:"access_expires_at"`
	OpenRequest     *OpenRequestMarker `json:"open_request,omitempty"`
	Flash           *Flash             `json:"flash,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	ExpiresAt       time.Time          `json:"expires_at"`
}

// Role returns the raw role of the signed-in user.
func (s *Session) Role() models.RoleName {
	return s.User.Role
}

// MustChangePassword reports whether the password change page is forced.
func (s *Session) MustChangePassword() bool {
	return s.User.MustChangePassword
}

// HasOpenRequest reports whether the gate marker is set.
func (s *Session) HasOpenRequest() bool {
	return s.OpenRequest != nil
}

// Principal is the view of the session the access model evaluates. A nil session yields nil.
func (s *Session) Principal() *access.Principal {
	if s == nil {
		return nil
	}
	return &access.Principal{Role: s.User.Role, MustChangePassword: s.User.MustChangePassword}
}

// Expired reports whether the session is past its deadline at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Clone returns a deep copy so stores never share mutable state with callers.
func (s *Session) Clone() *Session {
	c := *s
	if s.OpenRequest != nil {
		marker := *s.OpenRequest
		c.OpenRequest = &marker
	}
	if s.Flash != nil {
		flash := *s.Flash
		c.Flash = &flash
	}
	return &c
}
