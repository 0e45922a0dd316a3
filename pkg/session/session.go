// Package session keeps per-client navigation sessions for the HTTP API.
//
// Each session owns one [navigator.Navigator], so breadcrumbs, cache and
// search index are isolated between clients. Sessions expire after a period
// of inactivity; every successful lookup extends them.
//
// # Usage
//
//	store := session.NewMemoryStore(30*time.Minute, func() *navigator.Navigator {
//	    return navigator.New(navigator.Options{Fetcher: client})
//	})
//	go store.Run(ctx, time.Minute) // periodic cleanup
//
//	sess, err := store.Create(ctx)
//	sess, err = store.Get(ctx, sess.ID)
//	if sess == nil {
//	    // Session not found or expired
//	}
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/crateview/pkg/navigator"
)

// Sentinel errors for session operations.
var (
	// ErrInvalidID is returned for identifiers that are not UUIDs.
	ErrInvalidID = errors.New("invalid session id")
)

// DefaultTTL is the default idle lifetime of a session.
const DefaultTTL = 30 * time.Minute

// Session is one client's navigation state.
type Session struct {
	ID        string               `json:"id"`
	Navigator *navigator.Navigator `json:"-"`
	CreatedAt time.Time            `json:"created_at"`
	ExpiresAt time.Time            `json:"expires_at"`
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return s.isExpiredAt(time.Now())
}

func (s *Session) isExpiredAt(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Store is the interface for session storage backends.
type Store interface {
	// Create starts a new session.
	Create(ctx context.Context) (*Session, error)

	// Get retrieves a session by ID and extends its lifetime.
	// Returns nil, nil if the session doesn't exist or has expired.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Delete removes a session.
	Delete(ctx context.Context, sessionID string) error

	// Cleanup removes expired sessions and returns how many were removed.
	Cleanup(ctx context.Context) (int, error)
}

// GenerateID creates a random session ID.
func GenerateID() string {
	return uuid.NewString()
}

// ValidID reports whether id has the shape of a generated session ID.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
