package ports

import (
	"context"

	"github.com/aretw0/storefront/pkg/domain"
)

// StateStore defines the interface for persisting conversation sessions.
// Implementations must be safe for concurrent use across user IDs.
// Backend failures should wrap domain.ErrStoreUnavailable.
type StateStore interface {
	// Save persists the session for a given user ID.
	Save(ctx context.Context, userID string, session *domain.Session) error

	// Load retrieves the session for a given user ID.
	// Returns domain.ErrSessionNotFound if the user has no session.
	Load(ctx context.Context, userID string) (*domain.Session, error)

	// Delete removes the session for a given user ID.
	Delete(ctx context.Context, userID string) error

	// List returns the IDs of all stored sessions.
	List(ctx context.Context) ([]string, error)
}
