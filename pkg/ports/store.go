package ports

import (
	"context"

	"github.com/aretw0/parley/pkg/domain"
)

// StateStore persists dialogue sessions between requests.
// This is what lets a conversation stop on one machine and resume on another.
type StateStore interface {
	// Save persists the session under its ID, replacing any previous copy.
	Save(ctx context.Context, session *domain.Session) error

	// Load retrieves the session for a given ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Session, error)

	// Delete removes the session. Deleting a missing session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of every stored session.
	List(ctx context.Context) ([]string, error)
}
