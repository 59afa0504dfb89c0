// Package store owns durable character records: whole-record CRUD over
// the persistence collaborator. Callers always build the full updated
// record before calling Upsert; there are no partial-field updates.
package store

import (
	"context"
	"errors"

	"github.com/easeaico/sketch-friends/internal/types"
)

// ErrNotFound is returned when no character has the requested id.
var ErrNotFound = errors.New("character not found")

// Store is the character persistence surface.
type Store interface {
	// List returns all characters, oldest first.
	List(ctx context.Context) ([]*types.Character, error)
	// Get returns the character with the given id or ErrNotFound.
	Get(ctx context.Context, id string) (*types.Character, error)
	// Upsert inserts the character if its id is unknown, else replaces
	// the stored record wholesale.
	Upsert(ctx context.Context, character *types.Character) error
	// Delete removes the character and everything it owns. Deleting an
	// unknown id is not an error.
	Delete(ctx context.Context, id string) error
}
