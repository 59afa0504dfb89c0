package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/easeaico/sketch-friends/internal/types"
)

// MemoryStore is an in-memory Store used in tests and when no database
// is configured. Records are deep-copied on the way in and out so
// callers never share mutable state with the store.
type MemoryStore struct {
	mu         sync.Mutex
	characters map[string]*types.Character
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{characters: make(map[string]*types.Character)}
}

func (s *MemoryStore) List(ctx context.Context) ([]*types.Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]*types.Character, 0, len(s.characters))
	for _, character := range s.characters {
		copied, err := deepCopy(character)
		if err != nil {
			return nil, err
		}
		results = append(results, copied)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].ID < results[j].ID
		}
		return results[i].CreatedAt.Before(results[j].CreatedAt)
	})
	return results, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*types.Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	character, ok := s.characters[id]
	if !ok {
		return nil, ErrNotFound
	}
	return deepCopy(character)
}

func (s *MemoryStore) Upsert(ctx context.Context, character *types.Character) error {
	if character == nil {
		return fmt.Errorf("character cannot be nil")
	}
	copied, err := deepCopy(character)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.characters[copied.ID] = copied
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.characters, id)
	return nil
}

func deepCopy(character *types.Character) (*types.Character, error) {
	data, err := json.Marshal(character)
	if err != nil {
		return nil, fmt.Errorf("failed to copy character: %w", err)
	}
	var copied types.Character
	if err := json.Unmarshal(data, &copied); err != nil {
		return nil, fmt.Errorf("failed to copy character: %w", err)
	}
	return &copied, nil
}
