// Package lineage appends evolution snapshots to a character's version
// history and advances the current-version pointer. History is
// append-only: past versions are never edited or removed.
package lineage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/easeaico/sketch-friends/internal/llm"
	"github.com/easeaico/sketch-friends/internal/store"
	"github.com/easeaico/sketch-friends/internal/types"
)

// Manager performs evolutions.
type Manager struct {
	provider llm.Provider
	store    store.Store

	now   func() time.Time
	newID func() string
}

// NewManager returns a Manager.
func NewManager(provider llm.Provider, st store.Store) *Manager {
	return &Manager{
		provider: provider,
		store:    st,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Evolve layers a new drawing onto the character: it asks the
// collaborator for the visual delta and a reaction, appends the
// reaction to the conversation history, appends a new immutable
// version, advances the current pointer to it, and persists the whole
// record in one write. A collaborator failure substitutes fixed texts;
// evolution is never aborted by it. image is the raw capture for the
// collaborator, imageURL the bounded encoding that gets stored.
func (m *Manager) Evolve(ctx context.Context, character *types.Character, image []byte, imageURL string) (types.ChatMessage, error) {
	if character == nil {
		return types.ChatMessage{}, fmt.Errorf("character cannot be nil")
	}

	result, err := m.provider.GenerateEvolution(ctx, llm.EvolutionRequest{
		Settings:            character.Settings,
		PreviousDescription: character.CurrentVersion().Description,
		Image:               image,
	})
	if err != nil {
		slog.Warn("evolution analysis failed, using fallback", "character", character.ID, "error", err)
		result = llm.EvolutionResult{
			Description: llm.FallbackEvolutionDescription,
			Reaction:    llm.FallbackEvolutionReaction,
		}
	}

	now := m.now()
	reaction := types.ChatMessage{
		ID:        m.newID(),
		Role:      types.RoleModel,
		Text:      result.Reaction,
		Timestamp: now,
	}
	character.ConversationHistory = append(character.ConversationHistory, reaction)

	character.Versions = append(character.Versions, types.CharacterVersion{
		VersionNumber:     len(character.Versions) + 1,
		ImageURL:          imageURL,
		CreatedAt:         now,
		Description:       result.Description,
		AIRecognitionText: result.Description,
	})
	character.CurrentVersionIndex = len(character.Versions) - 1

	if err := m.store.Upsert(ctx, character); err != nil {
		return reaction, fmt.Errorf("failed to persist evolution: %w", err)
	}
	return reaction, nil
}
