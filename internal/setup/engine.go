// Package setup implements the guided-setup dialogue: a staged state
// machine that turns free-form child answers into structured character
// attributes, one attribute per stage.
package setup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/easeaico/sketch-friends/internal/llm"
	"github.com/easeaico/sketch-friends/internal/store"
	"github.com/easeaico/sketch-friends/internal/types"
)

// ErrFinished is returned by Advance once setup has completed.
var ErrFinished = errors.New("setup already complete")

// BirthDescription marks version 1 of every character.
const BirthDescription = "たんじょう"

// ContinuationDelay is the pause before the character asks its next
// question after an answer was accepted.
const ContinuationDelay = time.Second

// Result is the outcome of one Advance call.
type Result struct {
	// Reply is always surfaced to the child and sent to speech synthesis.
	Reply string
	// Stage is the stage after the call.
	Stage types.SetupStage
	// NeedsContinuation asks the driver to call Advance("") again after
	// ContinuationDelay so the next question is asked without waiting
	// for input.
	NeedsContinuation bool
	// Recovered reports that the collaborator failed and Reply is the
	// fixed retry prompt; no attribute was committed.
	Recovered bool
	// Completed is set on the terminal transition; Character is the
	// freshly persisted record.
	Completed bool
	Character *types.Character
}

// Engine runs one setup dialogue for one captured drawing. It is not
// safe for concurrent use; callers serialize Advance calls.
type Engine struct {
	provider llm.Provider
	store    store.Store

	stage      types.SetupStage
	settings   types.CharacterSettings
	image      []byte
	imageURL   string
	transcript []types.ChatMessage

	now   func() time.Time
	newID func() string
}

// NewEngine creates an engine at the IDENTITY stage. image is the raw
// capture shown to the collaborator; imageURL is the bounded encoding
// stored with version 1.
func NewEngine(provider llm.Provider, st store.Store, image []byte, imageURL string) *Engine {
	return &Engine{
		provider: provider,
		store:    st,
		stage:    types.StageIdentity,
		image:    image,
		imageURL: imageURL,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Begin analyzes the drawing to capture the first impression, then runs
// the opening Advance so the character introduces itself. Recognition
// failure is non-fatal and falls back to a fixed description.
func (e *Engine) Begin(ctx context.Context) (Result, error) {
	recognition, err := e.provider.AnalyzeDrawing(ctx, e.image)
	if err != nil {
		slog.Warn("drawing analysis failed, using fallback", "error", err)
		recognition = llm.FallbackRecognition
	}
	e.settings.OriginalSpecies = recognition
	return e.Advance(ctx, "")
}

// Advance runs one turn of the setup dialogue. An empty utterance marks
// the opening call of a stage. The stage only moves forward, and only
// when the collaborator is satisfied with a non-empty extracted value;
// on collaborator failure no state changes and Reply carries the fixed
// retry prompt.
func (e *Engine) Advance(ctx context.Context, childUtterance string) (Result, error) {
	if e.stage.Terminal() {
		return Result{}, ErrFinished
	}

	if childUtterance != "" {
		e.appendTranscript(types.RoleUser, childUtterance)
	}

	resp, err := e.provider.GenerateSetupTurn(ctx, llm.SetupTurn{
		Stage:      e.stage,
		Image:      e.image,
		ChildInput: childUtterance,
		Settings:   e.settings,
	})
	if err != nil {
		slog.Warn("setup turn failed", "stage", e.stage, "error", err)
		e.appendTranscript(types.RoleModel, llm.FallbackSetupReply)
		return Result{Reply: llm.FallbackSetupReply, Stage: e.stage, Recovered: true}, nil
	}

	e.appendTranscript(types.RoleModel, resp.ReplyToChild)
	result := Result{Reply: resp.ReplyToChild, Stage: e.stage}

	if !resp.IsSatisfied || resp.ExtractedValue == "" {
		return result, nil
	}

	e.commit(resp.ExtractedValue)
	e.stage = e.stage.Next()
	result.Stage = e.stage

	if !e.stage.Terminal() {
		result.NeedsContinuation = true
		return result, nil
	}

	character, err := e.finalize(ctx)
	if err != nil {
		return result, err
	}
	result.Completed = true
	result.Character = character
	return result, nil
}

// Stage returns the current stage.
func (e *Engine) Stage() types.SetupStage {
	return e.stage
}

// Settings returns the attributes committed so far.
func (e *Engine) Settings() types.CharacterSettings {
	return e.settings
}

// Transcript returns the conversation so far.
func (e *Engine) Transcript() []types.ChatMessage {
	out := make([]types.ChatMessage, len(e.transcript))
	copy(out, e.transcript)
	return out
}

// commit stores the extracted value into the field owned by the current
// stage.
func (e *Engine) commit(value string) {
	switch e.stage {
	case types.StageIdentity:
		e.settings.Species = value
	case types.StageName:
		e.settings.Name = value
	case types.StageAbility:
		e.settings.Ability = value
	case types.StageFood:
		e.settings.FavoriteFood = value
	case types.StageChildName:
		e.settings.ChildName = value
	}
}

// finalize creates and persists the character. This is the only write
// the engine performs; a persistence failure surfaces as a blocking
// error without corrupting anything already shown to the user.
func (e *Engine) finalize(ctx context.Context) (*types.Character, error) {
	now := e.now()
	settings := e.settings
	settings.Personality = types.DefaultPersonality

	character := &types.Character{
		ID:                  e.newID(),
		CreatedAt:           now,
		Settings:            settings,
		CurrentVersionIndex: 0,
		IsSetupComplete:     true,
		ConversationHistory: []types.ChatMessage{},
		Versions: []types.CharacterVersion{{
			VersionNumber:     1,
			ImageURL:          e.imageURL,
			CreatedAt:         now,
			Description:       BirthDescription,
			AIRecognitionText: settings.OriginalSpecies,
		}},
	}

	if err := e.store.Upsert(ctx, character); err != nil {
		return nil, fmt.Errorf("failed to persist new character: %w", err)
	}
	return character, nil
}

func (e *Engine) appendTranscript(role types.Role, text string) {
	e.transcript = append(e.transcript, types.ChatMessage{
		ID:        e.newID(),
		Role:      role,
		Text:      text,
		Timestamp: e.now(),
	})
}
