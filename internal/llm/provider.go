// Package llm defines the language-generation collaborator consumed by
// the setup, chat, and lineage engines, plus strict parsing of its
// structured output.
package llm

import (
	"context"

	"github.com/easeaico/sketch-friends/internal/types"
)

// SetupResponse is the structured record returned for every setup turn.
// ExtractedValue is empty when the model could not pull a usable answer
// out of the child's utterance.
type SetupResponse struct {
	ReplyToChild   string `json:"replyToChild"`
	ExtractedValue string `json:"extractedValue"`
	IsSatisfied    bool   `json:"isSatisfied"`
}

// SetupTurn carries everything the collaborator needs for one setup
// exchange. Image is only consulted during the IDENTITY stage.
type SetupTurn struct {
	Stage      types.SetupStage
	Image      []byte
	ChildInput string
	Settings   types.CharacterSettings
}

// ChatTurn is one free-form chat exchange. History is already truncated
// to the engine's window by the caller. IsEnding instructs the model to
// produce a closing farewell instead of an open-ended reply.
type ChatTurn struct {
	Settings    types.CharacterSettings
	History     []types.ChatMessage
	UserMessage string
	IsEnding    bool
}

// EvolutionRequest asks for a description of the visual delta between
// the previous version and a freshly drawn image.
type EvolutionRequest struct {
	Settings            types.CharacterSettings
	PreviousDescription string
	Image               []byte
}

// EvolutionResult pairs the physical-change description with a
// child-facing reaction.
type EvolutionResult struct {
	Description string `json:"description"`
	Reaction    string `json:"reaction"`
}

// Provider is the language-generation collaborator. Implementations may
// fail on any call; engines treat failure as non-fatal and substitute
// fixed fallbacks.
type Provider interface {
	// AnalyzeDrawing describes what the drawing looks like in short,
	// child-directed Japanese.
	AnalyzeDrawing(ctx context.Context, image []byte) (string, error)
	// GenerateSetupTurn runs one turn of the setup dialogue and returns
	// the structured extraction record.
	GenerateSetupTurn(ctx context.Context, turn SetupTurn) (SetupResponse, error)
	// GenerateChatReply returns the character's in-persona reply.
	GenerateChatReply(ctx context.Context, turn ChatTurn) (string, error)
	// GenerateEvolution describes how a new drawing changed the character.
	GenerateEvolution(ctx context.Context, req EvolutionRequest) (EvolutionResult, error)
}

// Fixed fallback texts, used whenever a collaborator call fails or
// returns output that does not conform to the schema.
const (
	FallbackRecognition = "ふしぎな おともだち"
	FallbackSetupReply  = "あれれ？ めがまわっちゃった。\nもういっかい いってくれる？"
	FallbackChatReply   = "ねむくなっちゃった...\nまたあとであそぼう！"

	FallbackEvolutionDescription = "まほうのへんしん！"
	FallbackEvolutionReaction    = "わあ！ つよくなったきがする！"
)
