// Package types defines the persisted character model shared by the
// setup, chat, and lineage engines.
package types

import "time"

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// DefaultPersonality is assigned to every character at creation.
const DefaultPersonality = "Friendly"

// CharacterSettings is the identity filled in during guided setup.
// Fields are committed one per setup stage and never revisited within
// a single setup run.
type CharacterSettings struct {
	// Species is the current identity (e.g. ライオン, ロボット, くるま).
	Species string `json:"species"`
	// OriginalSpecies captures the very first drawing recognition and is
	// immutable once set.
	OriginalSpecies string `json:"originalSpecies"`
	Name            string `json:"name"`
	Ability         string `json:"ability"`
	FavoriteFood    string `json:"favoriteFood"`
	ChildName       string `json:"childName"`
	Personality     string `json:"personality"`
}

// CharacterVersion is one immutable snapshot in a character's lineage.
// Evolution only ever appends; past versions are never edited or removed.
type CharacterVersion struct {
	// VersionNumber is 1-based and strictly increasing with no gaps.
	VersionNumber     int       `json:"versionNumber"`
	ImageURL          string    `json:"imageUrl"`
	CreatedAt         time.Time `json:"createdAt"`
	Description       string    `json:"description"`
	AIRecognitionText string    `json:"aiRecognitionText"`
}

// ChatMessage is one exchange half within a character's conversation.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Character is a persistent drawing-born companion. It exclusively owns
// its versions and conversation history; nothing is shared across
// characters.
type Character struct {
	ID        string            `json:"id"`
	CreatedAt time.Time         `json:"createdAt"`
	Settings  CharacterSettings `json:"settings"`
	// Versions is non-empty and append-only.
	Versions []CharacterVersion `json:"versions"`
	// CurrentVersionIndex points into Versions: 0 at creation, and equal
	// to len(Versions)-1 immediately after every evolution.
	CurrentVersionIndex int  `json:"currentVersionIndex"`
	IsSetupComplete     bool `json:"isSetupComplete"`
	// ConversationHistory is append-only and persists across sessions.
	ConversationHistory []ChatMessage `json:"conversationHistory"`
}

// CurrentVersion returns the version the current pointer designates.
func (c *Character) CurrentVersion() CharacterVersion {
	if c.CurrentVersionIndex < 0 || c.CurrentVersionIndex >= len(c.Versions) {
		return CharacterVersion{}
	}
	return c.Versions[c.CurrentVersionIndex]
}

// SetupStage is one step of the guided onboarding dialogue. Stages are
// totally ordered and only ever advance; Complete is terminal.
type SetupStage string

const (
	StageIdentity  SetupStage = "IDENTITY"
	StageName      SetupStage = "NAME"
	StageAbility   SetupStage = "ABILITY"
	StageFood      SetupStage = "FOOD"
	StageChildName SetupStage = "CHILD_NAME"
	StageComplete  SetupStage = "COMPLETE"
)

// Next returns the stage that follows s. Complete returns itself.
func (s SetupStage) Next() SetupStage {
	switch s {
	case StageIdentity:
		return StageName
	case StageName:
		return StageAbility
	case StageAbility:
		return StageFood
	case StageFood:
		return StageChildName
	case StageChildName:
		return StageComplete
	default:
		return StageComplete
	}
}

// Terminal reports whether s is the final stage.
func (s SetupStage) Terminal() bool {
	return s == StageComplete
}
