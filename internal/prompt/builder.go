// Package prompt assembles the Japanese child-directed prompts sent to
// the language collaborator.
package prompt

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/easeaico/sketch-friends/internal/types"
)

// BuildSetup renders the system prompt for one setup-dialogue turn.
func BuildSetup(stage types.SetupStage, settings types.CharacterSettings) (string, error) {
	data := struct {
		Stage    string
		Settings types.CharacterSettings
	}{
		Stage:    string(stage),
		Settings: settings,
	}

	var buf bytes.Buffer
	if err := setupTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to build setup prompt: %w", err)
	}
	return buf.String(), nil
}

// ChildInputLine formats the child's utterance for the model. An empty
// utterance marks the opening turn of a stage, where the character asks
// its question without expecting an answer.
func ChildInputLine(input string) string {
	if input == "" {
		return "CHILD_INPUT: (Silence/Start)"
	}
	return fmt.Sprintf("CHILD_INPUT: %q", input)
}

// BuildChat renders the system prompt and conversation block for one
// chat turn. History must already be truncated to the session window.
func BuildChat(turn ChatData) (system string, conversation string, err error) {
	var buf bytes.Buffer
	if err := chatTemplate.Execute(&buf, turn); err != nil {
		return "", "", fmt.Errorf("failed to build chat prompt: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("履歴:\n")
	for _, msg := range turn.History {
		name := turn.Settings.Name
		if msg.Role == types.RoleUser {
			name = turn.Settings.ChildName
		}
		sb.WriteString(name)
		sb.WriteString(": ")
		sb.WriteString(msg.Text)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(turn.Settings.ChildName)
	sb.WriteString(": ")
	sb.WriteString(turn.UserMessage)
	sb.WriteString("\n")
	sb.WriteString(turn.Settings.Name)
	sb.WriteString(":")

	return buf.String(), sb.String(), nil
}

// ChatData is the input to BuildChat.
type ChatData struct {
	Settings    types.CharacterSettings
	History     []types.ChatMessage
	UserMessage string
	IsEnding    bool
}

// BuildEvolution renders the evolution-analysis prompt.
func BuildEvolution(settings types.CharacterSettings, previousDescription string) (string, error) {
	if previousDescription == "" {
		previousDescription = "あかちゃんのすがた"
	}
	data := struct {
		Settings            types.CharacterSettings
		PreviousDescription string
	}{
		Settings:            settings,
		PreviousDescription: previousDescription,
	}

	var buf bytes.Buffer
	if err := evolutionTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to build evolution prompt: %w", err)
	}
	return buf.String(), nil
}
