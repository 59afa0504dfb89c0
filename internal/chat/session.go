// Package chat implements the turn-bounded chat session a child holds
// with a completed character.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/easeaico/sketch-friends/internal/llm"
	"github.com/easeaico/sketch-friends/internal/store"
	"github.com/easeaico/sketch-friends/internal/types"
)

// MaxTurns bounds a session: the reply to the MaxTurns-th user message
// is a farewell and the session ends.
const MaxTurns = 3

// HistoryWindow bounds the prior history handed to the collaborator.
const HistoryWindow = 10

var (
	// ErrEmptyMessage rejects blank user input.
	ErrEmptyMessage = errors.New("message text is empty")
	// ErrSessionEnded rejects messages after the turn limit.
	ErrSessionEnded = errors.New("chat session has ended")
)

// Session is one bounded conversation with one character. It owns the
// character record for its lifetime; callers serialize access.
type Session struct {
	provider  llm.Provider
	store     store.Store
	character *types.Character

	turnCount int
	ended     bool

	now   func() time.Time
	newID func() string
}

// NewSession loads the character's persisted history and starts a fresh
// session: turn count zero, not ended.
func NewSession(ctx context.Context, provider llm.Provider, st store.Store, characterID string) (*Session, error) {
	character, err := st.Get(ctx, characterID)
	if err != nil {
		return nil, fmt.Errorf("failed to load character for chat: %w", err)
	}
	return &Session{
		provider:  provider,
		store:     st,
		character: character,
		now:       time.Now,
		newID:     uuid.NewString,
	}, nil
}

// Character returns the session's character record.
func (s *Session) Character() *types.Character {
	return s.character
}

// TurnCount returns the number of user messages sent this session.
func (s *Session) TurnCount() int {
	return s.turnCount
}

// Ended reports whether the session has reached its turn limit.
func (s *Session) Ended() bool {
	return s.ended
}

// Greeting returns the spoken-only opening line for a character that
// has never chatted before. It is not persisted and does not count as
// a turn; ok is false once any history exists.
func (s *Session) Greeting() (greeting string, ok bool) {
	if len(s.character.ConversationHistory) > 0 {
		return "", false
	}
	return fmt.Sprintf("こんにちは %sちゃん！ あそぼう！", s.character.Settings.ChildName), true
}

// SendUserMessage runs one full turn: append the user message, request
// the in-persona reply (a farewell on the final turn), append it,
// persist both in one write, and end the session at the limit. A
// collaborator failure substitutes the fixed farewell text so the turn
// always completes; only a persistence failure is surfaced.
func (s *Session) SendUserMessage(ctx context.Context, text string) (types.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if s.ended {
		return types.ChatMessage{}, ErrSessionEnded
	}
	if text == "" {
		return types.ChatMessage{}, ErrEmptyMessage
	}

	window := recentWindow(s.character.ConversationHistory, HistoryWindow)

	userMsg := s.newMessage(types.RoleUser, text)
	s.character.ConversationHistory = append(s.character.ConversationHistory, userMsg)

	s.turnCount++
	isEnding := s.turnCount >= MaxTurns

	reply, err := s.provider.GenerateChatReply(ctx, llm.ChatTurn{
		Settings:    s.character.Settings,
		History:     window,
		UserMessage: text,
		IsEnding:    isEnding,
	})
	if err != nil {
		slog.Warn("chat reply failed, using fallback", "character", s.character.ID, "error", err)
		reply = llm.FallbackChatReply
	}

	modelMsg := s.newMessage(types.RoleModel, reply)
	s.character.ConversationHistory = append(s.character.ConversationHistory, modelMsg)

	persistErr := s.store.Upsert(ctx, s.character)

	if isEnding {
		s.ended = true
	}
	if persistErr != nil {
		return modelMsg, fmt.Errorf("failed to persist conversation: %w", persistErr)
	}
	return modelMsg, nil
}

func (s *Session) newMessage(role types.Role, text string) types.ChatMessage {
	return types.ChatMessage{
		ID:        s.newID(),
		Role:      role,
		Text:      text,
		Timestamp: s.now(),
	}
}

// recentWindow returns the last n messages, oldest first.
func recentWindow(history []types.ChatMessage, n int) []types.ChatMessage {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
