package chat

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/easeaico/sketch-friends/internal/llm"
	"github.com/easeaico/sketch-friends/internal/store"
	"github.com/easeaico/sketch-friends/internal/types"
)

type fakeChatProvider struct {
	reply string
	err   error
	calls []llm.ChatTurn
}

func (p *fakeChatProvider) AnalyzeDrawing(ctx context.Context, image []byte) (string, error) {
	return "", errors.New("not implemented")
}

func (p *fakeChatProvider) GenerateSetupTurn(ctx context.Context, turn llm.SetupTurn) (llm.SetupResponse, error) {
	return llm.SetupResponse{}, errors.New("not implemented")
}

func (p *fakeChatProvider) GenerateChatReply(ctx context.Context, turn llm.ChatTurn) (string, error) {
	p.calls = append(p.calls, turn)
	if p.err != nil {
		return "", p.err
	}
	return p.reply, nil
}

func (p *fakeChatProvider) GenerateEvolution(ctx context.Context, req llm.EvolutionRequest) (llm.EvolutionResult, error) {
	return llm.EvolutionResult{}, errors.New("not implemented")
}

func seedCharacter(t *testing.T, st store.Store, id string, history []types.ChatMessage) *types.Character {
	t.Helper()
	if history == nil {
		history = []types.ChatMessage{}
	}
	character := &types.Character{
		ID:        id,
		CreatedAt: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
		Settings: types.CharacterSettings{
			Species:         "ライオン",
			OriginalSpecies: "らいおん かな？",
			Name:            "レオ",
			Ability:         "はやくはしる",
			FavoriteFood:    "にく",
			ChildName:       "ゆい",
			Personality:     types.DefaultPersonality,
		},
		Versions: []types.CharacterVersion{{
			VersionNumber: 1,
			ImageURL:      "data:image/jpeg;base64,AAAA",
			CreatedAt:     time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
			Description:   "たんじょう",
		}},
		IsSetupComplete:     true,
		ConversationHistory: history,
	}
	if err := st.Upsert(context.Background(), character); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return character
}

func newTestSession(t *testing.T, provider llm.Provider, st store.Store, id string) *Session {
	t.Helper()
	session, err := NewSession(context.Background(), provider, st, id)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	session.now = func() time.Time { return time.Date(2025, 6, 2, 15, 0, 0, 0, time.UTC) }
	seq := 0
	session.newID = func() string {
		seq++
		return fmt.Sprintf("msg-%d", seq)
	}
	return session
}

func TestSessionThreeTurnsEnds(t *testing.T) {
	provider := &fakeChatProvider{reply: "たのしいね！"}
	st := store.NewMemoryStore()
	seedCharacter(t, st, "char-1", nil)
	session := newTestSession(t, provider, st, "char-1")
	ctx := context.Background()

	for i := 1; i <= MaxTurns; i++ {
		reply, err := session.SendUserMessage(ctx, fmt.Sprintf("こんにちは %d", i))
		if err != nil {
			t.Fatalf("turn %d: expected no error, got %v", i, err)
		}
		if reply.Role != types.RoleModel || reply.Text != "たのしいね！" {
			t.Fatalf("turn %d: unexpected reply %+v", i, reply)
		}
		if session.TurnCount() != i {
			t.Fatalf("turn %d: expected turnCount %d, got %d", i, i, session.TurnCount())
		}
		wantEnded := i == MaxTurns
		if session.Ended() != wantEnded {
			t.Fatalf("turn %d: expected ended=%v", i, wantEnded)
		}
	}

	// The final reply was requested as a farewell.
	if len(provider.calls) != MaxTurns {
		t.Fatalf("expected %d collaborator calls, got %d", MaxTurns, len(provider.calls))
	}
	for i, call := range provider.calls {
		wantEnding := i == MaxTurns-1
		if call.IsEnding != wantEnding {
			t.Fatalf("call %d: expected isEnding=%v", i, wantEnding)
		}
	}

	// No effect after the session ended.
	if _, err := session.SendUserMessage(ctx, "まだいる？"); !errors.Is(err, ErrSessionEnded) {
		t.Fatalf("expected ErrSessionEnded, got %v", err)
	}
	stored, err := st.Get(ctx, "char-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(stored.ConversationHistory) != MaxTurns*2 {
		t.Fatalf("expected %d persisted messages, got %d", MaxTurns*2, len(stored.ConversationHistory))
	}
}

func TestSessionRejectsEmptyMessage(t *testing.T) {
	provider := &fakeChatProvider{reply: "やあ"}
	st := store.NewMemoryStore()
	seedCharacter(t, st, "char-1", nil)
	session := newTestSession(t, provider, st, "char-1")

	if _, err := session.SendUserMessage(context.Background(), "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if session.TurnCount() != 0 || len(provider.calls) != 0 {
		t.Fatal("empty input must not count a turn")
	}
}

func TestSessionHistoryWindow(t *testing.T) {
	var history []types.ChatMessage
	for i := 0; i < 25; i++ {
		role := types.RoleUser
		if i%2 == 1 {
			role = types.RoleModel
		}
		history = append(history, types.ChatMessage{
			ID:        fmt.Sprintf("old-%d", i),
			Role:      role,
			Text:      fmt.Sprintf("むかしのはなし %d", i),
			Timestamp: time.Date(2025, 5, 1, 10, i, 0, 0, time.UTC),
		})
	}

	provider := &fakeChatProvider{reply: "おぼえてるよ"}
	st := store.NewMemoryStore()
	seedCharacter(t, st, "char-1", history)
	session := newTestSession(t, provider, st, "char-1")

	if _, err := session.SendUserMessage(context.Background(), "おぼえてる？"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	call := provider.calls[0]
	if len(call.History) != HistoryWindow {
		t.Fatalf("expected %d history messages, got %d", HistoryWindow, len(call.History))
	}
	if call.History[len(call.History)-1].ID != "old-24" {
		t.Fatalf("window must keep the most recent messages, got %+v", call.History[len(call.History)-1])
	}
}

func TestSessionGreetingOnlyWhenNoHistory(t *testing.T) {
	provider := &fakeChatProvider{reply: "やあ"}
	st := store.NewMemoryStore()
	seedCharacter(t, st, "char-1", nil)
	session := newTestSession(t, provider, st, "char-1")
	ctx := context.Background()

	greeting, ok := session.Greeting()
	if !ok || greeting != "こんにちは ゆいちゃん！ あそぼう！" {
		t.Fatalf("unexpected greeting: %q ok=%v", greeting, ok)
	}

	// The greeting is spoken only, never persisted, never counted.
	stored, _ := st.Get(ctx, "char-1")
	if len(stored.ConversationHistory) != 0 || session.TurnCount() != 0 {
		t.Fatal("greeting must not persist or count a turn")
	}

	if _, err := session.SendUserMessage(ctx, "こんにちは"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, ok := session.Greeting(); ok {
		t.Fatal("greeting must not repeat once history exists")
	}
}

func TestSessionFallbackOnCollaboratorFailure(t *testing.T) {
	provider := &fakeChatProvider{err: errors.New("model down")}
	st := store.NewMemoryStore()
	seedCharacter(t, st, "char-1", nil)
	session := newTestSession(t, provider, st, "char-1")
	ctx := context.Background()

	reply, err := session.SendUserMessage(ctx, "あそぼう")
	if err != nil {
		t.Fatalf("collaborator failure must not fail the turn, got %v", err)
	}
	if reply.Text != llm.FallbackChatReply {
		t.Fatalf("expected fallback reply, got %q", reply.Text)
	}
	if session.TurnCount() != 1 {
		t.Fatalf("the turn still counts, got %d", session.TurnCount())
	}

	stored, _ := st.Get(ctx, "char-1")
	if len(stored.ConversationHistory) != 2 {
		t.Fatalf("both messages must persist, got %d", len(stored.ConversationHistory))
	}
	if stored.ConversationHistory[1].Text != llm.FallbackChatReply {
		t.Fatalf("fallback must be persisted, got %q", stored.ConversationHistory[1].Text)
	}
}

func TestManagerResetsOnCharacterSwitch(t *testing.T) {
	provider := &fakeChatProvider{reply: "うん！"}
	st := store.NewMemoryStore()
	seedCharacter(t, st, "char-a", nil)
	seedCharacter(t, st, "char-b", nil)
	manager := NewManager(provider, st)
	ctx := context.Background()

	a, err := manager.Session(ctx, "char-a")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	for i := 0; i < MaxTurns; i++ {
		if _, err := a.SendUserMessage(ctx, "ねえねえ"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	}
	if !a.Ended() {
		t.Fatal("expected session a to end")
	}

	b, err := manager.Session(ctx, "char-b")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if b == a {
		t.Fatal("switching characters must create a fresh session")
	}
	if b.TurnCount() != 0 || b.Ended() {
		t.Fatalf("fresh session state expected, got turns=%d ended=%v", b.TurnCount(), b.Ended())
	}

	// Returning to the first character also resets, while its history
	// survives in the store.
	a2, err := manager.Session(ctx, "char-a")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if a2 == a || a2.TurnCount() != 0 || a2.Ended() {
		t.Fatal("returning to a character must start a fresh session")
	}
	if len(a2.Character().ConversationHistory) != MaxTurns*2 {
		t.Fatalf("persisted history must survive the reset, got %d", len(a2.Character().ConversationHistory))
	}

	// Same character, same session.
	b2, err := manager.Session(ctx, "char-a")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if b2 != a2 {
		t.Fatal("requesting the active character must return the active session")
	}
}

func TestManagerResetRestartsSameCharacter(t *testing.T) {
	provider := &fakeChatProvider{reply: "うん！"}
	st := store.NewMemoryStore()
	seedCharacter(t, st, "char-a", nil)
	manager := NewManager(provider, st)
	ctx := context.Background()

	a, err := manager.Session(ctx, "char-a")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	for i := 0; i < MaxTurns; i++ {
		if _, err := a.SendUserMessage(ctx, "ねえねえ"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	}
	if !a.Ended() {
		t.Fatal("expected session to end")
	}

	// Without a reset the same character keeps the ended session.
	same, err := manager.Session(ctx, "char-a")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if same != a {
		t.Fatal("requesting the active character must return the active session")
	}

	manager.Reset()

	fresh, err := manager.Session(ctx, "char-a")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if fresh == a || fresh.TurnCount() != 0 || fresh.Ended() {
		t.Fatalf("reset must restart the same character, got turns=%d ended=%v", fresh.TurnCount(), fresh.Ended())
	}
	if len(fresh.Character().ConversationHistory) != MaxTurns*2 {
		t.Fatalf("persisted history must survive the reset, got %d", len(fresh.Character().ConversationHistory))
	}
	if _, err := fresh.SendUserMessage(ctx, "ただいま！"); err != nil {
		t.Fatalf("the fresh session must accept messages, got %v", err)
	}
}
