// Package models provides language-collaborator adapters for the
// supported model providers.
package models

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/easeaico/sketch-friends/internal/llm"
	"github.com/easeaico/sketch-friends/internal/prompt"
	"github.com/easeaico/sketch-friends/internal/types"
)

// GeminiProvider implements llm.Provider on top of the Gemini API.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// setupResponseSchema constrains the setup-turn output. extractedValue
// is nullable: the model returns null when no usable answer was given.
var setupResponseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"replyToChild": {
			Type:        genai.TypeString,
			Description: "子どもへの返答。短く（最大2文）、元気よく、ひらがな多めで。HTMLタグは使用禁止。改行は\\nを使用。",
		},
		"extractedValue": {
			Type:        genai.TypeString,
			Nullable:    boolPtr(true),
			Description: "子どもの答えから抽出した具体的な値（例: 'ライオン', 'レオン', '走ること'）。不明な場合はnull。",
		},
		"isSatisfied": {
			Type:        genai.TypeBoolean,
			Description: "子どもが現在の質問に対して有効な答えを返した場合はtrue。",
		},
	},
	Required: []string{"replyToChild", "isSatisfied"},
}

var evolutionResultSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"description": {Type: genai.TypeString},
		"reaction":    {Type: genai.TypeString},
	},
	Required: []string{"description", "reaction"},
}

// NewGeminiProvider creates a Gemini-backed provider.
func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiProvider{client: client, model: model}, nil
}

func (p *GeminiProvider) AnalyzeDrawing(ctx context.Context, image []byte) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromBytes(image, "image/jpeg"),
		genai.NewPartFromText(prompt.AnalyzeDrawing),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("analyze drawing: %w", err)
	}

	text := strings.TrimSpace(responseText(resp))
	if text == "" {
		return "", fmt.Errorf("analyze drawing: empty response")
	}
	return text, nil
}

func (p *GeminiProvider) GenerateSetupTurn(ctx context.Context, turn llm.SetupTurn) (llm.SetupResponse, error) {
	system, err := prompt.BuildSetup(turn.Stage, turn.Settings)
	if err != nil {
		return llm.SetupResponse{}, err
	}

	parts := []*genai.Part{genai.NewPartFromText(system)}
	// The drawing is only consulted while the character asks what it is.
	if turn.Stage == types.StageIdentity && len(turn.Image) > 0 {
		parts = append(parts, genai.NewPartFromBytes(turn.Image, "image/jpeg"))
	}
	parts = append(parts, genai.NewPartFromText(prompt.ChildInputLine(turn.ChildInput)))

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   setupResponseSchema,
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
	if err != nil {
		return llm.SetupResponse{}, fmt.Errorf("generate setup turn: %w", err)
	}
	return llm.ParseSetupResponse(responseText(resp))
}

func (p *GeminiProvider) GenerateChatReply(ctx context.Context, turn llm.ChatTurn) (string, error) {
	system, conversation, err := prompt.BuildChat(prompt.ChatData{
		Settings:    turn.Settings,
		History:     turn.History,
		UserMessage: turn.UserMessage,
		IsEnding:    turn.IsEnding,
	})
	if err != nil {
		return "", err
	}

	parts := []*genai.Part{
		genai.NewPartFromText(system),
		genai.NewPartFromText(conversation),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate chat reply: %w", err)
	}

	text := strings.TrimSpace(responseText(resp))
	if text == "" {
		return "", fmt.Errorf("generate chat reply: empty response")
	}
	return text, nil
}

func (p *GeminiProvider) GenerateEvolution(ctx context.Context, req llm.EvolutionRequest) (llm.EvolutionResult, error) {
	text, err := prompt.BuildEvolution(req.Settings, req.PreviousDescription)
	if err != nil {
		return llm.EvolutionResult{}, err
	}

	parts := []*genai.Part{
		genai.NewPartFromBytes(req.Image, "image/jpeg"),
		genai.NewPartFromText(text),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   evolutionResultSchema,
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
	if err != nil {
		return llm.EvolutionResult{}, fmt.Errorf("generate evolution: %w", err)
	}
	return llm.ParseEvolutionResult(responseText(resp))
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

func boolPtr(v bool) *bool {
	return &v
}
