package models

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/easeaico/sketch-friends/internal/llm"
	"github.com/easeaico/sketch-friends/internal/prompt"
	"github.com/easeaico/sketch-friends/internal/types"
)

// OpenAIProvider implements llm.Provider against any OpenAI-compatible
// chat endpoint. With a base URL override it also serves Grok,
// OpenRouter, and similar gateways.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider creates an OpenAI-compatible provider. baseURL may
// be empty for the default endpoint.
func NewOpenAIProvider(apiKey, baseURL, model string) (*OpenAIProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model name cannot be empty")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)

	return &OpenAIProvider{client: &client, model: model}, nil
}

func (p *OpenAIProvider) AnalyzeDrawing(ctx context.Context, image []byte) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
			openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
				URL: jpegDataURL(image),
			}),
			openai.TextContentPart(prompt.AnalyzeDrawing),
		}),
	}

	text, err := p.complete(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("analyze drawing: %w", err)
	}
	if text == "" {
		return "", fmt.Errorf("analyze drawing: empty response")
	}
	return text, nil
}

func (p *OpenAIProvider) GenerateSetupTurn(ctx context.Context, turn llm.SetupTurn) (llm.SetupResponse, error) {
	system, err := prompt.BuildSetup(turn.Stage, turn.Settings)
	if err != nil {
		return llm.SetupResponse{}, err
	}

	// No response-schema support across all compatible gateways; ask for
	// JSON in the prompt and rely on the schema validation in parse.
	system += "\n\n必ず次のJSON形式のみで出力してください:\n" +
		`{"replyToChild": "...", "extractedValue": "... または null", "isSatisfied": true/false}`

	var userParts []openai.ChatCompletionContentPartUnionParam
	if turn.Stage == types.StageIdentity && len(turn.Image) > 0 {
		userParts = append(userParts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: jpegDataURL(turn.Image),
		}))
	}
	userParts = append(userParts, openai.TextContentPart(prompt.ChildInputLine(turn.ChildInput)))

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(system),
		openai.UserMessage(userParts),
	}

	raw, err := p.complete(ctx, messages)
	if err != nil {
		return llm.SetupResponse{}, fmt.Errorf("generate setup turn: %w", err)
	}
	return llm.ParseSetupResponse(raw)
}

func (p *OpenAIProvider) GenerateChatReply(ctx context.Context, turn llm.ChatTurn) (string, error) {
	system, conversation, err := prompt.BuildChat(prompt.ChatData{
		Settings:    turn.Settings,
		History:     turn.History,
		UserMessage: turn.UserMessage,
		IsEnding:    turn.IsEnding,
	})
	if err != nil {
		return "", err
	}

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(system),
		openai.UserMessage(conversation),
	}

	text, err := p.complete(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("generate chat reply: %w", err)
	}
	if text == "" {
		return "", fmt.Errorf("generate chat reply: empty response")
	}
	return text, nil
}

func (p *OpenAIProvider) GenerateEvolution(ctx context.Context, req llm.EvolutionRequest) (llm.EvolutionResult, error) {
	text, err := prompt.BuildEvolution(req.Settings, req.PreviousDescription)
	if err != nil {
		return llm.EvolutionResult{}, err
	}

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
			openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
				URL: jpegDataURL(req.Image),
			}),
			openai.TextContentPart(text),
		}),
	}

	raw, err := p.complete(ctx, messages)
	if err != nil {
		return llm.EvolutionResult{}, fmt.Errorf("generate evolution: %w", err)
	}
	return llm.ParseEvolutionResult(raw)
}

func (p *OpenAIProvider) complete(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.model),
		Messages: messages,
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to call chat API: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func jpegDataURL(data []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data)
}
