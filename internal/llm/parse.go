package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

// Structured collaborator output is validated against a strict schema
// before it is trusted. Malformed output is an error, handled by the
// engines exactly like a failed collaborator call.

var setupSchema = mustResolve(&jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"replyToChild":   {Type: "string"},
		"extractedValue": {Types: []string{"string", "null"}},
		"isSatisfied":    {Type: "boolean"},
	},
	Required: []string{"replyToChild", "isSatisfied"},
})

var evolutionSchema = mustResolve(&jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"description": {Type: "string"},
		"reaction":    {Type: "string"},
	},
	Required: []string{"description", "reaction"},
})

func mustResolve(s *jsonschema.Schema) *jsonschema.Resolved {
	resolved, err := s.Resolve(nil)
	if err != nil {
		panic(err)
	}
	return resolved
}

// ParseSetupResponse extracts and validates a structured setup record.
func ParseSetupResponse(raw string) (SetupResponse, error) {
	clean, err := validate(raw, setupSchema)
	if err != nil {
		return SetupResponse{}, fmt.Errorf("setup response: %w", err)
	}

	var out SetupResponse
	if err := json.Unmarshal([]byte(clean), &out); err != nil {
		return SetupResponse{}, fmt.Errorf("failed to parse setup response: %w", err)
	}

	out.ReplyToChild = strings.TrimSpace(out.ReplyToChild)
	out.ExtractedValue = strings.TrimSpace(out.ExtractedValue)
	if out.ReplyToChild == "" {
		return SetupResponse{}, fmt.Errorf("setup response: missing replyToChild")
	}
	return out, nil
}

// ParseEvolutionResult extracts and validates a structured evolution record.
func ParseEvolutionResult(raw string) (EvolutionResult, error) {
	clean, err := validate(raw, evolutionSchema)
	if err != nil {
		return EvolutionResult{}, fmt.Errorf("evolution result: %w", err)
	}

	var out EvolutionResult
	if err := json.Unmarshal([]byte(clean), &out); err != nil {
		return EvolutionResult{}, fmt.Errorf("failed to parse evolution result: %w", err)
	}

	out.Description = strings.TrimSpace(out.Description)
	out.Reaction = strings.TrimSpace(out.Reaction)
	if out.Description == "" || out.Reaction == "" {
		return EvolutionResult{}, fmt.Errorf("evolution result: missing description or reaction")
	}
	return out, nil
}

// validate trims the raw model output down to its JSON object and checks
// it against the schema, returning the cleaned JSON text.
func validate(raw string, schema *jsonschema.Resolved) (string, error) {
	clean := strings.TrimSpace(raw)
	start := strings.Index(clean, "{")
	end := strings.LastIndex(clean, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("no JSON object in output")
	}
	clean = clean[start : end+1]

	var instance any
	if err := json.Unmarshal([]byte(clean), &instance); err != nil {
		return "", fmt.Errorf("malformed JSON: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		return "", fmt.Errorf("schema violation: %w", err)
	}
	return clean, nil
}
