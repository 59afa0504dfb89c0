package llm

import (
	"strings"
	"testing"
)

func TestParseSetupResponse(t *testing.T) {
	raw := `{"replyToChild": "ガオー！ ぼくはライオンだよ！", "extractedValue": "ライオン", "isSatisfied": true}`
	got, err := ParseSetupResponse(raw)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.ReplyToChild != "ガオー！ ぼくはライオンだよ！" {
		t.Fatalf("unexpected reply: %q", got.ReplyToChild)
	}
	if got.ExtractedValue != "ライオン" {
		t.Fatalf("unexpected value: %q", got.ExtractedValue)
	}
	if !got.IsSatisfied {
		t.Fatal("expected isSatisfied")
	}
}

func TestParseSetupResponseSurroundingProse(t *testing.T) {
	raw := "Here is the result:\n```json\n" +
		`{"replyToChild": "なまえを おしえて！", "extractedValue": null, "isSatisfied": false}` +
		"\n```\nHope that helps."
	got, err := ParseSetupResponse(raw)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.ReplyToChild != "なまえを おしえて！" {
		t.Fatalf("unexpected reply: %q", got.ReplyToChild)
	}
	if got.ExtractedValue != "" {
		t.Fatalf("null value must come back empty, got %q", got.ExtractedValue)
	}
	if got.IsSatisfied {
		t.Fatal("expected isSatisfied false")
	}
}

func TestParseSetupResponseRejectsBadOutput(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"no JSON", "ごめんね、わからなかった"},
		{"malformed", `{"replyToChild": "やあ", "isSatisfied": `},
		{"missing reply", `{"extractedValue": "ライオン", "isSatisfied": true}`},
		{"missing isSatisfied", `{"replyToChild": "やあ"}`},
		{"wrong type", `{"replyToChild": "やあ", "isSatisfied": "yes"}`},
		{"numeric value", `{"replyToChild": "やあ", "extractedValue": 7, "isSatisfied": true}`},
		{"blank reply", `{"replyToChild": "   ", "isSatisfied": true}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseSetupResponse(tc.raw); err == nil {
				t.Fatalf("expected an error for %q", tc.raw)
			}
		})
	}
}

func TestParseEvolutionResult(t *testing.T) {
	raw := `{"description": "ほしのマントをはおった！", "reaction": "キラキラしてるでしょ！"}`
	got, err := ParseEvolutionResult(raw)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.Description != "ほしのマントをはおった！" {
		t.Fatalf("unexpected description: %q", got.Description)
	}
	if got.Reaction != "キラキラしてるでしょ！" {
		t.Fatalf("unexpected reaction: %q", got.Reaction)
	}
}

func TestParseEvolutionResultRejectsBadOutput(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"no JSON", "changed a lot"},
		{"missing reaction", `{"description": "かわった"}`},
		{"blank description", `{"description": "", "reaction": "わあ"}`},
		{"wrong type", `{"description": 1, "reaction": "わあ"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseEvolutionResult(tc.raw); err == nil {
				t.Fatalf("expected an error for %q", tc.raw)
			}
		})
	}
}

func TestParseSetupResponseWhitespaceTrim(t *testing.T) {
	raw := `{"replyToChild": "  レオだね！  ", "extractedValue": " レオ ", "isSatisfied": true}`
	got, err := ParseSetupResponse(raw)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if strings.ContainsAny(got.ReplyToChild+got.ExtractedValue, " \t") {
		t.Fatalf("values must be trimmed, got %q / %q", got.ReplyToChild, got.ExtractedValue)
	}
}
