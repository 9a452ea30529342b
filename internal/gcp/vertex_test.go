package gcp

import (
	"testing"

	"cloud.google.com/go/vertexai/genai"
)

func TestExtractText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{
				genai.Text("```markdown\n# Invoice\n"),
				genai.Text("Total: 42\n```"),
			}},
		}},
	}
	text, parts := extractText(resp)
	if parts != 2 {
		t.Errorf("expected 2 text parts, got %d", parts)
	}
	if text != "# Invoice\nTotal: 42" {
		t.Errorf("unexpected text %q", text)
	}

	if text, parts := extractText(nil); text != "" || parts != 0 {
		t.Errorf("nil response should be empty, got %q %d", text, parts)
	}
	if text, _ := extractText(&genai.GenerateContentResponse{}); text != "" {
		t.Errorf("no candidates should be empty, got %q", text)
	}
}

func TestIsRefusal(t *testing.T) {
	if !isRefusal("I am unable to read this document.") {
		t.Error("expected refusal to be detected")
	}
	if isRefusal("Invoice 2024-01\nTotal: 42") {
		t.Error("ordinary text flagged as refusal")
	}
}

func TestStripMarkdownFence(t *testing.T) {
	tests := map[string]string{
		"plain":                      "plain",
		"```markdown\n# Title\n```":  "# Title",
		"  \n```markdown\nbody```  ": "body",
	}
	for in, want := range tests {
		if got := stripMarkdownFence(in); got != want {
			t.Errorf("stripMarkdownFence(%q) = %q, want %q", in, got, want)
		}
	}
}
