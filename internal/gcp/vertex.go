package gcp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"github.com/Lllllllleong/docsocr/internal/ocr"
)

// CapabilityVertex is the health check name of the Vertex AI backend.
const CapabilityVertex = "vertex_ocr"

// refusalPhrases mark an answer where the model declined the task.
var refusalPhrases = []string{
	"i am unable to",
	"i cannot fulfill",
	"i cannot answer",
	"i cannot provide",
	"as a large language model",
}

const vertexSystemPrompt = "You are a document OCR engine. Transcribe the page you are given faithfully, preserving reading order, tables and layout. Never summarize or add commentary."

// VertexRecognizer runs OCR through a Gemini model on Vertex AI.
type VertexRecognizer struct {
	baseClient    *genai.Client
	fallbackModel string
}

// NewVertexRecognizer creates a recognizer. fallbackModel is used whenever
// a request names no model or the Typhoon default.
func NewVertexRecognizer(ctx context.Context, projectID, region, fallbackModel string) (*VertexRecognizer, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexRecognizer: projectID and region cannot be empty")
	}
	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}
	return &VertexRecognizer{baseClient: baseClient, fallbackModel: fallbackModel}, nil
}

// Recognize sends one page or image inline together with the task prompt.
func (v *VertexRecognizer) Recognize(ctx context.Context, req ocr.Request) (any, error) {
	prompt, err := ocr.PromptFor(req.Params.TaskType)
	if err != nil {
		return nil, err
	}
	data, mimeType, err := ocr.LoadPage(req)
	if err != nil {
		return nil, err
	}

	model := v.model(req.Params.Model)
	resp, err := model.GenerateContent(ctx, genai.Blob{MIMEType: mimeType, Data: data}, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content from gemini: %w", err)
	}

	text, parts := extractText(resp)
	if parts > 1 {
		slog.Warn("Gemini response contained multiple text parts; they have been concatenated.", "page", req.Page, "parts", parts)
	}
	if isRefusal(text) {
		return nil, fmt.Errorf("gemini response indicates refusal for page %d", req.Page)
	}
	return ocr.DecodeContent(text), nil
}

// Close releases the underlying client.
func (v *VertexRecognizer) Close() error {
	if v.baseClient != nil {
		return v.baseClient.Close()
	}
	return nil
}

func (v *VertexRecognizer) model(name string) *genai.GenerativeModel {
	if name == "" || name == ocr.DefaultModel {
		name = v.fallbackModel
	}
	model := v.baseClient.GenerativeModel(name)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(vertexSystemPrompt)},
	}
	model.GenerationConfig = genai.GenerationConfig{
		Temperature: genai.Ptr[float32](0.0),
	}
	return model
}

// extractText concatenates the text parts of the first candidate and
// strips a surrounding markdown fence.
func extractText(resp *genai.GenerateContentResponse) (string, int) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", 0
	}
	var sb strings.Builder
	var parts int
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
			parts++
		}
	}
	return stripMarkdownFence(sb.String()), parts
}

func stripMarkdownFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```markdown")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func isRefusal(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
