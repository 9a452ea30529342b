package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/Lllllllleong/docsocr/internal/document"
)

// CapabilityTyphoon is the health check name of the Typhoon backend.
const CapabilityTyphoon = "typhoon_ocr"

// DefaultModel is the model used when a request names none.
const DefaultModel = "typhoon-ocr"

// DefaultBaseURL is the OpenAI-compatible endpoint of the hosted Typhoon OCR service.
const DefaultBaseURL = "https://api.opentyphoon.ai/v1"

const maxTokens = 16384

// TyphoonClient talks to an OpenAI-compatible chat completions endpoint
// serving the Typhoon OCR models.
type TyphoonClient struct {
	httpClient *http.Client
}

// NewTyphoonClient creates a client. A zero timeout leaves the transport
// default in place.
func NewTyphoonClient(timeout time.Duration) *TyphoonClient {
	return &TyphoonClient{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// CheckTyphoonURL checks that baseURL is usable as the default endpoint.
func CheckTyphoonURL(baseURL string) error {
	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid OCR base url %q: %w", baseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid OCR base url %q: expected an absolute http(s) url", baseURL)
	}
	return nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Recognize sends one page (or the whole image when req.Page is 0) to the
// service and returns the decoded answer.
func (c *TyphoonClient) Recognize(ctx context.Context, req Request) (any, error) {
	prompt, err := PromptFor(req.Params.TaskType)
	if err != nil {
		return nil, err
	}
	dataURI, err := pagePayload(req)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(chatRequest{
		Model: req.Params.Model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentBlock{
				{Type: "text", Text: prompt},
				{Type: "image_url", ImageURL: &imageURL{URL: dataURI}},
			},
		}},
		MaxTokens:   maxTokens,
		Temperature: 0.0,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := strings.TrimRight(req.Params.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+req.Params.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("typhoon ocr request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("typhoon ocr: status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("typhoon ocr: malformed response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, errors.New("typhoon ocr: response has no choices")
	}
	return DecodeContent(parsed.Choices[0].Message.Content), nil
}

// pagePayload builds the data URI for the unit of work.
func pagePayload(req Request) (string, error) {
	data, mimeType, err := LoadPage(req)
	if err != nil {
		return "", err
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// LoadPage returns the bytes shipped for req and their media type: the raw
// image, or a one-page PDF cut from the staged document.
func LoadPage(req Request) ([]byte, string, error) {
	if req.Page > 0 {
		data, err := document.ExtractPage(req.Path, req.Page)
		if err != nil {
			return nil, "", err
		}
		return data, document.MIMETypePDF, nil
	}
	data, err := os.ReadFile(req.Path)
	if err != nil {
		return nil, "", fmt.Errorf("could not read staged file %s: %w", req.Path, err)
	}
	return data, document.MIMEType(req.Path, data), nil
}

// DecodeContent unwraps the {"natural_text": ...} envelope the prompts ask
// for. Other JSON comes back as a structure and anything else as a string.
func DecodeContent(content string) any {
	trimmed := strings.TrimSpace(content)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	trimmed = strings.TrimSpace(trimmed)
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return content
	}

	var decoded any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return content
	}
	if obj, ok := decoded.(map[string]any); ok {
		if text, ok := obj["natural_text"].(string); ok {
			return text
		}
	}
	return decoded
}
