package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Lllllllleong/docsocr/internal/document"
	"github.com/Lllllllleong/docsocr/internal/document/pdftest"
)

type capturedRequest struct {
	path   string
	auth   string
	body   chatRequest
	rawLen int
}

func newTyphoonServer(t *testing.T, status int, reply string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		if captured != nil {
			captured.path = r.URL.Path
			captured.auth = r.Header.Get("Authorization")
			captured.rawLen = len(raw)
			if err := json.Unmarshal(raw, &captured.body); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func completion(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": content}}},
	})
	return string(b)
}

func writeImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scan.png")
	if err := os.WriteFile(path, []byte("\x89PNG\r\n\x1a\nfake"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTyphoonClient_ImageRequest(t *testing.T) {
	var captured capturedRequest
	srv := newTyphoonServer(t, http.StatusOK, completion(`{"natural_text": "Hello page"}`), &captured)

	client := NewTyphoonClient(0)
	result, err := client.Recognize(context.Background(), Request{
		Path:   writeImage(t),
		Params: Params{Model: "typhoon-ocr", TaskType: TaskStructure, BaseURL: srv.URL + "/", APIKey: "k-123"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "Hello page" {
		t.Fatalf("expected natural_text to be unwrapped, got %#v", result)
	}
	if captured.path != "/chat/completions" {
		t.Fatalf("unexpected path %s", captured.path)
	}
	if captured.auth != "Bearer k-123" {
		t.Fatalf("unexpected auth header %q", captured.auth)
	}
	if captured.body.Model != "typhoon-ocr" {
		t.Fatalf("unexpected model %q", captured.body.Model)
	}
	blocks := captured.body.Messages[0].Content
	if len(blocks) != 2 || blocks[1].ImageURL == nil {
		t.Fatalf("unexpected content blocks: %+v", blocks)
	}
	if !strings.HasPrefix(blocks[1].ImageURL.URL, "data:image/png;base64,") {
		t.Fatalf("unexpected data uri prefix: %.40s", blocks[1].ImageURL.URL)
	}
}

func TestTyphoonClient_PDFPageRequest(t *testing.T) {
	var captured capturedRequest
	srv := newTyphoonServer(t, http.StatusOK, completion("plain answer"), &captured)

	path := pdftest.WriteFile(t, "report.pdf", 3)
	result, err := NewTyphoonClient(0).Recognize(context.Background(), Request{
		Path:   path,
		Page:   2,
		Params: Params{Model: "typhoon-ocr", TaskType: TaskDefault, BaseURL: srv.URL, APIKey: "k"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "plain answer" {
		t.Fatalf("unexpected result %#v", result)
	}

	uri := captured.body.Messages[0].Content[1].ImageURL.URL
	const prefix = "data:application/pdf;base64,"
	if !strings.HasPrefix(uri, prefix) {
		t.Fatalf("unexpected data uri prefix: %.40s", uri)
	}
	page, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, prefix))
	if err != nil {
		t.Fatalf("decode page: %v", err)
	}
	out := filepath.Join(t.TempDir(), "sent.pdf")
	if err := os.WriteFile(out, page, 0o600); err != nil {
		t.Fatal(err)
	}
	if n, err := document.CountPages(out); err != nil || n != 1 {
		t.Fatalf("expected a one page pdf to be sent, got n=%d err=%v", n, err)
	}
}

func TestTyphoonClient_StructuredResult(t *testing.T) {
	srv := newTyphoonServer(t, http.StatusOK, completion(`{"blocks": [{"type": "table"}]}`), nil)

	result, err := NewTyphoonClient(0).Recognize(context.Background(), Request{
		Path:   writeImage(t),
		Params: Params{Model: "m", TaskType: TaskStructure, BaseURL: srv.URL, APIKey: "k"},
	})
	if err != nil {
		t.Fatal(err)
	}
	obj, ok := result.(map[string]any)
	if !ok {
		t.Fatalf("expected structured result, got %T", result)
	}
	if _, ok := obj["blocks"]; !ok {
		t.Fatalf("unexpected structure: %v", obj)
	}
}

func TestTyphoonClient_ErrorStatus(t *testing.T) {
	srv := newTyphoonServer(t, http.StatusUnauthorized, `{"error": {"message": "bad key"}}`, nil)

	_, err := NewTyphoonClient(0).Recognize(context.Background(), Request{
		Path:   writeImage(t),
		Params: Params{Model: "m", TaskType: TaskStructure, BaseURL: srv.URL, APIKey: "nope"},
	})
	if err == nil {
		t.Fatal("expected error for 401")
	}
	if !strings.Contains(err.Error(), "status 401") || !strings.Contains(err.Error(), "bad key") {
		t.Fatalf("unexpected error text: %v", err)
	}
}

func TestTyphoonClient_MalformedResponse(t *testing.T) {
	srv := newTyphoonServer(t, http.StatusOK, `not json`, nil)

	_, err := NewTyphoonClient(0).Recognize(context.Background(), Request{
		Path:   writeImage(t),
		Params: Params{Model: "m", TaskType: TaskStructure, BaseURL: srv.URL, APIKey: "k"},
	})
	if err == nil || !strings.Contains(err.Error(), "malformed response") {
		t.Fatalf("expected malformed response error, got %v", err)
	}

	empty := newTyphoonServer(t, http.StatusOK, `{"choices": []}`, nil)
	_, err = NewTyphoonClient(0).Recognize(context.Background(), Request{
		Path:   writeImage(t),
		Params: Params{Model: "m", TaskType: TaskStructure, BaseURL: empty.URL, APIKey: "k"},
	})
	if err == nil || !strings.Contains(err.Error(), "no choices") {
		t.Fatalf("expected no choices error, got %v", err)
	}
}

func TestTyphoonClient_UnknownTaskTypeMakesNoCall(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	_, err := NewTyphoonClient(0).Recognize(context.Background(), Request{
		Path:   writeImage(t),
		Params: Params{Model: "m", TaskType: "poetry", BaseURL: srv.URL, APIKey: "k"},
	})
	if err == nil {
		t.Fatal("expected error for unknown task type")
	}
	if called {
		t.Fatal("no request should be sent for an unknown task type")
	}
}

func TestDecodeContent(t *testing.T) {
	if got := DecodeContent("just text"); got != "just text" {
		t.Errorf("unexpected %#v", got)
	}
	if got := DecodeContent("```json\n{\"natural_text\": \"fenced\"}\n```"); got != "fenced" {
		t.Errorf("expected fenced envelope to unwrap, got %#v", got)
	}
	if got := DecodeContent("{broken"); got != "{broken" {
		t.Errorf("expected broken json to pass through, got %#v", got)
	}
	if got, ok := DecodeContent(`[1, 2]`).([]any); !ok || len(got) != 2 {
		t.Errorf("expected array, got %#v", got)
	}
}

func TestCheckTyphoonURL(t *testing.T) {
	if err := CheckTyphoonURL(DefaultBaseURL); err != nil {
		t.Fatalf("default base url should be valid: %v", err)
	}
	for _, bad := range []string{"", "api.opentyphoon.ai/v1", "ftp://host/v1", "://"} {
		if err := CheckTyphoonURL(bad); err == nil {
			t.Errorf("expected %q to be rejected", bad)
		}
	}
}
