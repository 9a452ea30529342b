// Package ocr is the boundary to the remote OCR service. One Recognize call
// covers one PDF page or one whole image.
package ocr

import "context"

// Task types understood by the recognizers.
const (
	TaskDefault   = "default"
	TaskStructure = "structure"
)

// Params are the per-request options shared by every page of a document.
type Params struct {
	Model    string
	TaskType string
	BaseURL  string
	APIKey   string
}

// Request describes a single adapter call.
type Request struct {
	// Path is the staged file on local disk.
	Path string
	// Page is the 1-based PDF page to recognize, or 0 for a single image.
	Page   int
	Params Params
}

// Recognizer performs OCR on one page or image. The result is either a
// string or a decoded JSON structure (maps, slices, scalars).
type Recognizer interface {
	Recognize(ctx context.Context, req Request) (any, error)
}

// Capability is the OCR backend selected at startup together with the
// outcome of probing it.
type Capability struct {
	// Name is reported by the health check as "<Name>_imported".
	Name        string
	Recognizer  Recognizer
	NeedsAPIKey bool
	Err         error
}

// Loaded reports whether the backend can serve requests.
func (c Capability) Loaded() bool {
	return c.Err == nil && c.Recognizer != nil
}
