package models

import "io"

// Upload is a document received in a single request. Either Body or GCSURI
// is set; Body takes precedence.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
	GCSURI      string
}

// OCRRequest carries everything the gateway needs to process one upload.
type OCRRequest struct {
	RequestID string
	Upload    Upload
	Model     string
	TaskType  string
	BaseURL   string
	APIKey    string
	// PageNum is nil when the caller did not ask for a specific page.
	PageNum *int
}
