package models

// These structs define the JSON payloads exchanged with callers of the
// OCR gateway over HTTP.

// PageResult is the OCR outcome for a single PDF page.
type PageResult struct {
	PageNum        int     `json:"page_num"`
	Text           string  `json:"text"`
	Result         any     `json:"result"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

// DocumentResponse is returned for PDF uploads.
type DocumentResponse struct {
	Text           string       `json:"text"`
	PagesTotal     int          `json:"pages_total"`
	PagesProcessed int          `json:"pages_processed"`
	PageResults    []PageResult `json:"page_results"`
	ElapsedSeconds float64      `json:"elapsed_seconds"`
	Model          string       `json:"model"`
	TaskType       string       `json:"task_type"`
}

// ImageResponse is returned for single image uploads. It carries no page fields.
type ImageResponse struct {
	Text           string  `json:"text"`
	Result         any     `json:"result"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	Model          string  `json:"model"`
	TaskType       string  `json:"task_type"`
}

// OCRResponse holds exactly one of Document or Image.
type OCRResponse struct {
	Document *DocumentResponse
	Image    *ImageResponse
}

// Payload returns the populated response body.
func (r *OCRResponse) Payload() any {
	if r.Document != nil {
		return r.Document
	}
	return r.Image
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
