// Package document stages uploaded documents on local disk and inspects
// them: PDF-vs-image classification, page counting and single page
// extraction. Nothing here renders a page.
package document

import "strings"

// MIMETypePDF is the declared content type that marks an upload as a PDF.
const MIMETypePDF = "application/pdf"

// Kind is the classification of an uploaded document.
type Kind int

const (
	// KindImage is a single page image. It is also the fallback when the
	// upload carries no usable metadata.
	KindImage Kind = iota
	// KindPDF is a (possibly multi-page) PDF document.
	KindPDF
)

func (k Kind) String() string {
	if k == KindPDF {
		return "pdf"
	}
	return "image"
}

// Classify decides between PDF and image from the declared filename and
// content type only. The file contents are never sniffed.
func Classify(filename, contentType string) Kind {
	name := strings.ToLower(filename)
	ctype := strings.ToLower(contentType)
	if strings.HasSuffix(name, ".pdf") || ctype == MIMETypePDF {
		return KindPDF
	}
	return KindImage
}
