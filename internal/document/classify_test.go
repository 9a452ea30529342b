package document

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		expected    Kind
	}{
		{name: "pdf extension", filename: "report.pdf", contentType: "", expected: KindPDF},
		{name: "upper case extension", filename: "REPORT.PDF", contentType: "application/octet-stream", expected: KindPDF},
		{name: "pdf content type", filename: "upload", contentType: "application/pdf", expected: KindPDF},
		{name: "mixed case content type", filename: "", contentType: "Application/PDF", expected: KindPDF},
		{name: "png image", filename: "scan.png", contentType: "image/png", expected: KindImage},
		{name: "missing metadata", filename: "", contentType: "", expected: KindImage},
		{name: "content type with params is not exact", filename: "doc", contentType: "application/pdf; charset=binary", expected: KindImage},
		{name: "pdf in the middle of the name", filename: "notes.pdf.png", contentType: "image/png", expected: KindImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.filename, tt.contentType); got != tt.expected {
				t.Errorf("Classify(%q, %q) = %v, want %v", tt.filename, tt.contentType, got, tt.expected)
			}
		})
	}
}
