package document

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// StagedFile is a transient on-disk copy of one upload.
type StagedFile struct {
	Path string
	Ext  string
}

// Stage copies r into a new uniquely named file under dir (the OS temp dir
// when dir is empty). The file keeps the extension of filename so that
// downstream consumers can infer its type. Callers must defer Cleanup.
func Stage(r io.Reader, filename, dir string) (*StagedFile, error) {
	ext := extensionOf(filename)
	tmp, err := os.CreateTemp(dir, "ocr-upload-*"+ext)
	if err != nil {
		return nil, fmt.Errorf("failed to create staging file: %w", err)
	}
	staged := &StagedFile{Path: tmp.Name(), Ext: ext}

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		staged.Cleanup()
		return nil, fmt.Errorf("failed to write staging file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		staged.Cleanup()
		return nil, fmt.Errorf("failed to finalize staging file: %w", err)
	}

	if abs, err := filepath.Abs(staged.Path); err == nil {
		staged.Path = abs
	}
	return staged, nil
}

// Cleanup removes the staged file. Errors are ignored and repeated calls
// are harmless.
func (s *StagedFile) Cleanup() {
	if s == nil || s.Path == "" {
		return
	}
	_ = os.Remove(s.Path)
}

// MIMEType reports the media type used when shipping raw file bytes to a
// remote service: the extension mapping when known, otherwise a sniff of
// the payload.
func MIMEType(path string, data []byte) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); t != "" {
		if mediaType, _, err := mime.ParseMediaType(t); err == nil {
			return mediaType
		}
		return t
	}
	t := http.DetectContentType(data)
	if mediaType, _, err := mime.ParseMediaType(t); err == nil {
		return mediaType
	}
	return t
}

// extensionOf mirrors filepath.Ext on the base name, dropping characters
// that os.CreateTemp would treat specially.
func extensionOf(filename string) string {
	if filename == "" {
		return ""
	}
	ext := filepath.Ext(filepath.Base(filename))
	ext = strings.ReplaceAll(ext, "*", "")
	if ext == "." {
		return ""
	}
	return ext
}
