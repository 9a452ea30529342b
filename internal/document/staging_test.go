package document

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStage_PreservesExtensionAndContent(t *testing.T) {
	dir := t.TempDir()

	staged, err := Stage(strings.NewReader("hello"), "scan.png", dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer staged.Cleanup()

	if staged.Ext != ".png" {
		t.Fatalf("expected .png extension, got %q", staged.Ext)
	}
	if !strings.HasSuffix(staged.Path, ".png") {
		t.Fatalf("expected staged path to keep extension, got %s", staged.Path)
	}
	if !filepath.IsAbs(staged.Path) {
		t.Fatalf("expected absolute path, got %s", staged.Path)
	}
	data, err := os.ReadFile(staged.Path)
	if err != nil {
		t.Fatalf("read staged file: %v", err)
	}
	if string(data) != "hello" {
		t.Fatalf("unexpected staged content: %q", data)
	}
}

func TestStage_UniquePaths(t *testing.T) {
	dir := t.TempDir()

	a, err := Stage(strings.NewReader("a"), "same.pdf", dir)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Cleanup()
	b, err := Stage(strings.NewReader("b"), "same.pdf", dir)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Cleanup()

	if a.Path == b.Path {
		t.Fatalf("expected unique staged paths, both were %s", a.Path)
	}
}

func TestStage_NoFilename(t *testing.T) {
	staged, err := Stage(strings.NewReader("x"), "", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer staged.Cleanup()
	if staged.Ext != "" {
		t.Fatalf("expected empty extension, got %q", staged.Ext)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestStage_RemovesFileOnCopyFailure(t *testing.T) {
	dir := t.TempDir()

	if _, err := Stage(failingReader{}, "broken.pdf", dir); err == nil {
		t.Fatal("expected error from failing reader")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected staging dir to be empty, found %d entries", len(entries))
	}
}

func TestStagedFile_CleanupIsIdempotent(t *testing.T) {
	staged, err := Stage(strings.NewReader("x"), "a.jpg", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	staged.Cleanup()
	staged.Cleanup()

	if _, err := os.Stat(staged.Path); !os.IsNotExist(err) {
		t.Fatalf("expected staged file to be removed, got err=%v", err)
	}

	var nilFile *StagedFile
	nilFile.Cleanup()
}

func TestMIMEType(t *testing.T) {
	if got := MIMEType("/tmp/x.png", nil); got != "image/png" {
		t.Errorf("expected image/png, got %s", got)
	}
	if got := MIMEType("/tmp/x.PDF", nil); got != "application/pdf" {
		t.Errorf("expected application/pdf, got %s", got)
	}
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'}
	if got := MIMEType("/tmp/noext", jpeg); got != "image/jpeg" {
		t.Errorf("expected sniffed image/jpeg, got %s", got)
	}
}
