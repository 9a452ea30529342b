package gcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/docsocr/internal/document"
	"google.golang.org/api/googleapi"
)

var (
	// ErrInvalidGCSURI is returned for references that are not gs://bucket/object.
	ErrInvalidGCSURI = errors.New("invalid gcs uri")
	// ErrObjectNotFound is returned when the bucket or object does not exist.
	ErrObjectNotFound = errors.New("object not found")
)

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// ParseGCSURI splits gs://bucket/path/to/object into bucket and object name.
func ParseGCSURI(uri string) (bucket, object string, err error) {
	rest, ok := strings.CutPrefix(uri, "gs://")
	if !ok {
		return "", "", fmt.Errorf("%w: %q must start with gs://", ErrInvalidGCSURI, uri)
	}
	bucket, object, _ = strings.Cut(rest, "/")
	if bucket == "" || object == "" || strings.HasSuffix(object, "/") {
		return "", "", fmt.Errorf("%w: %q must name a bucket and an object", ErrInvalidGCSURI, uri)
	}
	return bucket, object, nil
}

// GCSSource stages documents stored in Cloud Storage.
type GCSSource struct {
	client *storage.Client
}

// NewGCSSource creates a storage client using application default credentials.
func NewGCSSource(ctx context.Context) (*GCSSource, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSSource{client: client}, nil
}

// Download streams the object at uri into a staged file under dir and
// returns it together with the object's content type.
func (s *GCSSource) Download(ctx context.Context, uri, dir string) (*document.StagedFile, string, error) {
	bucket, object, err := ParseGCSURI(uri)
	if err != nil {
		return nil, "", err
	}

	gcsReader, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, "", fmt.Errorf("%w: %s", ErrObjectNotFound, uri)
		}
		return nil, "", fmt.Errorf("failed to get GCS object reader for %s: %w", uri, err)
	}
	defer gcsReader.Close()

	staged, err := document.Stage(gcsReader, path.Base(object), dir)
	if err != nil {
		return nil, "", fmt.Errorf("failed to copy GCS object to local file: %w", err)
	}
	return staged, gcsReader.Attrs.ContentType, nil
}

// Close releases the storage client.
func (s *GCSSource) Close() error {
	return s.client.Close()
}

func isNotFound(err error) bool {
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return true
	}
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}
