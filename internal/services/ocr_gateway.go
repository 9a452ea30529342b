package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Lllllllleong/docsocr/internal/document"
	"github.com/Lllllllleong/docsocr/internal/gcp"
	"github.com/Lllllllleong/docsocr/internal/models"
	"github.com/Lllllllleong/docsocr/internal/ocr"
	"golang.org/x/sync/errgroup"
)

const pageSeparator = "\n\n---\n\n"

// OCRConfig holds the request independent settings of the gateway.
type OCRConfig struct {
	// APIKey is the server side credential used when a request has none.
	APIKey string
	// UploadDir is where uploads are staged. Empty means the OS temp dir.
	UploadDir string
	// PageConcurrency above 1 recognizes pages in a bounded pool.
	PageConcurrency int
	// RequestTimeout bounds each recognizer call. Zero disables it.
	RequestTimeout time.Duration
}

// ObjectSource stages a document that lives in object storage.
type ObjectSource interface {
	Download(ctx context.Context, uri, dir string) (*document.StagedFile, string, error)
}

// OCRFunction turns one uploaded document into OCR text.
type OCRFunction struct {
	capability ocr.Capability
	source     ObjectSource
	config     OCRConfig
}

// NewOCRFunction wires the gateway. source may be nil, in which case
// requests referencing object storage are rejected.
func NewOCRFunction(config OCRConfig, capability ocr.Capability, source ObjectSource) *OCRFunction {
	if config.PageConcurrency < 1 {
		config.PageConcurrency = 1
	}
	slog.Info("OCR gateway initialized.",
		"capability", capability.Name,
		"loaded", capability.Loaded(),
		"pageConcurrency", config.PageConcurrency,
		"gcsSource", source != nil,
	)
	return &OCRFunction{capability: capability, source: source, config: config}
}

// Process stages the upload, recognizes each selected page in ascending
// order and assembles the response. Any page failure fails the request.
// The staged file is removed on every path.
func (f *OCRFunction) Process(ctx context.Context, req *models.OCRRequest) (*models.OCRResponse, error) {
	start := time.Now()
	logCtx := slog.With("requestId", req.RequestID, "filename", req.Upload.Filename)

	if !f.capability.Loaded() {
		logCtx.Error("OCR capability is not loaded.", "capability", f.capability.Name, "error", f.capability.Err)
		return nil, NewCapabilityUnavailableError(f.capability.Name, f.capability.Err)
	}

	apiKey := req.APIKey
	if apiKey == "" {
		apiKey = f.config.APIKey
	}
	if apiKey == "" && f.capability.NeedsAPIKey {
		logCtx.Warn("Rejected request without credential.")
		return nil, NewMissingCredentialError()
	}

	staged, contentType, err := f.stage(ctx, req.Upload)
	if err != nil {
		logCtx.Error("Failed to stage upload.", "error", err)
		return nil, err
	}
	defer staged.Cleanup()

	params := ocr.Params{
		Model:    req.Model,
		TaskType: req.TaskType,
		BaseURL:  req.BaseURL,
		APIKey:   apiKey,
	}
	kind := document.Classify(req.Upload.Filename, contentType)
	logCtx = logCtx.With("kind", kind.String(), "model", params.Model, "taskType", params.TaskType)
	logCtx.Info("Upload staged.", "path", staged.Path)

	if kind == document.KindImage {
		return f.processImage(ctx, logCtx, staged, params, start)
	}
	return f.processPDF(ctx, logCtx, staged, params, req.PageNum, start)
}

func (f *OCRFunction) stage(ctx context.Context, upload models.Upload) (*document.StagedFile, string, error) {
	if upload.Body != nil {
		staged, err := document.Stage(upload.Body, upload.Filename, f.config.UploadDir)
		if err != nil {
			return nil, "", err
		}
		return staged, upload.ContentType, nil
	}
	if upload.GCSURI == "" {
		return nil, "", NewBadRequestError("file is required", nil)
	}
	if f.source == nil {
		return nil, "", NewDependencyUnavailableError("gcs source", nil)
	}

	staged, contentType, err := f.source.Download(ctx, upload.GCSURI, f.config.UploadDir)
	switch {
	case errors.Is(err, gcp.ErrObjectNotFound):
		return nil, "", NewBadRequestError("object not found", err)
	case errors.Is(err, gcp.ErrInvalidGCSURI):
		return nil, "", NewBadRequestError(err.Error(), err)
	case err != nil:
		return nil, "", err
	}
	if upload.ContentType == "" {
		return staged, contentType, nil
	}
	return staged, upload.ContentType, nil
}

func (f *OCRFunction) processImage(ctx context.Context, logCtx *slog.Logger, staged *document.StagedFile, params ocr.Params, start time.Time) (*models.OCRResponse, error) {
	result, _, err := f.recognize(ctx, ocr.Request{Path: staged.Path, Params: params})
	if err != nil {
		logCtx.Error("Image recognition failed.", "error", err)
		return nil, NewRemoteOCRError(err)
	}

	elapsed := time.Since(start).Seconds()
	logCtx.Info("Image recognized.", "elapsedSeconds", elapsed)
	return &models.OCRResponse{Image: &models.ImageResponse{
		Text:           ocr.AsText(result),
		Result:         result,
		ElapsedSeconds: elapsed,
		Model:          params.Model,
		TaskType:       params.TaskType,
	}}, nil
}

func (f *OCRFunction) processPDF(ctx context.Context, logCtx *slog.Logger, staged *document.StagedFile, params ocr.Params, pageNum *int, start time.Time) (*models.OCRResponse, error) {
	total, err := document.CountPages(staged.Path)
	if err != nil {
		logCtx.Error("Failed to count pages.", "error", err)
		return nil, NewDocumentParseError(err)
	}
	pages, err := document.PageRange(total, pageNum)
	if err != nil {
		logCtx.Warn("Requested page is out of range.", "pageCount", total, "pageNum", *pageNum)
		return nil, NewInvalidPageNumberError(total, err)
	}
	logCtx = logCtx.With("pageCount", total)
	logCtx.Info("Starting page recognition.", "pagesSelected", len(pages))

	var results []models.PageResult
	if f.config.PageConcurrency > 1 && len(pages) > 1 {
		results, err = f.recognizePagesConcurrently(ctx, logCtx, staged.Path, pages, params)
	} else {
		results, err = f.recognizePagesSerially(ctx, logCtx, staged.Path, pages, params)
	}
	if err != nil {
		return nil, NewRemoteOCRError(err)
	}

	elapsed := time.Since(start).Seconds()
	logCtx.Info("Document recognized.", "pagesProcessed", len(results), "elapsedSeconds", elapsed)
	return &models.OCRResponse{Document: &models.DocumentResponse{
		Text:           assembleDocumentText(results),
		PagesTotal:     total,
		PagesProcessed: len(results),
		PageResults:    results,
		ElapsedSeconds: elapsed,
		Model:          params.Model,
		TaskType:       params.TaskType,
	}}, nil
}

func (f *OCRFunction) recognizePagesSerially(ctx context.Context, logCtx *slog.Logger, path string, pages []int, params ocr.Params) ([]models.PageResult, error) {
	results := make([]models.PageResult, 0, len(pages))
	for _, page := range pages {
		result, err := f.recognizePage(ctx, logCtx, path, page, params)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

// recognizePagesConcurrently keeps at most PageConcurrency calls in flight.
// Results are stored by index so the output stays in page order.
func (f *OCRFunction) recognizePagesConcurrently(ctx context.Context, logCtx *slog.Logger, path string, pages []int, params ocr.Params) ([]models.PageResult, error) {
	results := make([]models.PageResult, len(pages))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(f.config.PageConcurrency)

	for i, page := range pages {
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, err := f.recognizePage(gctx, logCtx, path, page, params)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (f *OCRFunction) recognizePage(ctx context.Context, logCtx *slog.Logger, path string, page int, params ocr.Params) (models.PageResult, error) {
	result, elapsed, err := f.recognize(ctx, ocr.Request{Path: path, Page: page, Params: params})
	if err != nil {
		logCtx.Error("Page recognition failed.", "page", page, "error", err)
		return models.PageResult{}, err
	}
	logCtx.Info("Page recognized.", "page", page, "elapsedSeconds", elapsed)
	return models.PageResult{
		PageNum:        page,
		Text:           strings.TrimSpace(ocr.AsText(result)),
		Result:         result,
		ElapsedSeconds: elapsed,
	}, nil
}

// recognize makes one adapter call under the configured timeout and
// reports its wall time in seconds.
func (f *OCRFunction) recognize(ctx context.Context, req ocr.Request) (any, float64, error) {
	if f.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.config.RequestTimeout)
		defer cancel()
	}
	started := time.Now()
	result, err := f.capability.Recognizer.Recognize(ctx, req)
	return result, time.Since(started).Seconds(), err
}

func assembleDocumentText(results []models.PageResult) string {
	blocks := make([]string, 0, len(results))
	for _, r := range results {
		blocks = append(blocks, fmt.Sprintf("## Page %d\n\n%s", r.PageNum, r.Text))
	}
	return strings.TrimSpace(strings.Join(blocks, pageSeparator)) + "\n"
}
