package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Lllllllleong/docsocr/internal/models"
	"github.com/Lllllllleong/docsocr/internal/ocr"
	"github.com/Lllllllleong/docsocr/internal/server/middleware"
	"github.com/Lllllllleong/docsocr/internal/services"
	"github.com/gin-gonic/gin"
)

// multipartMemory is how much of a multipart body is kept in memory before
// parts spill to temporary files.
const multipartMemory = 32 << 20

// OCRService defines the behavior consumed by the handler.
type OCRService interface {
	Process(ctx context.Context, req *models.OCRRequest) (*models.OCRResponse, error)
}

// OCRHandler manages OCR HTTP interactions.
type OCRHandler struct {
	service        OCRService
	baseURL        string
	maxUploadBytes int64
}

// NewOCRHandler builds the handler. baseURL is used when a request does not
// name an endpoint and maxUploadBytes caps the request body.
func NewOCRHandler(svc OCRService, baseURL string, maxUploadBytes int64) *OCRHandler {
	if baseURL == "" {
		baseURL = ocr.DefaultBaseURL
	}
	return &OCRHandler{service: svc, baseURL: baseURL, maxUploadBytes: maxUploadBytes}
}

// HandleOCR processes an uploaded image or PDF.
func (h *OCRHandler) HandleOCR(c *gin.Context) {
	gcsURI := param(c, "gcs_uri")

	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		// A request naming a stored object may come without a body.
		if !errors.Is(err, http.ErrNotMultipart) || gcsURI == "" {
			abortWithDetail(c, http.StatusBadRequest, "invalid multipart payload")
			return
		}
	}
	if c.Request.MultipartForm != nil {
		defer c.Request.MultipartForm.RemoveAll()
	}
	if gcsURI == "" {
		gcsURI = param(c, "gcs_uri")
	}

	pageNum, err := parsePageNum(param(c, "page_num"))
	if err != nil {
		abortWithDetail(c, http.StatusBadRequest, "page_num must be an integer")
		return
	}

	req := &models.OCRRequest{
		RequestID: c.GetString(middleware.RequestIDKey),
		Model:     withDefault(param(c, "model"), ocr.DefaultModel),
		TaskType:  withDefault(param(c, "task_type"), ocr.TaskStructure),
		BaseURL:   withDefault(param(c, "base_url"), h.baseURL),
		APIKey:    param(c, "api_key"),
		PageNum:   pageNum,
	}

	file, header, err := c.Request.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		req.Upload = models.Upload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Body:        file,
		}
	case gcsURI != "":
		req.Upload = models.Upload{Filename: gcsURI, GCSURI: gcsURI}
	default:
		abortWithDetail(c, http.StatusBadRequest, "missing file")
		return
	}

	resp, err := h.service.Process(c.Request.Context(), req)
	if err != nil {
		status := services.HTTPStatus(err)
		if status >= http.StatusInternalServerError {
			slog.Error("ocr error", "requestId", req.RequestID, "error", err)
		}
		abortWithDetail(c, status, services.Detail(err))
		return
	}

	c.JSON(http.StatusOK, resp.Payload())
}

// param reads a request parameter from the query string, falling back to
// the form body.
func param(c *gin.Context, key string) string {
	if v, ok := c.GetQuery(key); ok {
		return strings.TrimSpace(v)
	}
	if c.Request.MultipartForm != nil {
		return strings.TrimSpace(c.PostForm(key))
	}
	return ""
}

func parsePageNum(raw string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func withDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func abortWithDetail(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{Detail: detail})
}
