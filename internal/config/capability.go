package config

import (
	"context"
	"log/slog"

	"github.com/Lllllllleong/docsocr/internal/gcp"
	"github.com/Lllllllleong/docsocr/internal/ocr"
)

// BuildCapability loads the configured OCR provider. A failed load is
// recorded on the returned Capability instead of aborting startup so that
// the health check can report it.
func BuildCapability(ctx context.Context, cfg *Config) ocr.Capability {
	switch cfg.Provider {
	case ProviderVertex:
		capability := ocr.Capability{Name: gcp.CapabilityVertex}
		recognizer, err := gcp.NewVertexRecognizer(ctx, cfg.ProjectID, cfg.VertexAIRegion, cfg.VertexOCRModel)
		if err != nil {
			slog.Error("Vertex OCR capability failed to load.", "error", err)
			capability.Err = err
			return capability
		}
		capability.Recognizer = recognizer
		return capability
	default:
		capability := ocr.Capability{Name: ocr.CapabilityTyphoon, NeedsAPIKey: true}
		if err := ocr.CheckTyphoonURL(cfg.BaseURL); err != nil {
			slog.Error("Typhoon OCR capability failed to load.", "error", err)
			capability.Err = err
			return capability
		}
		capability.Recognizer = ocr.NewTyphoonClient(cfg.RequestTimeout)
		return capability
	}
}
