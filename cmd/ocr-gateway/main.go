package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/docsocr/internal/config"
	"github.com/Lllllllleong/docsocr/internal/gcp"
	"github.com/Lllllllleong/docsocr/internal/server/handler"
	"github.com/Lllllllleong/docsocr/internal/server/router"
	"github.com/Lllllllleong/docsocr/internal/services"
	"github.com/gin-gonic/gin"
)

const functionName = "HandleOCR"

var (
	engine  *gin.Engine
	once    sync.Once
	initErr error
	// closers are the clients opened by newEngine.
	closers []io.Closer
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP(functionName, handleOCR)
}

// main serves the function locally. On Cloud Functions the platform
// provides its own entry point and only init runs.
func main() {
	if err := run(); err != nil {
		slog.Error("OCR gateway stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Serve the gin engine at "/" so its own routes apply.
	if _, ok := os.LookupEnv("FUNCTION_TARGET"); !ok {
		os.Setenv("FUNCTION_TARGET", functionName)
	}

	loadEngine()
	if initErr != nil {
		return fmt.Errorf("initialization failed: %w", initErr)
	}
	defer closeClients()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	port := gcp.GetEnv("PORT", "8080")
	slog.Info("Starting OCR gateway.", "port", port)
	errCh := make(chan error, 1)
	go func() {
		errCh <- funcframework.Start(port)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("funcframework.Start: %w", err)
	case <-ctx.Done():
		slog.Info("Shutdown signal received.")
		return nil
	}
}

// handleOCR is the HTTP entry point. Every path is routed by gin.
func handleOCR(w http.ResponseWriter, r *http.Request) {
	loadEngine()
	if initErr != nil {
		slog.Error("Critical: OCR gateway initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}
	engine.ServeHTTP(w, r)
}

func loadEngine() {
	once.Do(func() {
		engine, initErr = newEngine(context.Background())
	})
}

func newEngine(ctx context.Context) (*gin.Engine, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Mode == gin.DebugMode {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	capability := config.BuildCapability(ctx, cfg)
	if c, ok := capability.Recognizer.(io.Closer); ok {
		closers = append(closers, c)
	}

	var source services.ObjectSource
	if cfg.GCSSourceEnabled {
		gcsSource, err := gcp.NewGCSSource(ctx)
		if err != nil {
			return nil, err
		}
		source = gcsSource
		closers = append(closers, gcsSource)
	}

	svc := services.NewOCRFunction(services.OCRConfig{
		APIKey:          cfg.APIKey,
		UploadDir:       cfg.UploadDir,
		PageConcurrency: cfg.PageConcurrency,
		RequestTimeout:  cfg.RequestTimeout,
	}, capability, source)

	ocrHandler := handler.NewOCRHandler(svc, cfg.BaseURL, cfg.MaxUploadBytes)
	return router.New(cfg.CORSOrigins, handler.NewHealthHandler(capability), ocrHandler), nil
}

// closeClients releases every client opened by newEngine.
func closeClients() {
	for _, c := range closers {
		if err := c.Close(); err != nil {
			slog.Warn("Failed to close client", "error", err)
		}
	}
	closers = nil
}
