package router

import (
	"github.com/Lllllllleong/docsocr/internal/server/middleware"
	"github.com/gin-gonic/gin"
)

// OCRHandler defines the interface for the OCR handler.
type OCRHandler interface {
	HandleOCR(c *gin.Context)
}

// New wires up handlers to the Gin engine. CORS is only installed when
// origins are configured.
func New(corsOrigins []string, health gin.HandlerFunc, ocrHandler OCRHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())
	if len(corsOrigins) > 0 {
		r.Use(middleware.CORS(corsOrigins))
	}

	r.GET("/healthz", health)

	v1 := r.Group("/v1")
	{
		v1.POST("/ocr", ocrHandler.HandleOCR)
	}

	return r
}
