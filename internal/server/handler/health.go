package handler

import (
	"net/http"

	"github.com/Lllllllleong/docsocr/internal/ocr"
	"github.com/gin-gonic/gin"
)

// NewHealthHandler reports whether the OCR capability loaded at startup.
// The process itself is always reported as up.
func NewHealthHandler(capability ocr.Capability) gin.HandlerFunc {
	var errText any
	if capability.Err != nil {
		errText = capability.Err.Error()
	}
	body := gin.H{
		"ok":                          true,
		capability.Name + "_imported": capability.Loaded(),
		"error":                       errText,
	}
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, body)
	}
}
