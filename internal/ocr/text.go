package ocr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// escapedNewline is the two-character sequence the upstream service
// sometimes emits instead of a line break.
const escapedNewline = `\n`

// AsText turns a raw OCR result into display text. Strings pass through,
// anything else is rendered as indented JSON. Literal backslash-n pairs are
// then replaced with real newlines.
func AsText(result any) string {
	var text string
	switch v := result.(type) {
	case string:
		text = v
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			text = fmt.Sprint(v)
		} else {
			text = strings.TrimSuffix(buf.String(), "\n")
		}
	}

	if strings.Contains(text, escapedNewline) {
		text = strings.ReplaceAll(text, escapedNewline, "\n")
	}
	return text
}
