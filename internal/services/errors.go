package services

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies a failed OCR request.
type ErrorCode string

const (
	ErrorCapabilityUnavailable ErrorCode = "CAPABILITY_UNAVAILABLE"
	ErrorDependencyUnavailable ErrorCode = "DEPENDENCY_UNAVAILABLE"
	ErrorMissingCredential     ErrorCode = "MISSING_CREDENTIAL"
	ErrorInvalidPageNumber     ErrorCode = "INVALID_PAGE_NUMBER"
	ErrorDocumentParse         ErrorCode = "DOCUMENT_PARSE_ERROR"
	ErrorRemoteOCRFailure      ErrorCode = "REMOTE_OCR_FAILURE"
	ErrorBadRequest            ErrorCode = "BAD_REQUEST"
)

// OCRError is the error surface of OCRFunction.Process. Message is what the
// caller sees in the "detail" field.
type OCRError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *OCRError) Error() string {
	return e.Message
}

func (e *OCRError) Unwrap() error {
	return e.Cause
}

// Status maps the error code to an HTTP status.
func (e *OCRError) Status() int {
	switch e.Code {
	case ErrorInvalidPageNumber, ErrorMissingCredential, ErrorBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func NewCapabilityUnavailableError(name string, cause error) *OCRError {
	msg := fmt.Sprintf("%s unavailable", name)
	if cause != nil {
		msg = fmt.Sprintf("%s unavailable: %v", name, cause)
	}
	return &OCRError{Code: ErrorCapabilityUnavailable, Message: msg, Cause: cause}
}

// NewDependencyUnavailableError is raised when a helper the request needs
// is not configured.
func NewDependencyUnavailableError(name string, cause error) *OCRError {
	msg := fmt.Sprintf("%s is not available", name)
	if cause != nil {
		msg = fmt.Sprintf("%s is not available: %v", name, cause)
	}
	return &OCRError{Code: ErrorDependencyUnavailable, Message: msg, Cause: cause}
}

func NewMissingCredentialError() *OCRError {
	return &OCRError{Code: ErrorMissingCredential, Message: "Missing OPENTYPHOON_API_KEY"}
}

func NewInvalidPageNumberError(total int, cause error) *OCRError {
	return &OCRError{
		Code:    ErrorInvalidPageNumber,
		Message: fmt.Sprintf("page_num must be between 1 and %d", total),
		Cause:   cause,
	}
}

func NewDocumentParseError(cause error) *OCRError {
	return &OCRError{Code: ErrorDocumentParse, Message: cause.Error(), Cause: cause}
}

func NewRemoteOCRError(cause error) *OCRError {
	return &OCRError{Code: ErrorRemoteOCRFailure, Message: cause.Error(), Cause: cause}
}

func NewBadRequestError(message string, cause error) *OCRError {
	return &OCRError{Code: ErrorBadRequest, Message: message, Cause: cause}
}

// HTTPStatus returns the status code for err. Errors that are not an
// *OCRError are treated as internal failures.
func HTTPStatus(err error) int {
	var oe *OCRError
	if errors.As(err, &oe) {
		return oe.Status()
	}
	return http.StatusInternalServerError
}

// Detail returns the message reported to the caller for err.
func Detail(err error) string {
	var oe *OCRError
	if errors.As(err, &oe) {
		return oe.Message
	}
	return err.Error()
}
