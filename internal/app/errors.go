package app

import (
	"errors"

	"oned/internal/export"
	"oned/internal/source"
	"oned/internal/transcribe"
	"oned/pkg/store"
)

// Application-level sentinels. Stage packages own their failure modes; this
// file maps each to a stable machine-readable code for the outer surface.
var (
	ErrTranscriptTooShort = errors.New("transcription must be at least 10 characters")
	ErrUnknownTheme       = errors.New("unknown theme")
	ErrMissingOwner       = errors.New("owner id is required")
	ErrExportValidation   = errors.New("export deck failed validation")
)

// Code values are stable across releases; clients switch on them.
const (
	CodeUnsupportedMediaType     = "UNSUPPORTED_MEDIA_TYPE"
	CodePayloadTooLarge          = "PAYLOAD_TOO_LARGE"
	CodeSourceUnavailable        = "SOURCE_UNAVAILABLE"
	CodeTranscriptionUnavailable = "TRANSCRIPTION_SERVICE_UNAVAILABLE"
	CodeTranscriptionTimeout     = "TRANSCRIPTION_TIMEOUT"
	CodeTranscriptionFailed      = "TRANSCRIPTION_FAILED"
	CodeTranscriptionTooShort    = "TRANSCRIPTION_TOO_SHORT"
	CodeNotFoundOrForbidden      = "NOT_FOUND"
	CodeExportValidationFailed   = "EXPORT_VALIDATION_FAILED"
	CodeRenderFailed             = "RENDER_FAILED"
	CodeUnknownTheme             = "UNKNOWN_THEME"
	CodeInvalidRequest           = "INVALID_REQUEST"
	CodeInternal                 = "INTERNAL"
)

// ErrorCode maps an error from any pipeline stage to its stable code.
// Unrecognized errors map to CodeInternal.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, source.ErrUnsupportedMediaType):
		return CodeUnsupportedMediaType
	case errors.Is(err, source.ErrPayloadTooLarge):
		return CodePayloadTooLarge
	case errors.Is(err, source.ErrSourceUnavailable):
		return CodeSourceUnavailable
	case errors.Is(err, transcribe.ErrServiceUnavailable):
		return CodeTranscriptionUnavailable
	case errors.Is(err, transcribe.ErrTimeout):
		return CodeTranscriptionTimeout
	case errors.Is(err, transcribe.ErrTooShort), errors.Is(err, ErrTranscriptTooShort):
		return CodeTranscriptionTooShort
	case errors.Is(err, transcribe.ErrFailed):
		return CodeTranscriptionFailed
	case errors.Is(err, store.ErrNotFound):
		return CodeNotFoundOrForbidden
	case errors.Is(err, ErrExportValidation):
		return CodeExportValidationFailed
	case errors.Is(err, export.ErrRenderFailed):
		return CodeRenderFailed
	case errors.Is(err, ErrUnknownTheme):
		return CodeUnknownTheme
	case errors.Is(err, ErrMissingOwner):
		return CodeInvalidRequest
	default:
		return CodeInternal
	}
}

// PublicMessage returns the client-safe message for an error. In dev mode
// the full error text is exposed; in production the stable code's generic
// message is used so raw backend payloads never leak.
func PublicMessage(err error, devMode bool) string {
	if devMode {
		return err.Error()
	}
	switch ErrorCode(err) {
	case CodeUnsupportedMediaType:
		return "unsupported media type"
	case CodePayloadTooLarge:
		return "uploaded file is too large"
	case CodeSourceUnavailable:
		return "audio source is unavailable"
	case CodeTranscriptionUnavailable:
		return "transcription service is unavailable"
	case CodeTranscriptionTimeout:
		return "transcription timed out"
	case CodeTranscriptionFailed:
		return "transcription failed"
	case CodeTranscriptionTooShort:
		return "transcription is too short to generate slides"
	case CodeNotFoundOrForbidden:
		return "presentation not found"
	case CodeExportValidationFailed:
		return "presentation cannot be exported"
	case CodeRenderFailed:
		return "export rendering failed"
	case CodeUnknownTheme:
		return "unknown theme"
	case CodeInvalidRequest:
		return "invalid request"
	default:
		return "internal error"
	}
}
