package recovery

import (
	"net/http"
	"strings"
)

// Kind classifies a recovery failure.
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindValidation    Kind = "validation"
	KindTransport     Kind = "transport"
	KindQuality       Kind = "quality"
)

const errorPrefix = "URL extraction failed: "

// Error is returned by every failed recovery. Its message always starts
// with "URL extraction failed: ".
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string { return errorPrefix + e.Detail }

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus maps the kind to the status an API response should carry.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindConfiguration:
		return http.StatusServiceUnavailable
	case KindValidation:
		return http.StatusBadRequest
	case KindTransport:
		return http.StatusBadGateway
	case KindQuality:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func bullets(items ...string) string {
	var b strings.Builder
	for i, it := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("• ")
		b.WriteString(it)
	}
	return b.String()
}

var fetchCauses = bullets(
	"CORS restrictions from the platform",
	"Private/protected conversation link",
	"Network connectivity issues",
	"Platform blocking automated requests",
)

var extractionCauses = bullets(
	"Unsupported page structure",
	"Dynamic content loading",
	"API rate limits or errors",
)

var qualityCauses = bullets(
	"The page doesn't contain a readable conversation",
	"The conversation is loaded dynamically with JavaScript",
	"The page structure is not recognized",
	"The link may be private or require authentication",
)

const (
	msgNotConfigured = "URL extraction requires a configured language model for AI-powered content parsing. " +
		"Please configure an API key or paste the conversation text directly."
	msgFetchHint      = "Try copying and pasting the conversation text directly instead."
	msgExtractionHint = "Please copy and paste the conversation text directly instead."
	msgQualityHint    = "Please try copying and pasting the conversation text directly."
	msgPlatformHint   = "Please use a shareable link from one of these platforms, or paste the conversation text directly."
)
