// Package apperr defines the closed set of classified application errors
// shared by all layers of the letters backend.
//
// Every expected failure in the system resolves to exactly one Kind, and each
// Kind fixes its own HTTP status and stable machine-readable code. Domain and
// service code return *Error values (or the sentinel/field-error helpers
// below); the HTTP layer owns formatting and never requires call sites to
// build response bodies themselves.
//
// Conventions:
//   - Codes are UPPER_SNAKE_CASE and stable across releases; clients branch
//     on them programmatically.
//   - Messages on classified errors are pre-vetted as safe to show to end
//     users. Unclassified failures are surfaced as KindInternal and their
//     real message is hidden outside development mode (see the handlers
//     package).
//   - Provider detail captured on KindAIService errors is diagnostic only
//     and must never appear in a response body.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind discriminates the closed set of classified failures. The zero value
// is KindInternal so that a forgotten classification still fails safe.
type Kind uint8

const (
	// KindInternal is an unclassified or unexpected failure (HTTP 500).
	KindInternal Kind = iota
	// KindValidation is a rejected write due to field-level rules (HTTP 400).
	KindValidation
	// KindNotFound is a missing resource (HTTP 404).
	KindNotFound
	// KindForbidden is an operation the caller may not perform (HTTP 403).
	KindForbidden
	// KindUnauthorized is a missing or invalid identity (HTTP 401).
	KindUnauthorized
	// KindAIService is an upstream reflection-service failure (HTTP 503).
	KindAIService
	// KindInvalidID is an identifier that could not be parsed (HTTP 400).
	KindInvalidID
	// KindDuplicate is a uniqueness-constraint conflict (HTTP 400).
	KindDuplicate
)

// Code returns the stable machine-readable code for the kind.
func (k Kind) Code() string {
	switch k {
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindNotFound:
		return "NOT_FOUND"
	case KindForbidden:
		return "FORBIDDEN"
	case KindUnauthorized:
		return "UNAUTHORIZED"
	case KindAIService:
		return "AI_SERVICE_ERROR"
	case KindInvalidID:
		return "INVALID_ID"
	case KindDuplicate:
		return "DUPLICATE_ERROR"
	default:
		return "INTERNAL_ERROR"
	}
}

// HTTPStatus returns the HTTP status code fixed by the kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindInvalidID, KindDuplicate:
		return 400
	case KindNotFound:
		return 404
	case KindForbidden:
		return 403
	case KindUnauthorized:
		return 401
	case KindAIService:
		return 503
	default:
		return 500
	}
}

// ProviderDetail captures the upstream status and message attached to an
// AI-service failure. It exists for logs and diagnostics only.
type ProviderDetail struct {
	Status  int
	Message string
}

// upstreamError is implemented by clients able to report the provider
// response that caused a failure (see the ai package).
type upstreamError interface {
	ProviderStatus() int
	ProviderMessage() string
}

// Error is a classified application error. It satisfies the error interface
// and carries everything the HTTP layer needs to build a response.
type Error struct {
	Kind    Kind
	Message string
	// Fields holds per-field messages for KindValidation and KindDuplicate.
	Fields map[string]string
	// Provider is set on KindAIService when the upstream detail was
	// recoverable. Never rendered to clients.
	Provider *ProviderDetail

	cause error
}

// Error returns the user-safe message.
func (e *Error) Error() string { return e.Message }

// Unwrap exposes the underlying cause for errors.Is/errors.As chains.
func (e *Error) Unwrap() error { return e.cause }

// New constructs a classified error of an arbitrary kind. Prefer the
// kind-specific constructors below.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Validation builds a KindValidation error with optional per-field messages.
func Validation(msg string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

// NotFound builds a KindNotFound error.
func NotFound(msg string) *Error { return New(KindNotFound, msg) }

// Forbidden builds a KindForbidden error.
func Forbidden(msg string) *Error { return New(KindForbidden, msg) }

// Unauthorized builds a KindUnauthorized error.
func Unauthorized(msg string) *Error { return New(KindUnauthorized, msg) }

// InvalidID builds a KindInvalidID error.
func InvalidID(msg string) *Error { return New(KindInvalidID, msg) }

// Duplicate builds a KindDuplicate error with optional per-field messages.
func Duplicate(msg string, fields map[string]string) *Error {
	return &Error{Kind: KindDuplicate, Message: msg, Fields: fields}
}

// Internal wraps an unclassified failure. The message is surfaced only in
// development mode; cause is retained for logging.
func Internal(msg string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: msg, cause: cause}
}

// AIService builds a KindAIService error from an upstream failure. Provider
// status and message are extracted when the upstream error exposes them and
// silently omitted otherwise; extraction is best-effort and never panics.
func AIService(msg string, upstream error) *Error {
	e := &Error{Kind: KindAIService, Message: msg, cause: upstream}
	if upstream == nil {
		return e
	}
	var ue upstreamError
	if errors.As(upstream, &ue) {
		e.Provider = &ProviderDetail{
			Status:  ue.ProviderStatus(),
			Message: ue.ProviderMessage(),
		}
	}
	return e
}

// ErrBadID is the sentinel wrapped by call sites when an identifier fails to
// parse into its native format. The normalizer maps it to KindInvalidID.
var ErrBadID = errors.New("invalid id format")

// FieldError is one offending field with its message. Field may be a dotted
// path into a nested document (e.g. "reflections.0.reflection").
type FieldError struct {
	Field   string
	Message string
}

// FieldErrors is an ordered collection of field-level validation failures.
// Order is significant: the first entry supplies the summary message of the
// normalized response.
type FieldErrors []FieldError

// Error summarizes the collection as the first field message, matching the
// wire behavior of the normalizer.
func (fe FieldErrors) Error() string {
	if len(fe) == 0 {
		return "validation failed"
	}
	return fe[0].Message
}

// Map returns the collection keyed by leaf field name. Later duplicates of a
// leaf name do not overwrite earlier ones.
func (fe FieldErrors) Map() map[string]string {
	if len(fe) == 0 {
		return nil
	}
	out := make(map[string]string, len(fe))
	for _, f := range fe {
		leaf := LeafField(f.Field)
		if _, ok := out[leaf]; !ok {
			out[leaf] = f.Message
		}
	}
	return out
}

// Add appends a field failure and returns the extended collection.
func (fe FieldErrors) Add(field, format string, args ...any) FieldErrors {
	return append(fe, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// LeafField reduces a dotted path to its final segment, so that
// "reflections.0.reflection" keys as "reflection".
func LeafField(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i+1:]
	}
	return path
}
