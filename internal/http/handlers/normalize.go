// Package handlers provides HTTP handler implementations for the public API.
//
// This file implements error normalization: the conversion of every failure
// shape the request pipeline can produce into one (status, error detail)
// pair. Classification runs top to bottom and the first match wins; the
// order is load-bearing because failure shapes are not mutually exclusive
// (an unclassified error may incidentally resemble a classified one), so
// reordering these branches is a breaking change.
//
// Classification order:
//  1. field-validation failures (apperr.FieldErrors, binding failures from
//     go-playground/validator, or body-decode failures from encoding/json)
//  2. identifier cast failures (apperr.ErrBadID)
//  3. uniqueness violations (gorm.ErrDuplicatedKey, repo.ErrDuplicate, or
//     driver-specific unique-constraint text)
//  4. taxonomy errors (*apperr.Error)
//  5. everything else → INTERNAL_ERROR
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/futureletters/backend/internal/apperr"
	"github.com/futureletters/backend/internal/repo"
)

// genericInternalMsg replaces unclassified failure messages outside
// development mode.
const genericInternalMsg = "An unexpected error occurred"

// errorDetail is the inner error object of the response envelope.
type errorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Stack   string            `json:"stack,omitempty"` // development + INTERNAL_ERROR only
}

// normalize maps any failure to its HTTP status and wire detail. The third
// return value reports whether the failure fell through to the unclassified
// branch; respond() hides the real message of unclassified failures outside
// development mode, while classified (operational) messages always pass
// through.
func normalize(err error) (int, errorDetail, bool) {
	// 1) Field-validation failures.
	var fe apperr.FieldErrors
	if errors.As(err, &fe) && len(fe) > 0 {
		return http.StatusBadRequest, errorDetail{
			Code:    apperr.KindValidation.Code(),
			Message: fe[0].Message,
			Fields:  fe.Map(),
		}, false
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fields := make(map[string]string, len(ve))
		first := ""
		for _, f := range ve {
			leaf := apperr.LeafField(f.Namespace())
			msg := bindingMessage(f)
			if first == "" {
				first = msg
			}
			if _, ok := fields[leaf]; !ok {
				fields[leaf] = msg
			}
		}
		return http.StatusBadRequest, errorDetail{
			Code:    apperr.KindValidation.Code(),
			Message: first,
			Fields:  fields,
		}, false
	}

	if d, ok := bodyDecodeDetail(err); ok {
		return http.StatusBadRequest, d, false
	}

	// 2) Identifier cast failures.
	if errors.Is(err, apperr.ErrBadID) {
		return http.StatusBadRequest, errorDetail{
			Code:    apperr.KindInvalidID.Code(),
			Message: "Invalid ID format",
		}, false
	}

	// 3) Uniqueness violations.
	if isDuplicate(err) {
		f := duplicateField(err)
		return http.StatusBadRequest, errorDetail{
			Code:    apperr.KindDuplicate.Code(),
			Message: fmt.Sprintf("A record with this %s already exists", f),
			Fields:  map[string]string{f: fmt.Sprintf("This %s is already in use", f)},
		}, false
	}

	// 4) Taxonomy errors.
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae.Kind.HTTPStatus(), errorDetail{
			Code:    ae.Kind.Code(),
			Message: ae.Message,
			Fields:  ae.Fields,
		}, false
	}

	// 5) Unclassified.
	return http.StatusInternalServerError, errorDetail{
		Code:    apperr.KindInternal.Code(),
		Message: err.Error(),
	}, true
}

// bodyDecodeDetail classifies request-body decode failures out of
// ShouldBindJSON: malformed JSON, a value of the wrong type, or a missing
// body entirely.
func bodyDecodeDetail(err error) (errorDetail, bool) {
	var typ *json.UnmarshalTypeError
	if errors.As(err, &typ) {
		field := apperr.LeafField(typ.Field)
		if field == "" {
			field = "body"
		}
		return errorDetail{
			Code:    apperr.KindValidation.Code(),
			Message: fmt.Sprintf("%s has an invalid type", field),
			Fields:  map[string]string{field: fmt.Sprintf("must be of type %s", typ.Type)},
		}, true
	}
	var syn *json.SyntaxError
	if errors.As(err, &syn) || errors.Is(err, io.ErrUnexpectedEOF) {
		return errorDetail{
			Code:    apperr.KindValidation.Code(),
			Message: "Request body is not valid JSON",
		}, true
	}
	if errors.Is(err, io.EOF) {
		return errorDetail{
			Code:    apperr.KindValidation.Code(),
			Message: "Request body is required",
		}, true
	}
	return errorDetail{}, false
}

// bindingMessage renders a single binding failure as a short, user-safe
// sentence.
func bindingMessage(f validator.FieldError) string {
	switch f.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", f.Field())
	case "max":
		return fmt.Sprintf("%s cannot exceed %s characters", f.Field(), f.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", f.Field(), f.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", f.Field(), f.Param())
	default:
		return fmt.Sprintf("%s is invalid", f.Field())
	}
}

// isDuplicate detects unique-constraint violations across drivers and the
// repo sentinel.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, repo.ErrDuplicate) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}

// duplicateField extracts the conflicting column from a driver error.
//
// SQLite reports "UNIQUE constraint failed: table.column[, ...]"; Postgres
// reports a constraint name instead of a column, in which case (and for the
// bare sentinels) the generic "field" is returned.
func duplicateField(err error) string {
	msg := err.Error()
	low := strings.ToLower(msg)
	marker := "unique constraint failed: "
	i := strings.Index(low, marker)
	if i < 0 {
		return "field"
	}
	rest := msg[i+len(marker):]
	if j := strings.IndexAny(rest, ", "); j >= 0 {
		rest = rest[:j]
	}
	return apperr.LeafField(strings.TrimSpace(rest))
}
