// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the standard response utilities used across all
// endpoints. Every failure, wherever it originates, is written by respond()
// as the same envelope:
//
//	HTTP/1.1 400 Bad Request
//	{
//	  "success": false,
//	  "error": {
//	    "code": "VALIDATION_ERROR",
//	    "message": "Letter content is required",
//	    "fields": { "content": "Letter content is required" }
//	  }
//	}
//
// Conventions:
//   - success is literally false in every error envelope.
//   - stack appears only for unclassified failures in development mode.
//   - respond() centralizes logging: the failure message is always logged;
//     the stack trace is logged in development only. Production responses
//     for unclassified failures never leak internal detail.
package handlers

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/futureletters/backend/internal/apperr"
	"github.com/futureletters/backend/internal/http/middleware"
)

// Mode values accepted by respond. Anything other than ModeDevelopment is
// treated as production.
const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Success is always false in an error envelope.
	Success bool `json:"success"`
	// Error carries the stable code, user-safe message, and optional
	// per-field detail.
	Error errorDetail `json:"error"`
}

// respond normalizes err, logs it, and writes the error envelope with the
// computed status. It is the single dispatch point for failures; handlers
// never format error bodies themselves.
func respond(c *gin.Context, err error, mode string) {
	status, detail, unclassified := normalize(err)

	lg := middleware.LoggerFrom(c)
	ev := lg.Error().
		Int("status", status).
		Str("code", detail.Code).
		Str("message", err.Error())
	// Provider detail from AI-service failures goes to logs, never to the body.
	var ae *apperr.Error
	if errors.As(err, &ae) && ae.Provider != nil {
		ev = ev.Int("provider_status", ae.Provider.Status).
			Str("provider_message", ae.Provider.Message)
	}
	if mode == ModeDevelopment {
		ev = ev.Bytes("stack", debug.Stack())
	}
	ev.Msg("request failed")

	if unclassified {
		if mode == ModeDevelopment {
			detail.Stack = string(debug.Stack())
		} else {
			detail.Message = genericInternalMsg
		}
	}

	c.AbortWithStatusJSON(status, ErrorResponse{Success: false, Error: detail})
}

// Respond is the exported variant of respond() for use by router-level
// fallbacks (NoRoute, NoMethod) and the recovery path.
func Respond(c *gin.Context, err error, mode string) { respond(c, err, mode) }

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes an HTTP 204 No Content response.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
