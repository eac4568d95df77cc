// Letter HTTP handlers.
//
// This file exposes REST endpoints for letter resources:
//   - POST   /letters                    (create)
//   - GET    /letters                    (list, paginated, ETag support)
//   - GET    /letters/{id}               (fetch one)
//   - PUT    /letters/{id}/content       (pre-delivery edit)
//   - PUT    /letters/{id}/schedule      (reschedule delivery)
//   - POST   /letters/{id}/deliver       (flip to delivered)
//   - POST   /letters/{id}/reflections   (post-delivery reflection)
//   - POST   /letters/{id}/reflections/prompt (AI reflection prompt)
//   - DELETE /letters/{id}               (remove)
//
// Handlers are transport-thin: they bind input, call application services,
// and return errors for the request boundary to classify. No handler builds
// an error body itself.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/futureletters/backend/internal/apperr"
	"github.com/futureletters/backend/internal/domain"
	"github.com/futureletters/backend/internal/http/middleware"
	"github.com/futureletters/backend/internal/repo"
	"github.com/futureletters/backend/internal/services"
	"github.com/futureletters/backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// LetterService defines letter lifecycle operations consumed by HTTP
// handlers. Implementations must honor the provided context.
type LetterService interface {
	// Create validates and persists a new letter for userID.
	Create(ctx context.Context, userID string, l *domain.Letter) (*domain.Letter, error)
	// Get returns one letter (sealed letters come back redacted).
	Get(ctx context.Context, userID, id string) (*domain.Letter, error)
	// ListPage returns a page of letters and the total count.
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Letter, int64, error)
	// UpdateContent amends the body of a not-yet-delivered letter.
	UpdateContent(ctx context.Context, userID, id, content string) error
	// Reschedule moves the delivery date (seven-day rule applies).
	Reschedule(ctx context.Context, userID, id, interval string, date time.Time) error
	// Deliver flips IsDelivered once the scheduled date has elapsed.
	Deliver(ctx context.Context, userID, id string) error
	// AddReflection appends a post-delivery reflection.
	AddReflection(ctx context.Context, userID, letterID, content string) (*domain.Reflection, error)
	// Delete removes a letter.
	Delete(ctx context.Context, userID, id string) error
	// SuggestTitle derives a title from letter content ("" when unusable).
	SuggestTitle(content string) string
}

// GoalService defines goal lifecycle operations consumed by HTTP handlers.
type GoalService interface {
	// UpdateStatus applies a plain status transition.
	UpdateStatus(ctx context.Context, userID, letterID, goalID string, status domain.GoalStatus, reflection *string) (*domain.Goal, error)
	// CarryForward links a goal's continuation into another letter.
	CarryForward(ctx context.Context, userID, letterID, goalID, destLetterID, text string) (*domain.Goal, error)
}

// ReflectionPrompter asks the external AI service for a reflection prompt.
type ReflectionPrompter interface {
	ReflectionPrompt(ctx context.Context, l *domain.Letter) (string, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for letters, goals, and reflections.
type Handlers struct {
	letterSvc LetterService
	goalSvc   GoalService
	prompter  ReflectionPrompter
	mode      string
	idemTTL   time.Duration
}

// New constructs a Handlers instance. mode selects development or production
// error exposure (see response.go); idemTTL bounds how long an
// Idempotency-Key replays a prior result.
func New(letterSvc LetterService, goalSvc GoalService, prompter ReflectionPrompter, mode string, idemTTL time.Duration) *Handlers {
	if idemTTL <= 0 {
		idemTTL = 24 * time.Hour
	}
	return &Handlers{letterSvc: letterSvc, goalSvc: goalSvc, prompter: prompter, mode: mode, idemTTL: idemTTL}
}

// db returns the underlying *gorm.DB when the letter service exposes one,
// for handler-level concerns (ETag stats, idempotency records) that stay
// out of the service contracts.
func (h *Handlers) db() *gorm.DB {
	if svc, ok := h.letterSvc.(*services.LetterService); ok {
		return svc.DB
	}
	return nil
}

// userID extracts the authenticated user id from Gin context (set by
// upstream middleware). If absent, it falls back to the "X-User-ID" header,
// and finally to "demo-user".
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

// parseID validates a path parameter as a UUID, wrapping failures in the
// ErrBadID sentinel the normalizer maps to INVALID_ID.
func parseID(raw string) (string, error) {
	if _, err := uuid.Parse(raw); err != nil {
		return "", fmt.Errorf("%w: %q", apperr.ErrBadID, raw)
	}
	return raw, nil
}

// mapServiceError lifts service sentinels onto the error taxonomy. Errors
// that are already classified (or unclassifiable) pass through unchanged.
func mapServiceError(err error) error {
	switch err {
	case services.ErrLetterNotFound:
		return apperr.NotFound("Letter not found")
	case services.ErrGoalNotFound:
		return apperr.NotFound("Goal not found")
	case services.ErrLetterSealed:
		return apperr.Forbidden("Letter has not been delivered yet")
	case services.ErrLetterAlreadyDelivered:
		return apperr.Validation("Letter has already been delivered", nil)
	case services.ErrTooManyGoals:
		return apperr.Validation("A letter can hold at most 3 goals", nil)
	case services.ErrGoalTerminal:
		return apperr.Validation("Goal status can no longer change", nil)
	case services.ErrBadTransition:
		return apperr.Validation("Goal status transition not allowed", nil)
	case services.ErrCarrySameLetter:
		return apperr.Validation("Goal must be carried into a different letter", nil)
	}
	return err
}

//
// DTOs
//

// GoalInput is one goal in a create-letter payload.
type GoalInput struct {
	// Text is the goal statement (1–150 chars).
	Text string `json:"text" example:"Run a half marathon"`
}

// CreateLetterRequest is the JSON payload for creating a letter.
type CreateLetterRequest struct {
	Title          string      `json:"title" example:"To me, one year on"`
	Mood           string      `json:"mood" example:"🤩"`
	Weather        string      `json:"weather,omitempty" example:"Overcast"`
	Temperature    string      `json:"temperature,omitempty" example:"14°C"`
	Location       string      `json:"location,omitempty" example:"Utrecht"`
	SongTitle      string      `json:"song_title,omitempty"`
	SongArtist     string      `json:"song_artist,omitempty"`
	SongURL        string      `json:"song_url,omitempty"`
	Content        string      `json:"content" binding:"required" example:"Dear future me, ..."`
	Drawing        string      `json:"drawing,omitempty"`
	OverlayDrawing string      `json:"overlay_drawing,omitempty"`
	Goals          []GoalInput `json:"goals,omitempty"`
	// DeliveryInterval picks the target date relative to today.
	DeliveryInterval string `json:"delivery_interval" binding:"required" example:"1y"`
	// DeliveredAt optionally overrides the computed date (RFC 3339).
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	// AutoTitle derives a title from the content when no title is given.
	AutoTitle bool `json:"auto_title,omitempty"`
}

// UpdateContentRequest is the JSON payload for a pre-delivery content edit.
type UpdateContentRequest struct {
	Content string `json:"content" binding:"required"`
}

// RescheduleRequest picks either a new interval or an explicit date.
type RescheduleRequest struct {
	DeliveryInterval string     `json:"delivery_interval,omitempty" example:"3m"`
	DeliveredAt      *time.Time `json:"delivered_at,omitempty"`
}

// AddReflectionRequest is the JSON payload for a post-delivery reflection.
type AddReflectionRequest struct {
	Reflection string `json:"reflection" binding:"required"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListLettersResponse wraps a page of letters and pagination information.
type ListLettersResponse struct {
	Letters    []domain.Letter `json:"letters"`
	Pagination Pagination      `json:"pagination"`
}

// ReflectionPromptResponse carries an AI-generated reflection prompt.
type ReflectionPromptResponse struct {
	Prompt string `json:"prompt"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.ClampInt(utils.AtoiDefault(c.Query("page_size"), defaultPageSize), 1, maxPageSize)
	return
}

//
// Handlers
//

// CreateLetter godoc
// @ID          createLetter
// @Summary     Write a letter to your future self
// @Description Creates a sealed letter. The delivery date must be at least one week out.
// @Tags        Letters
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.CreateLetterRequest  true  "Create letter payload"
//
// @Success     201  {object}  domain.Letter
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /letters [post]
func (h *Handlers) CreateLetter(c *gin.Context) error {
	ctx := c.Request.Context()
	uid := userID(c)

	// Replay a previously completed create instead of re-executing it.
	if middleware.IsReplay(c) {
		if db := h.db(); db != nil {
			key, _ := middleware.GetIdempotencyKey(c)
			rec, err := repo.GetIdempotency(ctx, db, uid, middleware.IdempotencyScope(c), key, time.Now().UTC())
			if err == nil && rec != nil {
				prior, err := h.letterSvc.Get(ctx, uid, rec.ResourceID)
				if err == nil {
					ok(c, http.StatusOK, prior)
					return nil
				}
			}
		}
	}

	var req CreateLetterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" && req.AutoTitle {
		title = h.letterSvc.SuggestTitle(req.Content)
	}

	l := &domain.Letter{
		Title:            title,
		Mood:             domain.Mood(req.Mood),
		Weather:          req.Weather,
		Temperature:      req.Temperature,
		Location:         req.Location,
		SongTitle:        req.SongTitle,
		SongArtist:       req.SongArtist,
		SongURL:          req.SongURL,
		Content:          req.Content,
		Drawing:          req.Drawing,
		OverlayDrawing:   req.OverlayDrawing,
		DeliveryInterval: req.DeliveryInterval,
	}
	if req.DeliveredAt != nil {
		l.DeliveredAt = *req.DeliveredAt
	}
	for _, g := range req.Goals {
		l.Goals = append(l.Goals, domain.Goal{Text: g.Text})
	}

	created, err := h.letterSvc.Create(ctx, uid, l)
	if err != nil {
		return mapServiceError(err)
	}

	// Best effort: record the outcome so retries with the same key replay it.
	if key, present := middleware.GetIdempotencyKey(c); present {
		if db := h.db(); db != nil {
			_, _ = repo.CreateIdempotency(ctx, db, uid, middleware.IdempotencyScope(c), key,
				created.ID, http.StatusCreated, h.idemTTL)
		}
	}

	middleware.CountLetterCreated()
	ok(c, http.StatusCreated, created)
	return nil
}

// ListLetters godoc
// @ID          listLetters
// @Summary     List letters (paginated)
// @Description Returns a page of the user's letters, sealed ones redacted. Supports weak ETag via If-None-Match.
// @Tags        Letters
// @Produce     json
//
// @Param       X-User-ID      header  string  false "User ID (demo header)"       example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListLettersResponse
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /letters [get]
func (h *Handlers) ListLetters(c *gin.Context) error {
	ctx := c.Request.Context()
	uid := userID(c)
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if db := h.db(); db != nil {
		count, maxTS, err := repo.LettersStats(ctx, db, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"letters:%s:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return nil
			}
		}
	}

	items, total, err := h.letterSvc.ListPage(ctx, uid, page, pageSize)
	if err != nil {
		return mapServiceError(err)
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListLettersResponse{
		Letters: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
	return nil
}

// GetLetter godoc
// @ID          getLetter
// @Summary     Fetch one letter
// @Description Returns a letter owned by the current user. Sealed letters come back with content redacted.
// @Tags        Letters
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"
// @Param       id         path    string  true  "Letter ID (UUID)" format(uuid)
//
// @Success     200  {object} domain.Letter
// @Failure     400  {object} handlers.ErrorResponse "Invalid ID"
// @Failure     404  {object} handlers.ErrorResponse "Letter not found"
// @Router      /letters/{id} [get]
func (h *Handlers) GetLetter(c *gin.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}
	l, err := h.letterSvc.Get(c.Request.Context(), userID(c), id)
	if err != nil {
		return mapServiceError(err)
	}
	ok(c, http.StatusOK, l)
	return nil
}

// UpdateLetterContent godoc
// @ID          updateLetterContent
// @Summary     Amend letter content before delivery
// @Tags        Letters
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"
// @Param       id         path    string  true  "Letter ID (UUID)" format(uuid)
// @Param       body       body    handlers.UpdateContentRequest true "New content"
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Validation failed / already delivered"
// @Failure     404  {object} handlers.ErrorResponse "Letter not found"
// @Router      /letters/{id}/content [put]
func (h *Handlers) UpdateLetterContent(c *gin.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}
	var req UpdateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return err
	}
	if err := h.letterSvc.UpdateContent(c.Request.Context(), userID(c), id, req.Content); err != nil {
		return mapServiceError(err)
	}
	noContent(c)
	return nil
}

// RescheduleLetter godoc
// @ID          rescheduleLetter
// @Summary     Move a letter's delivery date
// @Description The new date must be at least one week in the future.
// @Tags        Letters
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"
// @Param       id         path    string  true  "Letter ID (UUID)" format(uuid)
// @Param       body       body    handlers.RescheduleRequest true "New schedule"
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Validation failed"
// @Failure     404  {object} handlers.ErrorResponse "Letter not found"
// @Router      /letters/{id}/schedule [put]
func (h *Handlers) RescheduleLetter(c *gin.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}
	var req RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return err
	}
	var date time.Time
	if req.DeliveredAt != nil {
		date = *req.DeliveredAt
	}
	if err := h.letterSvc.Reschedule(c.Request.Context(), userID(c), id, req.DeliveryInterval, date); err != nil {
		return mapServiceError(err)
	}
	noContent(c)
	return nil
}

// DeliverLetter godoc
// @ID          deliverLetter
// @Summary     Mark a letter delivered
// @Description Flips the delivered flag once the scheduled date has elapsed.
// @Tags        Letters
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"
// @Param       id         path    string  true  "Letter ID (UUID)" format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Already delivered"
// @Failure     403  {object} handlers.ErrorResponse "Delivery date not reached"
// @Failure     404  {object} handlers.ErrorResponse "Letter not found"
// @Router      /letters/{id}/deliver [post]
func (h *Handlers) DeliverLetter(c *gin.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}
	if err := h.letterSvc.Deliver(c.Request.Context(), userID(c), id); err != nil {
		return mapServiceError(err)
	}
	middleware.CountLetterDelivered()
	noContent(c)
	return nil
}

// AddReflection godoc
// @ID          addReflection
// @Summary     Reflect on a delivered letter
// @Description Appends a reflection (minimum 50 characters) to a delivered letter.
// @Tags        Reflections
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"
// @Param       id         path    string  true  "Letter ID (UUID)" format(uuid)
// @Param       body       body    handlers.AddReflectionRequest true "Reflection payload"
//
// @Success     201  {object} domain.Reflection
// @Failure     400  {object} handlers.ErrorResponse "Reflection too short"
// @Failure     403  {object} handlers.ErrorResponse "Letter not delivered yet"
// @Failure     404  {object} handlers.ErrorResponse "Letter not found"
// @Router      /letters/{id}/reflections [post]
func (h *Handlers) AddReflection(c *gin.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}
	var req AddReflectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return err
	}
	r, err := h.letterSvc.AddReflection(c.Request.Context(), userID(c), id, req.Reflection)
	if err != nil {
		return mapServiceError(err)
	}
	ok(c, http.StatusCreated, r)
	return nil
}

// ReflectionPrompt godoc
// @ID          reflectionPrompt
// @Summary     Generate an AI reflection prompt
// @Description Asks the reflection service for a prompt over a delivered letter.
// @Tags        Reflections
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"
// @Param       id         path    string  true  "Letter ID (UUID)" format(uuid)
//
// @Success     200  {object} handlers.ReflectionPromptResponse
// @Failure     403  {object} handlers.ErrorResponse "Letter not delivered yet"
// @Failure     404  {object} handlers.ErrorResponse "Letter not found"
// @Failure     503  {object} handlers.ErrorResponse "Reflection service unavailable"
// @Router      /letters/{id}/reflections/prompt [post]
func (h *Handlers) ReflectionPrompt(c *gin.Context) <-chan error {
	result := make(chan error, 1)

	id, err := parseID(c.Param("id"))
	if err != nil {
		result <- err
		return result
	}
	l, err := h.letterSvc.Get(c.Request.Context(), userID(c), id)
	if err != nil {
		result <- mapServiceError(err)
		return result
	}
	if !l.IsDelivered {
		result <- apperr.Forbidden("Letter has not been delivered yet")
		return result
	}
	if h.prompter == nil {
		result <- apperr.AIService("Reflection service is not configured", nil)
		return result
	}

	// The provider call resolves after this function returns; the request
	// boundary suspends on the channel and handles a late failure. A panic
	// here is on the wrong goroutine for the boundary's recover, so it is
	// converted to a channel error in place.
	go func() {
		defer func() {
			if r := recover(); r != nil {
				result <- fmt.Errorf("panic: %v", r)
			}
		}()
		prompt, err := h.prompter.ReflectionPrompt(c.Request.Context(), l)
		middleware.CountReflectionPrompt(err == nil)
		if err != nil {
			result <- apperr.AIService("Reflection service is unavailable", err)
			return
		}
		ok(c, http.StatusOK, ReflectionPromptResponse{Prompt: prompt})
		result <- nil
	}()
	return result
}

// DeleteLetter godoc
// @ID          deleteLetter
// @Summary     Delete a letter
// @Tags        Letters
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"
// @Param       id         path    string  true  "Letter ID (UUID)" format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     404  {object} handlers.ErrorResponse "Letter not found"
// @Router      /letters/{id} [delete]
func (h *Handlers) DeleteLetter(c *gin.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}
	if err := h.letterSvc.Delete(c.Request.Context(), userID(c), id); err != nil {
		return mapServiceError(err)
	}
	noContent(c)
	return nil
}
