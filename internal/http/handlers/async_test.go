package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/futureletters/backend/internal/apperr"
)

func newBoundaryHandlers(mode string) *Handlers {
	return New(nil, nil, nil, mode, time.Hour)
}

func runWrapped(t *testing.T, h gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", h)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	return w
}

func TestWrap_ErrorForwardedOnce(t *testing.T) {
	h := newBoundaryHandlers(ModeProduction)
	calls := 0
	w := runWrapped(t, h.wrap(func(c *gin.Context) error {
		calls++
		return apperr.NotFound("Letter not found")
	}))
	if calls != 1 {
		t.Fatalf("handler ran %d times", calls)
	}
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	var body ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "NOT_FOUND" {
		t.Fatalf("code = %q", body.Error.Code)
	}
}

func TestWrap_NilErrorWritesNothing(t *testing.T) {
	h := newBoundaryHandlers(ModeProduction)
	w := runWrapped(t, h.wrap(func(c *gin.Context) error {
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return nil
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestWrap_PanicBecomesInternalError(t *testing.T) {
	h := newBoundaryHandlers(ModeProduction)
	w := runWrapped(t, h.wrap(func(c *gin.Context) error {
		panic("kaboom")
	}))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var body ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// Panic text is unclassified detail; production hides it.
	if body.Error.Message != genericInternalMsg {
		t.Fatalf("message = %q", body.Error.Message)
	}
}

func TestWrap_PanicAfterErrorStillSingleDispatch(t *testing.T) {
	h := newBoundaryHandlers(ModeDevelopment)
	w := runWrapped(t, h.wrap(func(c *gin.Context) error {
		defer panic("late panic")
		return errors.New("first failure")
	}))
	// The first forward wins; the panic must not produce a second body.
	var body ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v (%s)", err, w.Body.String())
	}
}

func TestWrapDeferred_NilChannelMeansDone(t *testing.T) {
	h := newBoundaryHandlers(ModeProduction)
	w := runWrapped(t, h.wrapDeferred(func(c *gin.Context) <-chan error {
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return nil
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestWrapDeferred_LateFailure(t *testing.T) {
	h := newBoundaryHandlers(ModeProduction)
	w := runWrapped(t, h.wrapDeferred(func(c *gin.Context) <-chan error {
		ch := make(chan error, 1)
		go func() {
			time.Sleep(10 * time.Millisecond)
			ch <- apperr.AIService("Reflection service is unavailable", nil)
		}()
		return ch
	}))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", w.Code)
	}
	var body ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "AI_SERVICE_ERROR" {
		t.Fatalf("code = %q", body.Error.Code)
	}
}

func TestWrapDeferred_LateSuccess(t *testing.T) {
	h := newBoundaryHandlers(ModeProduction)
	w := runWrapped(t, h.wrapDeferred(func(c *gin.Context) <-chan error {
		ch := make(chan error, 1)
		go func() {
			c.JSON(http.StatusOK, gin.H{"prompt": "What surprised you most?"})
			ch <- nil
		}()
		return ch
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}
