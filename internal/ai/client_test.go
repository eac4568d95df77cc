package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/futureletters/backend/internal/domain"
)

func testLetter() *domain.Letter {
	return &domain.Letter{
		Title:   "One year on",
		Content: "Dear future me, did you keep running?",
		Mood:    "🤩",
	}
}

func TestReflectionPrompt_Success(t *testing.T) {
	var gotAuth, gotPath string
	var gotReq promptRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(promptResponse{Prompt: "What surprised you most?"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sekret")
	prompt, err := c.ReflectionPrompt(context.Background(), testLetter())
	if err != nil {
		t.Fatalf("ReflectionPrompt: %v", err)
	}
	if prompt != "What surprised you most?" {
		t.Fatalf("prompt = %q", prompt)
	}
	if gotAuth != "Bearer sekret" {
		t.Fatalf("auth header = %q", gotAuth)
	}
	if gotPath != "/v1/reflection-prompts" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotReq.Title != "One year on" || gotReq.Mood != "🤩" {
		t.Fatalf("request payload = %+v", gotReq)
	}
}

func TestReflectionPrompt_RetriesOnceOn5xx(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "overloaded", http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(promptResponse{Prompt: "second time lucky"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	prompt, err := c.ReflectionPrompt(context.Background(), testLetter())
	if err != nil {
		t.Fatalf("ReflectionPrompt: %v", err)
	}
	if prompt != "second time lucky" || atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("prompt=%q calls=%d", prompt, calls)
	}
}

func TestReflectionPrompt_NoRetryOn4xx(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, `{"error":"bad request"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.ReflectionPrompt(context.Background(), testLetter())
	if err == nil {
		t.Fatal("expected error")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("4xx must not retry: calls=%d", calls)
	}

	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("want *ProviderError, got %T", err)
	}
	if pe.ProviderStatus() != http.StatusBadRequest {
		t.Fatalf("status = %d", pe.ProviderStatus())
	}
	if !strings.Contains(pe.ProviderMessage(), "bad request") {
		t.Fatalf("message = %q", pe.ProviderMessage())
	}
}

func TestReflectionPrompt_PersistentServerError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "still down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.ReflectionPrompt(context.Background(), testLetter())
	var pe *ProviderError
	if !errors.As(err, &pe) || pe.Status != http.StatusInternalServerError {
		t.Fatalf("err = %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("exactly one retry expected: calls=%d", calls)
	}
}

func TestReflectionPrompt_ErrorBodyCapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(strings.Repeat("x", maxErrBody*4)))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.ReflectionPrompt(context.Background(), testLetter())
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v", err)
	}
	if len(pe.Body) != maxErrBody {
		t.Fatalf("body length = %d; want %d", len(pe.Body), maxErrBody)
	}
}

func TestReflectionPrompt_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewClient(srv.URL, "")
	if _, err := c.ReflectionPrompt(ctx, testLetter()); err == nil {
		t.Fatal("expected context error")
	}
}

func TestPost_NilHTTPClientDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(promptResponse{Prompt: "ok"})
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL}
	prompt, err := c.ReflectionPrompt(context.Background(), testLetter())
	if err != nil || prompt != "ok" {
		t.Fatalf("prompt=%q err=%v", prompt, err)
	}
}
