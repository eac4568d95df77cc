package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindCodeAndStatus(t *testing.T) {
	cases := []struct {
		kind   Kind
		code   string
		status int
	}{
		{KindInternal, "INTERNAL_ERROR", 500},
		{KindValidation, "VALIDATION_ERROR", 400},
		{KindNotFound, "NOT_FOUND", 404},
		{KindForbidden, "FORBIDDEN", 403},
		{KindUnauthorized, "UNAUTHORIZED", 401},
		{KindAIService, "AI_SERVICE_ERROR", 503},
		{KindInvalidID, "INVALID_ID", 400},
		{KindDuplicate, "DUPLICATE_ERROR", 400},
		// Out-of-range kinds fail safe to internal.
		{Kind(250), "INTERNAL_ERROR", 500},
	}
	for _, tc := range cases {
		if got := tc.kind.Code(); got != tc.code {
			t.Fatalf("Kind(%d).Code() = %q; want %q", tc.kind, got, tc.code)
		}
		if got := tc.kind.HTTPStatus(); got != tc.status {
			t.Fatalf("Kind(%d).HTTPStatus() = %d; want %d", tc.kind, got, tc.status)
		}
	}
}

func TestZeroKindIsInternal(t *testing.T) {
	var k Kind
	if k != KindInternal {
		t.Fatalf("zero Kind = %v; want KindInternal", k)
	}
}

func TestErrorMessageAndUnwrap(t *testing.T) {
	cause := errors.New("disk on fire")
	e := Internal("something broke", cause)
	if e.Error() != "something broke" {
		t.Fatalf("Error() = %q", e.Error())
	}
	if !errors.Is(e, cause) {
		t.Fatal("errors.Is should reach the wrapped cause")
	}
}

func TestConstructors(t *testing.T) {
	if e := NotFound("no such letter"); e.Kind != KindNotFound || e.Message != "no such letter" {
		t.Fatalf("NotFound: %+v", e)
	}
	if e := Forbidden("not yours"); e.Kind != KindForbidden {
		t.Fatalf("Forbidden: %+v", e)
	}
	if e := Unauthorized("who are you"); e.Kind != KindUnauthorized {
		t.Fatalf("Unauthorized: %+v", e)
	}
	if e := InvalidID("bad id"); e.Kind != KindInvalidID {
		t.Fatalf("InvalidID: %+v", e)
	}
	v := Validation("bad input", map[string]string{"title": "too long"})
	if v.Kind != KindValidation || v.Fields["title"] != "too long" {
		t.Fatalf("Validation: %+v", v)
	}
	d := Duplicate("already exists", map[string]string{"title": "taken"})
	if d.Kind != KindDuplicate || d.Fields["title"] != "taken" {
		t.Fatalf("Duplicate: %+v", d)
	}
}

type fakeUpstream struct {
	status int
	msg    string
}

func (f *fakeUpstream) Error() string           { return "upstream failed" }
func (f *fakeUpstream) ProviderStatus() int     { return f.status }
func (f *fakeUpstream) ProviderMessage() string { return f.msg }

func TestAIService_ExtractsProviderDetail(t *testing.T) {
	up := &fakeUpstream{status: 502, msg: "model overloaded"}
	e := AIService("reflection unavailable", fmt.Errorf("call: %w", up))
	if e.Kind != KindAIService {
		t.Fatalf("kind = %v", e.Kind)
	}
	if e.Provider == nil || e.Provider.Status != 502 || e.Provider.Message != "model overloaded" {
		t.Fatalf("provider detail = %+v", e.Provider)
	}
	if !errors.Is(e, up) {
		t.Fatal("cause chain broken")
	}
}

func TestAIService_NilAndPlainUpstream(t *testing.T) {
	if e := AIService("down", nil); e.Provider != nil {
		t.Fatalf("nil upstream should leave Provider nil: %+v", e.Provider)
	}
	if e := AIService("down", errors.New("timeout")); e.Provider != nil {
		t.Fatalf("plain error should leave Provider nil: %+v", e.Provider)
	}
}

func TestFieldErrors_ErrorAndMap(t *testing.T) {
	var fe FieldErrors
	if fe.Error() != "validation failed" {
		t.Fatalf("empty Error() = %q", fe.Error())
	}
	if fe.Map() != nil {
		t.Fatal("empty Map() should be nil")
	}

	fe = fe.Add("title", "Title is required")
	fe = fe.Add("goals.0.text", "Goal text exceeds %d characters", 150)
	fe = fe.Add("goals.1.text", "second goal message")

	if fe.Error() != "Title is required" {
		t.Fatalf("Error() = %q; want first message", fe.Error())
	}
	m := fe.Map()
	if m["title"] != "Title is required" {
		t.Fatalf("map title = %q", m["title"])
	}
	// Leaf keying: both goal paths collapse to "text"; first wins.
	if m["text"] != "Goal text exceeds 150 characters" {
		t.Fatalf("map text = %q; want first goal message", m["text"])
	}
	if len(m) != 2 {
		t.Fatalf("map size = %d; want 2", len(m))
	}
}

func TestLeafField(t *testing.T) {
	cases := map[string]string{
		"title":                      "title",
		"goals.0.text":               "text",
		"reflections.2.reflection":   "reflection",
		"":                           "",
		"trailing.":                  "",
	}
	for in, want := range cases {
		if got := LeafField(in); got != want {
			t.Fatalf("LeafField(%q) = %q; want %q", in, got, want)
		}
	}
}
