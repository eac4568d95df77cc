package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/futureletters/backend/internal/apperr"
	"github.com/futureletters/backend/internal/domain"
	"github.com/futureletters/backend/internal/repo"
)

// goalFixture seeds one letter with one pending goal and returns both
// services sharing the same database.
func goalFixture(t *testing.T) (*LetterService, *GoalService, *domain.Letter, *domain.Goal) {
	t.Helper()
	letterSvc := newLetterService(t)
	goalSvc := &GoalService{DB: letterSvc.DB, Now: func() time.Time { return frozenNow }}

	l := draftLetter()
	l.Goals = []domain.Goal{{Text: "write every week"}}
	created, err := letterSvc.Create(context.Background(), "u1", l)
	if err != nil {
		t.Fatalf("seed letter: %v", err)
	}
	return letterSvc, goalSvc, created, &created.Goals[0]
}

func TestUpdateStatus_HappyPath(t *testing.T) {
	_, goalSvc, l, g := goalFixture(t)
	refl := "kept at it for three months"

	got, err := goalSvc.UpdateStatus(context.Background(), "u1", l.ID, g.ID, domain.StatusInProgress, &refl)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if got.Status != domain.StatusInProgress || got.Reflection != refl {
		t.Fatalf("unexpected goal: %+v", got)
	}
	if !got.StatusUpdatedAt.Equal(frozenNow) {
		t.Fatalf("StatusUpdatedAt = %v; want %v", got.StatusUpdatedAt, frozenNow)
	}

	// inProgress can still finish.
	got, err = goalSvc.UpdateStatus(context.Background(), "u1", l.ID, g.ID, domain.StatusAccomplished, nil)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if got.Status != domain.StatusAccomplished {
		t.Fatalf("status = %q", got.Status)
	}
	// Reflection untouched when nil is passed.
	if got.Reflection != refl {
		t.Fatalf("nil reflection overwrote stored one: %q", got.Reflection)
	}
}

func TestUpdateStatus_Rejections(t *testing.T) {
	_, goalSvc, l, g := goalFixture(t)
	ctx := context.Background()

	// carriedForward is never reachable through a plain transition.
	if _, err := goalSvc.UpdateStatus(ctx, "u1", l.ID, g.ID, domain.StatusCarriedForward, nil); !errors.Is(err, ErrBadTransition) {
		t.Fatalf("carriedForward via UpdateStatus: %v", err)
	}
	// Self-transition.
	if _, err := goalSvc.UpdateStatus(ctx, "u1", l.ID, g.ID, domain.StatusPending, nil); !errors.Is(err, ErrBadTransition) {
		t.Fatalf("pending → pending: %v", err)
	}
	// Unknown letter / goal / owner.
	if _, err := goalSvc.UpdateStatus(ctx, "u1", "missing", g.ID, domain.StatusAbandoned, nil); !errors.Is(err, ErrLetterNotFound) {
		t.Fatalf("missing letter: %v", err)
	}
	if _, err := goalSvc.UpdateStatus(ctx, "u2", l.ID, g.ID, domain.StatusAbandoned, nil); !errors.Is(err, ErrLetterNotFound) {
		t.Fatalf("foreign owner: %v", err)
	}
	if _, err := goalSvc.UpdateStatus(ctx, "u1", l.ID, "missing", domain.StatusAbandoned, nil); !errors.Is(err, ErrGoalNotFound) {
		t.Fatalf("missing goal: %v", err)
	}
	// Oversized reflection.
	long := strings.Repeat("r", 501)
	_, err := goalSvc.UpdateStatus(ctx, "u1", l.ID, g.ID, domain.StatusAbandoned, &long)
	var fe apperr.FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("oversized reflection: %v", err)
	}

	// Terminal goals stay put.
	if _, err := goalSvc.UpdateStatus(ctx, "u1", l.ID, g.ID, domain.StatusAbandoned, nil); err != nil {
		t.Fatalf("abandon: %v", err)
	}
	if _, err := goalSvc.UpdateStatus(ctx, "u1", l.ID, g.ID, domain.StatusAccomplished, nil); !errors.Is(err, ErrGoalTerminal) {
		t.Fatalf("transition out of terminal: %v", err)
	}
}

func TestCarryForward_LinksBothSides(t *testing.T) {
	letterSvc, goalSvc, origin, g := goalFixture(t)
	ctx := context.Background()

	dest, err := letterSvc.Create(ctx, "u1", draftLetter())
	if err != nil {
		t.Fatalf("dest letter: %v", err)
	}

	successor, err := goalSvc.CarryForward(ctx, "u1", origin.ID, g.ID, dest.ID, "")
	if err != nil {
		t.Fatalf("CarryForward: %v", err)
	}

	// Successor: pending, in the destination, text inherited, origin linked.
	if successor.LetterID != dest.ID || successor.Status != domain.StatusPending {
		t.Fatalf("successor: %+v", successor)
	}
	if successor.Text != g.Text {
		t.Fatalf("text = %q; want inherited %q", successor.Text, g.Text)
	}
	if !successor.HasCarryOrigin() || *successor.CarriedForwardFromGoalID != g.ID {
		t.Fatalf("origin link missing: %+v", successor)
	}

	// Origin: carriedForward with the forward link set.
	reloaded, err := repo.GetGoal(ctx, goalSvc.DB, origin.ID, g.ID)
	if err != nil {
		t.Fatalf("reload origin: %v", err)
	}
	if reloaded.Status != domain.StatusCarriedForward || !reloaded.HasCarryTarget() {
		t.Fatalf("origin: %+v", reloaded)
	}
	if *reloaded.CarriedForwardToGoalID != successor.ID || *reloaded.CarriedForwardToLetterID != dest.ID {
		t.Fatalf("forward link: %+v", reloaded)
	}

	// A carried goal cannot be carried twice.
	if _, err := goalSvc.CarryForward(ctx, "u1", origin.ID, g.ID, dest.ID, ""); !errors.Is(err, ErrGoalTerminal) {
		t.Fatalf("second carry: %v", err)
	}
}

func TestCarryForward_TextOverrideValidated(t *testing.T) {
	letterSvc, goalSvc, origin, g := goalFixture(t)
	ctx := context.Background()

	dest, err := letterSvc.Create(ctx, "u1", draftLetter())
	if err != nil {
		t.Fatalf("dest letter: %v", err)
	}

	// Oversized override is rejected before anything is written.
	if _, err := goalSvc.CarryForward(ctx, "u1", origin.ID, g.ID, dest.ID, strings.Repeat("x", 151)); err == nil {
		t.Fatal("oversized override should fail")
	}
	reloaded, _ := repo.GetGoal(ctx, goalSvc.DB, origin.ID, g.ID)
	if reloaded.Status != domain.StatusPending {
		t.Fatalf("failed carry mutated origin: %+v", reloaded)
	}

	successor, err := goalSvc.CarryForward(ctx, "u1", origin.ID, g.ID, dest.ID, "write every single week")
	if err != nil {
		t.Fatalf("CarryForward: %v", err)
	}
	if successor.Text != "write every single week" {
		t.Fatalf("override not applied: %q", successor.Text)
	}
}

func TestCarryForward_Rejections(t *testing.T) {
	letterSvc, goalSvc, origin, g := goalFixture(t)
	ctx := context.Background()

	// Destination must differ from the origin letter.
	if _, err := goalSvc.CarryForward(ctx, "u1", origin.ID, g.ID, origin.ID, ""); !errors.Is(err, ErrCarrySameLetter) {
		t.Fatalf("same letter: %v", err)
	}
	// Destination must exist and belong to the caller.
	if _, err := goalSvc.CarryForward(ctx, "u1", origin.ID, g.ID, "missing", ""); !errors.Is(err, ErrLetterNotFound) {
		t.Fatalf("missing dest: %v", err)
	}
	other, err := letterSvc.Create(ctx, "u2", draftLetter())
	if err != nil {
		t.Fatalf("other user letter: %v", err)
	}
	if _, err := goalSvc.CarryForward(ctx, "u1", origin.ID, g.ID, other.ID, ""); !errors.Is(err, ErrLetterNotFound) {
		t.Fatalf("foreign dest: %v", err)
	}

	// Full destination rejects the carry.
	full := draftLetter()
	full.Goals = []domain.Goal{{Text: "a"}, {Text: "b"}, {Text: "c"}}
	dest, err := letterSvc.Create(ctx, "u1", full)
	if err != nil {
		t.Fatalf("full dest: %v", err)
	}
	if _, err := goalSvc.CarryForward(ctx, "u1", origin.ID, g.ID, dest.ID, ""); !errors.Is(err, ErrTooManyGoals) {
		t.Fatalf("full dest carry: %v", err)
	}
	reloaded, _ := repo.GetGoal(ctx, goalSvc.DB, origin.ID, g.ID)
	if reloaded.Status != domain.StatusPending {
		t.Fatalf("rejected carry mutated origin: %+v", reloaded)
	}
}
