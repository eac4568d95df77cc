// Package services – GoalService
//
// This file implements the GoalService, which governs the goal lifecycle
// state machine and the carry-forward operation that links a goal's
// continuation into a different letter. Plain status transitions go through
// UpdateStatus; carriedForward is reachable only through CarryForward, which
// creates the successor goal and writes both halves of the link inside one
// transaction.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/futureletters/backend/internal/apperr"
	"github.com/futureletters/backend/internal/domain"
	"github.com/futureletters/backend/internal/repo"
)

// GoalService implements goal status transitions and carry-forward.
type GoalService struct {
	// DB is the GORM handle used for all goal operations.
	DB *gorm.DB

	// Now supplies transition timestamps; tests override it. Defaults to
	// time.Now when nil.
	Now func() time.Time
}

func (s *GoalService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// UpdateStatus transitions the goal to one of accomplished, inProgress, or
// abandoned, stamping StatusUpdatedAt. An optional reflection (≤500 chars)
// may be attached in the same write.
//
// Semantics:
//   - The letter must exist and belong to userID; otherwise ErrLetterNotFound.
//   - The goal must exist within that letter; otherwise ErrGoalNotFound.
//   - Transitions out of a terminal status yield ErrGoalTerminal.
//   - Disallowed transitions (including any request for carriedForward,
//     which must go through CarryForward) yield ErrBadTransition.
func (s *GoalService) UpdateStatus(ctx context.Context, userID, letterID, goalID string, status domain.GoalStatus, reflection *string) (*domain.Goal, error) {
	if status == domain.StatusCarriedForward {
		return nil, ErrBadTransition
	}

	if _, err := repo.GetLetter(ctx, s.DB, letterID, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrLetterNotFound
		}
		return nil, err
	}

	g, err := repo.GetGoal(ctx, s.DB, letterID, goalID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrGoalNotFound
		}
		return nil, err
	}

	if g.Status.Terminal() {
		return nil, ErrGoalTerminal
	}
	if !g.Status.CanTransition(status) {
		return nil, ErrBadTransition
	}
	if reflection != nil && utf8.RuneCountInString(*reflection) > 500 {
		return nil, apperr.FieldErrors{}.Add("goal.reflection", "Goal reflection cannot exceed 500 characters")
	}

	g.Status = status
	g.StatusUpdatedAt = s.now()
	if reflection != nil {
		g.Reflection = *reflection
	}
	if err := repo.SaveGoal(ctx, s.DB, g); err != nil {
		return nil, err
	}
	return g, nil
}

// CarryForward marks the origin goal carriedForward and spawns exactly one
// pending successor goal in destLetterID, linking both sides:
// origin.CarriedForwardTo → successor, successor.CarriedForwardFrom → origin.
//
// Semantics:
//   - The destination must be a different letter; otherwise ErrCarrySameLetter.
//   - Both letters must belong to userID; otherwise ErrLetterNotFound.
//   - The origin goal must allow the carriedForward transition
//     (ErrGoalTerminal / ErrBadTransition otherwise).
//   - The destination letter must have room for another goal
//     (ErrTooManyGoals otherwise).
//   - text optionally overrides the successor's text; it defaults to the
//     origin's text and is validated against the goal constraints.
//
// Atomicity: the successor insert and the origin update run inside one
// transaction. A failure of the second write rolls back the first and
// surfaces as ErrCarryForwardPartial, so a one-sided link is never
// persisted silently.
func (s *GoalService) CarryForward(ctx context.Context, userID, letterID, goalID, destLetterID, text string) (*domain.Goal, error) {
	if destLetterID == letterID {
		return nil, ErrCarrySameLetter
	}

	if _, err := repo.GetLetter(ctx, s.DB, letterID, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrLetterNotFound
		}
		return nil, err
	}
	if _, err := repo.GetLetter(ctx, s.DB, destLetterID, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrLetterNotFound
		}
		return nil, err
	}

	origin, err := repo.GetGoal(ctx, s.DB, letterID, goalID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrGoalNotFound
		}
		return nil, err
	}
	if origin.Status.Terminal() {
		return nil, ErrGoalTerminal
	}
	if !origin.Status.CanTransition(domain.StatusCarriedForward) {
		return nil, ErrBadTransition
	}

	count, err := repo.CountGoals(ctx, s.DB, destLetterID)
	if err != nil {
		return nil, err
	}
	if count >= domain.MaxGoalsPerLetter {
		return nil, ErrTooManyGoals
	}

	if text == "" {
		text = origin.Text
	}
	now := s.now()
	successor := &domain.Goal{
		ID:                         uuid.NewString(),
		LetterID:                   destLetterID,
		Text:                       text,
		Status:                     domain.StatusPending,
		CarriedForwardFromLetterID: &origin.LetterID,
		CarriedForwardFromGoalID:   &origin.ID,
		StatusUpdatedAt:            now,
	}
	if err := successor.Validate(); err != nil {
		return nil, err
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.CreateGoal(ctx, tx, successor); err != nil {
			return err
		}
		origin.Status = domain.StatusCarriedForward
		origin.CarriedForwardToLetterID = &successor.LetterID
		origin.CarriedForwardToGoalID = &successor.ID
		origin.StatusUpdatedAt = now
		if err := repo.SaveGoal(ctx, tx, origin); err != nil {
			// Rolls back the successor insert; signal the half-written
			// link distinctly instead of leaking a raw DB error.
			return fmt.Errorf("%w: %v", ErrCarryForwardPartial, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return successor, nil
}
