// Explicit field validation for write paths.
//
// Rules live here as plain functions rather than persistence-layer hooks so
// they run (and are testable) without a live store. Failures come back as an
// ordered apperr.FieldErrors keyed by dotted paths into the document; the
// HTTP layer reduces paths to leaf names for the response body.
package domain

import (
	"strconv"
	"unicode/utf8"

	"github.com/futureletters/backend/internal/apperr"
	"github.com/futureletters/backend/internal/schedule"
)

const (
	maxTitleChars      = 100
	maxContentChars    = 5000
	maxGoalTextChars   = 150
	maxGoalReflChars   = 500
	minReflectionChars = 50
)

// Validate checks every field constraint on the letter and its nested goals
// and reflections. It returns nil when the letter is well formed.
//
// The seven-day delivery rule is intentionally not checked here: it applies
// only on create and reschedule and is enforced by the service via
// schedule.ValidateDeliveryDate.
func (l *Letter) Validate() error {
	var fe apperr.FieldErrors

	if utf8.RuneCountInString(l.Title) > maxTitleChars {
		fe = fe.Add("title", "Title cannot exceed %d characters", maxTitleChars)
	}
	if !l.Mood.Valid() {
		fe = fe.Add("mood", "Mood must be one of the supported symbols")
	}
	if l.Content == "" {
		fe = fe.Add("content", "Letter content is required")
	} else if utf8.RuneCountInString(l.Content) > maxContentChars {
		fe = fe.Add("content", "Letter content cannot exceed %d characters", maxContentChars)
	}
	if !schedule.ValidInterval(l.DeliveryInterval) {
		fe = fe.Add("deliveryInterval", "Delivery interval is not supported")
	}
	if l.DeliveredAt.IsZero() {
		fe = fe.Add("deliveredAt", "Delivery date is required")
	}

	for i, g := range l.Goals {
		fe = append(fe, g.fieldErrors(goalPath(i))...)
	}
	for i, r := range l.Reflections {
		fe = append(fe, r.fieldErrors(reflectionPath(i))...)
	}

	if len(fe) > 0 {
		return fe
	}
	return nil
}

// Validate checks the goal's own field constraints.
func (g *Goal) Validate() error {
	if fe := g.fieldErrors("goal"); len(fe) > 0 {
		return fe
	}
	return nil
}

func (g *Goal) fieldErrors(prefix string) apperr.FieldErrors {
	var fe apperr.FieldErrors
	if g.Text == "" {
		fe = fe.Add(prefix+".text", "Goal text is required")
	} else if utf8.RuneCountInString(g.Text) > maxGoalTextChars {
		fe = fe.Add(prefix+".text", "Goal text cannot exceed %d characters", maxGoalTextChars)
	}
	if !g.Status.Valid() {
		fe = fe.Add(prefix+".status", "Goal status is not recognized")
	}
	if utf8.RuneCountInString(g.Reflection) > maxGoalReflChars {
		fe = fe.Add(prefix+".reflection", "Goal reflection cannot exceed %d characters", maxGoalReflChars)
	}
	return fe
}

// Validate checks the reflection's minimum-effort threshold.
func (r *Reflection) Validate() error {
	if fe := r.fieldErrors("reflection"); len(fe) > 0 {
		return fe
	}
	return nil
}

func (r *Reflection) fieldErrors(prefix string) apperr.FieldErrors {
	var fe apperr.FieldErrors
	if utf8.RuneCountInString(r.Content) < minReflectionChars {
		fe = fe.Add(prefix+".reflection", "Reflection must be at least %d characters", minReflectionChars)
	}
	return fe
}

func goalPath(i int) string       { return "goals." + strconv.Itoa(i) }
func reflectionPath(i int) string { return "reflections." + strconv.Itoa(i) }
