// Package services – LetterService
//
// This file implements the LetterService, which manages the lifecycle of
// letters: creation (with the seven-day delivery rule), paginated listing,
// pre-delivery content edits, rescheduling, delivery, and post-delivery
// reflections. Field constraints are enforced through the domain validators;
// the scheduling rule is enforced here and only on the two paths that set or
// change the delivery date.
//
// Service-level errors (e.g. ErrLetterNotFound, ErrLetterSealed) are
// returned for predictable cases so handlers can map them to HTTP results
// consistently.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/futureletters/backend/internal/apperr"
	"github.com/futureletters/backend/internal/domain"
	"github.com/futureletters/backend/internal/repo"
	"github.com/futureletters/backend/internal/schedule"
)

// defaultTitle is stored when a letter is created without a title.
const defaultTitle = "Untitled"

// LetterService provides letter-level operations. It owns the write-path
// validation gates: field constraints on every write, and the delivery-date
// rule on create and reschedule only.
type LetterService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB

	// Now supplies the current time; tests override it to pin the
	// scheduling rule. Defaults to time.Now when nil.
	Now func() time.Time

	// TitleLocale selects the casing rules for suggested titles.
	TitleLocale language.Tag
}

// NewLetterService constructs a LetterService with default clock and locale.
func NewLetterService(db *gorm.DB) *LetterService {
	return &LetterService{DB: db, TitleLocale: language.English}
}

func (s *LetterService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Create validates and persists a new letter owned by userID.
//
// Semantics and validation:
//   - Title is trimmed; empty titles default to "Untitled".
//   - When DeliveredAt is zero it is computed from DeliveryInterval.
//   - The delivery date must satisfy the seven-day minimum (inclusive).
//   - At most domain.MaxGoalsPerLetter goals; otherwise ErrTooManyGoals.
//   - All field constraints are checked via domain validation; violations
//     surface as apperr.FieldErrors.
//
// Nested goals start pending with StatusUpdatedAt stamped at creation.
func (s *LetterService) Create(ctx context.Context, userID string, l *domain.Letter) (*domain.Letter, error) {
	now := s.now()

	l.ID = uuid.NewString()
	l.UserID = userID
	l.Title = strings.TrimSpace(l.Title)
	if l.Title == "" {
		l.Title = defaultTitle
	}
	l.IsDelivered = false
	l.CreatedAt = now

	if len(l.Goals) > domain.MaxGoalsPerLetter {
		return nil, ErrTooManyGoals
	}

	if l.DeliveredAt.IsZero() && schedule.ValidInterval(l.DeliveryInterval) {
		l.DeliveredAt = schedule.ComputeDeliveryDate(l.DeliveryInterval, now)
	}

	if err := l.Validate(); err != nil {
		return nil, err
	}
	if err := schedule.ValidateDeliveryDate(l.DeliveredAt, now); err != nil {
		return nil, err
	}

	for i := range l.Goals {
		g := &l.Goals[i]
		g.ID = uuid.NewString()
		g.LetterID = l.ID
		g.Status = domain.StatusPending
		g.StatusUpdatedAt = now
	}
	for i := range l.Reflections {
		r := &l.Reflections[i]
		r.ID = uuid.NewString()
		r.LetterID = l.ID
		if r.Date.IsZero() {
			r.Date = now
		}
	}

	if err := repo.CreateLetter(ctx, s.DB, l); err != nil {
		return nil, err
	}
	return l, nil
}

// Get returns a letter owned by userID. Letters whose delivery date has not
// elapsed come back with their body redacted: the letter exists and its
// schedule is visible, but Content and the drawings stay sealed until
// delivery.
func (s *LetterService) Get(ctx context.Context, userID, id string) (*domain.Letter, error) {
	l, err := repo.GetLetter(ctx, s.DB, id, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrLetterNotFound
		}
		return nil, err
	}
	s.redactSealed(l)
	return l, nil
}

// ListPage returns a page of the user's letters and the total count, with
// sealed letters redacted the same way as Get.
func (s *LetterService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Letter, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	total, err := repo.CountLetters(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	items, err := repo.ListLettersPage(ctx, s.DB, userID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, err
	}
	for i := range items {
		s.redactSealed(&items[i])
	}
	return items, total, nil
}

// UpdateContent amends the body of a not-yet-delivered letter. The delivery
// rule does not fire here: only the content column changes.
func (s *LetterService) UpdateContent(ctx context.Context, userID, id, content string) error {
	l, err := repo.GetLetter(ctx, s.DB, id, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrLetterNotFound
		}
		return err
	}
	if l.IsDelivered {
		return ErrLetterAlreadyDelivered
	}

	if content == "" {
		return apperr.FieldErrors{}.Add("content", "Letter content is required")
	}
	if utf8.RuneCountInString(content) > 5000 {
		return apperr.FieldErrors{}.Add("content", "Letter content cannot exceed 5000 characters")
	}

	return repo.UpdateLetterColumns(ctx, s.DB, id, userID, map[string]any{"content": content})
}

// Reschedule moves the delivery date of a not-yet-delivered letter. Exactly
// one of interval or date supplies the new target: a valid interval is
// converted relative to now, otherwise the explicit date is used. This is
// the second of the two paths where the seven-day rule fires.
func (s *LetterService) Reschedule(ctx context.Context, userID, id, interval string, date time.Time) error {
	l, err := repo.GetLetter(ctx, s.DB, id, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrLetterNotFound
		}
		return err
	}
	if l.IsDelivered {
		return ErrLetterAlreadyDelivered
	}

	now := s.now()
	cols := map[string]any{}
	target := date
	if interval != "" {
		if !schedule.ValidInterval(interval) {
			return apperr.FieldErrors{}.Add("deliveryInterval", "Delivery interval is not supported")
		}
		target = schedule.ComputeDeliveryDate(interval, now)
		cols["delivery_interval"] = interval
	}
	if err := schedule.ValidateDeliveryDate(target, now); err != nil {
		return err
	}
	cols["delivered_at"] = target

	return repo.UpdateLetterColumns(ctx, s.DB, id, userID, cols)
}

// Deliver flips IsDelivered once the scheduled date has elapsed. The
// scheduling rule is not consulted: only the flag changes.
func (s *LetterService) Deliver(ctx context.Context, userID, id string) error {
	l, err := repo.GetLetter(ctx, s.DB, id, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrLetterNotFound
		}
		return err
	}
	if l.IsDelivered {
		return ErrLetterAlreadyDelivered
	}
	now := s.now()
	if now.Before(schedule.MidnightUTC(l.DeliveredAt)) {
		return ErrLetterSealed
	}
	err = repo.MarkDelivered(ctx, s.DB, id, userID, now)
	if errors.Is(err, repo.ErrNotFound) {
		// Raced with another delivery sweep; the flag is already set.
		return ErrLetterAlreadyDelivered
	}
	return err
}

// AddReflection appends a post-delivery reflection to a delivered letter.
// Content must meet the minimum-effort threshold (50 characters).
func (s *LetterService) AddReflection(ctx context.Context, userID, letterID, content string) (*domain.Reflection, error) {
	l, err := repo.GetLetter(ctx, s.DB, letterID, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrLetterNotFound
		}
		return nil, err
	}
	if !l.IsDelivered {
		return nil, ErrLetterSealed
	}

	r := domain.Reflection{Content: content}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return repo.CreateReflection(ctx, s.DB, letterID, content, s.now())
}

// Delete soft-deletes a letter owned by userID.
func (s *LetterService) Delete(ctx context.Context, userID, id string) error {
	err := repo.DeleteLetter(ctx, s.DB, id, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrLetterNotFound
	}
	return err
}

// redactSealed blanks the unreadable parts of a letter whose delivery date
// has not elapsed.
func (s *LetterService) redactSealed(l *domain.Letter) {
	if l.IsDelivered || !s.now().Before(schedule.MidnightUTC(l.DeliveredAt)) {
		return
	}
	l.Content = ""
	l.Drawing = ""
	l.OverlayDrawing = ""
}

// SuggestTitle derives a concise title from letter content: the first few
// significant words, title-cased and clipped to the column limit. Returns ""
// when the content yields nothing usable; callers fall back to the default.
func (s *LetterService) SuggestTitle(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}
	toks := titleWordRE.FindAllString(strings.ToLower(content), -1)
	if len(toks) == 0 {
		return ""
	}

	loc := s.TitleLocale
	if loc == language.Und {
		loc = language.English
	}
	titleCaser := cases.Title(loc)

	out := make([]string, 0, 6)
	for _, w := range toks {
		if _, skip := titleStopWords[w]; skip {
			continue
		}
		out = append(out, titleCaser.String(w))
		if len(out) >= 6 {
			break
		}
	}
	if len(out) == 0 {
		return ""
	}
	title := strings.Join(out, " ")
	if utf8.RuneCountInString(title) > 100 {
		title = string([]rune(title)[:100])
	}
	return title
}

// Extract Unicode letters with optional trailing numbers.
var titleWordRE = regexp.MustCompile(`[\p{L}]+[\p{N}]*`)

// Minimal English stop-words set for compact titles.
var titleStopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {}, "to": {}, "in": {},
	"is": {}, "are": {}, "for": {}, "on": {}, "with": {}, "by": {}, "from": {},
	"at": {}, "as": {}, "that": {}, "this": {}, "it": {}, "be": {}, "was": {}, "were": {},
	"dear": {}, "future": {}, "me": {}, "myself": {}, "self": {},
}
