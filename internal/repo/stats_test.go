package repo

import (
	"context"
	"testing"
	"time"

	"github.com/futureletters/backend/internal/domain"
)

func TestLettersStats_Empty(t *testing.T) {
	db := newLetterRepoDB(t, &domain.Letter{})

	count, maxTS, err := LettersStats(context.Background(), db, "u1")
	if err != nil {
		t.Fatalf("LettersStats: %v", err)
	}
	if count != 0 || maxTS != nil {
		t.Fatalf("empty user: count=%d maxTS=%v; want 0, nil", count, maxTS)
	}
}

func TestLettersStats_CountsAndLatestTimestamp(t *testing.T) {
	db := newLetterRepoDB(t, &domain.Letter{})
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	seedLetter(t, db, "l1", "u1", base)
	seedLetter(t, db, "l2", "u1", base.AddDate(0, 1, 0))
	seedLetter(t, db, "x", "u2", base)

	// Force a known latest UpdatedAt.
	latest := time.Date(2026, 5, 5, 10, 0, 0, 0, time.UTC)
	if err := db.Model(&domain.Letter{}).Where("id = ?", "l2").
		UpdateColumn("updated_at", latest).Error; err != nil {
		t.Fatalf("bump updated_at: %v", err)
	}

	count, maxTS, err := LettersStats(context.Background(), db, "u1")
	if err != nil {
		t.Fatalf("LettersStats: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d; want 2", count)
	}
	if maxTS == nil || !maxTS.Equal(latest) {
		t.Fatalf("maxTS = %v; want %v", maxTS, latest)
	}
}

func TestLettersStats_ExcludesSoftDeleted(t *testing.T) {
	db := newLetterRepoDB(t, &domain.Letter{})
	seedLetter(t, db, "l1", "u1", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	if err := DeleteLetter(context.Background(), db, "l1", "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	count, maxTS, err := LettersStats(context.Background(), db, "u1")
	if err != nil {
		t.Fatalf("LettersStats: %v", err)
	}
	if count != 0 || maxTS != nil {
		t.Fatalf("soft-deleted rows counted: count=%d maxTS=%v", count, maxTS)
	}
}
