// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Letter
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a letter is not found, functions return ErrNotFound
//     (an alias of gorm.ErrRecordNotFound).
//   - On other DB errors the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/futureletters/backend/internal/domain"
)

// CreateLetter inserts a letter row together with its nested goals and
// reflections (GORM persists associations in the same statement batch).
func CreateLetter(ctx context.Context, db *gorm.DB, l *domain.Letter) error {
	return db.WithContext(ctx).Create(l).Error
}

// GetLetter fetches a letter by ID ensuring it belongs to userID, preloading
// goals and reflections. Returns ErrNotFound when missing or owned by
// someone else.
func GetLetter(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Letter, error) {
	var l domain.Letter
	err := db.WithContext(ctx).
		Preload("Goals").
		Preload("Reflections").
		Where("id = ? AND user_id = ?", id, userID).
		First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// CountLetters returns the total number of letters owned by userID.
func CountLetters(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Letter{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListLettersPage returns a page of a user's letters ordered by delivery
// date descending, then ID for determinism. Nested documents are preloaded.
func ListLettersPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Letter, error) {
	var out []domain.Letter
	err := db.WithContext(ctx).
		Preload("Goals").
		Preload("Reflections").
		Where("user_id = ?", userID).
		Order("delivered_at DESC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// UpdateLetterColumns applies a partial update to a letter owned by userID.
// Returns ErrNotFound when no row matched.
func UpdateLetterColumns(ctx context.Context, db *gorm.DB, id, userID string, cols map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.Letter{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkDelivered flips IsDelivered on letters whose delivery date has elapsed.
// It intentionally touches no other column, so the scheduling rule is never
// re-triggered by delivery sweeps.
func MarkDelivered(ctx context.Context, db *gorm.DB, id, userID string, now time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.Letter{}).
		Where("id = ? AND user_id = ? AND is_delivered = ? AND delivered_at <= ?", id, userID, false, now).
		Update("is_delivered", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteLetter soft-deletes a letter owned by userID.
func DeleteLetter(ctx context.Context, db *gorm.DB, id, userID string) error {
	res := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.Letter{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
