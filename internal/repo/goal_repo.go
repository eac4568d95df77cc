// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Goal and
// Reflection models.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/futureletters/backend/internal/domain"
)

// GetGoal fetches a goal by ID scoped to its letter. Returns ErrNotFound
// when missing.
func GetGoal(ctx context.Context, db *gorm.DB, letterID, goalID string) (*domain.Goal, error) {
	var g domain.Goal
	err := db.WithContext(ctx).
		Where("id = ? AND letter_id = ?", goalID, letterID).
		First(&g).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// CountGoals returns how many goals a letter currently holds.
func CountGoals(ctx context.Context, db *gorm.DB, letterID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Goal{}).
		Where("letter_id = ?", letterID).
		Count(&total).Error
	return total, err
}

// SaveGoal persists all columns of an existing goal.
func SaveGoal(ctx context.Context, db *gorm.DB, g *domain.Goal) error {
	return db.WithContext(ctx).Save(g).Error
}

// CreateGoal inserts a new goal row.
func CreateGoal(ctx context.Context, db *gorm.DB, g *domain.Goal) error {
	err := db.WithContext(ctx).Create(g).Error
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// CreateReflection inserts a reflection row for a letter.
func CreateReflection(ctx context.Context, db *gorm.DB, letterID, content string, date time.Time) (*domain.Reflection, error) {
	r := &domain.Reflection{
		ID:       uuid.NewString(),
		LetterID: letterID,
		Content:  content,
		Date:     date,
	}
	if err := db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, err
	}
	return r, nil
}

// isUniqueViolation detects unique-constraint failures across drivers that
// may not map to gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// SQLite typically: "UNIQUE constraint failed"
	// Postgres typically: "duplicate key value violates unique constraint"
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
