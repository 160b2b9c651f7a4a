package repository

import (
	"context"
	"fmt"

	"github.com/wardflow/wardflow/internal/domain/sequence"
	"gorm.io/gorm"
)

// SequenceGenerator issues reference numbers from the persisted per-code
// counters. The upsert increments atomically, so concurrent callers never
// observe the same value; called inside the enclosing transaction the number
// is burned only on commit.
type SequenceGenerator struct {
	db *gorm.DB
}

func NewSequenceGenerator(db *gorm.DB) *SequenceGenerator {
	return &SequenceGenerator{db: db}
}

func (g *SequenceGenerator) Next(ctx context.Context, code string) (string, error) {
	var value int64
	err := conn(ctx, g.db).Raw(`
		INSERT INTO core.sequences (code, value) VALUES (?, 1)
		ON CONFLICT (code) DO UPDATE SET value = core.sequences.value + 1
		RETURNING value`, code).Scan(&value).Error
	if err != nil {
		return "", fmt.Errorf("advancing sequence %s: %w", code, err)
	}
	return sequence.Format(code, value), nil
}
