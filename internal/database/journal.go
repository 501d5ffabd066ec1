package database

import (
	"context"
	"errors"
	"fmt"

	"go-pos-terminal/internal/models"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

// Journal is the local record of completed sales.
type Journal struct {
	db *gorm.DB
}

func NewJournal(db *gorm.DB) *Journal {
	return &Journal{db: db}
}

// Record stores an entry together with its lines.
func (j *Journal) Record(ctx context.Context, entry *models.JournalEntry) error {
	if err := j.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("journal %s: %w", entry.InvoiceNumber, err)
	}
	return nil
}

func (j *Journal) FindByNumber(ctx context.Context, number string) (*models.JournalEntry, error) {
	var entry models.JournalEntry
	err := j.db.WithContext(ctx).Preload("Lines").Where("invoice_number = ?", number).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Entries returns sales issued inside r, newest first. limit <= 0 means all.
func (j *Journal) Entries(ctx context.Context, r Range, limit int) ([]models.JournalEntry, error) {
	var out []models.JournalEntry
	q := r.apply(j.db.WithContext(ctx), "issued_at").Preload("Lines").Order("issued_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
