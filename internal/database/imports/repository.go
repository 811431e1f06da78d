// Package imports persists bibliography import reports.
package imports

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/paperpaper/catalog/internal/entities"
)

var ErrNotFound = errors.New("import record not found")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Save(ctx context.Context, record *entities.ImportRecord) error {
	return r.db.WithContext(ctx).Omit("UploadedBy").Create(record).Error
}

func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.ImportRecord, error) {
	var record entities.ImportRecord
	err := r.db.WithContext(ctx).Preload("UploadedBy").First(&record, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// List returns import records newest first.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]entities.ImportRecord, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&entities.ImportRecord{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var records []entities.ImportRecord
	err := r.db.WithContext(ctx).
		Preload("UploadedBy").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error
	return records, total, err
}
