// Package subscriptions provides database operations for author
// notification subscriptions.
package subscriptions

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/paperpaper/catalog/internal/entities"
)

var ErrNotFound = errors.New("subscription not found")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindActiveByFullName returns active subscriptions whose full name equals
// fullName ignoring case.
func (r *Repository) FindActiveByFullName(ctx context.Context, fullName string) ([]entities.NotificationSubscription, error) {
	var subs []entities.NotificationSubscription
	err := r.db.WithContext(ctx).
		Where("full_name_folded = ? AND is_active = ?", entities.FoldName(fullName), true).
		Order("id ASC").
		Find(&subs).Error
	return subs, err
}

// Find looks a subscription up by its exact (full name, email) pair.
func (r *Repository) Find(ctx context.Context, fullName, email string) (*entities.NotificationSubscription, error) {
	var sub entities.NotificationSubscription
	err := r.db.WithContext(ctx).Where("full_name = ? AND email = ?", fullName, email).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (r *Repository) Create(ctx context.Context, sub *entities.NotificationSubscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *Repository) SetActive(ctx context.Context, id uint, active bool) error {
	return r.db.WithContext(ctx).Model(&entities.NotificationSubscription{}).
		Where("id = ?", id).
		Update("is_active", active).Error
}

// SetActiveBulk flips is_active for the given ids and returns how many rows changed.
func (r *Repository) SetActiveBulk(ctx context.Context, ids []uint, active bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Model(&entities.NotificationSubscription{}).
		Where("id IN ?", ids).
		Update("is_active", active)
	return result.RowsAffected, result.Error
}

// BackfillFoldedNames fills FullNameFolded on rows saved before the column
// existed.
func (r *Repository) BackfillFoldedNames(ctx context.Context) error {
	var subs []entities.NotificationSubscription
	err := r.db.WithContext(ctx).
		Where("full_name_folded IS NULL OR full_name_folded = ?", "").
		Find(&subs).Error
	if err != nil {
		return err
	}
	for i := range subs {
		err := r.db.WithContext(ctx).Model(&subs[i]).
			UpdateColumn("full_name_folded", entities.FoldName(subs[i].FullName)).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// List returns subscriptions newest first, optionally filtered by active flag.
func (r *Repository) List(ctx context.Context, active *bool) ([]entities.NotificationSubscription, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if active != nil {
		query = query.Where("is_active = ?", *active)
	}
	var subs []entities.NotificationSubscription
	err := query.Find(&subs).Error
	return subs, err
}
