package entities

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// NotificationSubscription registers an email address to be told about new
// articles by the author whose full name matches FullName.
type NotificationSubscription struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	FullName string `gorm:"uniqueIndex:idx_subscription_name_email;size:200;not null" json:"full_name"`
	// FullNameFolded is FullName case-folded in Go; SQLite's LOWER only
	// folds ASCII.
	FullNameFolded string    `gorm:"index;size:200" json:"-"`
	Email          string    `gorm:"uniqueIndex:idx_subscription_name_email;size:254;not null" json:"email"`
	IsActive       bool      `gorm:"index;not null" json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// BeforeSave keeps FullNameFolded in step with FullName.
func (s *NotificationSubscription) BeforeSave(tx *gorm.DB) error {
	if s.FullName != "" {
		s.FullNameFolded = FoldName(s.FullName)
	}
	return nil
}

func (NotificationSubscription) TableName() string {
	return "notification_subscriptions"
}

// FoldName is the case-insensitive form used to match subscribers to authors.
func FoldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
