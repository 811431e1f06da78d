// Package users provides database lookups for catalog staff and viewers.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.GetUserByUsername("editor")
package users

import (
	"errors"

	"gorm.io/gorm"

	"github.com/paperpaper/catalog/internal/entities"
)

var ErrUserNotFound = errors.New("user not found")

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(id uint) (*entities.User, error) {
	var user entities.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username or email.
func (r *Repository) GetUserByUsername(username string) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("username = ? OR email = ?", username, username).First(&user).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// CreateUser inserts a new user.
func (r *Repository) CreateUser(user *entities.User) error {
	return r.db.Create(user).Error
}

// Exists reports whether a user already uses the username or the email.
func (r *Repository) Exists(username, email string) (bool, error) {
	var count int64
	err := r.db.Model(&entities.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error
	return count > 0, err
}

// GetUserByTokenHash retrieves the owner of a hashed API token.
func (r *Repository) GetUserByTokenHash(hash string) (*entities.User, error) {
	if hash == "" {
		return nil, ErrUserNotFound
	}
	var user entities.User
	if err := r.db.Where("token_hash = ?", hash).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// UpdateFields writes the given columns on one user.
func (r *Repository) UpdateFields(id uint, fields map[string]any) error {
	result := r.db.Model(&entities.User{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// CountUsers returns the number of users.
func (r *Repository) CountUsers() (int64, error) {
	var count int64
	err := r.db.Model(&entities.User{}).Count(&count).Error
	return count, err
}

// ListUsers returns all users ordered by username.
func (r *Repository) ListUsers() ([]entities.User, error) {
	var list []entities.User
	err := r.db.Order("username ASC").Find(&list).Error
	return list, err
}

// CountAdmins returns how many users hold the admin role.
func (r *Repository) CountAdmins() (int64, error) {
	var count int64
	err := r.db.Model(&entities.User{}).Where("role = ?", entities.UserRoleAdmin).Count(&count).Error
	return count, err
}

// SetRole changes a user's role.
func (r *Repository) SetRole(id uint, role entities.UserRole) error {
	result := r.db.Model(&entities.User{}).Where("id = ?", id).Update("role", role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	return err
}
