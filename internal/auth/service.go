package auth

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/paperpaper/catalog/internal/config"
	"github.com/paperpaper/catalog/internal/database/users"
	"github.com/paperpaper/catalog/internal/entities"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,64}$`)

var (
	ErrUserNotFound    = users.ErrUserNotFound
	ErrUserExists      = errors.New("user already exists")
	ErrInvalidToken    = errors.New("invalid token")
	ErrTokenExpired    = errors.New("token expired")
	ErrInvalidRole     = errors.New("invalid role")
	ErrAccountLocked   = errors.New("account is locked due to too many failed login attempts")
	ErrUsernameInvalid = errors.New("username must be 3-64 characters, alphanumeric and underscore/hyphen only")
	ErrEmailInvalid    = errors.New("invalid email format")
	ErrLastAdmin       = errors.New("cannot demote the last admin")
)

// CanImport reports whether a role may import bibliographies and manage the
// catalog. Only staff (admins) can.
func CanImport(role entities.UserRole) bool {
	return role == entities.UserRoleAdmin
}

// ValidRole reports whether role is one the service hands out.
func ValidRole(role entities.UserRole) bool {
	return role == entities.UserRoleAdmin || role == entities.UserRoleViewer
}

var credentialsValidator = func() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	return v
}()

type newUser struct {
	Username string `validate:"required,username"`
	Email    string `validate:"required,email,max=254"`
}

// Service handles authentication and user management.
type Service struct {
	users  *users.Repository
	config config.Auth
	now    func() time.Time
}

func NewService(repo *users.Repository, cfg config.Auth) *Service {
	return &Service{users: repo, config: cfg, now: time.Now}
}

// CreateUser creates a new user with password authentication.
func (s *Service) CreateUser(username, email, password string, role entities.UserRole) (*entities.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if err := credentialsValidator.Struct(newUser{Username: username, Email: email}); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && verrs[0].Field() == "Email" {
			return nil, ErrEmailInvalid
		}
		return nil, ErrUsernameInvalid
	}
	if !ValidRole(role) {
		return nil, ErrInvalidRole
	}

	exists, err := s.users.Exists(username, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	passwordHash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
	}
	if err := s.users.CreateUser(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Authenticate checks credentials. Repeated failures lock the account for
// the configured lockout duration.
func (s *Service) Authenticate(username, password string) (*entities.User, error) {
	user, err := s.users.GetUserByUsername(strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}

	now := s.now()
	if user.LockedUntil != nil && now.Before(*user.LockedUntil) {
		return nil, ErrAccountLocked
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		s.recordFailedLogin(user, now)
		return nil, err
	}

	_ = s.users.UpdateFields(user.ID, map[string]any{
		"last_login_at":      now,
		"failed_login_count": 0,
		"locked_until":       nil,
	})
	user.LastLoginAt = &now
	user.FailedLoginCount = 0
	user.LockedUntil = nil
	return user, nil
}

func (s *Service) recordFailedLogin(user *entities.User, now time.Time) {
	user.FailedLoginCount++
	updates := map[string]any{"failed_login_count": user.FailedLoginCount}

	maxAttempts := s.config.MaxLoginAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if user.FailedLoginCount >= maxAttempts {
		lockout := s.config.LockoutDuration
		if lockout <= 0 {
			lockout = 30 * time.Minute
		}
		updates["locked_until"] = now.Add(lockout)
		updates["failed_login_count"] = 0
	}

	_ = s.users.UpdateFields(user.ID, updates)
}

func (s *Service) GetUserByID(id uint) (*entities.User, error) {
	return s.users.GetUserByID(id)
}

// GetUserByUsername accepts a username or an email address.
func (s *Service) GetUserByUsername(username string) (*entities.User, error) {
	return s.users.GetUserByUsername(username)
}

// ValidateToken resolves a plaintext bearer token to its user.
func (s *Service) ValidateToken(token string) (*entities.User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrInvalidToken
	}
	user, err := s.users.GetUserByTokenHash(HashToken(token))
	if errors.Is(err, users.ErrUserNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}

	if s.config.TokenExpiry > 0 && user.TokenCreatedAt != nil &&
		s.now().Sub(*user.TokenCreatedAt) > s.config.TokenExpiry {
		return nil, ErrTokenExpired
	}
	return user, nil
}

// GenerateToken replaces the user's API token and returns the plaintext once.
func (s *Service) GenerateToken(userID uint) (string, error) {
	plaintext, hash, err := GenerateAPIToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	err = s.users.UpdateFields(userID, map[string]any{
		"token":            "",
		"token_hash":       hash,
		"token_created_at": s.now(),
	})
	if err != nil {
		return "", err
	}
	return plaintext, nil
}

func (s *Service) RevokeToken(userID uint) error {
	return s.users.UpdateFields(userID, map[string]any{
		"token":            "",
		"token_hash":       "",
		"token_created_at": nil,
	})
}

func (s *Service) ChangePassword(userID uint, oldPassword, newPassword string) error {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return err
	}
	if err := CheckPassword(oldPassword, user.PasswordHash); err != nil {
		return err
	}

	newHash, err := HashPassword(newPassword, s.config.BcryptCost)
	if err != nil {
		return err
	}
	return s.users.UpdateFields(userID, map[string]any{"password_hash": newHash})
}

// SetRole changes a user's role, refusing to demote the last admin.
func (s *Service) SetRole(userID uint, role entities.UserRole) error {
	if !ValidRole(role) {
		return ErrInvalidRole
	}
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return err
	}
	if user.IsAdmin() && role != entities.UserRoleAdmin {
		admins, err := s.users.CountAdmins()
		if err != nil {
			return err
		}
		if admins <= 1 {
			return ErrLastAdmin
		}
	}
	return s.users.SetRole(userID, role)
}

func (s *Service) ListUsers() ([]entities.User, error) {
	return s.users.ListUsers()
}

// HasUsers returns true if any users exist in the database.
func (s *Service) HasUsers() (bool, error) {
	count, err := s.users.CountUsers()
	return count > 0, err
}

// IsAuthEnabled returns true if authentication is required.
func (s *Service) IsAuthEnabled() bool {
	return s.config.Mode != config.AuthModeNone
}

func (s *Service) Mode() config.AuthMode {
	return s.config.Mode
}
