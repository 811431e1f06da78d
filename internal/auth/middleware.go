package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/paperpaper/catalog/internal/config"
	"github.com/paperpaper/catalog/internal/entities"
)

// Context keys for user data
const (
	ContextKeyUserID   = "auth_user_id"
	ContextKeyUsername = "auth_username"
	ContextKeyRole     = "auth_role"
	ContextKeyAuthType = "auth_type"
)

// AuthType indicates how the user was authenticated
type AuthType string

const (
	AuthTypeAnonymous AuthType = "anonymous"
	AuthTypeDisabled  AuthType = "disabled"
	AuthTypeSession   AuthType = "session"
	AuthTypeBearer    AuthType = "bearer"
)

// Middleware identifies the caller and guards protected routes.
type Middleware struct {
	service  *Service
	sessions *SessionManager
	mode     config.AuthMode
}

func NewMiddleware(service *Service, sessions *SessionManager, cfg config.Auth) *Middleware {
	return &Middleware{service: service, sessions: sessions, mode: cfg.Mode}
}

// Identify attaches the caller to the context when a bearer token or a
// session identifies one. It never rejects: the catalog is public and
// RequireAuth / RequireAdmin guard what is not. With auth disabled every
// request acts as an admin.
func (m *Middleware) Identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.mode == config.AuthModeNone {
			c.Set(ContextKeyRole, entities.UserRoleAdmin)
			c.Set(ContextKeyAuthType, AuthTypeDisabled)
			c.Next()
			return
		}

		if user := m.bearerUser(c); user != nil {
			setUserContext(c, user, AuthTypeBearer)
		} else if user := m.sessionUser(c); user != nil {
			setUserContext(c, user, AuthTypeSession)
		} else {
			c.Set(ContextKeyAuthType, AuthTypeAnonymous)
		}
		c.Next()
	}
}

// RequireAuth rejects anonymous callers.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAuthenticated(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// RequireAdmin only lets through callers allowed to import and manage the
// catalog.
func (m *Middleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAuthenticated(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if !CanImport(GetUserRole(c)) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			return
		}
		c.Next()
	}
}

func (m *Middleware) bearerUser(c *gin.Context) *entities.User {
	token, ok := bearerToken(c.GetHeader("Authorization"))
	if !ok {
		return nil
	}
	user, err := m.service.ValidateToken(token)
	if err != nil {
		return nil
	}
	return user
}

func (m *Middleware) sessionUser(c *gin.Context) *entities.User {
	if m.sessions == nil {
		return nil
	}
	userID := m.sessions.UserID(c.Request.Context())
	if userID == 0 {
		return nil
	}
	user, err := m.service.GetUserByID(userID)
	if err != nil {
		return nil
	}
	return user
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" value.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

func setUserContext(c *gin.Context, user *entities.User, authType AuthType) {
	c.Set(ContextKeyUserID, user.ID)
	c.Set(ContextKeyUsername, user.Username)
	c.Set(ContextKeyRole, user.Role)
	c.Set(ContextKeyAuthType, authType)
}

// GetUserID returns the authenticated user's ID, or 0.
func GetUserID(c *gin.Context) uint {
	return c.GetUint(ContextKeyUserID)
}

func GetUsername(c *gin.Context) string {
	return c.GetString(ContextKeyUsername)
}

func GetUserRole(c *gin.Context) entities.UserRole {
	if r, exists := c.Get(ContextKeyRole); exists {
		if role, ok := r.(entities.UserRole); ok {
			return role
		}
	}
	return ""
}

func GetAuthType(c *gin.Context) AuthType {
	if t, exists := c.Get(ContextKeyAuthType); exists {
		if authType, ok := t.(AuthType); ok {
			return authType
		}
	}
	return AuthTypeAnonymous
}

// IsAuthenticated is true for a known user or when auth is disabled.
func IsAuthenticated(c *gin.Context) bool {
	switch GetAuthType(c) {
	case AuthTypeSession, AuthTypeBearer, AuthTypeDisabled:
		return true
	}
	return false
}
