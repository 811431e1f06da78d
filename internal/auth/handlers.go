package auth

import (
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/paperpaper/catalog/internal/entities"
)

// AuthAuditor records login activity.
type AuthAuditor interface {
	LogAuth(userID uint, action string, ipAddr, userAgent string, success bool)
}

type loginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type setupRequest struct {
	Username        string `json:"username" binding:"required"`
	Email           string `json:"email" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

type passwordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// AuthController serves login, logout, first-run setup and API tokens.
type AuthController struct {
	service  *Service
	sessions *SessionManager
	limiter  *LoginLimiter
	audit    AuthAuditor

	// setupMu serializes first-run setup so two requests cannot both see an
	// empty user table.
	setupMu sync.Mutex
}

func NewAuthController(service *Service, sessions *SessionManager, limiter *LoginLimiter, audit AuthAuditor) *AuthController {
	return &AuthController{
		service:  service,
		sessions: sessions,
		limiter:  limiter,
		audit:    audit,
	}
}

// RegisterRoutes mounts the auth endpoints. mw guards the ones that need a user.
func (ac *AuthController) RegisterRoutes(router gin.IRouter, mw *Middleware) {
	router.POST("/login", ac.Login)
	router.POST("/logout", ac.Logout)
	router.GET("/setup", ac.SetupStatus)
	router.POST("/setup", ac.Setup)

	me := router.Group("/api/me", mw.RequireAuth())
	me.GET("", ac.Me)
	me.POST("/password", ac.ChangePassword)
	me.POST("/token", ac.GenerateToken)
	me.DELETE("/token", ac.RevokeToken)
}

func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}
	ip := c.ClientIP()

	if ac.limiter != nil {
		if allowed, retryAfter := ac.limiter.Allow(ip, req.Username); !allowed {
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many login attempts, try again later"})
			return
		}
	}

	user, err := ac.service.Authenticate(req.Username, req.Password)
	if err != nil {
		if ac.limiter != nil {
			ac.limiter.RecordFailure(ip, req.Username)
		}
		ac.logAuth(0, "login_failed", c, false)

		if errors.Is(err, ErrAccountLocked) {
			c.JSON(http.StatusLocked, gin.H{"error": "account is locked, try again later"})
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
		return
	}

	if ac.limiter != nil {
		ac.limiter.RecordSuccess(ip, req.Username)
	}
	if err := ac.startSession(c, user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}
	ac.logAuth(user.ID, "login", c, true)

	c.JSON(http.StatusOK, userResponse(user))
}

func (ac *AuthController) Logout(c *gin.Context) {
	if ac.sessions != nil {
		userID := ac.sessions.UserID(c.Request.Context())
		_ = ac.sessions.DestroySession(c.Request.Context())
		if userID != 0 {
			ac.logAuth(userID, "logout", c, true)
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// SetupStatus tells a client whether the first admin still has to be created.
func (ac *AuthController) SetupStatus(c *gin.Context) {
	hasUsers, err := ac.service.HasUsers()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"setup_required": !hasUsers})
}

// Setup creates the first admin. It is refused once any user exists.
func (ac *AuthController) Setup(c *gin.Context) {
	ac.setupMu.Lock()
	defer ac.setupMu.Unlock()

	hasUsers, err := ac.service.HasUsers()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		return
	}
	if hasUsers {
		c.JSON(http.StatusConflict, gin.H{"error": "setup already completed"})
		return
	}

	var req setupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username, email, password and confirm_password are required"})
		return
	}
	if req.Password != req.ConfirmPassword {
		c.JSON(http.StatusBadRequest, gin.H{"error": "passwords do not match"})
		return
	}

	user, err := ac.service.CreateUser(req.Username, req.Email, req.Password, entities.UserRoleAdmin)
	if err != nil {
		switch {
		case errors.Is(err, ErrPasswordTooShort), errors.Is(err, ErrPasswordTooLong),
			errors.Is(err, ErrUsernameInvalid), errors.Is(err, ErrEmailInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, ErrUserExists):
			c.JSON(http.StatusConflict, gin.H{"error": "setup already completed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		}
		return
	}

	_ = ac.startSession(c, user)
	ac.logAuth(user.ID, "setup", c, true)
	c.JSON(http.StatusCreated, userResponse(user))
}

// Me describes the caller. In auth-disabled mode there is no stored user.
func (ac *AuthController) Me(c *gin.Context) {
	resp := gin.H{
		"auth_type":  GetAuthType(c),
		"role":       GetUserRole(c),
		"can_import": CanImport(GetUserRole(c)),
		"csrf_token": GetCSRFToken(c),
	}
	if userID := GetUserID(c); userID != 0 {
		resp["id"] = userID
		resp["username"] = GetUsername(c)
	}
	c.JSON(http.StatusOK, resp)
}

func (ac *AuthController) ChangePassword(c *gin.Context) {
	userID := GetUserID(c)
	if userID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no user account in this mode"})
		return
	}
	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "old_password and new_password are required"})
		return
	}

	err := ac.service.ChangePassword(userID, req.OldPassword, req.NewPassword)
	switch {
	case errors.Is(err, ErrInvalidPassword):
		c.JSON(http.StatusForbidden, gin.H{"error": "current password is incorrect"})
	case errors.Is(err, ErrPasswordTooShort), errors.Is(err, ErrPasswordTooLong):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to change password"})
	default:
		ac.logAuth(userID, "password_change", c, true)
		c.JSON(http.StatusOK, gin.H{"message": "password changed"})
	}
}

// GenerateToken issues a bearer token for scripted imports.
func (ac *AuthController) GenerateToken(c *gin.Context) {
	userID := GetUserID(c)
	if userID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no user account in this mode"})
		return
	}

	token, err := ac.service.GenerateToken(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	ac.logAuth(userID, "token_generate", c, true)

	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"message": "Store this token securely - it will not be shown again",
	})
}

func (ac *AuthController) RevokeToken(c *gin.Context) {
	userID := GetUserID(c)
	if userID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no user account in this mode"})
		return
	}
	if err := ac.service.RevokeToken(userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke token"})
		return
	}
	ac.logAuth(userID, "token_revoke", c, true)
	c.JSON(http.StatusOK, gin.H{"message": "token revoked"})
}

func (ac *AuthController) startSession(c *gin.Context, user *entities.User) error {
	if ac.sessions == nil {
		return nil
	}
	return ac.sessions.CreateSession(c.Request.Context(), user)
}

func (ac *AuthController) logAuth(userID uint, action string, c *gin.Context, success bool) {
	if ac.audit != nil {
		ac.audit.LogAuth(userID, action, c.ClientIP(), c.Request.UserAgent(), success)
	}
}

func userResponse(user *entities.User) gin.H {
	return gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"email":      user.Email,
		"role":       user.Role,
		"can_import": CanImport(user.Role),
	}
}
