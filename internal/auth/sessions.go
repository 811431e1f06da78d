package auth

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"

	"github.com/paperpaper/catalog/internal/config"
	"github.com/paperpaper/catalog/internal/entities"
)

const (
	sessionKeyUserID  = "user_id"
	sessionKeyRole    = "role"
	sessionKeyLoginAt = "login_at"

	sessionCookieName = "paperpaper_session"
)

// SessionManager wraps scs.SessionManager with the catalog's session data.
type SessionManager struct {
	*scs.SessionManager
}

// NewSessionManager stores sessions in the sessions table of the given
// SQLite handle (the one behind GORM).
func NewSessionManager(sqlDB *sql.DB, cfg config.Auth) (*SessionManager, error) {
	_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
	if err != nil {
		return nil, err
	}

	lifetime := cfg.SessionLifetime
	if lifetime <= 0 {
		lifetime = 24 * time.Hour
	}

	sm := scs.New()
	sm.Store = sqlite3store.New(sqlDB)
	sm.Lifetime = lifetime
	sm.IdleTimeout = lifetime / 2
	sm.Cookie.Name = sessionCookieName
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"

	return &SessionManager{SessionManager: sm}, nil
}

// CreateSession starts a fresh session for user after a successful login.
func (sm *SessionManager) CreateSession(ctx context.Context, user *entities.User) error {
	// A new token on every login prevents session fixation.
	if err := sm.RenewToken(ctx); err != nil {
		return err
	}

	sm.Put(ctx, sessionKeyUserID, int(user.ID))
	sm.Put(ctx, sessionKeyRole, string(user.Role))
	sm.Put(ctx, sessionKeyLoginAt, time.Now().Unix())
	return nil
}

func (sm *SessionManager) DestroySession(ctx context.Context) error {
	return sm.Destroy(ctx)
}

// UserID returns the logged-in user, or 0.
func (sm *SessionManager) UserID(ctx context.Context) uint {
	return uint(sm.GetInt(ctx, sessionKeyUserID))
}

// LoginAt returns when the session was created, or the zero time.
func (sm *SessionManager) LoginAt(ctx context.Context) time.Time {
	unix := sm.GetInt64(ctx, sessionKeyLoginAt)
	if unix == 0 {
		return time.Time{}
	}
	return time.Unix(unix, 0)
}
