package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AuthMode string

const (
	AuthModeNone  AuthMode = "none"  // Every request acts as admin (development)
	AuthModeLocal AuthMode = "local" // Local user database with sessions
)

type StorageBackend string

const (
	StorageLocal StorageBackend = "local"
	StorageS3    StorageBackend = "s3"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Auth
		Tasks
		Mail
		Storage
		Site
		Audit
		Log
	}

	HTTP struct {
		Port           int32
		Host           string
		MaxUploadBytes int64 // Upper bound for one import request

		SubscribePerMinute float64 // Public subscription requests per client IP
		SubscribeBurst     int
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Auth struct {
		Mode            AuthMode
		SessionSecret   string
		SessionLifetime time.Duration
		TokenExpiry     time.Duration
		BcryptCost      int
		SecureCookies   bool // Set to false for local dev without HTTPS

		MaxLoginAttempts int           // Failed attempts before lockout
		LockoutDuration  time.Duration // How long a locked account stays locked
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		MaxRetries      int
		RetryDelay      time.Duration
		TaskTimeout     time.Duration
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Mail struct {
		Enabled  bool // When false, messages are written to the log instead of sent
		Host     string
		Port     int
		Username string
		Password string
		From     string
		Timeout  time.Duration
	}
	Storage struct {
		Backend   StorageBackend
		LocalRoot string

		S3Endpoint  string
		S3Region    string
		S3Bucket    string
		S3AccessKey string
		S3SecretKey string
		S3Prefix    string
	}
	Site struct {
		BaseURL string // Public URL used in notification links
	}
	Audit struct {
		RetentionDays   int
		CleanupSchedule string // Cron format: "0 3 * * *" = daily at 03:00
	}
	Log struct {
		Level       string
		Development bool
	}
)

// NewConfig reads the configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment variables
// win over it.
func NewConfig() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8000)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("http_max_upload_bytes", 200<<20)
	v.SetDefault("http_subscribe_per_minute", 6)
	v.SetDefault("http_subscribe_burst", 3)
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("database_path", DefaultDatabasePath)

	v.SetDefault("auth_mode", "local")
	v.SetDefault("auth_session_secret", "")
	v.SetDefault("auth_session_lifetime", "24h")
	v.SetDefault("auth_token_expiry", "720h")
	v.SetDefault("auth_bcrypt_cost", 12)
	v.SetDefault("auth_secure_cookies", true)
	v.SetDefault("auth_max_login_attempts", 5)
	v.SetDefault("auth_lockout_duration", "30m")

	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "5m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	v.SetDefault("mail_enabled", false)
	v.SetDefault("mail_host", "")
	v.SetDefault("mail_port", 587)
	v.SetDefault("mail_from", DefaultMailFrom)
	v.SetDefault("mail_timeout", "15s")

	v.SetDefault("storage_backend", string(StorageLocal))
	v.SetDefault("storage_local_root", DefaultStorageRoot)
	v.SetDefault("storage_s3_region", "us-east-1")

	v.SetDefault("site_base_url", DefaultSiteURL)

	v.SetDefault("audit_retention_days", 90)
	v.SetDefault("audit_cleanup_schedule", "0 3 * * *")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_development", false)

	return &Config{
		HTTP: HTTP{
			Port:               v.GetInt32("PORT"),
			Host:               v.GetString("HOST"),
			MaxUploadBytes:     v.GetInt64("HTTP_MAX_UPLOAD_BYTES"),
			SubscribePerMinute: v.GetFloat64("HTTP_SUBSCRIBE_PER_MINUTE"),
			SubscribeBurst:     v.GetInt("HTTP_SUBSCRIBE_BURST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Auth: Auth{
			Mode:             AuthMode(v.GetString("AUTH_MODE")),
			SessionSecret:    v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime:  v.GetDuration("AUTH_SESSION_LIFETIME"),
			TokenExpiry:      v.GetDuration("AUTH_TOKEN_EXPIRY"),
			BcryptCost:       v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:    v.GetBool("AUTH_SECURE_COOKIES"),
			MaxLoginAttempts: v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			LockoutDuration:  v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			MaxRetries:      v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:      v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:     v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Mail: Mail{
			Enabled:  v.GetBool("MAIL_ENABLED"),
			Host:     v.GetString("MAIL_HOST"),
			Port:     v.GetInt("MAIL_PORT"),
			Username: v.GetString("MAIL_USERNAME"),
			Password: v.GetString("MAIL_PASSWORD"),
			From:     v.GetString("MAIL_FROM"),
			Timeout:  v.GetDuration("MAIL_TIMEOUT"),
		},
		Storage: Storage{
			Backend:     StorageBackend(v.GetString("STORAGE_BACKEND")),
			LocalRoot:   v.GetString("STORAGE_LOCAL_ROOT"),
			S3Endpoint:  v.GetString("STORAGE_S3_ENDPOINT"),
			S3Region:    v.GetString("STORAGE_S3_REGION"),
			S3Bucket:    v.GetString("STORAGE_S3_BUCKET"),
			S3AccessKey: v.GetString("STORAGE_S3_ACCESS_KEY"),
			S3SecretKey: v.GetString("STORAGE_S3_SECRET_KEY"),
			S3Prefix:    v.GetString("STORAGE_S3_PREFIX"),
		},
		Site: Site{
			BaseURL: v.GetString("SITE_BASE_URL"),
		},
		Audit: Audit{
			RetentionDays:   v.GetInt("AUDIT_RETENTION_DAYS"),
			CleanupSchedule: v.GetString("AUDIT_CLEANUP_SCHEDULE"),
		},
		Log: Log{
			Level:       v.GetString("LOG_LEVEL"),
			Development: v.GetBool("LOG_DEVELOPMENT"),
		},
	}
}
