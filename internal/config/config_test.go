package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_Defaults(t *testing.T) {

	cfg := NewConfig()

	assert.Equal(t, int32(8000), cfg.HTTP.Port)
	assert.Equal(t, int64(200<<20), cfg.HTTP.MaxUploadBytes)
	assert.Equal(t, 6.0, cfg.HTTP.SubscribePerMinute)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, AuthModeLocal, cfg.Auth.Mode)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionLifetime)
	assert.Equal(t, StorageLocal, cfg.Storage.Backend)
	assert.Equal(t, DefaultStorageRoot, cfg.Storage.LocalRoot)
	assert.False(t, cfg.Mail.Enabled)
	assert.Equal(t, 587, cfg.Mail.Port)
	assert.Equal(t, 15*time.Second, cfg.Mail.Timeout)
	assert.Equal(t, "0 3 * * *", cfg.Audit.CleanupSchedule)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestNewConfig_Environment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("AUTH_MODE", "none")
	t.Setenv("STORAGE_BACKEND", "s3")
	t.Setenv("STORAGE_S3_BUCKET", "papers")
	t.Setenv("MAIL_ENABLED", "true")
	t.Setenv("MAIL_HOST", "smtp.example.org")
	t.Setenv("SITE_BASE_URL", "https://papers.example.org")
	t.Setenv("TASK_WORKERS", "4")

	cfg := NewConfig()

	assert.Equal(t, int32(9090), cfg.HTTP.Port)
	assert.Equal(t, AuthModeNone, cfg.Auth.Mode)
	assert.Equal(t, StorageS3, cfg.Storage.Backend)
	assert.Equal(t, "papers", cfg.Storage.S3Bucket)
	assert.True(t, cfg.Mail.Enabled)
	assert.Equal(t, "smtp.example.org", cfg.Mail.Host)
	assert.Equal(t, "https://papers.example.org", cfg.Site.BaseURL)
	assert.Equal(t, 4, cfg.Tasks.Workers)
}
