package entrypoint

import (
	"context"
	"encoding/hex"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/paperpaper/catalog/internal/config"
	"github.com/paperpaper/catalog/internal/importers"
	"github.com/paperpaper/catalog/internal/notifications"
	"github.com/paperpaper/catalog/internal/storage/providers/local"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Database: config.Database{Path: filepath.Join(dir, "catalog.db")},
		Auth:     config.Auth{Mode: config.AuthModeLocal, BcryptCost: 4},
		Storage:  config.Storage{Backend: config.StorageLocal, LocalRoot: filepath.Join(dir, "media")},
		Site:     config.Site{BaseURL: "http://papers.test"},
	}
}

func TestNewStorage(t *testing.T) {
	ctx := context.Background()

	store, err := NewStorage(ctx, config.Storage{Backend: config.StorageLocal, LocalRoot: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &local.Client{}, store)

	_, err = NewStorage(ctx, config.Storage{Backend: config.StorageS3})
	assert.ErrorContains(t, err, "bucket")

	_, err = NewStorage(ctx, config.Storage{Backend: "ftp"})
	assert.ErrorContains(t, err, "unknown storage backend")
}

func TestNewMailer(t *testing.T) {
	mailer, err := NewMailer(config.Mail{}, nil)
	require.NoError(t, err)
	assert.IsType(t, &notifications.LogMailer{}, mailer)

	mailer, err = NewMailer(config.Mail{Enabled: true, Host: "smtp.example.org", From: "papers@example.org"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &notifications.SMTPMailer{}, mailer)

	_, err = NewMailer(config.Mail{Enabled: true}, nil)
	assert.Error(t, err)
}

func TestCSRFSecret(t *testing.T) {
	secret, err := csrfSecret("00ff10")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xff, 0x10}, secret)

	secret, err = csrfSecret("not hex at all")
	require.NoError(t, err)
	assert.Equal(t, []byte("not hex at all"), secret)

	secret, err = csrfSecret("")
	require.NoError(t, err)
	assert.Len(t, secret, 32, hex.EncodeToString(secret))
}

func TestNewApp_ImportsAndServes(t *testing.T) {
	ctx := context.Background()
	app, err := NewApp(ctx, testConfig(t), nil, nil)
	require.NoError(t, err)
	defer app.Close()

	record, err := app.Imports.Import(ctx, 0, importers.Upload{
		BibliographyName: "sbes.bib",
		Bibliography: []byte(`@inproceedings{k1,
  title = {Testing in the Small},
  author = {Maria Silva},
  booktitle = {SBES},
  year = {2023}
}`),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, record.SuccessfulImports)

	stats, err := app.Catalog.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.TotalArticles)

	has, err := app.Users.HasUsers()
	require.NoError(t, err)
	assert.False(t, has)
}

func TestRun_StopsTaskWorkersOnStartupError(t *testing.T) {
	cfg := testConfig(t)
	cfg.Tasks.Enabled = true
	cfg.Audit.CleanupSchedule = "every other tuesday"

	done := make(chan error, 1)
	go func() { done <- Run(cfg, "test", zap.NewNop()) }()

	select {
	case err := <-done:
		assert.ErrorContains(t, err, "invalid cron schedule")
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after the scheduler failed to start")
	}
}
