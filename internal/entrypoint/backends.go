package entrypoint

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/paperpaper/catalog/internal/config"
	"github.com/paperpaper/catalog/internal/notifications"
	"github.com/paperpaper/catalog/internal/storage"
	"github.com/paperpaper/catalog/internal/storage/providers/local"
	"github.com/paperpaper/catalog/internal/storage/providers/s3store"
)

// NewStorage returns the configured attachment backend.
func NewStorage(ctx context.Context, cfg config.Storage) (storage.Client, error) {
	switch cfg.Backend {
	case config.StorageLocal, "":
		client, err := local.NewClient(cfg.LocalRoot)
		if err != nil {
			return nil, fmt.Errorf("failed to open local storage: %w", err)
		}
		return client, nil
	case config.StorageS3:
		client, err := s3store.NewClient(ctx, s3store.Options{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Prefix:    cfg.S3Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open s3 storage: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// NewMailer returns an SMTP mailer when mail is enabled and a logging mailer
// otherwise.
func NewMailer(cfg config.Mail, logger *zap.Logger) (notifications.Mailer, error) {
	if !cfg.Enabled {
		return notifications.NewLogMailer(logger), nil
	}
	mailer, err := notifications.NewSMTPMailer(notifications.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
		Timeout:  cfg.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return mailer, nil
}
