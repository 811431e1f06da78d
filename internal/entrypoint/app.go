package entrypoint

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/paperpaper/catalog/internal/audit"
	"github.com/paperpaper/catalog/internal/auth"
	"github.com/paperpaper/catalog/internal/config"
	"github.com/paperpaper/catalog/internal/database"
	auditrepo "github.com/paperpaper/catalog/internal/database/audit"
	"github.com/paperpaper/catalog/internal/database/catalog"
	"github.com/paperpaper/catalog/internal/database/imports"
	"github.com/paperpaper/catalog/internal/database/subscriptions"
	"github.com/paperpaper/catalog/internal/database/users"
	"github.com/paperpaper/catalog/internal/importers"
	"github.com/paperpaper/catalog/internal/metrics"
	"github.com/paperpaper/catalog/internal/notifications"
	"github.com/paperpaper/catalog/internal/services"
	"github.com/paperpaper/catalog/internal/storage"
)

// App holds the long-lived components shared by the server and the CLI
// commands.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *metrics.Metrics

	DB      *database.Database
	Store   storage.Client
	Catalog *catalog.Repository

	Audit      *audit.Service
	Snapshots  *audit.Auditor
	Dispatcher *notifications.Dispatcher

	Events        *services.EventService
	Articles      *services.ArticleService
	Subscriptions *services.SubscriptionService
	Imports       *services.ImportService
	Users         *auth.Service
}

// NewApp opens the database and storage and wires the services. reg may be
// nil, in which case metrics are recorded but never exposed.
func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, reg prometheus.Registerer) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	store, err := NewStorage(ctx, cfg.Storage)
	if err != nil {
		db.Close()
		return nil, err
	}

	mailer, err := NewMailer(cfg.Mail, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	m := metrics.New(reg)
	repo := catalog.NewRepository(db.DB)
	subsRepo := subscriptions.NewRepository(db.DB)
	if err := subsRepo.BackfillFoldedNames(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to backfill subscription names: %w", err)
	}
	records := imports.NewRepository(db.DB)

	auditService := audit.NewService(auditrepo.NewRepository(db.DB), logger)
	snapshots := audit.NewAuditor(store, "reports")
	dispatcher := notifications.NewDispatcher(subsRepo, mailer, cfg.Site.BaseURL, logger, m)

	pipeline := importers.NewPipeline(
		importers.NewResolver(repo),
		importers.NewBinder(store, repo, m),
		dispatcher,
		records,
		store,
		logger.Named("import"),
		m,
	)
	pipeline.SetMaxExtractedBytes(cfg.HTTP.MaxUploadBytes)

	return &App{
		Config:        cfg,
		Logger:        logger,
		Metrics:       m,
		DB:            db,
		Store:         store,
		Catalog:       repo,
		Audit:         auditService,
		Snapshots:     snapshots,
		Dispatcher:    dispatcher,
		Events:        services.NewEventService(repo, auditService),
		Articles:      services.NewArticleService(repo, store, dispatcher, auditService, logger),
		Subscriptions: services.NewSubscriptionService(subsRepo, auditService),
		Imports:       services.NewImportService(pipeline, records, auditService, snapshots, logger),
		Users:         auth.NewService(users.NewRepository(db.DB), cfg.Auth),
	}, nil
}

// Close flushes pending audit writes and closes the database.
func (a *App) Close() error {
	a.Audit.Wait()
	if err := a.DB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
