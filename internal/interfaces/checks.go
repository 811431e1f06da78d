package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/paperpaper/catalog/internal/audit"
	"github.com/paperpaper/catalog/internal/auth"
	"github.com/paperpaper/catalog/internal/database"
	"github.com/paperpaper/catalog/internal/database/catalog"
	"github.com/paperpaper/catalog/internal/database/imports"
	"github.com/paperpaper/catalog/internal/database/subscriptions"
	"github.com/paperpaper/catalog/internal/http"
	"github.com/paperpaper/catalog/internal/importers"
	"github.com/paperpaper/catalog/internal/notifications"
	"github.com/paperpaper/catalog/internal/scheduler"
	"github.com/paperpaper/catalog/internal/services"
	"github.com/paperpaper/catalog/internal/storage"
	"github.com/paperpaper/catalog/internal/storage/providers/local"
	"github.com/paperpaper/catalog/internal/storage/providers/s3store"
	"github.com/paperpaper/catalog/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

var _ http.Pinger = (*database.Database)(nil)
var _ http.CatalogReader = (*catalog.Repository)(nil)
var _ importers.RecordStore = (*imports.Repository)(nil)
var _ notifications.SubscriptionFinder = (*subscriptions.Repository)(nil)
var _ tasks.ArticleLoader = (*catalog.Repository)(nil)

// =============================================================================
// Storage
// =============================================================================

var _ storage.Client = (*local.Client)(nil)
var _ storage.Client = (*s3store.Client)(nil)
var _ services.Snapshotter = (*audit.Auditor)(nil)

// =============================================================================
// Services
// =============================================================================

var _ http.EventManager = (*services.EventService)(nil)
var _ http.ArticleManager = (*services.ArticleService)(nil)
var _ http.SubscriptionManager = (*services.SubscriptionService)(nil)
var _ http.ImportManager = (*services.ImportService)(nil)

// =============================================================================
// Audit Trail
// =============================================================================

var _ services.AuditLogger = (*audit.Service)(nil)
var _ auth.AuthAuditor = (*audit.Service)(nil)
var _ http.AuditReader = (*audit.Service)(nil)
var _ http.NotificationAuditor = (*audit.Service)(nil)
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)

// =============================================================================
// Import Pipeline
// =============================================================================

var _ importers.EntryResolver = (*importers.Resolver)(nil)
var _ importers.AttachmentBinder = (*importers.Binder)(nil)
var _ services.ImportRunner = (*importers.Pipeline)(nil)

// =============================================================================
// Notifications and Background Work
// =============================================================================

var _ notifications.Mailer = (*notifications.SMTPMailer)(nil)
var _ notifications.Mailer = (*notifications.LogMailer)(nil)
var _ importers.ArticleNotifier = (*notifications.Dispatcher)(nil)
var _ services.ArticleNotifier = (*notifications.Dispatcher)(nil)
var _ tasks.ArticleNotifier = (*notifications.Dispatcher)(nil)
var _ http.ArticleNotifier = (*notifications.Dispatcher)(nil)
var _ http.TaskEnqueuer = (*tasks.Client)(nil)
var _ scheduler.TaskEnqueuer = (*tasks.Client)(nil)
