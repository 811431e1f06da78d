package http

import (
	"github.com/paperpaper/catalog/internal/auth"
	"github.com/paperpaper/catalog/internal/metrics"
	"github.com/paperpaper/catalog/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// RouterConfig carries every dependency of the router. Optional pieces may
// be nil: without a session manager there is no cookie login, without a
// task queue notification resends run inline.
type RouterConfig struct {
	Version string
	Logger  *zap.Logger

	// Health
	Database Pinger

	// Public catalog
	Catalog       CatalogReader
	Store         storage.Client
	Subscriptions SubscriptionManager

	// Admin surface
	Events   EventManager
	Articles ArticleManager
	Imports  ImportManager
	Audit    AuditReader

	// Notification resends
	TaskQueue   TaskEnqueuer
	Notifier    ArticleNotifier
	NotifyAudit NotificationAuditor

	// Authentication
	AuthService    *auth.Service
	AuthMiddleware *auth.Middleware
	SessionManager *auth.SessionManager
	LoginLimiter   *auth.LoginLimiter
	AuthAudit      auth.AuthAuditor
	CSRFSecret     []byte
	SecureCookies  bool

	// SubscribeThrottle limits the public subscription form per client.
	SubscribeThrottle *auth.Throttle

	// MaxUploadBytes bounds one import request.
	MaxUploadBytes int64

	// Observability
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}
