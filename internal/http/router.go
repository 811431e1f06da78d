package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/paperpaper/catalog/internal/auth"
	"github.com/paperpaper/catalog/internal/logging"
)

// NewRouter builds the JSON API.
//
// Middleware order: sessions load before CSRF so the CSRF check sees the
// session cookie, and Identify runs last so handlers see the caller.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logging.RequestLogger(logger))
	if cfg.Metrics != nil {
		router.Use(MetricsMiddleware(cfg.Metrics))
	}
	router.Use(auth.SecurityHeadersMiddleware())
	router.Use(auth.StrictTransportSecurityMiddleware())

	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.LoadAndSave())
	}
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies, cfg.AuthService))
	}
	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Identify())
	}

	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	// Auth routes only make sense with a user store.
	if cfg.AuthService != nil && cfg.AuthService.IsAuthEnabled() && cfg.AuthMiddleware != nil {
		authController := auth.NewAuthController(cfg.AuthService, cfg.SessionManager, cfg.LoginLimiter, cfg.AuthAudit)
		authController.RegisterRoutes(router, cfg.AuthMiddleware)
	}

	api := router.Group("/api")
	if cfg.Catalog != nil {
		catalog := NewCatalogController(cfg.Catalog, cfg.Store)
		api.GET("/stats", catalog.Stats)
		api.GET("/events", catalog.ListEvents)
		api.GET("/events/:slug", catalog.GetEvent)
		api.GET("/events/:slug/:year", catalog.GetEdition)
		api.GET("/events/:slug/:year/bibtex", catalog.ExportEdition)
		api.GET("/authors", catalog.ListAuthors)
		api.GET("/authors/:slug", catalog.GetAuthor)
		api.GET("/authors/:slug/bibtex", catalog.ExportAuthor)
		api.GET("/articles/:id", catalog.GetArticle)
		api.GET("/articles/:id/attachment", catalog.DownloadAttachment)
		api.GET("/search", catalog.Search)
	}

	var subscriptions *SubscriptionsController
	if cfg.Subscriptions != nil {
		subscriptions = NewSubscriptionsController(cfg.Subscriptions)
		handlers := []gin.HandlerFunc{}
		if cfg.SubscribeThrottle != nil {
			handlers = append(handlers, cfg.SubscribeThrottle.Middleware())
		}
		handlers = append(handlers, subscriptions.Subscribe)
		api.POST("/subscriptions", handlers...)
	}

	admin := api.Group("/admin")
	if cfg.AuthMiddleware != nil {
		admin.Use(cfg.AuthMiddleware.RequireAdmin())
	} else {
		admin.Use(func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: "admin surface is not configured"})
		})
	}

	if cfg.Events != nil {
		events := NewEventsController(cfg.Events)
		admin.POST("/events", events.Create)
		admin.PUT("/events/:id", events.Update)
		admin.DELETE("/events/:id", events.Delete)
		admin.POST("/events/:id/editions", events.AddEdition)
	}
	if cfg.Articles != nil {
		articles := NewArticlesController(cfg.Articles, cfg.Catalog, cfg.TaskQueue, cfg.Notifier, cfg.NotifyAudit)
		admin.POST("/articles", articles.Create)
		admin.PUT("/articles/:id", articles.Update)
		if cfg.Catalog != nil {
			admin.POST("/articles/:id/notify", articles.Notify)
		}
	}
	if subscriptions != nil {
		admin.GET("/subscriptions", subscriptions.List)
		admin.POST("/subscriptions/activate", subscriptions.Activate)
		admin.POST("/subscriptions/deactivate", subscriptions.Deactivate)
	}
	if cfg.Imports != nil {
		imports := NewImportsController(cfg.Imports, cfg.MaxUploadBytes)
		admin.POST("/imports", imports.Import)
		admin.GET("/imports", imports.List)
		admin.GET("/imports/:id", imports.Get)
	}
	if cfg.Audit != nil {
		audit := NewAuditController(cfg.Audit)
		admin.GET("/audit", audit.GetAuditEvents)
	}

	return router
}
