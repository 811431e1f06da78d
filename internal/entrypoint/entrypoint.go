package entrypoint

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/paperpaper/catalog/internal/auth"
	"github.com/paperpaper/catalog/internal/config"
	http_controllers "github.com/paperpaper/catalog/internal/http"
	"github.com/paperpaper/catalog/internal/scheduler"
	"github.com/paperpaper/catalog/internal/tasks"
)

// loginWindow is how far back failed login attempts are counted per client.
const loginWindow = 15 * time.Minute

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the server until SIGINT or SIGTERM, then drains it within the
// configured shutdown timeout.
func Serve(handler http.Handler, cfg *config.Config, logger *zap.Logger, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case sig := <-quit:
		logger.Info("shutting down server", zap.String("signal", sig.String()), zap.Duration("timeout", timeout))
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Background work stops before the listener so queued tasks are not cut
	// off mid-flight by a closed database.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("server exited")
	return nil
}

// Run wires every component from cfg and serves the API until a signal
// arrives.
func Run(cfg *config.Config, version string, logger *zap.Logger) error {
	logger.Info("starting paperpaper", zap.String("version", version))

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app, err := NewApp(context.Background(), cfg, logger, registry)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("error closing app", zap.Error(err))
		}
	}()

	var taskClient *tasks.Client
	var taskCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.FromConfig(cfg.Tasks), logger, app.Metrics)
		if err != nil {
			return fmt.Errorf("failed to initialize task queue: %w", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				logger.Error("error closing task client", zap.Error(err))
			}
		}()

		taskClient.Register(
			tasks.NewNotifyArticleQueue(app.Catalog, app.Dispatcher, logger),
			tasks.NewCleanupAuditEventsQueue(app.Audit, logger),
		)

		var taskCtx context.Context
		taskCtx, taskCancel = context.WithCancel(context.Background())
		defer taskCancel()
		go taskClient.Start(taskCtx)
	}

	// A nil *tasks.Client must not reach the interfaces below as a non-nil value.
	var queue scheduler.TaskEnqueuer
	var resendQueue http_controllers.TaskEnqueuer
	if taskClient != nil {
		queue = taskClient
		resendQueue = taskClient
	}

	cleanup := scheduler.NewAuditCleanupScheduler(cfg.Audit.CleanupSchedule, cfg.Audit.RetentionDays, queue, app.Audit, logger)
	if err := cleanup.Start(context.Background()); err != nil {
		return fmt.Errorf("failed to start audit cleanup scheduler: %w", err)
	}

	routerCfg := http_controllers.RouterConfig{
		Version:        version,
		Logger:         logger,
		Database:       app.DB,
		Catalog:        app.Catalog,
		Store:          app.Store,
		Subscriptions:  app.Subscriptions,
		Events:         app.Events,
		Articles:       app.Articles,
		Imports:        app.Imports,
		Audit:          app.Audit,
		TaskQueue:      resendQueue,
		Notifier:       app.Dispatcher,
		NotifyAudit:    app.Audit,
		AuthService:    app.Users,
		MaxUploadBytes: cfg.HTTP.MaxUploadBytes,
		Metrics:        app.Metrics,
		Gatherer:       registry,
	}
	if cfg.HTTP.SubscribePerMinute > 0 {
		routerCfg.SubscribeThrottle = auth.NewThrottle(cfg.HTTP.SubscribePerMinute, max(cfg.HTTP.SubscribeBurst, 1))
	}

	pruneCtx, stopPruning := context.WithCancel(context.Background())
	defer stopPruning()
	if cfg.Auth.Mode == config.AuthModeLocal {
		logger.Info("authentication mode: local")
		if err := configureLocalAuth(&routerCfg, app, cfg.Auth); err != nil {
			return err
		}
		go pruneLoginAttempts(pruneCtx, routerCfg.LoginLimiter)
	} else {
		logger.Warn("authentication mode: none, every request acts as admin")
		routerCfg.AuthMiddleware = auth.NewMiddleware(app.Users, nil, cfg.Auth)
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		stopPruning()
		cleanup.Stop()
		if taskClient != nil {
			taskClient.Stop(ctx)
			taskCancel()
		}
	}

	return Serve(router, cfg, logger, onShutdown)
}

func configureLocalAuth(routerCfg *http_controllers.RouterConfig, app *App, cfg config.Auth) error {
	sqlDB, err := app.DB.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get SQL DB for sessions: %w", err)
	}
	sessions, err := auth.NewSessionManager(sqlDB, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize session manager: %w", err)
	}

	secret, err := csrfSecret(cfg.SessionSecret)
	if err != nil {
		return err
	}
	if cfg.SessionSecret == "" {
		app.Logger.Warn("generated a session secret, set AUTH_SESSION_SECRET to keep CSRF tokens valid across restarts")
	}

	routerCfg.SessionManager = sessions
	routerCfg.AuthMiddleware = auth.NewMiddleware(app.Users, sessions, cfg)
	routerCfg.LoginLimiter = auth.NewLoginLimiter(cfg.MaxLoginAttempts, loginWindow, cfg.LockoutDuration)
	routerCfg.AuthAudit = app.Audit
	routerCfg.CSRFSecret = secret
	routerCfg.SecureCookies = cfg.SecureCookies

	if hasUsers, err := app.Users.HasUsers(); err == nil && !hasUsers {
		app.Logger.Info("no users found, POST /setup or run create-admin to add an administrator")
	}
	return nil
}

func pruneLoginAttempts(ctx context.Context, limiter *auth.LoginLimiter) {
	ticker := time.NewTicker(loginWindow)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Prune()
		}
	}
}

// csrfSecret decodes a hex secret, falls back to the raw bytes of any other
// value, and generates one when configured is empty.
func csrfSecret(configured string) ([]byte, error) {
	if configured == "" {
		generated, err := auth.GenerateSessionSecret()
		if err != nil {
			return nil, fmt.Errorf("failed to generate CSRF secret: %w", err)
		}
		configured = generated
	}
	if secret, err := hex.DecodeString(configured); err == nil {
		return secret, nil
	}
	return []byte(configured), nil
}
