package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/paperpaper/catalog/internal/database/audit"
	"github.com/paperpaper/catalog/internal/entities"
)

// Service provides high-level audit logging functionality.
type Service struct {
	repo   *audit.Repository
	logger *zap.Logger
	wg     sync.WaitGroup
}

func NewService(repo *audit.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger.Named("audit")}
}

// Log records an audit event synchronously.
func (s *Service) Log(ctx context.Context, event *entities.AuditEvent) error {
	return s.repo.LogEvent(ctx, event)
}

// LogAsync records an audit event in the background. Failures are logged.
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.repo.LogEvent(context.Background(), event); err != nil {
			s.logger.Warn("failed to log audit event",
				zap.String("action", event.Action),
				zap.Error(err),
			)
		}
	}()
}

// Wait blocks until every pending LogAsync write has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// LogImport records a finished or aborted import run.
func (s *Service) LogImport(userID uint, record *entities.ImportRecord, err error) {
	event := &entities.AuditEvent{
		UserID:     userID,
		EventType:  entities.AuditEventImport,
		Action:     "bibtex_import",
		EntityType: "import_record",
		Status:     entities.AuditStatusSuccess,
	}

	if record != nil {
		event.Description = fmt.Sprintf("Imported %s: %d of %d entries (%s)",
			record.BibliographyFile, record.SuccessfulImports, record.TotalEntries, record.SuccessRate())
		if record.ID != 0 {
			id := record.ID
			event.EntityID = &id
		}
		event.Metadata = encodeMetadata(map[string]any{
			"total":      record.TotalEntries,
			"successful": record.SuccessfulImports,
			"failed":     record.FailedImports,
			"archive":    record.ArchiveFile,
		})
	}

	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.LogAsync(event)
}

// LogCatalog records an admin change to an event or article.
func (s *Service) LogCatalog(userID uint, action, entityType string, entityID uint, description string) {
	s.LogAsync(&entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventCatalog,
		Action:      action,
		Description: truncate(description, 500),
		EntityType:  entityType,
		EntityID:    &entityID,
		Status:      entities.AuditStatusSuccess,
	})
}

// LogNotification records a request to notify subscribers about an article.
func (s *Service) LogNotification(userID uint, articleID uint, action string, err error) {
	event := &entities.AuditEvent{
		UserID:     userID,
		EventType:  entities.AuditEventNotification,
		Action:     action,
		EntityType: "article",
		EntityID:   &articleID,
		Status:     entities.AuditStatusSuccess,
	}
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}
	s.LogAsync(event)
}

// LogSubscription records a public subscription request and its outcome.
func (s *Service) LogSubscription(subscriptionID uint, outcome, ipAddr string) {
	s.LogAsync(&entities.AuditEvent{
		EventType:  entities.AuditEventSubscription,
		Action:     "subscription_" + outcome,
		EntityType: "subscription",
		EntityID:   &subscriptionID,
		IPAddress:  ipAddr,
		Status:     entities.AuditStatusSuccess,
	})
}

// LogAuth records an authentication event.
func (s *Service) LogAuth(userID uint, action string, ipAddr, userAgent string, success bool) {
	event := &entities.AuditEvent{
		UserID:    userID,
		EventType: entities.AuditEventAuth,
		Action:    action,
		IPAddress: ipAddr,
		UserAgent: truncate(userAgent, 500),
		Status:    entities.AuditStatusSuccess,
	}

	if !success {
		event.Status = entities.AuditStatusFailed
	}

	s.LogAsync(event)
}

// Query returns audit events newest first plus the unpaginated total.
func (s *Service) Query(ctx context.Context, filter audit.Filter) ([]entities.AuditEvent, int64, error) {
	return s.repo.Query(ctx, filter)
}

// DeleteOldEvents removes events older than the retention window.
func (s *Service) DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error) {
	return s.repo.DeleteOlderThan(ctx, time.Now().Add(-retention))
}

func encodeMetadata(v map[string]any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
