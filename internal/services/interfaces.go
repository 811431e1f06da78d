package services

import (
	"context"

	"github.com/paperpaper/catalog/internal/entities"
)

// ArticleNotifier tells subscribers about an article whose author set is final.
type ArticleNotifier interface {
	NotifyArticle(ctx context.Context, article *entities.Article)
}

// AuditLogger receives the admin actions performed through the services.
type AuditLogger interface {
	LogCatalog(userID uint, action, entityType string, entityID uint, description string)
	LogImport(userID uint, record *entities.ImportRecord, err error)
	LogSubscription(subscriptionID uint, outcome, ipAddr string)
}
