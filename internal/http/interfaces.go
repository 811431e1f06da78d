package http

import (
	"context"

	"github.com/mikestefanello/backlite"

	"github.com/paperpaper/catalog/internal/database/audit"
	"github.com/paperpaper/catalog/internal/database/catalog"
	"github.com/paperpaper/catalog/internal/entities"
	"github.com/paperpaper/catalog/internal/importers"
	"github.com/paperpaper/catalog/internal/services"
)

// CatalogReader serves the public catalog pages.
type CatalogReader interface {
	Stats(ctx context.Context) (*catalog.Stats, error)
	ListEvents(ctx context.Context) ([]entities.Event, error)
	GetEventBySlug(ctx context.Context, slug string) (*entities.Event, error)
	GetEdition(ctx context.Context, eventSlug string, year int) (*entities.Edition, error)
	ListAuthors(ctx context.Context, page int) ([]catalog.AuthorSummary, int64, error)
	GetAuthorBySlug(ctx context.Context, slug string) (*entities.Author, error)
	GetArticleByID(ctx context.Context, id uint) (*entities.Article, error)
	Search(ctx context.Context, query string, kind catalog.SearchKind) ([]entities.Article, error)
}

type EventManager interface {
	Create(ctx context.Context, userID uint, in services.EventInput) (*entities.Event, error)
	Update(ctx context.Context, userID, id uint, in services.EventInput) (*entities.Event, error)
	Delete(ctx context.Context, userID, id uint) error
	AddEdition(ctx context.Context, userID, eventID uint, in services.EditionInput) (*entities.Edition, error)
}

type ArticleManager interface {
	Create(ctx context.Context, userID uint, in services.ArticleInput) (*entities.Article, error)
	Update(ctx context.Context, userID, id uint, in services.ArticleInput) (*entities.Article, error)
}

type SubscriptionManager interface {
	Subscribe(ctx context.Context, in services.SubscribeInput, ipAddr string) (*entities.NotificationSubscription, services.SubscribeOutcome, error)
	SetActive(ctx context.Context, ids []uint, active bool) (int64, error)
	List(ctx context.Context, active *bool) ([]entities.NotificationSubscription, error)
}

type ImportManager interface {
	Import(ctx context.Context, userID uint, upload importers.Upload) (*entities.ImportRecord, error)
	Get(ctx context.Context, id uint) (*entities.ImportRecord, error)
	List(ctx context.Context, limit, offset int) ([]entities.ImportRecord, int64, error)
}

type AuditReader interface {
	Query(ctx context.Context, filter audit.Filter) ([]entities.AuditEvent, int64, error)
}

// TaskEnqueuer puts background work on the queue.
type TaskEnqueuer interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
}

// ArticleNotifier sends notifications inline when there is no task queue.
type ArticleNotifier interface {
	NotifyArticle(ctx context.Context, article *entities.Article)
}

// NotificationAuditor records admin requests to re-send notifications.
type NotificationAuditor interface {
	LogNotification(userID uint, articleID uint, action string, err error)
}
