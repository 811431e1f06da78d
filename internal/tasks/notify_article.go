package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"go.uber.org/zap"

	"github.com/paperpaper/catalog/internal/entities"
)

// ArticleLoader loads an article with its edition, event and authors.
type ArticleLoader interface {
	GetArticleByID(ctx context.Context, id uint) (*entities.Article, error)
}

// ArticleNotifier mails the subscribers of an article's authors.
type ArticleNotifier interface {
	NotifyArticle(ctx context.Context, article *entities.Article)
}

// NotifyArticleTask re-sends the notification emails of one article, for
// example after the mail server was down during an import.
type NotifyArticleTask struct {
	ArticleID   uint `json:"article_id"`
	RequestedBy uint `json:"requested_by,omitempty"`
}

func (t NotifyArticleTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "notify_article",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

func NotifyArticleProcessor(articles ArticleLoader, notifier ArticleNotifier, logger *zap.Logger) backlite.QueueProcessor[NotifyArticleTask] {
	return func(ctx context.Context, task NotifyArticleTask) error {
		if articles == nil || notifier == nil {
			return errors.New("article notifier not configured")
		}

		article, err := articles.GetArticleByID(ctx, task.ArticleID)
		if err != nil {
			return fmt.Errorf("load article %d: %w", task.ArticleID, err)
		}
		if len(article.Authors) == 0 {
			logger.Info("article has no authors, nothing to notify", zap.Uint("article_id", article.ID))
			return nil
		}

		notifier.NotifyArticle(ctx, article)
		logger.Info("article notifications sent",
			zap.Uint("article_id", article.ID),
			zap.Int("authors", len(article.Authors)),
		)
		return nil
	}
}

func NewNotifyArticleQueue(articles ArticleLoader, notifier ArticleNotifier, logger *zap.Logger) backlite.Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return backlite.NewQueue(NotifyArticleProcessor(articles, notifier, logger))
}
