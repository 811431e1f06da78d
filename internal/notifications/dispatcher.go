package notifications

import (
	"context"

	"go.uber.org/zap"

	"github.com/paperpaper/catalog/internal/entities"
	"github.com/paperpaper/catalog/internal/metrics"
)

// SubscriptionFinder returns active subscriptions for an author name,
// matched case-insensitively.
type SubscriptionFinder interface {
	FindActiveByFullName(ctx context.Context, fullName string) ([]entities.NotificationSubscription, error)
}

type Dispatcher struct {
	subscriptions SubscriptionFinder
	mailer        Mailer
	baseURL       string
	logger        *zap.Logger
	metrics       *metrics.Metrics
}

func NewDispatcher(subs SubscriptionFinder, mailer Mailer, baseURL string, logger *zap.Logger, m *metrics.Metrics) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		subscriptions: subs,
		mailer:        mailer,
		baseURL:       baseURL,
		logger:        logger.Named("notifications"),
		metrics:       m,
	}
}

// NotifyArticle sends one message per active subscription matching any of the
// article's authors. A subscription matched through several authors is
// mailed once. The article must have its edition, event and authors loaded.
func (d *Dispatcher) NotifyArticle(ctx context.Context, article *entities.Article) {
	seenAuthors := make(map[string]bool, len(article.Authors))
	sent := make(map[uint]bool)

	for _, author := range article.Authors {
		if seenAuthors[author.FullName] {
			continue
		}
		seenAuthors[author.FullName] = true

		subs, err := d.subscriptions.FindActiveByFullName(ctx, author.FullName)
		if err != nil {
			d.logger.Warn("failed to look up subscriptions",
				zap.String("author", author.FullName),
				zap.Error(err),
			)
			continue
		}

		for _, sub := range subs {
			if sent[sub.ID] {
				continue
			}
			sent[sub.ID] = true

			msg := ComposeMessage(sub, article, d.baseURL)
			if err := d.mailer.Send(ctx, msg); err != nil {
				d.metrics.NotificationAttempted(false)
				d.logger.Debug("notification send failed",
					zap.Uint("article_id", article.ID),
					zap.Uint("subscription_id", sub.ID),
					zap.Error(err),
				)
				continue
			}
			d.metrics.NotificationAttempted(true)
		}
	}
}
