package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/paperpaper/catalog/internal/entities"
)

type fakeCleaner struct {
	retention time.Duration
	err       error
}

func (f *fakeCleaner) DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error) {
	f.retention = retention
	return 3, f.err
}

func TestCleanupAuditEventsProcessor(t *testing.T) {
	cleaner := &fakeCleaner{}
	process := CleanupAuditEventsProcessor(cleaner, zap.NewNop())

	require.NoError(t, process(context.Background(), CleanupAuditEventsTask{RetentionDays: 7}))
	assert.Equal(t, 7*24*time.Hour, cleaner.retention)

	require.NoError(t, process(context.Background(), CleanupAuditEventsTask{}))
	assert.Equal(t, DefaultAuditRetentionDays*24*time.Hour, cleaner.retention)

	cleaner.err = errors.New("disk full")
	assert.ErrorContains(t, process(context.Background(), CleanupAuditEventsTask{}), "disk full")

	assert.Error(t, CleanupAuditEventsProcessor(nil, zap.NewNop())(context.Background(), CleanupAuditEventsTask{}))
}

type fakeArticles map[uint]*entities.Article

func (f fakeArticles) GetArticleByID(ctx context.Context, id uint) (*entities.Article, error) {
	if a, ok := f[id]; ok {
		return a, nil
	}
	return nil, errors.New("record not found")
}

type countingNotifier struct {
	notified []uint
}

func (n *countingNotifier) NotifyArticle(ctx context.Context, article *entities.Article) {
	n.notified = append(n.notified, article.ID)
}

func TestNotifyArticleProcessor(t *testing.T) {
	articles := fakeArticles{
		1: {ID: 1, Title: "With authors", Authors: []entities.Author{{ID: 1, FullName: "Maria Silva"}}},
		2: {ID: 2, Title: "Orphan"},
	}
	notifier := &countingNotifier{}
	process := NotifyArticleProcessor(articles, notifier, zap.NewNop())

	require.NoError(t, process(context.Background(), NotifyArticleTask{ArticleID: 1}))
	require.NoError(t, process(context.Background(), NotifyArticleTask{ArticleID: 2}))
	assert.Equal(t, []uint{1}, notifier.notified)

	assert.ErrorContains(t, process(context.Background(), NotifyArticleTask{ArticleID: 99}), "load article 99")
}

func TestTaskConfigs(t *testing.T) {
	notify := NotifyArticleTask{}.Config()
	assert.Equal(t, "notify_article", notify.Name)
	assert.Equal(t, 3, notify.MaxAttempts)
	assert.NotNil(t, notify.Retention)

	cleanup := CleanupAuditEventsTask{}.Config()
	assert.Equal(t, "cleanup_audit_events", cleanup.Name)
	assert.Equal(t, 2*time.Minute, cleanup.Timeout)
}
