package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/paperpaper/catalog/internal/database"
	"github.com/paperpaper/catalog/internal/entities"
)

func setupDB(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "services.db"), database.WithSilentLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

type recordingNotifier struct {
	articles []*entities.Article
}

func (n *recordingNotifier) NotifyArticle(ctx context.Context, article *entities.Article) {
	n.articles = append(n.articles, article)
}

type auditCall struct {
	Action   string
	EntityID uint
	Err      error
}

type recordingAudit struct {
	mu    sync.Mutex
	calls []auditCall
}

func (a *recordingAudit) add(c auditCall) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, c)
}

func (a *recordingAudit) LogCatalog(userID uint, action, entityType string, entityID uint, description string) {
	a.add(auditCall{Action: action, EntityID: entityID})
}

func (a *recordingAudit) LogImport(userID uint, record *entities.ImportRecord, err error) {
	c := auditCall{Action: "import", Err: err}
	if record != nil {
		c.EntityID = record.ID
	}
	a.add(c)
}

func (a *recordingAudit) LogSubscription(subscriptionID uint, outcome, ipAddr string) {
	a.add(auditCall{Action: "subscription_" + outcome, EntityID: subscriptionID})
}

func (a *recordingAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.calls))
	for _, c := range a.calls {
		out = append(out, c.Action)
	}
	return out
}

func intPtr(v int) *int {
	return &v
}
