package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/require"

	"github.com/paperpaper/catalog/internal/audit"
	"github.com/paperpaper/catalog/internal/auth"
	"github.com/paperpaper/catalog/internal/config"
	"github.com/paperpaper/catalog/internal/database"
	auditrepo "github.com/paperpaper/catalog/internal/database/audit"
	"github.com/paperpaper/catalog/internal/database/catalog"
	"github.com/paperpaper/catalog/internal/database/imports"
	"github.com/paperpaper/catalog/internal/database/subscriptions"
	"github.com/paperpaper/catalog/internal/entities"
	"github.com/paperpaper/catalog/internal/importers"
	"github.com/paperpaper/catalog/internal/services"
	"github.com/paperpaper/catalog/internal/storage/providers/local"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type recordingNotifier struct {
	mu       sync.Mutex
	articles []uint
}

func (n *recordingNotifier) NotifyArticle(ctx context.Context, article *entities.Article) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.articles = append(n.articles, article.ID)
}

func (n *recordingNotifier) notified() []uint {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]uint(nil), n.articles...)
}

type recordingQueue struct {
	tasks []backlite.Task
}

func (q *recordingQueue) Enqueue(ctx context.Context, task backlite.Task) (string, error) {
	q.tasks = append(q.tasks, task)
	return "task-1", nil
}

type apiStack struct {
	router   *gin.Engine
	db       *database.Database
	catalog  *catalog.Repository
	store    *local.Client
	audit    *audit.Service
	notifier *recordingNotifier
	events   *services.EventService
	articles *services.ArticleService
}

type stackOption func(*RouterConfig)

// newAPIStack wires the router against a temporary database with auth
// disabled, so every request acts as an admin.
func newAPIStack(t *testing.T, opts ...stackOption) *apiStack {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "api.db"), database.WithSilentLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := local.NewClient(t.TempDir())
	require.NoError(t, err)

	repo := catalog.NewRepository(db.DB)
	records := imports.NewRepository(db.DB)
	notifier := &recordingNotifier{}
	auditService := audit.NewService(auditrepo.NewRepository(db.DB), nil)
	t.Cleanup(auditService.Wait)

	pipeline := importers.NewPipeline(
		importers.NewResolver(repo),
		importers.NewBinder(store, repo, nil),
		notifier, records, store, nil, nil,
	)

	stack := &apiStack{
		db:       db,
		catalog:  repo,
		store:    store,
		audit:    auditService,
		notifier: notifier,
		events:   services.NewEventService(repo, nil),
		articles: services.NewArticleService(repo, store, notifier, nil, nil),
	}

	cfg := RouterConfig{
		Version:        "test",
		Database:       db,
		Catalog:        repo,
		Store:          store,
		Subscriptions:  services.NewSubscriptionService(subscriptions.NewRepository(db.DB), nil),
		Events:         stack.events,
		Articles:       stack.articles,
		Imports:        services.NewImportService(pipeline, records, nil, nil, nil),
		Audit:          auditService,
		Notifier:       notifier,
		NotifyAudit:    auditService,
		AuthMiddleware: auth.NewMiddleware(nil, nil, config.Auth{Mode: config.AuthModeNone}),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	stack.router = NewRouter(cfg)
	return stack
}

// seedArticle creates ICSE 2024 in Lisbon with one article by two authors.
func (s *apiStack) seedArticle(t *testing.T) *entities.Article {
	t.Helper()
	ctx := context.Background()
	event, err := s.events.Create(ctx, 0, services.EventInput{Name: "International Conference on Software Engineering", Acronym: "ICSE"})
	require.NoError(t, err)
	edition, err := s.events.AddEdition(ctx, 0, event.ID, services.EditionInput{Year: 2024, Location: "Lisbon"})
	require.NoError(t, err)

	start, end := 1, 10
	article, err := s.articles.Create(ctx, 0, services.ArticleInput{
		Title:       "A Study on Software Engineering",
		EditionID:   edition.ID,
		AuthorNames: []string{"Maria Silva", "Ana Costa"},
		StartPage:   &start,
		EndPage:     &end,
	})
	require.NoError(t, err)
	return article
}

func doRequest(t *testing.T, router http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}
