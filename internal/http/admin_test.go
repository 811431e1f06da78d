package http

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperpaper/catalog/internal/auth"
	"github.com/paperpaper/catalog/internal/config"
	"github.com/paperpaper/catalog/internal/database"
	auditrepo "github.com/paperpaper/catalog/internal/database/audit"
	"github.com/paperpaper/catalog/internal/database/users"
	"github.com/paperpaper/catalog/internal/entities"
	"github.com/paperpaper/catalog/internal/tasks"
)

func TestEventsController(t *testing.T) {
	stack := newAPIStack(t)

	rec := doRequest(t, stack.router, http.MethodPost, "/api/admin/events",
		map[string]any{"name": "Brazilian Symposium on Software Engineering", "acronym": "SBES"}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	event := decode(t, rec)
	assert.Equal(t, "sbes", event["slug"])
	id := uint(event["id"].(float64))

	rec = doRequest(t, stack.router, http.MethodPost, "/api/admin/events",
		map[string]any{"name": "Another", "acronym": "SBES"}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doRequest(t, stack.router, http.MethodPost, "/api/admin/events",
		map[string]any{"acronym": "X"}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["details"], "name")

	rec = doRequest(t, stack.router, http.MethodPut, fmt.Sprintf("/api/admin/events/%d", id),
		map[string]any{"name": "SBES", "acronym": "SBES-BR"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sbes-br", decode(t, rec)["slug"])

	rec = doRequest(t, stack.router, http.MethodPost, fmt.Sprintf("/api/admin/events/%d/editions", id),
		map[string]any{"year": 2023, "location": "Campo Grande"}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, stack.router, http.MethodPost, fmt.Sprintf("/api/admin/events/%d/editions", id),
		map[string]any{"year": 1800}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, stack.router, http.MethodGet, "/api/events/sbes-br/2023", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, stack.router, http.MethodDelete, fmt.Sprintf("/api/admin/events/%d", id), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doRequest(t, stack.router, http.MethodGet, "/api/events/sbes-br", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = doRequest(t, stack.router, http.MethodDelete, fmt.Sprintf("/api/admin/events/%d", id), nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestArticlesController(t *testing.T) {
	stack := newAPIStack(t)
	seeded := stack.seedArticle(t)
	editionID := seeded.EditionID
	require.Equal(t, []uint{seeded.ID}, stack.notifier.notified())

	rec := doRequest(t, stack.router, http.MethodPost, "/api/admin/articles", map[string]any{
		"title": "Half a range", "edition_id": editionID, "start_page": 3,
	}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["details"], "pages")

	rec = doRequest(t, stack.router, http.MethodPost, "/api/admin/articles", map[string]any{
		"title": "Nowhere", "edition_id": 999,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, stack.router, http.MethodPost, "/api/admin/articles", map[string]any{
		"title": "Second Study", "edition_id": editionID, "author_names": []string{"Maria Silva"},
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode(t, rec)
	createdID := uint(created["id"].(float64))
	assert.Equal(t, "Maria Silva", created["authors_string"])
	assert.Equal(t, []uint{seeded.ID, createdID}, stack.notifier.notified())

	rec = doRequest(t, stack.router, http.MethodPut, fmt.Sprintf("/api/admin/articles/%d", createdID), map[string]any{
		"title": "Second Study, Revised", "edition_id": editionID, "author_names": []string{"Maria Silva", "Ana Costa"},
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Maria Silva, Ana Costa", decode(t, rec)["authors_string"])
	assert.Len(t, stack.notifier.notified(), 2, "updates do not notify")

	rec = doRequest(t, stack.router, http.MethodPut, "/api/admin/articles/9999", map[string]any{
		"title": "Ghost", "edition_id": editionID,
	}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestArticlesController_NotifyInline(t *testing.T) {
	stack := newAPIStack(t)
	article := stack.seedArticle(t)

	rec := doRequest(t, stack.router, http.MethodPost, fmt.Sprintf("/api/admin/articles/%d/notify", article.ID), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []uint{article.ID, article.ID}, stack.notifier.notified())

	stack.audit.Wait()
	events, total, err := stack.audit.Query(context.Background(), auditrepo.Filter{EventType: entities.AuditEventNotification})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, "notify_inline", events[0].Action)

	rec = doRequest(t, stack.router, http.MethodPost, "/api/admin/articles/9999/notify", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestArticlesController_NotifyQueued(t *testing.T) {
	queue := &recordingQueue{}
	stack := newAPIStack(t, func(cfg *RouterConfig) { cfg.TaskQueue = queue })
	article := stack.seedArticle(t)

	rec := doRequest(t, stack.router, http.MethodPost, fmt.Sprintf("/api/admin/articles/%d/notify", article.ID), nil, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "task-1", decode(t, rec)["data"].(map[string]any)["task_id"])

	require.Len(t, queue.tasks, 1)
	assert.Equal(t, tasks.NotifyArticleTask{ArticleID: article.ID}, queue.tasks[0])
	assert.Len(t, stack.notifier.notified(), 1, "only the creation notified inline")
}

func TestAdminRequiresAdminRole(t *testing.T) {
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "users.db"), database.WithSilentLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := config.Auth{Mode: config.AuthModeLocal, BcryptCost: 4}
	svc := auth.NewService(users.NewRepository(db.DB), cfg)

	admin, err := svc.CreateUser("admin", "admin@example.com", "correct-horse-battery", entities.UserRoleAdmin)
	require.NoError(t, err)
	viewer, err := svc.CreateUser("reader", "reader@example.com", "correct-horse-battery", entities.UserRoleViewer)
	require.NoError(t, err)
	adminToken, err := svc.GenerateToken(admin.ID)
	require.NoError(t, err)
	viewerToken, err := svc.GenerateToken(viewer.ID)
	require.NoError(t, err)

	stack := newAPIStack(t, func(rc *RouterConfig) {
		rc.AuthService = svc
		rc.AuthMiddleware = auth.NewMiddleware(svc, nil, cfg)
	})

	tests := []struct {
		name    string
		headers map[string]string
		status  int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"viewer", map[string]string{"Authorization": "Bearer " + viewerToken}, http.StatusForbidden},
		{"admin", map[string]string{"Authorization": "Bearer " + adminToken}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, stack.router, http.MethodGet, "/api/admin/imports", nil, tt.headers)
			assert.Equal(t, tt.status, rec.Code)
		})
	}

	rec := doRequest(t, stack.router, http.MethodGet, "/api/events", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code, "the catalog stays public")
}
