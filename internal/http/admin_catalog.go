package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/paperpaper/catalog/internal/services"
	"github.com/paperpaper/catalog/internal/tasks"
)

// EventsController is the admin surface for events and editions.
type EventsController struct {
	events EventManager
}

func NewEventsController(events EventManager) *EventsController {
	return &EventsController{events: events}
}

// Create
// POST /api/admin/events
func (ec *EventsController) Create(c *gin.Context) {
	var in services.EventInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	event, err := ec.events.Create(c.Request.Context(), GetUserID(c), in)
	if err != nil {
		respondServiceError(c, err, "event")
		return
	}
	respondCreated(c, event)
}

// Update
// PUT /api/admin/events/:id
func (ec *EventsController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var in services.EventInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	event, err := ec.events.Update(c.Request.Context(), GetUserID(c), id, in)
	if err != nil {
		respondServiceError(c, err, "event")
		return
	}
	c.JSON(http.StatusOK, event)
}

// Delete removes the event with its editions and articles.
// DELETE /api/admin/events/:id
func (ec *EventsController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := ec.events.Delete(c.Request.Context(), GetUserID(c), id); err != nil {
		respondServiceError(c, err, "event")
		return
	}
	respondSuccess(c, "event deleted")
}

// AddEdition
// POST /api/admin/events/:id/editions
func (ec *EventsController) AddEdition(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var in services.EditionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	edition, err := ec.events.AddEdition(c.Request.Context(), GetUserID(c), id, in)
	if err != nil {
		respondServiceError(c, err, "edition")
		return
	}
	respondCreated(c, edition)
}

// ArticlesController is the admin surface for articles.
type ArticlesController struct {
	articles ArticleManager
	reader   CatalogReader
	queue    TaskEnqueuer
	notifier ArticleNotifier
	audit    NotificationAuditor
}

// NewArticlesController takes an optional queue; without one, resends run
// inline through notifier. audit may be nil.
func NewArticlesController(articles ArticleManager, reader CatalogReader, queue TaskEnqueuer, notifier ArticleNotifier, audit NotificationAuditor) *ArticlesController {
	return &ArticlesController{
		articles: articles,
		reader:   reader,
		queue:    queue,
		notifier: notifier,
		audit:    audit,
	}
}

// Create stores the article and notifies its authors' subscribers.
// POST /api/admin/articles
func (ac *ArticlesController) Create(c *gin.Context) {
	var in services.ArticleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	article, err := ac.articles.Create(c.Request.Context(), GetUserID(c), in)
	if err != nil {
		respondServiceError(c, err, "article")
		return
	}
	respondCreated(c, newArticleView(*article))
}

// Update
// PUT /api/admin/articles/:id
func (ac *ArticlesController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var in services.ArticleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	article, err := ac.articles.Update(c.Request.Context(), GetUserID(c), id, in)
	if err != nil {
		respondServiceError(c, err, "article")
		return
	}
	c.JSON(http.StatusOK, newArticleView(*article))
}

// Notify re-sends the notifications of an existing article.
// POST /api/admin/articles/:id/notify
func (ac *ArticlesController) Notify(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	article, err := ac.reader.GetArticleByID(ctx, id)
	if err != nil {
		respondServiceError(c, err, "article")
		return
	}
	if len(article.Authors) == 0 {
		respondBadRequest(c, "article has no authors")
		return
	}

	if ac.queue != nil {
		taskID, err := ac.queue.Enqueue(ctx, tasks.NotifyArticleTask{ArticleID: id, RequestedBy: GetUserID(c)})
		ac.logNotification(c, id, "notify_enqueue", err)
		if err != nil {
			respondInternalError(c, err, "enqueue notify")
			return
		}
		respondAccepted(c, "notifications queued", gin.H{"task_id": taskID})
		return
	}

	if ac.notifier == nil {
		respondError(c, http.StatusServiceUnavailable, "notifications are not configured")
		return
	}
	ac.notifier.NotifyArticle(ctx, article)
	ac.logNotification(c, id, "notify_inline", nil)
	respondSuccess(c, "notifications sent")
}

func (ac *ArticlesController) logNotification(c *gin.Context, articleID uint, action string, err error) {
	if ac.audit != nil {
		ac.audit.LogNotification(GetUserID(c), articleID, action, err)
	}
}
