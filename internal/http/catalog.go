package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/paperpaper/catalog/internal/database/catalog"
	"github.com/paperpaper/catalog/internal/storage"
)

// CatalogController serves the public, read-only catalog.
type CatalogController struct {
	catalog CatalogReader
	store   storage.Client
}

func NewCatalogController(reader CatalogReader, store storage.Client) *CatalogController {
	return &CatalogController{catalog: reader, store: store}
}

// Stats returns the home page counters and the latest articles.
// GET /api/stats
func (cc *CatalogController) Stats(c *gin.Context) {
	stats, err := cc.catalog.Stats(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "stats")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total_events":    stats.TotalEvents,
		"total_articles":  stats.TotalArticles,
		"total_authors":   stats.TotalAuthors,
		"recent_articles": newArticleViews(stats.RecentArticles),
	})
}

// ListEvents
// GET /api/events
func (cc *CatalogController) ListEvents(c *gin.Context) {
	events, err := cc.catalog.ListEvents(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "events")
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}

// GetEvent returns an event and its editions, newest first.
// GET /api/events/:slug
func (cc *CatalogController) GetEvent(c *gin.Context) {
	event, err := cc.catalog.GetEventBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondServiceError(c, err, "event")
		return
	}
	c.JSON(http.StatusOK, event)
}

// GetEdition returns one edition with its articles ordered by title.
// GET /api/events/:slug/:year
func (cc *CatalogController) GetEdition(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		respondBadRequest(c, "invalid year")
		return
	}
	edition, err := cc.catalog.GetEdition(c.Request.Context(), c.Param("slug"), year)
	if err != nil {
		respondServiceError(c, err, "edition")
		return
	}

	articles := edition.Articles
	edition.Articles = nil
	c.JSON(http.StatusOK, gin.H{
		"edition":  edition,
		"articles": newArticleViews(articles),
	})
}

// ListAuthors returns one page of authors with their article counts.
// GET /api/authors?page=N
func (cc *CatalogController) ListAuthors(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}

	authors, total, err := cc.catalog.ListAuthors(c.Request.Context(), page)
	if err != nil {
		respondInternalError(c, err, "authors")
		return
	}

	totalPages := (int(total) + catalog.AuthorsPerPage - 1) / catalog.AuthorsPerPage
	if totalPages < 1 {
		totalPages = 1
	}
	c.JSON(http.StatusOK, gin.H{
		"authors":     authors,
		"page":        page,
		"total":       total,
		"total_pages": totalPages,
	})
}

// GetAuthor returns an author's publications grouped by year.
// GET /api/authors/:slug
func (cc *CatalogController) GetAuthor(c *gin.Context) {
	author, err := cc.catalog.GetAuthorBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondServiceError(c, err, "author")
		return
	}

	articles := author.Articles
	author.Articles = nil
	c.JSON(http.StatusOK, gin.H{
		"author":         author,
		"total_articles": len(articles),
		"years":          groupByYear(articles),
	})
}

// GetArticle
// GET /api/articles/:id
func (cc *CatalogController) GetArticle(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	article, err := cc.catalog.GetArticleByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "article")
		return
	}
	c.JSON(http.StatusOK, newArticleView(*article))
}

// DownloadAttachment streams the stored PDF of an article.
// GET /api/articles/:id/attachment
func (cc *CatalogController) DownloadAttachment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	article, err := cc.catalog.GetArticleByID(ctx, id)
	if err != nil {
		respondServiceError(c, err, "article")
		return
	}
	if !article.HasAttachment() || cc.store == nil {
		respondNotFound(c, "attachment")
		return
	}

	body, err := cc.store.Download(ctx, article.AttachmentPath)
	if errors.Is(err, storage.ErrNotFound) {
		respondNotFound(c, "attachment")
		return
	}
	if err != nil {
		respondInternalError(c, err, "attachment")
		return
	}
	defer body.Close()

	name := article.Slug
	if name == "" {
		name = strconv.FormatUint(uint64(article.ID), 10)
	}
	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", `inline; filename="`+name+`.pdf"`)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, body)
}

// Search matches the query against titles, author names or event names.
// GET /api/search?q=...&type=title|author|event
func (cc *CatalogController) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	kind := catalog.SearchKind(c.DefaultQuery("type", string(catalog.SearchByTitle)))
	switch kind {
	case catalog.SearchByTitle, catalog.SearchByAuthor, catalog.SearchByEvent:
	default:
		respondBadRequest(c, "type must be one of title, author, event")
		return
	}

	results, err := cc.catalog.Search(c.Request.Context(), query, kind)
	if err != nil {
		respondInternalError(c, err, "search")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"query":   query,
		"type":    kind,
		"count":   len(results),
		"results": newArticleViews(results),
	})
}
