package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/paperpaper/catalog/internal/entities"
	"github.com/paperpaper/catalog/internal/exporters"
)

const bibtexContentType = "application/x-bibtex; charset=utf-8"

// ExportEdition downloads every article of an edition as BibTeX.
// GET /api/events/:slug/:year/bibtex
func (cc *CatalogController) ExportEdition(c *gin.Context) {
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

	articles := make([]entities.Article, len(edition.Articles))
	for i, article := range edition.Articles {
		article.Edition = *edition
		article.Edition.Articles = nil
		articles[i] = article
	}
	writeBibTeX(c, fmt.Sprintf("%s-%d.bib", edition.Event.Slug, edition.Year), articles)
}

// ExportAuthor downloads every article of an author as BibTeX.
// GET /api/authors/:slug/bibtex
func (cc *CatalogController) ExportAuthor(c *gin.Context) {
	author, err := cc.catalog.GetAuthorBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondServiceError(c, err, "author")
		return
	}
	writeBibTeX(c, author.Slug+".bib", author.Articles)
}

func writeBibTeX(c *gin.Context, filename string, articles []entities.Article) {
	body, result := exporters.GenerateBibTeX(articles)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("X-Exported-Articles", strconv.Itoa(result.Articles))
	c.Data(http.StatusOK, bibtexContentType, []byte(body))
}
