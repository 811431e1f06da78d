package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportBibTeX(t *testing.T) {
	stack := newAPIStack(t)
	stack.seedArticle(t)

	rec := doRequest(t, stack.router, http.MethodGet, "/api/events/icse/2024/bibtex", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, bibtexContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="icse-2024.bib"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "1", rec.Header().Get("X-Exported-Articles"))
	body := rec.Body.String()
	assert.Contains(t, body, "title     = {A Study on Software Engineering}")
	assert.Contains(t, body, "booktitle = {International Conference on Software Engineering}")
	assert.Contains(t, body, "author    = {Maria Silva and Ana Costa}")
	assert.Contains(t, body, "pages     = {1--10}")

	rec = doRequest(t, stack.router, http.MethodGet, "/api/authors/maria-silva/bibtex", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "location  = {Lisbon}")

	rec = doRequest(t, stack.router, http.MethodGet, "/api/events/icse/1999/bibtex", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = doRequest(t, stack.router, http.MethodGet, "/api/authors/nobody/bibtex", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
