package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperpaper/catalog/internal/database/catalog"
	"github.com/paperpaper/catalog/internal/entities"
	"github.com/paperpaper/catalog/internal/storage/providers/local"
)

type articleFixture struct {
	svc      *ArticleService
	repo     *catalog.Repository
	store    *local.Client
	notifier *recordingNotifier
	edition  *entities.Edition
	authors  []entities.Author
}

func newArticleFixture(t *testing.T) *articleFixture {
	t.Helper()
	ctx := context.Background()
	repo := catalog.NewRepository(setupDB(t).DB)
	store, err := local.NewClient(t.TempDir())
	require.NoError(t, err)

	event := &entities.Event{Name: "ICSE", Acronym: "ICSE"}
	require.NoError(t, repo.CreateEvent(ctx, event))
	edition, err := repo.GetOrCreateEdition(ctx, event.ID, 2024, "Lisbon")
	require.NoError(t, err)

	var authors []entities.Author
	for _, name := range []string{"John Doe", "Jane Smith"} {
		a, err := repo.GetOrCreateAuthor(ctx, name)
		require.NoError(t, err)
		authors = append(authors, *a)
	}

	notifier := &recordingNotifier{}
	return &articleFixture{
		svc:      NewArticleService(repo, store, notifier, &recordingAudit{}, nil),
		repo:     repo,
		store:    store,
		notifier: notifier,
		edition:  edition,
		authors:  authors,
	}
}

func TestArticleService_Create(t *testing.T) {
	ctx := context.Background()
	f := newArticleFixture(t)

	t.Run("notifies on first save with authors", func(t *testing.T) {
		article, err := f.svc.Create(ctx, 1, ArticleInput{
			Title:     "Testing at Scale",
			EditionID: f.edition.ID,
			AuthorIDs: []uint{f.authors[0].ID, f.authors[0].ID},
			StartPage: intPtr(1),
			EndPage:   intPtr(15),
		})
		require.NoError(t, err)
		assert.Equal(t, "1--15", article.PagesRange())
		assert.Equal(t, "ICSE", article.Edition.Event.Name)
		require.Len(t, f.notifier.articles, 1)
		assert.Equal(t, []string{"John Doe"}, f.notifier.articles[0].AuthorNames())
	})

	t.Run("no authors means no notification", func(t *testing.T) {
		before := len(f.notifier.articles)
		_, err := f.svc.Create(ctx, 1, ArticleInput{Title: "Anonymous", EditionID: f.edition.ID})
		require.NoError(t, err)
		assert.Len(t, f.notifier.articles, before)
	})

	t.Run("named authors are created", func(t *testing.T) {
		article, err := f.svc.Create(ctx, 1, ArticleInput{
			Title:       "New Voices",
			EditionID:   f.edition.ID,
			AuthorIDs:   []uint{f.authors[1].ID},
			AuthorNames: []string{"Ana Lima", " Jane Smith "},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"Jane Smith", "Ana Lima"}, article.AuthorNames())
	})

	t.Run("page range needs both bounds", func(t *testing.T) {
		_, err := f.svc.Create(ctx, 1, ArticleInput{Title: "Half", EditionID: f.edition.ID, StartPage: intPtr(3)})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "pages")

		_, err = f.svc.Create(ctx, 1, ArticleInput{Title: "Backwards", EditionID: f.edition.ID, StartPage: intPtr(9), EndPage: intPtr(2)})
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "end_page")
	})

	t.Run("unknown references", func(t *testing.T) {
		var verr *ValidationError
		_, err := f.svc.Create(ctx, 1, ArticleInput{Title: "X", EditionID: 999})
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "edition_id")

		_, err = f.svc.Create(ctx, 1, ArticleInput{Title: "X", EditionID: f.edition.ID, AuthorIDs: []uint{999}})
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "author_ids")
	})

	t.Run("missing title", func(t *testing.T) {
		_, err := f.svc.Create(ctx, 1, ArticleInput{Title: "   ", EditionID: f.edition.ID})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "is required", verr.Fields["title"])
	})
}

func TestArticleService_Update(t *testing.T) {
	ctx := context.Background()
	f := newArticleFixture(t)

	article, err := f.svc.Create(ctx, 1, ArticleInput{
		Title:     "Draft",
		EditionID: f.edition.ID,
		AuthorIDs: []uint{f.authors[0].ID},
	})
	require.NoError(t, err)
	notified := len(f.notifier.articles)

	key := "articles/icse/2024/draft.pdf"
	require.NoError(t, f.store.Upload(ctx, key, bytes.NewReader([]byte("%PDF"))))
	require.NoError(t, f.repo.SetArticleAttachment(ctx, article.ID, key))

	updated, err := f.svc.Update(ctx, 1, article.ID, ArticleInput{
		Title:            "Final",
		EditionID:        f.edition.ID,
		AuthorIDs:        []uint{f.authors[0].ID, f.authors[1].ID},
		RemoveAttachment: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "Final", updated.Title)
	assert.Equal(t, "final", updated.Slug)
	assert.Equal(t, "John Doe, Jane Smith", updated.AuthorsString())
	assert.False(t, updated.HasAttachment())
	assert.Len(t, f.notifier.articles, notified, "edits never notify")

	_, err = f.store.GetMetadata(ctx, key)
	assert.Error(t, err)

	t.Run("clearing authors", func(t *testing.T) {
		updated, err := f.svc.Update(ctx, 1, article.ID, ArticleInput{Title: "Final", EditionID: f.edition.ID})
		require.NoError(t, err)
		assert.Empty(t, updated.Authors)
	})

	t.Run("missing article", func(t *testing.T) {
		_, err := f.svc.Update(ctx, 1, 999, ArticleInput{Title: "X", EditionID: f.edition.ID})
		assert.ErrorIs(t, err, catalog.ErrNotFound)
	})
}
