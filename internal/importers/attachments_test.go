package importers

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperpaper/catalog/internal/entities"
	"github.com/paperpaper/catalog/internal/storage/providers/local"
)

func TestExtractAttachments(t *testing.T) {
	data := zipOf(t, map[string]string{
		"papers/silva2024.pdf": "one",
		"SOUZA2023.PDF":        "two",
		"readme.md":            "skip",
		"nested/dir/x.pdf.txt": "skip",
	})

	blobs, err := ExtractAttachments(bytes.NewReader(data), int64(len(data)), 0)
	require.NoError(t, err)

	assert.Len(t, blobs, 2)
	assert.Equal(t, []byte("one"), blobs["silva2024"])
	assert.Equal(t, []byte("two"), blobs["SOUZA2023"])
}

func TestExtractAttachments_InvalidArchive(t *testing.T) {
	data := []byte("plain text")
	_, err := ExtractAttachments(bytes.NewReader(data), int64(len(data)), 0)
	assert.ErrorContains(t, err, "invalid zip archive")
}

func TestExtractAttachments_SizeLimit(t *testing.T) {
	data := zipOf(t, map[string]string{
		"a.pdf": strings.Repeat("a", 600),
		"b.pdf": strings.Repeat("b", 600),
	})

	_, err := ExtractAttachments(bytes.NewReader(data), int64(len(data)), 1000)
	assert.ErrorIs(t, err, ErrArchiveTooLarge)

	blobs, err := ExtractAttachments(bytes.NewReader(data), int64(len(data)), 1200)
	require.NoError(t, err)
	assert.Len(t, blobs, 2)
}

func TestPipeline_ArchiveTooLargeAborts(t *testing.T) {
	f := newPipelineFixture(t)
	f.pipeline.SetMaxExtractedBytes(1 << 10)

	record, err := f.pipeline.Run(context.Background(), Upload{
		BibliographyName: "one.bib",
		Bibliography:     []byte("@inproceedings{k1, title={Kept}, author={Ana Lima}, booktitle={SBES}, year={2023}}"),
		ArchiveName:      "bomb.zip",
		Archive:          zipOf(t, map[string]string{"k1.pdf": strings.Repeat("0", 1<<20)}),
	})
	var aborted *AbortedError
	require.ErrorAs(t, err, &aborted)
	assert.ErrorIs(t, err, ErrArchiveTooLarge)
	require.NotNil(t, record)
	assert.Zero(t, record.TotalEntries)
}

func TestBinder_Bind(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupCatalog(t)
	store, err := local.NewClient(t.TempDir())
	require.NoError(t, err)
	binder := NewBinder(store, repo, nil)

	article, err := NewResolver(repo).Resolve(ctx, entry("lima2023", validFields()))
	require.NoError(t, err)

	t.Run("no blob for key", func(t *testing.T) {
		stored, err := binder.Bind(ctx, article, map[string][]byte{"other": []byte("x")})
		require.NoError(t, err)
		assert.False(t, stored)
		assert.Empty(t, article.AttachmentPath)
	})

	t.Run("stores and links blob", func(t *testing.T) {
		stored, err := binder.Bind(ctx, article, map[string][]byte{"lima2023": []byte("%PDF")})
		require.NoError(t, err)
		assert.True(t, stored)

		want := "articles/" + article.Edition.Event.Slug + "/2024/lima2023.pdf"
		assert.Equal(t, want, article.AttachmentPath)

		saved, err := repo.GetArticleByID(ctx, article.ID)
		require.NoError(t, err)
		assert.Equal(t, want, saved.AttachmentPath)

		info, err := store.GetMetadata(ctx, want)
		require.NoError(t, err)
		assert.EqualValues(t, 4, info.Size)
	})

	t.Run("link failure removes blob", func(t *testing.T) {
		ghost := &entities.Article{ID: 9999, ExternalKey: "ghost", Edition: article.Edition}
		stored, err := binder.Bind(ctx, ghost, map[string][]byte{"ghost": []byte("x")})
		assert.Error(t, err)
		assert.False(t, stored)

		_, err = store.GetMetadata(ctx, "articles/"+article.Edition.Event.Slug+"/2024/ghost.pdf")
		assert.Error(t, err)
	})
}
