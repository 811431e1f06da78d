package importers

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/paperpaper/catalog/internal/database/catalog"
	"github.com/paperpaper/catalog/internal/entities"
	"github.com/paperpaper/catalog/internal/metrics"
	"github.com/paperpaper/catalog/internal/storage"
)

const (
	// AttachmentExtension selects which archive members are attachments.
	AttachmentExtension = ".pdf"

	// DefaultMaxExtractedBytes bounds the decompressed size of all
	// attachments in one archive.
	DefaultMaxExtractedBytes = 200 << 20
)

var ErrArchiveTooLarge = errors.New("archive expands beyond the size limit")

// ExtractAttachments reads every .pdf member of a zip archive into memory,
// keyed by the member's file name without directory or extension. A later
// member with the same stem replaces an earlier one. The decompressed members
// together may not exceed maxBytes; zero or less means DefaultMaxExtractedBytes.
func ExtractAttachments(r io.ReaderAt, size, maxBytes int64) (map[string][]byte, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("invalid zip archive: %w", err)
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxExtractedBytes
	}

	remaining := maxBytes
	blobs := make(map[string][]byte)
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := path.Base(strings.ReplaceAll(f.Name, "\\", "/"))
		if !strings.EqualFold(path.Ext(name), AttachmentExtension) {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s in archive: %w", f.Name, err)
		}
		data, err := io.ReadAll(io.LimitReader(rc, remaining+1))
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s in archive: %w", f.Name, err)
		}
		if int64(len(data)) > remaining {
			return nil, fmt.Errorf("%w of %d bytes at %s", ErrArchiveTooLarge, maxBytes, f.Name)
		}
		remaining -= int64(len(data))

		blobs[strings.TrimSuffix(name, path.Ext(name))] = data
	}
	return blobs, nil
}

// Binder stores an entry's attachment and links it to the article.
type Binder struct {
	store   storage.Client
	catalog *catalog.Repository
	metrics *metrics.Metrics
}

func NewBinder(store storage.Client, repo *catalog.Repository, m *metrics.Metrics) *Binder {
	return &Binder{store: store, catalog: repo, metrics: m}
}

// Bind looks up the blob for the article's external key. It reports whether an
// attachment was stored. The article must carry its edition and event.
func (b *Binder) Bind(ctx context.Context, article *entities.Article, blobs map[string][]byte) (bool, error) {
	blob, ok := blobs[article.ExternalKey]
	if !ok || article.ExternalKey == "" {
		return false, nil
	}

	key := storage.ArticleAttachmentPath(article.Edition.Event.Slug, article.Edition.Year, article.ExternalKey)
	if err := b.store.Upload(ctx, key, bytes.NewReader(blob)); err != nil {
		b.metrics.AttachmentStored(false)
		return false, fmt.Errorf("failed to store attachment: %w", err)
	}

	if err := b.catalog.SetArticleAttachment(ctx, article.ID, key); err != nil {
		b.metrics.AttachmentStored(false)
		_ = b.store.Delete(ctx, key)
		return false, fmt.Errorf("failed to link attachment: %w", err)
	}

	article.AttachmentPath = key
	b.metrics.AttachmentStored(true)
	return true, nil
}
