package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

var (
	ErrNotFound    = errors.New("file not found")
	ErrInvalidPath = errors.New("invalid storage path")
)

// FileInfo contains metadata about a stored file.
type FileInfo struct {
	Name        string
	Path        string
	Size        int64
	ModifiedAt  time.Time
	ContentType string
}

// Client defines the blob operations the catalog needs for article
// attachments and uploaded import bundles.
type Client interface {
	// Download retrieves the contents of a file.
	Download(ctx context.Context, path string) (io.ReadCloser, error)

	// Upload writes content to a file path, replacing any previous content.
	Upload(ctx context.Context, path string, content io.Reader) error

	// Delete removes a file. Deleting a missing file is not an error.
	Delete(ctx context.Context, path string) error

	// GetMetadata retrieves file info without downloading content.
	GetMetadata(ctx context.Context, path string) (*FileInfo, error)
}

// ArticleAttachmentPath namespaces an attachment by event slug and edition year.
func ArticleAttachmentPath(eventSlug string, year int, key string) string {
	return fmt.Sprintf("articles/%s/%d/%s.pdf", eventSlug, year, key)
}

// ImportUploadPath is where an uploaded import file is kept. kind is
// "bibtex" or "pdfs".
func ImportUploadPath(kind string, at time.Time, name string) string {
	return fmt.Sprintf("imports/%s/%s/%s", kind, at.UTC().Format("20060102T150405"), path.Base(name))
}

// CleanPath normalizes a storage key and rejects keys that would escape
// the storage root.
func CleanPath(p string) (string, error) {
	p = strings.ReplaceAll(p, "\\", "/")
	cleaned := path.Clean("/" + p)
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." || strings.Contains(p, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return cleaned, nil
}
