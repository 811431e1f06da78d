// Package local stores files on the local filesystem under a root directory.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/paperpaper/catalog/internal/storage"
)

// Client implements storage.Client on a directory tree.
type Client struct {
	root string
}

// NewClient creates the root directory if needed.
func NewClient(root string) (*Client, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &Client{root: root}, nil
}

func (c *Client) resolve(p string) (string, error) {
	cleaned, err := storage.CleanPath(p)
	if err != nil {
		return "", err
	}
	return filepath.Join(c.root, filepath.FromSlash(cleaned)), nil
}

func (c *Client) Download(ctx context.Context, p string) (io.ReadCloser, error) {
	full, err := c.resolve(p)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

func (c *Client) Upload(ctx context.Context, p string, content io.Reader) error {
	full, err := c.resolve(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, content); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), full)
}

func (c *Client) Delete(ctx context.Context, p string) error {
	full, err := c.resolve(p)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (c *Client) GetMetadata(ctx context.Context, p string) (*storage.FileInfo, error) {
	full, err := c.resolve(p)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &storage.FileInfo{
		Name:        info.Name(),
		Path:        p,
		Size:        info.Size(),
		ModifiedAt:  info.ModTime(),
		ContentType: mime.TypeByExtension(filepath.Ext(full)),
	}, nil
}

var _ storage.Client = (*Client)(nil)
