// Package s3store stores files in an S3-compatible bucket.
package s3store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/paperpaper/catalog/internal/storage"
)

// Options configures the bucket connection. Endpoint is optional and enables
// path-style addressing for S3-compatible services such as MinIO.
type Options struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	Prefix    string
}

// API is the subset of *s3.Client used here.
type API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Client implements storage.Client on top of an S3 bucket.
type Client struct {
	api    API
	bucket string
	prefix string
}

// NewClient builds an S3 client from static credentials, falling back to the
// default AWS credential chain when no keys are configured.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if opts.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	api := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewClientWithAPI(api, opts.Bucket, opts.Prefix), nil
}

// NewClientWithAPI wraps an existing API implementation.
func NewClientWithAPI(api API, bucket, prefix string) *Client {
	return &Client{api: api, bucket: bucket, prefix: prefix}
}

func (c *Client) key(p string) (string, error) {
	cleaned, err := storage.CleanPath(p)
	if err != nil {
		return "", err
	}
	if c.prefix == "" {
		return cleaned, nil
	}
	return path.Join(c.prefix, cleaned), nil
}

func (c *Client) Download(ctx context.Context, p string) (io.ReadCloser, error) {
	key, err := c.key(p)
	if err != nil {
		return nil, err
	}
	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, translate(err)
	}
	return out.Body, nil
}

func (c *Client) Upload(ctx context.Context, p string, content io.Reader) error {
	key, err := c.key(p)
	if err != nil {
		return err
	}
	_, err = c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        content,
		ContentType: aws.String(contentType(key)),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, p string) error {
	key, err := c.key(p)
	if err != nil {
		return err
	}
	_, err = c.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if errors.Is(translate(err), storage.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (c *Client) GetMetadata(ctx context.Context, p string) (*storage.FileInfo, error) {
	key, err := c.key(p)
	if err != nil {
		return nil, err
	}
	out, err := c.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, translate(err)
	}

	info := &storage.FileInfo{
		Name:        path.Base(key),
		Path:        p,
		Size:        aws.ToInt64(out.ContentLength),
		ContentType: aws.ToString(out.ContentType),
	}
	if out.LastModified != nil {
		info.ModifiedAt = *out.LastModified
	}
	return info, nil
}

func translate(err error) error {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return storage.ErrNotFound
	}
	return err
}

func contentType(key string) string {
	switch path.Ext(key) {
	case ".pdf":
		return "application/pdf"
	case ".bib":
		return "application/x-bibtex"
	case ".zip":
		return "application/zip"
	default:
		return "application/octet-stream"
	}
}

var _ storage.Client = (*Client)(nil)
