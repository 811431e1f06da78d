package s3store

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperpaper/catalog/internal/storage"
)

type fakeAPI struct {
	objects map[string][]byte
	types   map[string]string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeAPI) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[key] = body
	f.types[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeAPI) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func (f *fakeAPI) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	body, ok := f.objects[key]
	if !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(f.types[key]),
		LastModified:  aws.Time(time.Unix(1700000000, 0)),
	}, nil
}

func (f *fakeAPI) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestClient_UsesBucketAndPrefix(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	client := NewClientWithAPI(api, "papers", "catalog")

	require.NoError(t, client.Upload(ctx, "articles/icse/2024/doe.pdf", bytes.NewReader([]byte("pdf"))))
	assert.Contains(t, api.objects, "papers/catalog/articles/icse/2024/doe.pdf")
	assert.Equal(t, "application/pdf", api.types["papers/catalog/articles/icse/2024/doe.pdf"])

	info, err := client.GetMetadata(ctx, "articles/icse/2024/doe.pdf")
	require.NoError(t, err)
	assert.Equal(t, int64(3), info.Size)
	assert.Equal(t, "doe.pdf", info.Name)

	rc, err := client.Download(ctx, "articles/icse/2024/doe.pdf")
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	assert.Equal(t, "pdf", string(body))

	require.NoError(t, client.Delete(ctx, "articles/icse/2024/doe.pdf"))
	_, err = client.Download(ctx, "articles/icse/2024/doe.pdf")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = client.GetMetadata(ctx, "articles/icse/2024/doe.pdf")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestClient_RejectsTraversal(t *testing.T) {
	client := NewClientWithAPI(newFakeAPI(), "papers", "")
	err := client.Upload(context.Background(), "../x.pdf", bytes.NewReader(nil))
	assert.ErrorIs(t, err, storage.ErrInvalidPath)
}

func TestNewClient_RequiresBucket(t *testing.T) {
	_, err := NewClient(context.Background(), Options{Region: "us-east-1"})
	assert.Error(t, err)
}
