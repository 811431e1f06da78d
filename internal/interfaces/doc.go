// Package interfaces documents the core abstractions used throughout the
// catalog and pins their implementations with compile-time checks.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - CatalogReader: public catalog pages (internal/http/interfaces.go)
//   - RecordStore: import run reports (internal/importers/pipeline.go)
//   - SubscriptionFinder: active subscriptions per author (internal/notifications/dispatcher.go)
//   - ArticleLoader: article lookups for background tasks (internal/tasks/notify_article.go)
//
// ## Storage
//
//   - storage.Client: attachments, uploaded files and report snapshots,
//     backed by the local filesystem or an S3 bucket (internal/storage/client.go)
//
// ## Import Pipeline
//
//   - EntryResolver: validate an entry and store it as an article
//   - AttachmentBinder: store the PDF of an article and link it
//   - ArticleNotifier: mail the subscribers of an article's authors
//
// # Adding a New Storage Backend
//
//  1. Create a provider under internal/storage/providers/
//
//     type Client struct { ... }
//
//     func (c *Client) Download(ctx context.Context, path string) (io.ReadCloser, error)
//     func (c *Client) Upload(ctx context.Context, path string, content io.Reader) error
//     func (c *Client) Delete(ctx context.Context, path string) error
//     func (c *Client) GetMetadata(ctx context.Context, path string) (*storage.FileInfo, error)
//
//     Missing files must surface as storage.ErrNotFound.
//
//  2. Add a config.StorageBackend value and select it in entrypoint.NewStorage
//
//  3. Add a compile-time check to checks.go
//
// # Adding a New Background Task
//
//  1. Define the task and its queue in internal/tasks/
//
//     type ReindexTask struct{ EventID uint }
//
//     func (t ReindexTask) Config() backlite.QueueConfig
//
//     func NewReindexQueue(...) backlite.Queue
//
//  2. Register the queue in entrypoint.Run
//
//  3. Enqueue it through tasks.Client.Enqueue
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for the full list.
package interfaces
