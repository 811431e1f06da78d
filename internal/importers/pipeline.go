package importers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/paperpaper/catalog/internal/entities"
	"github.com/paperpaper/catalog/internal/metrics"
	"github.com/paperpaper/catalog/internal/parsers"
	"github.com/paperpaper/catalog/internal/storage"
)

// ErrNoBibliography is returned when an upload carries no bibliography file.
var ErrNoBibliography = errors.New("bibliography file is required")

// Upload is one import request: a bibliography plus an optional zip of PDFs.
type Upload struct {
	UploadedBy       *uint
	BibliographyName string
	Bibliography     []byte
	ArchiveName      string
	Archive          []byte
}

// EntryResolver turns one entry into a stored article.
type EntryResolver interface {
	Resolve(ctx context.Context, entry parsers.BibEntry) (*entities.Article, error)
}

// AttachmentBinder stores the attachment that belongs to an article, if any.
type AttachmentBinder interface {
	Bind(ctx context.Context, article *entities.Article, blobs map[string][]byte) (bool, error)
}

// ArticleNotifier tells subscribers about a new article.
type ArticleNotifier interface {
	NotifyArticle(ctx context.Context, article *entities.Article)
}

// RecordStore persists the run summary.
type RecordStore interface {
	Save(ctx context.Context, record *entities.ImportRecord) error
}

// Pipeline handles the import workflow:
// parse → extract attachments → per entry (resolve → bind → notify) → record.
type Pipeline struct {
	resolver EntryResolver
	binder   AttachmentBinder
	notifier ArticleNotifier
	records  RecordStore
	uploads  storage.Client
	logger   *zap.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	maxExtracted int64
}

// NewPipeline wires the import steps. uploads may be nil, in which case the
// uploaded files are not kept.
func NewPipeline(
	resolver EntryResolver,
	binder AttachmentBinder,
	notifier ArticleNotifier,
	records RecordStore,
	uploads storage.Client,
	logger *zap.Logger,
	m *metrics.Metrics,
) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		resolver: resolver,
		binder:   binder,
		notifier: notifier,
		records:  records,
		uploads:  uploads,
		logger:   logger.Named("import"),
		metrics:  m,
		now:      time.Now,
	}
}

// SetMaxExtractedBytes bounds the decompressed size of an upload's archive.
// Zero or less keeps DefaultMaxExtractedBytes.
func (p *Pipeline) SetMaxExtractedBytes(n int64) {
	p.maxExtracted = n
}

// AbortedError wraps a failure that stopped a run before any entry was
// processed. The run's ImportRecord is still saved.
type AbortedError struct {
	Record *entities.ImportRecord
	Err    error
}

func (e *AbortedError) Error() string {
	return "import aborted: " + e.Err.Error()
}

func (e *AbortedError) Unwrap() error {
	return e.Err
}

// Run imports an upload and returns the saved ImportRecord. Entry failures
// are recorded in the report; only an unreadable bibliography or archive, or
// a failure to save the record, is returned as an error.
func (p *Pipeline) Run(ctx context.Context, upload Upload) (*entities.ImportRecord, error) {
	started := p.now()
	if len(upload.Bibliography) == 0 && upload.BibliographyName == "" {
		return nil, ErrNoBibliography
	}

	report := &Report{
		BibliographyFile: p.keepUpload(ctx, "bibtex", upload.BibliographyName, upload.Bibliography, started),
		ArchiveFile:      p.keepUpload(ctx, "pdfs", upload.ArchiveName, upload.Archive, started),
	}

	entries, blobs, err := p.readUpload(upload)
	if err != nil {
		return p.abort(ctx, upload, report, err, started)
	}

	p.logger.Info("import started",
		zap.String("file", upload.BibliographyName),
		zap.Int("entries", len(entries)),
		zap.Int("attachments", len(blobs)),
	)

	for _, entry := range entries {
		report.Add(p.processEntry(ctx, entry, blobs))
	}

	record := report.Record(upload.UploadedBy)
	if err := p.records.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save import record: %w", err)
	}

	p.metrics.ImportFinished(report.Outcome(), started)
	p.logger.Info("import finished",
		zap.Uint("record_id", record.ID),
		zap.Int("total", record.TotalEntries),
		zap.Int("successful", record.SuccessfulImports),
		zap.Int("failed", record.FailedImports),
		zap.String("success_rate", record.SuccessRate()),
	)
	return record, nil
}

func (p *Pipeline) readUpload(upload Upload) ([]parsers.BibEntry, map[string][]byte, error) {
	entries, err := parsers.ParseBibTeX(bytes.NewReader(upload.Bibliography))
	if err != nil {
		return nil, nil, err
	}

	blobs := map[string][]byte{}
	if len(upload.Archive) > 0 {
		blobs, err = ExtractAttachments(bytes.NewReader(upload.Archive), int64(len(upload.Archive)), p.maxExtracted)
		if err != nil {
			return nil, nil, err
		}
	}
	return entries, blobs, nil
}

func (p *Pipeline) abort(ctx context.Context, upload Upload, report *Report, cause error, started time.Time) (*entities.ImportRecord, error) {
	record := &entities.ImportRecord{
		UploadedByID:     upload.UploadedBy,
		BibliographyFile: report.BibliographyFile,
		ArchiveFile:      report.ArchiveFile,
		LogText:          abortedPrefix + cause.Error(),
	}
	if err := p.records.Save(ctx, record); err != nil {
		p.logger.Error("failed to save aborted import record", zap.Error(err))
		record = nil
	}

	p.metrics.ImportFinished(OutcomeAborted, started)
	p.logger.Warn("import aborted", zap.String("file", upload.BibliographyName), zap.Error(cause))
	return record, &AbortedError{Record: record, Err: cause}
}

func (p *Pipeline) processEntry(ctx context.Context, entry parsers.BibEntry, blobs map[string][]byte) EntryResult {
	title, _ := entry.Get("title")
	result := EntryResult{Key: entry.Key, Title: title}

	article, err := p.resolver.Resolve(ctx, entry)
	if err != nil {
		result.Error = err.Error()
		p.metrics.EntryProcessed(false)
		p.logger.Debug("entry failed", zap.String("key", entry.Key), zap.Error(err))
		return result
	}
	result.ArticleID = article.ID
	result.Title = article.Title

	if p.binder != nil {
		stored, err := p.binder.Bind(ctx, article, blobs)
		if err != nil {
			result.Warning = err.Error()
			p.logger.Warn("attachment not stored",
				zap.String("key", entry.Key),
				zap.Uint("article_id", article.ID),
				zap.Error(err),
			)
		}
		result.Attachment = stored
	}

	if p.notifier != nil && len(article.Authors) > 0 {
		p.notifier.NotifyArticle(ctx, article)
	}

	p.metrics.EntryProcessed(true)
	return result
}

// keepUpload stores an uploaded file and returns the name recorded on the
// ImportRecord: the storage key when kept, else the original file name.
func (p *Pipeline) keepUpload(ctx context.Context, kind, name string, data []byte, at time.Time) string {
	if name == "" || p.uploads == nil {
		return name
	}
	key := storage.ImportUploadPath(kind, at, name)
	if err := p.uploads.Upload(ctx, key, bytes.NewReader(data)); err != nil {
		p.logger.Warn("failed to keep uploaded file", zap.String("file", name), zap.Error(err))
		return name
	}
	return key
}
