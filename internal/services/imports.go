package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/paperpaper/catalog/internal/database/imports"
	"github.com/paperpaper/catalog/internal/entities"
	"github.com/paperpaper/catalog/internal/importers"
)

// ImportRunner executes one import run.
type ImportRunner interface {
	Run(ctx context.Context, upload importers.Upload) (*entities.ImportRecord, error)
}

// Snapshotter keeps a JSON copy of a finished run.
type Snapshotter interface {
	SaveJSON(ctx context.Context, data any) (string, error)
}

// ImportService runs bibliography imports on behalf of an admin and exposes
// the stored reports.
type ImportService struct {
	runner    ImportRunner
	records   *imports.Repository
	audit     AuditLogger
	snapshots Snapshotter
	logger    *zap.Logger
}

func NewImportService(runner ImportRunner, records *imports.Repository, audit AuditLogger, snapshots Snapshotter, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{
		runner:    runner,
		records:   records,
		audit:     audit,
		snapshots: snapshots,
		logger:    logger.Named("imports"),
	}
}

// Import runs the upload. An aborted run still returns its saved record along
// with the *importers.AbortedError.
func (s *ImportService) Import(ctx context.Context, userID uint, upload importers.Upload) (*entities.ImportRecord, error) {
	if userID != 0 {
		id := userID
		upload.UploadedBy = &id
	}

	record, err := s.runner.Run(ctx, upload)
	if errors.Is(err, importers.ErrNoBibliography) {
		return nil, newValidationError("bibtex_file", "is required")
	}

	if s.audit != nil {
		s.audit.LogImport(userID, record, err)
	}
	if record != nil && s.snapshots != nil {
		if key, serr := s.snapshots.SaveJSON(ctx, record); serr != nil {
			s.logger.Warn("failed to snapshot import record", zap.Uint("record_id", record.ID), zap.Error(serr))
		} else {
			s.logger.Debug("import record snapshot stored", zap.Uint("record_id", record.ID), zap.String("key", key))
		}
	}
	return record, err
}

func (s *ImportService) Get(ctx context.Context, id uint) (*entities.ImportRecord, error) {
	return s.records.GetByID(ctx, id)
}

func (s *ImportService) List(ctx context.Context, limit, offset int) ([]entities.ImportRecord, int64, error) {
	return s.records.List(ctx, limit, offset)
}
