package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/paperpaper/catalog/internal/database/catalog"
	"github.com/paperpaper/catalog/internal/entities"
	"github.com/paperpaper/catalog/internal/storage"
)

// ArticleInput is the admin form for an article.
type ArticleInput struct {
	Title     string `json:"title" validate:"required,max=500"`
	EditionID uint   `json:"edition_id" validate:"required"`
	AuthorIDs []uint `json:"author_ids"`
	// AuthorNames are looked up by exact name and created when missing.
	AuthorNames []string `json:"author_names" validate:"dive,max=200"`
	StartPage   *int     `json:"start_page" validate:"omitempty,min=1"`
	EndPage     *int     `json:"end_page" validate:"omitempty,min=1"`
	ExternalKey string   `json:"external_key" validate:"max=100"`

	// RemoveAttachment drops the stored attachment on update.
	RemoveAttachment bool `json:"remove_attachment"`
}

// validatePages enforces that a page range carries both bounds in order.
func (in ArticleInput) validatePages() error {
	if (in.StartPage == nil) != (in.EndPage == nil) {
		return newValidationError("pages", "need both start_page and end_page")
	}
	if in.StartPage != nil && *in.EndPage < *in.StartPage {
		return newValidationError("end_page", "must not be lower than start_page")
	}
	return nil
}

// ArticleService manages articles from the admin surface.
type ArticleService struct {
	catalog  *catalog.Repository
	store    storage.Client
	notifier ArticleNotifier
	audit    AuditLogger
	logger   *zap.Logger
}

func NewArticleService(repo *catalog.Repository, store storage.Client, notifier ArticleNotifier, audit AuditLogger, logger *zap.Logger) *ArticleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArticleService{
		catalog:  repo,
		store:    store,
		notifier: notifier,
		audit:    audit,
		logger:   logger.Named("articles"),
	}
}

// Create stores a new article. Subscribers of its authors are notified once,
// here, when the article is created with a non-empty author set.
func (s *ArticleService) Create(ctx context.Context, userID uint, in ArticleInput) (*entities.Article, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := s.check(in); err != nil {
		return nil, err
	}

	if _, err := s.catalog.GetEditionByID(ctx, in.EditionID); err != nil {
		return nil, s.editionError(err)
	}
	existing, err := s.loadAuthors(ctx, in.AuthorIDs)
	if err != nil {
		return nil, err
	}

	article := &entities.Article{
		Title:       in.Title,
		EditionID:   in.EditionID,
		StartPage:   in.StartPage,
		EndPage:     in.EndPage,
		ExternalKey: strings.TrimSpace(in.ExternalKey),
	}
	err = s.catalog.Transaction(ctx, func(tx *catalog.Repository) error {
		authors, err := resolveNamedAuthors(ctx, tx, existing, in.AuthorNames)
		if err != nil {
			return err
		}
		return tx.CreateArticle(ctx, article, authors)
	})
	if err != nil {
		return nil, err
	}

	created, err := s.catalog.GetArticleByID(ctx, article.ID)
	if err != nil {
		return nil, err
	}

	if len(created.Authors) > 0 && s.notifier != nil {
		s.notifier.NotifyArticle(ctx, created)
	}
	if s.audit != nil {
		s.audit.LogCatalog(userID, "article_create", "article", created.ID, "Created article "+created.Title)
	}
	return created, nil
}

// Update rewrites an existing article. It never notifies subscribers.
func (s *ArticleService) Update(ctx context.Context, userID, id uint, in ArticleInput) (*entities.Article, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := s.check(in); err != nil {
		return nil, err
	}

	article, err := s.catalog.GetArticleByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.catalog.GetEditionByID(ctx, in.EditionID); err != nil {
		return nil, s.editionError(err)
	}
	existing, err := s.loadAuthors(ctx, in.AuthorIDs)
	if err != nil {
		return nil, err
	}

	previousAttachment := article.AttachmentPath
	if in.RemoveAttachment {
		article.AttachmentPath = ""
	}
	if article.EditionID != in.EditionID || article.Title != in.Title {
		article.Slug = ""
	}
	article.Title = in.Title
	article.EditionID = in.EditionID
	article.StartPage = in.StartPage
	article.EndPage = in.EndPage
	article.ExternalKey = strings.TrimSpace(in.ExternalKey)

	err = s.catalog.Transaction(ctx, func(tx *catalog.Repository) error {
		authors, err := resolveNamedAuthors(ctx, tx, existing, in.AuthorNames)
		if err != nil {
			return err
		}
		return tx.UpdateArticle(ctx, article, authors)
	})
	if err != nil {
		return nil, err
	}

	if in.RemoveAttachment && previousAttachment != "" && s.store != nil {
		if err := s.store.Delete(ctx, previousAttachment); err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("failed to delete attachment",
				zap.Uint("article_id", id),
				zap.String("path", previousAttachment),
				zap.Error(err),
			)
		}
	}

	if s.audit != nil {
		s.audit.LogCatalog(userID, "article_update", "article", id, "Updated article "+article.Title)
	}
	return s.catalog.GetArticleByID(ctx, id)
}

func (s *ArticleService) check(in ArticleInput) error {
	if err := validateStruct(in); err != nil {
		return err
	}
	return in.validatePages()
}

func (s *ArticleService) loadAuthors(ctx context.Context, ids []uint) ([]entities.Author, error) {
	seen := make(map[uint]bool, len(ids))
	unique := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	if len(unique) == 0 {
		return nil, nil
	}

	authors, err := s.catalog.GetAuthorsByIDs(ctx, unique)
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, newValidationError("author_ids", "references an unknown author")
	}
	return authors, err
}

// resolveNamedAuthors appends the authors named in names to existing, creating
// the missing ones, without repeating an author.
func resolveNamedAuthors(ctx context.Context, tx *catalog.Repository, existing []entities.Author, names []string) ([]entities.Author, error) {
	authors := append([]entities.Author(nil), existing...)
	seen := make(map[uint]bool, len(existing))
	for _, a := range existing {
		seen[a.ID] = true
	}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		author, err := tx.GetOrCreateAuthor(ctx, name)
		if err != nil {
			return nil, err
		}
		if !seen[author.ID] {
			seen[author.ID] = true
			authors = append(authors, *author)
		}
	}
	return authors, nil
}

func (s *ArticleService) editionError(err error) error {
	if errors.Is(err, catalog.ErrNotFound) {
		return newValidationError("edition_id", "references an unknown edition")
	}
	return err
}
