// Package catalog provides database operations for events, editions,
// authors and articles.
//
// # Usage
//
//	repo := catalog.NewRepository(db)
//	err := repo.Transaction(ctx, func(tx *catalog.Repository) error {
//		edition, err := tx.GetOrCreateEdition(ctx, event.ID, 2024, "Recife")
//		...
//	})
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/paperpaper/catalog/internal/entities"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// AuthorsPerPage is the page size of the public author listing.
const AuthorsPerPage = 50

// RecentArticlesLimit is how many articles the home statistics include.
const RecentArticlesLimit = 5

type SearchKind string

const (
	SearchByTitle  SearchKind = "title"
	SearchByAuthor SearchKind = "author"
	SearchByEvent  SearchKind = "event"
)

// AuthorSummary is one row of the author listing.
type AuthorSummary struct {
	ID           uint   `json:"id"`
	FullName     string `json:"full_name"`
	Slug         string `json:"slug"`
	ArticleCount int64  `json:"article_count"`
}

// Stats feeds the home page.
type Stats struct {
	TotalEvents    int64              `json:"total_events"`
	TotalArticles  int64              `json:"total_articles"`
	TotalAuthors   int64              `json:"total_authors"`
	RecentArticles []entities.Article `json:"recent_articles"`
}

// Repository handles catalog database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new catalog repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Transaction runs fn against a repository bound to a single database
// transaction. Any error returned by fn rolls the transaction back.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

// EventsInCreationOrder returns every event ordered by id ascending.
func (r *Repository) EventsInCreationOrder(ctx context.Context) ([]entities.Event, error) {
	var events []entities.Event
	err := r.db.WithContext(ctx).Order("id ASC").Find(&events).Error
	return events, err
}

func (r *Repository) CreateEvent(ctx context.Context, event *entities.Event) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return wrapWriteError("event", err)
	}
	return nil
}

func (r *Repository) UpdateEvent(ctx context.Context, event *entities.Event) error {
	if err := r.db.WithContext(ctx).Omit("Editions").Save(event).Error; err != nil {
		return wrapWriteError("event", err)
	}
	return nil
}

// DeleteEvent removes an event together with its editions and their articles.
func (r *Repository) DeleteEvent(ctx context.Context, id uint) error {
	return r.Transaction(ctx, func(tx *Repository) error {
		var event entities.Event
		if err := tx.db.First(&event, id).Error; err != nil {
			return notFound(err)
		}

		editionIDs := tx.db.Model(&entities.Edition{}).Select("id").Where("event_id = ?", id)
		articleIDs := tx.db.Model(&entities.Article{}).Select("id").Where("edition_id IN (?)", editionIDs)

		if err := tx.db.Exec("DELETE FROM article_authors WHERE article_id IN (?)", articleIDs).Error; err != nil {
			return err
		}
		if err := tx.db.Where("edition_id IN (?)", editionIDs).Delete(&entities.Article{}).Error; err != nil {
			return err
		}
		if err := tx.db.Where("event_id = ?", id).Delete(&entities.Edition{}).Error; err != nil {
			return err
		}
		return tx.db.Delete(&event).Error
	})
}

func (r *Repository) GetEventByID(ctx context.Context, id uint) (*entities.Event, error) {
	var event entities.Event
	if err := r.db.WithContext(ctx).First(&event, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &event, nil
}

// GetEventBySlug returns the event with its editions, newest year first.
func (r *Repository) GetEventBySlug(ctx context.Context, slug string) (*entities.Event, error) {
	var event entities.Event
	err := r.db.WithContext(ctx).
		Preload("Editions", func(db *gorm.DB) *gorm.DB {
			return db.Order("year DESC")
		}).
		Where("slug = ?", slug).
		First(&event).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &event, nil
}

// ListEvents returns all events ordered by name with their editions.
func (r *Repository) ListEvents(ctx context.Context) ([]entities.Event, error) {
	var events []entities.Event
	err := r.db.WithContext(ctx).
		Preload("Editions", func(db *gorm.DB) *gorm.DB {
			return db.Order("year DESC")
		}).
		Order("name ASC").
		Find(&events).Error
	return events, err
}

// GetOrCreateEdition looks the edition up by (event, year); location is only
// used when a new edition has to be created.
func (r *Repository) GetOrCreateEdition(ctx context.Context, eventID uint, year int, location string) (*entities.Edition, error) {
	var edition entities.Edition
	err := r.db.WithContext(ctx).Where("event_id = ? AND year = ?", eventID, year).First(&edition).Error
	if err == nil {
		return &edition, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	edition = entities.Edition{EventID: eventID, Year: year, Location: location}
	if err := r.db.WithContext(ctx).Omit("Event").Create(&edition).Error; err != nil {
		return nil, wrapWriteError("edition", err)
	}
	return &edition, nil
}

// GetEdition returns an edition with its event and its articles ordered by title.
func (r *Repository) GetEdition(ctx context.Context, eventSlug string, year int) (*entities.Edition, error) {
	var event entities.Event
	if err := r.db.WithContext(ctx).Where("slug = ?", eventSlug).First(&event).Error; err != nil {
		return nil, notFound(err)
	}

	var edition entities.Edition
	err := r.db.WithContext(ctx).
		Preload("Articles", func(db *gorm.DB) *gorm.DB {
			return db.Order("title ASC")
		}).
		Preload("Articles.Authors").
		Where("event_id = ? AND year = ?", event.ID, year).
		First(&edition).Error
	if err != nil {
		return nil, notFound(err)
	}
	if err := r.sortAuthorsByLink(ctx, edition.Articles); err != nil {
		return nil, err
	}
	edition.Event = event
	return &edition, nil
}

func (r *Repository) GetEditionByID(ctx context.Context, id uint) (*entities.Edition, error) {
	var edition entities.Edition
	if err := r.db.WithContext(ctx).Preload("Event").First(&edition, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &edition, nil
}

// GetOrCreateAuthor looks the author up by exact full name.
func (r *Repository) GetOrCreateAuthor(ctx context.Context, fullName string) (*entities.Author, error) {
	var author entities.Author
	err := r.db.WithContext(ctx).Where("full_name = ?", fullName).First(&author).Error
	if err == nil {
		return &author, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	author = entities.Author{FullName: fullName}
	if err := r.db.WithContext(ctx).Create(&author).Error; err != nil {
		return nil, wrapWriteError("author", err)
	}
	return &author, nil
}

func (r *Repository) GetAuthorsByIDs(ctx context.Context, ids []uint) ([]entities.Author, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []entities.Author
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}
	if len(found) != len(ids) {
		return nil, fmt.Errorf("author: %w", ErrNotFound)
	}

	byID := make(map[uint]entities.Author, len(found))
	for _, a := range found {
		byID[a.ID] = a
	}
	authors := make([]entities.Author, 0, len(ids))
	for _, id := range ids {
		authors = append(authors, byID[id])
	}
	return authors, nil
}

// ListAuthors returns one page (1-based) of authors ordered by name together
// with their article counts, and the total number of authors.
func (r *Repository) ListAuthors(ctx context.Context, page int) ([]AuthorSummary, int64, error) {
	if page < 1 {
		page = 1
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&entities.Author{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []AuthorSummary
	err := r.db.WithContext(ctx).
		Model(&entities.Author{}).
		Select("authors.id, authors.full_name, authors.slug, COUNT(article_authors.article_id) AS article_count").
		Joins("LEFT JOIN article_authors ON article_authors.author_id = authors.id").
		Group("authors.id").
		Order("authors.full_name ASC").
		Limit(AuthorsPerPage).
		Offset((page - 1) * AuthorsPerPage).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// GetAuthorBySlug returns the author with articles, newest edition first.
func (r *Repository) GetAuthorBySlug(ctx context.Context, slug string) (*entities.Author, error) {
	var author entities.Author
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&author).Error
	if err != nil {
		return nil, notFound(err)
	}

	var articles []entities.Article
	err = r.db.WithContext(ctx).
		Joins("JOIN article_authors ON article_authors.article_id = articles.id").
		Joins("JOIN editions ON editions.id = articles.edition_id").
		Preload("Edition.Event").
		Preload("Authors").
		Where("article_authors.author_id = ?", author.ID).
		Order("editions.year DESC, articles.title ASC").
		Find(&articles).Error
	if err != nil {
		return nil, err
	}
	if err := r.sortAuthorsByLink(ctx, articles); err != nil {
		return nil, err
	}
	author.Articles = articles
	return &author, nil
}

// CreateArticle inserts the article and sets its author list.
func (r *Repository) CreateArticle(ctx context.Context, article *entities.Article, authors []entities.Author) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit("Edition", "Authors").Create(article).Error; err != nil {
		return wrapWriteError("article", err)
	}
	return replaceAuthors(db, article, authors)
}

// UpdateArticle saves the article columns and replaces the author list.
func (r *Repository) UpdateArticle(ctx context.Context, article *entities.Article, authors []entities.Author) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit("Edition", "Authors").Save(article).Error; err != nil {
		return wrapWriteError("article", err)
	}
	return replaceAuthors(db, article, authors)
}

func replaceAuthors(db *gorm.DB, article *entities.Article, authors []entities.Author) error {
	// Links are rewritten so their insertion order follows authors.
	association := db.Model(article).Association("Authors")
	if err := association.Clear(); err != nil {
		return fmt.Errorf("failed to set article authors: %w", err)
	}
	if len(authors) > 0 {
		if err := association.Append(authors); err != nil {
			return fmt.Errorf("failed to set article authors: %w", err)
		}
	}
	article.Authors = authors
	return nil
}

func (r *Repository) SetArticleAttachment(ctx context.Context, articleID uint, path string) error {
	result := r.db.WithContext(ctx).Model(&entities.Article{}).
		Where("id = ?", articleID).
		Update("attachment_path", path)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("article %d: %w", articleID, ErrNotFound)
	}
	return nil
}

// GetArticleByID loads the article with its edition, event and authors.
func (r *Repository) GetArticleByID(ctx context.Context, id uint) (*entities.Article, error) {
	articles := make([]entities.Article, 1)
	err := r.db.WithContext(ctx).
		Preload("Edition.Event").
		Preload("Authors").
		First(&articles[0], id).Error
	if err != nil {
		return nil, notFound(err)
	}
	if err := r.sortAuthorsByLink(ctx, articles); err != nil {
		return nil, err
	}
	return &articles[0], nil
}

// Search finds articles whose title, author name or event name/acronym
// contains query, ignoring case.
func (r *Repository) Search(ctx context.Context, query string, kind SearchKind) ([]entities.Article, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []entities.Article{}, nil
	}
	pattern := "%" + strings.ToLower(query) + "%"

	q := r.db.WithContext(ctx).
		Model(&entities.Article{}).
		Joins("JOIN editions ON editions.id = articles.edition_id").
		Preload("Edition.Event").
		Preload("Authors")

	switch kind {
	case SearchByAuthor:
		q = q.Where("articles.id IN (?)", r.db.
			Table("article_authors").
			Select("article_authors.article_id").
			Joins("JOIN authors ON authors.id = article_authors.author_id").
			Where("LOWER(authors.full_name) LIKE ?", pattern))
	case SearchByEvent:
		q = q.Where("editions.event_id IN (?)", r.db.
			Model(&entities.Event{}).
			Select("id").
			Where("LOWER(name) LIKE ? OR LOWER(acronym) LIKE ?", pattern, pattern))
	default:
		q = q.Where("LOWER(articles.title) LIKE ?", pattern)
	}

	var articles []entities.Article
	if err := q.Order("editions.year DESC, articles.title ASC").Find(&articles).Error; err != nil {
		return nil, err
	}
	return articles, r.sortAuthorsByLink(ctx, articles)
}

func (r *Repository) Stats(ctx context.Context) (*Stats, error) {
	db := r.db.WithContext(ctx)
	stats := &Stats{}

	if err := db.Model(&entities.Event{}).Count(&stats.TotalEvents).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&entities.Article{}).Count(&stats.TotalArticles).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&entities.Author{}).Count(&stats.TotalAuthors).Error; err != nil {
		return nil, err
	}

	err := db.Preload("Edition.Event").
		Preload("Authors").
		Order("created_at DESC, id DESC").
		Limit(RecentArticlesLimit).
		Find(&stats.RecentArticles).Error
	if err != nil {
		return nil, err
	}
	if err := r.sortAuthorsByLink(ctx, stats.RecentArticles); err != nil {
		return nil, err
	}
	return stats, nil
}

type authorLink struct {
	ArticleID uint
	AuthorID  uint
}

// sortAuthorsByLink puts each article's authors in the order they were
// linked, which is the order of the list given on create or update.
func (r *Repository) sortAuthorsByLink(ctx context.Context, articles []entities.Article) error {
	if len(articles) == 0 {
		return nil
	}
	ids := make([]uint, len(articles))
	for i := range articles {
		ids[i] = articles[i].ID
	}

	var links []authorLink
	err := r.db.WithContext(ctx).
		Table("article_authors").
		Select("article_id, author_id").
		Where("article_id IN ?", ids).
		Order("rowid ASC").
		Scan(&links).Error
	if err != nil {
		return fmt.Errorf("failed to load author order: %w", err)
	}

	position := make(map[authorLink]int, len(links))
	for i, link := range links {
		position[link] = i
	}
	for i := range articles {
		a := &articles[i]
		sort.SliceStable(a.Authors, func(x, y int) bool {
			return position[authorLink{a.ID, a.Authors[x].ID}] < position[authorLink{a.ID, a.Authors[y].ID}]
		})
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// wrapWriteError keeps the driver message so import reports show which
// constraint failed.
func wrapWriteError(entity string, err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("%s: %w: %v", entity, ErrDuplicate, err)
	}
	return fmt.Errorf("failed to save %s: %w", entity, err)
}

// isUniqueViolation matches the SQLite driver's constraint message; the gorm
// sqlite driver does not translate errors unless TranslateError is enabled.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
