package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// Event is an academic event such as a conference or symposium (e.g. SBES, ICSE).
type Event struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Name            string    `gorm:"size:200;not null" json:"name"`
	Acronym         string    `gorm:"uniqueIndex;size:20;not null" json:"acronym"`
	PromotingEntity string    `gorm:"size:200" json:"promoting_entity"`
	Slug            string    `gorm:"uniqueIndex;size:50" json:"slug"`
	Editions        []Edition `gorm:"foreignKey:EventID" json:"editions,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// BeforeSave derives the slug from the acronym when it is not set.
func (e *Event) BeforeSave(tx *gorm.DB) error {
	if e.Slug == "" {
		e.Slug = slug.Make(strings.ToLower(e.Acronym))
	}
	return nil
}

func (e Event) String() string {
	return fmt.Sprintf("%s (%s)", e.Name, e.Acronym)
}

// Edition is one yearly occurrence of an Event.
type Edition struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	EventID   uint      `gorm:"uniqueIndex:idx_edition_event_year;not null" json:"event_id"`
	Event     Event     `gorm:"foreignKey:EventID" json:"event,omitempty"`
	Year      int       `gorm:"uniqueIndex:idx_edition_event_year;not null" json:"year"`
	Location  string    `gorm:"size:200" json:"location"`
	Articles  []Article `gorm:"foreignKey:EditionID" json:"articles,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Path is the public identity of an edition: event slug plus year.
func (e Edition) Path() string {
	return fmt.Sprintf("%s/%d", e.Event.Slug, e.Year)
}

func (e Edition) String() string {
	return fmt.Sprintf("%s %d - %s", e.Event.Acronym, e.Year, e.Location)
}

type Author struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FullName  string    `gorm:"index;size:200;not null" json:"full_name"`
	Slug      string    `gorm:"uniqueIndex;size:200" json:"slug"`
	Articles  []Article `gorm:"many2many:article_authors;" json:"articles,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// BeforeSave derives the slug from the full name when it is not set.
func (a *Author) BeforeSave(tx *gorm.DB) error {
	if a.Slug == "" {
		a.Slug = slug.Make(a.FullName)
	}
	return nil
}

type Article struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Title          string    `gorm:"size:500;not null" json:"title"`
	EditionID      uint      `gorm:"index;not null" json:"edition_id"`
	Edition        Edition   `gorm:"foreignKey:EditionID" json:"edition,omitempty"`
	Authors        []Author  `gorm:"many2many:article_authors;" json:"authors,omitempty"`
	StartPage      *int      `json:"start_page,omitempty"`
	EndPage        *int      `json:"end_page,omitempty"`
	AttachmentPath string    `gorm:"size:1024" json:"attachment_path,omitempty"`
	ExternalKey    string    `gorm:"index;size:100" json:"external_key"`
	Slug           string    `gorm:"size:600" json:"slug"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// BeforeSave derives the slug from the first 100 characters of the title.
func (a *Article) BeforeSave(tx *gorm.DB) error {
	if a.Slug == "" {
		title := []rune(a.Title)
		if len(title) > 100 {
			title = title[:100]
		}
		a.Slug = slug.Make(string(title))
	}
	return nil
}

// PagesRange renders "start--end", or an empty string unless both bounds are set.
func (a Article) PagesRange() string {
	if a.StartPage == nil || a.EndPage == nil {
		return ""
	}
	return fmt.Sprintf("%d--%d", *a.StartPage, *a.EndPage)
}

func (a Article) AuthorNames() []string {
	names := make([]string, 0, len(a.Authors))
	for _, author := range a.Authors {
		names = append(names, author.FullName)
	}
	return names
}

func (a Article) AuthorsString() string {
	return strings.Join(a.AuthorNames(), ", ")
}

func (a Article) HasAttachment() bool {
	return a.AttachmentPath != ""
}

func (Event) TableName() string {
	return "events"
}

func (Edition) TableName() string {
	return "editions"
}

func (Author) TableName() string {
	return "authors"
}

func (Article) TableName() string {
	return "articles"
}
