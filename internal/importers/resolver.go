package importers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/paperpaper/catalog/internal/database/catalog"
	"github.com/paperpaper/catalog/internal/entities"
	"github.com/paperpaper/catalog/internal/parsers"
)

const (
	MinYear = 1900
	MaxYear = 2100

	// ImportedPromotingEntity marks events created by an import.
	ImportedPromotingEntity = "imported"

	// DefaultLocation is used for new editions whose entry has no location.
	DefaultLocation = "location not provided"

	// acronymLength is how many characters of the venue become the acronym
	// of an auto-created event.
	acronymLength = 10
)

// RequiredFields must be present and non-blank on every entry.
var RequiredFields = []string{"title", "author", "booktitle", "year"}

// MissingFieldsError lists every required field that is absent and every one
// that is present but blank.
type MissingFieldsError struct {
	Missing []string
	Empty   []string
}

func (e *MissingFieldsError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Empty) > 0 {
		parts = append(parts, "empty required fields: "+strings.Join(e.Empty, ", "))
	}
	return strings.Join(parts, "; ")
}

type InvalidYearError struct {
	Raw string
}

func (e *InvalidYearError) Error() string {
	return fmt.Sprintf("invalid year %q: not an integer", e.Raw)
}

type YearOutOfRangeError struct {
	Year  int
	Bound string // "minimum" or "maximum"
	Limit int
}

func (e *YearOutOfRangeError) Error() string {
	if e.Bound == "minimum" {
		return fmt.Sprintf("year %d is below the minimum %d", e.Year, e.Limit)
	}
	return fmt.Sprintf("year %d is above the maximum %d", e.Year, e.Limit)
}

type InvalidPagesError struct {
	Raw string
}

func (e *InvalidPagesError) Error() string {
	return fmt.Sprintf("invalid pages %q: bounds must be integers", e.Raw)
}

// ValidEntry holds the fields of an entry that passed validation.
type ValidEntry struct {
	Key      string
	Title    string
	Authors  string
	Venue    string
	Year     int
	Location string
	Pages    string
}

// Validate checks required fields and the year. It never touches the store.
func Validate(entry parsers.BibEntry) (*ValidEntry, error) {
	values := make(map[string]string, len(RequiredFields))
	missing := &MissingFieldsError{}
	for _, name := range RequiredFields {
		v, ok := entry.Get(name)
		switch {
		case !ok:
			missing.Missing = append(missing.Missing, name)
		case strings.TrimSpace(v) == "":
			missing.Empty = append(missing.Empty, name)
		default:
			values[name] = strings.TrimSpace(v)
		}
	}
	if len(missing.Missing) > 0 || len(missing.Empty) > 0 {
		return nil, missing
	}

	year, err := strconv.Atoi(values["year"])
	if err != nil {
		return nil, &InvalidYearError{Raw: values["year"]}
	}
	if year < MinYear {
		return nil, &YearOutOfRangeError{Year: year, Bound: "minimum", Limit: MinYear}
	}
	if year > MaxYear {
		return nil, &YearOutOfRangeError{Year: year, Bound: "maximum", Limit: MaxYear}
	}

	key, _ := entry.Get("ID")
	location, _ := entry.Get("location")
	pages, _ := entry.Get("pages")

	return &ValidEntry{
		Key:      key,
		Title:    values["title"],
		Authors:  values["author"],
		Venue:    values["booktitle"],
		Year:     year,
		Location: strings.TrimSpace(location),
		Pages:    strings.TrimSpace(pages),
	}, nil
}

// SplitAuthors turns "A and B, C" into ["A", "B", "C"].
func SplitAuthors(raw string) []string {
	raw = strings.ReplaceAll(raw, " and ", ",")
	var names []string
	for _, part := range strings.Split(raw, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// ParsePages reads "start--end" or a lone "start". An empty value yields no bounds.
func ParsePages(raw string) (start, end *int, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil, nil
	}

	parts := strings.Split(raw, "--")
	first, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return nil, nil, &InvalidPagesError{Raw: raw}
	}
	start = &first
	if len(parts) == 1 {
		return start, nil, nil
	}

	second, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, nil, &InvalidPagesError{Raw: raw}
	}
	return start, &second, nil
}

// MatchEvent returns the first event, in the given order, whose name or
// acronym occurs in venue ignoring case.
func MatchEvent(events []entities.Event, venue string) *entities.Event {
	venue = strings.ToLower(venue)
	for i := range events {
		name := strings.ToLower(strings.TrimSpace(events[i].Name))
		acronym := strings.ToLower(strings.TrimSpace(events[i].Acronym))
		if (name != "" && strings.Contains(venue, name)) || (acronym != "" && strings.Contains(venue, acronym)) {
			return &events[i]
		}
	}
	return nil
}

// Resolver validates entries and turns them into stored articles, reusing or
// creating the event, edition and authors they reference.
type Resolver struct {
	catalog *catalog.Repository
}

func NewResolver(repo *catalog.Repository) *Resolver {
	return &Resolver{catalog: repo}
}

// Resolve stores one entry as an article. The returned article carries its
// edition, event and authors. Edition, authors and article are written in one
// transaction; an event created for the entry survives a later failure so
// following entries can reuse it.
func (r *Resolver) Resolve(ctx context.Context, entry parsers.BibEntry) (article *entities.Article, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			article = nil
			err = fmt.Errorf("unexpected error: %v", rec)
		}
	}()

	valid, err := Validate(entry)
	if err != nil {
		return nil, err
	}

	start, end, err := ParsePages(valid.Pages)
	if err != nil {
		return nil, err
	}

	event, err := r.resolveEvent(ctx, valid.Venue)
	if err != nil {
		return nil, err
	}

	location := valid.Location
	if location == "" {
		location = DefaultLocation
	}

	err = r.catalog.Transaction(ctx, func(tx *catalog.Repository) error {
		edition, err := tx.GetOrCreateEdition(ctx, event.ID, valid.Year, location)
		if err != nil {
			return err
		}

		var authors []entities.Author
		seen := make(map[uint]bool)
		for _, name := range SplitAuthors(valid.Authors) {
			author, err := tx.GetOrCreateAuthor(ctx, name)
			if err != nil {
				return err
			}
			if !seen[author.ID] {
				seen[author.ID] = true
				authors = append(authors, *author)
			}
		}

		created := &entities.Article{
			Title:       valid.Title,
			EditionID:   edition.ID,
			StartPage:   start,
			EndPage:     end,
			ExternalKey: valid.Key,
		}
		if err := tx.CreateArticle(ctx, created, authors); err != nil {
			return err
		}

		edition.Event = *event
		created.Edition = *edition
		created.Authors = authors
		article = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return article, nil
}

func (r *Resolver) resolveEvent(ctx context.Context, venue string) (*entities.Event, error) {
	events, err := r.catalog.EventsInCreationOrder(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	if event := MatchEvent(events, venue); event != nil {
		return event, nil
	}

	acronym := []rune(venue)
	if len(acronym) > acronymLength {
		acronym = acronym[:acronymLength]
	}
	event := &entities.Event{
		Name:            venue,
		Acronym:         strings.TrimSpace(string(acronym)),
		PromotingEntity: ImportedPromotingEntity,
	}
	if err := r.catalog.CreateEvent(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}
