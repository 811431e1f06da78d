// Package exporters renders catalog content back into BibTeX, in a shape the
// import pipeline accepts again.
package exporters

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/paperpaper/catalog/internal/entities"
)

// ExportResult counts what an export wrote.
type ExportResult struct {
	Articles int `json:"articles"`
	Skipped  int `json:"skipped"`
}

// GenerateBibTeX renders one @inproceedings entry per article. Articles must
// carry their edition, event and authors. Articles without a title are
// skipped.
func GenerateBibTeX(articles []entities.Article) (string, ExportResult) {
	var builder strings.Builder
	result := ExportResult{}
	used := make(map[string]int, len(articles))

	for _, article := range articles {
		if strings.TrimSpace(article.Title) == "" {
			result.Skipped++
			continue
		}

		key := CitationKey(article)
		if n := used[key]; n > 0 {
			used[key] = n + 1
			key = fmt.Sprintf("%s_%d", key, n+1)
		} else {
			used[key] = 1
		}

		if result.Articles > 0 {
			builder.WriteString("\n")
		}
		writeEntry(&builder, key, article)
		result.Articles++
	}
	return builder.String(), result
}

func writeEntry(b *strings.Builder, key string, article entities.Article) {
	var fields []string
	add := func(name, value string) {
		if value = strings.TrimSpace(value); value != "" {
			fields = append(fields, fmt.Sprintf("  %-9s = {%s}", name, escapeValue(value)))
		}
	}

	add("title", article.Title)
	add("author", strings.Join(article.AuthorNames(), " and "))
	add("booktitle", article.Edition.Event.Name)
	if article.Edition.Year != 0 {
		add("year", fmt.Sprint(article.Edition.Year))
	}
	if pages := article.PagesRange(); pages != "" {
		add("pages", pages)
	} else if article.StartPage != nil {
		add("pages", fmt.Sprint(*article.StartPage))
	}
	add("location", article.Edition.Location)

	fmt.Fprintf(b, "@inproceedings{%s,\n%s\n}\n", key, strings.Join(fields, ",\n"))
}

// escapeValue drops every brace from a value whose braces do not balance.
func escapeValue(value string) string {
	depth := 0
	for _, r := range value {
		switch r {
		case '{':
			depth++
		case '}':
			depth--
		}
		if depth < 0 {
			break
		}
	}
	if depth != 0 {
		value = strings.NewReplacer("{", "", "}", "").Replace(value)
	}
	return strings.ReplaceAll(value, "\n", " ")
}

// CitationKey is the article's own key when it has one, otherwise one built
// from the event slug, the year and the article id.
func CitationKey(article entities.Article) string {
	if key := sanitizeKey(article.ExternalKey); key != "" {
		return key
	}
	return sanitizeKey(fmt.Sprintf("%s%d-%d", article.Edition.Event.Slug, article.Edition.Year, article.ID))
}

func sanitizeKey(key string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("-_:.", r) {
			return r
		}
		return -1
	}, strings.TrimSpace(key))
}
