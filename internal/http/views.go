package http

import (
	"fmt"
	"sort"

	"github.com/paperpaper/catalog/internal/entities"
	"github.com/paperpaper/catalog/internal/importers"
)

// ArticleView adds the rendered fields of an article to its JSON form.
type ArticleView struct {
	entities.Article
	PagesRange    string `json:"pages_range,omitempty"`
	AuthorsString string `json:"authors_string"`
	AttachmentURL string `json:"attachment_url,omitempty"`
}

func newArticleView(a entities.Article) ArticleView {
	view := ArticleView{
		Article:       a,
		PagesRange:    a.PagesRange(),
		AuthorsString: a.AuthorsString(),
	}
	if a.HasAttachment() {
		view.AttachmentURL = fmt.Sprintf("/api/articles/%d/attachment", a.ID)
	}
	return view
}

func newArticleViews(articles []entities.Article) []ArticleView {
	views := make([]ArticleView, 0, len(articles))
	for _, a := range articles {
		views = append(views, newArticleView(a))
	}
	return views
}

// YearGroup is one year of an author's publications.
type YearGroup struct {
	Year     int           `json:"year"`
	Articles []ArticleView `json:"articles"`
}

// groupByYear groups articles by edition year, newest first, keeping the
// incoming order inside a year.
func groupByYear(articles []entities.Article) []YearGroup {
	index := make(map[int]int)
	var groups []YearGroup
	for _, a := range articles {
		year := a.Edition.Year
		i, ok := index[year]
		if !ok {
			i = len(groups)
			index[year] = i
			groups = append(groups, YearGroup{Year: year})
		}
		groups[i].Articles = append(groups[i].Articles, newArticleView(a))
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Year > groups[j].Year })
	return groups
}

// ImportRecordView adds the success rate, the aggregate outcome and a link to
// the full report to a stored run.
type ImportRecordView struct {
	entities.ImportRecord
	SuccessRate string `json:"success_rate"`
	Outcome     string `json:"outcome"`
	ReportURL   string `json:"report_url"`
}

func newImportRecordView(r entities.ImportRecord) ImportRecordView {
	return ImportRecordView{
		ImportRecord: r,
		SuccessRate:  r.SuccessRate(),
		Outcome:      importers.RecordOutcome(r),
		ReportURL:    fmt.Sprintf("/api/admin/imports/%d", r.ID),
	}
}
