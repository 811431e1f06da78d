package importers

import (
	"fmt"
	"strings"

	"github.com/paperpaper/catalog/internal/entities"
)

const (
	OutcomeSuccess = "success"
	OutcomeWarning = "warning"
	OutcomeAborted = "aborted"

	abortedPrefix = "Import aborted: "

	untitled = "(untitled)"
)

// EntryResult is the outcome of one entry, in file order.
type EntryResult struct {
	Key        string `json:"key"`
	Title      string `json:"title"`
	ArticleID  uint   `json:"article_id,omitempty"`
	Error      string `json:"error,omitempty"`
	Attachment bool   `json:"attachment"`
	Warning    string `json:"warning,omitempty"`
}

func (r EntryResult) OK() bool {
	return r.Error == ""
}

// Report aggregates a run. It is rendered into the ImportRecord log text.
type Report struct {
	BibliographyFile string        `json:"bibliography_file"`
	ArchiveFile      string        `json:"archive_file,omitempty"`
	Entries          []EntryResult `json:"entries"`
}

func (r *Report) Add(result EntryResult) {
	r.Entries = append(r.Entries, result)
}

func (r *Report) Total() int {
	return len(r.Entries)
}

func (r *Report) Successful() int {
	n := 0
	for _, e := range r.Entries {
		if e.OK() {
			n++
		}
	}
	return n
}

func (r *Report) Failed() int {
	return r.Total() - r.Successful()
}

func (r *Report) SuccessRate() string {
	return entities.FormatSuccessRate(r.Successful(), r.Total())
}

// Outcome is "success" when every entry went through and "warning" otherwise.
func (r *Report) Outcome() string {
	if r.Failed() > 0 {
		return OutcomeWarning
	}
	return OutcomeSuccess
}

// RecordOutcome derives the outcome of a stored run: "aborted" for a run
// stopped by a fatal upload error, otherwise as Report.Outcome.
func RecordOutcome(record entities.ImportRecord) string {
	switch {
	case record.TotalEntries == 0 && strings.HasPrefix(record.LogText, abortedPrefix):
		return OutcomeAborted
	case record.FailedImports > 0:
		return OutcomeWarning
	default:
		return OutcomeSuccess
	}
}

// Log renders the summary header followed by one line per entry.
func (r *Report) Log() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Bibliography file: %s\n", r.BibliographyFile)
	if r.ArchiveFile != "" {
		fmt.Fprintf(&b, "Attachment archive: %s\n", r.ArchiveFile)
	}
	fmt.Fprintf(&b, "Total entries: %d\n", r.Total())
	fmt.Fprintf(&b, "Successful imports: %d\n", r.Successful())
	fmt.Fprintf(&b, "Failed imports: %d\n", r.Failed())
	fmt.Fprintf(&b, "Success rate: %s\n", r.SuccessRate())

	if len(r.Entries) > 0 {
		b.WriteString("\nDetails:\n")
	}
	for _, e := range r.Entries {
		b.WriteString(e.line())
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r EntryResult) line() string {
	title := r.Title
	if title == "" {
		title = untitled
	}
	label := title
	if r.Key != "" {
		label = fmt.Sprintf("[%s] %s", r.Key, title)
	}

	if !r.OK() {
		return fmt.Sprintf("✗ %s: %s", label, r.Error)
	}
	line := "✓ " + label
	if r.Attachment {
		line += " (attachment stored)"
	}
	if r.Warning != "" {
		line += " (warning: " + r.Warning + ")"
	}
	return line
}

// Record converts the report into the persisted summary.
func (r *Report) Record(uploadedBy *uint) *entities.ImportRecord {
	return &entities.ImportRecord{
		UploadedByID:      uploadedBy,
		BibliographyFile:  r.BibliographyFile,
		ArchiveFile:       r.ArchiveFile,
		TotalEntries:      r.Total(),
		SuccessfulImports: r.Successful(),
		FailedImports:     r.Failed(),
		LogText:           r.Log(),
	}
}
