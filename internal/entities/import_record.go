package entities

import (
	"fmt"
	"time"
)

// ImportRecord is the persisted report of one bibliography import run.
type ImportRecord struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	UploadedByID      *uint     `gorm:"index" json:"uploaded_by_id,omitempty"`
	UploadedBy        *User     `gorm:"foreignKey:UploadedByID" json:"uploaded_by,omitempty"`
	BibliographyFile  string    `gorm:"size:255" json:"bibliography_file"`
	ArchiveFile       string    `gorm:"size:255" json:"archive_file,omitempty"`
	TotalEntries      int       `json:"total_entries"`
	SuccessfulImports int       `json:"successful_imports"`
	FailedImports     int       `json:"failed_imports"`
	LogText           string    `gorm:"type:text" json:"log_text"`
	CreatedAt         time.Time `gorm:"index" json:"created_at"`
}

// SuccessRate renders the share of successful entries with one decimal,
// or "0%" when the file had no entries.
func (r ImportRecord) SuccessRate() string {
	return FormatSuccessRate(r.SuccessfulImports, r.TotalEntries)
}

func FormatSuccessRate(successful, total int) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", float64(successful)/float64(total)*100)
}

func (ImportRecord) TableName() string {
	return "import_records"
}
