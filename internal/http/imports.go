package http

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/paperpaper/catalog/internal/importers"
)

// DefaultMaxUploadBytes bounds one import request, bibliography and archive
// together.
const DefaultMaxUploadBytes = 200 << 20

type ImportsController struct {
	imports  ImportManager
	maxBytes int64
}

func NewImportsController(imports ImportManager, maxBytes int64) *ImportsController {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &ImportsController{imports: imports, maxBytes: maxBytes}
}

// Import runs a bibliography import from a multipart form with a required
// "bibtex_file" and an optional "zip_file" of PDFs.
// POST /api/admin/imports
func (ic *ImportsController) Import(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, ic.maxBytes)

	bibName, bib, err := readFormFile(c, "bibtex_file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		respondBadRequest(c, "bibtex_file is required")
		return
	}

	upload := importers.Upload{BibliographyName: bibName, Bibliography: bib}
	if zipName, archive, err := readFormFile(c, "zip_file"); err == nil {
		upload.ArchiveName = zipName
		upload.Archive = archive
	} else if !errors.Is(err, http.ErrMissingFile) {
		respondBadRequest(c, "could not read zip_file")
		return
	}

	record, err := ic.imports.Import(c.Request.Context(), GetUserID(c), upload)
	var aborted *importers.AbortedError
	switch {
	case errors.As(err, &aborted):
		body := gin.H{"error": aborted.Err.Error()}
		if record != nil {
			body["record"] = newImportRecordView(*record)
		}
		c.JSON(http.StatusUnprocessableEntity, body)
	case err != nil:
		respondServiceError(c, err, "import")
	default:
		respondCreated(c, newImportRecordView(*record))
	}
}

// List returns import reports, newest first.
// GET /api/admin/imports
func (ic *ImportsController) List(c *gin.Context) {
	limit, offset := parsePagination(c)
	records, total, err := ic.imports.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondInternalError(c, err, "imports")
		return
	}

	views := make([]ImportRecordView, 0, len(records))
	for _, r := range records {
		views = append(views, newImportRecordView(r))
	}
	c.JSON(http.StatusOK, paginated(views, total, limit, offset))
}

// Get returns one full report including its log.
// GET /api/admin/imports/:id
func (ic *ImportsController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	record, err := ic.imports.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "import")
		return
	}
	c.JSON(http.StatusOK, newImportRecordView(*record))
}

func readFormFile(c *gin.Context, field string) (string, []byte, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return "", nil, err
	}
	data, err := readMultipartFile(header)
	if err != nil {
		return "", nil, err
	}
	return header.Filename, data, nil
}

func readMultipartFile(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
