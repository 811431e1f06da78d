package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/paperpaper/catalog/internal/auth"
	"github.com/paperpaper/catalog/internal/entrypoint"
	"github.com/paperpaper/catalog/internal/importers"
	"github.com/paperpaper/catalog/internal/parsers"
)

type importOptions struct {
	file     string
	archive  string
	username string
	dryRun   bool
}

func newImportCommand(e *env) *cobra.Command {
	opts := &importOptions{}
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a BibTeX file, optionally with a zip of PDFs",
		Long: `Import every entry of a BibTeX file into the catalog.

Events, editions and authors are matched against the catalog and created when
missing. PDFs in the archive are attached to the entry whose citation key
matches the file name (doe2024study.pdf belongs to @inproceedings{doe2024study,...}).`,
		Example: `  paperpaper import --file sbes2024.bib
  paperpaper import --file sbes2024.bib --archive sbes2024-pdfs.zip --user admin
  paperpaper import --file sbes2024.bib --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, e, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "BibTeX file to import (required)")
	cmd.Flags().StringVarP(&opts.archive, "archive", "a", "", "Zip archive with one PDF per citation key")
	cmd.Flags().StringVarP(&opts.username, "user", "u", "", "Record the import as done by this user")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Validate the entries without touching the catalog")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runImport(cmd *cobra.Command, e *env, opts *importOptions) error {
	bib, err := os.ReadFile(opts.file)
	if err != nil {
		return fmt.Errorf("failed to read bibliography: %w", err)
	}

	if opts.dryRun {
		return dryRunImport(e, bib)
	}

	upload := importers.Upload{
		BibliographyName: filepath.Base(opts.file),
		Bibliography:     bib,
	}
	if opts.archive != "" {
		archive, err := os.ReadFile(opts.archive)
		if err != nil {
			return fmt.Errorf("failed to read archive: %w", err)
		}
		upload.ArchiveName = filepath.Base(opts.archive)
		upload.Archive = archive
	}

	ctx := cmd.Context()
	app, err := entrypoint.NewApp(ctx, e.cfg, e.logger, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	var userID uint
	if opts.username != "" {
		user, err := app.Users.GetUserByUsername(opts.username)
		if err != nil {
			return fmt.Errorf("user %q: %w", opts.username, err)
		}
		if !auth.CanImport(user.Role) {
			return fmt.Errorf("user %q is not allowed to import", opts.username)
		}
		userID = user.ID
	}

	record, err := app.Imports.Import(ctx, userID, upload)
	var aborted *importers.AbortedError
	if errors.As(err, &aborted) {
		if record != nil {
			fmt.Fprintf(e.out, "Import #%d aborted\n", record.ID)
		}
		return aborted.Err
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(e.out, "Import #%d\n%s\n", record.ID, record.LogText)
	return nil
}

// dryRunImport parses and validates without opening the database.
func dryRunImport(e *env, bib []byte) error {
	entries, err := parsers.ParseBibTeX(bytes.NewReader(bib))
	if err != nil {
		return err
	}

	valid := 0
	for _, entry := range entries {
		if _, err := importers.Validate(entry); err != nil {
			fmt.Fprintf(e.out, "✗ [%s] %v\n", entry.Key, err)
			continue
		}
		if pages, ok := entry.Get("pages"); ok {
			if _, _, err := importers.ParsePages(pages); err != nil {
				fmt.Fprintf(e.out, "✗ [%s] %v\n", entry.Key, err)
				continue
			}
		}
		valid++
		fmt.Fprintf(e.out, "✓ [%s]\n", entry.Key)
	}
	fmt.Fprintf(e.out, "%d of %d entries would be imported\n", valid, len(entries))
	return nil
}
