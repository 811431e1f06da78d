// Package importers turns uploaded BibTeX bibliographies into catalog articles.
//
// # Architecture
//
// An import run follows a fixed flow:
//
//	Upload → ParseBibTeX → entries ─┐
//	       → ExtractAttachments ────┴→ per entry: Resolver → Binder → Notifier → Report → ImportRecord
//
// Entries are processed in file order. A failing entry is recorded in the
// report and the run moves on; only an unreadable bibliography or archive
// aborts the run, and even then an ImportRecord is saved.
//
// # Resolution rules
//
//   - title, author, booktitle and year are required; every missing or blank
//     one is reported together
//   - year must be an integer in [MinYear, MaxYear]
//   - the event is the first one, by creation order, whose name or acronym
//     occurs in booktitle (case-insensitive); otherwise a new event is created
//   - the edition is looked up by (event, year) and created on demand
//   - authors are split on " and " and commas and looked up by exact name
//
// # Example Usage
//
//	resolver := importers.NewResolver(catalogRepo)
//	binder := importers.NewBinder(store, catalogRepo, m)
//	pipeline := importers.NewPipeline(resolver, binder, dispatcher, importsRepo, store, logger, m)
//
//	record, err := pipeline.Run(ctx, importers.Upload{
//		BibliographyName: "sbes2024.bib",
//		Bibliography:     data,
//	})
package importers
