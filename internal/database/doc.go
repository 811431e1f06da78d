// Package database provides the data access layer for the catalog.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup and migrations
//	├── catalog/         # Events, editions, authors and articles
//	├── subscriptions/   # Author notification subscriptions
//	├── imports/         # Import run reports
//	├── audit/           # Audit trail
//	└── users/           # User management
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./paperpaper.db")
//
//	catalogRepo := catalog.NewRepository(db.DB)
//	subsRepo := subscriptions.NewRepository(db.DB)
//
//	article, err := catalogRepo.GetArticleByID(ctx, 42)
//	subs, err := subsRepo.FindActiveByFullName(ctx, "Maria Silva")
//
// Write paths that must be atomic go through catalog.Repository.Transaction,
// which hands the callback a repository bound to the transaction.
package database
