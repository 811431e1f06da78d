package config

const (
	// DefaultDatabasePath is the default path for the catalog database
	DefaultDatabasePath = "./paperpaper.db"

	// DefaultStorageRoot is where the local backend keeps attachments and uploads
	DefaultStorageRoot = "./media"

	DefaultMailFrom = "no-reply@paperpaper.local"
	DefaultSiteURL  = "http://localhost:8000"
)
