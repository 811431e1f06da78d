package main

import (
	"os"

	"github.com/paperpaper/catalog/internal/cli"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	os.Exit(cli.Execute(Version + " (" + Commit + ")"))
}
