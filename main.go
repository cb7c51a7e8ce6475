package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/ramanasai/bloom/cmd"
	"github.com/ramanasai/bloom/internal/version"
)

// Build metadata injected by goreleaser or makefile
var (
	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

func init() {
	version.Version = buildVersion
	version.Commit = buildCommit
	version.Date = buildDate
}

func main() {
	// A .env next to the binary may carry BLOOM_* overrides.
	_ = godotenv.Load()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
