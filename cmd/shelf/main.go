package main

import (
	"fmt"
	"runtime"

	"github.com/joho/godotenv"
)

// Version information - set by goreleaser
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Optional .env in the working directory; real env vars win
	_ = godotenv.Load()
	Execute()
}

// versionString returns the version string.
func versionString() string {
	return fmt.Sprintf("shelf %s (%s, %s, %s)", version, commit[:min(7, len(commit))], date, runtime.Version())
}
