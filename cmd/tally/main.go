package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/tally-dev/tally/internal/commands"
)

func main() {
	// Optional; lets TALLY_* settings live in a local .env during development.
	_ = godotenv.Load()

	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
