package main

import (
	"os"

	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/sqlcheck/sqlcheck/internal/cli"
)

func main() {
	// Load .env file if it exists (silently ignore errors)
	_ = godotenv.Load()

	os.Exit(cli.Execute(os.Args[1:]))
}
