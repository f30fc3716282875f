package main

import (
	"github.com/joho/godotenv"

	"go-flavourcraft/cmd/flavourcraft/cmd"
	"go-flavourcraft/internal/api"
)

func main() {
	// A .env file is optional; FLAVOURCRAFT_* variables work without one
	_ = godotenv.Load()

	// Ensure the API log file buffer is flushed and closed on exit
	defer api.CleanupApiLog()

	// Execute the root command (defined in cmd/root.go)
	cmd.Execute()
}
