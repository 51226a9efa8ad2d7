package main

import (
	"github.com/joho/godotenv"
	"github.com/neo/convogen/internal/logging"
)

func main() {
	// Load environment variables; a missing .env is fine when the
	// environment is already populated.
	if err := godotenv.Load(); err != nil {
		logging.Debug("No .env file loaded", map[string]interface{}{"error": err.Error()})
	}

	Execute()
}
