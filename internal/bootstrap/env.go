package bootstrap

import (
	"log"

	"github.com/joho/godotenv"
)

// LoadEnv populates the process environment from a local .env file when one
// exists. Runs before config.Load, so it cannot use the zap logger yet.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system environment variables")
	}
}
