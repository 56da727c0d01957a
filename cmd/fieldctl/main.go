package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/fieldsync/fieldsync/internal/cli"
	"github.com/fieldsync/fieldsync/internal/config"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	cfg := config.Default()
	if path := os.Getenv("FIELDCTL_CONFIG_PATH"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			log.Fatal(err)
		}
		cfg = loaded
	}

	if base := os.Getenv("FIELDCTL_API_BASE_URL"); base != "" {
		cfg.Client.BaseURL = base
	}
	if store := os.Getenv("FIELDCTL_CREDENTIALS_PATH"); store != "" {
		cfg.Storage.CredentialsPath = store
	}

	cli.Execute(cfg)
}
