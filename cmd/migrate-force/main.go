package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/yourusername/assessment-api/internal/config"
	"github.com/yourusername/assessment-api/pkg/database"
)

// Снимает dirty-состояние миграций: помечает указанную версию как примененную.
// Использование: migrate-force -version 1
func main() {
	version := flag.Int("version", -1, "migration version to force (the last one that applied cleanly)")
	flag.Parse()

	if *version < 0 {
		flag.Usage()
		os.Exit(2)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config from %s: %v", configPath, err)
	}

	fmt.Printf("Forcing migration version to %d to clean dirty state...\n", *version)
	if err := database.ForceVersion(cfg.Database.PostgresURL(), cfg.Database.MigrationsPath, *version); err != nil {
		log.Fatalf("Failed to force version: %v", err)
	}

	fmt.Println("Success! Dirty state cleaned. You can now run the app normally.")
}
