// Command migrate runs schema and data operations for SQL storage.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"socialnest/internal/bootstrap"
	"socialnest/internal/config"
	"socialnest/internal/database"

	"github.com/spf13/afero"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate <auto|import> [documents-dir]")
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.StorageDriver == config.DriverJSON {
		return fmt.Errorf("STORAGE_DRIVER must be postgres or sqlite to migrate")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	ctx := context.Background()
	cmd := strings.ToLower(strings.TrimSpace(flag.Arg(0)))
	switch cmd {
	case "auto":
		if err := database.Migrate(db); err != nil {
			return err
		}
		log.Println("automigrations applied")
	case "import":
		dir := cfg.DocstoreDir
		if flag.NArg() > 1 {
			dir = flag.Arg(1)
		}
		if err := database.Migrate(db); err != nil {
			return err
		}
		reg, err := bootstrap.OpenRegistry(ctx, afero.NewOsFs(), dir)
		if err != nil {
			return err
		}
		stats, err := bootstrap.ImportDocuments(ctx, db, reg.Export())
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		log.Printf("imported users=%d posts=%d likes=%d comments=%d follows=%d messages=%d notifications=%d from %s",
			stats.Users, stats.Posts, stats.Likes, stats.Comments, stats.Follows, stats.Messages, stats.Notifications, dir)
	default:
		return usage()
	}

	return nil
}
