// Package bootstrap wires storage and caches for the binaries.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"socialnest/internal/cache"
	"socialnest/internal/config"
	"socialnest/internal/database"
	"socialnest/internal/docstore"
	"socialnest/internal/models"
	"socialnest/internal/registry"
	"socialnest/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Runtime is everything a binary needs after startup.
type Runtime struct {
	Store repository.Store
	Redis *redis.Client
	// DB is nil for the json storage driver.
	DB *gorm.DB
}

// InitRuntime opens the configured store, connects Redis and applies the
// admin bootstrap.
func InitRuntime(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	store, db, err := OpenStore(ctx, cfg, afero.NewOsFs())
	if err != nil {
		return nil, err
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := EnsureAdmin(ctx, cfg, store); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to bootstrap admin account: %w", err)
	}

	return &Runtime{Store: store, Redis: r, DB: db}, nil
}

// OpenStore returns the store selected by cfg.StorageDriver. Documents are
// read from fsys.
func OpenStore(ctx context.Context, cfg *config.Config, fsys afero.Fs) (repository.Store, *gorm.DB, error) {
	if cfg.StorageDriver == config.DriverJSON {
		reg, err := OpenRegistry(ctx, fsys, cfg.DocstoreDir)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewDocumentStore(reg), nil, nil
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}
	return repository.NewGormStore(db), db, nil
}

// OpenRegistry loads the document registry rooted at dir.
func OpenRegistry(ctx context.Context, fsys afero.Fs, dir string) (*registry.Registry, error) {
	ds, err := docstore.Open(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("open document store: %w", err)
	}
	reg, err := registry.Load(ctx, ds)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}
	return reg, nil
}

// EnsureAdmin creates the bootstrap admin account when ADMIN_BOOTSTRAP is on,
// or promotes an existing account of that name.
func EnsureAdmin(ctx context.Context, cfg *config.Config, store repository.Store) error {
	if cfg == nil || store == nil || !cfg.AdminBootstrap {
		return nil
	}

	username := strings.TrimSpace(cfg.AdminUsername)
	if username == "" {
		username = "admin"
	}
	if cfg.AdminPassword == "" {
		return errors.New("ADMIN_PASSWORD must be set when ADMIN_BOOTSTRAP is enabled")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	var created bool
	err = store.Atomic(ctx, func(tx repository.Store) error {
		existing, err := tx.Users().FindByFoldedUsername(ctx, username)
		if err != nil {
			return err
		}
		if existing == nil {
			created = true
			return tx.Users().Create(ctx, &models.User{
				Username: username,
				Password: string(hashedPassword),
				Role:     models.RoleAdmin,
			})
		}
		if existing.Role == models.RoleAdmin {
			return nil
		}
		return tx.Users().SetRole(ctx, existing.ID, models.RoleAdmin)
	})
	if err != nil {
		return err
	}

	if created {
		log.Printf("admin bootstrap created account %q", username)
	} else {
		log.Printf("admin bootstrap ensured admin role for %q", username)
	}
	return nil
}
