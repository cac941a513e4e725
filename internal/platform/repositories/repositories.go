package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"synapselab/internal/platform/config"
	"synapselab/internal/platform/database"
	"synapselab/internal/platform/models"
)

var (
	// ErrOrganizationAlreadyExists is returned when an insert hits the unique
	// constraint on the organization name.
	ErrOrganizationAlreadyExists = errors.New("organization already exists")
	ErrOrganizationNotFound      = errors.New("organization not found")
	// ErrUnavailable covers timeouts, lock contention and lost connections.
	ErrUnavailable = errors.New("datastore unavailable")
)

// Store persists organizations and their users.
type Store interface {
	// FindOrganizationsByName returns every organization whose name equals
	// name exactly. An empty slice means none.
	FindOrganizationsByName(ctx context.Context, name string) ([]*models.Organization, error)
	// InsertOrganization stores org and returns it with the assigned ID.
	InsertOrganization(ctx context.Context, org *models.Organization) (*models.Organization, error)
	// InsertUser stores user and returns it with the assigned ID.
	InsertUser(ctx context.Context, user *models.User) (*models.User, error)
	DeleteOrganization(ctx context.Context, id string) error
	// ListOrphanOrganizations returns organizations with no users that were
	// created before createdBefore.
	ListOrphanOrganizations(ctx context.Context, createdBefore time.Time) ([]*models.Organization, error)
	Ping(ctx context.Context) error
	Close() error
}

// Open builds the Store selected by cfg.URL and applies migrations when
// AutoMigrate is set.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	switch {
	case database.IsPostgresURL(cfg.URL):
		pool, err := database.NewPostgresPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		store := NewPostgresStore(pool)
		if cfg.AutoMigrate {
			if err := store.Migrate(ctx); err != nil {
				store.Close()
				return nil, err
			}
		}
		return store, nil

	case strings.HasPrefix(cfg.URL, "memory:"):
		return NewMemoryStore(), nil

	default:
		db, err := database.NewSQLite(cfg)
		if err != nil {
			return nil, err
		}
		store := NewSQLiteStore(db)
		if cfg.AutoMigrate {
			if err := store.Migrate(ctx); err != nil {
				store.Close()
				return nil, err
			}
		}
		return store, nil
	}
}

// Migrator is implemented by stores backed by a schema.
type Migrator interface {
	Migrate(ctx context.Context) error
}
