package database

import (
	"context"
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// ExecFunc runs one migration file. Each file must be safe to re-apply.
type ExecFunc func(ctx context.Context, statement string) error

// Migrations returns the embedded migration file names for dialect in
// apply order.
func Migrations(dialect Dialect) ([]string, error) {
	entries, err := migrationsFS.ReadDir(path.Join("migrations", string(dialect)))
	if err != nil {
		return nil, fmt.Errorf("unknown dialect %q: %w", dialect, err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func Migrate(ctx context.Context, dialect Dialect, exec ExecFunc) error {
	names, err := Migrations(dialect)
	if err != nil {
		return err
	}

	for _, name := range names {
		content, err := migrationsFS.ReadFile(path.Join("migrations", string(dialect), name))
		if err != nil {
			return err
		}

		log.Debug().Str("dialect", string(dialect)).Str("migration", name).Msg("Applying migration")
		if err := exec(ctx, string(content)); err != nil {
			return fmt.Errorf("migration %s failed: %w", name, err)
		}
	}

	return nil
}
