package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"synapselab/internal/platform/database"
	"synapselab/internal/platform/models"
)

const organizationNameConstraint = "organizations_name_key"

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	return database.Migrate(ctx, database.DialectPostgres, func(ctx context.Context, stmt string) error {
		_, err := s.pool.Exec(ctx, stmt)
		return err
	})
}

func (s *PostgresStore) FindOrganizationsByName(ctx context.Context, name string) ([]*models.Organization, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, name, active_plan, payment_method, subscription_status, created_at
		FROM organizations WHERE name = $1
	`, name)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	return collectOrganizations(rows)
}

func (s *PostgresStore) InsertOrganization(ctx context.Context, org *models.Organization) (*models.Organization, error) {
	created := *org
	err := s.pool.QueryRow(ctx, `
		INSERT INTO organizations (name, active_plan, payment_method, subscription_status, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id::text
	`, org.Name, org.ActivePlan, org.PaymentMethod, string(org.SubscriptionStatus), org.CreatedAt).Scan(&created.ID)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	return &created, nil
}

func (s *PostgresStore) InsertUser(ctx context.Context, user *models.User) (*models.User, error) {
	created := *user
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, org_name, org_id, role, tax_id, whatsapp, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id::text
	`, user.Username, user.Email, user.PasswordHash, user.OrgName, user.OrgID, string(user.Role), user.TaxID, user.Whatsapp, user.CreatedAt).Scan(&created.ID)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	return &created, nil
}

func (s *PostgresStore) DeleteOrganization(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	if err != nil {
		return mapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrOrganizationNotFound, id)
	}
	return nil
}

func (s *PostgresStore) ListOrphanOrganizations(ctx context.Context, createdBefore time.Time) ([]*models.Organization, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT o.id::text, o.name, o.active_plan, o.payment_method, o.subscription_status, o.created_at
		FROM organizations o
		WHERE o.created_at < $1
		AND NOT EXISTS (SELECT 1 FROM users u WHERE u.org_id = o.id)
		ORDER BY o.created_at
	`, createdBefore.Unix())
	if err != nil {
		return nil, mapPostgresError(err)
	}
	return collectOrganizations(rows)
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return mapPostgresError(err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func collectOrganizations(rows pgx.Rows) ([]*models.Organization, error) {
	orgs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Organization, error) {
		org := &models.Organization{}
		var status string
		if err := row.Scan(&org.ID, &org.Name, &org.ActivePlan, &org.PaymentMethod, &status, &org.CreatedAt); err != nil {
			return nil, err
		}
		org.SubscriptionStatus = models.SubscriptionStatus(status)
		return org, nil
	})
	if err != nil {
		return nil, mapPostgresError(err)
	}
	return orgs, nil
}

// mapPostgresError maps PostgreSQL errors to the package sentinels. Errors
// that match nothing are returned wrapped with the server detail.
func mapPostgresError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		var connectErr *pgconn.ConnectError
		if errors.As(err, &connectErr) {
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return err
	}

	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		if pgErr.ConstraintName == organizationNameConstraint || pgErr.TableName == "organizations" {
			return fmt.Errorf("%w: %w", ErrOrganizationAlreadyExists, err)
		}
		return fmt.Errorf("unique constraint violation: %s: %w", pgErr.ConstraintName, err)

	case pgerrcode.ForeignKeyViolation:
		return fmt.Errorf("%w: %s: %w", ErrOrganizationNotFound, pgErr.Detail, err)

	case pgerrcode.ConnectionException,
		pgerrcode.ConnectionDoesNotExist,
		pgerrcode.ConnectionFailure,
		pgerrcode.CannotConnectNow,
		pgerrcode.SQLClientUnableToEstablishSQLConnection,
		pgerrcode.AdminShutdown,
		pgerrcode.CrashShutdown,
		pgerrcode.QueryCanceled,
		pgerrcode.TooManyConnections:
		return fmt.Errorf("%w: %w", ErrUnavailable, err)

	default:
		return fmt.Errorf("postgres error [%s]: %s (detail: %s): %w", pgErr.Code, pgErr.Message, pgErr.Detail, err)
	}
}
