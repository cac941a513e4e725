package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"synapselab/internal/platform/database"
	"synapselab/internal/platform/models"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	return database.Migrate(ctx, database.DialectSQLite, func(ctx context.Context, stmt string) error {
		_, err := s.db.ExecContext(ctx, stmt)
		return err
	})
}

func (s *SQLiteStore) FindOrganizationsByName(ctx context.Context, name string) ([]*models.Organization, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, active_plan, payment_method, subscription_status, created_at
		FROM organizations WHERE name = ?
	`, name)
	if err != nil {
		return nil, mapSQLiteError(ctx, err)
	}
	defer rows.Close()

	return scanSQLiteOrganizations(ctx, rows)
}

func (s *SQLiteStore) InsertOrganization(ctx context.Context, org *models.Organization) (*models.Organization, error) {
	created := *org
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO organizations (name, active_plan, payment_method, subscription_status, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`, org.Name, org.ActivePlan, org.PaymentMethod, org.SubscriptionStatus, org.CreatedAt).Scan(&created.ID)
	if err != nil {
		return nil, mapSQLiteError(ctx, err)
	}
	return &created, nil
}

func (s *SQLiteStore) InsertUser(ctx context.Context, user *models.User) (*models.User, error) {
	created := *user
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (username, email, password_hash, org_name, org_id, role, tax_id, whatsapp, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`, user.Username, user.Email, user.PasswordHash, user.OrgName, user.OrgID, user.Role, user.TaxID, user.Whatsapp, user.CreatedAt).Scan(&created.ID)
	if err != nil {
		return nil, mapSQLiteError(ctx, err)
	}
	return &created, nil
}

func (s *SQLiteStore) DeleteOrganization(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM organizations WHERE id = ?`, id)
	if err != nil {
		return mapSQLiteError(ctx, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return mapSQLiteError(ctx, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrOrganizationNotFound, id)
	}
	return nil
}

func (s *SQLiteStore) ListOrphanOrganizations(ctx context.Context, createdBefore time.Time) ([]*models.Organization, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT o.id, o.name, o.active_plan, o.payment_method, o.subscription_status, o.created_at
		FROM organizations o
		WHERE o.created_at < ?
		AND NOT EXISTS (SELECT 1 FROM users u WHERE u.org_id = o.id)
		ORDER BY o.created_at
	`, createdBefore.Unix())
	if err != nil {
		return nil, mapSQLiteError(ctx, err)
	}
	defer rows.Close()

	return scanSQLiteOrganizations(ctx, rows)
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return mapSQLiteError(ctx, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanSQLiteOrganizations(ctx context.Context, rows *sql.Rows) ([]*models.Organization, error) {
	orgs := []*models.Organization{}
	for rows.Next() {
		org := &models.Organization{}
		if err := rows.Scan(&org.ID, &org.Name, &org.ActivePlan, &org.PaymentMethod, &org.SubscriptionStatus, &org.CreatedAt); err != nil {
			return nil, mapSQLiteError(ctx, err)
		}
		orgs = append(orgs, org)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteError(ctx, err)
	}
	return orgs, nil
}

// mapSQLiteError translates driver errors into the package sentinels.
func mapSQLiteError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}

	switch {
	case sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique,
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey:
		return fmt.Errorf("%w: %w", ErrOrganizationAlreadyExists, err)
	case sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey:
		return fmt.Errorf("%w: %w", ErrOrganizationNotFound, err)
	case sqliteErr.Code == sqlite3.ErrBusy,
		sqliteErr.Code == sqlite3.ErrLocked,
		sqliteErr.Code == sqlite3.ErrCantOpen,
		sqliteErr.Code == sqlite3.ErrIoErr:
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	default:
		return fmt.Errorf("sqlite error [%d]: %w", sqliteErr.ExtendedCode, err)
	}
}
