package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"synapselab/internal/platform/models"
)

// OrphanStore is the part of repositories.Store the sweep needs.
type OrphanStore interface {
	ListOrphanOrganizations(ctx context.Context, createdBefore time.Time) ([]*models.Organization, error)
	DeleteOrganization(ctx context.Context, id string) error
}

// SweepOrphanOrganizations finds organizations that never received an admin
// user and are older than olderThan, and deletes them unless dryRun is set.
// It returns the ids found. A failed delete does not stop the sweep.
func SweepOrphanOrganizations(ctx context.Context, store OrphanStore, olderThan time.Duration, dryRun bool) ([]string, error) {
	cutoff := time.Now().Add(-olderThan)

	orphans, err := store.ListOrphanOrganizations(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list orphan organizations: %w", err)
	}

	ids := make([]string, 0, len(orphans))
	var errs []error
	for _, org := range orphans {
		ids = append(ids, org.ID)

		logger := log.With().Str("organization_id", org.ID).Str("organization_name", org.Name).Logger()
		if dryRun {
			logger.Info().Msg("Orphan organization found (dry run)")
			continue
		}

		if err := store.DeleteOrganization(ctx, org.ID); err != nil {
			logger.Error().Err(err).Msg("Failed to delete orphan organization")
			errs = append(errs, fmt.Errorf("delete %s: %w", org.ID, err))
			continue
		}
		logger.Warn().Msg("Deleted orphan organization")
	}

	return ids, errors.Join(errs...)
}
