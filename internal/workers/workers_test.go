package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"synapselab/internal/platform/models"
	"synapselab/internal/platform/repositories"
)

func seedOrphans(t *testing.T, store *repositories.MemoryStore) (orphan, owned, fresh *models.Organization) {
	t.Helper()
	ctx := context.Background()
	old := time.Now().Add(-2 * time.Hour).Unix()

	var err error
	orphan, err = store.InsertOrganization(ctx, &models.Organization{Name: "Orphan", CreatedAt: old})
	require.NoError(t, err)
	owned, err = store.InsertOrganization(ctx, &models.Organization{Name: "Owned", CreatedAt: old})
	require.NoError(t, err)
	fresh, err = store.InsertOrganization(ctx, &models.Organization{Name: "Fresh", CreatedAt: time.Now().Unix()})
	require.NoError(t, err)

	_, err = store.InsertUser(ctx, &models.User{Username: "Ana", OrgID: owned.ID, Role: models.RoleAdmin})
	require.NoError(t, err)
	return orphan, owned, fresh
}

func TestSweepOrphanOrganizations_DryRun(t *testing.T) {
	store := repositories.NewMemoryStore()
	orphan, _, _ := seedOrphans(t, store)

	ids, err := SweepOrphanOrganizations(context.Background(), store, 30*time.Minute, true)
	require.NoError(t, err)
	assert.Equal(t, []string{orphan.ID}, ids)
	assert.Equal(t, 3, store.OrganizationCount())
}

func TestSweepOrphanOrganizations_Deletes(t *testing.T) {
	store := repositories.NewMemoryStore()
	orphan, _, _ := seedOrphans(t, store)

	ids, err := SweepOrphanOrganizations(context.Background(), store, 30*time.Minute, false)
	require.NoError(t, err)
	assert.Equal(t, []string{orphan.ID}, ids)
	assert.Equal(t, 2, store.OrganizationCount())

	found, err := store.FindOrganizationsByName(context.Background(), "Orphan")
	require.NoError(t, err)
	assert.Empty(t, found)
}

type failingDeleteStore struct {
	*repositories.MemoryStore
}

func (s *failingDeleteStore) DeleteOrganization(ctx context.Context, id string) error {
	return repositories.ErrUnavailable
}

func TestSweepOrphanOrganizations_ReportsDeleteFailures(t *testing.T) {
	store := &failingDeleteStore{MemoryStore: repositories.NewMemoryStore()}
	orphan, _, _ := seedOrphans(t, store.MemoryStore)

	ids, err := SweepOrphanOrganizations(context.Background(), store, 30*time.Minute, false)
	assert.ErrorIs(t, err, repositories.ErrUnavailable)
	assert.Equal(t, []string{orphan.ID}, ids)
}

func TestRunner_SkipsOverlappingRuns(t *testing.T) {
	r := NewRunner(context.Background())

	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan bool)

	go func() {
		done <- r.Run("sweep", func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	assert.False(t, r.Run("sweep", func(ctx context.Context) error { return nil }))
	assert.True(t, r.Run("other", func(ctx context.Context) error { return errors.New("boom") }))

	close(release)
	assert.True(t, <-done)
	assert.True(t, r.Run("sweep", func(ctx context.Context) error { return nil }))
}

func TestRunner_RunOnceReturnsJobError(t *testing.T) {
	r := NewRunner(context.Background())
	boom := errors.New("boom")

	assert.ErrorIs(t, r.RunOnce("sweep", func(ctx context.Context) error { return boom }), boom)
	assert.NoError(t, r.RunOnce("sweep", func(ctx context.Context) error { return nil }))
}

func TestRunner_RunOnceWhileRunning(t *testing.T) {
	r := NewRunner(context.Background())

	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan error)

	go func() {
		done <- r.RunOnce("sweep", func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	called := false
	err := r.RunOnce("sweep", func(ctx context.Context) error { called = true; return nil })
	assert.ErrorIs(t, err, ErrJobRunning)
	assert.False(t, called)

	close(release)
	assert.NoError(t, <-done)
}

func TestRunner_Add(t *testing.T) {
	r := NewRunner(context.Background())
	job := func(ctx context.Context) error { return nil }

	assert.NoError(t, r.Add("@every 15m", "sweep", job))
	assert.Error(t, r.Add("not a schedule", "sweep", job))
}
