package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"synapselab/internal/platform/models"
)

// MemoryStore keeps everything in process memory. It backs tests and local
// runs with database.url set to "memory:".
type MemoryStore struct {
	mu          sync.Mutex
	orgs        map[string]*models.Organization
	users       map[string]*models.User
	uniqueNames bool
}

type MemoryOption func(*MemoryStore)

// WithoutUniqueNames disables the name uniqueness check so the store behaves
// like a datastore with no constraint on organizations.name.
func WithoutUniqueNames() MemoryOption {
	return func(s *MemoryStore) { s.uniqueNames = false }
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		orgs:        make(map[string]*models.Organization),
		users:       make(map[string]*models.User),
		uniqueNames: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) FindOrganizationsByName(ctx context.Context, name string) ([]*models.Organization, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	orgs := []*models.Organization{}
	for _, org := range s.orgs {
		if org.Name == name {
			clone := *org
			orgs = append(orgs, &clone)
		}
	}
	sortOrganizations(orgs)
	return orgs, nil
}

func (s *MemoryStore) InsertOrganization(ctx context.Context, org *models.Organization) (*models.Organization, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.uniqueNames {
		for _, existing := range s.orgs {
			if existing.Name == org.Name {
				return nil, fmt.Errorf("%w: %s", ErrOrganizationAlreadyExists, org.Name)
			}
		}
	}

	created := *org
	created.ID = "org_" + uuid.NewString()
	stored := created
	s.orgs[created.ID] = &stored
	return &created, nil
}

func (s *MemoryStore) InsertUser(ctx context.Context, user *models.User) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orgs[user.OrgID]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrOrganizationNotFound, user.OrgID)
	}

	created := *user
	created.ID = "usr_" + uuid.NewString()
	stored := created
	s.users[created.ID] = &stored
	return &created, nil
}

func (s *MemoryStore) DeleteOrganization(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orgs[id]; !ok {
		return fmt.Errorf("%w: %s", ErrOrganizationNotFound, id)
	}
	delete(s.orgs, id)
	return nil
}

func (s *MemoryStore) ListOrphanOrganizations(ctx context.Context, createdBefore time.Time) ([]*models.Organization, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	owned := make(map[string]bool, len(s.users))
	for _, user := range s.users {
		owned[user.OrgID] = true
	}

	cutoff := createdBefore.Unix()
	orgs := []*models.Organization{}
	for _, org := range s.orgs {
		if !owned[org.ID] && org.CreatedAt < cutoff {
			clone := *org
			orgs = append(orgs, &clone)
		}
	}
	sortOrganizations(orgs)
	return orgs, nil
}

// Users returns a snapshot of the stored users belonging to orgID.
func (s *MemoryStore) Users(orgID string) []*models.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := []*models.User{}
	for _, user := range s.users {
		if user.OrgID == orgID {
			clone := *user
			users = append(users, &clone)
		}
	}
	return users
}

// OrganizationCount returns how many organizations are stored.
func (s *MemoryStore) OrganizationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orgs)
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) Close() error { return nil }

func sortOrganizations(orgs []*models.Organization) {
	sort.Slice(orgs, func(i, j int) bool {
		if orgs[i].CreatedAt != orgs[j].CreatedAt {
			return orgs[i].CreatedAt < orgs[j].CreatedAt
		}
		return orgs[i].ID < orgs[j].ID
	})
}
