package registration

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"synapselab/internal/engine/notify"
	"synapselab/internal/pkg/validator"
	"synapselab/internal/platform/models"
	"synapselab/internal/platform/repositories"
)

// Datastore is the subset of repositories.Store the service needs.
type Datastore interface {
	FindOrganizationsByName(ctx context.Context, name string) ([]*models.Organization, error)
	InsertOrganization(ctx context.Context, org *models.Organization) (*models.Organization, error)
	InsertUser(ctx context.Context, user *models.User) (*models.User, error)
	DeleteOrganization(ctx context.Context, id string) error
}

const minBcryptCost = 10

type Options struct {
	BcryptCost    int
	StoreTimeout  time.Duration
	NotifyTimeout time.Duration
	// LookupAttempts bounds the duplicate check, the only retried call.
	LookupAttempts int
	RetryInterval  time.Duration
	// CompensateOnUserFailure deletes the new organization when the user
	// insert fails. Off by default, leaving the organization in place.
	CompensateOnUserFailure bool
	Validator               *validator.Validator
}

func (o Options) withDefaults() Options {
	if o.BcryptCost < minBcryptCost {
		o.BcryptCost = minBcryptCost
	}
	if o.BcryptCost > bcrypt.MaxCost {
		o.BcryptCost = bcrypt.MaxCost
	}
	if o.StoreTimeout <= 0 {
		o.StoreTimeout = 5 * time.Second
	}
	if o.NotifyTimeout <= 0 {
		o.NotifyTimeout = 15 * time.Second
	}
	if o.LookupAttempts < 1 {
		o.LookupAttempts = 1
	}
	if o.RetryInterval <= 0 {
		o.RetryInterval = 100 * time.Millisecond
	}
	if o.Validator == nil {
		o.Validator = validator.New(nil, nil)
	}
	return o
}

// Service registers a new organization with its first admin user. It holds
// no per-request state and is safe for concurrent use.
type Service struct {
	store    Datastore
	notifier notify.Notifier
	opts     Options
	now      func() time.Time
}

func NewService(store Datastore, notifier notify.Notifier, opts Options) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		opts:     opts.withDefaults(),
		now:      time.Now,
	}
}

// Result is returned on success. NotificationErr is set when the records were
// written but the welcome email could not be delivered.
type Result struct {
	Organization    *models.Organization
	User            *models.User
	NotificationErr error
}

func (r *Result) Notified() bool {
	return r.NotificationErr == nil
}

// Register validates in, rejects an existing organization name, hashes the
// password, writes the organization then its admin user, and sends the
// welcome email. Steps run in that order and stop at the first failure,
// except notification, which never fails the call.
func (s *Service) Register(ctx context.Context, in Input) (*Result, error) {
	in = in.Normalize()
	if err := s.opts.Validator.Struct(in); err != nil {
		return nil, &Error{Kind: KindInvalidInput, Op: "validate", Err: err}
	}

	logger := zerolog.Ctx(ctx).With().Str("organization_name", in.OrganizationName).Logger()

	existing, err := s.findOrganizations(ctx, in.OrganizationName)
	if err != nil {
		kind := KindInternal
		if isUnavailable(err) {
			kind = KindUpstreamUnavailable
		}
		return nil, &Error{Kind: kind, Op: "lookup", Err: err}
	}
	if len(existing) > 0 {
		return nil, &Error{Kind: KindDuplicateOrganization, Op: "lookup", Err: repositories.ErrOrganizationAlreadyExists}
	}

	hash, err := hashPassword(ctx, in.Password, s.opts.BcryptCost)
	if err != nil {
		return nil, &Error{Kind: KindInternal, Op: "hash", Err: err}
	}

	now := s.now().Unix()
	org, err := s.insertOrganization(ctx, &models.Organization{
		Name:               in.OrganizationName,
		ActivePlan:         in.Plan,
		PaymentMethod:      in.PaymentMethod,
		SubscriptionStatus: models.SubscriptionStatusActive,
		CreatedAt:          now,
	})
	if err != nil {
		return nil, err
	}

	user, err := s.insertUser(ctx, &models.User{
		Username:     in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		OrgName:      org.Name,
		OrgID:        org.ID,
		Role:         models.RoleAdmin,
		TaxID:        in.TaxID,
		Whatsapp:     in.Whatsapp,
		CreatedAt:    now,
	})
	if err != nil {
		logger.Error().Err(err).Str("organization_id", org.ID).Msg("Admin user insert failed after organization was created")
		if s.opts.CompensateOnUserFailure {
			s.compensate(ctx, logger, org.ID)
		}
		return nil, err
	}

	result := &Result{Organization: org, User: user}
	result.NotificationErr = s.sendWelcome(ctx, logger, org, user, in.Plan)
	return result, nil
}

func (s *Service) findOrganizations(ctx context.Context, name string) ([]*models.Organization, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.opts.RetryInterval

	return backoff.Retry(ctx, func() ([]*models.Organization, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, s.opts.StoreTimeout)
		defer cancel()

		orgs, err := s.store.FindOrganizationsByName(attemptCtx, name)
		if err != nil && !isUnavailable(err) {
			return nil, backoff.Permanent(err)
		}
		return orgs, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(s.opts.LookupAttempts)))
}

// insertOrganization is never retried. A uniqueness violation is the
// authoritative duplicate signal when two registrations race.
func (s *Service) insertOrganization(ctx context.Context, org *models.Organization) (*models.Organization, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()

	created, err := s.store.InsertOrganization(storeCtx, org)
	switch {
	case err == nil:
		return created, nil
	case errors.Is(err, repositories.ErrOrganizationAlreadyExists):
		return nil, &Error{Kind: KindDuplicateOrganization, Op: "insert_organization", Err: err}
	case isUnavailable(err):
		return nil, &Error{Kind: KindUpstreamUnavailable, Op: "insert_organization", Err: err}
	default:
		return nil, &Error{Kind: KindOrganizationCreateFailed, Op: "insert_organization", Err: err}
	}
}

// insertUser reports every failure as KindUserCreateFailed, timeouts
// included, since the organization already exists at this point.
func (s *Service) insertUser(ctx context.Context, user *models.User) (*models.User, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()

	created, err := s.store.InsertUser(storeCtx, user)
	if err != nil {
		return nil, &Error{Kind: KindUserCreateFailed, Op: "insert_user", Err: err}
	}
	return created, nil
}

func (s *Service) compensate(ctx context.Context, logger zerolog.Logger, orgID string) {
	deleteCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.StoreTimeout)
	defer cancel()

	if err := s.store.DeleteOrganization(deleteCtx, orgID); err != nil {
		logger.Error().Err(err).Str("organization_id", orgID).Msg("Failed to remove organization without admin user")
		return
	}
	logger.Warn().Str("organization_id", orgID).Msg("Removed organization without admin user")
}

// sendWelcome runs detached from the caller's cancellation; the records are
// already written and the email should still go out.
func (s *Service) sendWelcome(ctx context.Context, logger zerolog.Logger, org *models.Organization, user *models.User, plan string) error {
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.NotifyTimeout)
	defer cancel()

	err := s.notifier.SendWelcomeEmail(notifyCtx, user.Email, notify.Welcome{
		UserName:         user.Username,
		OrganizationName: org.Name,
		LoginEmail:       user.Email,
		Plan:             plan,
	})
	if err != nil {
		logger.Error().Err(err).
			Str("organization_id", org.ID).
			Str("recipient", user.Email).
			Msg("Welcome notification failed")
		return &Error{Kind: KindNotificationFailed, Op: "notify", Err: err}
	}

	logger.Info().Str("organization_id", org.ID).Str("recipient", user.Email).Msg("Welcome notification sent")
	return nil
}

func isUnavailable(err error) bool {
	return errors.Is(err, repositories.ErrUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}
