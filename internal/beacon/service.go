// Package beacon is the outbound API of JobBeacon: job browsing, account
// management and the ingest-and-notify trigger.
package beacon

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/amishk599/jobbeacon/internal/filter"
	"github.com/amishk599/jobbeacon/internal/model"
	"github.com/amishk599/jobbeacon/internal/pipeline"
	"github.com/amishk599/jobbeacon/internal/store"
)

// Runner triggers one ingest-and-notify batch.
type Runner interface {
	Run(ctx context.Context) (pipeline.Summary, error)
}

// Service validates input and delegates to the store and pipeline.
type Service struct {
	jobs     *store.JobStore
	users    *store.UserStore
	runner   Runner
	validate *validator.Validate
	logger   *slog.Logger

	// compareDummy runs when a login is rejected before reaching the store.
	compareDummy func(password string)
}

// New creates a Service. runner may be nil when batch runs are not offered.
func New(state *store.State, runner Runner, logger *slog.Logger) *Service {
	return &Service{
		jobs:     state.Jobs(),
		users:    state.Users(),
		runner:   runner,
		validate: newValidator(),
		logger:   logger,

		compareDummy: store.CompareDummyHash,
	}
}

// GetJobs returns every stored posting, newest first.
func (s *Service) GetJobs(ctx context.Context) ([]model.Posting, error) {
	return s.jobs.List(ctx)
}

// SearchJobs returns stored postings matching q, in store order.
func (s *Service) SearchJobs(ctx context.Context, q SearchQuery) ([]model.Posting, error) {
	postings, err := s.jobs.List(ctx)
	if err != nil {
		return nil, err
	}
	return filter.Apply(postings, filter.ParseCriteria(q.Keywords, q.Location, q.ExperienceLevel, q.JobType)), nil
}

// RegisterUser creates an account.
func (s *Service) RegisterUser(ctx context.Context, req RegisterRequest) (model.Profile, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return model.Profile{}, validationError(err)
	}
	return s.users.Register(ctx, req.Name, req.Email, req.Password)
}

// Authenticate verifies credentials. Every credential problem, including a
// malformed email, is reported as model.ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, req LoginRequest) (model.Profile, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validate.Struct(req); err != nil {
		s.compareDummy(req.Password)
		return model.Profile{}, model.ErrInvalidCredentials
	}
	p, err := s.users.Authenticate(ctx, req.Email, req.Password)
	if errors.Is(err, model.ErrInvalidCredentials) {
		s.logger.Debug("login rejected")
	}
	return p, err
}

func (s *Service) GetProfile(ctx context.Context, id string) (model.Profile, error) {
	return s.users.GetProfile(ctx, id)
}

func (s *Service) GetProfileByEmail(ctx context.Context, email string) (model.Profile, error) {
	return s.users.GetByEmail(ctx, email)
}

// UpdateProfile applies a partial update. Every saved search must be named.
func (s *Service) UpdateProfile(ctx context.Context, id string, upd model.ProfileUpdate) (model.Profile, error) {
	if upd.SavedSearches != nil {
		for _, ss := range *upd.SavedSearches {
			if err := s.validateSearch(ss); err != nil {
				return model.Profile{}, err
			}
		}
	}
	return s.users.UpdateProfile(ctx, id, upd)
}

// SaveSearch adds or replaces one saved search by name.
func (s *Service) SaveSearch(ctx context.Context, id string, ss model.SavedSearch) (model.Profile, error) {
	ss.Name = strings.TrimSpace(ss.Name)
	if err := s.validateSearch(ss); err != nil {
		return model.Profile{}, err
	}
	return s.users.SaveSearch(ctx, id, ss)
}

// DeleteSearch removes one saved search by name.
func (s *Service) DeleteSearch(ctx context.Context, id, name string) (model.Profile, error) {
	return s.users.DeleteSearch(ctx, id, strings.TrimSpace(name))
}

// SetPushRegistration stores a push subscription for the account; nil removes it.
func (s *Service) SetPushRegistration(ctx context.Context, id string, reg *model.PushRegistration) (model.Profile, error) {
	if reg != nil {
		in := pushInput{
			Endpoint: reg.Endpoint,
			Keys:     pushKeysInput{P256dh: reg.Keys.P256dh, Auth: reg.Keys.Auth},
		}
		if err := s.validate.Struct(in); err != nil {
			return model.Profile{}, validationError(err)
		}
	}
	return s.users.SetPushRegistration(ctx, id, reg)
}

// RunIngestAndNotify runs one batch and returns its summary.
func (s *Service) RunIngestAndNotify(ctx context.Context) (pipeline.Summary, error) {
	if s.runner == nil {
		return pipeline.Summary{}, errors.New("batch runs are not configured")
	}
	return s.runner.Run(ctx)
}

func (s *Service) validateSearch(ss model.SavedSearch) error {
	if err := s.validate.Struct(savedSearchInput{Name: strings.TrimSpace(ss.Name)}); err != nil {
		return validationError(err)
	}
	return nil
}
