package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/echochat/internal/client/models"
	"github.com/dmitrijs2005/echochat/internal/client/remote"
	"github.com/dmitrijs2005/echochat/internal/client/repositories/profiles"
	"github.com/dmitrijs2005/echochat/internal/client/session"
	"github.com/dmitrijs2005/echochat/internal/client/state"
	"github.com/dmitrijs2005/echochat/internal/logging"
)

// ProfileService loads and updates the current user's profile.
type ProfileService interface {
	// Current returns the logged-in user's profile, preferring the
	// backend and falling back to the local cache.
	Current(ctx context.Context) (*models.Profile, error)

	// Update stores profile changes remotely and locally.
	Update(ctx context.Context, p *models.Profile) error
}

type profileService struct {
	state    *state.Store
	repo     profiles.Repository
	store    remote.Store
	sessions session.Provider
	logger   logging.Logger
}

// NewProfileService wires a ProfileService.
func NewProfileService(
	st *state.Store,
	repo profiles.Repository,
	store remote.Store,
	sessions session.Provider,
	logger logging.Logger,
) ProfileService {
	return &profileService{state: st, repo: repo, store: store, sessions: sessions, logger: logger}
}

func (s *profileService) Current(ctx context.Context) (*models.Profile, error) {
	sess, err := s.sessions.Current()
	if err != nil {
		return nil, err
	}

	p, err := s.store.Profile(ctx, sess.UserID)
	if err == nil {
		if serr := s.repo.Save(ctx, p); serr != nil {
			s.logger.Warn(ctx, "failed to cache profile", "error", serr)
		}
		s.state.SetCurrentUser(p)
		return p, nil
	}
	s.logger.Warn(ctx, "profile fetch failed, using local cache", "error", err)

	cached, cerr := s.repo.Get(ctx, sess.UserID)
	if cerr != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	s.state.SetCurrentUser(cached)
	return cached, nil
}

func (s *profileService) Update(ctx context.Context, p *models.Profile) error {
	if err := s.store.UpdateProfile(ctx, p); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if err := s.repo.Save(ctx, p); err != nil {
		s.logger.Warn(ctx, "failed to cache profile", "error", err)
	}
	s.state.SetCurrentUser(p)
	return nil
}
