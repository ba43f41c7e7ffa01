package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/echochat/internal/client/repositories/conversations"
	"github.com/dmitrijs2005/echochat/internal/client/repositories/messages"
	"github.com/dmitrijs2005/echochat/internal/client/repositories/profiles"
	"github.com/dmitrijs2005/echochat/internal/client/state"
	"github.com/dmitrijs2005/echochat/internal/logging"
)

// HousekeepingService keeps the local mirror tidy.
type HousekeepingService interface {
	// Prune drops local messages older than the retention window.
	// Failures only log; startup must not depend on it.
	Prune(ctx context.Context, retentionDays int)

	// Logout clears every local table and resets the in-memory state.
	Logout(ctx context.Context) error
}

type housekeepingService struct {
	state         *state.Store
	messages      messages.Repository
	conversations conversations.Repository
	profiles      profiles.Repository
	logger        logging.Logger
}

// NewHousekeepingService wires a HousekeepingService.
func NewHousekeepingService(
	st *state.Store,
	msgs messages.Repository,
	convs conversations.Repository,
	profs profiles.Repository,
	logger logging.Logger,
) HousekeepingService {
	return &housekeepingService{
		state:         st,
		messages:      msgs,
		conversations: convs,
		profiles:      profs,
		logger:        logger,
	}
}

func (s *housekeepingService) Prune(ctx context.Context, retentionDays int) {
	deleted, err := s.messages.PruneOlderThan(ctx, retentionDays)
	if err != nil {
		s.logger.Warn(ctx, "failed to prune old messages", "error", err)
		return
	}
	if deleted > 0 {
		s.logger.Info(ctx, "pruned old messages", "count", deleted, "retention_days", retentionDays)
	}
}

func (s *housekeepingService) Logout(ctx context.Context) error {
	if err := s.messages.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}
	if err := s.conversations.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear conversations: %w", err)
	}
	if err := s.profiles.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear profiles: %w", err)
	}
	s.state.Reset()
	return nil
}
