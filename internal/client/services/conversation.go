package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/echochat/internal/client/models"
	"github.com/dmitrijs2005/echochat/internal/client/remote"
	"github.com/dmitrijs2005/echochat/internal/client/repositories/conversations"
	"github.com/dmitrijs2005/echochat/internal/client/state"
	"github.com/dmitrijs2005/echochat/internal/logging"
)

// ConversationService loads and caches the conversation list.
type ConversationService interface {
	// Load fetches the conversation snapshot from the backend, falling
	// back to the local cache when the backend is unreachable.
	Load(ctx context.Context) ([]models.Conversation, error)
}

type conversationService struct {
	state  *state.Store
	repo   conversations.Repository
	store  remote.Store
	logger logging.Logger
}

// NewConversationService wires a ConversationService.
func NewConversationService(
	st *state.Store,
	repo conversations.Repository,
	store remote.Store,
	logger logging.Logger,
) ConversationService {
	return &conversationService{state: st, repo: repo, store: store, logger: logger}
}

func (s *conversationService) Load(ctx context.Context) ([]models.Conversation, error) {
	list, err := s.store.Conversations(ctx)
	if err == nil {
		if serr := s.repo.SaveAll(ctx, list); serr != nil {
			s.logger.Warn(ctx, "failed to cache conversations", "error", serr)
		}
		s.state.SetConversations(list)
		return s.state.Conversations(), nil
	}
	s.logger.Warn(ctx, "conversation fetch failed, using local cache", "error", err)

	cached, cerr := s.repo.All(ctx)
	if cerr != nil {
		return nil, fmt.Errorf("failed to load conversations: %w", err)
	}
	s.state.SetConversations(cached)
	return s.state.Conversations(), nil
}
