package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/echochat/internal/client/models"
	"github.com/dmitrijs2005/echochat/internal/client/remote"
	"github.com/dmitrijs2005/echochat/internal/client/repositories/messages"
	"github.com/dmitrijs2005/echochat/internal/client/session"
	"github.com/dmitrijs2005/echochat/internal/client/state"
	"github.com/dmitrijs2005/echochat/internal/logging"
)

// ChannelService owns group-channel use cases. It follows the same
// optimistic protocol as MessageService, keyed by channel id.
type ChannelService interface {
	Send(ctx context.Context, channelID, content string) (*models.Message, error)
	History(ctx context.Context, channelID string) ([]models.Message, error)
	Refresh(ctx context.Context, channelID string) error
}

type channelService struct {
	state    *state.Store
	repo     messages.Repository
	store    remote.Store
	sessions session.Provider
	logger   logging.Logger
	limit    int
}

// NewChannelService wires a ChannelService.
func NewChannelService(
	st *state.Store,
	repo messages.Repository,
	store remote.Store,
	sessions session.Provider,
	logger logging.Logger,
	historyLimit int,
) ChannelService {
	return &channelService{
		state:    st,
		repo:     repo,
		store:    store,
		sessions: sessions,
		logger:   logger,
		limit:    historyLimit,
	}
}

func (s *channelService) Send(ctx context.Context, channelID, content string) (*models.Message, error) {
	sess, err := s.sessions.Current()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	msg := models.Message{
		ID:        models.NewTempID(now),
		ClientKey: uuid.NewString(),
		SenderID:  sess.UserID,
		ChannelID: channelID,
		Content:   content,
		Type:      models.MessageTypeText,
		CreatedAt: now,
	}

	s.state.AddChannelMessage(channelID, msg)
	if err := s.repo.Save(ctx, &msg); err != nil {
		s.logger.Warn(ctx, "failed to persist provisional channel message", "error", err)
	}

	confirmed, err := s.store.InsertMessage(ctx, &msg)
	if err != nil {
		s.state.RemoveChannelMessage(channelID, msg.ID)
		if derr := s.repo.Delete(ctx, msg.ID); derr != nil {
			s.logger.Warn(ctx, "failed to drop provisional channel message", "error", derr)
		}
		return nil, fmt.Errorf("failed to send channel message: %w", err)
	}

	s.state.ReplaceChannelMessage(channelID, msg.ID, *confirmed)
	if err := s.repo.Delete(ctx, msg.ID); err != nil {
		s.logger.Warn(ctx, "failed to drop provisional channel message", "error", err)
	}
	if err := s.repo.Save(ctx, confirmed); err != nil {
		s.logger.Warn(ctx, "failed to persist confirmed channel message", "error", err)
	}
	return confirmed, nil
}

func (s *channelService) History(ctx context.Context, channelID string) ([]models.Message, error) {
	local, err := s.repo.Channel(ctx, channelID, s.limit)
	if err != nil {
		s.logger.Warn(ctx, "failed to load local channel history", "error", err)
		local = nil
	}
	s.state.SetChannelMessages(channelID, local)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.Refresh(ctx, channelID); err != nil {
			s.logger.Warn(ctx, "failed to refresh channel history", "channel_id", channelID, "error", err)
		}
	}()

	return s.state.ChannelMessages(channelID), nil
}

func (s *channelService) Refresh(ctx context.Context, channelID string) error {
	list, err := s.store.ChannelMessages(ctx, channelID, s.limit)
	if err != nil {
		return err
	}
	if err := s.repo.SaveAll(ctx, list); err != nil {
		s.logger.Warn(ctx, "failed to persist refreshed channel history", "error", err)
	}
	s.state.SetChannelMessages(channelID, list)
	return nil
}
