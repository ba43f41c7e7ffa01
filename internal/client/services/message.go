// Package services implements the client's use cases on top of the
// durable store, the in-memory state and the remote boundary. Writes are
// optimistic: the local view updates first and reconciles with the
// backend's answer afterwards.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/echochat/internal/client/blob"
	"github.com/dmitrijs2005/echochat/internal/client/imaging"
	"github.com/dmitrijs2005/echochat/internal/client/models"
	"github.com/dmitrijs2005/echochat/internal/client/remote"
	"github.com/dmitrijs2005/echochat/internal/client/repositories/messages"
	"github.com/dmitrijs2005/echochat/internal/client/session"
	"github.com/dmitrijs2005/echochat/internal/client/state"
	"github.com/dmitrijs2005/echochat/internal/logging"
)

// MessageService owns direct-message use cases.
type MessageService interface {
	// Send delivers a text message to a peer, optimistically.
	Send(ctx context.Context, peerID, content string) (*models.Message, error)

	// SendFile validates, optionally recompresses and uploads a file,
	// then sends the message carrying its URL.
	SendFile(ctx context.Context, peerID, fileName, contentType string, data []byte) (*models.Message, error)

	// History loads the conversation from the local store into state and
	// returns it, then refreshes from the backend in the background.
	History(ctx context.Context, peerID string) ([]models.Message, error)

	// Refresh synchronously replaces the conversation from the backend.
	Refresh(ctx context.Context, peerID string) error

	// MarkRead records that the current user has read the given messages
	// and announces it to the sender.
	MarkRead(ctx context.Context, peerID string, ids []string) error

	// Delete removes a message everywhere.
	Delete(ctx context.Context, peerID, id string) error
}

type messageService struct {
	state    *state.Store
	repo     messages.Repository
	store    remote.Store
	stream   remote.Stream
	sessions session.Provider
	uploader blob.Uploader
	logger   logging.Logger
	limit    int
}

// NewMessageService wires a MessageService.
func NewMessageService(
	st *state.Store,
	repo messages.Repository,
	store remote.Store,
	stream remote.Stream,
	sessions session.Provider,
	uploader blob.Uploader,
	logger logging.Logger,
	historyLimit int,
) MessageService {
	return &messageService{
		state:    st,
		repo:     repo,
		store:    store,
		stream:   stream,
		sessions: sessions,
		uploader: uploader,
		logger:   logger,
		limit:    historyLimit,
	}
}

func (s *messageService) Send(ctx context.Context, peerID, content string) (*models.Message, error) {
	msg := models.Message{
		Content: content,
		Type:    models.MessageTypeText,
	}
	return s.send(ctx, peerID, msg)
}

func (s *messageService) SendFile(ctx context.Context, peerID, fileName, contentType string, data []byte) (*models.Message, error) {
	data, contentType = imaging.Compress(data, contentType)
	if err := blob.Validate(int64(len(data)), contentType); err != nil {
		return nil, err
	}

	sess, err := s.sessions.Current()
	if err != nil {
		return nil, err
	}
	url, err := s.uploader.Upload(ctx, data, contentType, blob.ObjectKey(sess.UserID, fileName))
	if err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}

	msgType := models.MessageTypeFile
	if imaging.IsImage(contentType) {
		msgType = models.MessageTypeImage
	}
	msg := models.Message{
		Content:  fileName,
		Type:     msgType,
		FileURL:  url,
		FileName: fileName,
		FileSize: int64(len(data)),
		FileType: contentType,
	}
	return s.send(ctx, peerID, msg)
}

// send runs the optimistic write protocol: provisional id into state and
// the local store, insert at the backend, then confirm-replace or roll
// back. Local persistence failures degrade to memory-only and never fail
// the send.
func (s *messageService) send(ctx context.Context, peerID string, msg models.Message) (*models.Message, error) {
	sess, err := s.sessions.Current()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	msg.ID = models.NewTempID(now)
	msg.ClientKey = uuid.NewString()
	msg.SenderID = sess.UserID
	msg.ReceiverID = peerID
	msg.CreatedAt = now

	s.state.AddMessage(peerID, msg)
	s.state.UpdateLastMessage(peerID, msg)
	if err := s.repo.Save(ctx, &msg); err != nil {
		s.logger.Warn(ctx, "failed to persist provisional message", "error", err)
	}

	confirmed, err := s.store.InsertMessage(ctx, &msg)
	if err != nil {
		s.state.RemoveMessage(peerID, msg.ID)
		if derr := s.repo.Delete(ctx, msg.ID); derr != nil {
			s.logger.Warn(ctx, "failed to drop provisional message", "error", derr)
		}
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	s.state.ReplaceMessage(peerID, msg.ID, *confirmed)
	s.state.UpdateLastMessage(peerID, *confirmed)
	if err := s.repo.Delete(ctx, msg.ID); err != nil {
		s.logger.Warn(ctx, "failed to drop provisional message", "error", err)
	}
	if err := s.repo.Save(ctx, confirmed); err != nil {
		s.logger.Warn(ctx, "failed to persist confirmed message", "error", err)
	}
	return confirmed, nil
}

func (s *messageService) History(ctx context.Context, peerID string) ([]models.Message, error) {
	sess, err := s.sessions.Current()
	if err != nil {
		return nil, err
	}

	local, err := s.repo.Pair(ctx, sess.UserID, peerID, s.limit)
	if err != nil {
		s.logger.Warn(ctx, "failed to load local history", "error", err)
		local = nil
	}
	s.state.SetMessages(peerID, local)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.Refresh(ctx, peerID); err != nil {
			s.logger.Warn(ctx, "failed to refresh history", "peer_id", peerID, "error", err)
		}
	}()

	return s.state.Messages(peerID), nil
}

func (s *messageService) Refresh(ctx context.Context, peerID string) error {
	list, err := s.store.Messages(ctx, peerID, s.limit)
	if err != nil {
		return err
	}
	if err := s.repo.SaveAll(ctx, list); err != nil {
		s.logger.Warn(ctx, "failed to persist refreshed history", "error", err)
	}
	s.state.SetMessages(peerID, list)
	return nil
}

func (s *messageService) MarkRead(ctx context.Context, peerID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	sess, err := s.sessions.Current()
	if err != nil {
		return err
	}

	s.state.MarkMessagesRead(peerID, ids)
	s.state.ClearUnread(peerID)
	if err := s.repo.MarkRead(ctx, ids); err != nil {
		s.logger.Warn(ctx, "failed to persist read flags", "error", err)
	}

	if err := s.store.MarkMessagesRead(ctx, ids); err != nil {
		return fmt.Errorf("failed to mark messages read: %w", err)
	}

	receipt := remote.ReadReceipt{MessageIDs: ids, ReaderID: sess.UserID}
	topic := remote.ReadStatusTopic(models.PairKey(sess.UserID, peerID))
	if err := s.stream.Broadcast(ctx, topic, remote.EventMessagesRead, receipt); err != nil {
		// Best effort: the sender's copy self-corrects on its next load.
		s.logger.Warn(ctx, "failed to broadcast read receipt", "error", err)
	}
	return nil
}

func (s *messageService) Delete(ctx context.Context, peerID, id string) error {
	if err := s.store.DeleteMessage(ctx, id); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	s.state.RemoveMessage(peerID, id)
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Warn(ctx, "failed to drop deleted message", "error", err)
	}
	return nil
}
