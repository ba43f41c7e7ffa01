package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dmitrijs2005/echochat/internal/client/models"
	"github.com/dmitrijs2005/echochat/internal/client/session"
	"github.com/dmitrijs2005/echochat/internal/common"
)

const requestTimeout = 12 * time.Second

// Gateway implements Store over the backend's JSON API. Every request
// carries the current session's bearer token; transport and status
// failures are mapped to the client's sentinel errors.
type Gateway struct {
	baseURL  string
	httpc    *http.Client
	sessions session.Provider
}

var _ Store = (*Gateway)(nil)

// NewGateway returns a Gateway for the given API base URL.
func NewGateway(baseURL string, sessions session.Provider) *Gateway {
	return &Gateway{
		baseURL:  baseURL,
		httpc:    &http.Client{Timeout: requestTimeout},
		sessions: sessions,
	}
}

// do performs one authenticated JSON round trip. A nil in skips the
// request body; a nil out discards the response body.
func (g *Gateway) do(ctx context.Context, method, path string, in, out any) error {
	var body *bytes.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	s, err := g.sessions.Current()
	if err != nil {
		return err
	}
	req.Header.Set(common.AuthHeaderName, common.BearerPrefix+s.AccessToken)

	resp, err := g.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := mapStatus(resp.StatusCode); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// insertMessageRequest is the insert payload. It carries no id field at
// all: provisional temp ids never leave the client, the server assigns
// the real one.
type insertMessageRequest struct {
	ClientKey  string             `json:"client_key,omitempty"`
	SenderID   string             `json:"sender_id"`
	ReceiverID string             `json:"receiver_id,omitempty"`
	ChannelID  string             `json:"channel_id,omitempty"`
	Content    string             `json:"content"`
	Type       models.MessageType `json:"message_type"`
	FileURL    string             `json:"file_url,omitempty"`
	FileName   string             `json:"file_name,omitempty"`
	FileSize   int64              `json:"file_size,omitempty"`
	FileType   string             `json:"file_type,omitempty"`
}

func (g *Gateway) InsertMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	in := insertMessageRequest{
		ClientKey:  msg.ClientKey,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		ChannelID:  msg.ChannelID,
		Content:    msg.Content,
		Type:       msg.Type,
		FileURL:    msg.FileURL,
		FileName:   msg.FileName,
		FileSize:   msg.FileSize,
		FileType:   msg.FileType,
	}
	var confirmed models.Message
	if err := g.do(ctx, http.MethodPost, "/api/messages", in, &confirmed); err != nil {
		return nil, err
	}
	return &confirmed, nil
}

func (g *Gateway) Messages(ctx context.Context, peerID string, limit int) ([]models.Message, error) {
	q := url.Values{}
	q.Set("peer", peerID)
	q.Set("limit", strconv.Itoa(limit))
	var list []models.Message
	if err := g.do(ctx, http.MethodGet, "/api/messages?"+q.Encode(), nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (g *Gateway) MessagesAfter(ctx context.Context, peerID string, after time.Time, limit int) ([]models.Message, error) {
	q := url.Values{}
	q.Set("peer", peerID)
	q.Set("after", strconv.FormatInt(after.UnixMilli(), 10))
	q.Set("limit", strconv.Itoa(limit))
	var list []models.Message
	if err := g.do(ctx, http.MethodGet, "/api/messages?"+q.Encode(), nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (g *Gateway) ChannelMessages(ctx context.Context, channelID string, limit int) ([]models.Message, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	path := "/api/channels/" + url.PathEscape(channelID) + "/messages?" + q.Encode()
	var list []models.Message
	if err := g.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (g *Gateway) MarkMessagesRead(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	payload := struct {
		IDs []string `json:"ids"`
	}{IDs: ids}
	return g.do(ctx, http.MethodPost, "/api/messages/read", payload, nil)
}

func (g *Gateway) DeleteMessage(ctx context.Context, id string) error {
	return g.do(ctx, http.MethodDelete, "/api/messages/"+url.PathEscape(id), nil, nil)
}

func (g *Gateway) Conversations(ctx context.Context) ([]models.Conversation, error) {
	var list []models.Conversation
	if err := g.do(ctx, http.MethodGet, "/api/conversations", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (g *Gateway) Profile(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	if err := g.do(ctx, http.MethodGet, "/api/profiles/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (g *Gateway) UpdateProfile(ctx context.Context, p *models.Profile) error {
	return g.do(ctx, http.MethodPut, "/api/profiles/"+url.PathEscape(p.ID), p, nil)
}
