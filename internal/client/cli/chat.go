package cli

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/echochat/internal/client/models"
)

func formatMessage(m *models.Message) string {
	ts := m.CreatedAt.Local().Format("15:04")
	switch m.Type {
	case models.MessageTypeImage, models.MessageTypeFile:
		return fmt.Sprintf("[%s] %s: %s (%s)", ts, m.SenderID, m.FileName, m.FileURL)
	default:
		return fmt.Sprintf("[%s] %s: %s", ts, m.SenderID, m.Content)
	}
}

// Chats refreshes and prints the conversation list.
func (a *App) Chats(ctx context.Context) error {
	list, err := a.conversations.Load(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("No conversations yet")
		return nil
	}
	for _, c := range list {
		marker := " "
		if a.state.IsOnline(c.Friend.ID) {
			marker = "*"
		}
		preview := ""
		if c.LastMessage != nil {
			preview = c.LastMessage.Content
			if len(preview) > 40 {
				preview = preview[:40] + "..."
			}
		}
		unread := ""
		if c.UnreadCount > 0 {
			unread = fmt.Sprintf(" (%d unread)", c.UnreadCount)
		}
		fmt.Printf("%s %s [%s]%s  %s\n", marker, c.Friend.Name(), c.Friend.ID, unread, preview)
	}
	return nil
}

// Open switches to a direct conversation: loads its history, subscribes
// to the pair-scoped topics and marks whatever was unread as read.
func (a *App) Open(ctx context.Context, peerID string) error {
	sess, err := a.sessions.Current()
	if err != nil {
		return err
	}
	a.CloseChat()

	history, err := a.messages.History(ctx, peerID)
	if err != nil {
		return err
	}

	cancelWatch, err := a.dispatcher.WatchConversation(ctx, peerID)
	if err != nil {
		return err
	}

	a.state.SetActiveConversation(peerID)
	a.mu.Lock()
	a.activePeer = peerID
	a.closeActive = func() {
		cancelWatch()
		a.state.SetActiveConversation("")
	}
	a.mu.Unlock()

	for i := range history {
		fmt.Println(formatMessage(&history[i]))
	}

	var unread []string
	for _, m := range a.state.Messages(peerID) {
		if m.SenderID != sess.UserID && !m.IsRead {
			unread = append(unread, m.ID)
		}
	}
	if err := a.messages.MarkRead(ctx, peerID, unread); err != nil {
		a.logger.Warn(ctx, "failed to mark conversation read", "error", err)
	}
	return nil
}

// OpenChannel switches to a channel: loads its history, subscribes to
// its realtime events and makes it the send target. Channels carry no
// receipts or typing signals.
func (a *App) OpenChannel(ctx context.Context, channelID string) error {
	a.CloseChat()

	history, err := a.channels.History(ctx, channelID)
	if err != nil {
		return err
	}

	cancelWatch, err := a.dispatcher.WatchChannel(ctx, channelID)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.activeChan = channelID
	a.closeActive = cancelWatch
	a.mu.Unlock()

	for i := range history {
		fmt.Println(formatMessage(&history[i]))
	}
	return nil
}

// CloseChat leaves the open conversation or channel, if any.
func (a *App) CloseChat() {
	a.mu.Lock()
	closeActive := a.closeActive
	a.closeActive = nil
	a.activePeer = ""
	a.activeChan = ""
	a.mu.Unlock()

	if closeActive != nil {
		closeActive()
	}
}

// Send delivers text to the open conversation or channel. An empty text
// enters compose mode: the peer sees a typing signal while the line is
// being written.
func (a *App) Send(ctx context.Context, text string) error {
	a.mu.Lock()
	peer, channel, typing := a.activePeer, a.activeChan, a.typing
	a.mu.Unlock()

	switch {
	case peer != "":
		if text == "" {
			if typing != nil {
				typing.InputActivity(ctx, peer)
			}
			var err error
			text, err = GetSimpleText(a.reader, "Message", os.Stdout)
			if err != nil {
				return err
			}
		}
		if typing != nil {
			typing.Stop(ctx, peer)
		}
		if text == "" {
			return nil
		}
		_, err := a.messages.Send(ctx, peer, text)
		return err

	case channel != "":
		if text == "" {
			return nil
		}
		_, err := a.channels.Send(ctx, channel, text)
		return err

	default:
		return fmt.Errorf("no open conversation, use 'open <user>' first")
	}
}

// SendFile uploads a local file into the open direct conversation.
func (a *App) SendFile(ctx context.Context, path string) error {
	a.mu.Lock()
	peer := a.activePeer
	a.mu.Unlock()
	if peer == "" {
		return fmt.Errorf("no open conversation, use 'open <user>' first")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	name := filepath.Base(path)
	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	msg, err := a.messages.SendFile(ctx, peer, name, contentType, data)
	if err != nil {
		return err
	}
	fmt.Printf("Sent %s (%d bytes)\n", msg.FileName, msg.FileSize)
	return nil
}

// Delete removes one of this user's messages from the open conversation.
func (a *App) Delete(ctx context.Context, id string) error {
	a.mu.Lock()
	peer := a.activePeer
	a.mu.Unlock()
	if peer == "" {
		return fmt.Errorf("no open conversation, use 'open <user>' first")
	}
	return a.messages.Delete(ctx, peer, id)
}

// Who prints the lobby roster.
func (a *App) Who(ctx context.Context) error {
	online := a.state.OnlineUsers()
	if len(online) == 0 {
		fmt.Println("Nobody online")
		return nil
	}
	for _, id := range online {
		fmt.Println("*", id)
	}
	return nil
}

// Profile prints the current user's profile.
func (a *App) Profile(ctx context.Context) error {
	p, err := a.profiles.Current(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("id:      %s\n", p.ID)
	fmt.Printf("user:    %s\n", p.Username)
	fmt.Printf("display: %s\n", p.DisplayName)
	if p.AvatarURL != "" {
		fmt.Printf("avatar:  %s\n", p.AvatarURL)
	}
	return nil
}

// SetName updates the current user's display name.
func (a *App) SetName(ctx context.Context, name string) error {
	p, err := a.profiles.Current(ctx)
	if err != nil {
		return err
	}
	updated := *p
	updated.DisplayName = name
	if err := a.profiles.Update(ctx, &updated); err != nil {
		return err
	}
	fmt.Println("Updated")
	return nil
}
