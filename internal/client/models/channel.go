package models

import "time"

// Channel is a group conversation.
type Channel struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	OwnerID     string    `json:"owner_id"`
	IsPrivate   bool      `json:"is_private"`
	CreatedAt   time.Time `json:"created_at"`
}

// ChannelRole enumerates membership roles within a channel.
type ChannelRole string

const (
	ChannelRoleOwner  ChannelRole = "owner"
	ChannelRoleAdmin  ChannelRole = "admin"
	ChannelRoleMember ChannelRole = "member"
)

// ChannelMember links a user to a channel.
type ChannelMember struct {
	ID        string      `json:"id"`
	ChannelID string      `json:"channel_id"`
	UserID    string      `json:"user_id"`
	Role      ChannelRole `json:"role"`
	Nickname  string      `json:"nickname,omitempty"`
	JoinedAt  time.Time   `json:"joined_at"`
}
