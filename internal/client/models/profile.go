package models

import "time"

// Profile is a user's public profile. The remote store is the source of
// truth; the local mirror caches the current user's row for instant load.
type Profile struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// Name returns the best human-readable name for the profile.
func (p *Profile) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Username
}
