package platform

import (
	"time"

	"github.com/google/uuid"
)

// Credentials is the opaque credential blob stored for a connected channel.
// OAuth platforms use the token fields, custom RTMP endpoints use the
// RTMPURL/StreamKey pair, and some platforms store nothing at all.
type Credentials struct {
	AccessToken  string     `json:"access_token,omitempty"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	ExpiryDate   *time.Time `json:"expiry_date,omitempty"`
	Scopes       []string   `json:"scopes,omitempty"`
	RTMPURL      string     `json:"rtmp_url,omitempty"`
	StreamKey    string     `json:"stream_key,omitempty"`
}

// Merge applies rotated credential fields on top of the stored ones. Only the
// fields present in the rotation are overwritten; a rotation never clears a
// refresh token that the provider did not resend.
func (c *Credentials) Merge(rotated Credentials) {
	if rotated.AccessToken != "" {
		c.AccessToken = rotated.AccessToken
	}
	if rotated.RefreshToken != "" {
		c.RefreshToken = rotated.RefreshToken
	}
	if rotated.ExpiryDate != nil {
		c.ExpiryDate = rotated.ExpiryDate
	}
}

// Target identifies the remote destination of a connected channel: a YouTube
// channel, a Facebook profile or page, a Twitch user, or an RTMP endpoint.
type Target struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// ConnectedAccount is the fully-resolved view of a connected channel that
// provider adapters operate on. Adapters hold no other state about the
// owning user or aggregate.
type ConnectedAccount struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Identifier  Identifier
	Target      Target
	Credentials *Credentials
}
