package channel

import (
	"time"

	"forstream/internal/platform"

	"github.com/google/uuid"
)

// Channel is a catalog entry for a platform users can connect to.
type Channel struct {
	ID                uuid.UUID           `json:"id" db:"id"`
	Name              string              `json:"name" db:"name"`
	Identifier        platform.Identifier `json:"identifier" db:"identifier"`
	ImageURL          string              `json:"image_url" db:"image_url"`
	PresentationOrder int                 `json:"presentation_order" db:"presentation_order"`
	RequiredScopes    []string            `json:"required_scopes,omitempty" db:"required_scopes"`
	RegistrationDate  time.Time           `json:"registration_date" db:"registration_date"`
}

// ConnectedChannel links a user to one platform. At most one exists per
// (user, channel) pair; reconnecting updates the target and credentials in
// place.
type ConnectedChannel struct {
	ID               uuid.UUID             `json:"id" db:"id"`
	UserID           uuid.UUID             `json:"user_id" db:"user_id"`
	ChannelID        uuid.UUID             `json:"channel_id" db:"channel_id"`
	Channel          *Channel              `json:"channel,omitempty"`
	Target           platform.Target       `json:"target" db:"target"`
	Credentials      *platform.Credentials `json:"-" db:"credentials"`
	Enabled          bool                  `json:"enabled" db:"enabled"`
	RegistrationDate time.Time             `json:"registration_date" db:"registration_date"`
}

// Identifier returns the platform identifier of the populated channel.
func (cc *ConnectedChannel) Identifier() platform.Identifier {
	if cc.Channel == nil {
		return ""
	}
	return cc.Channel.Identifier
}

// Account builds the resolved view that provider adapters operate on.
// The channel association must be populated.
func (cc *ConnectedChannel) Account() *platform.ConnectedAccount {
	return &platform.ConnectedAccount{
		ID:          cc.ID,
		UserID:      cc.UserID,
		Identifier:  cc.Identifier(),
		Target:      cc.Target,
		Credentials: cc.Credentials,
	}
}
