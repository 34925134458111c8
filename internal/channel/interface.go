package channel

import (
	"forstream/internal/platform"

	"github.com/google/uuid"
)

// ChannelStore defines the persistence operations for channels and connected
// channels. Lookups return nil (not an error) when nothing matches.
type ChannelStore interface {
	// Channel catalog
	CreateChannel(channel *Channel) error
	GetChannelByIdentifier(identifier platform.Identifier) (*Channel, error)
	ListChannels() ([]*Channel, error)

	// Connected channels
	CreateConnectedChannel(connectedChannel *ConnectedChannel) error
	UpdateConnectedChannel(connectedChannel *ConnectedChannel) error
	GetConnectedChannelByID(id uuid.UUID) (*ConnectedChannel, error)
	FindConnectedChannel(userID, channelID uuid.UUID) (*ConnectedChannel, error)
	GetConnectedChannelsByUserID(userID uuid.UUID) ([]*ConnectedChannel, error)
	DeleteConnectedChannel(id uuid.UUID) error
}
