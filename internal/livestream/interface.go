package livestream

import (
	"github.com/google/uuid"
)

// LiveStreamStore defines the persistence operations for live streams and
// their provider streams. Lookups return nil (not an error) when nothing
// matches; reads come back with legs and connected channels populated.
type LiveStreamStore interface {
	CreateLiveStream(liveStream *LiveStream) error
	UpdateLiveStream(liveStream *LiveStream) error
	GetLiveStreamByID(id uuid.UUID) (*LiveStream, error)
	GetLiveStreamsByUserID(userID uuid.UUID) ([]*LiveStream, error)
	GetLiveStreamsByConnectedChannelID(connectedChannelID uuid.UUID) ([]*LiveStream, error)
	DeleteLiveStream(id uuid.UUID) error
	DeleteProviderStream(id uuid.UUID) error
}
