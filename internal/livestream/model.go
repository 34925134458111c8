package livestream

import (
	"encoding/json"
	"time"

	"forstream/internal/channel"
	"forstream/internal/platform"

	"github.com/google/uuid"
)

// ProviderStream is one leg of a live stream: the broadcast created on a
// single platform. The connected channel reference is nullable so that ended
// legs keep their history after the channel is disconnected.
type ProviderStream struct {
	ID                 uuid.UUID                `json:"id" db:"id"`
	LiveStreamID       uuid.UUID                `json:"-" db:"live_stream_id"`
	ConnectedChannelID *uuid.UUID               `json:"connected_channel_id" db:"connected_channel_id"`
	ConnectedChannel   *channel.ConnectedChannel `json:"connected_channel,omitempty"`
	Identifier         platform.Identifier      `json:"identifier" db:"identifier"`
	platform.StreamData
	Enabled  bool `json:"enabled" db:"enabled"`
	Position int  `json:"-" db:"position"`
}

// LiveStream is the user-facing aggregate: one logical broadcast fanned out
// to several platforms. StreamKey and StreamURL point at the relay ingest
// endpoint the encoder pushes to.
type LiveStream struct {
	ID               uuid.UUID         `json:"id" db:"id"`
	UserID           uuid.UUID         `json:"user_id" db:"user_id"`
	Title            string            `json:"title" db:"title"`
	Description      string            `json:"description" db:"description"`
	StreamKey        string            `json:"stream_key" db:"stream_key"`
	StreamURL        string            `json:"stream_url" db:"stream_url"`
	Providers        []*ProviderStream `json:"providers"`
	StartDate        *time.Time        `json:"start_date" db:"start_date"`
	EndDate          *time.Time        `json:"end_date" db:"end_date"`
	RegistrationDate time.Time         `json:"registration_date" db:"registration_date"`
}

// Status derives the aggregate state from the legs; it is never stored.
// A stream with an end date is ENDED no matter what the legs say, a stream
// with at least one enabled LIVE leg is LIVE, anything else is READY.
func (ls *LiveStream) Status() platform.StreamStatus {
	if ls.EndDate != nil {
		return platform.StreamStatusEnded
	}
	for _, providerStream := range ls.Providers {
		if providerStream.Enabled && providerStream.Status == platform.StreamStatusLive {
			return platform.StreamStatusLive
		}
	}
	return platform.StreamStatusReady
}

func (ls *LiveStream) IsLive() bool {
	return ls.Status() == platform.StreamStatusLive
}

// MarshalJSON adds the derived status to the serialized aggregate so API
// clients never have to compute it themselves.
func (ls *LiveStream) MarshalJSON() ([]byte, error) {
	type alias LiveStream
	return json.Marshal(&struct {
		*alias
		Status platform.StreamStatus `json:"stream_status"`
	}{
		alias:  (*alias)(ls),
		Status: ls.Status(),
	})
}

// FindProvider returns the leg for a platform identifier, or nil.
func (ls *LiveStream) FindProvider(identifier platform.Identifier) *ProviderStream {
	for _, providerStream := range ls.Providers {
		if providerStream.Identifier == identifier {
			return providerStream
		}
	}
	return nil
}
