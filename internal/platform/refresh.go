package platform

import (
	"time"

	utils "forstream/pkg/utils"

	"github.com/google/uuid"
)

// CredentialRefreshEvent is published by an adapter when the client it wraps
// silently rotates an access token. Only the rotated fields are set.
type CredentialRefreshEvent struct {
	ConnectedChannelID uuid.UUID
	Credentials        Credentials
	Timestamp          time.Time
}

// RefreshBus carries credential-refresh events from provider adapters to the
// single listener that writes them back to storage. Publishing never blocks a
// broadcast operation: if the listener falls behind the event is dropped and
// the token is picked up again on the next rotation.
type RefreshBus struct {
	events chan CredentialRefreshEvent
}

const defaultRefreshBusCapacity = 64

func NewRefreshBus() *RefreshBus {
	return &RefreshBus{
		events: make(chan CredentialRefreshEvent, defaultRefreshBusCapacity),
	}
}

// Publish enqueues a refresh event without blocking the caller.
func (b *RefreshBus) Publish(event CredentialRefreshEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case b.events <- event:
	default:
		utils.Logger.Warnf("[ConnectedChannel %s] Refresh bus is full, dropping credential refresh event", event.ConnectedChannelID)
	}
}

// Events exposes the receive side of the bus to its listener.
func (b *RefreshBus) Events() <-chan CredentialRefreshEvent {
	return b.events
}
