package platform

import (
	"os"
	"testing"
	"time"

	utils "forstream/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	utils.Init("error")
	os.Exit(m.Run())
}

func TestRefreshBusPublishDelivers(t *testing.T) {
	bus := NewRefreshBus()
	event := CredentialRefreshEvent{
		ConnectedChannelID: uuid.New(),
		Credentials:        Credentials{AccessToken: "rotated"},
	}

	bus.Publish(event)

	select {
	case received := <-bus.Events():
		require.Equal(t, event.ConnectedChannelID, received.ConnectedChannelID)
		require.Equal(t, "rotated", received.Credentials.AccessToken)
		require.False(t, received.Timestamp.IsZero())
	default:
		t.Fatal("expected an event on the bus")
	}
}

func TestRefreshBusPublishNeverBlocks(t *testing.T) {
	bus := NewRefreshBus()
	for i := 0; i < defaultRefreshBusCapacity; i++ {
		bus.Publish(CredentialRefreshEvent{ConnectedChannelID: uuid.New()})
	}

	done := make(chan struct{})
	go func() {
		bus.Publish(CredentialRefreshEvent{ConnectedChannelID: uuid.New()})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full bus")
	}
	require.Len(t, bus.Events(), defaultRefreshBusCapacity)
}

func TestCredentialsMergeKeepsFieldsTheRotationOmitted(t *testing.T) {
	expiry := time.Now().Add(time.Hour)
	stored := &Credentials{
		AccessToken:  "old-access",
		RefreshToken: "original-refresh",
		ExpiryDate:   &expiry,
		Scopes:       []string{"scope"},
	}

	newExpiry := time.Now().Add(4 * time.Hour)
	stored.Merge(Credentials{AccessToken: "new-access", ExpiryDate: &newExpiry})

	require.Equal(t, "new-access", stored.AccessToken)
	require.Equal(t, "original-refresh", stored.RefreshToken)
	require.Equal(t, &newExpiry, stored.ExpiryDate)
	require.Equal(t, []string{"scope"}, stored.Scopes)
}

func TestCredentialsMergeLastWriteWins(t *testing.T) {
	stored := &Credentials{AccessToken: "first"}
	stored.Merge(Credentials{AccessToken: "second", RefreshToken: "r2"})
	stored.Merge(Credentials{AccessToken: "third"})

	require.Equal(t, "third", stored.AccessToken)
	require.Equal(t, "r2", stored.RefreshToken)
}
