package channel

import (
	"context"
	"os"
	"testing"
	"time"

	"forstream/internal/platform"
	utils "forstream/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	utils.Init("error")
	os.Exit(m.Run())
}

type fakeChannelStore struct {
	channels          map[platform.Identifier]*Channel
	connectedChannels map[uuid.UUID]*ConnectedChannel
	updateCalls       int
	deletedIDs        []uuid.UUID
}

func newFakeChannelStore() *fakeChannelStore {
	return &fakeChannelStore{
		channels:          make(map[platform.Identifier]*Channel),
		connectedChannels: make(map[uuid.UUID]*ConnectedChannel),
	}
}

func (f *fakeChannelStore) CreateChannel(channel *Channel) error {
	f.channels[channel.Identifier] = channel
	return nil
}

func (f *fakeChannelStore) GetChannelByIdentifier(identifier platform.Identifier) (*Channel, error) {
	return f.channels[identifier], nil
}

func (f *fakeChannelStore) ListChannels() ([]*Channel, error) {
	var result []*Channel
	for _, channel := range f.channels {
		result = append(result, channel)
	}
	return result, nil
}

func (f *fakeChannelStore) CreateConnectedChannel(connectedChannel *ConnectedChannel) error {
	f.connectedChannels[connectedChannel.ID] = connectedChannel
	return nil
}

func (f *fakeChannelStore) UpdateConnectedChannel(connectedChannel *ConnectedChannel) error {
	f.updateCalls++
	f.connectedChannels[connectedChannel.ID] = connectedChannel
	return nil
}

func (f *fakeChannelStore) GetConnectedChannelByID(id uuid.UUID) (*ConnectedChannel, error) {
	return f.connectedChannels[id], nil
}

func (f *fakeChannelStore) FindConnectedChannel(userID, channelID uuid.UUID) (*ConnectedChannel, error) {
	for _, connectedChannel := range f.connectedChannels {
		if connectedChannel.UserID == userID && connectedChannel.ChannelID == channelID {
			return connectedChannel, nil
		}
	}
	return nil, nil
}

func (f *fakeChannelStore) GetConnectedChannelsByUserID(userID uuid.UUID) ([]*ConnectedChannel, error) {
	var result []*ConnectedChannel
	for _, connectedChannel := range f.connectedChannels {
		if connectedChannel.UserID == userID {
			result = append(result, connectedChannel)
		}
	}
	return result, nil
}

func (f *fakeChannelStore) DeleteConnectedChannel(id uuid.UUID) error {
	f.deletedIDs = append(f.deletedIDs, id)
	delete(f.connectedChannels, id)
	return nil
}

type fakeDetacher struct {
	detachedIDs []uuid.UUID
}

func (f *fakeDetacher) DetachConnectedChannel(ctx context.Context, connectedChannelID uuid.UUID) error {
	f.detachedIDs = append(f.detachedIDs, connectedChannelID)
	return nil
}

func newTestService(store ChannelStore) *Service {
	return NewService(store, nil, nil, nil, nil, platform.NewRefreshBus(), "http://localhost:3000/assets")
}

func seedChannel(store *fakeChannelStore, identifier platform.Identifier) *Channel {
	channel := &Channel{ID: uuid.New(), Name: string(identifier), Identifier: identifier}
	store.channels[identifier] = channel
	return channel
}

func TestEnsureChannelsSeedsCatalogOnce(t *testing.T) {
	store := newFakeChannelStore()
	service := newTestService(store)

	require.NoError(t, service.EnsureChannels())
	require.Len(t, store.channels, 5)
	rtmpChannel := store.channels[platform.RTMP]
	require.Equal(t, "Custom RTMP", rtmpChannel.Name)
	require.Equal(t, 5, rtmpChannel.PresentationOrder)
	require.Empty(t, rtmpChannel.RequiredScopes)

	firstID := store.channels[platform.YouTube].ID
	require.NoError(t, service.EnsureChannels())
	require.Equal(t, firstID, store.channels[platform.YouTube].ID)
}

func TestConnectRtmpChannelValidation(t *testing.T) {
	store := newFakeChannelStore()
	seedChannel(store, platform.RTMP)
	service := newTestService(store)
	userID := uuid.New()

	_, err := service.ConnectRtmpChannel(userID, "", "rtmp://ingest", "key")
	require.ErrorIs(t, err, utils.ErrChannelNameRequired)
	_, err = service.ConnectRtmpChannel(userID, "My endpoint", "", "key")
	require.ErrorIs(t, err, utils.ErrRtmpURLRequired)
	_, err = service.ConnectRtmpChannel(userID, "My endpoint", "rtmp://ingest", "")
	require.ErrorIs(t, err, utils.ErrStreamKeyRequired)
	require.Empty(t, store.connectedChannels)
}

func TestConnectRtmpChannelStoresEndpointCredentials(t *testing.T) {
	store := newFakeChannelStore()
	seedChannel(store, platform.RTMP)
	service := newTestService(store)
	userID := uuid.New()

	connectedChannel, err := service.ConnectRtmpChannel(userID, "My endpoint", "rtmp://ingest.example.com/live", "secret")
	require.NoError(t, err)
	require.True(t, connectedChannel.Enabled)
	require.Equal(t, "My endpoint", connectedChannel.Target.Name)
	require.NotNil(t, connectedChannel.Credentials)
	require.Equal(t, "rtmp://ingest.example.com/live", connectedChannel.Credentials.RTMPURL)
	require.Equal(t, "secret", connectedChannel.Credentials.StreamKey)
}

func TestConnectChannelUpsertsOnReconnect(t *testing.T) {
	store := newFakeChannelStore()
	seedChannel(store, platform.RTMP)
	service := newTestService(store)
	userID := uuid.New()

	first, err := service.ConnectRtmpChannel(userID, "First", "rtmp://first", "key1")
	require.NoError(t, err)
	second, err := service.ConnectRtmpChannel(userID, "Second", "rtmp://second", "key2")
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
	require.Len(t, store.connectedChannels, 1)
	require.Equal(t, "Second", store.connectedChannels[first.ID].Target.Name)
	require.Equal(t, "rtmp://second", store.connectedChannels[first.ID].Credentials.RTMPURL)
}

func TestConnectChannelUnknownIdentifier(t *testing.T) {
	service := newTestService(newFakeChannelStore())

	_, err := service.ConnectRtmpChannel(uuid.New(), "My endpoint", "rtmp://ingest", "key")
	require.ErrorIs(t, err, utils.ErrChannelNotFound)
}

func TestDisconnectChannelCascades(t *testing.T) {
	store := newFakeChannelStore()
	seedChannel(store, platform.RTMP)
	service := newTestService(store)
	detacher := &fakeDetacher{}
	service.SetLiveStreamDetacher(detacher)
	userID := uuid.New()

	connectedChannel, err := service.ConnectRtmpChannel(userID, "My endpoint", "rtmp://ingest", "key")
	require.NoError(t, err)

	require.NoError(t, service.DisconnectChannel(context.Background(), userID, platform.RTMP))
	require.Equal(t, []uuid.UUID{connectedChannel.ID}, detacher.detachedIDs)
	require.Equal(t, []uuid.UUID{connectedChannel.ID}, store.deletedIDs)

	err = service.DisconnectChannel(context.Background(), userID, platform.RTMP)
	require.ErrorIs(t, err, utils.ErrConnectedChannelNotFound)
}

func TestApplyCredentialRefreshMergesRotatedFields(t *testing.T) {
	store := newFakeChannelStore()
	rtmpChannel := seedChannel(store, platform.Twitch)
	service := newTestService(store)

	expiry := time.Now().Add(time.Hour)
	connectedChannel := &ConnectedChannel{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		ChannelID: rtmpChannel.ID,
		Channel:   rtmpChannel,
		Credentials: &platform.Credentials{
			AccessToken:  "old-access",
			RefreshToken: "original-refresh",
			ExpiryDate:   &expiry,
		},
	}
	store.connectedChannels[connectedChannel.ID] = connectedChannel

	service.applyCredentialRefresh(platform.CredentialRefreshEvent{
		ConnectedChannelID: connectedChannel.ID,
		Credentials:        platform.Credentials{AccessToken: "new-access"},
	})

	require.Equal(t, 1, store.updateCalls)
	require.Equal(t, "new-access", connectedChannel.Credentials.AccessToken)
	// A rotation that omits the refresh token must not clear the stored one.
	require.Equal(t, "original-refresh", connectedChannel.Credentials.RefreshToken)
}

func TestApplyCredentialRefreshUnknownChannelIsDropped(t *testing.T) {
	store := newFakeChannelStore()
	service := newTestService(store)

	service.applyCredentialRefresh(platform.CredentialRefreshEvent{
		ConnectedChannelID: uuid.New(),
		Credentials:        platform.Credentials{AccessToken: "new-access"},
	})
	require.Equal(t, 0, store.updateCalls)
}

type signalingChannelStore struct {
	*fakeChannelStore
	updated chan struct{}
}

func (s *signalingChannelStore) UpdateConnectedChannel(connectedChannel *ConnectedChannel) error {
	err := s.fakeChannelStore.UpdateConnectedChannel(connectedChannel)
	s.updated <- struct{}{}
	return err
}

func TestRunCredentialRefreshListenerAppliesBusEvents(t *testing.T) {
	store := &signalingChannelStore{fakeChannelStore: newFakeChannelStore(), updated: make(chan struct{}, 1)}
	twitchChannel := seedChannel(store.fakeChannelStore, platform.Twitch)
	bus := platform.NewRefreshBus()
	service := NewService(store, nil, nil, nil, nil, bus, "http://localhost:3000/assets")

	connectedChannel := &ConnectedChannel{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		ChannelID:   twitchChannel.ID,
		Channel:     twitchChannel,
		Credentials: &platform.Credentials{AccessToken: "old"},
	}
	store.connectedChannels[connectedChannel.ID] = connectedChannel

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		service.RunCredentialRefreshListener(ctx)
		close(done)
	}()

	bus.Publish(platform.CredentialRefreshEvent{
		ConnectedChannelID: connectedChannel.ID,
		Credentials:        platform.Credentials{AccessToken: "rotated"},
	})

	select {
	case <-store.updated:
	case <-time.After(time.Second):
		t.Fatal("listener never applied the refresh event")
	}
	require.Equal(t, "rotated", connectedChannel.Credentials.AccessToken)

	cancel()
	<-done
}
