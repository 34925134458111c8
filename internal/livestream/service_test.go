package livestream

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"forstream/internal/channel"
	"forstream/internal/platform"
	"forstream/internal/provider"
	utils "forstream/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// fakeAdapter counts calls and simulates remote behavior per flag.
type fakeAdapter struct {
	identifier platform.Identifier

	mu          sync.Mutex
	createCalls int
	startCalls  int
	endCalls    int
	probeCalls  int

	active     bool
	failCreate bool
	failStart  bool
}

func (f *fakeAdapter) Identifier() platform.Identifier { return f.identifier }

func (f *fakeAdapter) CreateLiveStream(ctx context.Context, account *platform.ConnectedAccount, title, description string, startDate time.Time) *platform.StreamData {
	f.mu.Lock()
	f.createCalls++
	calls := f.createCalls
	f.mu.Unlock()
	if f.failCreate {
		return platform.ErrorStream("create_failed", "simulated create failure")
	}
	broadcastID := fmt.Sprintf("%s-broadcast-%d", f.identifier, calls)
	streamURL := fmt.Sprintf("rtmp://%s.example.com/live", f.identifier)
	return &platform.StreamData{
		BroadcastID: &broadcastID,
		StreamURL:   &streamURL,
		Status:      platform.StreamStatusReady,
	}
}

func (f *fakeAdapter) StartLiveStream(ctx context.Context, account *platform.ConnectedAccount, title string, stream *platform.StreamData) {
	f.mu.Lock()
	f.startCalls++
	f.mu.Unlock()
	if f.failStart {
		stream.SetError("start_failed", "simulated start failure")
		return
	}
	stream.SetLive()
}

func (f *fakeAdapter) EndLiveStream(ctx context.Context, account *platform.ConnectedAccount, stream *platform.StreamData) {
	f.mu.Lock()
	f.endCalls++
	f.mu.Unlock()
	stream.SetEnded()
}

func (f *fakeAdapter) IsActiveLiveStream(ctx context.Context, account *platform.ConnectedAccount, stream *platform.StreamData) bool {
	f.mu.Lock()
	f.probeCalls++
	f.mu.Unlock()
	return f.active
}

// fakeChannelStore serves connected channels from memory.
type fakeChannelStore struct {
	connectedChannels []*channel.ConnectedChannel
}

func (f *fakeChannelStore) CreateChannel(c *channel.Channel) error { return nil }
func (f *fakeChannelStore) GetChannelByIdentifier(identifier platform.Identifier) (*channel.Channel, error) {
	return nil, nil
}
func (f *fakeChannelStore) ListChannels() ([]*channel.Channel, error) { return nil, nil }
func (f *fakeChannelStore) CreateConnectedChannel(cc *channel.ConnectedChannel) error {
	f.connectedChannels = append(f.connectedChannels, cc)
	return nil
}
func (f *fakeChannelStore) UpdateConnectedChannel(cc *channel.ConnectedChannel) error { return nil }
func (f *fakeChannelStore) GetConnectedChannelByID(id uuid.UUID) (*channel.ConnectedChannel, error) {
	for _, cc := range f.connectedChannels {
		if cc.ID == id {
			return cc, nil
		}
	}
	return nil, nil
}
func (f *fakeChannelStore) FindConnectedChannel(userID, channelID uuid.UUID) (*channel.ConnectedChannel, error) {
	return nil, nil
}
func (f *fakeChannelStore) GetConnectedChannelsByUserID(userID uuid.UUID) ([]*channel.ConnectedChannel, error) {
	var result []*channel.ConnectedChannel
	for _, cc := range f.connectedChannels {
		if cc.UserID == userID {
			result = append(result, cc)
		}
	}
	return result, nil
}
func (f *fakeChannelStore) DeleteConnectedChannel(id uuid.UUID) error { return nil }

// fakeLiveStreamStore keeps aggregates in memory.
type fakeLiveStreamStore struct {
	mu                 sync.Mutex
	streams            map[uuid.UUID]*LiveStream
	deletedProviderIDs []uuid.UUID
}

func newFakeLiveStreamStore() *fakeLiveStreamStore {
	return &fakeLiveStreamStore{streams: make(map[uuid.UUID]*LiveStream)}
}

func (f *fakeLiveStreamStore) CreateLiveStream(ls *LiveStream) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.streams[ls.ID] = ls
	return nil
}

func (f *fakeLiveStreamStore) UpdateLiveStream(ls *LiveStream) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.streams[ls.ID] = ls
	return nil
}

func (f *fakeLiveStreamStore) GetLiveStreamByID(id uuid.UUID) (*LiveStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.streams[id], nil
}

func (f *fakeLiveStreamStore) GetLiveStreamsByUserID(userID uuid.UUID) ([]*LiveStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*LiveStream
	for _, ls := range f.streams {
		if ls.UserID == userID {
			result = append(result, ls)
		}
	}
	return result, nil
}

func (f *fakeLiveStreamStore) GetLiveStreamsByConnectedChannelID(connectedChannelID uuid.UUID) ([]*LiveStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*LiveStream
	for _, ls := range f.streams {
		for _, ps := range ls.Providers {
			if ps.ConnectedChannelID != nil && *ps.ConnectedChannelID == connectedChannelID {
				result = append(result, ls)
				break
			}
		}
	}
	return result, nil
}

func (f *fakeLiveStreamStore) DeleteLiveStream(id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.streams, id)
	return nil
}

func (f *fakeLiveStreamStore) DeleteProviderStream(id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedProviderIDs = append(f.deletedProviderIDs, id)
	return nil
}

// fakeNotifier records relay pushes.
type fakeNotifier struct {
	pushes chan []string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{pushes: make(chan []string, 1)}
}

func (f *fakeNotifier) Push(ctx context.Context, streamKey string, streamURLs []string) error {
	f.pushes <- streamURLs
	return nil
}

func testConnectedChannel(userID uuid.UUID, identifier platform.Identifier) *channel.ConnectedChannel {
	channelID := uuid.New()
	return &channel.ConnectedChannel{
		ID:        uuid.New(),
		UserID:    userID,
		ChannelID: channelID,
		Channel: &channel.Channel{
			ID:         channelID,
			Name:       string(identifier),
			Identifier: identifier,
		},
		Target:  platform.Target{ID: "target-" + string(identifier), Name: string(identifier)},
		Enabled: true,
	}
}

func newTestService(store *fakeLiveStreamStore, channels *fakeChannelStore, notifier Notifier, adapters ...provider.Provider) *Service {
	return NewService(store, channels, provider.NewRegistry(adapters...), notifier, "rtmp://relay.example.com/live", time.Second)
}

func TestCreateLiveStreamRequiresTitle(t *testing.T) {
	service := newTestService(newFakeLiveStreamStore(), &fakeChannelStore{}, nil)

	_, err := service.CreateLiveStream(context.Background(), uuid.New(), "", "", []platform.Identifier{platform.YouTube})
	require.ErrorIs(t, err, utils.ErrTitleRequired)
}

func TestCreateLiveStreamRequiresConnectedChannels(t *testing.T) {
	service := newTestService(newFakeLiveStreamStore(), &fakeChannelStore{}, nil)

	_, err := service.CreateLiveStream(context.Background(), uuid.New(), "My live", "", []platform.Identifier{platform.YouTube})
	require.ErrorIs(t, err, utils.ErrNoChannelsConnected)
}

func TestCreateLiveStreamRequiresSelectedChannels(t *testing.T) {
	userID := uuid.New()
	channels := &fakeChannelStore{connectedChannels: []*channel.ConnectedChannel{
		testConnectedChannel(userID, platform.YouTube),
	}}
	service := newTestService(newFakeLiveStreamStore(), channels, nil, &fakeAdapter{identifier: platform.YouTube})

	_, err := service.CreateLiveStream(context.Background(), userID, "My live", "", []platform.Identifier{platform.Twitch})
	require.ErrorIs(t, err, utils.ErrNoConnectedChannelsEnabled)

	channels.connectedChannels[0].Enabled = false
	_, err = service.CreateLiveStream(context.Background(), userID, "My live", "", []platform.Identifier{platform.YouTube})
	require.ErrorIs(t, err, utils.ErrNoConnectedChannelsEnabled)
}

func TestCreateLiveStreamFansOutPerRequestedChannel(t *testing.T) {
	userID := uuid.New()
	youtube := &fakeAdapter{identifier: platform.YouTube}
	twitch := &fakeAdapter{identifier: platform.Twitch}
	facebook := &fakeAdapter{identifier: platform.Facebook}
	channels := &fakeChannelStore{connectedChannels: []*channel.ConnectedChannel{
		testConnectedChannel(userID, platform.YouTube),
		testConnectedChannel(userID, platform.Facebook),
		testConnectedChannel(userID, platform.Twitch),
	}}
	store := newFakeLiveStreamStore()
	service := newTestService(store, channels, nil, youtube, twitch, facebook)

	liveStream, err := service.CreateLiveStream(context.Background(), userID, "My live", "About it", []platform.Identifier{platform.YouTube, platform.Twitch})
	require.NoError(t, err)

	require.Len(t, liveStream.Providers, 2)
	require.Equal(t, platform.YouTube, liveStream.Providers[0].Identifier)
	require.Equal(t, platform.Twitch, liveStream.Providers[1].Identifier)
	for _, ps := range liveStream.Providers {
		require.True(t, ps.Enabled)
		require.NotNil(t, ps.ConnectedChannelID)
		require.Equal(t, platform.StreamStatusReady, ps.Status)
		require.NotNil(t, ps.BroadcastID)
	}

	require.Len(t, liveStream.StreamKey, 32)
	require.Equal(t, "rtmp://relay.example.com/live/"+liveStream.StreamKey, liveStream.StreamURL)
	require.Equal(t, platform.StreamStatusReady, liveStream.Status())

	require.Equal(t, 1, youtube.createCalls)
	require.Equal(t, 1, twitch.createCalls)
	require.Equal(t, 0, facebook.createCalls)

	stored, _ := store.GetLiveStreamByID(liveStream.ID)
	require.NotNil(t, stored)
}

func TestCreateLiveStreamRecordsProviderFailureAsErrorLeg(t *testing.T) {
	userID := uuid.New()
	youtube := &fakeAdapter{identifier: platform.YouTube, failCreate: true}
	twitch := &fakeAdapter{identifier: platform.Twitch}
	channels := &fakeChannelStore{connectedChannels: []*channel.ConnectedChannel{
		testConnectedChannel(userID, platform.YouTube),
		testConnectedChannel(userID, platform.Twitch),
	}}
	service := newTestService(newFakeLiveStreamStore(), channels, nil, youtube, twitch)

	liveStream, err := service.CreateLiveStream(context.Background(), userID, "My live", "", []platform.Identifier{platform.YouTube, platform.Twitch})
	require.NoError(t, err)
	require.Len(t, liveStream.Providers, 2)

	failed := liveStream.FindProvider(platform.YouTube)
	require.Equal(t, platform.StreamStatusError, failed.Status)
	require.Len(t, failed.Messages, 1)
	require.Equal(t, "create_failed", failed.Messages[0].Code)

	ok := liveStream.FindProvider(platform.Twitch)
	require.Equal(t, platform.StreamStatusReady, ok.Status)
}

func TestCreateLiveStreamSkipsUnregisteredProviders(t *testing.T) {
	userID := uuid.New()
	twitch := &fakeAdapter{identifier: platform.Twitch}
	channels := &fakeChannelStore{connectedChannels: []*channel.ConnectedChannel{
		testConnectedChannel(userID, platform.YouTube),
		testConnectedChannel(userID, platform.Twitch),
	}}
	service := newTestService(newFakeLiveStreamStore(), channels, nil, twitch)

	liveStream, err := service.CreateLiveStream(context.Background(), userID, "My live", "", []platform.Identifier{platform.YouTube, platform.Twitch})
	require.NoError(t, err)
	require.Len(t, liveStream.Providers, 1)
	require.Equal(t, platform.Twitch, liveStream.Providers[0].Identifier)
}

func createTestStream(t *testing.T, service *Service, userID uuid.UUID, identifiers ...platform.Identifier) *LiveStream {
	t.Helper()
	liveStream, err := service.CreateLiveStream(context.Background(), userID, "My live", "About it", identifiers)
	require.NoError(t, err)
	return liveStream
}

func TestStartLiveStreamStartsReadyLegs(t *testing.T) {
	userID := uuid.New()
	youtube := &fakeAdapter{identifier: platform.YouTube, active: true}
	twitch := &fakeAdapter{identifier: platform.Twitch, active: true}
	channels := &fakeChannelStore{connectedChannels: []*channel.ConnectedChannel{
		testConnectedChannel(userID, platform.YouTube),
		testConnectedChannel(userID, platform.Twitch),
	}}
	service := newTestService(newFakeLiveStreamStore(), channels, nil, youtube, twitch)
	created := createTestStream(t, service, userID, platform.YouTube, platform.Twitch)

	started, err := service.StartLiveStream(context.Background(), created.ID)
	require.NoError(t, err)

	require.Equal(t, 1, youtube.startCalls)
	require.Equal(t, 1, twitch.startCalls)
	require.Equal(t, platform.StreamStatusLive, started.Status())
	require.NotNil(t, started.StartDate)
	for _, ps := range started.Providers {
		require.Equal(t, platform.StreamStatusLive, ps.Status)
	}
}

func TestStartLiveStreamIsIdempotent(t *testing.T) {
	userID := uuid.New()
	youtube := &fakeAdapter{identifier: platform.YouTube, active: true}
	channels := &fakeChannelStore{connectedChannels: []*channel.ConnectedChannel{
		testConnectedChannel(userID, platform.YouTube),
	}}
	service := newTestService(newFakeLiveStreamStore(), channels, nil, youtube)
	created := createTestStream(t, service, userID, platform.YouTube)

	started, err := service.StartLiveStream(context.Background(), created.ID)
	require.NoError(t, err)
	firstStartDate := started.StartDate

	started, err = service.StartLiveStream(context.Background(), created.ID)
	require.NoError(t, err)

	// The LIVE leg is left alone: no second start, no recreate.
	require.Equal(t, 1, youtube.startCalls)
	require.Equal(t, 1, youtube.createCalls)
	require.Equal(t, firstStartDate, started.StartDate)
}

func TestStartLiveStreamRecreatesStaleBroadcast(t *testing.T) {
	userID := uuid.New()
	youtube := &fakeAdapter{identifier: platform.YouTube, active: false}
	channels := &fakeChannelStore{connectedChannels: []*channel.ConnectedChannel{
		testConnectedChannel(userID, platform.YouTube),
	}}
	service := newTestService(newFakeLiveStreamStore(), channels, nil, youtube)
	created := createTestStream(t, service, userID, platform.YouTube)
	originalBroadcastID := *created.Providers[0].BroadcastID

	started, err := service.StartLiveStream(context.Background(), created.ID)
	require.NoError(t, err)

	require.Equal(t, 2, youtube.createCalls)
	require.Equal(t, 1, youtube.startCalls)
	leg := started.Providers[0]
	require.Equal(t, platform.StreamStatusLive, leg.Status)
	require.NotEqual(t, originalBroadcastID, *leg.BroadcastID)
}

func TestStartLiveStreamRetriesErrorLegsWithoutProbing(t *testing.T) {
	userID := uuid.New()
	youtube := &fakeAdapter{identifier: platform.YouTube, failCreate: true}
	channels := &fakeChannelStore{connectedChannels: []*channel.ConnectedChannel{
		testConnectedChannel(userID, platform.YouTube),
	}}
	service := newTestService(newFakeLiveStreamStore(), channels, nil, youtube)
	created := createTestStream(t, service, userID, platform.YouTube)
	require.Equal(t, platform.StreamStatusError, created.Providers[0].Status)

	youtube.failCreate = false
	started, err := service.StartLiveStream(context.Background(), created.ID)
	require.NoError(t, err)

	require.Equal(t, 0, youtube.probeCalls)
	require.Equal(t, 2, youtube.createCalls)
	require.Equal(t, 1, youtube.startCalls)
	require.Equal(t, platform.StreamStatusLive, started.Providers[0].Status)
}

func TestStartLiveStreamLeavesFailedRecreateAsError(t *testing.T) {
	userID := uuid.New()
	youtube := &fakeAdapter{identifier: platform.YouTube, failCreate: true}
	channels := &fakeChannelStore{connectedChannels: []*channel.ConnectedChannel{
		testConnectedChannel(userID, platform.YouTube),
	}}
	service := newTestService(newFakeLiveStreamStore(), channels, nil, youtube)
	created := createTestStream(t, service, userID, platform.YouTube)

	started, err := service.StartLiveStream(context.Background(), created.ID)
	require.NoError(t, err)

	require.Equal(t, 0, youtube.startCalls)
	require.Equal(t, platform.StreamStatusError, started.Providers[0].Status)
	require.Equal(t, platform.StreamStatusReady, started.Status())
}

func TestStartLiveStreamSkipsDisabledLegs(t *testing.T) {
	userID := uuid.New()
	youtube := &fakeAdapter{identifier: platform.YouTube, active: true}
	twitch := &fakeAdapter{identifier: platform.Twitch, active: true}
	channels := &fakeChannelStore{connectedChannels: []*channel.ConnectedChannel{
		testConnectedChannel(userID, platform.YouTube),
		testConnectedChannel(userID, platform.Twitch),
	}}
	service := newTestService(newFakeLiveStreamStore(), channels, nil, youtube, twitch)
	created := createTestStream(t, service, userID, platform.YouTube, platform.Twitch)

	_, err := service.DisableProvider(context.Background(), created.ID, platform.Twitch)
	require.NoError(t, err)

	started, err := service.StartLiveStream(context.Background(), created.ID)
	require.NoError(t, err)

	require.Equal(t, 1, youtube.startCalls)
	require.Equal(t, 0, twitch.startCalls)
	require.Equal(t, platform.StreamStatusReady, started.FindProvider(platform.Twitch).Status)
}

func TestStartLiveStreamAlreadyEnded(t *testing.T) {
	userID := uuid.New()
	youtube := &fakeAdapter{identifier: platform.YouTube, active: true}
	channels := &fakeChannelStore{connectedChannels: []*channel.ConnectedChannel{
		testConnectedChannel(userID, platform.YouTube),
	}}
	store := newFakeLiveStreamStore()
	service := newTestService(store, channels, nil, youtube)
	created := createTestStream(t, service, userID, platform.YouTube)

	now := time.Now()
	created.EndDate = &now
	require.NoError(t, store.UpdateLiveStream(created))

	_, err := service.StartLiveStream(context.Background(), created.ID)
	require.ErrorIs(t, err, utils.ErrLiveStreamAlreadyEnded)
	require.Equal(t, 0, youtube.startCalls)
}

func TestStartLiveStreamNotifiesRelayWithLiveLegURLs(t *testing.T) {
	userID := uuid.New()
	youtube := &fakeAdapter{identifier: platform.YouTube, active: true}
	channels := &fakeChannelStore{connectedChannels: []*channel.ConnectedChannel{
		testConnectedChannel(userID, platform.YouTube),
	}}
	notifier := newFakeNotifier()
	service := newTestService(newFakeLiveStreamStore(), channels, notifier, youtube)
	created := createTestStream(t, service, userID, platform.YouTube)

	_, err := service.StartLiveStream(context.Background(), created.ID)
	require.NoError(t, err)

	select {
	case urls := <-notifier.pushes:
		require.Equal(t, []string{"rtmp://youtube.example.com/live"}, urls)
	case <-time.After(time.Second):
		t.Fatal("expected a relay push")
	}
}

func TestEndLiveStreamRequiresLive(t *testing.T) {
	userID := uuid.New()
	youtube := &fakeAdapter{identifier: platform.YouTube}
	channels := &fakeChannelStore{connectedChannels: []*channel.ConnectedChannel{
		testConnectedChannel(userID, platform.YouTube),
	}}
	service := newTestService(newFakeLiveStreamStore(), channels, nil, youtube)
	created := createTestStream(t, service, userID, platform.YouTube)

	_, err := service.EndLiveStream(context.Background(), created.ID)
	require.ErrorIs(t, err, utils.ErrLiveStreamNotLive)
	require.Equal(t, 0, youtube.endCalls)
}

func TestEndLiveStreamEndsOnlyLiveEnabledLegs(t *testing.T) {
	userID := uuid.New()
	youtube := &fakeAdapter{identifier: platform.YouTube, active: true}
	twitch := &fakeAdapter{identifier: platform.Twitch, active: true, failStart: true}
	facebook := &fakeAdapter{identifier: platform.Facebook, active: true}
	channels := &fakeChannelStore{connectedChannels: []*channel.ConnectedChannel{
		testConnectedChannel(userID, platform.YouTube),
		testConnectedChannel(userID, platform.Twitch),
		testConnectedChannel(userID, platform.Facebook),
	}}
	service := newTestService(newFakeLiveStreamStore(), channels, nil, youtube, twitch, facebook)
	created := createTestStream(t, service, userID, platform.YouTube, platform.Twitch, platform.Facebook)

	_, err := service.StartLiveStream(context.Background(), created.ID)
	require.NoError(t, err)
	_, err = service.DisableProvider(context.Background(), created.ID, platform.Facebook)
	require.NoError(t, err)

	ended, err := service.EndLiveStream(context.Background(), created.ID)
	require.NoError(t, err)

	// Only the enabled LIVE leg gets the remote call; the ERROR leg and the
	// disabled leg are untouched.
	require.Equal(t, 1, youtube.endCalls)
	require.Equal(t, 0, twitch.endCalls)
	require.Equal(t, 0, facebook.endCalls)
	require.Equal(t, platform.StreamStatusEnded, ended.FindProvider(platform.YouTube).Status)
	require.Equal(t, platform.StreamStatusError, ended.FindProvider(platform.Twitch).Status)
	require.NotNil(t, ended.EndDate)
	require.Equal(t, platform.StreamStatusEnded, ended.Status())

	_, err = service.StartLiveStream(context.Background(), created.ID)
	require.ErrorIs(t, err, utils.ErrLiveStreamAlreadyEnded)
}

func TestEnableDisableProvider(t *testing.T) {
	userID := uuid.New()
	youtube := &fakeAdapter{identifier: platform.YouTube}
	channels := &fakeChannelStore{connectedChannels: []*channel.ConnectedChannel{
		testConnectedChannel(userID, platform.YouTube),
	}}
	store := newFakeLiveStreamStore()
	service := newTestService(store, channels, nil, youtube)
	created := createTestStream(t, service, userID, platform.YouTube)

	updated, err := service.DisableProvider(context.Background(), created.ID, platform.YouTube)
	require.NoError(t, err)
	require.False(t, updated.FindProvider(platform.YouTube).Enabled)

	updated, err = service.EnableProvider(context.Background(), created.ID, platform.YouTube)
	require.NoError(t, err)
	require.True(t, updated.FindProvider(platform.YouTube).Enabled)

	_, err = service.EnableProvider(context.Background(), created.ID, platform.Twitch)
	require.ErrorIs(t, err, utils.ErrProviderStreamNotFound)

	now := time.Now()
	created.EndDate = &now
	require.NoError(t, store.UpdateLiveStream(created))
	_, err = service.DisableProvider(context.Background(), created.ID, platform.YouTube)
	require.ErrorIs(t, err, utils.ErrLiveStreamAlreadyEnded)
}

func TestDetachConnectedChannel(t *testing.T) {
	userID := uuid.New()
	youtube := &fakeAdapter{identifier: platform.YouTube, active: true}
	twitch := &fakeAdapter{identifier: platform.Twitch, active: true}
	connectedYouTube := testConnectedChannel(userID, platform.YouTube)
	connectedTwitch := testConnectedChannel(userID, platform.Twitch)
	channels := &fakeChannelStore{connectedChannels: []*channel.ConnectedChannel{connectedYouTube, connectedTwitch}}
	store := newFakeLiveStreamStore()
	service := newTestService(store, channels, nil, youtube, twitch)

	// An ended stream keeps its YouTube history; a fresh one loses the leg.
	endedStream := createTestStream(t, service, userID, platform.YouTube, platform.Twitch)
	_, err := service.StartLiveStream(context.Background(), endedStream.ID)
	require.NoError(t, err)
	_, err = service.EndLiveStream(context.Background(), endedStream.ID)
	require.NoError(t, err)
	readyStream := createTestStream(t, service, userID, platform.YouTube)

	require.NoError(t, service.DetachConnectedChannel(context.Background(), connectedYouTube.ID))

	ended, _ := store.GetLiveStreamByID(endedStream.ID)
	endedLeg := ended.FindProvider(platform.YouTube)
	require.NotNil(t, endedLeg)
	require.Nil(t, endedLeg.ConnectedChannelID)
	require.Equal(t, platform.StreamStatusEnded, endedLeg.Status)
	require.NotNil(t, ended.FindProvider(platform.Twitch).ConnectedChannelID)

	ready, _ := store.GetLiveStreamByID(readyStream.ID)
	require.Nil(t, ready.FindProvider(platform.YouTube))
	require.Len(t, store.deletedProviderIDs, 1)
}

func TestRemoveLiveStream(t *testing.T) {
	userID := uuid.New()
	youtube := &fakeAdapter{identifier: platform.YouTube}
	channels := &fakeChannelStore{connectedChannels: []*channel.ConnectedChannel{
		testConnectedChannel(userID, platform.YouTube),
	}}
	store := newFakeLiveStreamStore()
	service := newTestService(store, channels, nil, youtube)
	created := createTestStream(t, service, userID, platform.YouTube)

	require.NoError(t, service.RemoveLiveStream(context.Background(), created.ID))

	_, err := service.GetLiveStream(created.ID)
	require.ErrorIs(t, err, utils.ErrLiveStreamNotFound)
	err = service.RemoveLiveStream(context.Background(), created.ID)
	require.ErrorIs(t, err, utils.ErrLiveStreamNotFound)
}
