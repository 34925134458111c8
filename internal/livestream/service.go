package livestream

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"forstream/internal/channel"
	"forstream/internal/platform"
	"forstream/internal/provider"
	utils "forstream/pkg/utils"

	"github.com/google/uuid"
)

// Notifier tells the relay which provider ingest URLs a stream key fans out
// to. Implemented by the relay client; failures are logged and swallowed.
type Notifier interface {
	Push(ctx context.Context, streamKey string, streamURLs []string) error
}

type Service struct {
	store       LiveStreamStore
	channels    channel.ChannelStore
	registry    *provider.Registry
	notifier    Notifier
	rtmpURL     string
	callTimeout time.Duration

	locksMu sync.Mutex
	locks   map[uuid.UUID]*sync.Mutex
}

func NewService(store LiveStreamStore, channels channel.ChannelStore, registry *provider.Registry, notifier Notifier, rtmpURL string, callTimeout time.Duration) *Service {
	return &Service{
		store:       store,
		channels:    channels,
		registry:    registry,
		notifier:    notifier,
		rtmpURL:     rtmpURL,
		callTimeout: callTimeout,
		locks:       make(map[uuid.UUID]*sync.Mutex),
	}
}

// lock serializes mutations per live stream: two concurrent starts (or a
// start racing an end) would otherwise interleave their read-modify-write
// cycles and lose leg updates.
func (s *Service) lock(id uuid.UUID) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	mutex, ok := s.locks[id]
	if !ok {
		mutex = &sync.Mutex{}
		s.locks[id] = mutex
	}
	return mutex
}

// legContext builds the context provider calls run under: bounded by the
// configured timeout but detached from the caller's cancellation, so a
// dropped HTTP request cannot leave half the side effects unrecorded.
func (s *Service) legContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.callTimeout)
}

func (s *Service) GetLiveStream(id uuid.UUID) (*LiveStream, error) {
	liveStream, err := s.store.GetLiveStreamByID(id)
	if err != nil {
		return nil, err
	}
	if liveStream == nil {
		return nil, utils.ErrLiveStreamNotFound
	}
	return liveStream, nil
}

// ListLiveStreams returns the user's streams, most recent first.
func (s *Service) ListLiveStreams(userID uuid.UUID) ([]*LiveStream, error) {
	return s.store.GetLiveStreamsByUserID(userID)
}

// CreateLiveStream creates the aggregate and fans out one broadcast-creation
// call per requested connected channel. Provider failures never abort the
// operation: they come back as ERROR legs with diagnostic messages.
func (s *Service) CreateLiveStream(ctx context.Context, userID uuid.UUID, title, description string, identifiers []platform.Identifier) (*LiveStream, error) {
	utils.Logger.Infof("[User %s] Creating live stream...", userID)
	if title == "" {
		return nil, utils.ErrTitleRequired
	}

	connectedChannels, err := s.channels.GetConnectedChannelsByUserID(userID)
	if err != nil {
		return nil, err
	}
	if len(connectedChannels) == 0 {
		return nil, utils.ErrNoChannelsConnected
	}

	requested := make(map[platform.Identifier]bool, len(identifiers))
	for _, identifier := range identifiers {
		requested[identifier] = true
	}
	var selected []*channel.ConnectedChannel
	for _, connectedChannel := range connectedChannels {
		if connectedChannel.Enabled && requested[connectedChannel.Identifier()] {
			selected = append(selected, connectedChannel)
		}
	}
	if len(selected) == 0 {
		return nil, utils.ErrNoConnectedChannelsEnabled
	}

	startDate := time.Now()
	providerStreams := make([]*ProviderStream, len(selected))
	var wg sync.WaitGroup
	for i, connectedChannel := range selected {
		adapter, ok := s.registry.Lookup(connectedChannel.Identifier())
		if !ok {
			continue
		}
		wg.Add(1)
		go func(position int, connectedChannel *channel.ConnectedChannel, adapter provider.Provider) {
			defer wg.Done()
			legCtx, cancel := s.legContext()
			defer cancel()

			utils.Logger.Infof("[User %s] [Provider %s] Creating stream...", userID, adapter.Identifier())
			streamData := adapter.CreateLiveStream(legCtx, connectedChannel.Account(), title, description, startDate)
			utils.Logger.Infof("[User %s] [Provider %s] Stream created with status %s", userID, adapter.Identifier(), streamData.Status)

			connectedChannelID := connectedChannel.ID
			providerStreams[position] = &ProviderStream{
				ID:                 uuid.New(),
				ConnectedChannelID: &connectedChannelID,
				ConnectedChannel:   connectedChannel,
				Identifier:         connectedChannel.Identifier(),
				StreamData:         *streamData,
				Enabled:            true,
				Position:           position,
			}
		}(i, connectedChannel, adapter)
	}
	wg.Wait()

	streamKey, err := generateStreamKey()
	if err != nil {
		return nil, err
	}
	liveStream := &LiveStream{
		ID:               uuid.New(),
		UserID:           userID,
		Title:            title,
		Description:      description,
		StreamKey:        streamKey,
		StreamURL:        fmt.Sprintf("%s/%s", s.rtmpURL, streamKey),
		RegistrationDate: time.Now(),
	}
	for _, providerStream := range providerStreams {
		if providerStream != nil {
			providerStream.Position = len(liveStream.Providers)
			liveStream.Providers = append(liveStream.Providers, providerStream)
		}
	}

	if err := s.store.CreateLiveStream(liveStream); err != nil {
		return nil, err
	}
	utils.Logger.Infof("[User %s] Live stream %s created", userID, liveStream.ID)
	return liveStream, nil
}

// StartLiveStream takes every enabled leg live, concurrently. Already-LIVE
// legs are left alone, stale broadcasts are recreated before starting, and
// a leg that fails stays ERROR without affecting its siblings.
func (s *Service) StartLiveStream(ctx context.Context, id uuid.UUID) (*LiveStream, error) {
	mutex := s.lock(id)
	mutex.Lock()
	defer mutex.Unlock()

	utils.Logger.Infof("[LiveStream %s] Starting live stream...", id)
	liveStream, err := s.GetLiveStream(id)
	if err != nil {
		return nil, err
	}
	if liveStream.EndDate != nil {
		return nil, utils.ErrLiveStreamAlreadyEnded
	}

	var wg sync.WaitGroup
	for _, providerStream := range liveStream.Providers {
		wg.Add(1)
		go func(providerStream *ProviderStream) {
			defer wg.Done()
			s.startProviderStream(liveStream, providerStream)
		}(providerStream)
	}
	wg.Wait()

	if liveStream.StartDate == nil {
		now := time.Now()
		liveStream.StartDate = &now
	}
	if err := s.store.UpdateLiveStream(liveStream); err != nil {
		return nil, err
	}
	s.notifyRelay(liveStream)
	utils.Logger.Infof("[LiveStream %s] Live stream started", liveStream.ID)
	return liveStream, nil
}

func (s *Service) startProviderStream(liveStream *LiveStream, providerStream *ProviderStream) {
	if !providerStream.Enabled || providerStream.ConnectedChannel == nil {
		return
	}
	adapter, ok := s.registry.Lookup(providerStream.Identifier)
	if !ok {
		return
	}
	legCtx, cancel := s.legContext()
	defer cancel()
	account := providerStream.ConnectedChannel.Account()

	if providerStream.Status == platform.StreamStatusLive {
		utils.Logger.Infof("[LiveStream %s] [Provider %s] Stream was already started", liveStream.ID, providerStream.Identifier)
		return
	}

	if providerStream.Status != platform.StreamStatusError && adapter.IsActiveLiveStream(legCtx, account, &providerStream.StreamData) {
		utils.Logger.Infof("[LiveStream %s] [Provider %s] Starting stream...", liveStream.ID, providerStream.Identifier)
		adapter.StartLiveStream(legCtx, account, liveStream.Title, &providerStream.StreamData)
		utils.Logger.Infof("[LiveStream %s] [Provider %s] Stream started with status %s", liveStream.ID, providerStream.Identifier, providerStream.Status)
		return
	}

	// ERROR legs and broadcasts that went stale on the remote side get a
	// fresh broadcast before starting.
	utils.Logger.Infof("[LiveStream %s] [Provider %s] Stream is not valid anymore, creating another one...", liveStream.ID, providerStream.Identifier)
	streamData := adapter.CreateLiveStream(legCtx, account, liveStream.Title, liveStream.Description, time.Now())
	providerStream.StreamData = *streamData
	if providerStream.Status != platform.StreamStatusReady {
		utils.Logger.Infof("[LiveStream %s] [Provider %s] Stream was created with errors and will not be started", liveStream.ID, providerStream.Identifier)
		return
	}
	utils.Logger.Infof("[LiveStream %s] [Provider %s] Stream created, starting provider stream...", liveStream.ID, providerStream.Identifier)
	adapter.StartLiveStream(legCtx, account, liveStream.Title, &providerStream.StreamData)
	utils.Logger.Infof("[LiveStream %s] [Provider %s] Stream started with status %s", liveStream.ID, providerStream.Identifier, providerStream.Status)
}

// notifyRelay pushes the leg ingest URLs to the relay so the encoder feed
// fans out. Fire and forget: relay errors never fail a start.
func (s *Service) notifyRelay(liveStream *LiveStream) {
	if s.notifier == nil {
		return
	}
	var streamURLs []string
	for _, providerStream := range liveStream.Providers {
		if providerStream.Enabled && providerStream.StreamURL != nil && providerStream.Status == platform.StreamStatusLive {
			streamURLs = append(streamURLs, *providerStream.StreamURL)
		}
	}
	streamKey := liveStream.StreamKey
	liveStreamID := liveStream.ID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.callTimeout)
		defer cancel()
		if err := s.notifier.Push(ctx, streamKey, streamURLs); err != nil {
			utils.Logger.Warnf("[LiveStream %s] Failed to notify relay: %v", liveStreamID, err)
		}
	}()
}

// EndLiveStream ends every enabled LIVE leg, concurrently, and stamps the
// end date. Legs always reach ENDED locally even when the remote call fails.
func (s *Service) EndLiveStream(ctx context.Context, id uuid.UUID) (*LiveStream, error) {
	mutex := s.lock(id)
	mutex.Lock()
	defer mutex.Unlock()

	utils.Logger.Infof("[LiveStream %s] Ending live stream...", id)
	liveStream, err := s.GetLiveStream(id)
	if err != nil {
		return nil, err
	}
	if !liveStream.IsLive() {
		return nil, utils.ErrLiveStreamNotLive
	}

	var wg sync.WaitGroup
	for _, providerStream := range liveStream.Providers {
		if !providerStream.Enabled || providerStream.Status != platform.StreamStatusLive {
			continue
		}
		adapter, ok := s.registry.Lookup(providerStream.Identifier)
		if !ok {
			continue
		}
		wg.Add(1)
		go func(providerStream *ProviderStream, adapter provider.Provider) {
			defer wg.Done()
			legCtx, cancel := s.legContext()
			defer cancel()

			var account *platform.ConnectedAccount
			if providerStream.ConnectedChannel != nil {
				account = providerStream.ConnectedChannel.Account()
			} else {
				account = &platform.ConnectedAccount{Identifier: providerStream.Identifier}
			}
			utils.Logger.Infof("[LiveStream %s] [Provider %s] Ending stream...", liveStream.ID, providerStream.Identifier)
			adapter.EndLiveStream(legCtx, account, &providerStream.StreamData)
			utils.Logger.Infof("[LiveStream %s] [Provider %s] Stream ended", liveStream.ID, providerStream.Identifier)
		}(providerStream, adapter)
	}
	wg.Wait()

	now := time.Now()
	liveStream.EndDate = &now
	if err := s.store.UpdateLiveStream(liveStream); err != nil {
		return nil, err
	}
	utils.Logger.Infof("[LiveStream %s] Live stream ended", liveStream.ID)
	return liveStream, nil
}

// EnableProvider re-enables a leg for future starts. No provider call is
// made; the flag only changes what the next start or end touches.
func (s *Service) EnableProvider(ctx context.Context, id uuid.UUID, identifier platform.Identifier) (*LiveStream, error) {
	return s.changeProviderState(id, identifier, true)
}

// DisableProvider excludes a leg from future starts and ends.
func (s *Service) DisableProvider(ctx context.Context, id uuid.UUID, identifier platform.Identifier) (*LiveStream, error) {
	return s.changeProviderState(id, identifier, false)
}

func (s *Service) changeProviderState(id uuid.UUID, identifier platform.Identifier, enabled bool) (*LiveStream, error) {
	mutex := s.lock(id)
	mutex.Lock()
	defer mutex.Unlock()

	action := "Disabling"
	if enabled {
		action = "Enabling"
	}
	utils.Logger.Infof("[LiveStream %s] %s provider %s...", id, action, identifier)

	liveStream, err := s.GetLiveStream(id)
	if err != nil {
		return nil, err
	}
	if liveStream.EndDate != nil {
		return nil, utils.ErrLiveStreamAlreadyEnded
	}
	providerStream := liveStream.FindProvider(identifier)
	if providerStream == nil {
		return nil, utils.ErrProviderStreamNotFound
	}

	providerStream.Enabled = enabled
	if err := s.store.UpdateLiveStream(liveStream); err != nil {
		return nil, err
	}
	return liveStream, nil
}

// RemoveLiveStream deletes the aggregate and its legs. Remote broadcasts are
// left as they are; ending them is the caller's business.
func (s *Service) RemoveLiveStream(ctx context.Context, id uuid.UUID) error {
	mutex := s.lock(id)
	mutex.Lock()
	defer mutex.Unlock()

	utils.Logger.Infof("[LiveStream %s] Removing live stream...", id)
	liveStream, err := s.GetLiveStream(id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteLiveStream(liveStream.ID); err != nil {
		return err
	}
	utils.Logger.Infof("[LiveStream %s] Live stream removed", liveStream.ID)
	return nil
}

// DetachConnectedChannel is the disconnect cascade: ended legs keep their
// history with the channel reference nulled, every other leg referencing the
// channel is removed.
func (s *Service) DetachConnectedChannel(ctx context.Context, connectedChannelID uuid.UUID) error {
	liveStreams, err := s.store.GetLiveStreamsByConnectedChannelID(connectedChannelID)
	if err != nil {
		return err
	}
	for _, liveStream := range liveStreams {
		if err := s.detachFromLiveStream(liveStream.ID, connectedChannelID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) detachFromLiveStream(id, connectedChannelID uuid.UUID) error {
	mutex := s.lock(id)
	mutex.Lock()
	defer mutex.Unlock()

	liveStream, err := s.store.GetLiveStreamByID(id)
	if err != nil {
		return err
	}
	if liveStream == nil {
		return nil
	}

	kept := liveStream.Providers[:0]
	for _, providerStream := range liveStream.Providers {
		if providerStream.ConnectedChannelID == nil || *providerStream.ConnectedChannelID != connectedChannelID {
			kept = append(kept, providerStream)
			continue
		}
		if providerStream.Status == platform.StreamStatusEnded {
			providerStream.ConnectedChannelID = nil
			providerStream.ConnectedChannel = nil
			kept = append(kept, providerStream)
			continue
		}
		if err := s.store.DeleteProviderStream(providerStream.ID); err != nil {
			return err
		}
	}
	liveStream.Providers = kept
	return s.store.UpdateLiveStream(liveStream)
}

func generateStreamKey() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate stream key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}
