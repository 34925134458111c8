package channel

import (
	"context"
	"fmt"
	"time"

	"forstream/internal/platform"
	"forstream/internal/provider"
	utils "forstream/pkg/utils"

	"github.com/google/uuid"
)

// LiveStreamDetacher removes or detaches the provider streams that reference
// a connected channel before it is deleted. Implemented by the live-stream
// service; declared here to keep the dependency pointing one way.
type LiveStreamDetacher interface {
	DetachConnectedChannel(ctx context.Context, connectedChannelID uuid.UUID) error
}

type Service struct {
	store        ChannelStore
	youtube      *provider.YouTubeProvider
	facebook     *provider.FacebookProvider
	facebookPage *provider.FacebookProvider
	twitch       *provider.TwitchProvider
	bus          *platform.RefreshBus
	detacher     LiveStreamDetacher
	assetsURL    string
}

func NewService(store ChannelStore, youtube *provider.YouTubeProvider, facebook, facebookPage *provider.FacebookProvider, twitch *provider.TwitchProvider, bus *platform.RefreshBus, assetsURL string) *Service {
	return &Service{
		store:        store,
		youtube:      youtube,
		facebook:     facebook,
		facebookPage: facebookPage,
		twitch:       twitch,
		bus:          bus,
		assetsURL:    assetsURL,
	}
}

// SetLiveStreamDetacher wires the live-stream service in after both services
// exist. Must be called before DisconnectChannel is used.
func (s *Service) SetLiveStreamDetacher(detacher LiveStreamDetacher) {
	s.detacher = detacher
}

// EnsureChannels seeds the channel catalog. Existing entries are left alone,
// so the catalog survives restarts and redeploys unchanged.
func (s *Service) EnsureChannels() error {
	seeds := []*Channel{
		{
			Name:              "YouTube",
			Identifier:        platform.YouTube,
			ImageURL:          fmt.Sprintf("%s/channels/youtube.png", s.assetsURL),
			PresentationOrder: 1,
			RequiredScopes:    []string{provider.YouTubeScope},
		},
		{
			Name:              "Facebook Profile",
			Identifier:        platform.Facebook,
			ImageURL:          fmt.Sprintf("%s/channels/facebook.png", s.assetsURL),
			PresentationOrder: 2,
			RequiredScopes:    []string{"user_link", "publish_video"},
		},
		{
			Name:              "Facebook Page",
			Identifier:        platform.FacebookPage,
			ImageURL:          fmt.Sprintf("%s/channels/facebook_page.png", s.assetsURL),
			PresentationOrder: 3,
			RequiredScopes:    []string{"publish_video", "pages_show_list", "pages_read_engagement", "pages_manage_posts"},
		},
		{
			Name:              "Twitch",
			Identifier:        platform.Twitch,
			ImageURL:          fmt.Sprintf("%s/channels/twitch.png", s.assetsURL),
			PresentationOrder: 4,
			RequiredScopes:    provider.TwitchScopes,
		},
		{
			Name:              "Custom RTMP",
			Identifier:        platform.RTMP,
			ImageURL:          fmt.Sprintf("%s/channels/rtmp.png", s.assetsURL),
			PresentationOrder: 5,
		},
	}

	for _, seed := range seeds {
		existing, err := s.store.GetChannelByIdentifier(seed.Identifier)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		seed.ID = uuid.New()
		seed.RegistrationDate = time.Now()
		if err := s.store.CreateChannel(seed); err != nil {
			return err
		}
		utils.Logger.Infof("[Channel %s] Created catalog entry", seed.Identifier)
	}
	return nil
}

func (s *Service) ListChannels() ([]*Channel, error) {
	return s.store.ListChannels()
}

func (s *Service) ListConnectedChannels(userID uuid.UUID) ([]*ConnectedChannel, error) {
	return s.store.GetConnectedChannelsByUserID(userID)
}

func (s *Service) GetConnectedChannel(id uuid.UUID) (*ConnectedChannel, error) {
	connectedChannel, err := s.store.GetConnectedChannelByID(id)
	if err != nil {
		return nil, err
	}
	if connectedChannel == nil {
		return nil, utils.ErrConnectedChannelNotFound
	}
	return connectedChannel, nil
}

// connectChannel upserts the (user, channel) link: reconnecting the same
// platform replaces the target and credentials in place.
func (s *Service) connectChannel(userID uuid.UUID, identifier platform.Identifier, target platform.Target, credentials *platform.Credentials) (*ConnectedChannel, error) {
	channel, err := s.store.GetChannelByIdentifier(identifier)
	if err != nil {
		return nil, err
	}
	if channel == nil {
		return nil, utils.ErrChannelNotFound
	}

	connectedChannel, err := s.store.FindConnectedChannel(userID, channel.ID)
	if err != nil {
		return nil, err
	}
	if connectedChannel == nil {
		connectedChannel = &ConnectedChannel{
			ID:               uuid.New(),
			UserID:           userID,
			ChannelID:        channel.ID,
			Channel:          channel,
			Target:           target,
			Credentials:      credentials,
			Enabled:          true,
			RegistrationDate: time.Now(),
		}
		if err := s.store.CreateConnectedChannel(connectedChannel); err != nil {
			return nil, err
		}
		return connectedChannel, nil
	}

	connectedChannel.Target = target
	connectedChannel.Credentials = credentials
	if err := s.store.UpdateConnectedChannel(connectedChannel); err != nil {
		return nil, err
	}
	return connectedChannel, nil
}

func (s *Service) ConnectYouTubeChannel(ctx context.Context, userID uuid.UUID, authCode string) (*ConnectedChannel, error) {
	utils.Logger.Infof("[User %s] Connecting YouTube channel...", userID)

	credentials, err := s.youtube.ExchangeAuthCode(ctx, authCode)
	if err != nil {
		return nil, err
	}
	target, err := s.youtube.GetOwnChannel(ctx, credentials)
	if err != nil {
		return nil, err
	}

	connectedChannel, err := s.connectChannel(userID, platform.YouTube, target, &credentials)
	if err != nil {
		return nil, err
	}
	utils.Logger.Infof("[User %s] YouTube channel connected: %s", userID, connectedChannel.ID)
	return connectedChannel, nil
}

func (s *Service) ConnectFacebookChannel(ctx context.Context, userID uuid.UUID, accessToken string) (*ConnectedChannel, error) {
	utils.Logger.Infof("[User %s] Connecting Facebook channel...", userID)

	longLivedToken, err := s.facebook.ExchangeLongLivedToken(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	target, err := s.facebook.GetProfile(ctx, longLivedToken)
	if err != nil {
		return nil, err
	}

	credentials := &platform.Credentials{AccessToken: longLivedToken}
	connectedChannel, err := s.connectChannel(userID, platform.Facebook, target, credentials)
	if err != nil {
		return nil, err
	}
	utils.Logger.Infof("[User %s] Facebook channel connected: %s", userID, connectedChannel.ID)
	return connectedChannel, nil
}

// ListFacebookPageChannelTargets lists the pages the user can connect, so the
// client can offer a picker before calling ConnectFacebookPageChannel.
func (s *Service) ListFacebookPageChannelTargets(ctx context.Context, userID uuid.UUID, accessToken string) ([]platform.Target, error) {
	utils.Logger.Infof("[User %s] Listing pages...", userID)
	pages, err := s.facebookPage.ListPageTargets(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	targets := make([]platform.Target, 0, len(pages))
	for _, page := range pages {
		targets = append(targets, platform.Target{ID: page.ID, Name: page.Name})
	}
	utils.Logger.Infof("[User %s] %d target(s) found", userID, len(targets))
	return targets, nil
}

func (s *Service) ConnectFacebookPageChannel(ctx context.Context, userID uuid.UUID, accessToken, targetID string) (*ConnectedChannel, error) {
	utils.Logger.Infof("[User %s] Connecting Facebook page channel...", userID)

	longLivedToken, err := s.facebookPage.ExchangeLongLivedToken(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	page, err := s.facebookPage.GetPageTarget(ctx, longLivedToken, targetID)
	if err != nil {
		return nil, err
	}

	target := platform.Target{ID: page.ID, Name: page.Name, URL: page.URL}
	// Publishing to a page requires the page token, not the user token.
	credentials := &platform.Credentials{AccessToken: page.AccessToken}
	connectedChannel, err := s.connectChannel(userID, platform.FacebookPage, target, credentials)
	if err != nil {
		return nil, err
	}
	utils.Logger.Infof("[User %s] Facebook page channel connected: %s", userID, connectedChannel.ID)
	return connectedChannel, nil
}

func (s *Service) ConnectTwitchChannel(ctx context.Context, userID uuid.UUID, authCode string) (*ConnectedChannel, error) {
	utils.Logger.Infof("[User %s] Connecting Twitch channel...", userID)

	credentials, err := s.twitch.ExchangeAuthCode(ctx, authCode)
	if err != nil {
		return nil, err
	}
	target, err := s.twitch.GetAuthenticatedUser(ctx, credentials)
	if err != nil {
		return nil, err
	}

	connectedChannel, err := s.connectChannel(userID, platform.Twitch, target, &credentials)
	if err != nil {
		return nil, err
	}
	utils.Logger.Infof("[User %s] Twitch channel connected: %s", userID, connectedChannel.ID)
	return connectedChannel, nil
}

func (s *Service) ConnectRtmpChannel(userID uuid.UUID, channelName, rtmpURL, streamKey string) (*ConnectedChannel, error) {
	if channelName == "" {
		return nil, utils.ErrChannelNameRequired
	}
	if rtmpURL == "" {
		return nil, utils.ErrRtmpURLRequired
	}
	if streamKey == "" {
		return nil, utils.ErrStreamKeyRequired
	}
	utils.Logger.Infof("[User %s] Connecting RTMP channel...", userID)

	target := platform.Target{ID: uuid.NewString(), Name: channelName}
	credentials := &platform.Credentials{RTMPURL: rtmpURL, StreamKey: streamKey}
	connectedChannel, err := s.connectChannel(userID, platform.RTMP, target, credentials)
	if err != nil {
		return nil, err
	}
	utils.Logger.Infof("[User %s] RTMP channel connected: %s", userID, connectedChannel.ID)
	return connectedChannel, nil
}

// DisconnectChannel removes the user's link to a platform. Provider streams
// that reference the link are detached first: ended legs keep their history
// with the reference nulled, anything else is removed.
func (s *Service) DisconnectChannel(ctx context.Context, userID uuid.UUID, identifier platform.Identifier) error {
	channel, err := s.store.GetChannelByIdentifier(identifier)
	if err != nil {
		return err
	}
	if channel == nil {
		return utils.ErrChannelNotFound
	}
	connectedChannel, err := s.store.FindConnectedChannel(userID, channel.ID)
	if err != nil {
		return err
	}
	if connectedChannel == nil {
		return utils.ErrConnectedChannelNotFound
	}

	if s.detacher != nil {
		if err := s.detacher.DetachConnectedChannel(ctx, connectedChannel.ID); err != nil {
			return err
		}
	}
	if err := s.store.DeleteConnectedChannel(connectedChannel.ID); err != nil {
		return err
	}
	utils.Logger.Infof("[User %s] Channel %s disconnected", userID, identifier)
	return nil
}

// RunCredentialRefreshListener drains the refresh bus and folds rotated
// credentials back into storage. Events carry only the rotated fields;
// everything else in the stored blob is preserved. Blocks until ctx is done,
// so run it on its own goroutine.
func (s *Service) RunCredentialRefreshListener(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-s.bus.Events():
			s.applyCredentialRefresh(event)
		}
	}
}

func (s *Service) applyCredentialRefresh(event platform.CredentialRefreshEvent) {
	connectedChannel, err := s.store.GetConnectedChannelByID(event.ConnectedChannelID)
	if err != nil {
		utils.Logger.Errorf("[ConnectedChannel %s] Failed to load for credential refresh: %v", event.ConnectedChannelID, err)
		return
	}
	if connectedChannel == nil {
		utils.Logger.Warnf("[ConnectedChannel %s] Dropping credential refresh for unknown channel", event.ConnectedChannelID)
		return
	}

	utils.Logger.Infof("[ConnectedChannel %s] Updating credentials...", connectedChannel.ID)
	if connectedChannel.Credentials == nil {
		connectedChannel.Credentials = &platform.Credentials{}
	}
	connectedChannel.Credentials.Merge(event.Credentials)
	if err := s.store.UpdateConnectedChannel(connectedChannel); err != nil {
		utils.Logger.Errorf("[ConnectedChannel %s] Failed to persist refreshed credentials: %v", connectedChannel.ID, err)
		return
	}
	utils.Logger.Infof("[ConnectedChannel %s] Credentials updated", connectedChannel.ID)
}
