package provider

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"forstream/configs"
	"forstream/internal/platform"
	utils "forstream/pkg/utils"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// YouTubeScope is the OAuth scope required to manage live broadcasts.
const YouTubeScope = "https://www.googleapis.com/auth/youtube"

// YouTubeProvider drives YouTube live broadcasts through the Data API v3.
// A broadcast on YouTube is two remote objects (a liveBroadcast and a
// liveStream bound together); the leg's broadcast id refers to the former.
type YouTubeProvider struct {
	oauthConfig *oauth2.Config
	bus         *platform.RefreshBus
}

func NewYouTube(config *configs.Config, bus *platform.RefreshBus) *YouTubeProvider {
	return &YouTubeProvider{
		oauthConfig: &oauth2.Config{
			ClientID:     config.Google.ClientID,
			ClientSecret: config.Google.ClientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  config.Google.RedirectURL,
			Scopes:       []string{YouTubeScope},
		},
		bus: bus,
	}
}

func (p *YouTubeProvider) Identifier() platform.Identifier {
	return platform.YouTube
}

// OAuthConfig exposes the YouTube OAuth client for the channel connect flow.
func (p *YouTubeProvider) OAuthConfig() *oauth2.Config {
	return p.oauthConfig
}

// service builds an authenticated YouTube client from the account's stored
// tokens. The returned done function publishes a credential-refresh event if
// the token source rotated the access token during the calls that followed.
func (p *YouTubeProvider) service(ctx context.Context, account *platform.ConnectedAccount) (*youtube.Service, func(), error) {
	if account.Credentials == nil {
		return nil, nil, fmt.Errorf("connected channel has no credentials")
	}
	stored := &oauth2.Token{
		AccessToken:  account.Credentials.AccessToken,
		RefreshToken: account.Credentials.RefreshToken,
	}
	if account.Credentials.ExpiryDate != nil {
		stored.Expiry = *account.Credentials.ExpiryDate
	}
	tokenSource := p.oauthConfig.TokenSource(ctx, stored)
	service, err := youtube.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, nil, err
	}
	done := func() {
		if account.ID == uuid.Nil {
			return
		}
		current, err := tokenSource.Token()
		if err != nil || current.AccessToken == stored.AccessToken {
			return
		}
		expiry := current.Expiry
		p.bus.Publish(platform.CredentialRefreshEvent{
			ConnectedChannelID: account.ID,
			Credentials: platform.Credentials{
				AccessToken:  current.AccessToken,
				RefreshToken: current.RefreshToken,
				ExpiryDate:   &expiry,
			},
		})
	}
	return service, done, nil
}

func (p *YouTubeProvider) CreateLiveStream(ctx context.Context, account *platform.ConnectedAccount, title, description string, startDate time.Time) *platform.StreamData {
	service, done, err := p.service(ctx, account)
	if err != nil {
		return platform.ErrorStream(googleErrorCode(err), err.Error())
	}
	defer done()

	broadcast, err := service.LiveBroadcasts.Insert([]string{"id", "snippet", "contentDetails", "status"}, &youtube.LiveBroadcast{
		Snippet: &youtube.LiveBroadcastSnippet{
			Title:              title,
			Description:        description,
			ScheduledStartTime: startDate.UTC().Format(time.RFC3339),
		},
		ContentDetails: &youtube.LiveBroadcastContentDetails{
			MonitorStream: &youtube.MonitorStreamInfo{
				EnableMonitorStream: new(bool),
				ForceSendFields:     []string{"EnableMonitorStream"},
			},
		},
		Status: &youtube.LiveBroadcastStatus{
			PrivacyStatus:           "private",
			SelfDeclaredMadeForKids: false,
		},
	}).Context(ctx).Do()
	if err != nil {
		return platform.ErrorStream(googleErrorCode(err), err.Error())
	}

	stream, err := service.LiveStreams.Insert([]string{"id", "snippet", "cdn", "contentDetails", "status"}, &youtube.LiveStream{
		Snippet: &youtube.LiveStreamSnippet{
			Title: title,
		},
		Cdn: &youtube.CdnSettings{
			FrameRate:     "30fps",
			IngestionType: "rtmp",
			Resolution:    "480p",
		},
	}).Context(ctx).Do()
	if err != nil {
		return platform.ErrorStream(googleErrorCode(err), err.Error())
	}

	if _, err := service.LiveBroadcasts.Bind(broadcast.Id, []string{"id", "contentDetails"}).StreamId(stream.Id).Context(ctx).Do(); err != nil {
		return platform.ErrorStream(googleErrorCode(err), err.Error())
	}

	ingestion := stream.Cdn.IngestionInfo
	streamURL := fmt.Sprintf("%s/%s", ingestion.IngestionAddress, ingestion.StreamName)
	return &platform.StreamData{
		BroadcastID: &broadcast.Id,
		StreamURL:   &streamURL,
		Status:      platform.StreamStatusReady,
	}
}

func (p *YouTubeProvider) StartLiveStream(ctx context.Context, account *platform.ConnectedAccount, title string, stream *platform.StreamData) {
	if stream.BroadcastID == nil {
		stream.SetError("broadcast_missing", "Provider stream has no broadcast id")
		return
	}
	service, done, err := p.service(ctx, account)
	if err != nil {
		stream.SetError(googleErrorCode(err), err.Error())
		return
	}
	defer done()

	if _, err := service.LiveBroadcasts.Transition("live", *stream.BroadcastID, []string{"id", "status"}).Context(ctx).Do(); err != nil {
		stream.SetError(googleErrorCode(err), err.Error())
		return
	}
	stream.SetLive()
}

func (p *YouTubeProvider) EndLiveStream(ctx context.Context, account *platform.ConnectedAccount, stream *platform.StreamData) {
	// Local state always reaches ENDED, remote reachability notwithstanding.
	defer stream.SetEnded()

	if stream.BroadcastID == nil {
		return
	}
	service, done, err := p.service(ctx, account)
	if err != nil {
		utils.Logger.Warnf("[Provider %s] Failed to build client while ending broadcast %s: %v", p.Identifier(), *stream.BroadcastID, err)
		return
	}
	defer done()

	if _, err := service.LiveBroadcasts.Transition("complete", *stream.BroadcastID, []string{"id", "status"}).Context(ctx).Do(); err != nil {
		utils.Logger.Warnf("[Provider %s] Failed to complete broadcast %s: %v", p.Identifier(), *stream.BroadcastID, err)
	}
}

func (p *YouTubeProvider) IsActiveLiveStream(ctx context.Context, account *platform.ConnectedAccount, stream *platform.StreamData) bool {
	if stream.BroadcastID == nil {
		return false
	}
	service, done, err := p.service(ctx, account)
	if err != nil {
		return false
	}
	defer done()

	response, err := service.LiveBroadcasts.List([]string{"id", "status"}).Id(*stream.BroadcastID).Context(ctx).Do()
	if err != nil || len(response.Items) != 1 {
		return false
	}
	switch response.Items[0].Status.LifeCycleStatus {
	case "created", "ready", "testing", "liveStarting", "live":
		return true
	}
	return false
}

// Connect-flow helpers, used by the channel service.

// ExchangeAuthCode trades an authorization code for a token pair.
func (p *YouTubeProvider) ExchangeAuthCode(ctx context.Context, authCode string) (platform.Credentials, error) {
	token, err := p.oauthConfig.Exchange(ctx, authCode)
	if err != nil {
		return platform.Credentials{}, fmt.Errorf("unable to exchange the auth code: %w", err)
	}
	expiry := token.Expiry
	return platform.Credentials{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiryDate:   &expiry,
		Scopes:       []string{YouTubeScope},
	}, nil
}

// GetOwnChannel resolves the YouTube channel the credentials belong to.
func (p *YouTubeProvider) GetOwnChannel(ctx context.Context, credentials platform.Credentials) (platform.Target, error) {
	account := &platform.ConnectedAccount{Credentials: &credentials}
	service, done, err := p.service(ctx, account)
	if err != nil {
		return platform.Target{}, err
	}
	defer done()

	response, err := service.Channels.List([]string{"id", "snippet"}).Mine(true).Context(ctx).Do()
	if err != nil {
		return platform.Target{}, fmt.Errorf("unable to get channel info: %w", err)
	}
	if len(response.Items) == 0 {
		return platform.Target{}, fmt.Errorf("no YouTube channel found for this account")
	}
	channel := response.Items[0]
	return platform.Target{
		ID:   channel.Id,
		Name: channel.Snippet.Title,
		URL:  fmt.Sprintf("https://www.youtube.com/channel/%s", channel.Id),
	}, nil
}

// googleErrorCode extracts a normalized error code from a Google API error.
func googleErrorCode(err error) string {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if len(apiErr.Errors) > 0 && apiErr.Errors[0].Reason != "" {
			return apiErr.Errors[0].Reason
		}
		return strconv.Itoa(apiErr.Code)
	}
	return "youtube_error"
}
