package provider

import (
	"context"
	"fmt"
	"time"

	"forstream/configs"
	"forstream/internal/platform"

	"github.com/nicklaw5/helix/v2"
)

// TwitchScopes are the OAuth scopes requested when connecting a channel.
var TwitchScopes = []string{"channel:read:stream_key", "channel:manage:broadcast"}

// TwitchProvider drives Twitch through the Helix API. Twitch has no broadcast
// object to create or transition: creating a leg resolves the account's
// permanent ingest URL, starting updates the channel title, and the stream
// itself begins and ends with the encoder connection.
type TwitchProvider struct {
	clientID     string
	clientSecret string
	redirectURI  string
	bus          *platform.RefreshBus
}

func NewTwitch(config *configs.Config, bus *platform.RefreshBus) *TwitchProvider {
	return &TwitchProvider{
		clientID:     config.Twitch.ClientID,
		clientSecret: config.Twitch.ClientSecret,
		redirectURI:  config.Twitch.RedirectURL,
		bus:          bus,
	}
}

func (p *TwitchProvider) Identifier() platform.Identifier {
	return platform.Twitch
}

// client builds a helix client bound to the account's tokens. Helix refreshes
// expired user tokens transparently during API calls; the rotation callback
// forwards the new pair to the refresh bus so it reaches storage.
func (p *TwitchProvider) client(account *platform.ConnectedAccount) (*helix.Client, error) {
	if account.Credentials == nil || account.Credentials.AccessToken == "" {
		return nil, fmt.Errorf("connected channel has no access token")
	}
	client, err := helix.NewClient(&helix.Options{
		ClientID:     p.clientID,
		ClientSecret: p.clientSecret,
		RedirectURI:  p.redirectURI,
	})
	if err != nil {
		return nil, err
	}
	client.SetUserAccessToken(account.Credentials.AccessToken)
	client.SetRefreshToken(account.Credentials.RefreshToken)
	accountID := account.ID
	client.OnUserAccessTokenRefreshed(func(newAccessToken, newRefreshToken string) {
		p.bus.Publish(platform.CredentialRefreshEvent{
			ConnectedChannelID: accountID,
			Credentials: platform.Credentials{
				AccessToken:  newAccessToken,
				RefreshToken: newRefreshToken,
			},
		})
	})
	return client, nil
}

func (p *TwitchProvider) CreateLiveStream(ctx context.Context, account *platform.ConnectedAccount, title, description string, startDate time.Time) *platform.StreamData {
	client, err := p.client(account)
	if err != nil {
		return platform.ErrorStream("twitch_error", err.Error())
	}
	resp, err := client.GetStreamKey(&helix.StreamKeyParams{BroadcasterID: account.Target.ID})
	if err != nil {
		return platform.ErrorStream("twitch_error", err.Error())
	}
	if resp.ErrorStatus != 0 {
		return platform.ErrorStream(resp.Error, resp.ErrorMessage)
	}
	if len(resp.Data.Data) == 0 {
		return platform.ErrorStream("stream_key_not_found", "No stream key returned for broadcaster")
	}
	streamURL := fmt.Sprintf("rtmp://live.twitch.tv/app/%s", resp.Data.Data[0].StreamKey)
	return &platform.StreamData{
		StreamURL: &streamURL,
		Status:    platform.StreamStatusReady,
	}
}

func (p *TwitchProvider) StartLiveStream(ctx context.Context, account *platform.ConnectedAccount, title string, stream *platform.StreamData) {
	client, err := p.client(account)
	if err != nil {
		stream.SetError("twitch_error", err.Error())
		return
	}
	resp, err := client.EditChannelInformation(&helix.EditChannelInformationParams{
		BroadcasterID: account.Target.ID,
		Title:         title,
	})
	if err != nil {
		stream.SetError("twitch_error", err.Error())
		return
	}
	if resp.ErrorStatus != 0 {
		stream.SetError(resp.Error, resp.ErrorMessage)
		return
	}
	stream.SetLive()
}

func (p *TwitchProvider) EndLiveStream(ctx context.Context, account *platform.ConnectedAccount, stream *platform.StreamData) {
	// The stream ends when the encoder disconnects.
	stream.SetEnded()
}

func (p *TwitchProvider) IsActiveLiveStream(ctx context.Context, account *platform.ConnectedAccount, stream *platform.StreamData) bool {
	// The ingest URL is permanent for the account, there is nothing to go stale.
	return true
}

// Connect-flow helpers, used by the channel service.

// ExchangeAuthCode trades an authorization code for a user token pair.
func (p *TwitchProvider) ExchangeAuthCode(ctx context.Context, authCode string) (platform.Credentials, error) {
	client, err := helix.NewClient(&helix.Options{
		ClientID:     p.clientID,
		ClientSecret: p.clientSecret,
		RedirectURI:  p.redirectURI,
	})
	if err != nil {
		return platform.Credentials{}, err
	}
	resp, err := client.RequestUserAccessToken(authCode)
	if err != nil {
		return platform.Credentials{}, fmt.Errorf("unable to get user access token: %w", err)
	}
	if resp.ErrorStatus != 0 {
		return platform.Credentials{}, fmt.Errorf("unable to get user access token: %d %v: %v", resp.ErrorStatus, resp.Error, resp.ErrorMessage)
	}
	expiry := time.Now().Add(time.Duration(resp.Data.ExpiresIn) * time.Second)
	return platform.Credentials{
		AccessToken:  resp.Data.AccessToken,
		RefreshToken: resp.Data.RefreshToken,
		ExpiryDate:   &expiry,
		Scopes:       resp.Data.Scopes,
	}, nil
}

// GetAuthenticatedUser resolves the Twitch user the credentials belong to.
func (p *TwitchProvider) GetAuthenticatedUser(ctx context.Context, credentials platform.Credentials) (platform.Target, error) {
	client, err := helix.NewClient(&helix.Options{
		ClientID:     p.clientID,
		ClientSecret: p.clientSecret,
		RedirectURI:  p.redirectURI,
	})
	if err != nil {
		return platform.Target{}, err
	}
	client.SetUserAccessToken(credentials.AccessToken)
	resp, err := client.GetUsers(&helix.UsersParams{})
	if err != nil {
		return platform.Target{}, fmt.Errorf("unable to query user info: %w", err)
	}
	if resp.ErrorStatus != 0 {
		return platform.Target{}, fmt.Errorf("unable to query user info: %d %v: %v", resp.ErrorStatus, resp.Error, resp.ErrorMessage)
	}
	if len(resp.Data.Users) != 1 {
		return platform.Target{}, fmt.Errorf("expected 1 user, but received %d users", len(resp.Data.Users))
	}
	user := resp.Data.Users[0]
	name := user.DisplayName
	if name == "" {
		name = user.Login
	}
	return platform.Target{
		ID:   user.ID,
		Name: name,
		URL:  fmt.Sprintf("https://twitch.tv/%s", user.Login),
	}, nil
}
