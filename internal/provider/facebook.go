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

	fb "github.com/huandu/facebook/v2"
)

// FacebookProvider publishes live videos through the Graph API. The same
// adapter serves both profile and page channels; only the target (and the
// access token stored for it) differs. Broadcasts are created with
// status LIVE_NOW, so going live is a local-only transition that completes
// when the encoder connects to the ingest URL.
type FacebookProvider struct {
	app        *fb.App
	identifier platform.Identifier
}

func NewFacebook(config *configs.Config) *FacebookProvider {
	return &FacebookProvider{
		app:        fb.New(config.Facebook.AppID, config.Facebook.AppSecret),
		identifier: platform.Facebook,
	}
}

func NewFacebookPage(config *configs.Config) *FacebookProvider {
	return &FacebookProvider{
		app:        fb.New(config.Facebook.AppID, config.Facebook.AppSecret),
		identifier: platform.FacebookPage,
	}
}

func (p *FacebookProvider) Identifier() platform.Identifier {
	return p.identifier
}

func (p *FacebookProvider) session(ctx context.Context, account *platform.ConnectedAccount) (*fb.Session, error) {
	if account.Credentials == nil || account.Credentials.AccessToken == "" {
		return nil, fmt.Errorf("connected channel has no access token")
	}
	return p.app.Session(account.Credentials.AccessToken).WithContext(ctx), nil
}

func (p *FacebookProvider) CreateLiveStream(ctx context.Context, account *platform.ConnectedAccount, title, description string, startDate time.Time) *platform.StreamData {
	session, err := p.session(ctx, account)
	if err != nil {
		return platform.ErrorStream(facebookErrorCode(err), err.Error())
	}
	result, err := session.Post(fmt.Sprintf("/%s/live_videos", account.Target.ID), fb.Params{
		"title":       title,
		"description": description,
		"status":      "LIVE_NOW",
	})
	if err != nil {
		return platform.ErrorStream(facebookErrorCode(err), err.Error())
	}

	var broadcastID, streamURL string
	if err := result.DecodeField("id", &broadcastID); err != nil {
		return platform.ErrorStream("facebook_error", err.Error())
	}
	if err := result.DecodeField("secure_stream_url", &streamURL); err != nil {
		return platform.ErrorStream("facebook_error", err.Error())
	}
	return &platform.StreamData{
		BroadcastID: &broadcastID,
		StreamURL:   &streamURL,
		Status:      platform.StreamStatusReady,
	}
}

func (p *FacebookProvider) StartLiveStream(ctx context.Context, account *platform.ConnectedAccount, title string, stream *platform.StreamData) {
	// LIVE_NOW broadcasts go live when the encoder connects.
	stream.SetLive()
}

func (p *FacebookProvider) EndLiveStream(ctx context.Context, account *platform.ConnectedAccount, stream *platform.StreamData) {
	defer stream.SetEnded()

	if stream.BroadcastID == nil {
		return
	}
	session, err := p.session(ctx, account)
	if err != nil {
		utils.Logger.Warnf("[Provider %s] Failed to build session while ending live video %s: %v", p.identifier, *stream.BroadcastID, err)
		return
	}
	if _, err := session.Post("/"+*stream.BroadcastID, fb.Params{"end_live_video": true}); err != nil {
		utils.Logger.Warnf("[Provider %s] Failed to end live video %s: %v", p.identifier, *stream.BroadcastID, err)
	}
}

func (p *FacebookProvider) IsActiveLiveStream(ctx context.Context, account *platform.ConnectedAccount, stream *platform.StreamData) bool {
	if stream.BroadcastID == nil {
		return false
	}
	session, err := p.session(ctx, account)
	if err != nil {
		return false
	}
	result, err := session.Get("/"+*stream.BroadcastID, fb.Params{"fields": "status"})
	if err != nil {
		return false
	}
	var status string
	if err := result.DecodeField("status", &status); err != nil {
		return false
	}
	switch status {
	case "UNPUBLISHED", "LIVE", "LIVE_NOW", "SCHEDULED_UNPUBLISHED", "SCHEDULED_LIVE":
		return true
	}
	return false
}

// Connect-flow helpers, used by the channel service.

// ExchangeLongLivedToken trades a short-lived client token for a long-lived
// one that can outlive the browser session that produced it.
func (p *FacebookProvider) ExchangeLongLivedToken(ctx context.Context, accessToken string) (string, error) {
	token, _, err := p.app.ExchangeToken(accessToken)
	if err != nil {
		return "", fmt.Errorf("unable to exchange for a long lived token: %w", err)
	}
	return token, nil
}

// GetProfile fetches the profile the token belongs to.
func (p *FacebookProvider) GetProfile(ctx context.Context, accessToken string) (platform.Target, error) {
	result, err := p.app.Session(accessToken).WithContext(ctx).Get("/me", fb.Params{"fields": "name,link"})
	if err != nil {
		return platform.Target{}, err
	}
	var target platform.Target
	if err := result.DecodeField("id", &target.ID); err != nil {
		return platform.Target{}, err
	}
	if err := result.DecodeField("name", &target.Name); err != nil {
		return platform.Target{}, err
	}
	result.DecodeField("link", &target.URL)
	return target, nil
}

// PageTarget is one page the user can broadcast to, with its page token.
type PageTarget struct {
	ID          string `facebook:"id"`
	Name        string `facebook:"name"`
	URL         string `facebook:"link"`
	AccessToken string `facebook:"access_token"`
}

// ListPageTargets lists the pages managed by the token's user.
func (p *FacebookProvider) ListPageTargets(ctx context.Context, accessToken string) ([]PageTarget, error) {
	result, err := p.app.Session(accessToken).WithContext(ctx).Get("/me/accounts", nil)
	if err != nil {
		return nil, err
	}
	var pages []PageTarget
	if err := result.DecodeField("data", &pages); err != nil {
		return nil, err
	}
	return pages, nil
}

// GetPageTarget fetches one page, including the page access token that
// live-video publishing requires.
func (p *FacebookProvider) GetPageTarget(ctx context.Context, accessToken, pageID string) (PageTarget, error) {
	result, err := p.app.Session(accessToken).WithContext(ctx).Get("/"+pageID, fb.Params{"fields": "name,link,access_token"})
	if err != nil {
		return PageTarget{}, err
	}
	var page PageTarget
	if err := result.Decode(&page); err != nil {
		return PageTarget{}, err
	}
	page.ID = pageID
	return page, nil
}

// facebookErrorCode extracts a normalized error code from a Graph API error.
func facebookErrorCode(err error) string {
	var apiErr *fb.Error
	if errors.As(err, &apiErr) {
		return strconv.Itoa(apiErr.Code)
	}
	return "facebook_error"
}
