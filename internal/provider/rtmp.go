package provider

import (
	"context"
	"fmt"
	"time"

	"forstream/internal/platform"
)

// RTMPProvider serves custom RTMP endpoints. There is no remote API at all:
// the ingest URL comes straight from the stored credentials and every
// lifecycle transition is local.
type RTMPProvider struct{}

func NewRTMP() *RTMPProvider {
	return &RTMPProvider{}
}

func (p *RTMPProvider) Identifier() platform.Identifier {
	return platform.RTMP
}

func (p *RTMPProvider) CreateLiveStream(ctx context.Context, account *platform.ConnectedAccount, title, description string, startDate time.Time) *platform.StreamData {
	if account.Credentials == nil || account.Credentials.RTMPURL == "" || account.Credentials.StreamKey == "" {
		return platform.ErrorStream("rtmp_credentials_missing", "Connected channel has no RTMP url or stream key")
	}
	streamURL := fmt.Sprintf("%s/%s", account.Credentials.RTMPURL, account.Credentials.StreamKey)
	return &platform.StreamData{
		StreamURL: &streamURL,
		Status:    platform.StreamStatusReady,
	}
}

func (p *RTMPProvider) StartLiveStream(ctx context.Context, account *platform.ConnectedAccount, title string, stream *platform.StreamData) {
	stream.SetLive()
}

func (p *RTMPProvider) EndLiveStream(ctx context.Context, account *platform.ConnectedAccount, stream *platform.StreamData) {
	stream.SetEnded()
}

func (p *RTMPProvider) IsActiveLiveStream(ctx context.Context, account *platform.ConnectedAccount, stream *platform.StreamData) bool {
	return true
}
