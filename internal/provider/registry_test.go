package provider

import (
	"context"
	"os"
	"testing"
	"time"

	"forstream/internal/platform"
	utils "forstream/pkg/utils"

	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	utils.Init("error")
	os.Exit(m.Run())
}

func TestRegistryLookup(t *testing.T) {
	rtmp := NewRTMP()
	registry := NewRegistry(rtmp)

	found, ok := registry.Lookup(platform.RTMP)
	require.True(t, ok)
	require.Equal(t, platform.RTMP, found.Identifier())

	_, ok = registry.Lookup(platform.YouTube)
	require.False(t, ok)
}

func TestRTMPProviderCreateRequiresCredentials(t *testing.T) {
	rtmp := NewRTMP()

	data := rtmp.CreateLiveStream(context.Background(), &platform.ConnectedAccount{}, "title", "", time.Now())
	require.Equal(t, platform.StreamStatusError, data.Status)
	require.Len(t, data.Messages, 1)
	require.Equal(t, "rtmp_credentials_missing", data.Messages[0].Code)
}

func TestRTMPProviderLifecycleIsLocal(t *testing.T) {
	rtmp := NewRTMP()
	account := &platform.ConnectedAccount{
		Credentials: &platform.Credentials{RTMPURL: "rtmp://ingest.example.com/live", StreamKey: "abc"},
	}

	data := rtmp.CreateLiveStream(context.Background(), account, "title", "", time.Now())
	require.Equal(t, platform.StreamStatusReady, data.Status)
	require.NotNil(t, data.StreamURL)
	require.Equal(t, "rtmp://ingest.example.com/live/abc", *data.StreamURL)
	require.Nil(t, data.BroadcastID)

	rtmp.StartLiveStream(context.Background(), account, "title", data)
	require.Equal(t, platform.StreamStatusLive, data.Status)
	require.True(t, rtmp.IsActiveLiveStream(context.Background(), account, data))

	rtmp.EndLiveStream(context.Background(), account, data)
	require.Equal(t, platform.StreamStatusEnded, data.Status)
}
