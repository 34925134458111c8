package provider

import (
	"context"
	"time"

	"forstream/internal/platform"
)

// Provider translates live-stream lifecycle calls into one platform's remote
// broadcast operations. Implementations receive fully-resolved account data
// and hold no orchestration state.
//
// CreateLiveStream never returns an error: remote failures are normalized
// into a StreamData with ERROR status and diagnostic messages, so that one
// failing platform cannot abort stream creation for the others.
type Provider interface {
	Identifier() platform.Identifier

	// CreateLiveStream allocates a broadcast/ingest endpoint on the remote
	// platform.
	CreateLiveStream(ctx context.Context, account *platform.ConnectedAccount, title, description string, startDate time.Time) *platform.StreamData

	// StartLiveStream transitions the remote broadcast to live, mutating the
	// leg in place. Platforms where publishing begins as soon as the encoder
	// connects perform a local-only status transition.
	StartLiveStream(ctx context.Context, account *platform.ConnectedAccount, title string, stream *platform.StreamData)

	// EndLiveStream transitions the remote broadcast to ended. Best-effort:
	// the leg always reaches ENDED locally even when the remote call fails.
	EndLiveStream(ctx context.Context, account *platform.ConnectedAccount, stream *platform.StreamData)

	// IsActiveLiveStream probes whether a previously created remote broadcast
	// is still usable. Unknown is treated as invalid.
	IsActiveLiveStream(ctx context.Context, account *platform.ConnectedAccount, stream *platform.StreamData) bool
}

// Registry maps platform identifiers to their adapters. It is built once at
// process start; a platform without a registered adapter is skipped by the
// orchestrator rather than treated as an error.
type Registry struct {
	providers map[platform.Identifier]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	byIdentifier := make(map[platform.Identifier]Provider, len(providers))
	for _, p := range providers {
		byIdentifier[p.Identifier()] = p
	}
	return &Registry{providers: byIdentifier}
}

func (r *Registry) Lookup(identifier platform.Identifier) (Provider, bool) {
	p, ok := r.providers[identifier]
	return p, ok
}
