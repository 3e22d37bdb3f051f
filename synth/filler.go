// Package synth expands campaign stages into candidate log events via the
// content-filling collaborator.
package synth

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"mirage/core"
)

// ContentRequest asks the collaborator to produce concrete field values for
// one technique on one target asset.
type ContentRequest struct {
	Technique   string
	Tactic      string
	StageName   string
	Narrative   string
	TargetAsset core.Asset
}

// AlertRequest asks the collaborator to produce alert field values for a
// detected technique-within-stage.
type AlertRequest struct {
	Stage     *core.Stage
	Technique string
	Events    []*core.SynthesizedEvent
}

// ContentFiller is the content-filling collaborator. Implementations may be
// remote and may fail or time out; callers treat both identically.
type ContentFiller interface {
	FillContent(ctx context.Context, req ContentRequest) (core.FieldSet, error)
	FillAlertContent(ctx context.Context, req AlertRequest) (core.FieldSet, error)
}

// deadlineFiller bounds every collaborator call. A missed deadline surfaces
// as an ordinary fill error.
type deadlineFiller struct {
	inner   ContentFiller
	timeout time.Duration
}

// NewDeadlineFiller wraps a filler with a per-call timeout
func NewDeadlineFiller(inner ContentFiller, timeout time.Duration) ContentFiller {
	return &deadlineFiller{inner: inner, timeout: timeout}
}

func (f *deadlineFiller) FillContent(ctx context.Context, req ContentRequest) (core.FieldSet, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	return f.inner.FillContent(ctx, req)
}

func (f *deadlineFiller) FillAlertContent(ctx context.Context, req AlertRequest) (core.FieldSet, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	return f.inner.FillAlertContent(ctx, req)
}

// rateLimitedFiller throttles collaborator calls
type rateLimitedFiller struct {
	inner   ContentFiller
	limiter *rate.Limiter
}

// NewRateLimitedFiller wraps a filler with a token-bucket limiter
func NewRateLimitedFiller(inner ContentFiller, limiter *rate.Limiter) ContentFiller {
	return &rateLimitedFiller{inner: inner, limiter: limiter}
}

func (f *rateLimitedFiller) FillContent(ctx context.Context, req ContentRequest) (core.FieldSet, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return f.inner.FillContent(ctx, req)
}

func (f *rateLimitedFiller) FillAlertContent(ctx context.Context, req AlertRequest) (core.FieldSet, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return f.inner.FillAlertContent(ctx, req)
}
