package provider

import (
	"context"
	"errors"
)

// Provider is the channel score contract: a black box scoring one
// (image, text) pair in [0,1]. Implementations must be safe for concurrent
// use and free of side effects that influence the fusion decision.
// Risk direction and operating threshold are supplied by configuration,
// never by the provider.
type Provider interface {
	Name() string
	Score(ctx context.Context, imagePath, text string) (float64, error)
}

// ErrUnavailable marks a recoverable provider failure (timeout, transport
// error, out-of-range response). The caller substitutes the fail-open
// default score instead of aborting the sample.
var ErrUnavailable = errors.New("provider unavailable")

// Limiter throttles provider calls. Satisfied by worker.Limiter; injected to
// keep provider free of scheduling concerns.
type Limiter interface {
	Wait(ctx context.Context, key string) error
}
