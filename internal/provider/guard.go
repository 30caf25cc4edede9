package provider

import (
	"context"
	"fmt"
	"os"
	"time"
)

// Guard enforces the core's contract around an opaque provider call: an
// optional rate-limit wait, a per-call timeout, and fail-open substitution.
// The guarded result never propagates a provider failure — an unavailable
// channel scores 0.0 non-alarming and is flagged for the audit trail.
type Guard struct {
	provider Provider
	timeout  time.Duration
	limiter  Limiter
	verbose  bool
}

// NewGuard wraps a provider. A nil limiter disables throttling; a zero
// timeout disables the per-call deadline (the provider's own transport
// timeout still applies).
func NewGuard(p Provider, timeout time.Duration, limiter Limiter, verbose bool) *Guard {
	return &Guard{provider: p, timeout: timeout, limiter: limiter, verbose: verbose}
}

// Name returns the wrapped provider's channel identifier.
func (g *Guard) Name() string { return g.provider.Name() }

// SafeScore invokes the provider and reports (score, unavailable). On
// timeout or provider error the fail-open default 0.0 is substituted and
// unavailable is true; the caller folds that flag into the audit reasons.
func (g *Guard) SafeScore(ctx context.Context, imagePath, text string) (float64, bool) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx, g.provider.Name()); err != nil {
			g.warn("rate limit wait: %v", err)
			return 0, true
		}
	}

	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	score, err := g.provider.Score(callCtx, imagePath, text)
	if err != nil {
		g.warn("%s provider failed, failing open: %v", g.provider.Name(), err)
		return 0, true
	}
	if score < 0 || score > 1 {
		g.warn("%s provider returned %.3f outside [0,1], failing open", g.provider.Name(), score)
		return 0, true
	}
	return score, false
}

func (g *Guard) warn(format string, args ...interface{}) {
	if g.verbose {
		fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
	}
}
