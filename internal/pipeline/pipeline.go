package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/ppiankov/veridict/internal/cache"
	"github.com/ppiankov/veridict/internal/fusion"
	"github.com/ppiankov/veridict/internal/model"
	"github.com/ppiankov/veridict/internal/provider"
	"github.com/ppiankov/veridict/internal/rules"
	"github.com/ppiankov/veridict/internal/vlm"
)

// Pipeline evaluates one sample end to end: attribute source → conflict rule
// engine → guarded score providers → fusion. All engines are injected at
// construction and immutable afterwards; evaluation holds no shared mutable
// state, so one Pipeline serves any number of concurrent workers.
type Pipeline struct {
	attrs    vlm.AttributeSource
	rules    *rules.Engine
	fusion   *fusion.Engine
	tamper   *provider.Guard // nil when the channel is not configured
	semantic *provider.Guard
	config   *model.Config
}

// NewPipeline wires the pipeline from configuration. Configuration errors —
// bad thresholds, unknown matching mode, unloadable rule set — are fatal
// here, before any sample is processed. The limiter throttles remote
// provider calls and may be nil.
func NewPipeline(cfg *model.Config, limiter provider.Limiter) (*Pipeline, error) {
	fusionEngine, err := fusion.NewEngine(cfg.Channels)
	if err != nil {
		return nil, err
	}

	mode, err := rules.ParseMatchMode(cfg.Rules.Matching)
	if err != nil {
		return nil, err
	}

	var set *rules.RuleSet
	if cfg.Rules.RuleSetPath != "" {
		set, err = rules.LoadRuleSet(cfg.Rules.RuleSetPath)
		if err != nil {
			return nil, err
		}
	}
	ruleEngine, err := rules.NewEngine(set, mode)
	if err != nil {
		return nil, err
	}

	var store cache.Cache
	if cfg.Cache.Enabled && cfg.Cache.Dir != "" {
		store = cache.NewLayeredCache(cfg.Cache.TTL, cfg.Cache.Dir, cfg.Cache.TTL)
	} else if cfg.Cache.Enabled {
		store = cache.NewMemoryCache(cfg.Cache.TTL, cfg.Cache.TTL)
	}

	attrs, err := newAttributeSource(cfg, store)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		attrs:  attrs,
		rules:  ruleEngine,
		fusion: fusionEngine,
		config: cfg,
	}

	if cfg.Providers.TamperURL != "" {
		p.tamper = newGuard(model.ChannelTamper, cfg.Providers.TamperURL, cfg, store, limiter)
	}
	if cfg.Providers.SemanticURL != "" {
		p.semantic = newGuard(model.ChannelSemantic, cfg.Providers.SemanticURL, cfg, store, limiter)
	}

	return p, nil
}

func newGuard(channel, endpoint string, cfg *model.Config, store cache.Cache, limiter provider.Limiter) *provider.Guard {
	var prov provider.Provider = provider.NewRemote(channel, endpoint, cfg.Providers)
	if store != nil {
		prov = provider.NewCached(prov, store, cfg.Cache.TTL)
	}
	return provider.NewGuard(prov, cfg.Providers.Timeout, limiter, cfg.Output.Verbose)
}

func newAttributeSource(cfg *model.Config, store cache.Cache) (vlm.AttributeSource, error) {
	captioner, err := vlm.NewCaptioner(vlm.ConfigFromModel(cfg.Captioner))
	if err != nil {
		return nil, err
	}
	if captioner == nil {
		return vlm.MetaSource{}, nil
	}
	return vlm.NewCaptionSource(captioner, store, cfg.Cache.TTL), nil
}

// NewPipelineWith assembles a pipeline from prebuilt engines, for tests and
// embedders that construct their own providers.
func NewPipelineWith(attrs vlm.AttributeSource, ruleEngine *rules.Engine, fusionEngine *fusion.Engine, tamper, semantic *provider.Guard, cfg *model.Config) *Pipeline {
	return &Pipeline{
		attrs:    attrs,
		rules:    ruleEngine,
		fusion:   fusionEngine,
		tamper:   tamper,
		semantic: semantic,
		config:   cfg,
	}
}

// Result is one sample's complete evaluation: the attributes actually used,
// the rule engine's finding (nil when consistent), the stamped channel
// scores, and the fused verdict.
type Result struct {
	Sample     model.Sample
	Attributes model.VisualAttributes
	Finding    *model.ConflictFinding
	Scores     []model.ChannelScore
	Verdict    model.FusionVerdict
}

// ConflictReason renders the logic channel's audit line: the finding's
// reason, or the constant consistent message.
func (r *Result) ConflictReason() string {
	if r.Finding != nil {
		return r.Finding.Reason
	}
	return model.ConsistentReason
}

// Evaluate runs one sample through all channels and fuses the verdict.
// Channel providers are invoked independently; a provider failure fails open
// rather than erroring the sample. The returned result is self-contained —
// nothing is retained by the pipeline.
func (p *Pipeline) Evaluate(ctx context.Context, sample model.Sample) (*Result, error) {
	attrs, err := p.attrs.Attributes(ctx, sample)
	if err != nil {
		// CaptionSource already fell back to record metadata; just surface
		// the degradation in verbose mode.
		if p.config.Output.Verbose {
			fmt.Fprintf(os.Stderr, "Warning: attribute source degraded for %s: %v\n", sample.ID, err)
		}
	}

	finding := p.rules.Evaluate(attrs, sample.TextContent)

	scores := []model.ChannelScore{
		p.channelScore(ctx, model.ChannelTamper, p.tamper, sample),
		p.channelScore(ctx, model.ChannelSemantic, p.semantic, sample),
	}

	verdict := p.fusion.Fuse(scores, finding)

	return &Result{
		Sample:     sample,
		Attributes: attrs,
		Finding:    finding,
		Scores:     scores,
		Verdict:    verdict,
	}, nil
}

func (p *Pipeline) channelScore(ctx context.Context, channel string, guard *provider.Guard, sample model.Sample) model.ChannelScore {
	if guard == nil {
		return p.fusion.Channel(channel, 0, true)
	}
	score, unavailable := guard.SafeScore(ctx, sample.ImagePath, sample.TextContent)
	return p.fusion.Channel(channel, score, unavailable)
}
