package fusion

import (
	"fmt"

	"github.com/ppiankov/veridict/internal/model"
)

// Interception credit labels, kept in the reference deployment's wording.
const (
	InterceptedCh1 = "Channel 1 (Physics)"
	InterceptedCh2 = "Channel 2 (Semantic)"
	InterceptedCh3 = "Channel 3 (Logic)"
)

// Risk magnitudes substituted for channels whose raw score does not measure
// risk directly: a low-is-risk similarity alarm contributes 0.9, a logic
// conflict contributes 0.95 (and 0.05 when consistent, for the fused
// probability).
const (
	lowIsRiskAlarmWeight  = 0.9
	conflictProbability   = 0.95
	consistentProbability = 0.05
)

// Engine is the Multi-Channel Risk Fusion Engine: a pure, stateless function
// of its inputs. Channel operating points are validated once at construction;
// a misconfigured threshold is fatal before any sample is processed.
type Engine struct {
	channels model.ChannelsConfig
}

// NewEngine validates the channel configuration and builds the engine.
func NewEngine(channels model.ChannelsConfig) (*Engine, error) {
	if err := channels.Validate(); err != nil {
		return nil, err
	}
	return &Engine{channels: channels}, nil
}

// Channel stamps a raw provider score with the configured operating point for
// the named channel.
func (e *Engine) Channel(name string, score float64, unavailable bool) model.ChannelScore {
	cs := model.ChannelScore{Channel: name, Score: score, Unavailable: unavailable}
	switch name {
	case model.ChannelTamper:
		cs.Threshold = e.channels.Tamper.Threshold
		cs.Direction = e.channels.Tamper.Direction
	case model.ChannelSemantic:
		cs.Threshold = e.channels.Semantic.Threshold
		cs.Direction = e.channels.Semantic.Direction
	}
	return cs
}

// Fuse combines the channel scores and the rule engine's finding into one
// verdict with an audit trail.
//
// The operational decision is a one-vote veto: any single alarming channel
// condemns the sample, regardless of the others' scores. A channel missing
// from the input is treated as 0.0 non-alarming (fail-open) and flagged in
// the notes. The fused probability 1 - prod(1 - P_i) is computed over the
// same vector for analytics and never gates the boolean verdict.
func (e *Engine) Fuse(scores []model.ChannelScore, finding *model.ConflictFinding) model.FusionVerdict {
	tamper := pick(scores, model.ChannelTamper)
	semantic := pick(scores, model.ChannelSemantic)

	verdict := model.FusionVerdict{InterceptedBy: model.InterceptedPass}

	// Fixed priority order for interception credit: tamper first, semantic
	// second, the logic channel last. Reporting only; IsRisk is the plain OR.
	if tamper.Alarming() {
		verdict.IsRisk = true
		verdict.Reasons = append(verdict.Reasons, fmt.Sprintf("Ch1:Physical Tamper(%.2f)", tamper.Score))
		verdict.RiskScore = max(verdict.RiskScore, tamper.Score)
		verdict.InterceptedBy = InterceptedCh1
	}
	if semantic.Alarming() {
		verdict.IsRisk = true
		verdict.Reasons = append(verdict.Reasons, fmt.Sprintf("Ch2:Semantic Mismatch(%.2f)", semantic.Score))
		// Raw similarity is low when risky; credit a fixed high magnitude.
		verdict.RiskScore = max(verdict.RiskScore, lowIsRiskAlarmWeight)
		if verdict.InterceptedBy == model.InterceptedPass {
			verdict.InterceptedBy = InterceptedCh2
		}
	}
	if finding != nil {
		verdict.IsRisk = true
		verdict.Reasons = append(verdict.Reasons, "Ch3:Logic Conflict: "+finding.Reason)
		verdict.RiskScore = max(verdict.RiskScore, conflictProbability)
		if verdict.InterceptedBy == model.InterceptedPass {
			verdict.InterceptedBy = InterceptedCh3
		}
	}

	for _, cs := range []model.ChannelScore{tamper, semantic} {
		if cs.Unavailable {
			verdict.Notes = append(verdict.Notes,
				fmt.Sprintf("[FAIL-OPEN] %s channel unavailable, score defaulted to 0.0", cs.Channel))
		}
	}

	verdict.FusedProbability = fusedProbability(tamper, semantic, finding)
	return verdict
}

// fusedProbability computes 1 - prod(1 - P_i) over the risk-oriented channel
// probabilities: the raw score for high-is-risk channels, its complement for
// low-is-risk channels, and a fixed 0.95/0.05 for the conflict channel.
func fusedProbability(tamper, semantic model.ChannelScore, finding *model.ConflictFinding) float64 {
	passAll := 1.0
	passAll *= 1 - riskProbability(tamper)
	passAll *= 1 - riskProbability(semantic)
	if finding != nil {
		passAll *= 1 - conflictProbability
	} else {
		passAll *= 1 - consistentProbability
	}
	return 1 - passAll
}

func riskProbability(cs model.ChannelScore) float64 {
	if cs.Unavailable {
		return 0
	}
	if cs.Direction == model.LowIsRisk {
		return clamp01(1 - cs.Score)
	}
	return clamp01(cs.Score)
}

// pick finds the named channel's score, substituting an unavailable
// non-alarming default when the channel is missing from the input.
func pick(scores []model.ChannelScore, name string) model.ChannelScore {
	for _, cs := range scores {
		if cs.Channel == name {
			return cs
		}
	}
	return model.ChannelScore{Channel: name, Unavailable: true}
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
