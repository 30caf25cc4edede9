package model

import "fmt"

// Channel identifiers in fixed interception priority order: the tamper
// detector is credited first, the semantic matcher second, the logic/rule
// channel last. The order affects reporting only, never the verdict.
const (
	ChannelTamper   = "tamper"
	ChannelSemantic = "semantic"
	ChannelLogic    = "logic"
)

// RiskDirection states which side of the threshold is alarming for a channel.
type RiskDirection string

const (
	// HighIsRisk alarms when score > threshold (e.g. tamper confidence).
	HighIsRisk RiskDirection = "high-is-risk"
	// LowIsRisk alarms when score < threshold (e.g. semantic similarity).
	LowIsRisk RiskDirection = "low-is-risk"
)

// ChannelScore is one external channel's contribution to a sample: the raw
// score in [0,1] plus the operating threshold and risk direction supplied by
// configuration. Supplied fresh per sample, never reused.
type ChannelScore struct {
	Channel   string        `json:"channel"`
	Score     float64       `json:"score"`
	Threshold float64       `json:"threshold"`
	Direction RiskDirection `json:"direction"`

	// Unavailable marks a fail-open substitution: the provider timed out or
	// errored and the score was defaulted to 0.0 non-alarming.
	Unavailable bool `json:"unavailable,omitempty"`
}

// Alarming applies the channel's threshold in its risk direction. An
// unavailable channel never alarms.
func (c ChannelScore) Alarming() bool {
	if c.Unavailable {
		return false
	}
	switch c.Direction {
	case LowIsRisk:
		return c.Score < c.Threshold
	default:
		return c.Score > c.Threshold
	}
}

// ChannelConfig is a channel's operating point, validated once at startup.
type ChannelConfig struct {
	Threshold float64       `yaml:"threshold" json:"threshold"`
	Direction RiskDirection `yaml:"direction" json:"direction"`
}

// Validate rejects malformed thresholds and directions. A misconfigured
// channel is fatal: the batch must abort before any sample is processed.
func (c ChannelConfig) Validate(channel string) error {
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("channel %s: threshold %.3f outside [0,1]", channel, c.Threshold)
	}
	switch c.Direction {
	case HighIsRisk, LowIsRisk:
		return nil
	case "":
		return fmt.Errorf("channel %s: risk direction not set", channel)
	default:
		return fmt.Errorf("channel %s: unknown risk direction %q", channel, c.Direction)
	}
}
