package vlm

import (
	"fmt"
	"strings"
)

// NewCaptioner creates a captioner based on configuration. An empty provider
// returns nil — attributes then come from the sample record's metadata.
func NewCaptioner(config Config) (Captioner, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAICaptioner(config)

	case "ollama":
		return NewOllamaCaptioner(config)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown captioner provider: %s (supported: openai, ollama)", config.Provider)
	}
}
