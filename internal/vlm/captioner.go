package vlm

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/veridict/internal/model"
)

// Captioner turns an image into structured visual attributes. Implementations
// wrap a vision-language model; the engines never see the model, only the
// attribute schema.
type Captioner interface {
	// Name returns the captioner name
	Name() string

	// Caption describes the image as structured visual attributes
	Caption(ctx context.Context, imagePath string) (model.VisualAttributes, error)

	// IsAvailable checks if the captioner is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// Config holds captioner configuration
type Config struct {
	// Provider name: "openai", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// ConfigFromModel maps the runtime configuration into a captioner config.
func ConfigFromModel(cfg model.CaptionerConfig) Config {
	return Config{
		Provider:   cfg.Provider,
		Model:      cfg.Model,
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Timeout:    cfg.Timeout,
		HTTPProxy:  cfg.HTTPProxy,
		HTTPSProxy: cfg.HTTPSProxy,
		NoProxy:    cfg.NoProxy,
	}
}

// captionPrompt instructs the model to emit the exact attribute schema the
// rule engine consumes. The model answers one "Field: value" line per field
// and uses Unknown for anything not visible.
const captionPrompt = `Describe this image strictly as structured metadata, one line per field:
Time: Day or Night
Weather: Sunny, Rain, Snow, Cloudy or Unknown
Location: place or landmark name
Fact: factual state (e.g. Empty, Crowded, Closed)
Objects: salient objects or landmarks
Topic: coarse subject category
Answer with exactly those six lines. Use Unknown for any field you cannot determine. No extra text.`

// ParseCaption extracts visual attributes from a "Field: value" response.
// Unrecognized lines are ignored; absent fields default to Unknown, so a
// partial or sloppy model answer still yields a usable attribute set.
func ParseCaption(raw string) model.VisualAttributes {
	fields := make(map[string]string)
	for _, line := range strings.Split(raw, "\n") {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		name = strings.ToLower(strings.TrimSpace(strings.TrimLeft(name, "-* ")))
		fields[name] = strings.TrimSpace(value)
	}
	return model.NewVisualAttributes(
		fields["time"],
		fields["weather"],
		fields["location"],
		fields["fact"],
		fields["objects"],
		fields["topic"],
	)
}

// encodeImage reads the image and renders it as a base64 data URI for
// vision APIs.
func encodeImage(imagePath string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}

	mime := "image/jpeg"
	switch strings.ToLower(filepath.Ext(imagePath)) {
	case ".png":
		mime = "image/png"
	case ".gif":
		mime = "image/gif"
	case ".webp":
		mime = "image/webp"
	}

	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data)), nil
}
