package vlm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/veridict/internal/model"
	"github.com/ppiankov/veridict/internal/util"
)

// OllamaCaptioner implements the Captioner interface for local vision models
// served by Ollama (e.g. moondream, llava).
type OllamaCaptioner struct {
	baseURL    string
	httpClient *http.Client
	config     Config
}

// Ollama API structures
type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Images  []string      `json:"images,omitempty"`
	Options ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type ollamaError struct {
	Error string `json:"error"`
}

// NewOllamaCaptioner creates a new Ollama captioner
func NewOllamaCaptioner(config Config) (*OllamaCaptioner, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second // local vision models can be slow
	}

	return &OllamaCaptioner{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
			},
		},
		config: config,
	}, nil
}

// Name returns the captioner name
func (c *OllamaCaptioner) Name() string {
	return "ollama"
}

// IsAvailable checks if Ollama is running
func (c *OllamaCaptioner) IsAvailable(ctx context.Context) bool {
	url := fmt.Sprintf("%s/api/tags", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ollama availability check failed (connection to %s): %v\n", c.baseURL, err)
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode == http.StatusOK
}

// Caption sends the image to the local vision model and parses the
// structured attribute answer.
func (c *OllamaCaptioner) Caption(ctx context.Context, imagePath string) (model.VisualAttributes, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return model.UnknownAttributes(), fmt.Errorf("read image: %w", err)
	}

	chatModel := c.config.Model
	if chatModel == "" {
		return model.UnknownAttributes(), fmt.Errorf("ollama model must be specified (e.g., moondream, llava)")
	}

	apiReq := ollamaRequest{
		Model:  chatModel,
		Prompt: captionPrompt,
		Stream: false,
		Images: []string{base64.StdEncoding.EncodeToString(data)},
		Options: ollamaOptions{
			Temperature: 0,
			NumPredict:  200,
		},
	}

	raw, err := c.generate(ctx, apiReq)
	if err != nil {
		return model.UnknownAttributes(), fmt.Errorf("ollama API error: %w", err)
	}

	return ParseCaption(raw), nil
}

func (c *OllamaCaptioner) generate(ctx context.Context, apiReq ollamaRequest) (string, error) {
	body, err := json.Marshal(apiReq)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/generate", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr ollamaError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, apiErr.Error)
		}
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var apiResp ollamaResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}

	return strings.TrimSpace(apiResp.Response), nil
}
