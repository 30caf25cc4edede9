package vlm

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/veridict/internal/model"
)

// OpenAICaptioner implements the Captioner interface over OpenAI's vision
// models.
type OpenAICaptioner struct {
	client *openai.Client
	config Config
}

// NewOpenAICaptioner creates a new OpenAI captioner
func NewOpenAICaptioner(config Config) (*OpenAICaptioner, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAICaptioner{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the captioner name
func (c *OpenAICaptioner) Name() string {
	return "openai"
}

// IsAvailable checks if the captioner is properly configured
func (c *OpenAICaptioner) IsAvailable(ctx context.Context) bool {
	_, err := c.client.ListModels(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "OpenAI API check failed: %v\n", err)
		return false
	}
	return true
}

// Caption asks the vision model for the structured attribute schema and
// parses its answer. Fields the model cannot determine come back Unknown.
func (c *OpenAICaptioner) Caption(ctx context.Context, imagePath string) (model.VisualAttributes, error) {
	imageURI, err := encodeImage(imagePath)
	if err != nil {
		return model.UnknownAttributes(), err
	}

	chatModel := c.config.Model
	if chatModel == "" {
		chatModel = openai.GPT4oMini
	}

	timeout := time.Duration(c.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: chatModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: captionPrompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    imageURI,
							Detail: openai.ImageURLDetailLow,
						},
					},
				},
			},
		},
		MaxTokens:   200,
		Temperature: 0, // deterministic attribute extraction
	}

	resp, err := c.client.CreateChatCompletion(ctxWithTimeout, req)
	if err != nil {
		return model.UnknownAttributes(), fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return model.UnknownAttributes(), fmt.Errorf("no response from OpenAI")
	}

	return ParseCaption(resp.Choices[0].Message.Content), nil
}
