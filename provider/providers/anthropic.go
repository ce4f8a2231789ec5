package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/c360studio/chainflow/provider"
)

// anthropicVersion is the API version to use.
const anthropicVersion = "2023-06-01"

// defaultAnthropicModel serves calls that name no model.
const defaultAnthropicModel = "claude-sonnet-4-20250514"

func init() {
	if os.Getenv("ANTHROPIC_API_KEY") != "" {
		provider.Default().Register(NewAnthropic())
	}
}

// Anthropic handles text_text and image_text calls against the Anthropic
// messages API.
type Anthropic struct {
	provider.Unsupported
	client  *http.Client
	baseURL string
}

// NewAnthropic creates the Anthropic handler. ANTHROPIC_BASE_URL overrides
// the API endpoint.
func NewAnthropic() *Anthropic {
	baseURL := os.Getenv("ANTHROPIC_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	return &Anthropic{
		client:  newHTTPClient(),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// Name returns the provider identifier.
func (a *Anthropic) Name() string {
	return "anthropic"
}

// Capabilities returns the supported service types.
func (a *Anthropic) Capabilities() []provider.ServiceType {
	return []provider.ServiceType{provider.ServiceTextText, provider.ServiceImageText}
}

// anthropicContent is one content block in a message. Text blocks carry
// Text; image blocks carry Source.
type anthropicContent struct {
	Type   string           `json:"type"`
	Text   string           `json:"text,omitempty"`
	Source *anthropicSource `json:"source,omitempty"`
}

type anthropicSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicMessage struct {
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	Temperature *float64           `json:"temperature,omitempty"`
}

type anthropicResponse struct {
	ID      string `json:"id"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
}

// TextText performs a text completion.
func (a *Anthropic) TextText(ctx context.Context, req *provider.Request) (*provider.Result, error) {
	content := []anthropicContent{{Type: "text", Text: req.Prompt}}
	return a.complete(ctx, req, content)
}

// ImageText analyzes an input image. The image travels as a base64 source
// block ahead of the prompt text.
func (a *Anthropic) ImageText(ctx context.Context, req *provider.Request) (*provider.Result, error) {
	if req.ImageB64 == "" || req.ImageMimeType == "" {
		return nil, fmt.Errorf("image_text requires image data and mime type")
	}
	content := []anthropicContent{
		{
			Type: "image",
			Source: &anthropicSource{
				Type:      "base64",
				MediaType: req.ImageMimeType,
				Data:      req.ImageB64,
			},
		},
		{Type: "text", Text: req.Prompt},
	}
	return a.complete(ctx, req, content)
}

func (a *Anthropic) complete(ctx context.Context, req *provider.Request, content []anthropicContent) (*provider.Result, error) {
	model := req.Model
	if model == "" {
		model = defaultAnthropicModel
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	body, err := json.Marshal(anthropicRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Messages:    []anthropicMessage{{Role: "user", Content: content}},
		System:      req.System,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("build anthropic request: %w", err)
	}

	headers := map[string]string{
		"x-api-key":         os.Getenv("ANTHROPIC_API_KEY"),
		"anthropic-version": anthropicVersion,
	}
	data, err := postJSON(ctx, a.client, a.Name(), a.baseURL+"/v1/messages", headers, body)
	if err != nil {
		return nil, err
	}

	var resp anthropicResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse anthropic response: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return &provider.Result{Text: text, Model: resp.Model}, nil
}
