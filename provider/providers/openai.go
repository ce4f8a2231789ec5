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

const (
	defaultOpenAITextModel  = "gpt-4o-mini"
	defaultOpenAIImageModel = "gpt-image-1"
)

func init() {
	if os.Getenv("OPENAI_API_KEY") != "" {
		provider.Default().Register(NewOpenAI())
	}
}

// OpenAI handles text_text and image_text through the chat completions API
// and text_image through the images API.
type OpenAI struct {
	provider.Unsupported
	client  *http.Client
	baseURL string
}

// NewOpenAI creates the OpenAI handler. OPENAI_BASE_URL overrides the API
// endpoint, which also covers OpenAI-compatible gateways.
func NewOpenAI() *OpenAI {
	baseURL := os.Getenv("OPENAI_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAI{
		client:  newHTTPClient(),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// Name returns the provider identifier.
func (o *OpenAI) Name() string {
	return "openai"
}

// Capabilities returns the supported service types.
func (o *OpenAI) Capabilities() []provider.ServiceType {
	return []provider.ServiceType{
		provider.ServiceTextText,
		provider.ServiceImageText,
		provider.ServiceTextImage,
	}
}

func (o *OpenAI) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + os.Getenv("OPENAI_API_KEY"),
	}
}

// chatMessage content is either a plain string or a part list; image-in
// calls use the part list form.
type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatContentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// TextText performs a chat completion.
func (o *OpenAI) TextText(ctx context.Context, req *provider.Request) (*provider.Result, error) {
	messages := buildChatMessages(req.System, chatMessage{Role: "user", Content: req.Prompt})
	return o.chat(ctx, req, messages)
}

// ImageText analyzes an input image, passed as a data URI content part.
func (o *OpenAI) ImageText(ctx context.Context, req *provider.Request) (*provider.Result, error) {
	if req.ImageB64 == "" || req.ImageMimeType == "" {
		return nil, fmt.Errorf("image_text requires image data and mime type")
	}
	dataURI := fmt.Sprintf("data:%s;base64,%s", req.ImageMimeType, req.ImageB64)
	user := chatMessage{
		Role: "user",
		Content: []chatContentPart{
			{Type: "image_url", ImageURL: &chatImageURL{URL: dataURI}},
			{Type: "text", Text: req.Prompt},
		},
	}
	return o.chat(ctx, req, buildChatMessages(req.System, user))
}

func buildChatMessages(system string, user chatMessage) []chatMessage {
	var messages []chatMessage
	if system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	return append(messages, user)
}

func (o *OpenAI) chat(ctx context.Context, req *provider.Request, messages []chatMessage) (*provider.Result, error) {
	model := req.Model
	if model == "" {
		model = defaultOpenAITextModel
	}
	creq := chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Temperature,
	}
	if req.MaxTokens > 0 {
		creq.MaxTokens = &req.MaxTokens
	}

	body, err := json.Marshal(creq)
	if err != nil {
		return nil, fmt.Errorf("build openai request: %w", err)
	}

	data, err := postJSON(ctx, o.client, o.Name(), o.baseURL+"/chat/completions", o.headers(), body)
	if err != nil {
		return nil, err
	}

	var resp chatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse openai response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai response has no choices")
	}
	return &provider.Result{Text: resp.Choices[0].Message.Content, Model: resp.Model}, nil
}

type imageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
}

type imageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

// TextImage generates an image from the prompt text.
func (o *OpenAI) TextImage(ctx context.Context, req *provider.Request) (*provider.Result, error) {
	model := req.Model
	if model == "" {
		model = defaultOpenAIImageModel
	}

	body, err := json.Marshal(imageRequest{Model: model, Prompt: req.Prompt, N: 1})
	if err != nil {
		return nil, fmt.Errorf("build openai image request: %w", err)
	}

	data, err := postJSON(ctx, o.client, o.Name(), o.baseURL+"/images/generations", o.headers(), body)
	if err != nil {
		return nil, err
	}

	var resp imageResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse openai image response: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai image response has no data")
	}
	return &provider.Result{
		ImageB64:      resp.Data[0].B64JSON,
		ImageMimeType: "image/png",
		Model:         model,
	}, nil
}
