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

const defaultOllamaModel = "llama3.2"

func init() {
	// Ollama is a local backend with no credentials; register it whenever a
	// host is configured.
	if os.Getenv("OLLAMA_HOST") != "" {
		provider.Default().Register(NewOllama())
	}
}

// Ollama handles text_text through the OpenAI-compatible API exposed by
// Ollama, vLLM, and similar local backends.
type Ollama struct {
	provider.Unsupported
	client  *http.Client
	baseURL string
}

// NewOllama creates the Ollama handler. OLLAMA_HOST overrides the default
// local endpoint.
func NewOllama() *Ollama {
	baseURL := os.Getenv("OLLAMA_HOST")
	if baseURL == "" {
		baseURL = "http://localhost:11434/v1"
	}
	return &Ollama{
		client:  newHTTPClient(),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// Name returns the provider identifier.
func (o *Ollama) Name() string {
	return "ollama"
}

// Capabilities returns the supported service types.
func (o *Ollama) Capabilities() []provider.ServiceType {
	return []provider.ServiceType{provider.ServiceTextText}
}

// TextText performs a chat completion against the OpenAI-compatible
// endpoint.
func (o *Ollama) TextText(ctx context.Context, req *provider.Request) (*provider.Result, error) {
	model := req.Model
	if model == "" {
		model = defaultOllamaModel
	}

	messages := buildChatMessages(req.System, chatMessage{Role: "user", Content: req.Prompt})
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
		return nil, fmt.Errorf("build ollama request: %w", err)
	}

	data, err := postJSON(ctx, o.client, o.Name(), o.baseURL+"/chat/completions", nil, body)
	if err != nil {
		return nil, err
	}

	var resp chatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse ollama response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("ollama response has no choices")
	}
	return &provider.Result{Text: resp.Choices[0].Message.Content, Model: resp.Model}, nil
}
