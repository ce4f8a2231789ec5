package provider

import (
	"context"
	"fmt"
)

// Request carries the inputs for a single model call. Text services use
// Prompt and System; image-in services additionally use ImageB64 and
// ImageMimeType.
type Request struct {
	// Model is the backend model identifier. Empty uses the handler default.
	Model string

	// Prompt is the rendered prompt text.
	Prompt string

	// System is an optional system instruction.
	System string

	// ImageB64 is the base64-encoded input image for image-in services.
	ImageB64 string

	// ImageMimeType is the MIME type of the input image (e.g. "image/png").
	ImageMimeType string

	// Temperature controls randomness. nil uses the backend default.
	Temperature *float64

	// MaxTokens limits response length. 0 uses the backend default.
	MaxTokens int
}

// Result contains the output of a single model call.
type Result struct {
	// Text is the generated text for text-out services.
	Text string

	// ImageB64 is the base64-encoded generated image for image-out services.
	ImageB64 string

	// ImageMimeType is the MIME type of the generated image.
	ImageMimeType string

	// Model is the actual model that served the call.
	Model string
}

// Handler is the contract a model backend implements. One call method
// exists per service type; handlers embed Unsupported and override only the
// services they declare in Capabilities.
//
// Implementations must be safe for concurrent use and own their per-call
// timeouts. The engine treats a handler error as that step's failure.
type Handler interface {
	// Name returns the provider identifier (e.g. "anthropic", "openai").
	Name() string

	// Capabilities returns the service types this provider supports.
	Capabilities() []ServiceType

	// TextText performs text-in, text-out completion.
	TextText(ctx context.Context, req *Request) (*Result, error)

	// ImageText performs image-in, text-out analysis.
	ImageText(ctx context.Context, req *Request) (*Result, error)

	// TextImage performs text-in, image-out generation.
	TextImage(ctx context.Context, req *Request) (*Result, error)

	// ImageImage performs image-in, image-out transformation.
	ImageImage(ctx context.Context, req *Request) (*Result, error)
}

// Unsupported provides failing defaults for all service methods. Handlers
// embed it and override the services they actually support.
type Unsupported struct{}

func (Unsupported) TextText(context.Context, *Request) (*Result, error) {
	return nil, fmt.Errorf("%s not implemented", ServiceTextText)
}

func (Unsupported) ImageText(context.Context, *Request) (*Result, error) {
	return nil, fmt.Errorf("%s not implemented", ServiceImageText)
}

func (Unsupported) TextImage(context.Context, *Request) (*Result, error) {
	return nil, fmt.Errorf("%s not implemented", ServiceTextImage)
}

func (Unsupported) ImageImage(context.Context, *Request) (*Result, error) {
	return nil, fmt.Errorf("%s not implemented", ServiceImageImage)
}

// Invoke dispatches req to the handler method matching service.
func Invoke(ctx context.Context, h Handler, service ServiceType, req *Request) (*Result, error) {
	switch service {
	case ServiceTextText:
		return h.TextText(ctx, req)
	case ServiceImageText:
		return h.ImageText(ctx, req)
	case ServiceTextImage:
		return h.TextImage(ctx, req)
	case ServiceImageImage:
		return h.ImageImage(ctx, req)
	default:
		return nil, fmt.Errorf("unknown service type: %s", service)
	}
}
