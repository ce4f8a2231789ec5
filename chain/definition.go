package chain

import (
	"encoding/json"
	"fmt"

	"github.com/c360studio/chainflow/provider"
)

// FieldKind discriminates the two resolution strategies for a field
// definition.
type FieldKind string

const (
	// FieldDirect resolves to the literal value.
	FieldDirect FieldKind = "direct"

	// FieldCallChain resolves through a call[N].path expression against an
	// earlier call's result.
	FieldCallChain FieldKind = "call_chain"
)

// FieldDef defines how one field resolves: either a literal value or a
// path expression into a prior call result. Decoded from the wire shape
// {match_type, value, variable_name?}; call_chain values are validated
// against the path grammar at decode time.
type FieldDef struct {
	Kind  FieldKind
	Value string

	// VariableName names the variable this definition populates. Required
	// on variable definitions, unused on plain field definitions.
	VariableName string
}

// fieldDefWire is the JSON wire shape for field and variable definitions.
type fieldDefWire struct {
	MatchType    string `json:"match_type"`
	Value        string `json:"value"`
	VariableName string `json:"variable_name,omitempty"`
}

// UnmarshalJSON decodes and validates the wire shape.
func (f *FieldDef) UnmarshalJSON(data []byte) error {
	var wire fieldDefWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	kind := FieldKind(wire.MatchType)
	switch kind {
	case FieldDirect:
	case FieldCallChain:
		if _, err := ParseCallPath(wire.Value); err != nil {
			return fmt.Errorf("call_chain value: %w", err)
		}
	default:
		return fmt.Errorf("unknown match_type %q", wire.MatchType)
	}

	f.Kind = kind
	f.Value = wire.Value
	f.VariableName = wire.VariableName
	return nil
}

// MarshalJSON encodes back to the wire shape.
func (f FieldDef) MarshalJSON() ([]byte, error) {
	return json.Marshal(fieldDefWire{
		MatchType:    string(f.Kind),
		Value:        f.Value,
		VariableName: f.VariableName,
	})
}

// Direct returns a direct-value field definition.
func Direct(value string) FieldDef {
	return FieldDef{Kind: FieldDirect, Value: value}
}

// ChainRef returns a call_chain field definition.
func ChainRef(path string) FieldDef {
	return FieldDef{Kind: FieldCallChain, Value: path}
}

// ImageDef resolves an input image for image-in services: both the image
// data and its MIME type must resolve or the image is not usable at all.
type ImageDef struct {
	Data     FieldDef `json:"image_data"`
	MimeType FieldDef `json:"image_mime_type"`
}

// CallDef defines one chain step.
type CallDef struct {
	// PromptArea and PromptKey select the prompt template for this step.
	PromptArea FieldDef `json:"prompt_area"`
	PromptKey  FieldDef `json:"prompt_key"`

	// Provider names the backend for this step. Empty uses the registry's
	// primary provider.
	Provider string `json:"provider,omitempty"`

	// ServiceType is the service to invoke. Empty defaults to text_text.
	ServiceType provider.ServiceType `json:"service_type,omitempty"`

	// Variables resolve into the prompt template before dispatch.
	Variables []FieldDef `json:"variables,omitempty"`

	// Image supplies the input image for image-in services.
	Image *ImageDef `json:"image,omitempty"`
}

// DecodeChain decodes a chain definition from its JSON array wire shape,
// validating each step. Errors reference the offending step index.
func DecodeChain(data []byte) ([]CallDef, error) {
	var defs []CallDef
	if err := json.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("decode chain definition: %w", err)
	}
	for i := range defs {
		if err := validateCallDef(&defs[i]); err != nil {
			return nil, fmt.Errorf("chain step %d: %w", i, err)
		}
	}
	return defs, nil
}

func validateCallDef(def *CallDef) error {
	if def.PromptArea.Kind == "" {
		return fmt.Errorf("prompt_area is required")
	}
	if def.PromptKey.Kind == "" {
		return fmt.Errorf("prompt_key is required")
	}
	if def.ServiceType == "" {
		def.ServiceType = provider.ServiceTextText
	}
	if !def.ServiceType.IsValid() {
		return fmt.Errorf("unknown service_type %q", def.ServiceType)
	}
	// Variable definitions without a variable_name are tolerated here and
	// dropped with a warning at build time; they can never bind a variable.
	return nil
}
