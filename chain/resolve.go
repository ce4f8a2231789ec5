package chain

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/c360studio/chainflow/tree"
)

// ErrUnresolved marks soft resolution failures: the field could not be
// resolved but the step proceeds with whatever did resolve. Malformed
// paths, references to failed calls, and missing values all land here.
var ErrUnresolved = errors.New("field unresolved")

// ReferenceError reports a path that references a future, self, or absent
// call index. Unlike soft failures this always surfaces as an error: it
// indicates a bug in the caller-authored chain definition, since a step can
// only see results produced strictly before it.
type ReferenceError struct {
	// Path is the offending path expression.
	Path string

	// Index is the referenced call index.
	Index int

	// Available is the number of results produced so far.
	Available int
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("path %q references call %d but only %d prior result(s) exist",
		e.Path, e.Index, e.Available)
}

// Top-level result fields addressable by single-segment paths without going
// through the parsed tree.
const (
	fieldImageB64      = "image_b64"
	fieldImageMimeType = "image_mime_type"
	fieldRawText       = "raw_text"
)

// Resolver resolves field and variable definitions against the results of
// earlier chain calls.
type Resolver struct {
	logger *slog.Logger
}

// NewResolver creates a resolver. A nil logger uses slog.Default().
func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{logger: logger}
}

// ResolveField resolves one field definition against prior results.
//
// Direct definitions return their value verbatim. Call-chain definitions
// parse the path and read from the referenced result: a malformed path or a
// reference to a failed call resolves to ErrUnresolved (soft), while an
// out-of-range index returns a *ReferenceError (hard). Single-segment paths
// image_b64, image_mime_type, and raw_text read top-level result fields;
// anything else extracts from the parsed tree.
func (r *Resolver) ResolveField(def FieldDef, prior []CallResult) (string, error) {
	switch def.Kind {
	case FieldDirect:
		return def.Value, nil
	case FieldCallChain:
		return r.resolveChainField(def.Value, prior)
	default:
		return "", fmt.Errorf("%w: unknown field kind %q", ErrUnresolved, def.Kind)
	}
}

func (r *Resolver) resolveChainField(path string, prior []CallResult) (string, error) {
	parsed, err := ParseCallPath(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnresolved, err)
	}

	if parsed.Index >= len(prior) {
		return "", &ReferenceError{Path: path, Index: parsed.Index, Available: len(prior)}
	}

	result := prior[parsed.Index]
	if !result.Success {
		r.logger.Warn("path references failed call",
			slog.String("path", path),
			slog.Int("call_index", parsed.Index))
		return "", fmt.Errorf("%w: call %d did not succeed", ErrUnresolved, parsed.Index)
	}

	if len(parsed.Segments) == 1 {
		switch parsed.Segments[0] {
		case fieldImageB64:
			return nonEmpty(result.ImageB64, path)
		case fieldImageMimeType:
			return nonEmpty(result.ImageMimeType, path)
		case fieldRawText:
			return nonEmpty(result.RawText, path)
		}
	}

	if result.ParsedResult == nil {
		return "", fmt.Errorf("%w: call %d produced no parsed result", ErrUnresolved, parsed.Index)
	}
	value, ok := tree.Extract(result.ParsedResult, parsed.Segments)
	if !ok {
		return "", fmt.Errorf("%w: path %q not found in call %d result", ErrUnresolved, path, parsed.Index)
	}
	return value, nil
}

func nonEmpty(value, path string) (string, error) {
	if value == "" {
		return "", fmt.Errorf("%w: %q is empty", ErrUnresolved, path)
	}
	return value, nil
}

// BuildVariables resolves each variable definition independently and
// returns the name-to-value mapping wrapped in a single-element slice (the
// "variables array" wire shape), or an empty slice when nothing resolved.
// Definitions that fail to resolve, and definitions missing a
// variable_name, are dropped with a warning; the step proceeds with the
// subset that resolved. Reference errors are logged at error level since
// they indicate a chain definition bug, but still only drop the one
// variable.
func (r *Resolver) BuildVariables(defs []FieldDef, prior []CallResult) []map[string]string {
	vars := make(map[string]string)
	for _, def := range defs {
		if def.VariableName == "" {
			r.logger.Warn("dropping variable definition without variable_name",
				slog.String("value", def.Value))
			continue
		}

		value, err := r.ResolveField(def, prior)
		if err != nil {
			var refErr *ReferenceError
			if errors.As(err, &refErr) {
				r.logger.Error("invalid reference in variable definition",
					slog.String("variable", def.VariableName),
					slog.String("error", err.Error()))
			} else {
				r.logger.Warn("dropping unresolved variable",
					slog.String("variable", def.VariableName),
					slog.String("error", err.Error()))
			}
			continue
		}
		vars[def.VariableName] = value
	}

	if len(vars) == 0 {
		return []map[string]string{}
	}
	return []map[string]string{vars}
}

// Image is a resolved input image.
type Image struct {
	B64      string
	MimeType string
}

// ResolveImage resolves an image definition. Both the data field and the
// MIME-type field must resolve; a partial image is not a valid image, so
// any failure returns nil.
func (r *Resolver) ResolveImage(def *ImageDef, prior []CallResult) *Image {
	if def == nil {
		return nil
	}

	data, err := r.ResolveField(def.Data, prior)
	if err != nil {
		r.logger.Warn("image data did not resolve", slog.String("error", err.Error()))
		return nil
	}
	mimeType, err := r.ResolveField(def.MimeType, prior)
	if err != nil {
		r.logger.Warn("image mime type did not resolve", slog.String("error", err.Error()))
		return nil
	}
	return &Image{B64: data, MimeType: mimeType}
}
