package chain

import "github.com/c360studio/chainflow/tree"

// CallResult is the immutable outcome of one chain step. Results are
// appended to an ordered list as the chain executes; CallIndex equals the
// position of production, so later steps reference results positionally.
// A failed step still occupies its index.
type CallResult struct {
	// CallIndex is the step position that produced this result.
	CallIndex int `json:"call_index"`

	// Success reports whether the step completed.
	Success bool `json:"success"`

	// RawText is the unparsed model output for text services.
	RawText string `json:"raw_text,omitempty"`

	// ParsedResult is the JSON tree extracted from RawText, nil when no
	// JSON was found.
	ParsedResult tree.Object `json:"parsed_result,omitempty"`

	// ImageB64 is the base64-encoded image for image-out services.
	ImageB64 string `json:"image_b64,omitempty"`

	// ImageMimeType is the MIME type of ImageB64.
	ImageMimeType string `json:"image_mime_type,omitempty"`

	// Error holds the failure message for unsuccessful steps.
	Error string `json:"error,omitempty"`
}

// MergeResults folds tree.Merge left-to-right over every successful result
// that carries a parsed tree. Merge order equals call order, so a later
// successful call's scalar fields win ties over earlier ones. Failed or
// empty results are skipped, never discarded from the result list itself.
func MergeResults(results []CallResult) tree.Object {
	merged := tree.Object{}
	for _, res := range results {
		if !res.Success || res.ParsedResult == nil {
			continue
		}
		merged = tree.Merge(merged, res.ParsedResult)
	}
	return merged
}
