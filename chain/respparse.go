package chain

import (
	"regexp"
	"strings"

	"github.com/c360studio/chainflow/tree"
)

// Models frequently wrap valid JSON in prose or markdown fences, so raw
// output is run through an ordered list of extraction strategies; the first
// one that yields a parseable object wins and later strategies never run.
// Each strategy swallows its own parse failure.
var extractStrategies = []func(string) (tree.Object, bool){
	extractDirect,
	extractFenced,
	extractBraceSpan,
}

// fencedBlockPattern matches the first markdown code block, labeled json or
// unlabeled.
var fencedBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)```")

// ParseResponse extracts a JSON object from free-form model text. Returns
// ok=false only when every strategy fails.
func ParseResponse(raw string) (tree.Object, bool) {
	for _, strategy := range extractStrategies {
		if obj, ok := strategy(raw); ok {
			return obj, true
		}
	}
	return nil, false
}

// extractDirect parses the entire text as JSON.
func extractDirect(raw string) (tree.Object, bool) {
	obj, err := tree.DecodeObject([]byte(strings.TrimSpace(raw)))
	if err != nil {
		return nil, false
	}
	return obj, true
}

// extractFenced parses the inner text of the first fenced code block.
func extractFenced(raw string) (tree.Object, bool) {
	matches := fencedBlockPattern.FindStringSubmatch(raw)
	if matches == nil {
		return nil, false
	}
	obj, err := tree.DecodeObject([]byte(strings.TrimSpace(matches[1])))
	if err != nil {
		return nil, false
	}
	return obj, true
}

// extractBraceSpan parses the substring between the first '{' and the last
// '}'.
func extractBraceSpan(raw string) (tree.Object, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, false
	}
	obj, err := tree.DecodeObject([]byte(raw[start : end+1]))
	if err != nil {
		return nil, false
	}
	return obj, true
}
