// Package chain implements the chain resolution and dispatch engine:
// dependent model calls whose later steps reference fields produced by
// earlier steps through call[N].a.b.c path expressions, with results
// deep-merged into one tree.
package chain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// callPathPattern matches path expressions of the form call[N].a.b.c.
var callPathPattern = regexp.MustCompile(`^call\[(\d+)\]\.(.+)$`)

// CallPath is a parsed path expression: the index of an earlier call and
// the property path into its result. Segments cannot contain dots; the
// grammar offers no escaping (known limitation).
type CallPath struct {
	Index    int
	Segments []string
}

// ParseCallPath parses a call[N].a.b.c path expression. A string that does
// not match the grammar is a parse failure reported to the caller, never a
// panic; callers treat it as "resolution failed for this field" and keep
// processing other fields.
func ParseCallPath(s string) (CallPath, error) {
	matches := callPathPattern.FindStringSubmatch(s)
	if matches == nil {
		return CallPath{}, fmt.Errorf("invalid call path %q: expected call[N].property", s)
	}

	index, err := strconv.Atoi(matches[1])
	if err != nil {
		return CallPath{}, fmt.Errorf("invalid call index in %q: %w", s, err)
	}

	return CallPath{
		Index:    index,
		Segments: strings.Split(matches[2], "."),
	}, nil
}
