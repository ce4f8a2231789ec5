// Package prompt provides prompt template lookup with a cascading locale
// fallback over a backing store, fronted by a TTL/LRU cache.
package prompt

import (
	"strings"
	"time"
)

// Record is a stored prompt template. Local1..Local3 are optional
// locale/segmentation filters forming a specificity hierarchy (3 > 2 > 1 >
// none); an empty string means the filter is unset.
type Record struct {
	ID        string    `json:"id"`
	Area      string    `json:"prompt_area"`
	Key       string    `json:"prompt_key"`
	Local1    string    `json:"local_1,omitempty"`
	Local2    string    `json:"local_2,omitempty"`
	Local3    string    `json:"local_3,omitempty"`
	Text      string    `json:"prompt_text"`
	Variables []string  `json:"prompt_variables,omitempty"`
	Notes     string    `json:"prompt_notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ChangedAt time.Time `json:"changed_at"`
}

// Render substitutes {{name}} placeholders in the template text with the
// given variable values. Unknown placeholders are left in place so a
// missing variable is visible in the rendered output rather than silently
// blanked.
func (r *Record) Render(vars map[string]string) string {
	if len(vars) == 0 {
		return r.Text
	}
	pairs := make([]string, 0, len(vars)*2)
	for name, value := range vars {
		pairs = append(pairs, "{{"+name+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(r.Text)
}

// Locals holds up to three ordered specificity filters for prompt lookup.
// Local2 is only meaningful when Local1 is set, and Local3 only when both
// are set.
type Locals struct {
	Local1 string
	Local2 string
	Local3 string
}
