package status

import (
	"strings"

	"golang.org/x/exp/slices"
)

// Request is the decoded JSON body of a status query. Only the
// configuration array is meaningful; other body keys are ignored.
type Request struct {
	Configuration []string `json:"configuration"`
}

// FieldSet is the caller-requested subset of status fields. The zero
// value selects every field: both an absent filter and an explicitly
// empty one collapse to "all", so callers cannot request zero fields.
type FieldSet struct {
	keys []string
}

// ResolveFieldSet derives the requested field set from the two possible
// sources. A non-empty "configuration" query parameter wins: it is split
// on commas and each element trimmed. Otherwise a body with a
// configuration array supplies the set. Otherwise the set is unresolved,
// which selects everything.
func ResolveFieldSet(queryParam string, body *Request) FieldSet {
	if queryParam != "" {
		parts := strings.Split(queryParam, ",")
		keys := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				keys = append(keys, p)
			}
		}
		return FieldSet{keys: keys}
	}
	if body != nil && body.Configuration != nil {
		return FieldSet{keys: body.Configuration}
	}
	return FieldSet{}
}

// All reports whether the set selects every field.
func (f FieldSet) All() bool {
	return len(f.keys) == 0
}

// Has reports whether the given field is selected. Every field is
// selected when the set is "all". Names that match no known field are
// legal; they simply never produce output.
func (f FieldSet) Has(key string) bool {
	return f.All() || slices.Contains(f.keys, key)
}
