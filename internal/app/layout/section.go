/*
Package layout defines the page layout model and its draft store.

A page's layout is an ordered list of sections. The collaboration
protocol only ever transmits and persists the whole list; receivers
install it wholesale and never merge at the field level.
*/
package layout

// Section is one block of a page layout.
type Section struct {
	// ID is unique and stable within its page.
	ID string `json:"id"`

	// Type names the section kind (hero, gallery, pricing, ...). The
	// rendering layer owns the vocabulary; this engine relays it opaquely.
	Type string `json:"type"`

	// Position is the section's ordinal within the page.
	Position int `json:"position"`

	// Props is the free-form property bag of the section.
	Props map[string]any `json:"props,omitempty"`
}

// CloneSections deep-copies a section list. Snapshots and rollback
// results must never alias live drafts.
func CloneSections(sections []Section) []Section {
	if sections == nil {
		return nil
	}

	out := make([]Section, len(sections))
	for i, s := range sections {
		out[i] = s
		out[i].Props = cloneValue(s.Props).(map[string]any)
		if s.Props == nil {
			out[i].Props = nil
		}
	}
	return out
}

// cloneValue deep-copies the JSON-shaped values a property bag may hold.
func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		if val == nil {
			return map[string]any(nil)
		}
		m := make(map[string]any, len(val))
		for k, item := range val {
			m[k] = cloneValue(item)
		}
		return m
	case []any:
		s := make([]any, len(val))
		for i, item := range val {
			s[i] = cloneValue(item)
		}
		return s
	default:
		return v
	}
}
