package claims

import "strings"

// MaxMessages caps the msgs history. The provider bounds the serialized
// custom-claims blob, so the history stays short and the oldest entries are
// evicted first.
const MaxMessages = 20

// History is a fixed-capacity, append-ordered message list with oldest-first
// eviction.
type History struct {
	entries  []string
	capacity int
}

// NewHistory builds a history over existing entries, trimming to capacity
// (oldest dropped) if the stored list somehow grew beyond it.
func NewHistory(capacity int, existing []string) *History {
	if capacity <= 0 {
		capacity = MaxMessages
	}
	entries := append([]string(nil), existing...)
	if len(entries) > capacity {
		entries = entries[len(entries)-capacity:]
	}
	return &History{entries: entries, capacity: capacity}
}

// Append adds a message, evicting the oldest entries to stay within capacity.
func (h *History) Append(msg string) {
	h.entries = append(h.entries, msg)
	if len(h.entries) > h.capacity {
		h.entries = h.entries[len(h.entries)-h.capacity:]
	}
}

// RemoveCategory drops every message starting with the given prefix, so a
// frequently toggled preference keeps only its latest entry.
func (h *History) RemoveCategory(prefix string) {
	if prefix == "" {
		return
	}
	kept := h.entries[:0]
	for _, m := range h.entries {
		if !strings.HasPrefix(m, prefix) {
			kept = append(kept, m)
		}
	}
	h.entries = kept
}

// Len returns the number of retained messages.
func (h *History) Len() int {
	return len(h.entries)
}

// Entries returns the retained messages, oldest first.
func (h *History) Entries() []string {
	return append([]string(nil), h.entries...)
}
