package timeline

import (
	"sort"
	"time"
)

// Entry is one milestone in an entity's history.
type Entry struct {
	// Status is the status the entity entered, or the status it held when a
	// non-status event (tracking issuance, restore) was recorded.
	Status string `json:"status"`
	// Location is where the milestone happened, when known.
	Location string `json:"location,omitempty"`
	// Description is a free text note shown to the customer.
	Description string `json:"description,omitempty"`
	// ActorID identifies who caused the milestone.
	ActorID string `json:"actor_id"`
	// Timestamp is when the milestone was recorded.
	Timestamp time.Time `json:"timestamp"`
}

// Timeline is an append-only list of entries in insertion order.
type Timeline []Entry

// Append adds an entry at the end. Existing entries are never touched.
func (t *Timeline) Append(e Entry) {
	*t = append(*t, e)
}

// Len returns the number of entries.
func (t Timeline) Len() int {
	return len(t)
}

// Latest returns the most recently appended entry.
func (t Timeline) Latest() (Entry, bool) {
	if len(t) == 0 {
		return Entry{}, false
	}
	return t[len(t)-1], true
}

// SortedDesc returns a copy ordered newest first. Entries with equal timestamps
// keep reverse insertion order so the later one is shown first.
func (t Timeline) SortedDesc() []Entry {
	out := make([]Entry, len(t))
	for i := range t {
		out[len(t)-1-i] = t[i]
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// Clone returns an independent copy.
func (t Timeline) Clone() Timeline {
	if t == nil {
		return nil
	}
	out := make(Timeline, len(t))
	copy(out, t)
	return out
}
