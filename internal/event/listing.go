package event

import (
	"encoding/json"
	"slices"
)

// Listing is the set of events known for one subject.
type Listing struct {
	events map[Event]struct{}
}

// NewListing returns a Listing holding events.
func NewListing(events ...Event) *Listing {
	l := &Listing{events: make(map[Event]struct{}, len(events))}
	for _, evt := range events {
		l.Add(evt)
	}
	return l
}

// Add inserts evt; adding an event already present is a no-op.
func (l *Listing) Add(evt Event) {
	if l.events == nil {
		l.events = make(map[Event]struct{})
	}
	l.events[evt] = struct{}{}
}

// Contains reports whether evt is in the listing.
func (l *Listing) Contains(evt Event) bool {
	if l == nil {
		return false
	}
	_, ok := l.events[evt]
	return ok
}

// Len returns the number of distinct events.
func (l *Listing) Len() int {
	if l == nil {
		return 0
	}
	return len(l.events)
}

// Events returns the events in Event.Compare order.
func (l *Listing) Events() []Event {
	if l == nil {
		return []Event{}
	}
	out := make([]Event, 0, len(l.events))
	for evt := range l.events {
		out = append(out, evt)
	}
	slices.SortFunc(out, Event.Compare)
	return out
}

// Difference returns the events of l that are not in other.
func (l *Listing) Difference(other *Listing) []Event {
	var out []Event
	if l == nil {
		return out
	}
	for evt := range l.events {
		if !other.Contains(evt) {
			out = append(out, evt)
		}
	}
	return out
}

// Equal reports whether both listings hold the same events.
func (l *Listing) Equal(other *Listing) bool {
	if l.Len() != other.Len() {
		return false
	}
	return len(l.Difference(other)) == 0
}

// MarshalJSON encodes the listing as a sorted array of event triples.
func (l *Listing) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Events())
}

// UnmarshalJSON decodes an array of event triples. Duplicate triples
// collapse into one event.
func (l *Listing) UnmarshalJSON(data []byte) error {
	var events []Event
	if err := json.Unmarshal(data, &events); err != nil {
		return err
	}
	*l = *NewListing(events...)
	return nil
}

// Assemble merges the events of several documents of one subject into a
// single Listing. Events repeated across documents appear once.
func Assemble(collections ...[]Event) *Listing {
	l := NewListing()
	for _, events := range collections {
		for _, evt := range events {
			l.Add(evt)
		}
	}
	return l
}
