package event

import (
	"cmp"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// AddressSeparator joins address fragments taken from separate elements.
const AddressSeparator = ", "

// Event is one tour date. Two events are the same occurrence iff all three
// fields are equal, so Event is usable directly as a map key.
type Event struct {
	Date    Date
	Name    string
	Address string
}

// RawCandidate is the text an extractor pulled out of one event node,
// before normalisation.
type RawCandidate struct {
	DateText     string
	Name         string
	AddressParts []string
}

// Compare orders events by date, then name, then address.
func (e Event) Compare(other Event) int {
	if c := e.Date.Compare(other.Date); c != 0 {
		return c
	}
	if c := cmp.Compare(e.Name, other.Name); c != 0 {
		return c
	}
	return cmp.Compare(e.Address, other.Address)
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s %s", e.Date, e.Name, e.Address)
}

// MarshalJSON encodes the event as a ["YYYY-MM-DD", name, address] triple.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]string{e.Date.String(), e.Name, e.Address})
}

// UnmarshalJSON decodes a ["YYYY-MM-DD", name, address] triple.
func (e *Event) UnmarshalJSON(data []byte) error {
	var triple []string
	if err := json.Unmarshal(data, &triple); err != nil {
		return fmt.Errorf("decoding event: %w", err)
	}
	if len(triple) != 3 {
		return fmt.Errorf("decoding event: expected 3 fields, got %d", len(triple))
	}
	d, err := ParseISODate(triple[0])
	if err != nil {
		return fmt.Errorf("decoding event: %w", err)
	}
	*e = Event{Date: d, Name: canonical(triple[1]), Address: canonical(triple[2])}
	return nil
}

// Normalize turns a RawCandidate into an Event. Name and address fragments
// are trimmed and put into NFC form; empty values are kept as they are.
func Normalize(raw RawCandidate, referenceYear int) (Event, error) {
	d, err := ParseDate(raw.DateText, referenceYear)
	if err != nil {
		return Event{}, err
	}

	parts := make([]string, 0, len(raw.AddressParts))
	for _, p := range raw.AddressParts {
		if p = canonical(p); p != "" {
			parts = append(parts, p)
		}
	}

	return Event{
		Date:    d,
		Name:    canonical(raw.Name),
		Address: strings.Join(parts, AddressSeparator),
	}, nil
}

// NormalizeAll normalises every candidate and returns them as a Listing. The
// first failing candidate aborts the whole batch.
func NormalizeAll(raws []RawCandidate, referenceYear int) (*Listing, error) {
	l := NewListing()
	for i, raw := range raws {
		evt, err := Normalize(raw, referenceYear)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		l.Add(evt)
	}
	return l, nil
}

func canonical(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
