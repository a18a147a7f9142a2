package event

import (
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Symbol marks the direction of a Change.
type Symbol byte

const (
	Added   Symbol = '+'
	Removed Symbol = '-'
)

func (s Symbol) String() string {
	return string(s)
}

// MarshalText implements encoding.TextMarshaler.
func (s Symbol) MarshalText() ([]byte, error) {
	return []byte{byte(s)}, nil
}

// Change is one event that differs between a fresh listing and its snapshot.
type Change struct {
	Symbol Symbol `json:"symbol"`
	Event  Event  `json:"event"`
}

// Diff compares a freshly fetched listing against the cached one. Events only
// in current are Added, events only in cached are Removed. The result is
// ordered by Event.Compare and is empty iff both listings are set-equal.
// A nil listing counts as empty.
func Diff(current, cached *Listing) []Change {
	added := current.Difference(cached)
	removed := cached.Difference(current)

	changes := make([]Change, 0, len(added)+len(removed))
	for _, evt := range added {
		changes = append(changes, Change{Symbol: Added, Event: evt})
	}
	for _, evt := range removed {
		changes = append(changes, Change{Symbol: Removed, Event: evt})
	}

	slices.SortFunc(changes, func(a, b Change) int {
		return a.Event.Compare(b.Event)
	})
	return changes
}

// SubjectChanges is the change-set of one subject.
type SubjectChanges struct {
	Subject string   `json:"subject"`
	Changes []Change `json:"changes"`
}

// LineStyle decorates a rendered report line. A nil LineStyle leaves lines
// untouched.
type LineStyle func(sym Symbol, line string) string

// WriteReport renders change-sets one block per subject, in subject order.
// A block is a "==> subject" header, a blank line, one line per change and a
// closing blank line. Subjects without changes are omitted. Names are padded
// to the widest name of the whole report.
func WriteReport(w io.Writer, sets []SubjectChanges, style LineStyle) error {
	sorted := slices.Clone(sets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Subject < sorted[j].Subject
	})

	var all []Event
	for _, set := range sorted {
		for _, c := range set.Changes {
			all = append(all, c.Event)
		}
	}
	width := NameWidth(all)

	for _, set := range sorted {
		if len(set.Changes) == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "==> %s\n\n", set.Subject); err != nil {
			return err
		}
		for _, c := range set.Changes {
			line := FormatLine(c.Symbol.String(), c.Event, width)
			if style != nil {
				line = style(c.Symbol, line)
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

// FormatLine renders "{prefix}{date}  {name padded to width}  {address}".
func FormatLine(prefix string, evt Event, width int) string {
	pad := max(width-lipgloss.Width(evt.Name), 0)
	return fmt.Sprintf("%s%s  %s%s  %s", prefix, evt.Date, evt.Name, strings.Repeat(" ", pad), evt.Address)
}

// NameWidth returns the widest display width among the names of events.
func NameWidth(events []Event) int {
	width := 0
	for _, evt := range events {
		width = max(width, lipgloss.Width(evt.Name))
	}
	return width
}
