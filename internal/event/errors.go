package event

import "fmt"

// DateFormatError is returned when a date string matches none of the
// supported notations.
type DateFormatError struct {
	Text string
	Err  error
}

func (e *DateFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unrecognised date %q: %v", e.Text, e.Err)
	}
	return fmt.Sprintf("unrecognised date %q", e.Text)
}

func (e *DateFormatError) Unwrap() error {
	return e.Err
}

// StructureError is returned when a query that must select exactly one node
// selects none or several. It usually means the page markup has changed.
type StructureError struct {
	Query string
	Count int
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("query %q matched %d nodes, want exactly 1", e.Query, e.Count)
}
