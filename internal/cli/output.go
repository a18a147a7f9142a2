package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/pfrederiksen/tour-snoop/internal/event"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// OutputResult contains data to be output
type OutputResult struct {
	CheckedAt   time.Time              `json:"checked_at"`
	Subjects    []event.SubjectChanges `json:"subjects"`
	Unknown     []string               `json:"unknown,omitempty"`
	Failed      map[string]string      `json:"failed,omitempty"`
	ChangeCount int                    `json:"change_count"`
}

// WriteOutput writes the result in the specified format. style only applies
// to text output.
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, style event.LineStyle) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return event.WriteReport(w, result.Subjects, style)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// lineStyle colours added lines green and removed lines red. In auto mode
// colour is only used when w is a terminal.
func lineStyle(w io.Writer, mode string) event.LineStyle {
	if mode == "never" {
		return nil
	}

	r := lipgloss.NewRenderer(w)
	switch mode {
	case "always":
		r.SetColorProfile(termenv.ANSI)
	default:
		if r.ColorProfile() == termenv.Ascii {
			return nil
		}
	}

	added := r.NewStyle().Foreground(lipgloss.Color("2"))
	removed := r.NewStyle().Foreground(lipgloss.Color("1"))
	return func(sym event.Symbol, line string) string {
		if sym == event.Added {
			return added.Render(line)
		}
		return removed.Render(line)
	}
}
