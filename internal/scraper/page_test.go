package scraper

import (
	"errors"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/pfrederiksen/tour-snoop/internal/event"
)

func parseFixture(t *testing.T, name string, ex Extractor, year int) (*Page, error) {
	t.Helper()
	f, err := os.Open("testdata/" + name)
	if err != nil {
		t.Fatalf("failed to open fixture: %v", err)
	}
	defer f.Close()
	return ParseDocument(f, ex, year)
}

func TestParseDocument(t *testing.T) {
	auto, err := ExtractorByName(StrategyAuto)
	if err != nil {
		t.Fatalf("ExtractorByName: %v", err)
	}

	tests := []struct {
		name         string
		fixture      string
		wantStrategy string
		wantEvents   []string
		wantYears    []int
	}{
		{
			name:         "microdata page with year index",
			fixture:      "microdata.html",
			wantStrategy: StrategyMicrodata,
			wantEvents: []string{
				"2024-01-10 Venue A 1 Main St, London",
				"2024-02-01 Venue B Berlin",
			},
			wantYears: []int{2024, 2025, 2023},
		},
		{
			name:         "span-prefixed page with comma dates",
			fixture:      "span_b.html",
			wantStrategy: StrategySpanB,
			wantEvents: []string{
				"2023-02-11 Warehouse Night Depot, Manchester",
				"2024-12-26 Boxing Day Session Venue A, London",
			},
		},
		{
			name:         "span-prefixed page with token dates",
			fixture:      "span_a.html",
			wantStrategy: StrategySpanA,
			wantEvents: []string{
				"2023-02-11 Warehouse Night Depot",
				"2023-03-03 Secret Location ",
				"2024-12-26 Boxing Day Session Venue A, London",
			},
		},
		{
			name:      "no events",
			fixture:   "empty.html",
			wantYears: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := parseFixture(t, tt.fixture, auto, 2024)
			if err != nil {
				t.Fatalf("ParseDocument failed: %v", err)
			}
			if page.Strategy != tt.wantStrategy {
				t.Errorf("Strategy = %q, want %q", page.Strategy, tt.wantStrategy)
			}

			var got []string
			for _, evt := range page.Events.Events() {
				got = append(got, evt.String())
			}
			if !reflect.DeepEqual(got, tt.wantEvents) {
				t.Errorf("events = %q, want %q", got, tt.wantEvents)
			}
			if !reflect.DeepEqual(page.Years, tt.wantYears) {
				t.Errorf("Years = %v, want %v", page.Years, tt.wantYears)
			}
		})
	}
}

func TestParseDocument_HiddenDuplicateYieldsOneEvent(t *testing.T) {
	html := `<ul>
		<li><span>Mon, 26 Dec</span><div><h3><a><span>DJ X</span></a></h3></div><div><span>Venue A</span></div></li>
		<li style="display: none"><span>Mon, 26 Dec</span><div><h3><a><span>DJ X</span></a></h3></div><div><span>Venue A</span></div></li>
	</ul>`

	page, err := ParseDocument(strings.NewReader(html), SpanPrefixB{}, 2024)
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}
	if page.Events.Len() != 1 {
		t.Fatalf("expected a single event, got %d: %v", page.Events.Len(), page.Events.Events())
	}
}

func TestParseDocument_NoEventsBesideMenus(t *testing.T) {
	html := `<html><body>
		<nav><ul><li><span>Home</span></li><li><span>Artists</span><a href="/dj">All</a></li></ul></nav>
		<p>No upcoming tour dates.</p>
	</body></html>`

	auto, err := ExtractorByName(StrategyAuto)
	if err != nil {
		t.Fatalf("ExtractorByName: %v", err)
	}
	page, err := ParseDocument(strings.NewReader(html), auto, 2024)
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}
	if page.Events.Len() != 0 {
		t.Errorf("expected no events, got %v", page.Events.Events())
	}
	if page.Strategy != "" {
		t.Errorf("Strategy = %q, want empty", page.Strategy)
	}
}

func TestParseDocument_Errors(t *testing.T) {
	t.Run("structure error", func(t *testing.T) {
		_, err := parseFixture(t, "microdata_malformed.html", Microdata{}, 2024)
		var se *event.StructureError
		if !errors.As(err, &se) {
			t.Fatalf("expected *StructureError, got %v", err)
		}
	})

	t.Run("date format error", func(t *testing.T) {
		html := `<ul><li><span>Mon 26 Foo</span><div><h3><a><span>X</span></a></h3></div><div></div></li></ul>`
		_, err := ParseDocument(strings.NewReader(html), SpanPrefixA{}, 2024)
		var dfe *event.DateFormatError
		if !errors.As(err, &dfe) {
			t.Fatalf("expected *DateFormatError, got %v", err)
		}
		var se *event.StructureError
		if errors.As(err, &se) {
			t.Error("date failure must be distinguishable from a structure failure")
		}
	})
}

func TestParseYears(t *testing.T) {
	tests := []struct {
		name string
		html string
		want []int
	}{
		{
			name: "no index",
			html: `<div>nothing</div>`,
			want: nil,
		},
		{
			name: "duplicates and labels skipped",
			html: `<div><div>Tour date filters</div><div><ul>
				<li><a>2026</a></li><li><a>2026</a></li><li><a>Upcoming</a></li><li><a> 2027 </a></li>
			</ul></div></div>`,
			want: []int{2026, 2027},
		},
		{
			name: "only the first following div",
			html: `<div><div>Tour date filters</div><div><ul><li><a>2024</a></li></ul></div>
				<div><ul><li><a>1999</a></li></ul></div></div>`,
			want: []int{2024},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseYears(docFromString(t, tt.html))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseYears() = %v, want %v", got, tt.want)
			}
		})
	}
}
