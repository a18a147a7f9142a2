package scraper

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/pfrederiksen/tour-snoop/internal/event"
	"golang.org/x/net/html"
)

const maxAddressParts = 2

var (
	spanDateLines = cascadia.MustCompile("li > span:first-child")
	spanName      = cascadia.MustCompile("h3 a span")
	spanMetadata  = cascadia.MustCompile("span:not(:has(span))")

	// "Mon 26 Dec" and "Mon 26 Dec 2024"
	spanTokenDate = regexp.MustCompile(`^[A-Z][a-z]{2} \d{1,2} [A-Z][a-z]{2}( \d{4})?$`)

	// "Mon, 26 Dec" and "Sat, Feb 11, 2023"
	spanDayMonth     = regexp.MustCompile(`^[A-Z][a-z]{2}, \d{1,2} [A-Z][a-z]{2}$`)
	spanMonthDayYear = regexp.MustCompile(`^[A-Z][a-z]{2}, [A-Z][a-z]{2} \d{1,2}, \d{4}$`)
)

// SpanPrefixA reads list pages where each event is a list item whose first
// child is a span holding the date line:
//
//	<li>
//	  <span>Mon 26 Dec</span>
//	  <div><h3><a><span>Event name</span></a></h3></div>
//	  <div><span>Venue</span><span>City</span></div>
//	</li>
//
// The address is the first two metadata spans of the second div, joined
// with ", ". List items whose leading span is not a date line, such as
// navigation menus, are not events.
type SpanPrefixA struct{}

// Name implements Extractor.
func (SpanPrefixA) Name() string { return StrategySpanA }

// Extract implements Extractor.
func (SpanPrefixA) Extract(doc *goquery.Document) ([]event.RawCandidate, error) {
	lines := doc.FindMatcher(spanDateLines).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return spanTokenDate.MatchString(strings.TrimSpace(s.Text()))
	})
	cands := make([]event.RawCandidate, 0, lines.Length())

	var err error
	lines.EachWithBreak(func(i int, line *goquery.Selection) bool {
		var cand event.RawCandidate
		cand, err = spanCandidate(line.Parent(), line.Text())
		if err != nil {
			err = fmt.Errorf("event node %d: %w", i, err)
			return false
		}
		cands = append(cands, cand)
		return true
	})
	if err != nil {
		return nil, err
	}
	return cands, nil
}

// SpanPrefixB reads the same list layout as SpanPrefixA, but finds events by
// matching every text node of the page against the comma date notations and
// walking each match up to its list item. The page renders some events twice
// (once hidden), so the candidates are de-duplicated.
type SpanPrefixB struct{}

// Name implements Extractor.
func (SpanPrefixB) Name() string { return StrategySpanB }

// Extract implements Extractor.
func (SpanPrefixB) Extract(doc *goquery.Document) ([]event.RawCandidate, error) {
	var matches []*html.Node
	for _, root := range doc.Nodes {
		matches = collectDateText(root, matches)
	}

	seen := make(map[string]struct{}, len(matches))
	cands := make([]event.RawCandidate, 0, len(matches))
	for i, text := range matches {
		node := doc.FindNodes(text.Parent).Closest("li")
		if node.Length() == 0 {
			return nil, fmt.Errorf("date %d: %w", i, &event.StructureError{Query: "closest li", Count: 0})
		}
		cand, err := spanCandidate(node, text.Data)
		if err != nil {
			return nil, fmt.Errorf("date %d: %w", i, err)
		}
		key := candidateKey(cand)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		cands = append(cands, cand)
	}
	return cands, nil
}

// collectDateText appends every text node below n whose trimmed content is a
// comma date.
func collectDateText(n *html.Node, acc []*html.Node) []*html.Node {
	if n.Type == html.TextNode {
		text := strings.TrimSpace(n.Data)
		if n.Parent != nil && (spanDayMonth.MatchString(text) || spanMonthDayYear.MatchString(text)) {
			acc = append(acc, n)
		}
		return acc
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		acc = collectDateText(c, acc)
	}
	return acc
}

// spanCandidate extracts name and address from a span-prefixed list item.
func spanCandidate(node *goquery.Selection, dateText string) (event.RawCandidate, error) {
	name, err := exactlyOne(node.FindMatcher(spanName), "h3 a span")
	if err != nil {
		return event.RawCandidate{}, err
	}
	section, err := exactlyOne(node.ChildrenFiltered("div:nth-of-type(2)"), "div:nth-of-type(2)")
	if err != nil {
		return event.RawCandidate{}, err
	}

	var parts []string
	section.FindMatcher(spanMetadata).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if text := strings.TrimSpace(s.Text()); text != "" {
			parts = append(parts, text)
		}
		return len(parts) < maxAddressParts
	})

	return event.RawCandidate{
		DateText:     dateText,
		Name:         name.Text(),
		AddressParts: parts,
	}, nil
}

func candidateKey(c event.RawCandidate) string {
	return strings.Join(append([]string{strings.TrimSpace(c.DateText), strings.TrimSpace(c.Name)}, c.AddressParts...), "\x00")
}
