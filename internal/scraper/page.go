package scraper

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/tour-snoop/internal/event"
	"golang.org/x/net/html"
)

// yearFilterHeading labels the block of per-year links on a listing page.
const yearFilterHeading = "Tour date filters"

// Page is the parsed content of one listing document.
type Page struct {
	Events   *event.Listing
	Years    []int
	Strategy string // extractor that produced Events, empty if none matched
}

// ParseDocument parses one HTML listing page with ex and normalises the
// events it finds. Year-less dates resolve to referenceYear. A page without
// event nodes yields an empty listing; a malformed event node fails the whole
// page.
func ParseDocument(r io.Reader, ex Extractor, referenceYear int) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	var (
		cands    []event.RawCandidate
		strategy string
	)
	if chain, ok := ex.(*Chain); ok {
		var winner Extractor
		winner, cands, err = chain.Match(doc)
		if winner != nil {
			strategy = winner.Name()
		}
	} else {
		cands, err = ex.Extract(doc)
		if len(cands) > 0 {
			strategy = ex.Name()
		}
	}
	if err != nil {
		return nil, fmt.Errorf("extracting events: %w", err)
	}

	events, err := event.NormalizeAll(cands, referenceYear)
	if err != nil {
		return nil, fmt.Errorf("normalising events: %w", err)
	}

	return &Page{
		Events:   events,
		Years:    ParseYears(doc),
		Strategy: strategy,
	}, nil
}

// ParseYears reads the year filter index: the links of the first div that
// follows the "Tour date filters" heading. Non-numeric entries are skipped
// and each year is reported once.
func ParseYears(doc *goquery.Document) []int {
	heading := doc.Find("div").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return ownText(s) == yearFilterHeading
	}).First()
	if heading.Length() == 0 {
		return nil
	}

	var years []int
	seen := make(map[int]bool)
	heading.NextAllFiltered("div").First().
		ChildrenFiltered("ul").ChildrenFiltered("li").ChildrenFiltered("a").
		Each(func(_ int, a *goquery.Selection) {
			text := strings.TrimSpace(a.Text())
			if !isDigits(text) {
				return
			}
			year, err := strconv.Atoi(text)
			if err != nil || seen[year] {
				return
			}
			seen[year] = true
			years = append(years, year)
		})
	return years
}

// ownText returns the trimmed text of the direct text children of s.
func ownText(s *goquery.Selection) string {
	var b strings.Builder
	for _, n := range s.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				b.WriteString(c.Data)
			}
		}
	}
	return strings.TrimSpace(b.String())
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
