package scraper

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/tour-snoop/internal/event"
)

// Extractor pulls raw event candidates out of one parsed listing page.
// Implementations return an empty slice when the page holds no event nodes
// of their shape, and an error when a node they found is malformed.
type Extractor interface {
	Name() string
	Extract(doc *goquery.Document) ([]event.RawCandidate, error)
}

// Strategy names accepted by ExtractorByName.
const (
	StrategyAuto      = "auto"
	StrategyMicrodata = "microdata"
	StrategySpanA     = "span-a"
	StrategySpanB     = "span-b"
)

// DefaultOrder is the order the auto strategy tries extractors in. The most
// specific node query goes first: span-a matches any list item that starts
// with a span, so it is the last resort.
var DefaultOrder = []string{StrategyMicrodata, StrategySpanB, StrategySpanA}

// Chain tries each extractor in order and keeps the first non-empty result.
// An extractor that finds nodes but fails on one of them stops the chain.
type Chain struct {
	Extractors []Extractor
}

// NewChain builds a Chain from strategy names.
func NewChain(names ...string) (*Chain, error) {
	c := &Chain{}
	for _, name := range names {
		ex, err := single(name)
		if err != nil {
			return nil, err
		}
		c.Extractors = append(c.Extractors, ex)
	}
	return c, nil
}

// Name lists the chained strategies, e.g. "microdata,span-b,span-a".
func (c *Chain) Name() string {
	names := make([]string, len(c.Extractors))
	for i, ex := range c.Extractors {
		names[i] = ex.Name()
	}
	return strings.Join(names, ",")
}

// Extract implements Extractor.
func (c *Chain) Extract(doc *goquery.Document) ([]event.RawCandidate, error) {
	_, cands, err := c.Match(doc)
	return cands, err
}

// Match is Extract that also reports which extractor produced the result.
// It returns a nil Extractor when none found any event node.
func (c *Chain) Match(doc *goquery.Document) (Extractor, []event.RawCandidate, error) {
	for _, ex := range c.Extractors {
		cands, err := ex.Extract(doc)
		if err != nil {
			return ex, nil, fmt.Errorf("%s: %w", ex.Name(), err)
		}
		if len(cands) > 0 {
			return ex, cands, nil
		}
	}
	return nil, nil, nil
}

// ExtractorByName resolves a strategy setting. "auto" (or "") is a Chain in
// DefaultOrder; a comma-separated list is a Chain in that order; a single
// name is that extractor alone.
func ExtractorByName(order string) (Extractor, error) {
	order = strings.TrimSpace(order)
	if order == "" || order == StrategyAuto {
		return NewChain(DefaultOrder...)
	}
	if strings.Contains(order, ",") {
		var names []string
		for _, n := range strings.Split(order, ",") {
			if n = strings.TrimSpace(n); n != "" {
				names = append(names, n)
			}
		}
		return NewChain(names...)
	}
	return single(order)
}

func single(name string) (Extractor, error) {
	switch name {
	case StrategyMicrodata:
		return Microdata{}, nil
	case StrategySpanA:
		return SpanPrefixA{}, nil
	case StrategySpanB:
		return SpanPrefixB{}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (want %s, %s, %s or %s)",
			name, StrategyAuto, StrategyMicrodata, StrategySpanA, StrategySpanB)
	}
}

// exactlyOne returns sel when it holds a single node, and a StructureError
// naming query otherwise.
func exactlyOne(sel *goquery.Selection, query string) (*goquery.Selection, error) {
	if n := sel.Length(); n != 1 {
		return nil, &event.StructureError{Query: query, Count: n}
	}
	return sel, nil
}
