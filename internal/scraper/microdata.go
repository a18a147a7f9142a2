package scraper

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/pfrederiksen/tour-snoop/internal/event"
)

var microdataEvents = cascadia.MustCompile("article.event > div.ptb4 > div[itemscope]")

// Microdata reads pages that annotate each event with schema.org microdata:
//
//	<article class="event"><div class="ptb4"><div itemscope>
//	  <span><time>2024-01-10T22:00</time></span>
//	  <span itemprop="location">
//	    <span itemprop="name">Venue</span>
//	    <span itemprop="address">Street, City</span>
//	  </span>
//	</div></div></article>
//
// Every step must match exactly one element.
type Microdata struct{}

// Name implements Extractor.
func (Microdata) Name() string { return StrategyMicrodata }

// Extract implements Extractor.
func (Microdata) Extract(doc *goquery.Document) ([]event.RawCandidate, error) {
	nodes := doc.FindMatcher(microdataEvents)
	cands := make([]event.RawCandidate, 0, nodes.Length())

	var err error
	nodes.EachWithBreak(func(i int, node *goquery.Selection) bool {
		var cand event.RawCandidate
		cand, err = microdataCandidate(node)
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

func microdataCandidate(node *goquery.Selection) (event.RawCandidate, error) {
	timeSel, err := exactlyOne(node.ChildrenFiltered("span").ChildrenFiltered("time"), "span > time")
	if err != nil {
		return event.RawCandidate{}, err
	}
	location, err := exactlyOne(node.ChildrenFiltered(`span[itemprop="location"]`), `span[itemprop="location"]`)
	if err != nil {
		return event.RawCandidate{}, err
	}
	name, err := exactlyOne(location.ChildrenFiltered(`span[itemprop="name"]`), `span[itemprop="name"]`)
	if err != nil {
		return event.RawCandidate{}, err
	}
	address, err := exactlyOne(location.ChildrenFiltered(`span[itemprop="address"]`), `span[itemprop="address"]`)
	if err != nil {
		return event.RawCandidate{}, err
	}

	return event.RawCandidate{
		DateText:     timeSel.Text(),
		Name:         name.Text(),
		AddressParts: []string{address.Text()},
	}, nil
}
