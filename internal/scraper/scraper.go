package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pfrederiksen/tour-snoop/internal/event"
	"github.com/pfrederiksen/tour-snoop/internal/logger"
	"github.com/pfrederiksen/tour-snoop/internal/metrics"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBaseURL     = "https://www.residentadvisor.net"
	UserAgent          = "tour-snoop/1.0 (github.com/pfrederiksen/tour-snoop)"
	Timeout            = 30 * time.Second
	DefaultConcurrency = 4
)

// ErrSubjectNotFound is returned when the site redirects a listing request,
// which is how it answers for unknown artists.
var ErrSubjectNotFound = errors.New("subject not found")

// Options configures a Scraper. Zero values fall back to the package
// defaults.
type Options struct {
	BaseURL       string
	UserAgent     string
	Timeout       time.Duration
	Extractor     Extractor
	Concurrency   int
	ReferenceYear int
	Metrics       *metrics.Recorder
}

// Scraper fetches listing documents and turns them into event listings.
type Scraper struct {
	client        *http.Client
	baseURL       string
	userAgent     string
	extractor     Extractor
	concurrency   int
	referenceYear int
	metrics       *metrics.Recorder
}

// New creates a Scraper from opts.
func New(opts Options) (*Scraper, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = UserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = Timeout
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.ReferenceYear == 0 {
		opts.ReferenceYear = time.Now().Year()
	}
	if opts.Extractor == nil {
		ex, err := ExtractorByName(StrategyAuto)
		if err != nil {
			return nil, err
		}
		opts.Extractor = ex
	}
	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	return &Scraper{
		client: &http.Client{
			Timeout: opts.Timeout,
			// Unknown artists are redirected to the index page; surface the
			// redirect instead of following it.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		userAgent:     opts.UserAgent,
		extractor:     opts.Extractor,
		concurrency:   opts.Concurrency,
		referenceYear: opts.ReferenceYear,
		metrics:       opts.Metrics,
	}, nil
}

// ListingURL returns the listing page of subject for year.
func (s *Scraper) ListingURL(subject string, year int) string {
	return fmt.Sprintf("%s/dj/%s/dates?yr=%d", s.baseURL, url.PathEscape(subject), year)
}

// FetchPage fetches and parses the listing page of subject for year.
func (s *Scraper) FetchPage(ctx context.Context, subject string, year int) (*Page, error) {
	start := time.Now()
	page, err := s.fetchPage(ctx, subject, year)
	status := metrics.StatusOK
	switch {
	case errors.Is(err, ErrSubjectNotFound):
		status = metrics.StatusNotFound
	case err != nil:
		status = metrics.StatusError
	}
	s.metrics.ObserveFetch(status, time.Since(start))
	if err != nil {
		return nil, err
	}

	s.metrics.AddEvents(page.Strategy, page.Events.Len())
	logger.Debug("Parsed listing page", logger.Fields{
		"subject":  subject,
		"year":     year,
		"strategy": page.Strategy,
		"events":   page.Events.Len(),
		"years":    page.Years,
	})
	return page, nil
}

func (s *Scraper) fetchPage(ctx context.Context, subject string, year int) (*Page, error) {
	target := s.ListingURL(subject, year)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		return nil, fmt.Errorf("%s: %w", subject, ErrSubjectNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	page, err := ParseDocument(resp.Body, s.extractor, s.referenceYear)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", target, err)
	}
	return page, nil
}

// FetchListing fetches the listing of subject starting at startYear. The
// year index of that first page decides which later years exist; each of
// them is fetched once and all pages are merged into one Listing.
func (s *Scraper) FetchListing(ctx context.Context, subject string, startYear int) (*event.Listing, error) {
	first, err := s.FetchPage(ctx, subject, startYear)
	if err != nil {
		return nil, err
	}

	collections := [][]event.Event{first.Events.Events()}
	fetched := map[int]bool{startYear: true}
	for _, year := range first.Years {
		if year <= startYear || fetched[year] {
			continue
		}
		fetched[year] = true

		page, err := s.FetchPage(ctx, subject, year)
		if err != nil {
			return nil, fmt.Errorf("year %d: %w", year, err)
		}
		collections = append(collections, page.Events.Events())
	}

	return event.Assemble(collections...), nil
}

// Result is the outcome of fetching one subject.
type Result struct {
	Subject string
	Listing *event.Listing
	Err     error
}

// FetchAll fetches every subject concurrently. A failing subject does not
// affect the others; its error is reported in its Result. Results keep the
// order of subjects.
func (s *Scraper) FetchAll(ctx context.Context, subjects []string, startYear int) []Result {
	results := make([]Result, len(subjects))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, subject := range subjects {
		i, subject := i, subject
		g.Go(func() error {
			listing, err := s.FetchListing(ctx, subject, startYear)
			results[i] = Result{Subject: subject, Listing: listing, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
