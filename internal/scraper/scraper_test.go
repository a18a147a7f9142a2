package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/pfrederiksen/tour-snoop/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func microdataPage(years []int, events ...[3]string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	if len(years) > 0 {
		b.WriteString("<div><div>Tour date filters</div><div><ul>")
		for _, y := range years {
			fmt.Fprintf(&b, `<li><a href="?yr=%d">%d</a></li>`, y, y)
		}
		b.WriteString("</ul></div></div>")
	}
	for _, e := range events {
		fmt.Fprintf(&b, `<article class="event"><div class="ptb4"><div itemscope>
			<span><time>%sT22:00</time></span>
			<span itemprop="location"><span itemprop="name">%s</span><span itemprop="address">%s</span></span>
		</div></div></article>`, e[0], e[1], e[2])
	}
	b.WriteString("</body></html>")
	return b.String()
}

// fakeSite serves microdata pages keyed by "subject/year" and counts requests.
type fakeSite struct {
	mu       sync.Mutex
	pages    map[string]string
	requests map[string]int
}

func newFakeSite(t *testing.T, pages map[string]string) (*fakeSite, *httptest.Server) {
	site := &fakeSite{pages: pages, requests: make(map[string]int)}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); !strings.Contains(ua, "tour-snoop") {
			t.Errorf("User-Agent = %q, should contain 'tour-snoop'", ua)
		}

		// /dj/<subject>/dates?yr=<year>
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) != 3 || parts[0] != "dj" || parts[2] != "dates" {
			http.NotFound(w, r)
			return
		}
		key := parts[1] + "/" + r.URL.Query().Get("yr")

		site.mu.Lock()
		site.requests[key]++
		body, ok := site.pages[key]
		site.mu.Unlock()

		switch {
		case parts[1] == "unknown":
			http.Redirect(w, r, "/dj", http.StatusFound)
		case parts[1] == "broken":
			w.WriteHeader(http.StatusInternalServerError)
		case !ok:
			fmt.Fprint(w, microdataPage(nil))
		default:
			fmt.Fprint(w, body)
		}
	}))
	t.Cleanup(server.Close)
	return site, server
}

func (s *fakeSite) count(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[key]
}

func newTestScraper(t *testing.T, baseURL string, rec *metrics.Recorder) *Scraper {
	t.Helper()
	s, err := New(Options{BaseURL: baseURL, ReferenceYear: 2024, Concurrency: 2, Metrics: rec})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestFetchPage(t *testing.T) {
	_, server := newFakeSite(t, map[string]string{
		"dj-x/2024": microdataPage([]int{2024}, [3]string{"2024-01-10", "Venue A", "London"}),
	})
	rec := metrics.New()
	s := newTestScraper(t, server.URL, rec)

	tests := []struct {
		name       string
		subject    string
		wantEvents int
		wantErr    bool
		wantNotFnd bool
	}{
		{name: "successful fetch", subject: "dj-x", wantEvents: 1},
		{name: "no events", subject: "dj-empty", wantEvents: 0},
		{name: "redirect means unknown", subject: "unknown", wantErr: true, wantNotFnd: true},
		{name: "HTTP error", subject: "broken", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := s.FetchPage(context.Background(), tt.subject, 2024)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FetchPage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if errors.Is(err, ErrSubjectNotFound) != tt.wantNotFnd {
				t.Errorf("errors.Is(err, ErrSubjectNotFound) = %v, want %v (err = %v)", !tt.wantNotFnd, tt.wantNotFnd, err)
			}
			if err == nil && page.Events.Len() != tt.wantEvents {
				t.Errorf("expected %d events, got %d", tt.wantEvents, page.Events.Len())
			}
		})
	}

	// ok, not_found and error series
	series, err := testutil.GatherAndCount(rec.Registry(), "tour_snoop_documents_fetched_total")
	if err != nil {
		t.Fatalf("GatherAndCount: %v", err)
	}
	if series != 3 {
		t.Errorf("expected 3 fetch status series, got %d", series)
	}
}

func TestFetchListing_FollowsLaterYears(t *testing.T) {
	site, server := newFakeSite(t, map[string]string{
		"dj-x/2024": microdataPage([]int{2023, 2024, 2025, 2026, 2025},
			[3]string{"2024-01-10", "Venue A", "London"}),
		"dj-x/2025": microdataPage([]int{2023, 2024, 2025, 2026, 2027},
			[3]string{"2025-03-02", "Venue C", "Paris"},
			[3]string{"2024-01-10", "Venue A", "London"}),
		"dj-x/2026": microdataPage(nil,
			[3]string{"2026-07-07", "Venue D", "Ibiza"}),
	})
	s := newTestScraper(t, server.URL, nil)

	listing, err := s.FetchListing(context.Background(), "dj-x", 2024)
	if err != nil {
		t.Fatalf("FetchListing failed: %v", err)
	}
	if listing.Len() != 3 {
		t.Errorf("expected 3 distinct events, got %d: %v", listing.Len(), listing.Events())
	}

	for key, want := range map[string]int{
		"dj-x/2024": 1,
		"dj-x/2025": 1,
		"dj-x/2026": 1,
		"dj-x/2023": 0, // earlier years are not followed
		"dj-x/2027": 0, // only the first page's index counts
	} {
		if got := site.count(key); got != want {
			t.Errorf("requests for %s = %d, want %d", key, got, want)
		}
	}
}

func TestFetchAll_IndependentFailures(t *testing.T) {
	_, server := newFakeSite(t, map[string]string{
		"dj-x/2024": microdataPage(nil, [3]string{"2024-01-10", "Venue A", "London"}),
		"dj-y/2024": microdataPage(nil, [3]string{"2024-02-01", "Venue B", "Berlin"}),
	})
	rec := metrics.New()
	s := newTestScraper(t, server.URL, rec)

	subjects := []string{"dj-x", "unknown", "broken", "dj-y"}
	results := s.FetchAll(context.Background(), subjects, 2024)

	if len(results) != len(subjects) {
		t.Fatalf("expected %d results, got %d", len(subjects), len(results))
	}
	for i, r := range results {
		if r.Subject != subjects[i] {
			t.Errorf("result %d subject = %q, want %q", i, r.Subject, subjects[i])
		}
	}

	if results[0].Err != nil || results[0].Listing.Len() != 1 {
		t.Errorf("dj-x: err=%v len=%d", results[0].Err, results[0].Listing.Len())
	}
	if !errors.Is(results[1].Err, ErrSubjectNotFound) {
		t.Errorf("unknown: err = %v, want ErrSubjectNotFound", results[1].Err)
	}
	if results[2].Err == nil || errors.Is(results[2].Err, ErrSubjectNotFound) {
		t.Errorf("broken: err = %v, want a plain fetch error", results[2].Err)
	}
	if results[3].Err != nil || results[3].Listing.Len() != 1 {
		t.Errorf("dj-y: err=%v len=%d", results[3].Err, results[3].Listing.Len())
	}
}

func TestNew_Defaults(t *testing.T) {
	s, err := New(Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := s.ListingURL("dj x", 2024); got != DefaultBaseURL+"/dj/dj%20x/dates?yr=2024" {
		t.Errorf("ListingURL() = %q", got)
	}
	if s.concurrency != DefaultConcurrency {
		t.Errorf("concurrency = %d, want %d", s.concurrency, DefaultConcurrency)
	}
	if s.extractor.Name() != strings.Join(DefaultOrder, ",") {
		t.Errorf("extractor = %q, want default chain", s.extractor.Name())
	}
}
