package cli

import (
	"errors"
	"sort"
	"time"

	"github.com/pfrederiksen/tour-snoop/internal/event"
	"github.com/pfrederiksen/tour-snoop/internal/logger"
	"github.com/pfrederiksen/tour-snoop/internal/metrics"
	"github.com/pfrederiksen/tour-snoop/internal/scraper"
	"github.com/pfrederiksen/tour-snoop/internal/storage"
)

// outcome is the reconciled state of one run.
type outcome struct {
	Sets     []event.SubjectChanges
	Listings map[string]*event.Listing // fresh listings of subjects that may be saved
	Unknown  []string
	Failed   map[string]error
}

// reconcile diffs every successfully fetched listing against its snapshot.
// Unknown and failed subjects are set aside: they are neither diffed nor
// saved, so their snapshots survive for the next run.
func reconcile(results []scraper.Result, store *storage.Storage, rec *metrics.Recorder) *outcome {
	out := &outcome{
		Listings: make(map[string]*event.Listing),
		Failed:   make(map[string]error),
	}

	sorted := make([]scraper.Result, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Subject < sorted[j].Subject
	})

	for _, r := range sorted {
		fields := logger.Fields{"subject": r.Subject}

		if r.Err != nil {
			if errors.Is(r.Err, scraper.ErrSubjectNotFound) {
				out.Unknown = append(out.Unknown, r.Subject)
				rec.SubjectDone(metrics.StatusNotFound)
				logger.Warn("Unknown artist", fields)
				continue
			}
			out.Failed[r.Subject] = r.Err
			rec.SubjectDone(metrics.StatusError)
			logger.Error("Fetching listing failed", fields, r.Err)
			continue
		}

		cached, err := store.LoadListing(r.Subject)
		if err != nil {
			out.Failed[r.Subject] = err
			rec.SubjectDone(metrics.StatusError)
			logger.Error("Loading snapshot failed", fields, err)
			continue
		}

		changes := event.Diff(r.Listing, cached)
		for _, c := range changes {
			rec.AddChange(c.Symbol.String())
		}
		rec.SubjectDone(metrics.StatusOK)

		fields["events"] = r.Listing.Len()
		fields["cached"] = cached.Len()
		fields["changes"] = len(changes)
		logger.Debug("Reconciled listing", fields)

		out.Listings[r.Subject] = r.Listing
		out.Sets = append(out.Sets, event.SubjectChanges{Subject: r.Subject, Changes: changes})
	}

	return out
}

// ChangeCount returns the number of changes over all subjects.
func (o *outcome) ChangeCount() int {
	n := 0
	for _, set := range o.Sets {
		n += len(set.Changes)
	}
	return n
}

// Result converts the outcome for WriteOutput.
func (o *outcome) Result() *OutputResult {
	result := &OutputResult{
		CheckedAt:   time.Now().UTC(),
		Subjects:    make([]event.SubjectChanges, 0, len(o.Sets)),
		Unknown:     o.Unknown,
		ChangeCount: o.ChangeCount(),
	}
	for _, set := range o.Sets {
		if len(set.Changes) > 0 {
			result.Subjects = append(result.Subjects, set)
		}
	}
	if len(o.Failed) > 0 {
		result.Failed = make(map[string]string, len(o.Failed))
		for subject, err := range o.Failed {
			result.Failed[subject] = err.Error()
		}
	}
	return result
}

// Save writes the fresh listing of every reconciled subject.
func (o *outcome) Save(store *storage.Storage) error {
	subjects := make([]string, 0, len(o.Listings))
	for s := range o.Listings {
		subjects = append(subjects, s)
	}
	sort.Strings(subjects)

	for _, s := range subjects {
		if err := store.SaveListing(s, o.Listings[s]); err != nil {
			return err
		}
		logger.Debug("Saved snapshot", logger.Fields{"subject": s, "events": o.Listings[s].Len()})
	}
	return nil
}
