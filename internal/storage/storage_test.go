package storage

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/tour-snoop/internal/event"
)

func newListing(t *testing.T) *event.Listing {
	t.Helper()
	a, err := event.NewDate(2024, time.January, 10)
	if err != nil {
		t.Fatal(err)
	}
	b, err := event.NewDate(2024, time.February, 1)
	if err != nil {
		t.Fatal(err)
	}
	return event.NewListing(
		event.Event{Date: b, Name: "DJ Y", Address: "Venue B"},
		event.Event{Date: a, Name: "DJ X", Address: "Venue A, London"},
	)
}

func TestSaveAndLoadListing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	store, err := New(dir)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	// dry runs never save, so New must not create anything
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("New() should not create %s (stat err = %v)", dir, err)
	}

	listing := newListing(t)
	if err := store.SaveListing("dj-x", listing); err != nil {
		t.Fatalf("SaveListing: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "dj-x.json"))
	if err != nil {
		t.Fatalf("reading snapshot file: %v", err)
	}
	compact := strings.Join(strings.Fields(string(data)), "")
	want := `[["2024-01-10","DJX","VenueA,London"],["2024-02-01","DJY","VenueB"]]`
	if compact != want {
		t.Errorf("snapshot file = %s, want %s", compact, want)
	}

	loaded, err := store.LoadListing("dj-x")
	if err != nil {
		t.Fatalf("LoadListing: %v", err)
	}
	if !loaded.Equal(listing) {
		t.Errorf("loaded listing = %v, want %v", loaded.Events(), listing.Events())
	}
}

func TestLoadListing(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	write := func(name, content string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	write("corrupt.json", `{"not": "a listing"}`)
	write("baddate.json", `[["26 Dec 2024","X","Y"]]`)
	write("dupes.json", `[["2024-01-10","X","Y"],["2024-01-10","X","Y"]]`)

	tests := []struct {
		name    string
		subject string
		wantLen int
		wantErr bool
	}{
		{name: "missing file is empty", subject: "never-saved", wantLen: 0},
		{name: "duplicate triples collapse", subject: "dupes", wantLen: 1},
		{name: "corrupt file", subject: "corrupt", wantErr: true},
		{name: "bad date", subject: "baddate", wantErr: true},
		{name: "path traversal", subject: "../etc", wantErr: true},
		{name: "empty subject", subject: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.LoadListing(tt.subject)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadListing(%q) error = %v, wantErr %v", tt.subject, err, tt.wantErr)
			}
			if err == nil && got.Len() != tt.wantLen {
				t.Errorf("LoadListing(%q) len = %d, want %d", tt.subject, got.Len(), tt.wantLen)
			}
		})
	}
}

func TestSaveListing_Overwrites(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	if err := store.SaveListing("dj-x", newListing(t)); err != nil {
		t.Fatalf("SaveListing: %v", err)
	}
	if err := store.SaveListing("dj-x", event.NewListing()); err != nil {
		t.Fatalf("SaveListing: %v", err)
	}

	loaded, err := store.LoadListing("dj-x")
	if err != nil {
		t.Fatalf("LoadListing: %v", err)
	}
	if loaded.Len() != 0 {
		t.Errorf("expected empty listing after overwrite, got %v", loaded.Events())
	}
}

func TestSubjects(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	for _, s := range []string{"zeta", "alpha"} {
		if err := store.SaveListing(s, newListing(t)); err != nil {
			t.Fatalf("SaveListing: %v", err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := store.Subjects()
	if err != nil {
		t.Fatalf("Subjects: %v", err)
	}
	if want := []string{"alpha", "zeta"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Subjects() = %v, want %v", got, want)
	}

	missing, err := New(filepath.Join(dir, "nope"))
	if err != nil {
		t.Fatal(err)
	}
	if got, err := missing.Subjects(); err != nil || len(got) != 0 {
		t.Errorf("Subjects() on missing dir = %v, %v", got, err)
	}
}

func TestNew_ExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	store, err := New("~/.saved")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if want := filepath.Join(home, ".saved"); store.Dir() != want {
		t.Errorf("Dir() = %q, want %q", store.Dir(), want)
	}
}
