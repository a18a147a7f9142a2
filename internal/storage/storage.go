package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pfrederiksen/tour-snoop/internal/event"
)

const snapshotExt = ".json"

// Storage persists one listing snapshot per subject as a JSON array of
// ["YYYY-MM-DD", name, address] triples.
type Storage struct {
	dataDir string
}

// New creates a Storage rooted at dataDir. A leading "~/" is expanded. The
// directory is created on the first save, so read-only runs leave no trace.
func New(dataDir string) (*Storage, error) {
	if dataDir == "~" || strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, strings.TrimPrefix(dataDir, "~"))
	}
	if dataDir == "" {
		return nil, errors.New("data directory is empty")
	}

	return &Storage{
		dataDir: dataDir,
	}, nil
}

// Dir returns the resolved data directory.
func (s *Storage) Dir() string {
	return s.dataDir
}

// snapshotPath returns the file holding subject's snapshot.
func (s *Storage) snapshotPath(subject string) (string, error) {
	if subject == "" || subject == "." || subject == ".." || strings.ContainsAny(subject, `/\`) {
		return "", fmt.Errorf("invalid subject name %q", subject)
	}
	return filepath.Join(s.dataDir, subject+snapshotExt), nil
}

// LoadListing loads the snapshot of subject. A subject that was never saved
// has an empty listing.
func (s *Storage) LoadListing(subject string) (*event.Listing, error) {
	path, err := s.snapshotPath(subject)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return event.NewListing(), nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	listing := event.NewListing()
	if err := json.Unmarshal(data, listing); err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", path, err)
	}
	return listing, nil
}

// SaveListing writes the snapshot of subject, replacing any previous one.
// The file is written next to its destination and renamed into place.
func (s *Storage) SaveListing(subject string, listing *event.Listing) error {
	path, err := s.snapshotPath(subject)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	data, err := json.MarshalIndent(listing, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(s.dataDir, "."+subject+"-*.tmp")
	if err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	defer os.Remove(tmp.Name()) // nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() // nolint:errcheck
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// Subjects lists the subjects that have a snapshot, sorted by name.
func (s *Storage) Subjects() ([]string, error) {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}

	var subjects []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, snapshotExt) {
			continue
		}
		subjects = append(subjects, strings.TrimSuffix(name, snapshotExt))
	}
	sort.Strings(subjects)
	return subjects, nil
}
