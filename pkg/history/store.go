// Package history persists review decisions for later inspection.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/zen-systems/draftgate/pkg/decision"
)

// Store writes one JSON file per decision under the history directory.
type Store struct {
	BasePath string
}

// Entry summarizes one stored decision.
type Entry struct {
	ID           string
	Title        string
	OverallScore float64
	Action       decision.Action
	SavedAt      time.Time
}

// NewStore creates a history store rooted at basePath, defaulting to
// ~/.draftgate/history.
func NewStore(basePath string) (*Store, error) {
	if basePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		basePath = filepath.Join(home, ".draftgate", "history")
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, err
	}
	return &Store{BasePath: basePath}, nil
}

// Save writes the decision and returns the file path.
// Naming: timestamp__decisionID.json so a plain directory listing sorts by time.
func (s *Store) Save(d *decision.AggregateDecision) (string, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", err
	}

	timestamp := time.Now().UTC().Format("20060102150405")
	filename := fmt.Sprintf("%s__%s.json", timestamp, d.ID)

	path := filepath.Join(s.BasePath, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// List returns the most recent entries, newest first.
func (s *Store) List(limit int) ([]Entry, error) {
	paths, err := filepath.Glob(filepath.Join(s.BasePath, "*__*.json"))
	if err != nil {
		return nil, err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))

	var entries []Entry
	for _, path := range paths {
		if limit > 0 && len(entries) >= limit {
			break
		}
		d, savedAt, err := readDecision(path)
		if err != nil {
			continue // Skip unreadable files rather than failing the listing
		}
		entries = append(entries, Entry{
			ID:           d.ID,
			Title:        d.Request.Title,
			OverallScore: d.OverallScore,
			Action:       d.Action,
			SavedAt:      savedAt,
		})
	}
	return entries, nil
}

// Load returns the stored decision with the given ID.
func (s *Store) Load(id string) (*decision.AggregateDecision, error) {
	paths, err := filepath.Glob(filepath.Join(s.BasePath, "*__"+id+".json"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no stored decision with ID %s", id)
	}
	d, _, err := readDecision(paths[len(paths)-1])
	return d, err
}

func readDecision(path string) (*decision.AggregateDecision, time.Time, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, time.Time{}, err
	}
	var d decision.AggregateDecision
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, time.Time{}, err
	}

	base := filepath.Base(path)
	stamp, _, _ := strings.Cut(base, "__")
	savedAt, err := time.Parse("20060102150405", stamp)
	if err != nil {
		savedAt = time.Time{}
	}
	return &d, savedAt, nil
}
