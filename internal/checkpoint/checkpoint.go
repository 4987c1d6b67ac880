// Package checkpoint records chat calls that are in flight, keyed by note
// path, so a placeholder left behind by a killed process can be found and
// cleared later.
package checkpoint

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Entry is one outstanding call
type Entry struct {
	Path    string    // Absolute note path
	Model   string    // Model named in the placeholder
	RunID   string    // Run that inserted the placeholder
	Started time.Time // When the placeholder was inserted
}

// Ledger stores entries as tab-separated lines: path, model, run id, start time.
type Ledger struct {
	path string
}

// NewLedger creates a ledger backed by the file at path
func NewLedger(path string) *Ledger {
	return &Ledger{path: path}
}

// Path returns the ledger file location
func (l *Ledger) Path() string {
	return l.path
}

// Mark records an outstanding call, replacing any previous entry for the note
func (l *Ledger) Mark(e Entry) error {
	entries, err := l.load()
	if err != nil {
		return err
	}

	e.Path = notePath(e.Path)
	if e.Started.IsZero() {
		e.Started = time.Now()
	}
	entries[e.Path] = e

	return l.save(entries)
}

// Clear removes the entry for a note. Clearing a note with no entry is a no-op.
func (l *Ledger) Clear(path string) error {
	entries, err := l.load()
	if err != nil {
		return err
	}

	key := notePath(path)
	if _, ok := entries[key]; !ok {
		return nil
	}
	delete(entries, key)

	return l.save(entries)
}

// Get returns the entry for a note, if any
func (l *Ledger) Get(path string) (Entry, bool, error) {
	entries, err := l.load()
	if err != nil {
		return Entry{}, false, err
	}
	e, ok := entries[notePath(path)]
	return e, ok, nil
}

// List returns all entries sorted by note path
func (l *Ledger) List() ([]Entry, error) {
	entries, err := l.load()
	if err != nil {
		return nil, err
	}

	result := make([]Entry, 0, len(entries))
	for _, e := range entries {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Path < result[j].Path
	})
	return result, nil
}

// load reads the ledger. A missing file is an empty ledger; malformed lines
// are skipped.
func (l *Ledger) load() (map[string]Entry, error) {
	entries := make(map[string]Entry)

	file, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return entries, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		parts := strings.Split(scanner.Text(), "\t")
		if len(parts) != 4 || parts[0] == "" {
			continue
		}
		started, err := time.Parse(time.RFC3339, parts[3])
		if err != nil {
			continue
		}
		entries[parts[0]] = Entry{
			Path:    parts[0],
			Model:   parts[1],
			RunID:   parts[2],
			Started: started,
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// save writes entries with the temp file + rename pattern
func (l *Ledger) save(entries map[string]Entry) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create ledger dir: %w", err)
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tmpPath := l.path + ".tmp"
	outFile, err := os.Create(tmpPath)
	if err != nil {
		return err
	}

	for _, k := range keys {
		e := entries[k]
		_, err := fmt.Fprintf(outFile, "%s\t%s\t%s\t%s\n", e.Path, e.Model, e.RunID, e.Started.UTC().Format(time.RFC3339))
		if err != nil {
			outFile.Close()
			os.Remove(tmpPath)
			return err
		}
	}

	if err := outFile.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	return os.Rename(tmpPath, l.path)
}

// notePath normalizes a note path to an absolute, clean key
func notePath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
