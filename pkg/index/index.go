// Package index caches Google calendar name to calendar ID lookups so the
// calendar list is only fetched when a name is first seen.
package index

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

const indexFile = "calendars.json"

type CalendarIndex struct {
	Mappings map[string]string `json:"mappings"`
	Path     string            `json:"-"`
	mu       sync.RWMutex
	dirty    bool
}

// NewCalendarIndex opens the index in the user's config directory.
func NewCalendarIndex() (*CalendarIndex, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return Open(filepath.Join(home, ".config", "freetime", indexFile))
}

// Open loads the index at path. A missing file yields an empty index.
func Open(path string) (*CalendarIndex, error) {
	idx := &CalendarIndex{
		Mappings: make(map[string]string),
		Path:     path,
	}
	if err := idx.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return idx, nil
}

func (idx *CalendarIndex) Load() error {
	f, err := os.Open(idx.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	idx.mu.Lock()
	defer idx.mu.Unlock()
	mappings := make(map[string]string)
	if err := json.NewDecoder(f).Decode(&mappings); err != nil {
		return err
	}
	idx.Mappings = mappings
	return nil
}

// Save writes the index if anything changed since the last load or save.
func (idx *CalendarIndex) Save() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if !idx.dirty {
		return nil
	}

	dir := filepath.Dir(idx.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	f, err := os.OpenFile(idx.Path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(idx.Mappings); err != nil {
		return err
	}
	idx.dirty = false
	return nil
}

func (idx *CalendarIndex) Get(name string) string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.Mappings[name]
}

func (idx *CalendarIndex) Set(name, calendarID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.Mappings[name] != calendarID {
		idx.Mappings[name] = calendarID
		idx.dirty = true
	}
}

// Remove drops a stale mapping, e.g. after the calendar was deleted.
func (idx *CalendarIndex) Remove(name string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, exists := idx.Mappings[name]; exists {
		delete(idx.Mappings, name)
		idx.dirty = true
	}
}
