// Package registry persists the set of open timer windows together with the
// per-window preferences the timer face shows.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/1broseidon/floattimer/internal/platform"
)

// ErrUnknownEntry is returned when an id has no registry entry.
var ErrUnknownEntry = errors.New("no registry entry")

const (
	ModeCountdown = "countdown"
	ModeCountup   = "countup"
)

// Prefs are the front-end settings kept per window.
type Prefs struct {
	ThemeID  string `json:"themeId"`
	Title    string `json:"title"`
	Mode     string `json:"mode"`
	LastTime int    `json:"lastTime"`
}

// PrefsUpdate changes only the fields that are set.
type PrefsUpdate struct {
	ThemeID  *string `json:"themeId,omitempty"`
	Title    *string `json:"title,omitempty"`
	Mode     *string `json:"mode,omitempty"`
	LastTime *int    `json:"lastTime,omitempty"`
}

// Entry is one window in the registry file.
type Entry struct {
	platform.WindowRecord
	Prefs
}

type fileFormat struct {
	Windows []Entry `json:"windows"`
}

// Registry is a JSON-file-backed window registry. It is safe for
// concurrent use.
type Registry struct {
	path string

	mu       sync.Mutex
	defaults Prefs
	entries  map[string]Entry
}

// Open loads the registry at path. A missing file is an empty registry.
func Open(path string, defaults Prefs) (*Registry, error) {
	r := &Registry{
		path:     path,
		defaults: defaults,
		entries:  make(map[string]Entry),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}
	if len(data) == 0 {
		return r, nil
	}

	var file fileFormat
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse registry %s: %w", path, err)
	}
	for _, e := range file.Windows {
		if e.ID == "" {
			continue
		}
		r.entries[e.ID] = r.fillDefaults(e)
	}
	return r, nil
}

// Path returns the backing file.
func (r *Registry) Path() string {
	return r.path
}

// SetDefaults changes the prefs given to windows registered from now on.
func (r *Registry) SetDefaults(p Prefs) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaults = p
}

// Entries returns all entries sorted by id.
func (r *Registry) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sortedLocked()
}

// Records returns the geometry of every entry, sorted by id.
func (r *Registry) Records() []platform.WindowRecord {
	entries := r.Entries()
	out := make([]platform.WindowRecord, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.WindowRecord)
	}
	return out
}

// Get returns the entry for id.
func (r *Registry) Get(id string) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	return e, ok
}

// Upsert registers a window. A new entry starts with the default prefs; an
// existing one keeps its prefs and takes the new geometry. A record without
// a position keeps the stored one.
func (r *Registry) Upsert(rec platform.WindowRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[rec.ID]
	if !ok {
		e = Entry{Prefs: r.defaults}
	}
	e.ID = rec.ID
	if rec.X != nil && rec.Y != nil {
		e.X, e.Y = rec.X, rec.Y
	}
	if rec.Width > 0 && rec.Height > 0 {
		e.Width, e.Height = rec.Width, rec.Height
	}
	r.entries[rec.ID] = e
	return r.saveLocked()
}

// UpdateGeometry refreshes the geometry of entries that already exist. The
// file is only rewritten when something changed.
func (r *Registry) UpdateGeometry(recs []platform.WindowRecord) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	changed := false
	for _, rec := range recs {
		e, ok := r.entries[rec.ID]
		if !ok {
			continue
		}
		if sameGeometry(e.WindowRecord, rec) {
			continue
		}
		e.WindowRecord = rec
		r.entries[rec.ID] = e
		changed = true
	}
	if !changed {
		return false, nil
	}
	return true, r.saveLocked()
}

// SetPrefs applies update to the entry for id.
func (r *Registry) SetPrefs(id string, update PrefsUpdate) (Entry, error) {
	if update.Mode != nil && *update.Mode != ModeCountdown && *update.Mode != ModeCountup {
		return Entry{}, fmt.Errorf("mode must be %q or %q, got %q", ModeCountdown, ModeCountup, *update.Mode)
	}
	if update.LastTime != nil && *update.LastTime < 0 {
		return Entry{}, fmt.Errorf("lastTime must be >= 0")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnknownEntry, id)
	}
	if update.ThemeID != nil {
		e.ThemeID = *update.ThemeID
	}
	if update.Title != nil {
		e.Title = *update.Title
	}
	if update.Mode != nil {
		e.Mode = *update.Mode
	}
	if update.LastTime != nil {
		e.LastTime = *update.LastTime
	}
	r.entries[id] = e
	return e, r.saveLocked()
}

// Remove deletes the entry for id. It reports whether an entry existed.
func (r *Registry) Remove(id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; !ok {
		return false, nil
	}
	delete(r.entries, id)
	return true, r.saveLocked()
}

// Retain drops every entry whose id is not in live, except the ids in keep.
func (r *Registry) Retain(live []string, keep ...string) ([]string, error) {
	alive := make(map[string]struct{}, len(live)+len(keep))
	for _, id := range live {
		alive[id] = struct{}{}
	}
	for _, id := range keep {
		alive[id] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []string
	for id := range r.entries {
		if _, ok := alive[id]; ok {
			continue
		}
		delete(r.entries, id)
		removed = append(removed, id)
	}
	if len(removed) == 0 {
		return nil, nil
	}
	sort.Strings(removed)
	return removed, r.saveLocked()
}

// Save writes the registry to disk.
func (r *Registry) Save() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saveLocked()
}

func (r *Registry) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return fmt.Errorf("failed to create registry directory: %w", err)
	}

	data, err := json.MarshalIndent(fileFormat{Windows: r.sortedLocked()}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode registry: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".windows-*.json")
	if err != nil {
		return fmt.Errorf("failed to write registry: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write registry: %w", err)
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace registry: %w", err)
	}
	return nil
}

func (r *Registry) sortedLocked() []Entry {
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Registry) fillDefaults(e Entry) Entry {
	if e.ThemeID == "" {
		e.ThemeID = r.defaults.ThemeID
	}
	if e.Title == "" {
		e.Title = r.defaults.Title
	}
	if e.Mode == "" {
		e.Mode = r.defaults.Mode
	}
	return e
}

func sameGeometry(a, b platform.WindowRecord) bool {
	return a.Width == b.Width && a.Height == b.Height && eqInt(a.X, b.X) && eqInt(a.Y, b.Y)
}

func eqInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
