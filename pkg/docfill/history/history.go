// Package history remembers the values users entered for fields marked rememberValues, so
// they can be offered again as suggestions.
package history

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/benjaminschreck/go-docfill/pkg/docfill"
	"github.com/benjaminschreck/go-docfill/pkg/docfill/catalog"
)

// MaxPerField is the number of values kept per field.
const MaxPerField = 50

// Store holds recent values per field ID, most recent first, persisted as a YAML file.
// A Store is safe for concurrent use.
type Store struct {
	path   string
	logger *docfill.Logger

	mu     sync.Mutex
	values map[string][]string
}

// Open loads the history at path. A missing file gives an empty store; a file that cannot
// be parsed is logged and ignored, and is overwritten by the next change.
func Open(path string, logger *docfill.Logger) (*Store, error) {
	if logger == nil {
		logger = docfill.GetLogger()
	}
	s := &Store{path: path, logger: logger, values: make(map[string][]string)}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Debug("no history at %s, starting empty", path)
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("history: read %s: %w", path, err)
	}

	var loaded map[string][]string
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		logger.Warn("ignoring unreadable history %s: %v", path, err)
		return s, nil
	}
	for id, vs := range loaded {
		if len(vs) > 0 {
			s.values[id] = vs
		}
	}
	logger.Info("history loaded: %d fields", len(s.values))
	return s, nil
}

// Add records value for fieldID. Blank values are ignored. The value is trimmed and moved to
// the front if already present.
func (s *Store) Add(fieldID, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.add(fieldID, value) {
		return nil
	}
	return s.save()
}

func (s *Store) add(fieldID, value string) bool {
	value = strings.TrimSpace(value)
	if fieldID == "" || value == "" {
		return false
	}
	vs := slices.DeleteFunc(s.values[fieldID], func(v string) bool { return v == value })
	vs = slices.Insert(vs, 0, value)
	if len(vs) > MaxPerField {
		vs = vs[:MaxPerField]
	}
	s.values[fieldID] = vs
	return true
}

// Remember records the values of every field of cat that has RememberValues set. values is
// keyed by placeholder; tokens that belong to no field are ignored.
func (s *Store) Remember(cat catalog.Catalog, values catalog.Values) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for _, token := range slices.Sorted(maps.Keys(values)) {
		f, ok := cat.FieldByPlaceholder(token)
		if !ok || !f.RememberValues {
			continue
		}
		if s.add(f.ID, values[token]) {
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.save()
}

// Values returns the remembered values of fieldID, most recent first.
func (s *Store) Values(fieldID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.values[fieldID])
}

// All returns a copy of the whole history.
func (s *Store) All() map[string][]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string][]string, len(s.values))
	for id, vs := range s.values {
		out[id] = slices.Clone(vs)
	}
	return out
}

// Remove deletes value from the history of fieldID. It reports whether the value was there.
func (s *Store) Remove(fieldID, value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vs := s.values[fieldID]
	i := slices.Index(vs, value)
	if i < 0 {
		return false, nil
	}
	vs = slices.Delete(vs, i, i+1)
	if len(vs) == 0 {
		delete(s.values, fieldID)
	} else {
		s.values[fieldID] = vs
	}
	return true, s.save()
}

// save writes the history through a temporary file in the same directory. s.mu must be held.
func (s *Store) save() error {
	data, err := yaml.Marshal(s.values)
	if err != nil {
		return fmt.Errorf("history: encode: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("history: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".history-*")
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("history: write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("history: write %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("history: %w", err)
	}
	return nil
}
