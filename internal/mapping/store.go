package mapping

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"sheetsync/internal/model"
)

// recordVersion is bumped when the on-disk record shape changes. A record
// with an unknown version is treated as absent, same as a malformed one.
const recordVersion = 1

// Record is the persisted per-table mapping, an explicit versioned shape
// rather than an opaque blob.
type Record struct {
	Version   int                 `json:"version"`
	Table     string              `json:"table"`
	Mapping   model.ColumnMapping `json:"mapping"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// Store persists column mappings keyed by destination table, one JSON file
// per table under dir. Reads go through an in-memory cache; an optional
// fsnotify watcher invalidates the cache when a file is edited externally.
type Store struct {
	dir     string
	mu      sync.RWMutex
	cache   map[string]model.ColumnMapping
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewStore creates the mapping directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create mapping dir: %w", err)
	}
	return &Store{
		dir:   dir,
		cache: make(map[string]model.ColumnMapping),
		done:  make(chan struct{}),
	}, nil
}

func (s *Store) path(table string) string {
	return filepath.Join(s.dir, table+".json")
}

// Load returns the saved mapping for table, or ok=false when none is
// stored. A malformed or future-versioned file is logged and treated as
// absent; callers fall back to a fresh auto-map.
func (s *Store) Load(table string) (model.ColumnMapping, bool) {
	s.mu.RLock()
	if m, ok := s.cache[table]; ok {
		s.mu.RUnlock()
		return m, true
	}
	s.mu.RUnlock()

	data, err := os.ReadFile(s.path(table))
	if err != nil {
		return nil, false
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		log.Printf("mapping store: ignoring malformed record for %s: %v", table, err)
		return nil, false
	}
	if rec.Version != recordVersion {
		log.Printf("mapping store: ignoring record for %s with unknown version %d", table, rec.Version)
		return nil, false
	}
	if rec.Mapping == nil {
		return nil, false
	}

	s.mu.Lock()
	s.cache[table] = rec.Mapping
	s.mu.Unlock()
	return rec.Mapping, true
}

// Save writes the mapping atomically (temp file + rename).
func (s *Store) Save(table string, m model.ColumnMapping) error {
	rec := Record{
		Version:   recordVersion,
		Table:     table,
		Mapping:   m,
		UpdatedAt: time.Now().UTC(),
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}

	target := s.path(table)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	s.mu.Lock()
	s.cache[table] = m
	s.mu.Unlock()
	return nil
}

// Resolve returns the mapping to use for table: the stored one when
// present, otherwise a fresh AutoMap over the given columns. Stored always
// wins over recomputation.
func (s *Store) Resolve(table string, destCols, sourceCols []string) model.ColumnMapping {
	if m, ok := s.Load(table); ok {
		return m
	}
	return AutoMap(destCols, sourceCols)
}

// Tables lists the destination tables that have a saved mapping.
func (s *Store) Tables() []string {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}
	var tables []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasSuffix(name, ".json") {
			tables = append(tables, strings.TrimSuffix(name, ".json"))
		}
	}
	return tables
}

// Watch invalidates cached mappings when their file changes on disk, so an
// external edit takes effect without a restart. Stop with Close.
func (s *Store) Watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := w.Add(s.dir); err != nil {
		w.Close()
		return fmt.Errorf("failed to watch mapping dir %s: %w", s.dir, err)
	}
	s.watcher = w

	go func() {
		for {
			select {
			case <-s.done:
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !strings.HasSuffix(ev.Name, ".json") {
					continue
				}
				table := strings.TrimSuffix(filepath.Base(ev.Name), ".json")
				s.mu.Lock()
				delete(s.cache, table)
				s.mu.Unlock()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Printf("mapping store: watcher error: %v", err)
			}
		}
	}()
	return nil
}

// Close stops the watcher, if one was started.
func (s *Store) Close() error {
	close(s.done)
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}
