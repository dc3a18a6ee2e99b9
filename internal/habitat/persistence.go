package habitat

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
)

// HistoryEntry records the state of one completed cycle for later inspection.
type HistoryEntry struct {
	Cycle     int                 `json:"cycle"`
	Summary   []CycleSummaryEntry `json:"summary"`
	Organisms []OrganismUpdate    `json:"organisms"`
}

// HistoryStore persists per-cycle history. Appending an entry for a cycle
// that already exists replaces the earlier record.
type HistoryStore interface {
	Append(entry HistoryEntry) error
	Entries() ([]HistoryEntry, error)
	Clear() error
}

// FileHistoryStore keeps the cycle history as a JSON array on disk.
// A corrupt or missing file reads as an empty history rather than an error,
// so a damaged log never wedges the simulation.
type FileHistoryStore struct {
	mu   sync.Mutex
	path string
}

// NewFileHistoryStore creates a store backed by the given file path.
func NewFileHistoryStore(path string) *FileHistoryStore {
	return &FileHistoryStore{path: path}
}

// Append adds or replaces the record for entry.Cycle and rewrites the file.
// Entries are kept sorted by cycle index.
func (s *FileHistoryStore) Append(entry HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.readAll()
	filtered := history[:0]
	for _, item := range history {
		if item.Cycle != entry.Cycle {
			filtered = append(filtered, item)
		}
	}
	filtered = append(filtered, entry)
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].Cycle < filtered[j].Cycle })
	return s.writeAll(filtered)
}

// Entries returns all recorded cycles in ascending cycle order.
func (s *FileHistoryStore) Entries() ([]HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readAll(), nil
}

// Clear resets the history file to an empty array.
func (s *FileHistoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeAll([]HistoryEntry{})
}

func (s *FileHistoryStore) readAll() []HistoryEntry {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}
	var history []HistoryEntry
	if err := json.Unmarshal(data, &history); err != nil {
		return nil
	}
	return history
}

func (s *FileHistoryStore) writeAll(history []HistoryEntry) error {
	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	return nil
}

// MemoryHistoryStore is an in-memory HistoryStore, useful for tests and for
// running the engine without a writable disk.
type MemoryHistoryStore struct {
	mu      sync.Mutex
	entries []HistoryEntry
}

func NewMemoryHistoryStore() *MemoryHistoryStore {
	return &MemoryHistoryStore{}
}

func (s *MemoryHistoryStore) Append(entry HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	filtered := s.entries[:0]
	for _, item := range s.entries {
		if item.Cycle != entry.Cycle {
			filtered = append(filtered, item)
		}
	}
	s.entries = append(filtered, entry)
	sort.Slice(s.entries, func(i, j int) bool { return s.entries[i].Cycle < s.entries[j].Cycle })
	return nil
}

func (s *MemoryHistoryStore) Entries() ([]HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]HistoryEntry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

func (s *MemoryHistoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	return nil
}

// ErrNoHistory is returned by helpers that need at least one recorded cycle.
var ErrNoHistory = errors.New("no cycle history recorded")
