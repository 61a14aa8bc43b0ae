// Package urlstore manages the bounded, ordered list of saved stream URLs.
//
// The whole collection lives as one JSON array string under a single settings
// key. Mutations are read-modify-write, so the store serializes them behind
// one mutex; surfaces that run callers on separate goroutines (the HTTP API,
// MCP) share a Store safely without their own locking.
package urlstore

import (
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"github.com/mkarlsen/lenscap/internal/settings"
)

const (
	// Key is the settings key holding the serialized saved-stream record.
	Key = "saved_urls_v1"

	// MaxSaved caps the collection size. Inserting beyond the cap evicts the
	// oldest unpinned entry; if every slot is pinned the insert is refused.
	MaxSaved = 20
)

// Store reads and writes the saved-stream record.
type Store struct {
	mu       sync.Mutex
	settings settings.Store
}

// New creates a Store over the given settings capability.
func New(s settings.Store) *Store {
	return &Store{settings: s}
}

// Load deserializes the stored record. Malformed or missing data yields an
// empty list, never an error: the record may predate the current schema and
// losing it must not take the application down. Elements that fail to parse
// are skipped. The result is sorted descending by last-used timestamp and
// truncated to MaxSaved.
func (s *Store) Load() []SavedEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() []SavedEntry {
	raw, ok := s.settings.Get(Key)
	if !ok || strings.TrimSpace(raw) == "" {
		return []SavedEntry{}
	}

	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &elements); err != nil {
		return []SavedEntry{}
	}

	entries := make([]SavedEntry, 0, len(elements))
	for _, element := range elements {
		entry, err := parseEntry(element)
		if err != nil {
			continue
		}
		entries = append(entries, entry)
	}

	sortByRecency(entries)
	return capped(entries)
}

// Save serializes at most MaxSaved entries verbatim into the backing record.
func (s *Store) Save(entries []SavedEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(entries)
}

func (s *Store) save(entries []SavedEntry) error {
	serialized, err := json.Marshal(capped(entries))
	if err != nil {
		return err
	}
	return s.settings.Set(Key, string(serialized))
}

// MarkUsed records a use of url at timestampMs: existing entries get their
// timestamp bumped in place, unknown URLs are appended unpinned with an empty
// label. The returned blocked flag is true only when a brand-new URL could
// not be kept because every slot is pinned; the caller uses it to tell the
// user the URL was not saved.
func (s *Store) MarkUsed(url string, timestampMs int64) ([]SavedEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	normalized := strings.TrimSpace(url)
	if normalized == "" {
		return s.load(), false
	}

	entries := s.load()
	existing := -1
	for i := range entries {
		if entries[i].URL == normalized {
			existing = i
			break
		}
	}
	createdNew := existing < 0

	if existing >= 0 {
		entries[existing].LastUsedAt = timestampMs
	} else {
		entries = append(entries, SavedEntry{URL: normalized, LastUsedAt: timestampMs})
	}

	sortByRecency(entries)
	for len(entries) > MaxSaved {
		remove := oldestUnpinnedIndex(entries)
		if remove < 0 {
			break
		}
		entries = append(entries[:remove], entries[remove+1:]...)
	}

	blocked := createdNew
	for _, entry := range entries {
		if entry.URL == normalized {
			blocked = false
			break
		}
	}

	next := capped(entries)
	_ = s.save(next)
	return next, blocked
}

// Rename sets the label (trimmed) on the matching entry. Empty or unknown
// URLs are a no-op returning the current list.
func (s *Store) Rename(url, label string) []SavedEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	normalized := strings.TrimSpace(url)
	if normalized == "" {
		return s.load()
	}

	entries := s.load()
	for i := range entries {
		if entries[i].URL == normalized {
			entries[i].Label = strings.TrimSpace(label)
			_ = s.save(entries)
			return entries
		}
	}
	return entries
}

// SetPinned sets the pinned flag on the matching entry. Empty or unknown
// URLs are a no-op returning the current list.
func (s *Store) SetPinned(url string, pinned bool) []SavedEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	normalized := strings.TrimSpace(url)
	if normalized == "" {
		return s.load()
	}

	entries := s.load()
	for i := range entries {
		if entries[i].URL == normalized {
			entries[i].Pinned = pinned
			_ = s.save(entries)
			return entries
		}
	}
	return entries
}

// Delete removes the matching entry if present, persisting only when
// something was actually removed.
func (s *Store) Delete(url string) []SavedEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	normalized := strings.TrimSpace(url)
	if normalized == "" {
		return s.load()
	}

	entries := s.load()
	next := make([]SavedEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.URL != normalized {
			next = append(next, entry)
		}
	}
	if len(next) != len(entries) {
		_ = s.save(next)
	}
	return next
}

// ClearAll persists an empty record unconditionally.
func (s *Store) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.Set(Key, "[]")
}

// sortByRecency orders entries descending by last-used timestamp. The sort is
// stable so entries sharing a timestamp keep their relative positions, which
// is what the eviction tie-break relies on.
func sortByRecency(entries []SavedEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].LastUsedAt > entries[j].LastUsedAt
	})
}

// oldestUnpinnedIndex scans from the tail of the descending-sorted list for
// the first unpinned entry, i.e. the least recently used one that is allowed
// to be evicted. Returns -1 when every entry is pinned.
func oldestUnpinnedIndex(entries []SavedEntry) int {
	for i := len(entries) - 1; i >= 0; i-- {
		if !entries[i].Pinned {
			return i
		}
	}
	return -1
}

func capped(entries []SavedEntry) []SavedEntry {
	if entries == nil {
		return []SavedEntry{}
	}
	if len(entries) > MaxSaved {
		return entries[:MaxSaved]
	}
	return entries
}
