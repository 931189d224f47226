// Package history keeps the list of recently searched cities.
package history

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/i474232898/weather-search/internal/store"
	"github.com/i474232898/weather-search/internal/weather"
)

const (
	// Key is the single persisted key holding the JSON encoded list.
	Key = "recentSearches"
	// MaxEntries bounds the list length.
	MaxEntries = 5
)

// Store is an ordered, case-insensitively unique, most-recent-first list of
// city names backed by a key/value store. It never reports errors to callers:
// unreadable state loads as empty and failed writes keep the in-memory list.
type Store struct {
	kv     store.KV
	logger *slog.Logger

	mu      sync.Mutex
	entries []string
	loaded  bool
}

// New creates a history Store on kv.
func New(kv store.KV, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{kv: kv, logger: logger}
}

var _ weather.History = (*Store)(nil)

// Load returns the persisted list. Any read or parse failure yields an empty list.
func (s *Store) Load() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = s.read()
	s.loaded = true
	return clone(s.entries)
}

// Record moves city to the front, dropping any case-insensitive duplicate,
// truncates to MaxEntries, persists and returns the new list. Blank cities
// leave the list unchanged.
func (s *Store) Record(city weather.CityQuery) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		s.entries = s.read()
		s.loaded = true
	}
	if city.IsEmpty() {
		return clone(s.entries)
	}

	next := make([]string, 0, MaxEntries)
	next = append(next, city.String())
	for _, e := range s.entries {
		if len(next) == MaxEntries {
			break
		}
		if city.Equal(weather.CityQuery(e)) {
			continue
		}
		next = append(next, e)
	}
	s.entries = next

	if err := s.write(next); err != nil {
		s.logger.Warn("failed to persist search history", "error", err)
	}
	return clone(next)
}

func (s *Store) read() []string {
	if s.kv == nil {
		return []string{}
	}

	data, err := s.kv.Get(Key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("failed to read search history", "error", err)
		}
		return []string{}
	}

	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.Warn("discarding unreadable search history", "error", err)
		return []string{}
	}
	return sanitize(raw)
}

func (s *Store) write(entries []string) error {
	if s.kv == nil {
		return nil
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return s.kv.Set(Key, data)
}

// sanitize enforces the list invariants on data read from disk.
func sanitize(raw []string) []string {
	out := make([]string, 0, MaxEntries)
	seen := make(map[string]struct{}, len(raw))
	for _, e := range raw {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		k := strings.ToLower(e)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, e)
		if len(out) == MaxEntries {
			break
		}
	}
	return out
}

func clone(in []string) []string {
	return append(make([]string, 0, len(in)), in...)
}
