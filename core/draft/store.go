// Package draft keeps crash-recovery snapshots of editor sessions.
//
// A snapshot maps form field names to their last known values and lives under
// one key per edit session. Snapshots are a best-effort buffer: reads never
// fail (bad data reads as "no draft") and writes from different processes to
// the same key are last-writer-wins.
package draft

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"trackdesk/logger"
)

const (
	// NewSessionKey holds the draft of a submission that has no document yet.
	NewSessionKey = "submission_page__new"
	// EditKeyPrefix prefixes drafts of edits to existing documents.
	EditKeyPrefix = "submission_page__edit__"
	// MaxEditSessions is how many edit drafts may pile up before eviction.
	MaxEditSessions = 2
)

// Snapshot is the stored state of one session, field name to JSON value.
type Snapshot map[string]json.RawMessage

// SessionKey derives the storage key of an edit session.
func SessionKey(isSubmitting bool, documentID string) string {
	if isSubmitting {
		return NewSessionKey
	}
	if documentID == "" {
		documentID = "none"
	}
	return EditKeyPrefix + documentID
}

// IsEditKey reports whether key belongs to an edit of an existing document.
func IsEditKey(key string) bool {
	return len(key) > len(EditKeyPrefix) && strings.HasPrefix(key, EditKeyPrefix)
}

// Store reads and writes snapshots through a KV backend.
type Store struct {
	kv KV
	// mu serialises read-modify-write cycles issued from this process.
	mu sync.Mutex
}

// NewStore wraps kv.
func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

// Load returns the snapshot stored under key, or nil when there is none or it
// cannot be read.
func (s *Store) Load(key string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(key)
}

func (s *Store) load(key string) Snapshot {
	raw, ok, err := s.kv.Get(key)
	if err != nil {
		logger.Warn("draft load failed", logger.String("key", key), logger.ErrorField(err))
		return nil
	}
	if !ok || raw == "" {
		return nil
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil || snap == nil {
		logger.Debug("discarding unreadable draft", logger.String("key", key))
		return nil
	}
	return snap
}

// Save merges patch into the snapshot under key. Fields absent from patch keep
// their stored values.
func (s *Store) Save(key string, patch map[string]any) error {
	if len(patch) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.load(key)
	if snap == nil {
		snap = Snapshot{}
	}
	for field, value := range patch {
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode draft field %q: %w", field, err)
		}
		snap[field] = raw
	}

	out, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode draft %q: %w", key, err)
	}
	if err := s.kv.Set(key, string(out)); err != nil {
		return fmt.Errorf("write draft %q: %w", key, err)
	}
	return nil
}

// Clear removes the snapshot under key.
func (s *Store) Clear(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Remove(key); err != nil {
		return fmt.Errorf("remove draft %q: %w", key, err)
	}
	return nil
}

// Has reports whether a non-empty value is stored under key.
func (s *Store) Has(key string) bool {
	raw, ok, err := s.kv.Get(key)
	return err == nil && ok && raw != ""
}

// Sessions lists the stored keys starting with prefix.
func (s *Store) Sessions(prefix string) ([]string, error) {
	return keysWithPrefix(s.kv, prefix)
}

// EvictStale deletes every session under prefix except keepKey once more than
// max of them are stored. It returns how many were removed.
func (s *Store) EvictStale(prefix, keepKey string, max int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := keysWithPrefix(s.kv, prefix)
	if err != nil {
		return 0, fmt.Errorf("list drafts: %w", err)
	}
	if len(keys) <= max {
		return 0, nil
	}

	removed := 0
	for _, k := range keys {
		if k == keepKey {
			continue
		}
		if err := s.kv.Remove(k); err != nil {
			return removed, fmt.Errorf("evict draft %q: %w", k, err)
		}
		removed++
	}
	logger.Info("evicted stale drafts",
		logger.String("prefix", prefix),
		logger.String("kept", keepKey),
		logger.Int("removed", removed))
	return removed, nil
}
