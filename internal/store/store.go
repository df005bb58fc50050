// Package store owns the canonical ordered rule collection. All reads and
// mutations go through a Store instance; nothing else touches the slice.
package store

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/cnlance/rulesd/internal/rule"
)

// Persister writes rule snapshots to durable storage and reads them back.
type Persister interface {
	Save(rules []rule.Rule) error
	Load() ([]rule.Rule, error)
}

// Store holds the in-memory rule collection. mu guards the collection and
// its revision; persistMu serializes disk writes so that concurrent
// mutations cannot land an older snapshot on top of a newer one.
type Store struct {
	mu       sync.Mutex
	rules    []rule.Rule
	revision uint64

	persistMu sync.Mutex
	persisted uint64

	persister Persister
}

// New creates an empty store backed by p.
func New(p Persister) *Store {
	return &Store{persister: p}
}

// Load creates a store from persisted state. A missing rules file yields an
// empty store; a file that exists but does not decode is an error, since
// silently starting empty would overwrite it on the next mutation.
func Load(p Persister) (*Store, error) {
	rules, err := p.Load()
	if err != nil {
		return nil, err
	}
	slog.Info("Rules loaded", slog.Int("count", len(rules)))
	return &Store{rules: rules, persister: p}, nil
}

// List returns a snapshot of the collection in insertion order, together
// with the revision it corresponds to.
func (s *Store) List() ([]rule.Rule, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.rules), s.revision
}

// Add validates the candidate, appends it if no equal rule exists, and
// persists the new snapshot. A persistence failure is returned but the
// in-memory append is kept; state may be ahead of disk until the next
// successful write.
func (s *Store) Add(r rule.Rule) error {
	if err := r.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if slices.Contains(s.rules, r) {
		s.mu.Unlock()
		return rule.ErrDuplicateRule
	}
	s.rules = append(s.rules, r)
	s.revision++
	snapshot := slices.Clone(s.rules)
	revision := s.revision
	s.mu.Unlock()

	slog.Debug("Rule added", slog.Any("rule", r), slog.Uint64("revision", revision))
	return s.persist(snapshot, revision)
}

// Remove deletes every element exactly equal to r. With add-time dedup that
// is 0 or 1 elements; removing nothing reports ErrRuleNotFound and does not
// persist.
func (s *Store) Remove(r rule.Rule) error {
	s.mu.Lock()
	before := len(s.rules)
	s.rules = slices.DeleteFunc(s.rules, func(existing rule.Rule) bool {
		return existing == r
	})
	if len(s.rules) == before {
		s.mu.Unlock()
		return rule.ErrRuleNotFound
	}
	s.revision++
	snapshot := slices.Clone(s.rules)
	revision := s.revision
	s.mu.Unlock()

	slog.Debug("Rule removed", slog.Any("rule", r), slog.Uint64("revision", revision))
	return s.persist(snapshot, revision)
}

// persist writes a snapshot under persistMu, which orders disk writes the
// same way the mutations were ordered. A snapshot older than what is
// already on disk is skipped: a concurrent later mutation has superseded
// it.
func (s *Store) persist(snapshot []rule.Rule, revision uint64) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	if revision <= s.persisted {
		slog.Debug("Skipping stale snapshot",
			slog.Uint64("revision", revision),
			slog.Uint64("persisted", s.persisted))
		return nil
	}
	if err := s.persister.Save(snapshot); err != nil {
		slog.Error("Failed to persist rules", slog.Any("error", err))
		return err
	}
	s.persisted = revision
	return nil
}
