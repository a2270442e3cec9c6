// Package history keeps named snapshots of scored plans and the baseline the
// summary statistics are compared against.
package history

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mbonsma/cyclelinx/internal/model"
)

// Repository persists history items across sessions.
type Repository interface {
	Load(ctx context.Context) ([]model.HistoryItem, error)
	Insert(ctx context.Context, item model.HistoryItem) error
	Delete(ctx context.Context, name string) error
}

// Store holds saved plans in insertion order. When a Repository is attached
// every save and delete is written through before the in-memory state
// changes. Store is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	repo     Repository
	items    []model.HistoryItem
	active   string
	baseline model.ScoreResults
	now      func() time.Time
}

// New returns an empty store. repo may be nil for a session-only history.
func New(repo Repository) *Store {
	return &Store{repo: repo, now: time.Now}
}

// Open returns a store hydrated from repo.
func Open(ctx context.Context, repo Repository) (*Store, error) {
	s := New(repo)
	if repo == nil {
		return s, nil
	}
	items, err := repo.Load(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "history: load")
	}
	s.items = items
	zap.L().Debug("history: loaded items", zap.Int("count", len(items)))
	return s, nil
}

func (s *Store) indexOf(name string) int {
	return slices.IndexFunc(s.items, func(it model.HistoryItem) bool { return it.Name == name })
}

// Save stores a copy of the plan under name. Names are compared exactly and
// case-sensitively.
func (s *Store) Save(ctx context.Context, name string, improvements model.ProjectSet, scores model.ScoreResults) (model.HistoryItem, error) {
	if strings.TrimSpace(name) == "" {
		return model.HistoryItem{}, ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(name) >= 0 {
		return model.HistoryItem{}, eris.Wrapf(ErrDuplicateName, "history: save %q", name)
	}

	item := model.HistoryItem{
		Name:         name,
		Improvements: improvements.Sorted(),
		Scores:       scores.Clone(),
		CreatedAt:    s.now().UTC(),
	}
	if s.repo != nil {
		if err := s.repo.Insert(ctx, item); err != nil {
			return model.HistoryItem{}, eris.Wrapf(err, "history: save %q", name)
		}
	}
	s.items = append(s.items, item)
	return item.Clone(), nil
}

// Remove deletes the named item. Removing the active item clears the active
// marker.
func (s *Store) Remove(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(name)
	if i < 0 {
		return eris.Wrapf(ErrNotFound, "history: remove %q", name)
	}
	if s.repo != nil {
		if err := s.repo.Delete(ctx, name); err != nil {
			return eris.Wrapf(err, "history: remove %q", name)
		}
	}
	s.items = slices.Delete(s.items, i, i+1)
	if s.active == name {
		s.active = ""
	}
	return nil
}

// Restore returns a copy of the named item.
func (s *Store) Restore(name string) (model.HistoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(name)
	if i < 0 {
		return model.HistoryItem{}, eris.Wrapf(ErrNotFound, "history: restore %q", name)
	}
	return s.items[i].Clone(), nil
}

// List returns copies of all items in insertion order.
func (s *Store) List() []model.HistoryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.HistoryItem, len(s.items))
	for i, it := range s.items {
		out[i] = it.Clone()
	}
	return out
}

// Names returns item names in insertion order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.items))
	for i, it := range s.items {
		out[i] = it.Name
	}
	return out
}

// Len returns the number of saved items.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// SetActive marks the named item as the one on screen.
func (s *Store) SetActive(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(name) < 0 {
		return eris.Wrapf(ErrNotFound, "history: activate %q", name)
	}
	s.active = name
	return nil
}

// ClearActive clears the active marker.
func (s *Store) ClearActive() {
	s.mu.Lock()
	s.active = ""
	s.mu.Unlock()
}

// Active returns the active item name, or "" when none is active.
func (s *Store) Active() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// SetBaseline replaces the comparison baseline. Items are unaffected.
func (s *Store) SetBaseline(scores model.ScoreResults) {
	s.mu.Lock()
	s.baseline = scores.Clone()
	s.mu.Unlock()
}

// ResetBaseline reverts to comparing each area against its own original.
func (s *Store) ResetBaseline() {
	s.mu.Lock()
	s.baseline = nil
	s.mu.Unlock()
}

// Baseline returns a copy of the baseline, or nil when none is set.
func (s *Store) Baseline() model.ScoreResults {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.baseline.Clone()
}
