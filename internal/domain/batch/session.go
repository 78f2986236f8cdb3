package batch

import (
	"slices"

	"github.com/go-faster/errors"

	"github.com/xenking/vending-console/internal/domain/catalog"
)

// ErrInactive is returned by operations that need batch mode when it is off.
var ErrInactive = errors.New("batch mode is not active")

// Session tracks one operator's batch-mode state: the filter, the current
// selection and the outcome of the most recent apply or retry.
//
// A Session is not safe for concurrent use.
type Session struct {
	active    bool
	filter    Filter
	selected  map[catalog.ItemID]struct{}
	succeeded map[catalog.ItemID]struct{}
	failed    map[catalog.ItemID]string
}

// NewSession returns an idle session.
func NewSession() *Session {
	s := &Session{}
	s.reset()
	s.filter = AllItems
	return s
}

// Snapshot is a copy of the session state for rendering. Id slices are
// sorted ascending.
type Snapshot struct {
	Active    bool
	Filter    Filter
	Selected  []catalog.ItemID
	Succeeded []catalog.ItemID
	Failed    map[catalog.ItemID]string
}

// Snapshot copies the current state.
func (s *Session) Snapshot() Snapshot {
	failed := make(map[catalog.ItemID]string, len(s.failed))
	for id, reason := range s.failed {
		failed[id] = reason
	}
	return Snapshot{
		Active:    s.active,
		Filter:    s.filter,
		Selected:  sortedIDs(s.selected),
		Succeeded: sortedIDs(s.succeeded),
		Failed:    failed,
	}
}

// Active reports whether batch mode is on.
func (s *Session) Active() bool { return s.active }

// Filter returns the current scope and keyword.
func (s *Session) Filter() Filter { return s.filter }

// Toggle switches batch mode on or off. Both transitions drop the selection
// and every outcome annotation; entering also resets the filter.
func (s *Session) Toggle() bool {
	s.active = !s.active
	s.reset()
	if s.active {
		s.filter = AllItems
	}
	return s.active
}

// SetScope changes the category scope. Selection is kept.
func (s *Session) SetScope(category string) error {
	if !s.active {
		return ErrInactive
	}
	if category == "" {
		category = catalog.ScopeAll
	}
	s.filter.Category = category
	return nil
}

// SetKeyword changes the keyword filter. Selection is kept.
func (s *Session) SetKeyword(keyword string) error {
	if !s.active {
		return ErrInactive
	}
	s.filter.Keyword = keyword
	return nil
}

// SetSelected replaces the selection.
func (s *Session) SetSelected(ids []catalog.ItemID) error {
	if !s.active {
		return ErrInactive
	}
	next := make(map[catalog.ItemID]struct{}, len(ids))
	for _, id := range ids {
		next[id] = struct{}{}
	}
	for id := range s.selected {
		if _, ok := next[id]; !ok {
			s.deselect(id)
		}
	}
	for id := range next {
		s.selectID(id)
	}
	return nil
}

// Select adds or removes a single item.
func (s *Session) Select(id catalog.ItemID, on bool) error {
	if !s.active {
		return ErrInactive
	}
	if on {
		s.selectID(id)
	} else {
		s.deselect(id)
	}
	return nil
}

// ToggleSelectAll selects or deselects exactly the given visible items.
// Selections outside visible are left alone.
func (s *Session) ToggleSelectAll(visible []catalog.Item, on bool) error {
	if !s.active {
		return ErrInactive
	}
	for _, it := range visible {
		if on {
			s.selectID(it.ID)
		} else {
			s.deselect(it.ID)
		}
	}
	return nil
}

// targets returns the selected items among visible, in visible order.
func (s *Session) targets(visible []catalog.Item) []catalog.Item {
	return pick(visible, func(id catalog.ItemID) bool {
		_, ok := s.selected[id]
		return ok
	})
}

// failedTargets returns the failed items among visible, in visible order.
func (s *Session) failedTargets(visible []catalog.Item) []catalog.Item {
	return pick(visible, func(id catalog.ItemID) bool {
		_, ok := s.failed[id]
		return ok
	})
}

func (s *Session) recordSuccess(id catalog.ItemID) {
	delete(s.selected, id)
	delete(s.failed, id)
	s.succeeded[id] = struct{}{}
}

func (s *Session) recordFailure(id catalog.ItemID, reason string) {
	s.selected[id] = struct{}{}
	delete(s.succeeded, id)
	s.failed[id] = reason
}

func (s *Session) selectID(id catalog.ItemID) {
	s.selected[id] = struct{}{}
	delete(s.succeeded, id)
}

func (s *Session) deselect(id catalog.ItemID) {
	delete(s.selected, id)
	delete(s.failed, id)
}

func (s *Session) reset() {
	s.selected = make(map[catalog.ItemID]struct{})
	s.succeeded = make(map[catalog.ItemID]struct{})
	s.failed = make(map[catalog.ItemID]string)
}

func pick(items []catalog.Item, keep func(catalog.ItemID) bool) []catalog.Item {
	var out []catalog.Item
	for _, it := range items {
		if keep(it.ID) {
			out = append(out, it)
		}
	}
	return out
}

func sortedIDs(set map[catalog.ItemID]struct{}) []catalog.ItemID {
	ids := make([]catalog.ItemID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
