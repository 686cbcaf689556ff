// Package explorer implements the transfer orchestration layer of the file
// explorer: selection tracking, cut/copy intent, drop-target classification,
// and transfer dispatch against the backend.
package explorer

import (
	"fmt"
	"sync"

	"github.com/spacedriveapp/spacedrive-sub003/pkg/models"
)

// Selection tracks which items of the currently displayed listing are
// selected, together with the Parent Context the listing belongs to.
// It is view-session scoped: changing context clears it.
type Selection struct {
	mu      sync.RWMutex
	context models.ParentContext
	items   []models.ExplorerItem
	index   map[string]int
}

// NewSelection creates an empty selection for the Node overview.
func NewSelection() *Selection {
	return &Selection{
		context: models.NodeContext(),
		index:   make(map[string]int),
	}
}

// itemKey identifies an item across variants for membership checks.
func itemKey(it models.ExplorerItem) string {
	switch it.Kind {
	case models.KindPath:
		return fmt.Sprintf("p:%d", it.FilePath.ID)
	case models.KindObject:
		return fmt.Sprintf("o:%d", it.Object.ID)
	case models.KindNonIndexedPath:
		return "n:" + it.NonIndexed.Path
	case models.KindLocation:
		return fmt.Sprintf("l:%d", it.Location.ID)
	default:
		return ""
	}
}

// SetContext switches the selection to a new listing, clearing it.
func (s *Selection) SetContext(pc models.ParentContext) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.context = pc
	s.items = nil
	s.index = make(map[string]int)
}

// Context returns the active parent context.
func (s *Selection) Context() models.ParentContext {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.context
}

// Set replaces the selected set, keeping the caller's order.
func (s *Selection) Set(items []models.ExplorerItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.index = make(map[string]int)
	for _, it := range items {
		s.addLocked(it)
	}
}

// Add selects an item. Adding an already-selected item is a no-op.
func (s *Selection) Add(it models.ExplorerItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addLocked(it)
}

func (s *Selection) addLocked(it models.ExplorerItem) {
	key := itemKey(it)
	if key == "" {
		return
	}
	if _, ok := s.index[key]; ok {
		return
	}
	s.index[key] = len(s.items)
	s.items = append(s.items, it)
}

// Remove deselects an item.
func (s *Selection) Remove(it models.ExplorerItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := itemKey(it)
	pos, ok := s.index[key]
	if !ok {
		return
	}
	s.items = append(s.items[:pos], s.items[pos+1:]...)
	delete(s.index, key)
	for i := pos; i < len(s.items); i++ {
		s.index[itemKey(s.items[i])] = i
	}
}

// Toggle flips an item's selected state.
func (s *Selection) Toggle(it models.ExplorerItem) {
	if s.Contains(it) {
		s.Remove(it)
	} else {
		s.Add(it)
	}
}

// Contains reports whether an item is selected.
func (s *Selection) Contains(it models.ExplorerItem) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[itemKey(it)]
	return ok
}

// Items returns a snapshot of the selected items in selection order.
func (s *Selection) Items() []models.ExplorerItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ExplorerItem(nil), s.items...)
}

// Len returns the number of selected items.
func (s *Selection) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Clear deselects everything without changing the context.
func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.index = make(map[string]int)
}
