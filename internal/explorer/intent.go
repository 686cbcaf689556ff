package explorer

import (
	"sync"

	"github.com/spacedriveapp/spacedrive-sub003/pkg/models"
)

// IntentKind is the state of the pending transfer intent.
type IntentKind int

const (
	IntentIdle IntentKind = iota
	IntentCopy
	IntentCut
)

// String returns the user-facing action name.
func (k IntentKind) String() string {
	switch k {
	case IntentCopy:
		return "Copy"
	case IntentCut:
		return "Cut"
	default:
		return "Idle"
	}
}

// IndexedSources addresses cut/copy sources inside one location.
type IndexedSources struct {
	LocationID  int32
	FilePathIDs []int32
}

// EphemeralSources addresses cut/copy sources by absolute path.
type EphemeralSources struct {
	Paths []string
}

// Intent is the single pending cut/copy selection awaiting a paste.
// Indexed and Ephemeral are mutually exclusive; both may be absent when
// nothing in the captured selection was transferable.
type Intent struct {
	Kind         IntentKind
	SourceParent models.ParentContext // listing the intent was captured from
	Indexed      *IndexedSources
	Ephemeral    *EphemeralSources
}

// Empty reports whether the intent carries no transferable sources.
func (i Intent) Empty() bool {
	return (i.Indexed == nil || len(i.Indexed.FilePathIDs) == 0) &&
		(i.Ephemeral == nil || len(i.Ephemeral.Paths) == 0)
}

// IntentStore holds at most one pending transfer intent, process-wide.
// Setting a new intent silently discards the previous one: single-clipboard
// semantics, not a stack.
type IntentStore struct {
	mu      sync.Mutex
	current Intent
}

// NewIntentStore creates an idle store.
func NewIntentStore() *IntentStore {
	return &IntentStore{current: Intent{Kind: IntentIdle}}
}

// Set overwrites any existing intent unconditionally.
func (s *IntentStore) Set(i Intent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = i
}

// Clear resets the store to idle.
func (s *IntentStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = Intent{Kind: IntentIdle}
}

// Peek returns a read-only snapshot of the pending intent.
func (s *IntentStore) Peek() Intent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}
