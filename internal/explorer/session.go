package explorer

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/atotto/clipboard"
	"github.com/spacedriveapp/spacedrive-sub003/internal/logging"
	"github.com/spacedriveapp/spacedrive-sub003/internal/notify"
	"github.com/spacedriveapp/spacedrive-sub003/pkg/models"
	"github.com/spacedriveapp/spacedrive-sub003/pkg/protocol"
	"go.uber.org/zap"
)

// Backend is everything the session needs from the server client.
type Backend interface {
	Mutator
	PathQuerier
	Locations(ctx context.Context) ([]models.Location, error)
	Tags(ctx context.Context) ([]models.Tag, error)
	DirectoryListing(ctx context.Context, locationID int32, relativeDir string) ([]models.ExplorerItem, error)
	EphemeralListing(ctx context.Context, dir string) ([]models.ExplorerItem, error)
	TagListing(ctx context.Context, tagID int32) ([]models.ExplorerItem, error)
}

// Session is one explorer view: the current listing, its selection, the
// process-wide cut/copy intent, and the machinery to dispatch transfers.
// All methods are safe for concurrent use.
type Session struct {
	backend    Backend
	selection  *Selection
	intents    *IntentStore
	resolver   *Resolver
	classifier *Classifier
	dispatcher *Dispatcher
	notifier   notify.Notifier
	hub        *InvalidationHub

	mu        sync.RWMutex
	locations map[int32]models.Location
	items     []models.ExplorerItem
}

// NewSession wires a session around a backend client. The intent store is
// shared: passing the same store to several sessions gives them one
// clipboard, which is how cut-then-navigate-then-paste works.
func NewSession(backend Backend, intents *IntentStore, resolver *Resolver, notifier notify.Notifier, hub *InvalidationHub) *Session {
	if notifier == nil {
		notifier = notify.Log{}
	}
	s := &Session{
		backend:   backend,
		selection: NewSelection(),
		intents:   intents,
		resolver:  resolver,
		notifier:  notifier,
		hub:       hub,
		locations: make(map[int32]models.Location),
	}
	s.classifier = NewClassifier(s.locationPath)
	s.dispatcher = NewDispatcher(backend, resolver, notifier, s.locationPath)
	return s
}

// Selection exposes the live selection of the current listing.
func (s *Session) Selection() *Selection { return s.selection }

// Intents exposes the shared cut/copy intent store.
func (s *Session) Intents() *IntentStore { return s.intents }

// Dispatcher exposes the transfer dispatcher, mainly for direct CLI use.
func (s *Session) Dispatcher() *Dispatcher { return s.dispatcher }

// Context returns the context of the current listing.
func (s *Session) Context() models.ParentContext { return s.selection.Context() }

// Items returns a snapshot of the current listing.
func (s *Session) Items() []models.ExplorerItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ExplorerItem, len(s.items))
	copy(out, s.items)
	return out
}

// RefreshLocations reloads the location table backing root-path lookups.
func (s *Session) RefreshLocations(ctx context.Context) error {
	locs, err := s.backend.Locations(ctx)
	if err != nil {
		return fmt.Errorf("refresh locations: %w", err)
	}
	s.mu.Lock()
	s.locations = make(map[int32]models.Location, len(locs))
	for _, l := range locs {
		s.locations[l.ID] = l
	}
	s.mu.Unlock()
	return nil
}

// LocationByName finds a location by name, case-insensitively.
func (s *Session) LocationByName(name string) (models.Location, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.locations {
		if strings.EqualFold(l.Name, name) {
			return l, true
		}
	}
	return models.Location{}, false
}

func (s *Session) locationPath(id int32) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.locations[id]
	if !ok || l.Path == "" {
		return "", false
	}
	return l.Path, true
}

// Navigate loads a listing and makes it the current context. The selection
// is cleared; the pending intent, if any, survives navigation.
func (s *Session) Navigate(ctx context.Context, pc models.ParentContext) error {
	var items []models.ExplorerItem
	var err error
	switch pc.Kind {
	case models.ParentLocation:
		items, err = s.backend.DirectoryListing(ctx, pc.LocationID, pc.RelativeDir)
	case models.ParentEphemeral:
		items, err = s.backend.EphemeralListing(ctx, pc.DirectoryPath)
	case models.ParentTag:
		items, err = s.backend.TagListing(ctx, pc.TagID)
	default:
		err = fmt.Errorf("cannot list %s view", pc)
	}
	if err != nil {
		return fmt.Errorf("navigate to %s: %w", pc, err)
	}

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	s.selection.SetContext(pc)
	logging.Debug("navigated", zap.String("context", pc.String()), zap.Int("items", len(items)))
	return nil
}

// Refresh refetches the current listing without touching the selection
// context (selected items that vanished are pruned).
func (s *Session) Refresh(ctx context.Context) error {
	pc := s.selection.Context()
	var items []models.ExplorerItem
	var err error
	switch pc.Kind {
	case models.ParentLocation:
		items, err = s.backend.DirectoryListing(ctx, pc.LocationID, pc.RelativeDir)
	case models.ParentEphemeral:
		items, err = s.backend.EphemeralListing(ctx, pc.DirectoryPath)
	case models.ParentTag:
		items, err = s.backend.TagListing(ctx, pc.TagID)
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("refresh %s: %w", pc, err)
	}

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()

	present := make(map[string]bool, len(items))
	for _, it := range items {
		present[itemKey(it)] = true
	}
	for _, it := range s.selection.Items() {
		if !present[itemKey(it)] {
			s.selection.Remove(it)
		}
	}
	return nil
}

// Copy captures the current selection as a pending copy intent.
func (s *Session) Copy() error { return s.capture(IntentCopy) }

// Cut captures the current selection as a pending cut intent.
func (s *Session) Cut() error { return s.capture(IntentCut) }

// capture snapshots the selection into the shared intent store, replacing
// whatever intent was pending before.
func (s *Session) capture(kind IntentKind) error {
	items := s.selection.Items()
	if len(items) == 0 {
		return fmt.Errorf("nothing selected")
	}
	pc := s.selection.Context()

	intent := Intent{Kind: kind, SourceParent: pc}
	switch pc.Kind {
	case models.ParentLocation:
		ids, skipped := PartitionIndexed(items, pc.LocationID)
		s.reportSkipped(skipped)
		if len(ids) == 0 {
			return fmt.Errorf("selection has no transferable items")
		}
		intent.Indexed = &IndexedSources{LocationID: pc.LocationID, FilePathIDs: ids}
	case models.ParentEphemeral:
		paths, skipped := PartitionEphemeral(items)
		s.reportSkipped(skipped)
		if len(paths) == 0 {
			return fmt.Errorf("selection has no transferable items")
		}
		intent.Ephemeral = &EphemeralSources{Paths: paths}
	default:
		return fmt.Errorf("cannot %s from %s view", strings.ToLower(kind.String()), pc)
	}

	s.intents.Set(intent)
	s.mirrorToClipboard(items)
	logging.Debug("intent captured",
		zap.String("kind", kind.String()),
		zap.Int("items", len(items)),
		zap.String("source", pc.String()))
	return nil
}

// mirrorToClipboard writes the selected names to the system clipboard so
// they can be pasted as text elsewhere. Best effort: headless machines
// have no clipboard and that is fine.
func (s *Session) mirrorToClipboard(items []models.ExplorerItem) {
	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.Name())
	}
	if err := clipboard.WriteAll(strings.Join(names, "\n")); err != nil {
		logging.Debug("clipboard mirror unavailable", zap.Error(err))
	}
}

// Paste dispatches the pending intent into the current listing. The intent
// is cleared once the mutation settles, success or failure; a same-place
// cut conflict leaves it pending.
func (s *Session) Paste(ctx context.Context) error {
	intent := s.intents.Peek()
	if intent.Kind == IntentIdle {
		return fmt.Errorf("nothing to paste")
	}
	dispatched, err := s.dispatcher.Paste(ctx, intent, s.selection.Context())
	if dispatched {
		s.intents.Clear()
	}
	return err
}

// CancelIntent discards the pending intent without dispatching.
func (s *Session) CancelIntent() { s.intents.Clear() }

// Duplicate copies the current selection into its own directory under a
// distinguishing name, without touching the pending intent.
func (s *Session) Duplicate(ctx context.Context) error {
	items := s.selection.Items()
	if len(items) == 0 {
		return fmt.Errorf("nothing selected")
	}
	pc := s.selection.Context()
	if pc.Kind != models.ParentLocation && pc.Kind != models.ParentEphemeral {
		return fmt.Errorf("cannot duplicate in %s view", pc)
	}
	drag := DragFromContext(pc, items)
	return s.dispatcher.Drop(ctx, drag, Route{Kind: RouteNone}, ActionDuplicate)
}

// Drop classifies and dispatches a drag of the given items from the
// current listing onto a target. Drops move by default; pass ActionCopy
// for a copy drag.
func (s *Session) Drop(ctx context.Context, items []models.ExplorerItem, target DropTarget, action Action) error {
	if len(items) == 0 {
		items = s.selection.Items()
	}
	if len(items) == 0 {
		return fmt.Errorf("nothing to drop")
	}
	drag := DragFromContext(s.selection.Context(), items)
	route, err := s.classifier.Classify(drag, target)
	if err != nil {
		s.notifier.Error(notify.Toast{Title: "Cannot drop here", Body: err.Error()})
		return err
	}
	return s.dispatcher.Drop(ctx, drag, route, action)
}

// AssignTag tags (or untags) the current selection.
func (s *Session) AssignTag(ctx context.Context, tagID int32, unassign bool) error {
	items := s.selection.Items()
	if len(items) == 0 {
		return fmt.Errorf("nothing selected")
	}
	return s.dispatcher.AssignTag(ctx, tagID, items, unassign)
}

// WatchInvalidations consumes an invalidation feed and refetches the
// current listing whenever an event concerns it. Blocks until the context
// ends or the feed closes.
func (s *Session) WatchInvalidations(ctx context.Context, events <-chan protocol.InvalidateEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if s.hub != nil {
				s.hub.Publish(ev)
			}
			if !Matches(ev, s.selection.Context()) {
				continue
			}
			if err := s.Refresh(ctx); err != nil {
				logging.Warn("refresh after invalidation failed", zap.Error(err))
			}
		}
	}
}

func (s *Session) reportSkipped(skipped []Skipped) {
	for _, sk := range skipped {
		logging.Debug("item skipped",
			zap.String("item", sk.Item.Name()),
			zap.String("reason", string(sk.Reason)))
	}
}
