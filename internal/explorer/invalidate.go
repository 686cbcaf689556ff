package explorer

import (
	"strings"
	"sync"
	"time"

	"github.com/spacedriveapp/spacedrive-sub003/internal/metrics"
	"github.com/spacedriveapp/spacedrive-sub003/pkg/models"
	"github.com/spacedriveapp/spacedrive-sub003/pkg/protocol"
)

// InvalidationHub fans backend invalidation events out to listing views.
// Each subscriber gets its own buffered channel; slow subscribers lose
// events rather than stall the feed, which is safe because an invalidation
// only prompts a refetch.
type InvalidationHub struct {
	mu          sync.RWMutex
	subscribers map[chan protocol.InvalidateEvent]struct{}
}

// NewInvalidationHub creates an empty hub.
func NewInvalidationHub() *InvalidationHub {
	return &InvalidationHub{
		subscribers: make(map[chan protocol.InvalidateEvent]struct{}),
	}
}

// Subscribe adds a subscriber and returns its channel. The caller must
// call Unsubscribe when done.
func (h *InvalidationHub) Subscribe() chan protocol.InvalidateEvent {
	ch := make(chan protocol.InvalidateEvent, 64)
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (h *InvalidationHub) Unsubscribe(ch chan protocol.InvalidateEvent) {
	h.mu.Lock()
	delete(h.subscribers, ch)
	close(ch)
	h.mu.Unlock()
}

// Publish delivers an event to all subscribers without blocking.
func (h *InvalidationHub) Publish(ev protocol.InvalidateEvent) {
	if ev.Timestamp == 0 {
		ev.Timestamp = time.Now().Unix()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subscribers {
		select {
		case ch <- ev:
		default:
			// Slow subscriber, drop.
		}
	}
	metrics.RecordInvalidation(ev.Type)
}

// Count returns the current number of subscribers.
func (h *InvalidationHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Matches reports whether an event concerns the given listing context, so
// views can ignore invalidations for directories they are not showing. An
// event with no scope fields invalidates everything.
func Matches(ev protocol.InvalidateEvent, pc models.ParentContext) bool {
	switch {
	case ev.LocationID != 0:
		return pc.Kind == models.ParentLocation && pc.LocationID == ev.LocationID
	case ev.TagID != 0:
		return pc.Kind == models.ParentTag && pc.TagID == ev.TagID
	case ev.Path != "":
		if pc.Kind != models.ParentEphemeral {
			return false
		}
		// Prefix match on path components: /docs2 is not under /docs.
		p := models.NormalizeDir(ev.Path)
		return pc.DirectoryPath == "/" || p == pc.DirectoryPath ||
			strings.HasPrefix(p, pc.DirectoryPath+"/")
	default:
		return true
	}
}
