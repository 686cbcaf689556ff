package explorer

import (
	"github.com/spacedriveapp/spacedrive-sub003/internal/metrics"
	"github.com/spacedriveapp/spacedrive-sub003/pkg/models"
	"github.com/spacedriveapp/spacedrive-sub003/pkg/protocol"
)

// SkipReason explains why an item was excluded from a dispatch batch.
type SkipReason string

const (
	SkipNoAddress      SkipReason = "no resolvable address"
	SkipNotTaggable    SkipReason = "not taggable"
	SkipWrongLocation  SkipReason = "outside the source location"
	SkipNotIndexed     SkipReason = "not an indexed file"
	SkipNoAbsolutePath SkipReason = "no filesystem path"
)

// Skipped is an item excluded from a batch, with the reason, so the UI can
// tell the user instead of silently dropping it.
type Skipped struct {
	Item   models.ExplorerItem
	Reason SkipReason
}

func skip(skipped []Skipped, it models.ExplorerItem, reason SkipReason) []Skipped {
	metrics.RecordSkipped(string(reason))
	return append(skipped, Skipped{Item: it, Reason: reason})
}

// PartitionTaggable splits a mixed selection into tag-assign targets and
// skipped items. Only Object and Path items are taggable; Objects are
// addressed as objects, Paths by file-path id.
func PartitionTaggable(items []models.ExplorerItem) ([]protocol.TagTarget, []Skipped) {
	var targets []protocol.TagTarget
	var skipped []Skipped
	for _, it := range items {
		switch it.Kind {
		case models.KindObject:
			targets = append(targets, protocol.ObjectTarget(it.Object.ID))
		case models.KindPath:
			targets = append(targets, protocol.FilePathTarget(it.FilePath.ID))
		default:
			skipped = skip(skipped, it, SkipNotTaggable)
		}
	}
	return targets, skipped
}

// PartitionIndexed splits a selection into file-path ids belonging to the
// given location and skipped items. Object items contribute their
// representative path when it lives in that location.
func PartitionIndexed(items []models.ExplorerItem, locationID int32) ([]int32, []Skipped) {
	var ids []int32
	var skipped []Skipped
	for _, it := range items {
		addr, ok := Resolve(it)
		if !ok {
			skipped = skip(skipped, it, SkipNoAddress)
			continue
		}
		if addr.FilePath == nil {
			skipped = skip(skipped, it, SkipNotIndexed)
			continue
		}
		if addr.FilePath.LocationID != locationID {
			skipped = skip(skipped, it, SkipWrongLocation)
			continue
		}
		ids = append(ids, addr.FilePath.ID)
	}
	return ids, skipped
}

// PartitionEphemeral splits a selection into absolute source paths and
// skipped items. Only items that already carry an absolute path qualify;
// indexed items need the resolver first.
func PartitionEphemeral(items []models.ExplorerItem) ([]string, []Skipped) {
	var paths []string
	var skipped []Skipped
	for _, it := range items {
		addr, ok := Resolve(it)
		if !ok {
			skipped = skip(skipped, it, SkipNoAddress)
			continue
		}
		if addr.EphemeralPath == "" {
			skipped = skip(skipped, it, SkipNoAbsolutePath)
			continue
		}
		paths = append(paths, addr.EphemeralPath)
	}
	return paths, skipped
}

// GroupByLocation buckets transferable file-path ids by their owning
// location. An Object contributes every one of its paths, each under its
// own location, so an Object spanning locations joins every batch it
// belongs to. Items without an indexed address are returned in the second
// value. Bucket order follows first appearance so dispatch order is stable.
func GroupByLocation(items []models.ExplorerItem) (ids []int32, byLocation map[int32][]int32, skipped []Skipped) {
	byLocation = make(map[int32][]int32)
	add := func(fp models.FilePath) {
		if _, seen := byLocation[fp.LocationID]; !seen {
			ids = append(ids, fp.LocationID)
		}
		byLocation[fp.LocationID] = append(byLocation[fp.LocationID], fp.ID)
	}
	for _, it := range items {
		switch it.Kind {
		case models.KindPath:
			add(*it.FilePath)
		case models.KindObject:
			if len(it.Object.FilePaths) == 0 {
				skipped = skip(skipped, it, SkipNotIndexed)
				continue
			}
			for _, fp := range it.Object.FilePaths {
				add(fp)
			}
		default:
			if _, ok := Resolve(it); !ok {
				skipped = skip(skipped, it, SkipNoAddress)
				continue
			}
			skipped = skip(skipped, it, SkipNotIndexed)
		}
	}
	return ids, byLocation, skipped
}
