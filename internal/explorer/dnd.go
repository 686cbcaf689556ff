package explorer

import (
	"github.com/spacedriveapp/spacedrive-sub003/pkg/models"
)

// DragPayload describes an in-progress drag gesture. Unlike the cut/copy
// Intent it carries no copy-or-cut choice: the drop handler infers the
// operation from the drop target. It lives only for the gesture and is
// cleared on drop or cancel.
type DragPayload struct {
	Items []models.ExplorerItem

	// SourcePath is the directory the drag started in: location-relative
	// when SourceLocationID is set, absolute otherwise.
	SourcePath string

	SourceLocationID int32 // 0 = drag did not start in an indexed location
	SourceTagID      int32 // 0 = drag did not start in a tag view
}

// DragFromContext builds a payload for items dragged out of a listing.
func DragFromContext(pc models.ParentContext, items []models.ExplorerItem) DragPayload {
	drag := DragPayload{Items: items, SourcePath: pc.Path()}
	switch pc.Kind {
	case models.ParentLocation:
		drag.SourceLocationID = pc.LocationID
	case models.ParentTag:
		drag.SourceTagID = pc.TagID
	}
	return drag
}

// DropKind discriminates the DropTarget union.
type DropKind int

const (
	DropOnLocation DropKind = iota
	DropOnItem
	DropOnTag
)

// LocationDrop is a drop onto a location root or a directory within one.
// LocationID is zero when the root has no backing Location record, in
// which case RootPath alone addresses the destination.
type LocationDrop struct {
	LocationID   int32
	RootPath     string // absolute path of the root
	RelativePath string // directory within the root, "/" for the root itself
}

// DropTarget is the tagged union of everything a drag can land on.
// Exactly one variant field is meaningful, matching Kind.
type DropTarget struct {
	Kind     DropKind
	Location *LocationDrop
	Item     *models.ExplorerItem
	TagID    int32
}

// LocationTarget returns a drop on a (possibly unregistered) location root.
func LocationTarget(ld LocationDrop) DropTarget {
	ld.RelativePath = models.NormalizeDir(ld.RelativePath)
	return DropTarget{Kind: DropOnLocation, Location: &ld}
}

// ItemTarget returns a drop on another explorer item.
func ItemTarget(it models.ExplorerItem) DropTarget {
	return DropTarget{Kind: DropOnItem, Item: &it}
}

// TagTargetDrop returns a drop on a tag.
func TagTargetDrop(tagID int32) DropTarget {
	return DropTarget{Kind: DropOnTag, TagID: tagID}
}
