package explorer

import (
	"fmt"
	"path"

	"github.com/spacedriveapp/spacedrive-sub003/pkg/models"
)

// RouteKind names the transfer route a drag/drop pair resolves to.
type RouteKind int

const (
	// RouteNone means classification found a valid target that equals the
	// source: the transfer is a no-op and nothing must be dispatched.
	RouteNone RouteKind = iota
	RouteEphemeralToEphemeral
	RouteTagToLocation
	RouteEphemeralToLocation
	RouteLocationToLocation
	RouteLocationToEphemeral
	RouteToTag
)

// String returns the route name used in logs and metrics labels.
func (k RouteKind) String() string {
	switch k {
	case RouteNone:
		return "none"
	case RouteEphemeralToEphemeral:
		return "ephemeral_to_ephemeral"
	case RouteTagToLocation:
		return "tag_to_location"
	case RouteEphemeralToLocation:
		return "ephemeral_to_location"
	case RouteLocationToLocation:
		return "location_to_location"
	case RouteLocationToEphemeral:
		return "location_to_ephemeral"
	case RouteToTag:
		return "to_tag"
	default:
		return fmt.Sprintf("RouteKind(%d)", int(k))
	}
}

// Route is a resolved transfer destination. Which fields are meaningful
// depends on Kind: indexed destinations carry the location id and relative
// directory, ephemeral destinations the absolute directory, tag drops the
// tag id.
type Route struct {
	Kind RouteKind

	TargetLocationID  int32
	TargetRelativeDir string
	TargetAbsoluteDir string
	TagID             int32
}

// LocationPathFunc resolves a location id to its absolute root path.
type LocationPathFunc func(id int32) (string, bool)

// Classifier resolves drag/drop pairs to transfer routes. It needs the
// location roots to compute absolute destination directories for routes
// that cross into or out of indexed space.
type Classifier struct {
	locationPath LocationPathFunc
}

// NewClassifier creates a classifier backed by a location root lookup.
func NewClassifier(locationPath LocationPathFunc) *Classifier {
	if locationPath == nil {
		locationPath = func(int32) (string, bool) { return "", false }
	}
	return &Classifier{locationPath: locationPath}
}

// Classify determines the transfer route for a drag landing on a drop
// target. Routes are evaluated top-down against the shapes of both sides;
// the first match wins. Identical source and destination yields RouteNone:
// the caller must abort without dispatching.
func (c *Classifier) Classify(drag DragPayload, drop DropTarget) (Route, error) {
	switch drop.Kind {
	case DropOnTag:
		return Route{Kind: RouteToTag, TagID: drop.TagID}, nil

	case DropOnItem:
		// An item target re-derives the effective location/ephemeral
		// destination from the item's own resolved directory.
		ld, ok := c.deriveItemDrop(*drop.Item)
		if !ok {
			return Route{}, fmt.Errorf("drop target %s has no destination directory", drop.Item.Kind)
		}
		return c.classifyLocation(drag, ld)

	case DropOnLocation:
		return c.classifyLocation(drag, *drop.Location)

	default:
		return Route{}, fmt.Errorf("unknown drop target kind %d", drop.Kind)
	}
}

func (c *Classifier) classifyLocation(drag DragPayload, ld LocationDrop) (Route, error) {
	relative := models.NormalizeDir(ld.RelativePath)

	// Roots without a backing Location record are plain filesystem space.
	if ld.LocationID == 0 {
		if ld.RootPath == "" {
			return Route{}, fmt.Errorf("unindexed drop target has no path")
		}
		absolute := joinAbsolute(ld.RootPath, relative)

		if drag.SourceLocationID == 0 && drag.SourceTagID == 0 {
			if models.NormalizeDir(drag.SourcePath) == absolute {
				return Route{Kind: RouteNone}, nil
			}
			return Route{Kind: RouteEphemeralToEphemeral, TargetAbsoluteDir: absolute}, nil
		}
		// Indexed or tag-view sources land in ephemeral space by
		// absolute path (resolved lazily at dispatch time).
		return Route{Kind: RouteLocationToEphemeral, TargetAbsoluteDir: absolute}, nil
	}

	rootPath := ld.RootPath
	if rootPath == "" {
		rootPath, _ = c.locationPath(ld.LocationID)
	}
	absolute := ""
	if rootPath != "" {
		absolute = joinAbsolute(rootPath, relative)
	}

	route := Route{
		TargetLocationID:  ld.LocationID,
		TargetRelativeDir: relative,
		TargetAbsoluteDir: absolute,
	}

	switch {
	case drag.SourceTagID != 0:
		route.Kind = RouteTagToLocation
	case drag.SourceLocationID == 0:
		route.Kind = RouteEphemeralToLocation
		if route.TargetAbsoluteDir == "" {
			return Route{}, fmt.Errorf("location %d root path unknown, cannot place ephemeral sources", ld.LocationID)
		}
	default:
		if drag.SourceLocationID == ld.LocationID &&
			models.NormalizeDir(drag.SourcePath) == relative {
			// Same location, same directory: a self-move would
			// truncate the file onto itself.
			return Route{Kind: RouteNone}, nil
		}
		route.Kind = RouteLocationToLocation
	}

	return route, nil
}

// deriveItemDrop turns an explorer item used as a drop target into the
// directory it stands for: the item itself when it is a directory, its
// parent otherwise.
func (c *Classifier) deriveItemDrop(it models.ExplorerItem) (LocationDrop, bool) {
	switch it.Kind {
	case models.KindPath:
		return c.filePathDrop(*it.FilePath), true
	case models.KindObject:
		if len(it.Object.FilePaths) == 0 {
			return LocationDrop{}, false
		}
		return c.filePathDrop(it.Object.FilePaths[0]), true
	case models.KindNonIndexedPath:
		dir := it.NonIndexed.Path
		if !it.NonIndexed.IsDir {
			dir = path.Dir(models.NormalizeDir(dir))
		}
		return LocationDrop{RootPath: dir, RelativePath: "/"}, true
	case models.KindLocation:
		return LocationDrop{
			LocationID:   it.Location.ID,
			RootPath:     it.Location.Path,
			RelativePath: "/",
		}, true
	default:
		return LocationDrop{}, false
	}
}

func (c *Classifier) filePathDrop(fp models.FilePath) LocationDrop {
	dir := fp.RelativeDir
	if fp.IsDir {
		dir = fp.RelativePath()
	}
	root, _ := c.locationPath(fp.LocationID)
	return LocationDrop{
		LocationID:   fp.LocationID,
		RootPath:     root,
		RelativePath: models.NormalizeDir(dir),
	}
}

// joinAbsolute joins a root path with a normalized relative directory.
func joinAbsolute(root, relative string) string {
	root = models.NormalizeDir(root)
	if relative == "" || relative == "/" {
		return root
	}
	return models.NormalizeDir(path.Join(root, relative))
}
