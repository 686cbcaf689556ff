package models

import "fmt"

// ParentKind discriminates the ParentContext union.
type ParentKind int

const (
	ParentLocation ParentKind = iota
	ParentEphemeral
	ParentTag
	ParentNode
)

// ParentContext describes which listing an explorer view is showing.
// Exactly one is active per view; it decides which address fields of the
// listed items are meaningful and which mutation family transfers use.
type ParentContext struct {
	Kind ParentKind

	// Location view
	LocationID int32
	// RelativeDir is the directory currently shown, relative to the
	// location root. "/" is the root itself.
	RelativeDir string

	// Ephemeral view: absolute directory path.
	DirectoryPath string

	// Tag view
	TagID int32
}

// LocationContext returns a Location parent context.
func LocationContext(locationID int32, relativeDir string) ParentContext {
	return ParentContext{Kind: ParentLocation, LocationID: locationID, RelativeDir: NormalizeDir(relativeDir)}
}

// EphemeralContext returns an Ephemeral parent context.
func EphemeralContext(dir string) ParentContext {
	return ParentContext{Kind: ParentEphemeral, DirectoryPath: NormalizeDir(dir)}
}

// TagContext returns a Tag parent context.
func TagContext(tagID int32) ParentContext {
	return ParentContext{Kind: ParentTag, TagID: tagID}
}

// NodeContext returns the Node (device overview) parent context.
func NodeContext() ParentContext {
	return ParentContext{Kind: ParentNode}
}

// Path returns the directory the context points at: location-relative for
// Location views, absolute for Ephemeral views, "" otherwise.
func (pc ParentContext) Path() string {
	switch pc.Kind {
	case ParentLocation:
		return pc.RelativeDir
	case ParentEphemeral:
		return pc.DirectoryPath
	default:
		return ""
	}
}

// Equal reports whether two contexts address the same listing.
func (pc ParentContext) Equal(other ParentContext) bool {
	if pc.Kind != other.Kind {
		return false
	}
	switch pc.Kind {
	case ParentLocation:
		return pc.LocationID == other.LocationID && NormalizeDir(pc.RelativeDir) == NormalizeDir(other.RelativeDir)
	case ParentEphemeral:
		return NormalizeDir(pc.DirectoryPath) == NormalizeDir(other.DirectoryPath)
	case ParentTag:
		return pc.TagID == other.TagID
	case ParentNode:
		return true
	default:
		return false
	}
}

// String renders the context for logs.
func (pc ParentContext) String() string {
	switch pc.Kind {
	case ParentLocation:
		return fmt.Sprintf("location %d:%s", pc.LocationID, pc.RelativeDir)
	case ParentEphemeral:
		return "ephemeral " + pc.DirectoryPath
	case ParentTag:
		return fmt.Sprintf("tag %d", pc.TagID)
	case ParentNode:
		return "node"
	default:
		return fmt.Sprintf("ParentKind(%d)", int(pc.Kind))
	}
}
