// Package models contains the shared data types of the explorer client.
package models

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"
)

// ItemKind discriminates the ExplorerItem union.
type ItemKind int

const (
	KindPath ItemKind = iota
	KindObject
	KindNonIndexedPath
	KindLocation
)

// String returns the wire name of the kind.
func (k ItemKind) String() string {
	switch k {
	case KindPath:
		return "Path"
	case KindObject:
		return "Object"
	case KindNonIndexedPath:
		return "NonIndexedPath"
	case KindLocation:
		return "Location"
	default:
		return fmt.Sprintf("ItemKind(%d)", int(k))
	}
}

// FilePath is an indexed file or directory under a Location.
type FilePath struct {
	ID          int32  `json:"id"`
	LocationID  int32  `json:"location_id"`
	RelativeDir string `json:"relative_dir"` // directory part, relative to the location root
	Name        string `json:"name"`
	Extension   string `json:"extension,omitempty"`
	IsDir       bool   `json:"is_dir"`
	SizeInBytes int64  `json:"size_in_bytes"`
}

// FullName returns name plus extension.
func (fp FilePath) FullName() string {
	if fp.Extension == "" {
		return fp.Name
	}
	return fp.Name + "." + fp.Extension
}

// RelativePath returns the location-relative path of the entry itself.
func (fp FilePath) RelativePath() string {
	return path.Join(fp.RelativeDir, fp.FullName())
}

// Object is a deduplicated content entity. Identical files in different
// locations share one Object and are listed in FilePaths.
type Object struct {
	ID        int32      `json:"id"`
	FilePaths []FilePath `json:"file_paths,omitempty"`
}

// NonIndexedPath is a filesystem entry outside any Location, addressed only
// by its absolute path.
type NonIndexedPath struct {
	Path  string `json:"path"`
	Name  string `json:"name"`
	IsDir bool   `json:"is_dir"`
}

// Location is a user-registered, indexed root directory with a stable id.
type Location struct {
	ID   int32  `json:"id"`
	Name string `json:"name"`
	Path string `json:"path"`
}

// Tag is a user-defined label associable with Objects and FilePaths.
type Tag struct {
	ID    int32  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// ExplorerItem is the tagged union of everything an explorer listing can
// contain. Exactly one of the variant pointers is set, matching Kind.
type ExplorerItem struct {
	Kind       ItemKind
	FilePath   *FilePath
	Object     *Object
	NonIndexed *NonIndexedPath
	Location   *Location
}

// PathItem wraps a FilePath as an ExplorerItem.
func PathItem(fp FilePath) ExplorerItem {
	return ExplorerItem{Kind: KindPath, FilePath: &fp}
}

// ObjectItem wraps an Object as an ExplorerItem.
func ObjectItem(o Object) ExplorerItem {
	return ExplorerItem{Kind: KindObject, Object: &o}
}

// NonIndexedItem wraps a NonIndexedPath as an ExplorerItem.
func NonIndexedItem(p NonIndexedPath) ExplorerItem {
	return ExplorerItem{Kind: KindNonIndexedPath, NonIndexed: &p}
}

// LocationItem wraps a Location as an ExplorerItem.
func LocationItem(l Location) ExplorerItem {
	return ExplorerItem{Kind: KindLocation, Location: &l}
}

// Name returns the display name of the item regardless of variant.
func (it ExplorerItem) Name() string {
	switch it.Kind {
	case KindPath:
		return it.FilePath.FullName()
	case KindObject:
		if len(it.Object.FilePaths) > 0 {
			return it.Object.FilePaths[0].FullName()
		}
		return fmt.Sprintf("object-%d", it.Object.ID)
	case KindNonIndexedPath:
		return it.NonIndexed.Name
	case KindLocation:
		return it.Location.Name
	default:
		return ""
	}
}

// IsDir reports whether the item is a directory-like entry.
func (it ExplorerItem) IsDir() bool {
	switch it.Kind {
	case KindPath:
		return it.FilePath.IsDir
	case KindObject:
		return len(it.Object.FilePaths) > 0 && it.Object.FilePaths[0].IsDir
	case KindNonIndexedPath:
		return it.NonIndexed.IsDir
	case KindLocation:
		return true
	default:
		return false
	}
}

type itemEnvelope struct {
	Type string          `json:"type"`
	Item json.RawMessage `json:"item"`
}

// MarshalJSON encodes the item as {"type": ..., "item": ...}.
func (it ExplorerItem) MarshalJSON() ([]byte, error) {
	var inner any
	switch it.Kind {
	case KindPath:
		inner = it.FilePath
	case KindObject:
		inner = it.Object
	case KindNonIndexedPath:
		inner = it.NonIndexed
	case KindLocation:
		inner = it.Location
	default:
		return nil, fmt.Errorf("marshal explorer item: unknown kind %v", it.Kind)
	}
	raw, err := json.Marshal(inner)
	if err != nil {
		return nil, err
	}
	return json.Marshal(itemEnvelope{Type: it.Kind.String(), Item: raw})
}

// UnmarshalJSON decodes the {"type", "item"} envelope.
func (it *ExplorerItem) UnmarshalJSON(data []byte) error {
	var env itemEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	switch env.Type {
	case "Path":
		it.Kind, it.FilePath = KindPath, new(FilePath)
		return json.Unmarshal(env.Item, it.FilePath)
	case "Object":
		it.Kind, it.Object = KindObject, new(Object)
		return json.Unmarshal(env.Item, it.Object)
	case "NonIndexedPath":
		it.Kind, it.NonIndexed = KindNonIndexedPath, new(NonIndexedPath)
		return json.Unmarshal(env.Item, it.NonIndexed)
	case "Location":
		it.Kind, it.Location = KindLocation, new(Location)
		return json.Unmarshal(env.Item, it.Location)
	default:
		return fmt.Errorf("unmarshal explorer item: unknown type %q", env.Type)
	}
}

// NormalizeDir cleans a directory path for comparison: forward slashes,
// no trailing separator, "" treated as the root.
func NormalizeDir(dir string) string {
	dir = strings.ReplaceAll(dir, "\\", "/")
	dir = path.Clean("/" + dir)
	if dir == "/" {
		return "/"
	}
	return strings.TrimSuffix(dir, "/")
}
