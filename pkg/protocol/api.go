// Package protocol defines the API request/response types.
package protocol

import (
	"github.com/spacedriveapp/spacedrive-sub003/pkg/models"
)

// IndexedTransferRequest is the body for POST /api/v1/files/copy and /cut.
// Sources are addressed by file-path id within one source location; the
// optional suffix is appended to target file names (copy-in-place).
type IndexedTransferRequest struct {
	SourceLocationID                    int32   `json:"source_location_id"`
	SourcesFilePathIDs                  []int32 `json:"sources_file_path_ids"`
	TargetLocationID                    int32   `json:"target_location_id"`
	TargetLocationRelativeDirectoryPath string  `json:"target_location_relative_directory_path"`
	TargetFileNameSuffix                *string `json:"target_file_name_suffix,omitempty"`
}

// EphemeralTransferRequest is the body for POST /api/v1/ephemeral/copy and /cut.
type EphemeralTransferRequest struct {
	Sources   []string `json:"sources"`
	TargetDir string   `json:"target_dir"`
}

// TagTarget addresses one taggable entity: exactly one field is set.
type TagTarget struct {
	Object   *int32 `json:"Object,omitempty"`
	FilePath *int32 `json:"FilePath,omitempty"`
}

// ObjectTarget returns a TagTarget for an object id.
func ObjectTarget(id int32) TagTarget { return TagTarget{Object: &id} }

// FilePathTarget returns a TagTarget for a file-path id.
func FilePathTarget(id int32) TagTarget { return TagTarget{FilePath: &id} }

// TagAssignRequest is the body for POST /api/v1/tags/assign.
type TagAssignRequest struct {
	TagID    int32       `json:"tag_id"`
	Targets  []TagTarget `json:"targets"`
	Unassign bool        `json:"unassign"`
}

// PathResponse is returned by GET /api/v1/files/{id}/path.
type PathResponse struct {
	ID   int32  `json:"id"`
	Path string `json:"path"`
}

// ListingResponse is returned by the directory listing queries.
type ListingResponse struct {
	Items []models.ExplorerItem `json:"items"`
}

// LocationsResponse is returned by GET /api/v1/locations.
type LocationsResponse struct {
	Locations []models.Location `json:"locations"`
}

// TagsResponse is returned by GET /api/v1/tags.
type TagsResponse struct {
	Tags []models.Tag `json:"tags"`
}

// JobResponse acknowledges an accepted mutation.
type JobResponse struct {
	JobID string `json:"job_id,omitempty"`
}

// ErrorResponse is returned on API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Details string `json:"details,omitempty"`
}

// InvalidateEvent is a listing-invalidation notification delivered over SSE.
// It names the listing whose contents changed on the backend.
type InvalidateEvent struct {
	Type       string `json:"type"` // "location", "ephemeral", "tag"
	LocationID int32  `json:"location_id,omitempty"`
	Path       string `json:"path,omitempty"`
	TagID      int32  `json:"tag_id,omitempty"`
	Timestamp  int64  `json:"timestamp"`
}
