package explorer

import (
	"testing"

	"github.com/spacedriveapp/spacedrive-sub003/pkg/models"
)

func testClassifier() *Classifier {
	roots := map[int32]string{
		1: "/mnt/data",
		2: "/mnt/backup",
	}
	return NewClassifier(func(id int32) (string, bool) {
		p, ok := roots[id]
		return p, ok
	})
}

func TestClassifyRoutes(t *testing.T) {
	c := testClassifier()

	indexedDrag := DragPayload{SourceLocationID: 1, SourcePath: "/docs"}
	ephemeralDrag := DragPayload{SourcePath: "/home/user/downloads"}
	tagDrag := DragPayload{SourceTagID: 7}

	cases := []struct {
		name string
		drag DragPayload
		drop DropTarget
		want RouteKind
	}{
		{
			"tag drop wins first",
			indexedDrag,
			TagTargetDrop(3),
			RouteToTag,
		},
		{
			"ephemeral to ephemeral",
			ephemeralDrag,
			LocationTarget(LocationDrop{RootPath: "/home/user/pictures"}),
			RouteEphemeralToEphemeral,
		},
		{
			"ephemeral to same dir is a no-op",
			ephemeralDrag,
			LocationTarget(LocationDrop{RootPath: "/home/user/downloads"}),
			RouteNone,
		},
		{
			"tag view to location",
			tagDrag,
			LocationTarget(LocationDrop{LocationID: 2, RelativePath: "/archive"}),
			RouteTagToLocation,
		},
		{
			"ephemeral to location",
			ephemeralDrag,
			LocationTarget(LocationDrop{LocationID: 1, RelativePath: "/inbox"}),
			RouteEphemeralToLocation,
		},
		{
			"location to location",
			indexedDrag,
			LocationTarget(LocationDrop{LocationID: 2, RelativePath: "/docs"}),
			RouteLocationToLocation,
		},
		{
			"same location same dir is a no-op",
			indexedDrag,
			LocationTarget(LocationDrop{LocationID: 1, RelativePath: "/docs"}),
			RouteNone,
		},
		{
			"same location different dir transfers",
			indexedDrag,
			LocationTarget(LocationDrop{LocationID: 1, RelativePath: "/docs/archive"}),
			RouteLocationToLocation,
		},
		{
			"indexed source to unregistered root",
			indexedDrag,
			LocationTarget(LocationDrop{RootPath: "/media/usb"}),
			RouteLocationToEphemeral,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			route, err := c.Classify(tc.drag, tc.drop)
			if err != nil {
				t.Fatal(err)
			}
			if route.Kind != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, route.Kind)
			}
		})
	}
}

func TestClassifyComputesDestinations(t *testing.T) {
	c := testClassifier()

	route, err := c.Classify(
		DragPayload{SourceLocationID: 1, SourcePath: "/docs"},
		LocationTarget(LocationDrop{LocationID: 2, RelativePath: "archive/2024/"}),
	)
	if err != nil {
		t.Fatal(err)
	}
	if route.TargetLocationID != 2 {
		t.Fatalf("expected target location 2, got %d", route.TargetLocationID)
	}
	if route.TargetRelativeDir != "/archive/2024" {
		t.Fatalf("expected normalized relative dir, got %q", route.TargetRelativeDir)
	}
	if route.TargetAbsoluteDir != "/mnt/backup/archive/2024" {
		t.Fatalf("expected absolute dir from location root, got %q", route.TargetAbsoluteDir)
	}
}

func TestClassifyEphemeralIntoUnknownRootFails(t *testing.T) {
	c := NewClassifier(nil)
	_, err := c.Classify(
		DragPayload{SourcePath: "/tmp"},
		LocationTarget(LocationDrop{LocationID: 9, RelativePath: "/"}),
	)
	if err == nil {
		t.Fatal("expected error when the target location root is unknown")
	}
}

func TestClassifyItemTargets(t *testing.T) {
	c := testClassifier()
	drag := DragPayload{SourceLocationID: 2, SourcePath: "/"}

	// Dropping onto a directory item lands inside that directory.
	dirItem := models.PathItem(models.FilePath{
		ID: 1, LocationID: 1, RelativeDir: "/docs", Name: "reports", IsDir: true,
	})
	route, err := c.Classify(drag, ItemTarget(dirItem))
	if err != nil {
		t.Fatal(err)
	}
	if route.Kind != RouteLocationToLocation {
		t.Fatalf("expected location_to_location, got %s", route.Kind)
	}
	if route.TargetRelativeDir != "/docs/reports" {
		t.Fatalf("expected drop inside the directory, got %q", route.TargetRelativeDir)
	}

	// Dropping onto a file lands in the file's parent directory.
	fileItem := models.PathItem(models.FilePath{
		ID: 2, LocationID: 1, RelativeDir: "/docs", Name: "a", Extension: "txt",
	})
	route, err = c.Classify(drag, ItemTarget(fileItem))
	if err != nil {
		t.Fatal(err)
	}
	if route.TargetRelativeDir != "/docs" {
		t.Fatalf("expected the file's parent dir, got %q", route.TargetRelativeDir)
	}

	// Dropping onto a location item lands at its root.
	locItem := models.LocationItem(models.Location{ID: 1, Path: "/mnt/data"})
	route, err = c.Classify(drag, ItemTarget(locItem))
	if err != nil {
		t.Fatal(err)
	}
	if route.TargetLocationID != 1 || route.TargetRelativeDir != "/" {
		t.Fatalf("expected location root, got %+v", route)
	}

	// Dropping onto a non-indexed file lands in its parent directory,
	// outside any location.
	nonIndexed := models.NonIndexedItem(models.NonIndexedPath{Path: "/home/user/notes.md"})
	route, err = c.Classify(drag, ItemTarget(nonIndexed))
	if err != nil {
		t.Fatal(err)
	}
	if route.Kind != RouteLocationToEphemeral {
		t.Fatalf("expected location_to_ephemeral, got %s", route.Kind)
	}
	if route.TargetAbsoluteDir != "/home/user" {
		t.Fatalf("expected parent dir, got %q", route.TargetAbsoluteDir)
	}
}
