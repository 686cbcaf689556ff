package explorer

import (
	"testing"

	"github.com/spacedriveapp/spacedrive-sub003/pkg/models"
)

func filePathItem(id, loc int32, dir, name string) models.ExplorerItem {
	return models.PathItem(models.FilePath{
		ID: id, LocationID: loc, RelativeDir: dir, Name: name,
	})
}

func TestSelectionAddRemoveToggle(t *testing.T) {
	s := NewSelection()
	s.SetContext(models.LocationContext(1, "/docs"))

	a := filePathItem(10, 1, "/docs", "a.txt")
	b := filePathItem(11, 1, "/docs", "b.txt")

	s.Add(a)
	s.Add(b)
	s.Add(a) // duplicate, no-op
	if s.Len() != 2 {
		t.Fatalf("expected 2 selected, got %d", s.Len())
	}
	if !s.Contains(a) || !s.Contains(b) {
		t.Fatal("expected both items selected")
	}

	s.Remove(a)
	if s.Contains(a) {
		t.Fatal("expected a removed")
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 selected, got %d", s.Len())
	}

	s.Toggle(b)
	if s.Len() != 0 {
		t.Fatalf("expected empty after toggle, got %d", s.Len())
	}
	s.Toggle(b)
	if !s.Contains(b) {
		t.Fatal("expected b selected after second toggle")
	}
}

func TestSelectionPreservesOrder(t *testing.T) {
	s := NewSelection()
	s.SetContext(models.EphemeralContext("/tmp"))

	items := []models.ExplorerItem{
		models.NonIndexedItem(models.NonIndexedPath{Path: "/tmp/c", Name: "c"}),
		models.NonIndexedItem(models.NonIndexedPath{Path: "/tmp/a", Name: "a"}),
		models.NonIndexedItem(models.NonIndexedPath{Path: "/tmp/b", Name: "b"}),
	}
	s.Set(items)

	got := s.Items()
	if len(got) != 3 {
		t.Fatalf("expected 3 items, got %d", len(got))
	}
	for i := range items {
		if got[i].Name() != items[i].Name() {
			t.Errorf("position %d: expected %s, got %s", i, items[i].Name(), got[i].Name())
		}
	}

	// Removing from the middle keeps the order of the rest.
	s.Remove(items[1])
	got = s.Items()
	if len(got) != 2 || got[0].Name() != "c" || got[1].Name() != "b" {
		t.Fatalf("unexpected order after removal: %v", got)
	}
	if !s.Contains(items[2]) {
		t.Fatal("membership index stale after removal")
	}
}

func TestSelectionContextChangeClears(t *testing.T) {
	s := NewSelection()
	s.SetContext(models.LocationContext(1, "/"))
	s.Add(filePathItem(1, 1, "/", "x"))

	s.SetContext(models.LocationContext(2, "/"))
	if s.Len() != 0 {
		t.Fatalf("expected selection cleared on context change, got %d items", s.Len())
	}
	if s.Context().LocationID != 2 {
		t.Fatalf("expected context location 2, got %d", s.Context().LocationID)
	}
}

func TestSelectionMixedVariants(t *testing.T) {
	s := NewSelection()
	s.SetContext(models.TagContext(7))

	obj := models.ObjectItem(models.Object{ID: 5})
	fp := filePathItem(5, 1, "/", "same-id.txt") // same numeric id, different variant
	s.Add(obj)
	s.Add(fp)

	if s.Len() != 2 {
		t.Fatalf("expected variants with equal ids to be distinct, got %d", s.Len())
	}
}
