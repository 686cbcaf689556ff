package explorer

import (
	"testing"

	"github.com/spacedriveapp/spacedrive-sub003/pkg/models"
)

func TestIntentStoreSingleSlot(t *testing.T) {
	store := NewIntentStore()

	if got := store.Peek(); got.Kind != IntentIdle {
		t.Fatalf("expected idle store, got %s", got.Kind)
	}

	first := Intent{
		Kind:         IntentCut,
		SourceParent: models.LocationContext(1, "/docs"),
		Indexed:      &IndexedSources{LocationID: 1, FilePathIDs: []int32{10, 11}},
	}
	store.Set(first)

	// A later capture replaces the earlier one entirely.
	second := Intent{
		Kind:         IntentCopy,
		SourceParent: models.EphemeralContext("/tmp"),
		Ephemeral:    &EphemeralSources{Paths: []string{"/tmp/a"}},
	}
	store.Set(second)

	got := store.Peek()
	if got.Kind != IntentCopy {
		t.Fatalf("expected copy intent, got %s", got.Kind)
	}
	if got.Indexed != nil {
		t.Fatal("replaced intent still carries indexed sources")
	}
	if got.Ephemeral == nil || len(got.Ephemeral.Paths) != 1 {
		t.Fatal("expected the newer ephemeral sources")
	}

	store.Clear()
	if got := store.Peek(); got.Kind != IntentIdle {
		t.Fatalf("expected idle after clear, got %s", got.Kind)
	}
}

func TestIntentEmpty(t *testing.T) {
	cases := []struct {
		name   string
		intent Intent
		want   bool
	}{
		{"zero", Intent{}, true},
		{"indexed no ids", Intent{Indexed: &IndexedSources{LocationID: 1}}, true},
		{"indexed", Intent{Indexed: &IndexedSources{LocationID: 1, FilePathIDs: []int32{1}}}, false},
		{"ephemeral no paths", Intent{Ephemeral: &EphemeralSources{}}, true},
		{"ephemeral", Intent{Ephemeral: &EphemeralSources{Paths: []string{"/a"}}}, false},
	}
	for _, tc := range cases {
		if got := tc.intent.Empty(); got != tc.want {
			t.Errorf("%s: Empty() = %v, want %v", tc.name, got, tc.want)
		}
	}
}
