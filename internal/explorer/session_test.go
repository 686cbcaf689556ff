package explorer

import (
	"context"
	"testing"

	"github.com/spacedriveapp/spacedrive-sub003/internal/notify"
	"github.com/spacedriveapp/spacedrive-sub003/pkg/models"
)

func testSession(backend *fakeBackend) (*Session, *notify.Recorder) {
	rec := &notify.Recorder{}
	resolver := NewResolver(backend, nil, 4)
	s := NewSession(backend, NewIntentStore(), resolver, rec, NewInvalidationHub())
	return s, rec
}

func TestSessionNavigate(t *testing.T) {
	backend := newFakeBackend()
	backend.listings["loc:1:/docs"] = []models.ExplorerItem{
		filePathItem(10, 1, "/docs", "a.txt"),
		filePathItem(11, 1, "/docs", "b.txt"),
	}
	s, _ := testSession(backend)

	if err := s.Navigate(context.Background(), models.LocationContext(1, "/docs")); err != nil {
		t.Fatal(err)
	}
	if len(s.Items()) != 2 {
		t.Fatalf("expected 2 items, got %d", len(s.Items()))
	}
	if s.Context().Kind != models.ParentLocation {
		t.Fatalf("unexpected context %s", s.Context())
	}

	// Navigation clears the selection but leaves the intent alone.
	s.Selection().Add(filePathItem(10, 1, "/docs", "a.txt"))
	if err := s.Cut(); err != nil {
		t.Fatal(err)
	}
	if err := s.Navigate(context.Background(), models.LocationContext(2, "/")); err != nil {
		t.Fatal(err)
	}
	if s.Selection().Len() != 0 {
		t.Fatal("expected selection cleared after navigation")
	}
	if s.Intents().Peek().Kind != IntentCut {
		t.Fatal("expected intent to survive navigation")
	}
}

func TestSessionCutPasteFlow(t *testing.T) {
	backend := newFakeBackend()
	s, _ := testSession(backend)

	if err := s.Navigate(context.Background(), models.LocationContext(1, "/docs")); err != nil {
		t.Fatal(err)
	}
	s.Selection().Set([]models.ExplorerItem{
		filePathItem(10, 1, "/docs", "a.txt"),
		filePathItem(11, 1, "/docs", "b.txt"),
	})
	if err := s.Cut(); err != nil {
		t.Fatal(err)
	}

	intent := s.Intents().Peek()
	if intent.Kind != IntentCut || intent.Indexed == nil {
		t.Fatalf("unexpected intent %+v", intent)
	}
	if len(intent.Indexed.FilePathIDs) != 2 {
		t.Fatalf("expected 2 captured ids, got %v", intent.Indexed.FilePathIDs)
	}

	if err := s.Navigate(context.Background(), models.LocationContext(2, "/inbox")); err != nil {
		t.Fatal(err)
	}
	if err := s.Paste(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(backend.cuts) != 1 {
		t.Fatalf("expected one cut mutation, got %d", len(backend.cuts))
	}
	req := backend.cuts[0]
	if req.SourceLocationID != 1 || req.TargetLocationID != 2 || req.TargetLocationRelativeDirectoryPath != "/inbox" {
		t.Fatalf("unexpected request %+v", req)
	}
	if s.Intents().Peek().Kind != IntentIdle {
		t.Fatal("expected intent cleared after paste settled")
	}
}

func TestSessionSamePlaceCutKeepsIntent(t *testing.T) {
	backend := newFakeBackend()
	s, rec := testSession(backend)

	if err := s.Navigate(context.Background(), models.LocationContext(1, "/docs")); err != nil {
		t.Fatal(err)
	}
	s.Selection().Add(filePathItem(10, 1, "/docs", "a.txt"))
	if err := s.Cut(); err != nil {
		t.Fatal(err)
	}

	if err := s.Paste(context.Background()); err != nil {
		t.Fatal(err)
	}
	if backend.mutationCount() != 0 {
		t.Fatal("same-place cut must not mutate")
	}
	if len(rec.Errors()) != 1 {
		t.Fatalf("expected the conflict notice, got %d", len(rec.Errors()))
	}
	if s.Intents().Peek().Kind != IntentCut {
		t.Fatal("expected intent to stay pending after conflict")
	}

	// The kept intent pastes fine somewhere else.
	if err := s.Navigate(context.Background(), models.LocationContext(2, "/")); err != nil {
		t.Fatal(err)
	}
	if err := s.Paste(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(backend.cuts) != 1 {
		t.Fatalf("expected the kept intent to dispatch, got %d cuts", len(backend.cuts))
	}
	if s.Intents().Peek().Kind != IntentIdle {
		t.Fatal("expected intent cleared after the successful paste")
	}
}

func TestSessionCopyOverwritesPreviousIntent(t *testing.T) {
	backend := newFakeBackend()
	s, _ := testSession(backend)

	if err := s.Navigate(context.Background(), models.LocationContext(1, "/docs")); err != nil {
		t.Fatal(err)
	}
	s.Selection().Add(filePathItem(10, 1, "/docs", "a.txt"))
	if err := s.Cut(); err != nil {
		t.Fatal(err)
	}
	s.Selection().Set([]models.ExplorerItem{filePathItem(11, 1, "/docs", "b.txt")})
	if err := s.Copy(); err != nil {
		t.Fatal(err)
	}

	intent := s.Intents().Peek()
	if intent.Kind != IntentCopy {
		t.Fatalf("expected the later copy to win, got %s", intent.Kind)
	}
	if len(intent.Indexed.FilePathIDs) != 1 || intent.Indexed.FilePathIDs[0] != 11 {
		t.Fatalf("expected only the later capture, got %v", intent.Indexed.FilePathIDs)
	}
}

func TestSessionDuplicate(t *testing.T) {
	backend := newFakeBackend()
	s, _ := testSession(backend)

	if err := s.Navigate(context.Background(), models.LocationContext(1, "/docs")); err != nil {
		t.Fatal(err)
	}
	s.Selection().Add(filePathItem(10, 1, "/docs", "a.txt"))

	if err := s.Duplicate(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(backend.copies) != 1 {
		t.Fatalf("expected one copy mutation, got %d", len(backend.copies))
	}
	req := backend.copies[0]
	if req.TargetLocationID != 1 || req.TargetLocationRelativeDirectoryPath != "/docs" {
		t.Fatalf("duplicate must target the source directory: %+v", req)
	}
	if req.TargetFileNameSuffix == nil || *req.TargetFileNameSuffix != CopySuffix {
		t.Fatal("duplicate must carry the distinguishing suffix")
	}
	if s.Intents().Peek().Kind != IntentIdle {
		t.Fatal("duplicate must not touch the intent store")
	}
}

func TestSessionDropUsesSelection(t *testing.T) {
	backend := newFakeBackend()
	backend.locations = []models.Location{{ID: 2, Name: "Backup", Path: "/mnt/backup"}}
	s, _ := testSession(backend)
	if err := s.RefreshLocations(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := s.Navigate(context.Background(), models.LocationContext(1, "/docs")); err != nil {
		t.Fatal(err)
	}
	s.Selection().Add(filePathItem(10, 1, "/docs", "a.txt"))

	target := LocationTarget(LocationDrop{LocationID: 2, RelativePath: "/in"})
	if err := s.Drop(context.Background(), nil, target, ActionCut); err != nil {
		t.Fatal(err)
	}
	if len(backend.cuts) != 1 {
		t.Fatalf("expected one cut, got %d", len(backend.cuts))
	}
	if backend.cuts[0].TargetLocationID != 2 {
		t.Fatalf("unexpected target %+v", backend.cuts[0])
	}
}
