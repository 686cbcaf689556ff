package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spacedriveapp/spacedrive-sub003/pkg/protocol"
	"github.com/spacedriveapp/spacedrive-sub003/pkg/retry"
)

func testClient(handler http.Handler) (*Client, *httptest.Server) {
	ts := httptest.NewServer(handler)
	c := New(Config{
		BaseURL: ts.URL,
		RetryConfig: retry.Config{
			MaxAttempts: 3,
			InitialWait: time.Millisecond,
			MaxWait:     time.Millisecond,
		},
	})
	return c, ts
}

func TestGetPath_Success(t *testing.T) {
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/files/42/path" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(protocol.PathResponse{Path: "/mnt/data/docs/a.txt"})
	}))
	defer ts.Close()

	p, err := c.GetPath(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != "/mnt/data/docs/a.txt" {
		t.Errorf("expected resolved path, got %q", p)
	}
}

func TestGetPath_ServerError_Retry(t *testing.T) {
	var attempts atomic.Int32
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(protocol.PathResponse{Path: "/mnt/data/x"})
	}))
	defer ts.Close()

	p, err := c.GetPath(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != "/mnt/data/x" {
		t.Errorf("unexpected path %q", p)
	}
	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestGetPath_NotFoundNotRetried(t *testing.T) {
	var attempts atomic.Int32
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(protocol.ErrorResponse{Error: "file path not found"})
	}))
	defer ts.Close()

	_, err := c.GetPath(context.Background(), 999)
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts.Load() != 1 {
		t.Errorf("expected exactly 1 attempt for a 404, got %d", attempts.Load())
	}
}

func TestCopyFiles_SingleAttempt(t *testing.T) {
	var attempts atomic.Int32
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	err := c.CopyFiles(context.Background(), protocol.IndexedTransferRequest{
		SourceLocationID:   1,
		SourcesFilePathIDs: []int32{10},
		TargetLocationID:   2,
	})
	if err == nil {
		t.Fatal("expected error")
	}
	// Mutations are never retried: a duplicated transfer is worse than a
	// failed one.
	if attempts.Load() != 1 {
		t.Errorf("expected exactly 1 attempt, got %d", attempts.Load())
	}
	if c.IsOnline() {
		t.Error("client should be marked offline after a 5xx")
	}
}

func TestCopyFiles_AcceptedWithJobAck(t *testing.T) {
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(protocol.JobResponse{JobID: "job-7f3a"})
	}))
	defer ts.Close()

	err := c.CopyFiles(context.Background(), protocol.IndexedTransferRequest{
		SourceLocationID:   1,
		SourcesFilePathIDs: []int32{10},
		TargetLocationID:   2,
	})
	if err != nil {
		t.Fatalf("202 with a job ack must succeed, got %v", err)
	}
	if !c.IsOnline() {
		t.Error("client should be online after an accepted mutation")
	}
}

func TestCutFiles_SendsWireShape(t *testing.T) {
	var got protocol.IndexedTransferRequest
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/files/cut" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer ts.Close()

	suffix := " copy"
	err := c.CutFiles(context.Background(), protocol.IndexedTransferRequest{
		SourceLocationID:                    1,
		SourcesFilePathIDs:                  []int32{10, 11},
		TargetLocationID:                    2,
		TargetLocationRelativeDirectoryPath: "/archive",
		TargetFileNameSuffix:                &suffix,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.SourceLocationID != 1 || got.TargetLocationID != 2 {
		t.Errorf("locations lost in transit: %+v", got)
	}
	if len(got.SourcesFilePathIDs) != 2 {
		t.Errorf("expected 2 source ids, got %v", got.SourcesFilePathIDs)
	}
	if got.TargetFileNameSuffix == nil || *got.TargetFileNameSuffix != " copy" {
		t.Errorf("suffix lost in transit: %v", got.TargetFileNameSuffix)
	}
}

func TestAssignTag_TargetShapes(t *testing.T) {
	var raw map[string]json.RawMessage
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	err := c.AssignTag(context.Background(), protocol.TagAssignRequest{
		TagID: 3,
		Targets: []protocol.TagTarget{
			protocol.ObjectTarget(5),
			protocol.FilePathTarget(10),
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var targets []map[string]int32
	if err := json.Unmarshal(raw["targets"], &targets); err != nil {
		t.Fatalf("targets did not decode: %v", err)
	}
	if targets[0]["Object"] != 5 {
		t.Errorf("expected first target {Object:5}, got %v", targets[0])
	}
	if targets[1]["FilePath"] != 10 {
		t.Errorf("expected second target {FilePath:10}, got %v", targets[1])
	}
}

func TestAuthHeaderApplied(t *testing.T) {
	var gotAuth string
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(protocol.LocationsResponse{})
	}))
	defer ts.Close()

	c.SetAuthToken("tok123")
	if _, err := c.Locations(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer tok123" {
		t.Errorf("expected bearer token, got %q", gotAuth)
	}
}

func TestErrorResponseSurfaced(t *testing.T) {
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(protocol.ErrorResponse{Error: "target directory does not exist"})
	}))
	defer ts.Close()

	err := c.EphemeralCopyFiles(context.Background(), protocol.EphemeralTransferRequest{
		Sources:   []string{"/tmp/a"},
		TargetDir: "/nope",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	want := "ephemeralFiles.copyFiles failed: target directory does not exist"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestOnlineRecovery(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(protocol.TagsResponse{})
	}))
	defer ts.Close()

	if _, err := c.Tags(context.Background()); err == nil {
		t.Fatal("expected error while failing")
	}
	if c.IsOnline() {
		t.Error("expected offline after repeated 5xx")
	}

	fail.Store(false)
	if _, err := c.Tags(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.IsOnline() {
		t.Error("expected online after success")
	}
}
