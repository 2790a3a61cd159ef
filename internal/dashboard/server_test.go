package dashboard_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cstroie/XRayVision-sub000/internal/dashboard"
)

func newTestServer(t *testing.T, state *dashboard.State) (*dashboard.Server, string) {
	t.Helper()
	imagesDir := t.TempDir()
	server := dashboard.NewServer("127.0.0.1:0", imagesDir, 5, state, nil)
	return server, imagesDir
}

func TestIndexRendersSnapshot(t *testing.T) {
	state := dashboard.NewState(20)
	state.SetQueueDepth(2)
	state.RecordSuccess(dashboard.Entry{
		Artifact:    "abc.png",
		PatientName: "DOE^JOHN",
		StudyDate:   "20250201",
		Result:      "NO. Normal chest xray.",
	})
	server, _ := newTestServer(t, state)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"abc.png", "DOE^JOHN", "Normal chest xray", "http-equiv=\"refresh\""} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestStatusReturnsJSONSnapshot(t *testing.T) {
	state := dashboard.NewState(20)
	state.RecordSuccess(dashboard.Entry{Artifact: "a.png"})
	state.RecordFailure()
	server, _ := newTestServer(t, state)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var snap dashboard.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.SuccessCount != 1 || snap.FailureCount != 1 {
		t.Errorf("counters = %d/%d", snap.SuccessCount, snap.FailureCount)
	}
}

func TestStaticServesArtifacts(t *testing.T) {
	state := dashboard.NewState(20)
	server, imagesDir := newTestServer(t, state)
	if err := os.WriteFile(filepath.Join(imagesDir, "xray.png"), []byte("png-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/xray.png", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != "png-bytes" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestUnknownPathIs404(t *testing.T) {
	server, _ := newTestServer(t, dashboard.NewState(20))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestStatusRejectsPost(t *testing.T) {
	server, _ := newTestServer(t, dashboard.NewState(20))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/status", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
