package reports_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/cstroie/XRayVision-sub000/internal/reports"
)

func mustOpenStore(t *testing.T) *reports.Store {
	t.Helper()
	store, err := reports.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSaveAndRecent(t *testing.T) {
	store := mustOpenStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		report := reports.Report{
			File:        fmt.Sprintf("instance-%d.png", i),
			PatientName: "DOE^JOHN",
			PatientID:   "PID-42",
			StudyDate:   "20250201",
			StudyTime:   "101500",
			Protocol:    "CHEST PA",
			Response:    fmt.Sprintf("finding %d", i),
		}
		if err := store.Save(ctx, report); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 reports, got %d", count)
	}

	recent, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(recent))
	}
	if recent[0].PatientName != "DOE^JOHN" || recent[0].Protocol != "CHEST PA" {
		t.Fatalf("unexpected report: %#v", recent[0])
	}
}

func TestSaveUpsertsByFile(t *testing.T) {
	store := mustOpenStore(t)
	ctx := context.Background()

	report := reports.Report{File: "a.png", Response: "first pass"}
	if err := store.Save(ctx, report); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	report.Response = "second pass"
	if err := store.Save(ctx, report); err != nil {
		t.Fatalf("Save (upsert) failed: %v", err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 report after upsert, got %d", count)
	}

	recent, err := store.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if recent[0].Response != "second pass" {
		t.Fatalf("expected updated response, got %q", recent[0].Response)
	}
}

func TestGet(t *testing.T) {
	store := mustOpenStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, reports.Report{File: "a.png", Response: "clear"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := store.Get(ctx, "a.png")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Response != "clear" {
		t.Fatalf("unexpected report: %#v", got)
	}
	if _, err := store.Get(ctx, "missing.png"); err == nil {
		t.Fatal("expected error for unknown file")
	}
}

func TestSaveRejectsEmptyFile(t *testing.T) {
	store := mustOpenStore(t)
	if err := store.Save(context.Background(), reports.Report{}); err == nil {
		t.Fatal("expected error for empty file name")
	}
}

func TestSetFlagged(t *testing.T) {
	store := mustOpenStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, reports.Report{File: "a.png"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.SetFlagged(ctx, "a.png", true); err != nil {
		t.Fatalf("SetFlagged failed: %v", err)
	}
	recent, err := store.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if !recent[0].Flagged {
		t.Fatal("expected report to be flagged")
	}

	if err := store.SetFlagged(ctx, "missing.png", true); err == nil {
		t.Fatal("expected error for unknown file")
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	dir := t.TempDir()
	store, err := reports.Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	_ = store.Close()

	// Reopening the same database succeeds while the version matches.
	store, err = reports.Open(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	_ = store.Close()
}
