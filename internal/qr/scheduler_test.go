package qr_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cstroie/XRayVision-sub000/internal/dimse"
	"github.com/cstroie/XRayVision-sub000/internal/qr"
)

type fakeAssociation struct {
	dialer      *fakeDialer
	established bool
}

func (a *fakeAssociation) Established() bool { return a.established }

func (a *fakeAssociation) Find(ctx context.Context, query dimse.Query) ([]dimse.FindResult, error) {
	a.dialer.findDates = append(a.dialer.findDates, query.StudyDate)
	a.dialer.findModalities = append(a.dialer.findModalities, query.Modality)
	return a.dialer.findResults[query.StudyDate], a.dialer.findErr
}

func (a *fakeAssociation) Move(ctx context.Context, query dimse.Query, destAETitle string) ([]dimse.MoveResult, error) {
	a.dialer.moves = append(a.dialer.moves, query.StudyInstanceUID)
	a.dialer.moveDests = append(a.dialer.moveDests, destAETitle)
	return []dimse.MoveResult{{Status: dimse.StatusSuccess}}, nil
}

func (a *fakeAssociation) Release() error {
	a.established = false
	a.dialer.releases++
	return nil
}

type fakeDialer struct {
	associations   int
	failDates      map[int]bool
	findDates      []string
	findModalities []string
	findResults    map[string][]dimse.FindResult
	findErr        error
	moves          []string
	moveDests      []string
	releases       int
}

func (d *fakeDialer) Associate(ctx context.Context, local string, peer dimse.Peer) (dimse.Association, error) {
	d.associations++
	if d.failDates[d.associations] {
		return nil, dimse.ErrAssociationFailed
	}
	return &fakeAssociation{dialer: d, established: true}, nil
}

func noSleep(time.Duration) {}

func TestRunQueriesEveryDayOfMonth(t *testing.T) {
	dialer := &fakeDialer{}
	sched := qr.NewScheduler(dialer, "XRAYVISION", dimse.Peer{AETitle: "ARCHIVE", Host: "pacs", Port: 104},
		"CR", nil, qr.WithSleeper(noSleep))

	if err := sched.Run(context.Background(), 2025, 2, nil); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(dialer.findDates) != 28 {
		t.Fatalf("expected 28 day queries for February 2025, got %d", len(dialer.findDates))
	}
	if dialer.findDates[0] != "20250201" || dialer.findDates[27] != "20250228" {
		t.Fatalf("unexpected date range: %s .. %s", dialer.findDates[0], dialer.findDates[27])
	}
	for _, modality := range dialer.findModalities {
		if modality != "CR" {
			t.Fatalf("expected CR modality, got %s", modality)
		}
	}
	if dialer.releases != 28 {
		t.Fatalf("expected 28 released associations, got %d", dialer.releases)
	}
}

func TestRunSingleDay(t *testing.T) {
	dialer := &fakeDialer{}
	sched := qr.NewScheduler(dialer, "XRAYVISION", dimse.Peer{Host: "pacs", Port: 104},
		"CR", nil, qr.WithSleeper(noSleep))

	day := 14
	if err := sched.Run(context.Background(), 2025, 2, &day); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(dialer.findDates) != 1 || dialer.findDates[0] != "20250214" {
		t.Fatalf("expected single query for 20250214, got %v", dialer.findDates)
	}
}

func TestRunMovesPendingMatches(t *testing.T) {
	dialer := &fakeDialer{
		findResults: map[string][]dimse.FindResult{
			"20250301": {
				{Status: dimse.StatusPending, StudyInstanceUID: "1.2.3"},
				{Status: dimse.StatusPendingWarning, StudyInstanceUID: "4.5.6"},
				{Status: dimse.StatusSuccess},
			},
		},
	}
	var sleeps []time.Duration
	sched := qr.NewScheduler(dialer, "XRAYVISION", dimse.Peer{Host: "pacs", Port: 104},
		"CR", nil, qr.WithSleeper(func(d time.Duration) { sleeps = append(sleeps, d) }))

	day := 1
	if err := sched.Run(context.Background(), 2025, 3, &day); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(dialer.moves) != 2 || dialer.moves[0] != "1.2.3" || dialer.moves[1] != "4.5.6" {
		t.Fatalf("unexpected moves: %v", dialer.moves)
	}
	for _, dest := range dialer.moveDests {
		if dest != "XRAYVISION" {
			t.Fatalf("expected moves destined for local AE, got %s", dest)
		}
	}
	// One find association plus one per move.
	if dialer.associations != 3 {
		t.Fatalf("expected 3 associations, got %d", dialer.associations)
	}
	want := []time.Duration{time.Second, time.Second, 10 * time.Second}
	if len(sleeps) != len(want) {
		t.Fatalf("expected %d sleeps, got %v", len(want), sleeps)
	}
	for i, d := range want {
		if sleeps[i] != d {
			t.Fatalf("sleep %d: expected %v, got %v", i, d, sleeps[i])
		}
	}
}

func TestRunSkipsDayOnAssociationFailure(t *testing.T) {
	// Fail the first day's association only.
	dialer := &fakeDialer{failDates: map[int]bool{1: true}}
	sched := qr.NewScheduler(dialer, "XRAYVISION", dimse.Peer{Host: "pacs", Port: 104},
		"CR", nil, qr.WithSleeper(noSleep))

	if err := sched.Run(context.Background(), 2025, 2, nil); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(dialer.findDates) != 27 {
		t.Fatalf("expected 27 queries after one skipped day, got %d", len(dialer.findDates))
	}
	if dialer.findDates[0] != "20250202" {
		t.Fatalf("expected first query on 20250202, got %s", dialer.findDates[0])
	}
}

func TestRunStopsOnCancellation(t *testing.T) {
	dialer := &fakeDialer{}
	sched := qr.NewScheduler(dialer, "XRAYVISION", dimse.Peer{Host: "pacs", Port: 104},
		"CR", nil, qr.WithSleeper(noSleep))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sched.Run(ctx, 2025, 2, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(dialer.findDates) != 0 {
		t.Fatalf("expected no queries, got %v", dialer.findDates)
	}
}
