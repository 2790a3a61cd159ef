package dcmtk_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cstroie/XRayVision-sub000/internal/dimse"
	"github.com/cstroie/XRayVision-sub000/internal/dimse/dcmtk"
)

// blockingExecutor stands in for storescp: it parks until cancellation the
// way the real acceptor process does.
type blockingExecutor struct{}

func (blockingExecutor) Run(ctx context.Context, _ string, _ []string, _ func(string)) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestServerDispatchesReceivedFiles(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	var received []dimse.Instance
	handler := func(instance dimse.Instance) dimse.Status {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, instance)
		return dimse.StatusSuccess
	}

	parse := func(path string) (dimse.Instance, error) {
		return dimse.Instance{SOPInstanceUID: filepath.Base(path), Path: path}, nil
	}

	server := dcmtk.NewServer("XRAYVISION", 4010, dir, handler, nil,
		dcmtk.WithServerExecutor(blockingExecutor{}),
		dcmtk.WithSettleDelay(10*time.Millisecond),
		dcmtk.WithParser(parse),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := server.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer server.Close()

	if err := os.WriteFile(filepath.Join(dir, "1.2.840.5"), []byte("dicom"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		count := len(received)
		mu.Unlock()
		if count == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("handler not invoked, received %d instances", count)
		case <-time.After(10 * time.Millisecond):
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if received[0].SOPInstanceUID != "1.2.840.5" {
		t.Errorf("instance UID = %q", received[0].SOPInstanceUID)
	}
}

func TestServerIgnoresHiddenFiles(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	count := 0
	handler := func(dimse.Instance) dimse.Status {
		mu.Lock()
		defer mu.Unlock()
		count++
		return dimse.StatusSuccess
	}

	server := dcmtk.NewServer("XRAYVISION", 4010, dir, handler, nil,
		dcmtk.WithServerExecutor(blockingExecutor{}),
		dcmtk.WithSettleDelay(10*time.Millisecond),
		dcmtk.WithParser(func(path string) (dimse.Instance, error) {
			return dimse.Instance{SOPInstanceUID: "x", Path: path}, nil
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := server.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer server.Close()

	if err := os.WriteFile(filepath.Join(dir, ".partial"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if count != 0 {
		t.Errorf("hidden file dispatched %d times", count)
	}
}

func TestServerRequiresHandler(t *testing.T) {
	server := dcmtk.NewServer("XRAYVISION", 4010, t.TempDir(), nil, nil,
		dcmtk.WithServerExecutor(blockingExecutor{}))
	if err := server.Start(context.Background()); err == nil {
		t.Fatal("expected error without handler")
	}
}
