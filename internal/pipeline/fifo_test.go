package pipeline_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cstroie/XRayVision-sub000/internal/pipeline"
)

func TestQueueOrdering(t *testing.T) {
	q := pipeline.NewQueue()
	q.Enqueue(pipeline.Item{ArtifactPath: "a.png"})
	q.Enqueue(pipeline.Item{ArtifactPath: "b.png"})
	q.Enqueue(pipeline.Item{ArtifactPath: "c.png"})

	if q.Len() != 3 {
		t.Fatalf("expected 3 queued items, got %d", q.Len())
	}

	ctx := context.Background()
	for _, want := range []string{"a.png", "b.png", "c.png"} {
		item, err := q.Dequeue(ctx)
		if err != nil {
			t.Fatalf("Dequeue failed: %v", err)
		}
		if item.ArtifactPath != want {
			t.Fatalf("expected %s, got %s", want, item.ArtifactPath)
		}
	}
	if q.Len() != 0 {
		t.Fatalf("expected empty queue, got %d", q.Len())
	}
}

func TestDequeueBlocksUntilEnqueue(t *testing.T) {
	q := pipeline.NewQueue()

	done := make(chan pipeline.Item, 1)
	go func() {
		item, err := q.Dequeue(context.Background())
		if err != nil {
			return
		}
		done <- item
	}()

	time.Sleep(10 * time.Millisecond)
	q.Enqueue(pipeline.Item{ArtifactPath: "late.png"})

	select {
	case item := <-done:
		if item.ArtifactPath != "late.png" {
			t.Fatalf("unexpected item: %#v", item)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Dequeue did not wake after Enqueue")
	}
}

func TestDequeueHonorsCancellation(t *testing.T) {
	q := pipeline.NewQueue()
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		_, err := q.Dequeue(ctx)
		errCh <- err
	}()

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Dequeue did not return after cancellation")
	}
}
