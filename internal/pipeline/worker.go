package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/cstroie/XRayVision-sub000/internal/dashboard"
	"github.com/cstroie/XRayVision-sub000/internal/logging"
	"github.com/cstroie/XRayVision-sub000/internal/reports"
)

// RelayClient sends one artifact to the analysis endpoint and returns the
// raw response text.
type RelayClient interface {
	Relay(ctx context.Context, artifactPath string) (string, error)
}

// ReportStore records completed analyses. It may be nil when history
// persistence is disabled.
type ReportStore interface {
	Save(ctx context.Context, report reports.Report) error
}

// Worker is the queue's single consumer. It relays artifacts one at a time
// and keeps the dashboard counters and history in step.
type Worker struct {
	queue  *Queue
	client RelayClient
	state  *dashboard.State
	store  ReportStore
	logger *slog.Logger
}

func NewWorker(queue *Queue, client RelayClient, state *dashboard.State, store ReportStore, logger *slog.Logger) *Worker {
	return &Worker{
		queue:  queue,
		client: client,
		state:  state,
		store:  store,
		logger: logging.NewComponentLogger(logger, "relay-worker"),
	}
}

// Run consumes the queue until ctx is cancelled. Relay failures are
// recorded and the loop moves on; only cancellation stops it.
func (w *Worker) Run(ctx context.Context) {
	for {
		item, err := w.queue.Dequeue(ctx)
		if err != nil {
			return
		}

		artifact := filepath.Base(item.ArtifactPath)
		w.state.SetProcessing(artifact)
		w.state.SetQueueDepth(w.queue.Len())

		text, err := w.client.Relay(ctx, item.ArtifactPath)
		if err != nil {
			if ctx.Err() != nil {
				w.state.ClearProcessing()
				return
			}
			w.logger.Error("relay failed",
				logging.String(logging.FieldArtifact, artifact),
				logging.Error(err))
			w.state.RecordFailure()
			w.state.ClearProcessing()
			continue
		}

		result := collapseWhitespace(text)
		w.state.RecordSuccess(dashboard.Entry{
			Artifact:    artifact,
			PatientName: item.PatientName,
			PatientID:   item.PatientID,
			StudyDate:   item.StudyDate,
			Result:      result,
		})
		if w.store != nil {
			report := reports.Report{
				File:        artifact,
				PatientName: item.PatientName,
				PatientID:   item.PatientID,
				StudyDate:   item.StudyDate,
				StudyTime:   item.StudyTime,
				Protocol:    item.Protocol,
				Response:    result,
			}
			if err := w.store.Save(ctx, report); err != nil {
				w.logger.Warn("failed to record report",
					logging.String(logging.FieldArtifact, artifact),
					logging.Error(err))
			}
		}
		w.logger.Info("analysis complete", logging.String(logging.FieldArtifact, artifact))
		w.state.ClearProcessing()
	}
}

// collapseWhitespace flattens the response to a single line for display.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
