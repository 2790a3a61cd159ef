package pipeline

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/cstroie/XRayVision-sub000/internal/dashboard"
	"github.com/cstroie/XRayVision-sub000/internal/dimse"
	"github.com/cstroie/XRayVision-sub000/internal/fileutil"
	"github.com/cstroie/XRayVision-sub000/internal/logging"
	"github.com/cstroie/XRayVision-sub000/internal/raster"
)

// Receiver handles stored instances: it persists the raw file, converts the
// pixel data to a PNG artifact, and enqueues the artifact for relay. It
// always acknowledges the store so the sender never re-sends; a conversion
// failure keeps the raw file for inspection and skips the queue.
type Receiver struct {
	imagesDir string
	opts      raster.Options
	queue     *Queue
	state     *dashboard.State
	logger    *slog.Logger
}

func NewReceiver(imagesDir string, opts raster.Options, queue *Queue, state *dashboard.State, logger *slog.Logger) *Receiver {
	return &Receiver{
		imagesDir: imagesDir,
		opts:      opts,
		queue:     queue,
		state:     state,
		logger:    logging.NewComponentLogger(logger, "receiver"),
	}
}

// HandleStore is the store callback registered with the protocol server.
func (r *Receiver) HandleStore(inst dimse.Instance) dimse.Status {
	name := inst.SOPInstanceUID
	if name == "" {
		name = uuid.NewString()
	}

	rawPath := filepath.Join(r.imagesDir, name+".dcm")
	if inst.Path != "" && inst.Path != rawPath {
		if err := fileutil.MoveFile(inst.Path, rawPath); err != nil {
			r.logger.Error("failed to persist raw instance",
				logging.String(logging.FieldInstanceUID, inst.SOPInstanceUID),
				logging.Error(err))
			return dimse.StatusSuccess
		}
	}

	img, err := raster.Convert(raster.Buffer{
		Rows:     inst.Rows,
		Cols:     inst.Cols,
		Channels: inst.Channels,
		Pixels:   inst.Pixels,
	}, r.opts)
	if err != nil {
		r.logger.Error("conversion failed, keeping raw instance",
			logging.String(logging.FieldInstanceUID, inst.SOPInstanceUID),
			logging.String("raw", rawPath),
			logging.Error(err))
		return dimse.StatusSuccess
	}

	artifactPath := filepath.Join(r.imagesDir, name+".png")
	if err := raster.SavePNG(img, artifactPath); err != nil {
		r.logger.Error("failed to write artifact, keeping raw instance",
			logging.String(logging.FieldInstanceUID, inst.SOPInstanceUID),
			logging.String("raw", rawPath),
			logging.Error(err))
		return dimse.StatusSuccess
	}

	if err := os.Remove(rawPath); err != nil && !os.IsNotExist(err) {
		r.logger.Warn("failed to remove raw instance",
			logging.String("raw", rawPath),
			logging.Error(err))
	}

	r.queue.Enqueue(Item{
		ArtifactPath: artifactPath,
		PatientName:  inst.PatientName,
		PatientID:    inst.PatientID,
		StudyDate:    inst.StudyDate,
		StudyTime:    inst.StudyTime,
		Protocol:     inst.Protocol,
	})
	if r.state != nil {
		r.state.SetQueueDepth(r.queue.Len())
	}
	r.logger.Info("instance queued for analysis",
		logging.String(logging.FieldInstanceUID, inst.SOPInstanceUID),
		logging.String(logging.FieldArtifact, filepath.Base(artifactPath)),
		logging.Int("queued", r.queue.Len()))
	return dimse.StatusSuccess
}
