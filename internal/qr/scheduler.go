package qr

import (
	"context"
	"log/slog"
	"time"

	"github.com/cstroie/XRayVision-sub000/internal/dimse"
	"github.com/cstroie/XRayVision-sub000/internal/logging"
)

// Scheduler retrieves studies from a remote archive one day at a time. Each
// day gets its own find association; each matching study gets its own move
// association so a stuck transfer cannot poison the day's query.
type Scheduler struct {
	dialer       dimse.Dialer
	localAE      string
	peer         dimse.Peer
	modality     string
	moveDelay    time.Duration
	releaseDelay time.Duration
	sleep        func(time.Duration)
	logger       *slog.Logger
}

// Option configures optional Scheduler behavior.
type Option func(*Scheduler)

// WithSleeper overrides the pacing function. Tests use this to avoid real
// delays.
func WithSleeper(sleep func(time.Duration)) Option {
	return func(s *Scheduler) {
		if sleep != nil {
			s.sleep = sleep
		}
	}
}

// WithDelays overrides the pause after each move and the linger before
// releasing a day's find association.
func WithDelays(moveDelay, releaseDelay time.Duration) Option {
	return func(s *Scheduler) {
		s.moveDelay = moveDelay
		s.releaseDelay = releaseDelay
	}
}

func NewScheduler(dialer dimse.Dialer, localAE string, peer dimse.Peer, modality string, logger *slog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		dialer:       dialer,
		localAE:      localAE,
		peer:         peer,
		modality:     modality,
		moveDelay:    time.Second,
		releaseDelay: 10 * time.Second,
		sleep:        time.Sleep,
		logger:       logging.NewComponentLogger(logger, "qr"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run queries the given month day by day, or a single day when day is
// non-nil. Days the archive refuses an association for are logged and
// skipped. Run stops early only when ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context, year, month int, day *int) error {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	if day != nil {
		start = time.Date(year, time.Month(month), *day, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 0, 1)
	}

	for cur := start; cur.Before(end); cur = cur.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.runDay(ctx, cur.Format("20060102")); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) runDay(ctx context.Context, date string) error {
	s.logger.Info("querying studies", logging.String("date", date))

	assoc, err := s.dialer.Associate(ctx, s.localAE, s.peer)
	if err != nil {
		s.logger.Warn("association failed, skipping day",
			logging.String("date", date),
			logging.Error(err))
		return nil
	}

	results, err := assoc.Find(ctx, dimse.StudyQuery(date, s.modality))
	if err != nil {
		s.logger.Error("study query failed",
			logging.String("date", date),
			logging.Error(err))
	}
	for _, result := range results {
		if !result.Status.Pending() || result.StudyInstanceUID == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			_ = assoc.Release()
			return err
		}
		s.logger.Info("queued study for retrieval",
			logging.String("date", date),
			logging.String(logging.FieldStudyUID, result.StudyInstanceUID))
		s.moveStudy(ctx, result.StudyInstanceUID)
		s.sleep(s.moveDelay)
	}

	s.sleep(s.releaseDelay)
	if err := assoc.Release(); err != nil {
		s.logger.Warn("failed to release association",
			logging.String("date", date),
			logging.Error(err))
	}
	return nil
}

func (s *Scheduler) moveStudy(ctx context.Context, studyInstanceUID string) {
	assoc, err := s.dialer.Associate(ctx, s.localAE, s.peer)
	if err != nil {
		s.logger.Error("could not establish retrieval association",
			logging.String(logging.FieldStudyUID, studyInstanceUID),
			logging.Error(err))
		return
	}
	defer func() {
		if err := assoc.Release(); err != nil {
			s.logger.Warn("failed to release retrieval association",
				logging.String(logging.FieldStudyUID, studyInstanceUID),
				logging.Error(err))
		}
	}()

	results, err := assoc.Move(ctx, dimse.MoveQuery(studyInstanceUID), s.localAE)
	if err != nil {
		s.logger.Error("retrieval failed",
			logging.String(logging.FieldStudyUID, studyInstanceUID),
			logging.Error(err))
		return
	}
	for _, result := range results {
		s.logger.Info("retrieval status",
			logging.String(logging.FieldStudyUID, studyInstanceUID),
			logging.String("status", result.Status.String()))
	}
}
