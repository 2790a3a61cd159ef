package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"github.com/cstroie/XRayVision-sub000/internal/config"
	"github.com/cstroie/XRayVision-sub000/internal/dashboard"
	"github.com/cstroie/XRayVision-sub000/internal/dimse"
	"github.com/cstroie/XRayVision-sub000/internal/dimse/dcmtk"
	"github.com/cstroie/XRayVision-sub000/internal/logging"
	"github.com/cstroie/XRayVision-sub000/internal/pipeline"
	"github.com/cstroie/XRayVision-sub000/internal/raster"
	"github.com/cstroie/XRayVision-sub000/internal/relay"
	"github.com/cstroie/XRayVision-sub000/internal/reports"
)

// Daemon coordinates the background services and enforces single-instance
// execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *reports.Store
	state  *dashboard.State
	queue  *pipeline.Queue
	worker *pipeline.Worker
	server dimse.StoreServer
	web    *dashboard.Server

	lockPath string
	lock     *flock.Flock

	running    atomic.Bool
	ctx        context.Context
	cancel     context.CancelFunc
	workerDone chan struct{}
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	QueueDepth    int
	Processing    string
	SuccessCount  int
	FailureCount  int
	HistoryDBPath string
	LockFilePath  string
}

// Option overrides a collaborator, mainly for tests.
type Option func(*settings)

type settings struct {
	relayClient pipeline.RelayClient
	storeServer dimse.StoreServer
}

// WithRelayClient replaces the default analysis client.
func WithRelayClient(client pipeline.RelayClient) Option {
	return func(s *settings) {
		if client != nil {
			s.relayClient = client
		}
	}
}

// WithStoreServer replaces the default protocol listener.
func WithStoreServer(server dimse.StoreServer) Option {
	return func(s *settings) {
		if server != nil {
			s.storeServer = server
		}
	}
}

// New constructs a daemon with initialized collaborators. The store may be
// nil, in which case history persistence is disabled.
func New(cfg *config.Config, store *reports.Store, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil || logger == nil {
		return nil, errors.New("daemon requires config and logger")
	}

	var set settings
	for _, opt := range opts {
		opt(&set)
	}

	state := dashboard.NewState(cfg.Dashboard.HistorySize)
	queue := pipeline.NewQueue()

	client := set.relayClient
	if client == nil {
		client = relay.NewClient(relay.Config{
			APIKey:         cfg.AI.APIKey,
			BaseURL:        cfg.AI.BaseURL,
			Model:          cfg.AI.Model,
			TimeoutSeconds: cfg.AI.TimeoutSeconds,
		}, relay.WithMaxAttempts(cfg.AI.MaxAttempts))
	}

	receiver := pipeline.NewReceiver(cfg.Paths.ImagesDir, raster.Options{
		MaxSize:   cfg.Convert.MaxSize,
		AutoGamma: cfg.Convert.Gamma,
	}, queue, state, logger)

	server := set.storeServer
	if server == nil {
		server = dcmtk.NewServer(cfg.DICOM.AETitle, cfg.DICOM.Port,
			cfg.Paths.IncomingDir, receiver.HandleStore, logger)
	}

	var reportStore pipeline.ReportStore
	if store != nil {
		reportStore = store
	}
	worker := pipeline.NewWorker(queue, client, state, reportStore, logger)

	web := dashboard.NewServer(cfg.Dashboard.Bind, cfg.Paths.ImagesDir,
		cfg.Dashboard.RefreshSeconds, state, logger)

	lockPath := filepath.Join(cfg.Paths.LogDir, "xrayvisiond.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		state:    state,
		queue:    queue,
		worker:   worker,
		server:   server,
		web:      web,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and launches the listener, the relay
// worker, and the dashboard server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another xrayvision daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.seedHistory(d.ctx)

	if err := d.server.Start(d.ctx); err != nil {
		d.teardown()
		return fmt.Errorf("start receiver: %w", err)
	}
	if err := d.web.Start(d.ctx); err != nil {
		_ = d.server.Close()
		d.teardown()
		return fmt.Errorf("start dashboard: %w", err)
	}

	d.workerDone = make(chan struct{})
	go func() {
		defer close(d.workerDone)
		d.worker.Run(d.ctx)
	}()

	d.running.Store(true)
	d.logger.Info("xrayvision daemon started",
		logging.String("lock", d.lockPath),
		logging.String("ae_title", d.cfg.DICOM.AETitle),
		logging.Int("port", d.cfg.DICOM.Port))
	return nil
}

// seedHistory restores the most recent persisted analyses so the dashboard
// is not empty after a restart.
func (d *Daemon) seedHistory(ctx context.Context) {
	if d.store == nil {
		return
	}
	recent, err := d.store.Recent(ctx, d.cfg.Dashboard.HistorySize)
	if err != nil {
		d.logger.Warn("failed to restore history", logging.Error(err))
		return
	}
	entries := make([]dashboard.Entry, 0, len(recent))
	for _, r := range recent {
		entries = append(entries, dashboard.Entry{
			Artifact:    r.File,
			PatientName: r.PatientName,
			PatientID:   r.PatientID,
			StudyDate:   r.StudyDate,
			Result:      r.Response,
		})
	}
	d.state.SeedHistory(entries)
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.server.Close(); err != nil {
		d.logger.Warn("failed to close receiver", logging.Error(err))
	}
	d.web.Stop()
	if d.workerDone != nil {
		select {
		case <-d.workerDone:
		case <-time.After(5 * time.Second):
			d.logger.Warn("relay worker did not stop in time")
		}
		d.workerDone = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("xrayvision daemon stopped")
}

func (d *Daemon) teardown() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.ctx = nil
	_ = d.lock.Unlock()
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	snap := d.state.Snapshot()
	status := Status{
		Running:      d.running.Load(),
		QueueDepth:   snap.QueueDepth,
		Processing:   snap.Processing,
		SuccessCount: snap.SuccessCount,
		FailureCount: snap.FailureCount,
		LockFilePath: d.lockPath,
	}
	if d.store != nil {
		status.HistoryDBPath = d.store.Path()
	}
	return status
}
