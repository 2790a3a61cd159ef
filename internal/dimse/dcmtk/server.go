package dcmtk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/cstroie/XRayVision-sub000/internal/dimse"
	"github.com/cstroie/XRayVision-sub000/internal/logging"
)

const (
	defaultStorescpBinary = "storescp"
	// defaultSettleDelay is how long a received file must stay quiet before
	// it is considered fully written by storescp.
	defaultSettleDelay = 500 * time.Millisecond
)

// ServerOption configures the store server.
type ServerOption func(*Server)

// WithServerExecutor injects a custom executor (primarily for tests).
func WithServerExecutor(exec Executor) ServerOption {
	return func(s *Server) {
		if exec != nil {
			s.exec = exec
		}
	}
}

// WithSettleDelay overrides the file quiescence delay.
func WithSettleDelay(delay time.Duration) ServerOption {
	return func(s *Server) {
		if delay > 0 {
			s.settle = delay
		}
	}
}

// WithParser overrides composite object decoding (primarily for tests).
func WithParser(parse func(path string) (dimse.Instance, error)) ServerOption {
	return func(s *Server) {
		if parse != nil {
			s.parse = parse
		}
	}
}

// Server runs storescp against a working directory and dispatches every
// completed transfer to the registered handler.
type Server struct {
	binary      string
	aeTitle     string
	port        int
	incomingDir string
	handler     dimse.StoreHandler
	logger      *slog.Logger
	exec        Executor
	settle      time.Duration
	parse       func(path string) (dimse.Instance, error)

	mu      sync.Mutex
	timers  map[string]*time.Timer
	cancel  context.CancelFunc
	watcher *fsnotify.Watcher
}

// NewServer constructs a store server. The handler is invoked once per
// received instance; its returned status is logged, mirroring what the
// protocol layer reports to the sender.
func NewServer(aeTitle string, port int, incomingDir string, handler dimse.StoreHandler, logger *slog.Logger, opts ...ServerOption) *Server {
	s := &Server{
		binary:      defaultStorescpBinary,
		aeTitle:     aeTitle,
		port:        port,
		incomingDir: incomingDir,
		handler:     handler,
		logger:      logging.NewComponentLogger(logger, "store-server"),
		exec:        commandExecutor{},
		settle:      defaultSettleDelay,
		parse:       parseInstance,
		timers:      map[string]*time.Timer{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches storescp and the directory watcher. It returns once both
// are running; the acceptor keeps serving until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if s.handler == nil {
		return errors.New("store server requires a handler")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(s.incomingDir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", s.incomingDir, err)
	}
	s.watcher = watcher

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	go s.runAcceptor(runCtx)
	go s.runWatcher(runCtx)

	s.logger.Info("storage acceptor listening",
		logging.String("ae_title", s.aeTitle),
		logging.Int("port", s.port),
		logging.String("incoming_dir", s.incomingDir),
	)
	return nil
}

// Close stops the acceptor and the watcher.
func (s *Server) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

// runAcceptor keeps storescp alive, restarting it after unexpected exits.
func (s *Server) runAcceptor(ctx context.Context) {
	args := []string{
		"--aetitle", s.aeTitle,
		"--output-directory", s.incomingDir,
		strconv.Itoa(s.port),
	}
	for ctx.Err() == nil {
		err := s.exec.Run(ctx, s.binary, args, func(line string) {
			s.logger.Debug("storescp", logging.String("line", line))
		})
		if ctx.Err() != nil {
			return
		}
		s.logger.Warn("storescp exited, restarting", logging.Error(err))
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}

func (s *Server) runWatcher(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			s.scheduleDispatch(ctx, event.Name)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("watcher error", logging.Error(err))
		}
	}
}

// scheduleDispatch arms (or re-arms) a quiescence timer for the path so a
// file is only parsed after storescp stops writing to it.
func (s *Server) scheduleDispatch(ctx context.Context, path string) {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if timer, ok := s.timers[path]; ok {
		timer.Reset(s.settle)
		return
	}
	s.timers[path] = time.AfterFunc(s.settle, func() {
		s.mu.Lock()
		delete(s.timers, path)
		s.mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		s.dispatch(path)
	})
}

func (s *Server) dispatch(path string) {
	instance, err := s.parse(path)
	if err != nil {
		s.logger.Error("decode received object", logging.String("path", path), logging.Error(err))
		return
	}
	status := s.handler(instance)
	s.logger.Info("instance stored",
		logging.String(logging.FieldInstanceUID, instance.SOPInstanceUID),
		logging.String("status", status.String()),
	)
}
