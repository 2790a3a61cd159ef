package dcmtk

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cstroie/XRayVision-sub000/internal/dimse"
)

const (
	defaultEchoscuBinary = "echoscu"
	defaultFindscuBinary = "findscu"
	defaultMovescuBinary = "movescu"
	defaultDIMSETimeout  = 30 * time.Second
)

// Option configures the dialer.
type Option func(*Dialer)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(d *Dialer) {
		if exec != nil {
			d.exec = exec
		}
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dialer) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// Dialer opens DCMTK-backed associations. Each Find and Move runs its own
// toolkit invocation; Associate verifies the peer with a C-ECHO first so an
// unreachable peer fails at association time, matching the primitive's
// contract.
type Dialer struct {
	echoscuBinary string
	findscuBinary string
	movescuBinary string
	timeout       time.Duration
	exec          Executor
}

// NewDialer constructs a dialer using the DCMTK binaries from PATH.
func NewDialer(opts ...Option) *Dialer {
	d := &Dialer{
		echoscuBinary: defaultEchoscuBinary,
		findscuBinary: defaultFindscuBinary,
		movescuBinary: defaultMovescuBinary,
		timeout:       defaultDIMSETimeout,
		exec:          commandExecutor{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Associate validates the peer with a C-ECHO and returns an association
// handle bound to it.
func (d *Dialer) Associate(ctx context.Context, local string, peer dimse.Peer) (dimse.Association, error) {
	runCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	args := append(identityArgs(local, peer), peer.Host, strconv.Itoa(peer.Port))
	if err := d.exec.Run(runCtx, d.echoscuBinary, args, nil); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", dimse.ErrAssociationFailed, peer.Addr(), err)
	}
	return &association{dialer: d, local: local, peer: peer, established: true}, nil
}

type association struct {
	dialer      *Dialer
	local       string
	peer        dimse.Peer
	established bool
}

func (a *association) Established() bool {
	return a.established
}

// studyUIDPattern matches the StudyInstanceUID attribute in findscu response
// dumps, e.g. "I: (0020,000d) UI [1.2.840.113619.2.55] # 20, 1 StudyInstanceUID".
var studyUIDPattern = regexp.MustCompile(`\(0020,000d\)\s+UI\s+\[([^\]]+)\]`)

// statusPattern matches DIMSE status values reported by the toolkit,
// e.g. "I: Received Final Move Response (Status: 0xFF00)".
var statusPattern = regexp.MustCompile(`[Ss]tatus[:=]?\s*0x([0-9A-Fa-f]{4})`)

func (a *association) Find(ctx context.Context, query dimse.Query) ([]dimse.FindResult, error) {
	if !a.established {
		return nil, dimse.ErrAssociationFailed
	}
	runCtx, cancel := context.WithTimeout(ctx, a.dialer.timeout)
	defer cancel()

	args := append(identityArgs(a.local, a.peer), "-S", "-v")
	args = append(args, queryKeys(query)...)
	args = append(args, "-k", "StudyInstanceUID=")
	args = append(args, a.peer.Host, strconv.Itoa(a.peer.Port))

	var results []dimse.FindResult
	err := a.dialer.exec.Run(runCtx, a.dialer.findscuBinary, args, func(line string) {
		if m := studyUIDPattern.FindStringSubmatch(line); m != nil {
			results = append(results, dimse.FindResult{
				Status:           dimse.StatusPending,
				StudyInstanceUID: strings.TrimSpace(m[1]),
			})
		}
	})
	if err != nil {
		return results, fmt.Errorf("find: %w", err)
	}
	return results, nil
}

func (a *association) Move(ctx context.Context, query dimse.Query, destAETitle string) ([]dimse.MoveResult, error) {
	if !a.established {
		return nil, dimse.ErrAssociationFailed
	}
	if strings.TrimSpace(query.StudyInstanceUID) == "" {
		return nil, errors.New("move: study instance uid required")
	}
	runCtx, cancel := context.WithTimeout(ctx, a.dialer.timeout)
	defer cancel()

	args := append(identityArgs(a.local, a.peer), "-S", "-v", "-aem", destAETitle)
	args = append(args, queryKeys(query)...)
	args = append(args, a.peer.Host, strconv.Itoa(a.peer.Port))

	var results []dimse.MoveResult
	err := a.dialer.exec.Run(runCtx, a.dialer.movescuBinary, args, func(line string) {
		if m := statusPattern.FindStringSubmatch(line); m != nil {
			if code, parseErr := strconv.ParseUint(m[1], 16, 16); parseErr == nil {
				results = append(results, dimse.MoveResult{Status: dimse.Status(code)})
			}
		}
	})
	if err != nil {
		return results, fmt.Errorf("move: %w", err)
	}
	if len(results) == 0 {
		// The toolkit exited cleanly without reporting a status line.
		results = append(results, dimse.MoveResult{Status: dimse.StatusSuccess})
	}
	return results, nil
}

func (a *association) Release() error {
	a.established = false
	return nil
}

func identityArgs(local string, peer dimse.Peer) []string {
	return []string{"-aet", local, "-aec", peer.AETitle}
}

func queryKeys(query dimse.Query) []string {
	keys := []string{"-k", "QueryRetrieveLevel=" + query.Level}
	if query.StudyDate != "" {
		keys = append(keys, "-k", "StudyDate="+query.StudyDate)
	}
	if query.Modality != "" {
		keys = append(keys, "-k", "Modality="+query.Modality)
	}
	if query.StudyInstanceUID != "" {
		keys = append(keys, "-k", "StudyInstanceUID="+query.StudyInstanceUID)
	}
	return keys
}
