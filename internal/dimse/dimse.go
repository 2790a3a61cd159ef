// Package dimse defines the boundary to the DICOM association primitive.
//
// The protocol state machine itself lives in an external toolkit; this
// package only names the pieces the pipeline and the query/retrieve
// scheduler depend on: peers, queries, status codes, associations, and the
// storage acceptor callback.
package dimse

import (
	"context"
	"errors"
	"fmt"
)

// ErrAssociationFailed indicates the peer rejected or never completed the
// association negotiation.
var ErrAssociationFailed = errors.New("association failed")

// Peer identifies a remote application entity.
type Peer struct {
	AETitle string
	Host    string
	Port    int
}

// Addr returns the host:port form of the peer address.
func (p Peer) Addr() string {
	return fmt.Sprintf("%s:%d", p.Host, p.Port)
}

// Status is a DIMSE response status code.
type Status uint16

const (
	// StatusSuccess is the all-purpose success code.
	StatusSuccess Status = 0x0000
	// StatusPending and StatusPendingWarning indicate an in-progress match
	// that carries a result identifier.
	StatusPending        Status = 0xFF00
	StatusPendingWarning Status = 0xFF01
)

// Pending reports whether the status carries a match still being returned.
func (s Status) Pending() bool {
	return s == StatusPending || s == StatusPendingWarning
}

// String formats the status the way DICOM literature writes it.
func (s Status) String() string {
	return fmt.Sprintf("0x%04X", uint16(s))
}

// Query describes a C-FIND or C-MOVE identifier at STUDY level.
type Query struct {
	Level            string
	StudyDate        string
	Modality         string
	StudyInstanceUID string
}

// StudyQuery builds a study discovery query for one day and modality.
func StudyQuery(studyDate, modality string) Query {
	return Query{Level: "STUDY", StudyDate: studyDate, Modality: modality}
}

// MoveQuery builds a study transfer request identifier.
func MoveQuery(studyInstanceUID string) Query {
	return Query{Level: "STUDY", StudyInstanceUID: studyInstanceUID}
}

// FindResult is one C-FIND response item.
type FindResult struct {
	Status           Status
	StudyInstanceUID string
}

// MoveResult is one C-MOVE response item.
type MoveResult struct {
	Status Status
}

// Association is a stateful session with a remote peer.
type Association interface {
	// Established reports whether negotiation completed.
	Established() bool
	// Find issues a C-FIND and returns the response items in arrival order.
	Find(ctx context.Context, query Query) ([]FindResult, error)
	// Move issues a C-MOVE targeting destAETitle as the transfer destination.
	Move(ctx context.Context, query Query, destAETitle string) ([]MoveResult, error)
	// Release ends the association.
	Release() error
}

// Dialer opens associations against remote peers.
type Dialer interface {
	Associate(ctx context.Context, local string, peer Peer) (Association, error)
}

// Instance is a decoded, protocol-delivered image object. It replaces the
// loose event payload of the toolkit with one validated record.
type Instance struct {
	SOPInstanceUID string
	PatientName    string
	PatientID      string
	StudyDate      string
	StudyTime      string
	Protocol       string

	// Path of the received composite object on disk.
	Path string

	// Decoded pixel buffer, row major. Channels is 1 for grayscale.
	Rows     int
	Cols     int
	Channels int
	BitDepth int
	Pixels   []int
}

// StoreHandler is invoked for every accepted transfer. The returned status
// is handed back to the protocol layer.
type StoreHandler func(Instance) Status

// StoreServer accepts incoming storage requests and feeds them to a handler.
type StoreServer interface {
	Start(ctx context.Context) error
	Close() error
}
