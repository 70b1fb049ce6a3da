// Package download implements the per-session download state machine:
//
//	Idle --Select--> Targeted --Begin--> Resolving --Complete--> Ready | Failed
//	Ready --Save--> Idle
//	Failed --Retry--> Targeted(same file)
//	Failed --Dismiss--> Idle
//	any --Cancel--> Idle
//
// At most one file is targeted at a time. The flow itself performs no I/O; the
// owning session fetches content between Begin and Complete and the flow drops
// results that arrive after it was cancelled or re-targeted.
package download

import (
	"errors"
	"fmt"
)

// State enumerates the flow's states.
type State int

const (
	Idle State = iota
	Targeted
	Resolving
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Targeted:
		return "Targeted"
	case Resolving:
		return "Resolving"
	case Ready:
		return "Ready"
	case Failed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Snapshot is a read-only copy of the flow.
type Snapshot struct {
	State    State
	FileID   string
	Filename string
	Size     int
	Failure  *ResolutionError
}

// Ticket identifies one resolution attempt. Complete ignores tickets from
// superseded attempts.
type Ticket struct {
	FileID     string
	generation uint64
}

// Flow is the download state machine. Not safe for concurrent use.
type Flow struct {
	state      State
	fileID     string
	content    []byte
	filename   string
	failure    *ResolutionError
	generation uint64
}

// NewFlow returns an Idle flow.
func NewFlow() *Flow {
	return &Flow{}
}

// State returns the current state.
func (f *Flow) State() State { return f.state }

// FileID returns the targeted file, or "" when Idle.
func (f *Flow) FileID() string { return f.fileID }

// Snapshot returns a copy of the flow without the content bytes.
func (f *Flow) Snapshot() Snapshot {
	return Snapshot{
		State:    f.state,
		FileID:   f.fileID,
		Filename: f.filename,
		Size:     len(f.content),
		Failure:  f.failure,
	}
}

// Select targets fileID, replacing any previous target from any state.
func (f *Flow) Select(fileID string) {
	f.reset()
	f.state = Targeted
	f.fileID = fileID
}

// Begin moves Targeted to Resolving and returns the ticket to hand back to Complete.
func (f *Flow) Begin() (Ticket, error) {
	if f.state != Targeted {
		return Ticket{}, fmt.Errorf("%w: begin from %s", ErrInvalidTransition, f.state)
	}
	f.state = Resolving
	return Ticket{FileID: f.fileID, generation: f.generation}, nil
}

// Complete records the outcome of a resolution attempt. It returns false, leaving
// the flow untouched, when the ticket is stale. A non-nil err moves the flow to
// Failed; a *ResolutionError is kept as is, anything else counts as a fetch failure.
func (f *Flow) Complete(t Ticket, content []byte, filename string, err error) bool {
	if f.state != Resolving || t.generation != f.generation || t.FileID != f.fileID {
		return false
	}
	if err != nil {
		var re *ResolutionError
		if !errors.As(err, &re) {
			re = NewFetchError(f.fileID, err)
		}
		f.state = Failed
		f.failure = re
		return true
	}
	f.state = Ready
	f.content = content
	f.filename = filename
	return true
}

// Save hands over the prepared content and returns the flow to Idle.
// Content is offered once; a second Save fails.
func (f *Flow) Save() ([]byte, string, error) {
	if f.state != Ready {
		return nil, "", fmt.Errorf("%w: save from %s", ErrInvalidTransition, f.state)
	}
	content, filename := f.content, f.filename
	f.reset()
	return content, filename, nil
}

// Retry re-targets the file that failed.
func (f *Flow) Retry() error {
	if f.state != Failed {
		return fmt.Errorf("%w: retry from %s", ErrInvalidTransition, f.state)
	}
	f.Select(f.fileID)
	return nil
}

// Dismiss drops a failure and returns to Idle.
func (f *Flow) Dismiss() error {
	if f.state != Failed {
		return fmt.Errorf("%w: dismiss from %s", ErrInvalidTransition, f.state)
	}
	f.reset()
	return nil
}

// Cancel returns to Idle from any state. An in-flight resolution keeps running
// but its result will be discarded.
func (f *Flow) Cancel() {
	f.reset()
}

func (f *Flow) reset() {
	f.generation++
	f.state = Idle
	f.fileID = ""
	f.content = nil
	f.filename = ""
	f.failure = nil
}
