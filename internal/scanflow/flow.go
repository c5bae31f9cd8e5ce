// Package scanflow tracks the lifecycle of a capture flow: composing the
// shot, waiting on an AI recognition call, and reviewing the result.
package scanflow

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/workshoplabs/inspekt/internal/capture"
)

// State of a capture flow.
type State string

const (
	// StateCapture is the initial state: the user is composing the shot.
	StateCapture State = "capture"
	// StateProcessing means a recognition call is in flight. Reachable only
	// from capture.
	StateProcessing State = "processing"
	// StateReview means recognition succeeded and the result is shown.
	// Reachable only from processing.
	StateReview State = "review"
	// StateClosed is terminal. Plain document scans go straight from capture
	// to closed once the file is produced.
	StateClosed State = "closed"
)

// Flow is one capture session's lifecycle plus its view transform. A flow is
// shared between concurrent requests carrying the same ID, so transitions
// lock; read through Snapshot.
type Flow struct {
	mu sync.Mutex

	ID        string          `json:"id"`
	State     State           `json:"state"`
	Session   capture.Session `json:"session"`
	Result    any             `json:"result,omitempty"`
	LastError string          `json:"last_error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// View is a point-in-time copy of a flow, safe to serialize while other
// requests keep transitioning the original.
type View struct {
	ID        string          `json:"id"`
	State     State           `json:"state"`
	Session   capture.Session `json:"session"`
	Result    any             `json:"result,omitempty"`
	LastError string          `json:"last_error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Snapshot returns the flow's current state as a detached copy.
func (f *Flow) Snapshot() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return View{
		ID:        f.ID,
		State:     f.State,
		Session:   f.Session,
		Result:    f.Result,
		LastError: f.LastError,
		CreatedAt: f.CreatedAt,
	}
}

// NewFlow starts a flow in the capture state.
func NewFlow(bounds capture.ScaleBounds) *Flow {
	return &Flow{
		ID:        uuid.NewString(),
		State:     StateCapture,
		Session:   capture.NewSession(bounds),
		CreatedAt: time.Now(),
	}
}

// TransitionError reports an illegal state change.
type TransitionError struct {
	From State
	To   State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal transition %s -> %s", e.From, e.To)
}

// BeginProcessing marks a recognition call in flight.
func (f *Flow) BeginProcessing() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.State != StateCapture {
		return &TransitionError{From: f.State, To: StateProcessing}
	}
	f.State = StateProcessing
	f.LastError = ""
	return nil
}

// CompleteRecognition stores a successful recognition result and moves to
// review.
func (f *Flow) CompleteRecognition(result any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.State != StateProcessing {
		return &TransitionError{From: f.State, To: StateReview}
	}
	f.State = StateReview
	f.Result = result
	return nil
}

// FailRecognition returns the flow to capture with the error message shown
// to the user. Recognition is never silently retried.
func (f *Flow) FailRecognition(msg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.State != StateProcessing {
		return &TransitionError{From: f.State, To: StateCapture}
	}
	f.State = StateCapture
	f.LastError = msg
	return nil
}

// Close ends the flow from any state. Closing discards the view transform;
// in-flight recognition results are dropped when they resolve.
func (f *Flow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.State = StateClosed
}
