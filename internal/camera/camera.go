// Package camera abstracts still-frame acquisition. The capture UI's camera
// is the one real hardware resource in the pipeline, so release is enforced
// with a scope guard rather than left to teardown callbacks.
package camera

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// DeviceError reports denied or failed access to the capture device. The
// flow surfaces the message and disables capture controls; it never crashes.
type DeviceError struct {
	Reason string
	Err    error
}

func (e *DeviceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("camera unavailable: %s: %v", e.Reason, e.Err)
	}
	return "camera unavailable: " + e.Reason
}

func (e *DeviceError) Unwrap() error { return e.Err }

// Stream is an acquired capture device. Close must run on every exit path.
type Stream interface {
	// Still captures one frame as encoded image bytes.
	Still(ctx context.Context) ([]byte, error)
	Close() error
}

// MediaCapture acquires the capture device.
type MediaCapture interface {
	Acquire(ctx context.Context) (Stream, error)
}

// WithStream runs fn with an acquired stream and guarantees release on
// success, error, and panic.
func WithStream(ctx context.Context, mc MediaCapture, fn func(Stream) error) error {
	stream, err := mc.Acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stream.Close(); cerr != nil {
			slog.Warn("Failed to release capture stream", "error", cerr)
		}
	}()
	return fn(stream)
}

// FileCapture is the server-side stand-in for a camera: each acquisition
// yields the still frame stored at Path.
type FileCapture struct {
	Path string
}

func (f FileCapture) Acquire(_ context.Context) (Stream, error) {
	if _, err := os.Stat(f.Path); err != nil {
		return nil, &DeviceError{Reason: "source frame missing", Err: err}
	}
	return &fileStream{path: f.Path}, nil
}

type fileStream struct {
	path   string
	closed bool
}

func (s *fileStream) Still(_ context.Context) ([]byte, error) {
	if s.closed {
		return nil, &DeviceError{Reason: "stream already released"}
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, &DeviceError{Reason: "read frame", Err: err}
	}
	return data, nil
}

func (s *fileStream) Close() error {
	s.closed = true
	return nil
}
