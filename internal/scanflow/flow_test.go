package scanflow

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/workshoplabs/inspekt/internal/capture"
)

func TestRecognitionFlowHappyPath(t *testing.T) {
	f := NewFlow(capture.PlateScaleBounds)

	if f.State != StateCapture {
		t.Fatalf("Expected initial state capture, got %s", f.State)
	}
	if err := f.BeginProcessing(); err != nil {
		t.Fatalf("BeginProcessing: %v", err)
	}
	if err := f.CompleteRecognition(map[string]string{"plate": "ABC 123"}); err != nil {
		t.Fatalf("CompleteRecognition: %v", err)
	}
	if f.State != StateReview {
		t.Errorf("Expected review, got %s", f.State)
	}
}

func TestRecognitionFailureReturnsToCapture(t *testing.T) {
	f := NewFlow(capture.PlateScaleBounds)
	if err := f.BeginProcessing(); err != nil {
		t.Fatalf("BeginProcessing: %v", err)
	}
	if err := f.FailRecognition("model returned no plate"); err != nil {
		t.Fatalf("FailRecognition: %v", err)
	}

	if f.State != StateCapture {
		t.Errorf("Expected capture after failure, got %s", f.State)
	}
	if f.LastError != "model returned no plate" {
		t.Errorf("Expected error message retained, got %q", f.LastError)
	}

	// Retrying must be an explicit new processing transition.
	if err := f.BeginProcessing(); err != nil {
		t.Errorf("Expected retry from capture to be allowed: %v", err)
	}
	if f.LastError != "" {
		t.Errorf("Expected error cleared on retry, got %q", f.LastError)
	}
}

func TestIllegalTransitions(t *testing.T) {
	tests := []struct {
		name string
		run  func(f *Flow) error
	}{
		{"review without processing", func(f *Flow) error {
			return f.CompleteRecognition(nil)
		}},
		{"fail without processing", func(f *Flow) error {
			return f.FailRecognition("boom")
		}},
		{"processing from closed", func(f *Flow) error {
			f.Close()
			return f.BeginProcessing()
		}},
		{"double processing", func(f *Flow) error {
			if err := f.BeginProcessing(); err != nil {
				return err
			}
			return f.BeginProcessing()
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFlow(capture.DocumentScaleBounds)
			err := tt.run(f)
			var te *TransitionError
			if !errors.As(err, &te) {
				t.Errorf("Expected TransitionError, got %v", err)
			}
		})
	}
}

func TestConcurrentBeginProcessingAdmitsOne(t *testing.T) {
	f := NewFlow(capture.PlateScaleBounds)

	const workers = 16
	var wg sync.WaitGroup
	var admitted atomic.Int32
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := f.BeginProcessing(); err == nil {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := admitted.Load(); got != 1 {
		t.Errorf("Expected exactly one transition into processing, got %d", got)
	}
	if snap := f.Snapshot(); snap.State != StateProcessing {
		t.Errorf("Expected processing, got %s", snap.State)
	}
}

func TestSnapshotDetached(t *testing.T) {
	f := NewFlow(capture.PlateScaleBounds)
	snap := f.Snapshot()
	if err := f.BeginProcessing(); err != nil {
		t.Fatalf("BeginProcessing: %v", err)
	}
	if snap.State != StateCapture {
		t.Errorf("Expected snapshot unchanged by later transition, got %s", snap.State)
	}
}

func TestPlainScanClosesFromCapture(t *testing.T) {
	f := NewFlow(capture.DocumentScaleBounds)
	f.Close()
	if f.State != StateClosed {
		t.Errorf("Expected closed, got %s", f.State)
	}
}

func TestStore(t *testing.T) {
	s := NewStore()
	f := NewFlow(capture.DocumentScaleBounds)
	s.Set(f.ID, f)

	got, ok := s.Get(f.ID)
	if !ok || got.ID != f.ID {
		t.Fatalf("Expected stored flow back, got %v %v", got, ok)
	}

	if len(s.GetAll()) != 1 {
		t.Errorf("Expected one flow")
	}

	s.Delete(f.ID)
	if _, ok := s.Get(f.ID); ok {
		t.Errorf("Expected flow deleted")
	}
}
