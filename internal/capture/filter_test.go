package capture

import (
	"image"
	"testing"
)

func TestDocumentValueRange(t *testing.T) {
	for v := 0; v <= 255; v++ {
		out := documentValue(uint8(v), uint8(v), uint8(v))
		if out > 255 {
			t.Fatalf("documentValue(%d) out of range: %d", v, out)
		}
	}
}

func TestDocumentValueMonotonic(t *testing.T) {
	prev := documentValue(0, 0, 0)
	for v := 1; v <= 255; v++ {
		out := documentValue(uint8(v), uint8(v), uint8(v))
		if out < prev {
			t.Fatalf("documentValue not monotonic at %d: %d < %d", v, out, prev)
		}
		prev = out
	}
}

func TestDocumentValueSnapBands(t *testing.T) {
	tests := []struct {
		name     string
		gray     uint8
		expected uint8
	}{
		// 1.2*0 - 25.6 = -25.6, below the ink snap
		{"black snaps to ink black", 0, 0},
		// 1.2*255 - 25.6 = 280.4, above the paper snap
		{"white snaps to paper white", 255, 255},
		// 1.2*128 - 25.6 = 128, inside the linear band
		{"mid gray passes through", 128, 128},
		// 1.2*100 - 25.6 = 94.4, inside the linear band
		{"light shadow stretches down", 100, 94},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := documentValue(tt.gray, tt.gray, tt.gray); got != tt.expected {
				t.Errorf("documentValue(%d): expected %d, got %d", tt.gray, tt.expected, got)
			}
		})
	}
}

func TestThresholdValueBoundary(t *testing.T) {
	// The historical comparison is strictly-greater-than: 128 itself is black.
	if got := thresholdValue(128, 128, 128); got != 0 {
		t.Errorf("thresholdValue at 128: expected 0, got %d", got)
	}
	if got := thresholdValue(129, 129, 129); got != 255 {
		t.Errorf("thresholdValue at 129: expected 255, got %d", got)
	}
}

func TestThresholdValueBinary(t *testing.T) {
	for v := 0; v <= 255; v += 3 {
		out := thresholdValue(uint8(v), uint8(v), uint8(v))
		if out != 0 && out != 255 {
			t.Fatalf("thresholdValue(%d) not binary: %d", v, out)
		}
	}
}

func TestApplyFilterGrayscalesAllChannels(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Pix[0], img.Pix[1], img.Pix[2], img.Pix[3] = 200, 50, 90, 255

	ApplyFilter(img, FilterDocument)

	if img.Pix[0] != img.Pix[1] || img.Pix[1] != img.Pix[2] {
		t.Errorf("Expected equal channels after document filter, got %v", img.Pix[:3])
	}
	if img.Pix[3] != 255 {
		t.Errorf("Alpha changed: %d", img.Pix[3])
	}
}

func TestApplyFilterOriginalIsNoop(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Pix[0], img.Pix[1], img.Pix[2], img.Pix[3] = 10, 20, 30, 255

	ApplyFilter(img, FilterOriginal)

	if img.Pix[0] != 10 || img.Pix[1] != 20 || img.Pix[2] != 30 {
		t.Errorf("Original filter modified pixels: %v", img.Pix[:3])
	}
}
