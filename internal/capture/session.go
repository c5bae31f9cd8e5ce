// Package capture implements the geometric normalizer for scanned documents.
//
// A capture flow lets the user pan, zoom and rotate a source photo over a
// fixed viewport and then rasterizes the transformed, filtered result into a
// normalized JPEG suitable for archival or recognition. The view transform is
// held in an immutable Session value updated through pure transition
// functions, so the math can be tested without any UI attached.
package capture

// Point is a pan offset in viewport pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ScaleBounds clamps the zoom range of a capture flow.
type ScaleBounds struct {
	Min float64
	Max float64
}

// Zoom ranges differ per entry point: the document scanner allows closer
// inspection than the plate/car scanner.
var (
	DocumentScaleBounds = ScaleBounds{Min: 0.5, Max: 5.0}
	PlateScaleBounds    = ScaleBounds{Min: 0.5, Max: 3.0}
)

// Mode selects the pixel pass applied at render time, not at draw time.
type Mode string

const (
	FilterOriginal      Mode = "original"
	FilterDocument      Mode = "document"
	FilterBlackAndWhite Mode = "black_and_white"
)

// Session is the transient view state of a capture flow. Values are
// immutable; transitions return an updated copy. A Session is discarded when
// the flow closes or confirms.
type Session struct {
	Scale       float64 `json:"scale"`
	Position    Point   `json:"position"`
	RotationDeg int     `json:"rotation_deg"`
	Filter      Mode    `json:"filter"`

	bounds ScaleBounds
}

// NewSession returns the initial state for a capture flow with the given
// zoom bounds.
func NewSession(bounds ScaleBounds) Session {
	return Session{
		Scale:  1.0,
		Filter: FilterOriginal,
		bounds: bounds,
	}
}

// WithScale sets the zoom level, clamped to the session's bounds.
func (s Session) WithScale(scale float64) Session {
	if scale < s.bounds.Min {
		scale = s.bounds.Min
	}
	if scale > s.bounds.Max {
		scale = s.bounds.Max
	}
	s.Scale = scale
	return s
}

// WithPan accumulates a pointer-drag or wheel delta. The offset is free-form
// and intentionally unclamped.
func (s Session) WithPan(dx, dy float64) Session {
	s.Position.X += dx
	s.Position.Y += dy
	return s
}

// RotatedBy accumulates a rotation step. The UI only ever produces ±90°
// clicks; accumulation is unbounded and reduced for display by
// NormalizedRotation.
func (s Session) RotatedBy(deg int) Session {
	s.RotationDeg += deg
	return s
}

// WithFilter selects the render-time pixel pass.
func (s Session) WithFilter(m Mode) Session {
	s.Filter = m
	return s
}

// NormalizedRotation reduces the accumulated rotation to [0, 360).
func (s Session) NormalizedRotation() int {
	r := s.RotationDeg % 360
	if r < 0 {
		r += 360
	}
	return r
}
