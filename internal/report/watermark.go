package report

// Watermark defaults. Opacity is deliberately faint; the tile is a
// background texture, never content.
const (
	DefaultWatermarkOpacity = 0.06
	DefaultWatermarkSpacing = 160
	DefaultWatermarkAngle   = -30.0
)

// Normalized returns the settings with defaults applied.
func (w WatermarkSettings) Normalized() WatermarkSettings {
	if w.Opacity <= 0 {
		w.Opacity = DefaultWatermarkOpacity
	}
	if w.SpacingPx <= 0 {
		w.SpacingPx = DefaultWatermarkSpacing
	}
	if w.AngleDeg == 0 {
		w.AngleDeg = DefaultWatermarkAngle
	}
	return w
}

// TilePoint is one watermark stamp position in page pixels.
type TilePoint struct {
	X int
	Y int
}

// TileGrid computes the stamp positions covering a w×h region at the
// configured spacing. Alternate rows shift by half the pitch so the pattern
// tiles seamlessly with no visible seams at region edges; positions start
// one pitch before the origin and run one past the far edge for the same
// reason.
func (w WatermarkSettings) TileGrid(width, height int) []TilePoint {
	cfg := w.Normalized()
	pitch := cfg.SpacingPx

	var points []TilePoint
	row := 0
	for y := -pitch; y <= height+pitch; y += pitch {
		offset := 0
		if row%2 == 1 {
			offset = pitch / 2
		}
		for x := -pitch + offset; x <= width+pitch; x += pitch {
			points = append(points, TilePoint{X: x, Y: y})
		}
		row++
	}
	return points
}
