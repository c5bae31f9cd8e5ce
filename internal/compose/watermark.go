package compose

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/workshoplabs/inspekt/internal/report"
)

// drawWatermark tiles the section title across the clip region as a faint
// rotated background texture. Stamps blend at the configured opacity so they
// never obstruct the text drawn on top.
func drawWatermark(dst *image.RGBA, text string, cfg report.WatermarkSettings, clip image.Rectangle) {
	cfg = cfg.Normalized()
	if text == "" {
		return
	}

	tile := renderWatermarkTile(text, cfg.AngleDeg)
	alpha := cfg.Opacity

	for _, p := range cfg.TileGrid(clip.Dx(), clip.Dy()) {
		stampTile(dst, tile, clip.Min.X+p.X, clip.Min.Y+p.Y, alpha, clip)
	}
}

// renderWatermarkTile draws the title into a small buffer and rotates it by
// the configured angle with the same inverse-map sampling the scanner uses.
func renderWatermarkTile(text string, angleDeg float64) *image.RGBA {
	face := basicfont.Face7x13
	w := font.MeasureString(face, text).Ceil()
	h := face.Ascent + face.Descent
	if w <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 1, 1))
	}

	flat := image.NewRGBA(image.Rect(0, 0, w, h))
	d := font.Drawer{
		Dst:  flat,
		Src:  image.NewUniform(color.Black),
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	d.DrawString(text)

	rad := angleDeg * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)

	// Bounding box of the rotated tile.
	fw, fh := float64(w), float64(h)
	rw := int(math.Ceil(math.Abs(fw*cos) + math.Abs(fh*sin)))
	rh := int(math.Ceil(math.Abs(fw*sin) + math.Abs(fh*cos)))

	rotated := image.NewRGBA(image.Rect(0, 0, rw, rh))
	for y := 0; y < rh; y++ {
		for x := 0; x < rw; x++ {
			// Inverse-rotate around the centers.
			qx := float64(x) - float64(rw)/2
			qy := float64(y) - float64(rh)/2
			sx := qx*cos + qy*sin + fw/2
			sy := -qx*sin + qy*cos + fh/2
			ix, iy := int(math.Round(sx)), int(math.Round(sy))
			if ix < 0 || iy < 0 || ix >= w || iy >= h {
				continue
			}
			rotated.SetRGBA(x, y, flat.RGBAAt(ix, iy))
		}
	}
	return rotated
}

// stampTile alpha-blends the tile onto dst at (ox, oy), clipped.
func stampTile(dst *image.RGBA, tile *image.RGBA, ox, oy int, alpha float64, clip image.Rectangle) {
	tb := tile.Bounds()
	for y := tb.Min.Y; y < tb.Max.Y; y++ {
		for x := tb.Min.X; x < tb.Max.X; x++ {
			px := tile.RGBAAt(x, y)
			if px.A == 0 {
				continue
			}
			dx, dy := ox+x, oy+y
			if !image.Pt(dx, dy).In(clip) || !image.Pt(dx, dy).In(dst.Bounds()) {
				continue
			}
			a := alpha * float64(px.A) / 255
			old := dst.RGBAAt(dx, dy)
			dst.SetRGBA(dx, dy, color.RGBA{
				R: blend(old.R, px.R, a),
				G: blend(old.G, px.G, a),
				B: blend(old.B, px.B, a),
				A: 0xff,
			})
		}
	}
}

func blend(under, over uint8, alpha float64) uint8 {
	v := float64(under)*(1-alpha) + float64(over)*alpha
	return uint8(math.Round(v))
}
