package capture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"math"
	"time"
)

// ErrRenderContext reports that no usable raster target could be set up,
// typically a degenerate viewport or output size. Callers must surface an
// error state instead of producing a blank scan.
var ErrRenderContext = errors.New("raster context unavailable")

// DefaultOutputWidth bounds the longest dimension of a rendered scan.
const DefaultOutputWidth = 1200

// DefaultQuality is the JPEG quality for archived document scans.
const DefaultQuality = 85

// Viewport is the on-screen capture area the user composed the shot in.
// The rendered output preserves its aspect ratio.
type Viewport struct {
	Width  int
	Height int
}

// RenderOptions tune the output raster.
type RenderOptions struct {
	// OutputWidth bounds the longest output dimension. Zero means
	// DefaultOutputWidth.
	OutputWidth int
	// Quality is the JPEG quality in [1,100]. Zero means DefaultQuality.
	Quality int
	// Timestamp names the output file. Zero means time.Now().
	Timestamp time.Time
}

// Document is a rendered scan: JPEG bytes plus a synthetic timestamped name.
// Immutable once produced; the upload pipeline turns it into an attachment.
type Document struct {
	Name   string
	Data   []byte
	Width  int
	Height int
}

// Render rasterizes the source photo under the session's view transform into
// a normalized JPEG. The pan and zoom the user applied on screen are scaled
// by the ratio of output size to viewport size so the export matches what
// they saw. Pixels outside the source fill with white.
func Render(src image.Image, vp Viewport, sess Session, opts RenderOptions) (*Document, error) {
	if src == nil {
		return nil, &DecodeError{Err: errors.New("nil source image")}
	}
	if vp.Width <= 0 || vp.Height <= 0 {
		return nil, fmt.Errorf("%w: viewport %dx%d", ErrRenderContext, vp.Width, vp.Height)
	}
	// A zero scale can only come from a hand-built Session that bypassed the
	// clamp; rendering it would yield a blank page, not a scan.
	if sess.Scale <= 0 {
		return nil, fmt.Errorf("%w: zoom %g", ErrRenderContext, sess.Scale)
	}

	outW := opts.OutputWidth
	if outW <= 0 {
		outW = DefaultOutputWidth
	}
	quality := opts.Quality
	if quality <= 0 {
		quality = DefaultQuality
	}
	ts := opts.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	// Fit the viewport aspect so the longest output dimension equals outW.
	var w, h int
	if vp.Width >= vp.Height {
		w = outW
		h = int(math.Round(float64(outW) * float64(vp.Height) / float64(vp.Width)))
	} else {
		h = outW
		w = int(math.Round(float64(outW) * float64(vp.Width) / float64(vp.Height)))
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: output %dx%d", ErrRenderContext, w, h)
	}

	ratio := float64(w) / float64(vp.Width)
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Bounds(), image.White, image.Point{}, draw.Src)

	drawTransformed(out, src, sess, ratio)
	ApplyFilter(out, sess.Filter)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode scan: %w", err)
	}

	return &Document{
		Name:   fmt.Sprintf("scanned_%d.jpg", ts.Unix()),
		Data:   buf.Bytes(),
		Width:  w,
		Height: h,
	}, nil
}

// drawTransformed inverse-maps every output pixel through the view transform
// and bilinearly samples the source. The on-screen transform order is
// translate to center, pan, zoom, rotate, with the source drawn centered at
// its natural size; the inverse undoes those steps in reverse.
func drawTransformed(dst *image.RGBA, src image.Image, sess Session, ratio float64) {
	b := dst.Bounds()
	sb := src.Bounds()
	sw, sh := float64(sb.Dx()), float64(sb.Dy())

	cx := float64(b.Dx())/2 + sess.Position.X*ratio
	cy := float64(b.Dy())/2 + sess.Position.Y*ratio
	zoom := sess.Scale * ratio

	cos, sin := rotationTrig(sess)

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			// Undo translate+pan, then zoom, then rotate.
			qx := (float64(x) + 0.5 - cx) / zoom
			qy := (float64(y) + 0.5 - cy) / zoom
			sx := qx*cos + qy*sin + sw/2
			sy := -qx*sin + qy*cos + sh/2
			if sx < 0 || sy < 0 || sx >= sw || sy >= sh {
				continue
			}
			r, g, bl := sampleBilinear(src, sx-0.5, sy-0.5)
			i := dst.PixOffset(x, y)
			dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2], dst.Pix[i+3] = r, g, bl, 0xff
		}
	}
}

// rotationTrig returns exact cosine and sine for the session rotation.
// Quarter turns use exact integer values so a rotation of r and r+360
// produce pixel-identical output; anything else falls back to math trig.
func rotationTrig(sess Session) (cos, sin float64) {
	switch sess.NormalizedRotation() {
	case 0:
		return 1, 0
	case 90:
		return 0, 1
	case 180:
		return -1, 0
	case 270:
		return 0, -1
	default:
		rad := float64(sess.NormalizedRotation()) * math.Pi / 180
		return math.Cos(rad), math.Sin(rad)
	}
}

// sampleBilinear blends the four source pixels around the fractional
// coordinate. Coordinates are clamped to the source bounds, so edge pixels
// extend rather than bleed background color.
func sampleBilinear(src image.Image, x, y float64) (uint8, uint8, uint8) {
	sb := src.Bounds()
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	fx := x - float64(x0)
	fy := y - float64(y0)

	clampX := func(v int) int {
		if v < sb.Min.X {
			return sb.Min.X
		}
		if v >= sb.Max.X {
			return sb.Max.X - 1
		}
		return v
	}
	clampY := func(v int) int {
		if v < sb.Min.Y {
			return sb.Min.Y
		}
		if v >= sb.Max.Y {
			return sb.Max.Y - 1
		}
		return v
	}

	px := func(ix, iy int) (float64, float64, float64) {
		r, g, b, _ := src.At(clampX(sb.Min.X+ix), clampY(sb.Min.Y+iy)).RGBA()
		return float64(r >> 8), float64(g >> 8), float64(b >> 8)
	}

	r00, g00, b00 := px(x0, y0)
	r10, g10, b10 := px(x0+1, y0)
	r01, g01, b01 := px(x0, y0+1)
	r11, g11, b11 := px(x0+1, y0+1)

	lerp2 := func(a, b, c, d float64) uint8 {
		top := a + (b-a)*fx
		bot := c + (d-c)*fx
		v := top + (bot-top)*fy
		return uint8(math.Round(clampRange(v, 0, 255)))
	}

	return lerp2(r00, r10, r01, r11), lerp2(g00, g10, g01, g11), lerp2(b00, b10, b01, b11)
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
