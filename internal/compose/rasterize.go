// Package compose turns a report model plus its archived attachments into a
// single multi-page PDF: a rasterized report page first, then one A4 page
// per client-facing attachment.
package compose

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/workshoplabs/inspekt/internal/report"
)

// A4WidthPx is A4 width at 96dpi. Rasterization runs at PixelDensity times
// this for print sharpness.
const (
	A4WidthPx    = 794
	PixelDensity = 2
)

// Rasterizer renders a report model into a bitmap at the given pixel width.
// Implementations must be safe to call once per compose; tests inject fakes.
type Rasterizer interface {
	Rasterize(ctx context.Context, rpt *report.Report, widthPx int) (image.Image, error)
}

// ReportRasterizer is the native layout engine: header band, section blocks
// with tiled watermarks, findings, notes, and a QR slot, drawn onto an RGBA
// canvas.
type ReportRasterizer struct {
	// Images maps a finding image URL to its fetched bytes, resolved before
	// rasterization. Missing entries draw as empty frames.
	Images map[string]image.Image
}

func (r *ReportRasterizer) Rasterize(_ context.Context, rpt *report.Report, widthPx int) (image.Image, error) {
	if rpt == nil {
		return nil, fmt.Errorf("nil report")
	}
	if widthPx <= 0 {
		return nil, fmt.Errorf("invalid raster width %d", widthPx)
	}

	scale := float64(widthPx) / float64(A4WidthPx)
	// Print output steps the configured font token down one slot; the line
	// pitch follows that printed size so the whole layout densifies with it.
	line := int(math.Round(report.PrintFontPx(rpt.Settings.FontToken) * scale))
	margin := int(math.Round(24 * scale))

	height := r.measure(rpt, widthPx, line, margin)
	canvas := image.NewRGBA(image.Rect(0, 0, widthPx, height))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)

	accent := parseHexColor(rpt.Settings.AccentColor, color.RGBA{R: 0x1a, G: 0x6b, B: 0x9a, A: 0xff})

	y := r.drawHeader(canvas, rpt, accent, line, margin)
	for _, section := range rpt.Sections() {
		y = r.drawSection(canvas, rpt, section, accent, y, line, margin)
	}
	y = r.drawNotes(canvas, rpt, y, line, margin)
	r.drawQRSlot(canvas, rpt, y, line, margin)

	return canvas, nil
}

// measure computes the canvas height for the report content.
func (r *ReportRasterizer) measure(rpt *report.Report, widthPx, line, margin int) int {
	h := margin*2 + line*5 // header band
	for _, section := range rpt.Sections() {
		h += line * 2 // section title
		h += line * 2 * len(rpt.SectionFindings(section))
		h += line // gap
	}
	if len(rpt.Notes) > 0 {
		h += line * (2 + len(rpt.Notes))
	}
	if rpt.Settings.QRContent != "" {
		h += line * 8
	}
	h += margin
	// Keep at least an A4-proportioned page.
	minH := int(math.Round(float64(widthPx) * 297.0 / 210.0))
	if h < minH {
		h = minH
	}
	return h
}

func (r *ReportRasterizer) drawHeader(canvas *image.RGBA, rpt *report.Report, accent color.RGBA, line, margin int) int {
	b := canvas.Bounds()
	band := image.Rect(0, 0, b.Dx(), margin+line*3)
	draw.Draw(canvas, band, &image.Uniform{C: accent}, image.Point{}, draw.Src)

	drawText(canvas, margin, margin, color.White, rpt.InspectionType+" - "+rpt.RequestID)
	drawText(canvas, margin, margin+line, color.White,
		fmt.Sprintf("%s %s %d · %s", rpt.Car.Make, rpt.Car.Model, rpt.Car.Year, rpt.Car.Plate))
	drawText(canvas, margin, margin+line*2, color.White, rpt.Client.Name)

	return band.Max.Y + line
}

func (r *ReportRasterizer) drawSection(canvas *image.RGBA, rpt *report.Report, section string, accent color.RGBA, y, line, margin int) int {
	findings := rpt.SectionFindings(section)

	blockHeight := line*2 + line*2*len(findings)
	if rpt.Settings.Watermark.Enabled {
		drawWatermark(canvas, section, rpt.Settings.Watermark,
			image.Rect(0, y, canvas.Bounds().Dx(), y+blockHeight))
	}

	drawText(canvas, margin, y, accent, section)
	y += line * 2

	for _, f := range findings {
		if img, ok := r.Images[f.ImageURL]; ok && img != nil {
			box := image.Rect(canvas.Bounds().Dx()-margin-line*4, y, canvas.Bounds().Dx()-margin, y+line*2)
			xdraw.ApproxBiLinear.Scale(canvas, box, img, img.Bounds(), xdraw.Over, nil)
		}
		drawText(canvas, margin+line, y, color.Black, fmt.Sprintf("[%s] %s", f.Severity, f.Title))
		y += line
		drawText(canvas, margin+line*2, y, color.Gray{Y: 0x55}, f.Detail)
		y += line
	}
	return y + line
}

func (r *ReportRasterizer) drawNotes(canvas *image.RGBA, rpt *report.Report, y, line, margin int) int {
	if len(rpt.Notes) == 0 {
		return y
	}
	drawText(canvas, margin, y, color.Black, "Notes")
	y += line * 2
	for _, n := range rpt.Notes {
		drawText(canvas, margin+line, y, color.Gray{Y: 0x33}, n.Text)
		y += line
	}
	return y
}

// drawQRSlot reserves the share-code area. The QR itself is composed as a
// static raster by the share flow; the report page carries its frame and
// payload text so the slot survives re-rendering.
func (r *ReportRasterizer) drawQRSlot(canvas *image.RGBA, rpt *report.Report, y, line, margin int) {
	if rpt.Settings.QRContent == "" {
		return
	}
	size := line * 6
	frame := image.Rect(margin, y, margin+size, y+size)
	drawRectOutline(canvas, frame, color.Gray{Y: 0x99})
	drawText(canvas, margin, y+size+line, color.Gray{Y: 0x55}, rpt.Settings.QRContent)
}

// drawText renders a single line with the built-in fixed-width face. The
// y coordinate is the top of the line box.
func drawText(dst *image.RGBA, x, y int, c color.Color, s string) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y+basicfont.Face7x13.Ascent),
	}
	d.DrawString(s)
}

func drawRectOutline(dst *image.RGBA, r image.Rectangle, c color.Color) {
	for x := r.Min.X; x < r.Max.X; x++ {
		dst.Set(x, r.Min.Y, c)
		dst.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		dst.Set(r.Min.X, y, c)
		dst.Set(r.Max.X-1, y, c)
	}
}

// parseHexColor reads #rrggbb, falling back on bad input.
func parseHexColor(s string, fallback color.RGBA) color.RGBA {
	if len(s) != 7 || s[0] != '#' {
		return fallback
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &r, &g, &b); err != nil {
		return fallback
	}
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}
