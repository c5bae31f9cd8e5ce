package compose

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"

	"codeberg.org/go-pdf/fpdf"

	"github.com/workshoplabs/inspekt/internal/inline"
)

// A4 page size in millimeters.
const (
	a4WidthMM  = 210.0
	a4HeightMM = 297.0
)

// AttachmentPage is the drawable content of one appended PDF page.
type AttachmentPage struct {
	Name string
	Data []byte
}

// AssemblePDF builds the output document: the report bitmap full bleed on a
// first page sized to its aspect ratio at A4 width, then one A4 page per
// attachment, centered and scaled to fit without cropping. An attachment
// whose bytes are not a decodable image draws as the placeholder pixel
// instead of aborting the document.
func AssemblePDF(bitmap image.Image, pages []AttachmentPage) ([]byte, error) {
	if bitmap == nil {
		return nil, fmt.Errorf("nil report bitmap")
	}
	bb := bitmap.Bounds()
	if bb.Dx() <= 0 || bb.Dy() <= 0 {
		return nil, fmt.Errorf("empty report bitmap %dx%d", bb.Dx(), bb.Dy())
	}

	var reportBuf bytes.Buffer
	if err := png.Encode(&reportBuf, bitmap); err != nil {
		return nil, fmt.Errorf("encode report bitmap: %w", err)
	}

	firstHeight := a4WidthMM * float64(bb.Dy()) / float64(bb.Dx())

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPageFormat("P", fpdf.SizeType{Wd: a4WidthMM, Ht: firstHeight})

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("report", opts, &reportBuf)
	pdf.ImageOptions("report", 0, 0, a4WidthMM, firstHeight, false, opts, 0, "")

	for i, page := range pages {
		data := page.Data
		imageType, w, h, err := inspectImage(data)
		if err != nil {
			// Undrawable bytes degrade to the placeholder pixel.
			data = inline.PlaceholderResult().Data
			imageType, w, h = "PNG", 1, 1
		}

		pdf.AddPageFormat("P", fpdf.SizeType{Wd: a4WidthMM, Ht: a4HeightMM})

		drawW, drawH := fitWithin(float64(w), float64(h), a4WidthMM, a4HeightMM)
		x := (a4WidthMM - drawW) / 2
		y := (a4HeightMM - drawH) / 2

		name := fmt.Sprintf("attachment%d", i)
		pageOpts := fpdf.ImageOptions{ImageType: imageType}
		pdf.RegisterImageOptionsReader(name, pageOpts, bytes.NewReader(data))
		pdf.ImageOptions(name, x, y, drawW, drawH, false, pageOpts, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// inspectImage detects the format and dimensions of encoded image bytes.
func inspectImage(data []byte) (string, int, int, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", 0, 0, fmt.Errorf("decode image config: %w", err)
	}
	return strings.ToUpper(format), cfg.Width, cfg.Height, nil
}

// fitWithin scales (w, h) to the largest size inside (maxW, maxH) that
// preserves the aspect ratio.
func fitWithin(w, h, maxW, maxH float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return maxW, maxH
	}
	scale := maxW / w
	if h*scale > maxH {
		scale = maxH / h
	}
	return w * scale, h * scale
}
