package capture

import (
	"image"
	"math"
)

// Contrast constants for the document filter. The intercept keeps mid gray
// fixed while the factor stretches around it.
const (
	documentContrast  = 1.2
	documentIntercept = 128 * (1 - documentContrast)
	paperWhiteSnap    = 200
	inkBlackSnap      = 50
	bwThreshold       = 128
)

// luminance is the Rec. 601 weighted sum used by both filters.
func luminance(r, g, b uint8) float64 {
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}

// documentValue maps one pixel through the document filter: contrast stretch,
// then snap near-white to paper white and near-black to ink black.
func documentValue(r, g, b uint8) uint8 {
	v := documentContrast*luminance(r, g, b) + documentIntercept
	switch {
	case v > paperWhiteSnap:
		v = 255
	case v < inkBlackSnap:
		v = 0
	}
	if v > 255 {
		v = 255
	}
	if v < 0 {
		v = 0
	}
	// Round like a clamped byte store, not truncate.
	return uint8(math.Round(v))
}

// thresholdValue maps one pixel through the black-and-white filter. The
// boundary is the exact historical comparison: luminance strictly greater
// than 128 is white, 128 itself is black. Downstream OCR tuning depends on
// this constant, so do not change it.
func thresholdValue(r, g, b uint8) uint8 {
	if luminance(r, g, b) > bwThreshold {
		return 255
	}
	return 0
}

// ApplyFilter runs the selected pixel pass over the image in place.
// FilterOriginal leaves pixels untouched.
func ApplyFilter(img *image.RGBA, mode Mode) {
	var fn func(r, g, b uint8) uint8
	switch mode {
	case FilterDocument:
		fn = documentValue
	case FilterBlackAndWhite:
		fn = thresholdValue
	default:
		return
	}

	pix := img.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		v := fn(pix[i], pix[i+1], pix[i+2])
		pix[i], pix[i+1], pix[i+2] = v, v, v
	}
}
