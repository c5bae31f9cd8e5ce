package compose

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ledongthuc/pdf"

	"github.com/workshoplabs/inspekt/internal/attachments"
	"github.com/workshoplabs/inspekt/internal/inline"
	"github.com/workshoplabs/inspekt/internal/report"
)

type stubRasterizer struct {
	img image.Image
}

func (s stubRasterizer) Rasterize(_ context.Context, _ *report.Report, _ int) (image.Image, error) {
	return s.img, nil
}

func testBitmap(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xee
	}
	return img
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, testBitmap(w, h)); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func pageCount(t *testing.T, data []byte) int {
	t.Helper()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Parse produced PDF: %v", err)
	}
	return r.NumPage()
}

func testReport() *report.Report {
	return &report.Report{
		RequestID:      "req-7",
		InspectionType: "pre-purchase",
		Client:         report.Client{Name: "Dana", Phone: "15551234567"},
		Car:            report.Car{Make: "Toyota", Model: "Corolla", Year: 2019, Plate: "ABC 123"},
		Findings: []report.Finding{
			{Section: "Engine", Title: "Oil seepage", Detail: "Minor seepage at valve cover.", Severity: "low"},
			{Section: "Body", Title: "Door scratch", Detail: "Left rear door.", Severity: "info"},
		},
		Notes:     []report.Note{{Text: "Re-check in 5k km."}},
		Settings:  report.Settings{AccentColor: "#1a6b9a", QRContent: "https://example.com/r/req-7"},
		Direction: report.DirectionLTR,
	}
}

func TestComposeReportAndPublicAttachments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngBytes(t, 40, 30))
	}))
	defer srv.Close()

	fetcher := inline.NewFetcherWithStrategies(srv.Client(), inline.Direct())
	c := NewWithRasterizer(fetcher, stubRasterizer{img: testBitmap(794, 1123)})

	list := []attachments.Attachment{
		{Name: "scan1.jpg", Type: attachments.TypeScannedDocument, URL: srv.URL + "/scan1.png"},
		{Name: "draft.jpg", Type: attachments.TypeInternalDraft, URL: srv.URL + "/draft.png"},
		{Name: "scan2.jpg", Type: attachments.TypeManualPaper, URL: srv.URL + "/scan2.png"},
		{Name: "photo.jpg", Type: attachments.TypePhoto, URL: srv.URL + "/photo.png"},
	}

	data, err := c.Compose(context.Background(), testReport(), list)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("Output is not a PDF: %q", data[:8])
	}
	// Report page plus the three non-draft attachments.
	if got := pageCount(t, data); got != 4 {
		t.Errorf("Expected 4 pages, got %d", got)
	}
}

func TestComposeUnreachableAttachmentDegradesToPlaceholder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	// All three tiers hit the failing server.
	fetcher := inline.NewFetcherWithStrategies(srv.Client(),
		inline.Direct(),
		inline.Proxy("proxy-a", srv.URL+"/relay-a?url="),
		inline.Proxy("proxy-b", srv.URL+"/relay-b?url="),
	)
	c := NewWithRasterizer(fetcher, stubRasterizer{img: testBitmap(794, 1123)})

	list := []attachments.Attachment{
		{Name: "gone.jpg", Type: attachments.TypeScannedDocument, URL: srv.URL + "/gone.jpg"},
	}

	data, err := c.Compose(context.Background(), testReport(), list)
	if err != nil {
		t.Fatalf("Compose should not fail on unreachable attachment: %v", err)
	}
	if got := pageCount(t, data); got != 2 {
		t.Errorf("Expected report page plus placeholder page, got %d", got)
	}
}

func TestComposeNilReport(t *testing.T) {
	c := New(inline.NewFetcherWithStrategies(nil, inline.Direct()))
	if _, err := c.Compose(context.Background(), nil, nil); err == nil {
		t.Error("Expected error for nil report")
	}
}

func TestAssemblePDFUndecodableAttachment(t *testing.T) {
	data, err := AssemblePDF(testBitmap(100, 141), []AttachmentPage{
		{Name: "junk.bin", Data: []byte("not an image at all")},
	})
	if err != nil {
		t.Fatalf("AssemblePDF: %v", err)
	}
	if got := pageCount(t, data); got != 2 {
		t.Errorf("Expected 2 pages, got %d", got)
	}
}

func TestAssemblePDFNilBitmap(t *testing.T) {
	if _, err := AssemblePDF(nil, nil); err == nil {
		t.Error("Expected error for nil bitmap")
	}
}

func TestFitWithin(t *testing.T) {
	tests := []struct {
		name         string
		w, h         float64
		wantW, wantH float64
	}{
		{"wide image clamps to width", 400, 200, 210, 105},
		{"tall image clamps to height", 200, 800, 74.25, 297},
		{"a4 exact", 210, 297, 210, 297},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := fitWithin(tt.w, tt.h, 210, 297)
			if !approx(w, tt.wantW) || !approx(h, tt.wantH) {
				t.Errorf("fitWithin(%v,%v): expected (%v,%v), got (%v,%v)", tt.w, tt.h, tt.wantW, tt.wantH, w, h)
			}
		})
	}
}

func approx(a, b float64) bool {
	d := a - b
	return d < 0.01 && d > -0.01
}

func TestReportRasterizer(t *testing.T) {
	rpt := testReport()
	rpt.Settings.Watermark = report.WatermarkSettings{Enabled: true}

	ras := &ReportRasterizer{}
	img, err := ras.Rasterize(context.Background(), rpt, A4WidthPx*PixelDensity)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}

	b := img.Bounds()
	if b.Dx() != A4WidthPx*PixelDensity {
		t.Errorf("Expected width %d, got %d", A4WidthPx*PixelDensity, b.Dx())
	}
	minH := int(float64(b.Dx()) * 297.0 / 210.0)
	if b.Dy() < minH-1 {
		t.Errorf("Expected at least A4 proportions, got %dx%d", b.Dx(), b.Dy())
	}

	// Header band carries the accent color.
	r, g, bl, _ := img.At(1, 1).RGBA()
	if r>>8 != 0x1a || g>>8 != 0x6b || bl>>8 != 0x9a {
		t.Errorf("Expected accent header pixel, got %d %d %d", r>>8, g>>8, bl>>8)
	}
}

func TestRasterizerFontTokenScalesLayout(t *testing.T) {
	// Enough findings that the content height exceeds the A4 minimum, so the
	// line pitch actually decides the canvas height.
	base := testReport()
	base.Notes = nil
	base.Settings.QRContent = ""
	base.Findings = nil
	for i := 0; i < 50; i++ {
		base.Findings = append(base.Findings, report.Finding{
			Section:  "Engine",
			Title:    fmt.Sprintf("Check item %d", i),
			Detail:   "Detail line.",
			Severity: "low",
		})
	}

	heights := make(map[string]int)
	for _, token := range []string{"xs", "3xl"} {
		rpt := *base
		rpt.Settings.FontToken = token
		img, err := (&ReportRasterizer{}).Rasterize(context.Background(), &rpt, A4WidthPx)
		if err != nil {
			t.Fatalf("Rasterize(%s): %v", token, err)
		}
		heights[token] = img.Bounds().Dy()
	}

	if heights["3xl"] <= heights["xs"] {
		t.Errorf("Expected larger font token to produce a taller page, got 3xl=%d xs=%d",
			heights["3xl"], heights["xs"])
	}
}

func TestParseHexColor(t *testing.T) {
	fallback := color.RGBA{R: 1, G: 2, B: 3, A: 0xff}
	tests := []struct {
		in   string
		want color.RGBA
	}{
		{"#ff0080", color.RGBA{R: 0xff, G: 0x00, B: 0x80, A: 0xff}},
		{"", fallback},
		{"red", fallback},
		{"#zzzzzz", fallback},
	}
	for _, tt := range tests {
		if got := parseHexColor(tt.in, fallback); got != tt.want {
			t.Errorf("parseHexColor(%q): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestRenderWatermarkTileHasInk(t *testing.T) {
	tile := renderWatermarkTile("Engine", -30)
	if tile.Bounds().Dx() <= 0 || tile.Bounds().Dy() <= 0 {
		t.Fatal("Empty tile")
	}
	inked := 0
	for i := 3; i < len(tile.Pix); i += 4 {
		if tile.Pix[i] > 0 {
			inked++
		}
	}
	if inked == 0 {
		t.Error("Tile has no visible pixels")
	}
}
