package compose

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/workshoplabs/inspekt/internal/attachments"
	"github.com/workshoplabs/inspekt/internal/inline"
	"github.com/workshoplabs/inspekt/internal/report"
)

// Compositor renders a report model and its archive into one shareable PDF.
//
// The caller passes the exact model to render; a translated report is a
// wholesale substitute object, never merged field by field here.
type Compositor struct {
	fetcher    *inline.Fetcher
	rasterizer Rasterizer
}

// New builds a compositor with the standard fetch chain and the native
// rasterizer.
func New(fetcher *inline.Fetcher) *Compositor {
	return &Compositor{fetcher: fetcher}
}

// NewWithRasterizer injects a custom rasterizer, mainly for tests.
func NewWithRasterizer(fetcher *inline.Fetcher, r Rasterizer) *Compositor {
	return &Compositor{fetcher: fetcher, rasterizer: r}
}

// Compose produces the final PDF: rendered report first, then one page per
// client-facing attachment in insertion order. Every remote image is
// resolved before rasterization; failures degrade to the placeholder pixel
// and never abort the document.
func (c *Compositor) Compose(ctx context.Context, rpt *report.Report, list []attachments.Attachment) ([]byte, error) {
	if rpt == nil {
		return nil, fmt.Errorf("nil report")
	}

	images, err := c.resolveFindingImages(ctx, rpt)
	if err != nil {
		return nil, err
	}

	ras := c.rasterizer
	if ras == nil {
		ras = &ReportRasterizer{Images: images}
	}

	bitmap, err := ras.Rasterize(ctx, rpt, A4WidthPx*PixelDensity)
	if err != nil {
		return nil, fmt.Errorf("rasterize report: %w", err)
	}

	pages := c.fetchAttachmentPages(ctx, attachments.ClientFacing(list))

	pdfData, err := AssemblePDF(bitmap, pages)
	if err != nil {
		return nil, err
	}

	slog.Info("Report composed", "request_id", rpt.RequestID, "pages", 1+len(pages), "bytes", len(pdfData))
	return pdfData, nil
}

// resolveFindingImages fetches every distinct finding image concurrently.
// Each task writes only its own slot; the map is built after the join.
func (c *Compositor) resolveFindingImages(ctx context.Context, rpt *report.Report) (map[string]image.Image, error) {
	var urls []string
	seen := make(map[string]bool)
	for _, f := range rpt.Findings {
		if f.ImageURL != "" && !seen[f.ImageURL] {
			seen[f.ImageURL] = true
			urls = append(urls, f.ImageURL)
		}
	}
	if len(urls) == 0 {
		return nil, nil
	}

	results := make([]inline.Result, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	for i, u := range urls {
		g.Go(func() error {
			results[i] = c.fetcher.Fetch(gctx, u)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	images := make(map[string]image.Image, len(urls))
	for i, u := range urls {
		img, _, err := image.Decode(bytes.NewReader(results[i].Data))
		if err != nil {
			slog.Warn("Finding image undecodable, skipping thumbnail", "url", u, "error", err)
			continue
		}
		images[u] = img
	}
	return images, nil
}

// fetchAttachmentPages resolves archived attachment bytes, placeholder on
// failure. Page order is the filtered insertion order.
func (c *Compositor) fetchAttachmentPages(ctx context.Context, list []attachments.Attachment) []AttachmentPage {
	pages := make([]AttachmentPage, len(list))
	g, gctx := errgroup.WithContext(ctx)
	for i, att := range list {
		g.Go(func() error {
			res := c.fetcher.Fetch(gctx, att.URL)
			pages[i] = AttachmentPage{Name: att.Name, Data: res.Data}
			return nil
		})
	}
	// Fetch never fails; the join is what matters.
	_ = g.Wait()
	return pages
}
