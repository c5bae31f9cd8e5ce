// Package inline fetches externally hosted report images and turns them into
// locally held bytes before PDF composition.
//
// Report images live on object-storage domains with inconsistent access
// policies, so a single fetch path is not reliable. Fetching runs an ordered
// list of strategies: a direct request first, then each configured proxy in
// turn. The final fallback is a fixed transparent-pixel placeholder, so a
// fetch always yields drawable bytes. One bad image degrades locally and
// never blocks report generation.
package inline

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Default proxy endpoints. Both expect the target URL appended, escaped.
const (
	DefaultProxyA = "https://api.allorigins.win/raw?url="
	DefaultProxyB = "https://corsproxy.io/?"
)

// maxImageBytes bounds a single fetched image.
const maxImageBytes = 20 << 20

// Strategy is one way to reach a remote image. Rewrite maps the original
// URL to the URL actually requested.
type Strategy struct {
	Name    string
	Rewrite func(raw string) string
}

// Direct requests the original URL as-is.
func Direct() Strategy {
	return Strategy{
		Name:    "direct",
		Rewrite: func(raw string) string { return raw },
	}
}

// Proxy routes the request through a relay that prefixes the escaped target.
func Proxy(name, prefix string) Strategy {
	return Strategy{
		Name:    name,
		Rewrite: func(raw string) string { return prefix + url.QueryEscape(raw) },
	}
}

// Result is the outcome of a fetch. Placeholder marks the guaranteed-success
// fallback pixel standing in for an unreachable image.
type Result struct {
	Data        []byte
	ContentType string
	Placeholder bool
}

// DataURI encodes the result for inlining into a rendered document.
func (r Result) DataURI() string {
	return "data:" + r.ContentType + ";base64," + base64.StdEncoding.EncodeToString(r.Data)
}

// placeholderPNG is the fixed 1x1 transparent pixel substituted when every
// strategy fails.
var placeholderPNG = func() []byte {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.SetNRGBA(0, 0, color.NRGBA{})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}()

// PlaceholderResult returns the fallback pixel.
func PlaceholderResult() Result {
	return Result{
		Data:        placeholderPNG,
		ContentType: "image/png",
		Placeholder: true,
	}
}

// Fetcher resolves remote image URLs through its strategy chain.
type Fetcher struct {
	client     *http.Client
	strategies []Strategy
}

// NewFetcher builds the standard chain: direct, proxy A, proxy B.
func NewFetcher(proxyA, proxyB string) *Fetcher {
	if proxyA == "" {
		proxyA = DefaultProxyA
	}
	if proxyB == "" {
		proxyB = DefaultProxyB
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		strategies: []Strategy{
			Direct(),
			Proxy("proxy-a", proxyA),
			Proxy("proxy-b", proxyB),
		},
	}
}

// NewFetcherWithStrategies builds a fetcher with an explicit chain, mainly
// for tests and deployments with their own relays.
func NewFetcherWithStrategies(client *http.Client, strategies ...Strategy) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Fetcher{client: client, strategies: strategies}
}

// Fetch tries each strategy once, in order, and falls back to the
// placeholder when all of them fail. It never returns an error: per-image
// failures must degrade locally, not abort the document.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) Result {
	for _, strat := range f.strategies {
		res, err := f.attempt(ctx, strat, rawURL)
		if err != nil {
			slog.Warn("Image fetch attempt failed", "strategy", strat.Name, "url", rawURL, "error", err)
			continue
		}
		return res
	}

	slog.Warn("All fetch strategies failed, substituting placeholder", "url", rawURL)
	return PlaceholderResult()
}

// attempt is one full fetch-to-bytes round trip. No retry within an attempt.
func (f *Fetcher) attempt(ctx context.Context, strat Strategy, rawURL string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strat.Rewrite(rawURL), nil)
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("image URL returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return Result{}, fmt.Errorf("read image data: %w", err)
	}
	if len(data) == 0 {
		return Result{}, fmt.Errorf("empty image body")
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return Result{Data: data, ContentType: contentType}, nil
}
