package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"downloader/internal/models"

	"golang.org/x/net/html"
	"golang.org/x/time/rate"
)

// Page holds the media metadata found on a content page.
type Page struct {
	Video string
	Image string
	Title string
}

// Fetcher retrieves a content page and extracts its media metadata.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (*Page, error)
}

// HTTPFetcher fetches pages over HTTP. Outbound requests share a token bucket
// so a burst of client traffic cannot hammer the upstream site.
type HTTPFetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
	maxBody   int64
}

// NewHTTPFetcher creates a fetcher from the download configuration. A nil
// client gets a default one using cfg.Timeout.
func NewHTTPFetcher(cfg models.DownloadConfig, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &HTTPFetcher{
		client:    client,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		userAgent: cfg.UserAgent,
		maxBody:   cfg.MaxBodyBytes,
	}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("upstream throttle: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	page, err := parsePage(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		return nil, err
	}

	base := resp.Request.URL
	page.Video = resolveRef(base, page.Video)
	page.Image = resolveRef(base, page.Image)
	return page, nil
}

// parsePage scans the document head for Open Graph media tags. Scanning stops
// at <body>.
func parsePage(r io.Reader) (*Page, error) {
	page := &Page{}
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return nil, fmt.Errorf("failed to parse page: %w", err)
			}
			return page, nil
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			switch tok.Data {
			case "body":
				return page, nil
			case "meta":
				applyMeta(page, tok.Attr)
			}
		}
	}
}

func applyMeta(page *Page, attrs []html.Attribute) {
	var property, content string
	for _, a := range attrs {
		switch strings.ToLower(a.Key) {
		case "property", "name":
			property = strings.ToLower(a.Val)
		case "content":
			content = strings.TrimSpace(a.Val)
		}
	}
	if content == "" {
		return
	}

	switch property {
	case "og:video:secure_url":
		page.Video = content
	case "og:video", "og:video:url":
		if page.Video == "" {
			page.Video = content
		}
	case "og:image":
		if page.Image == "" {
			page.Image = content
		}
	case "og:title":
		page.Title = content
	}
}

func resolveRef(base *url.URL, ref string) string {
	if ref == "" || base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
