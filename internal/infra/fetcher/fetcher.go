package fetcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/sifan077/PowerRead/internal/app/model"
)

const (
	defaultTimeout      = 15 * time.Second
	defaultUserAgent    = "PowerRead/1.0 (+https://github.com/sifan077/PowerRead)"
	defaultMaxBodyBytes = 10 * 1024 * 1024
)

// bodySelectors are tried in order; the first match holds the article body.
var bodySelectors = []string{"article", "main", "body"}

// Options configures a Fetcher.
type Options struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int
}

// Fetcher downloads a page with colly and extracts its readable parts.
type Fetcher struct {
	opts Options
}

// New returns a Fetcher. Zero options use sane defaults.
func New(opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &Fetcher{opts: opts}
}

// Fetch visits url and returns what it found. Non-2xx responses and transport
// failures are returned as errors.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*model.FetchedContent, error) {
	c := colly.NewCollector(
		colly.UserAgent(f.opts.UserAgent),
		colly.MaxBodySize(f.opts.MaxBodyBytes),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(f.opts.Timeout)

	out := &model.FetchedContent{URL: url, Metadata: map[string]string{}}
	var visitErr error

	c.OnResponse(func(r *colly.Response) {
		out.URL = r.Request.URL.String()
		out.MimeType = mimeType(r.Headers.Get("Content-Type"))
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			visitErr = fmt.Errorf("fetch %s: status %d: %w", url, r.StatusCode, err)
			return
		}
		visitErr = fmt.Errorf("fetch %s: %w", url, err)
	})

	c.OnHTML("html", func(e *colly.HTMLElement) {
		out.Title = firstNonEmpty(
			e.ChildAttr(`meta[property="og:title"]`, "content"),
			e.ChildText("head > title"),
		)
		out.Language = strings.TrimSpace(e.Attr("lang"))
		out.PreviewPicture = e.ChildAttr(`meta[property="og:image"]`, "content")

		if desc := firstNonEmpty(
			e.ChildAttr(`meta[name="description"]`, "content"),
			e.ChildAttr(`meta[property="og:description"]`, "content"),
		); desc != "" {
			out.Metadata["description"] = desc
		}
		if canonical := e.ChildAttr(`link[rel="canonical"]`, "href"); canonical != "" {
			out.Metadata["canonical_url"] = e.Request.AbsoluteURL(canonical)
		}
		if site := e.ChildAttr(`meta[property="og:site_name"]`, "content"); site != "" {
			out.Metadata["site_name"] = site
		}

		for _, sel := range bodySelectors {
			node := e.DOM.Find(sel).First()
			if node.Length() == 0 {
				continue
			}
			html, err := node.Html()
			if err != nil {
				continue
			}
			out.Content = strings.TrimSpace(html)
			visible := node.Clone()
			visible.Find("script,style,noscript").Remove()
			out.Text = strings.TrimSpace(visible.Text())
			break
		}
	})

	if err := c.Visit(url); err != nil {
		if visitErr != nil {
			return nil, visitErr
		}
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if visitErr != nil {
		return nil, visitErr
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if out.MimeType == "" {
		return nil, errors.New("fetch " + url + ": empty response")
	}
	return out, nil
}

func mimeType(header string) string {
	mt, _, _ := strings.Cut(header, ";")
	return strings.TrimSpace(strings.ToLower(mt))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
