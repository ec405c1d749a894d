// Package linkpreview resolves thumbnails and titles for link cards.
package linkpreview

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

const (
	ProviderYouTube = "youtube"
	ProviderVimeo   = "vimeo"
	ProviderWeb     = "web"

	maxBody = 1 << 20
)

var (
	youtubePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/|youtube\.com/v/)([a-zA-Z0-9_-]{11})`),
		regexp.MustCompile(`youtube\.com/shorts/([a-zA-Z0-9_-]{11})`),
	}
	vimeoPattern = regexp.MustCompile(`vimeo\.com/(\d+)`)
	schemePrefix = regexp.MustCompile(`(?i)^https?://`)
)

// Preview is what a link card shows for a URL.
type Preview struct {
	URL         string `json:"url"`
	Domain      string `json:"domain"`
	Provider    string `json:"provider"`
	VideoID     string `json:"videoId,omitempty"`
	Image       string `json:"previewImage,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// Normalize trims raw and adds https:// when no scheme is present.
func Normalize(raw string) (string, bool) {
	href := strings.TrimSpace(raw)
	if href == "" {
		return "", false
	}
	if !schemePrefix.MatchString(href) {
		href = "https://" + href
	}
	return href, true
}

// Domain returns the host of href without a leading "www.", or href itself
// when it does not parse.
func Domain(href string) string {
	u, err := url.Parse(href)
	if err != nil || u.Hostname() == "" {
		return href
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// Detect recognizes video links. YouTube links get a thumbnail without any
// network access.
func Detect(href string) Preview {
	p := Preview{URL: href, Domain: Domain(href), Provider: ProviderWeb}
	for _, re := range youtubePatterns {
		if m := re.FindStringSubmatch(href); m != nil {
			p.Provider = ProviderYouTube
			p.VideoID = m[1]
			p.Image = fmt.Sprintf("https://img.youtube.com/vi/%s/mqdefault.jpg", m[1])
			return p
		}
	}
	if m := vimeoPattern.FindStringSubmatch(href); m != nil {
		p.Provider = ProviderVimeo
		p.VideoID = m[1]
	}
	return p
}

// Fetcher reads OpenGraph metadata from web pages.
type Fetcher struct {
	client *http.Client
}

func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Fetcher{client: &http.Client{Timeout: timeout}}
}

// NewFetcherWithClient uses client for every request.
func NewFetcherWithClient(client *http.Client) *Fetcher {
	return &Fetcher{client: client}
}

// Fetch resolves the preview of raw. Detected thumbnails short-circuit the
// page fetch.
func (f *Fetcher) Fetch(ctx context.Context, raw string) (Preview, error) {
	href, ok := Normalize(raw)
	if !ok {
		return Preview{}, fmt.Errorf("empty url")
	}
	p := Detect(href)
	if p.Image != "" {
		return p, nil
	}

	log := logrus.WithField("url", href)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, href, nil)
	if err != nil {
		return p, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/html")
	req.Header.Set("User-Agent", "anotequest-linkpreview/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		log.WithField("error", err).Debug("Failed to fetch link preview")
		return p, fmt.Errorf("fetch %s: %w", href, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return p, fmt.Errorf("fetch %s: status %d", href, resp.StatusCode)
	}

	meta := parseMeta(io.LimitReader(resp.Body, maxBody))
	p.Title = meta.title
	p.Description = meta.description
	if meta.image != "" {
		p.Image = resolve(resp.Request.URL, meta.image)
	}
	if p.Image == "" {
		return p, fmt.Errorf("no preview image for %s", href)
	}
	log.Debug("Link preview retrieved successfully")
	return p, nil
}

type pageMeta struct {
	title       string
	description string
	image       string
}

// parseMeta scans the document head for OpenGraph tags, falling back to
// <title> and the description meta tag.
func parseMeta(r io.Reader) pageMeta {
	var (
		m       pageMeta
		title   string
		desc    string
		inTitle bool
	)
	z := html.NewTokenizer(r)
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return finish(m, title, desc)
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			switch tok.Data {
			case "title":
				inTitle = tt == html.StartTagToken
			case "meta":
				key, content := metaAttrs(tok)
				switch key {
				case "og:title":
					m.title = content
				case "og:description":
					m.description = content
				case "og:image", "og:image:url", "twitter:image":
					if m.image == "" {
						m.image = content
					}
				case "description":
					desc = content
				}
			case "body":
				return finish(m, title, desc)
			}
		case html.TextToken:
			if inTitle && title == "" {
				title = strings.TrimSpace(string(z.Text()))
			}
		case html.EndTagToken:
			tok := z.Token()
			if tok.Data == "title" {
				inTitle = false
			}
			if tok.Data == "head" {
				return finish(m, title, desc)
			}
		}
	}
}

func finish(m pageMeta, title, desc string) pageMeta {
	if m.title == "" {
		m.title = title
	}
	if m.description == "" {
		m.description = desc
	}
	return m
}

func metaAttrs(tok html.Token) (key, content string) {
	for _, a := range tok.Attr {
		switch strings.ToLower(a.Key) {
		case "property", "name":
			if key == "" {
				key = strings.ToLower(strings.TrimSpace(a.Val))
			}
		case "content":
			content = strings.TrimSpace(a.Val)
		}
	}
	return key, content
}

func resolve(base *url.URL, ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base == nil {
		return u.String()
	}
	return base.ResolveReference(u).String()
}
