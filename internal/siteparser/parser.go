// Package siteparser fetches a company website and extracts the text a brand
// profile is built from.
package siteparser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

var (
	ErrInvalidURL  = errors.New("invalid website url")
	ErrUnreachable = errors.New("website unreachable")
)

const (
	maxHeadings   = 20
	maxParagraphs = 30
	maxParagraph  = 400
)

type Site struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	SiteName    string    `json:"site_name,omitempty"`
	Description string    `json:"description,omitempty"`
	Headings    []string  `json:"headings,omitempty"`
	Paragraphs  []string  `json:"paragraphs,omitempty"`
	ThemeColor  string    `json:"theme_color,omitempty"`
	LogoURL     string    `json:"logo_url,omitempty"`
	LangGuess   string    `json:"lang_guess"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Name is the best guess at the company name.
func (s *Site) Name() string {
	if s.SiteName != "" {
		return s.SiteName
	}
	title := s.Title
	for _, sep := range []string{" | ", " - ", " – ", " · "} {
		if i := strings.Index(title, sep); i > 0 {
			title = title[:i]
		}
	}
	return strings.TrimSpace(title)
}

// Summary renders the extracted content as model input.
func (s *Site) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Website: %s\n", s.URL)
	if s.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", s.Title)
	}
	if s.SiteName != "" {
		fmt.Fprintf(&b, "Site name: %s\n", s.SiteName)
	}
	if s.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", s.Description)
	}
	if s.ThemeColor != "" {
		fmt.Fprintf(&b, "Theme color: %s\n", s.ThemeColor)
	}
	if len(s.Headings) > 0 {
		fmt.Fprintf(&b, "Headings:\n- %s\n", strings.Join(s.Headings, "\n- "))
	}
	if len(s.Paragraphs) > 0 {
		fmt.Fprintf(&b, "Content:\n%s\n", strings.Join(s.Paragraphs, "\n"))
	}
	return b.String()
}

type Parser struct {
	httpClient *http.Client
	log        *zap.Logger
	maxRetries int
	backoff    time.Duration
}

func NewParser(timeout time.Duration, maxRetries int, log *zap.Logger) *Parser {
	return &Parser{
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
		maxRetries: maxRetries,
		backoff:    500 * time.Millisecond,
	}
}

func (p *Parser) Fetch(ctx context.Context, rawURL string) (*Site, error) {
	u, err := normalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	var doc *goquery.Document
	var lastErr error

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * p.backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")

		resp, err := p.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP %d for %s", resp.StatusCode, u)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				break
			}
			continue
		}

		doc, err = goquery.NewDocumentFromReader(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		lastErr = nil
		break
	}

	if lastErr != nil {
		p.log.Warn("site fetch failed", zap.String("url", u), zap.Error(lastErr))
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, lastErr)
	}

	site := parseDocument(doc, u)
	return site, nil
}

func parseDocument(doc *goquery.Document, pageURL string) *Site {
	site := &Site{
		URL:       pageURL,
		Title:     cleanText(doc.Find("title").First().Text()),
		FetchedAt: time.Now(),
	}

	site.Description = meta(doc, `meta[name="description"]`)
	if site.Description == "" {
		site.Description = meta(doc, `meta[property="og:description"]`)
	}
	site.SiteName = meta(doc, `meta[property="og:site_name"]`)
	site.ThemeColor = meta(doc, `meta[name="theme-color"]`)

	logo := meta(doc, `meta[property="og:image"]`)
	if logo == "" {
		logo, _ = doc.Find(`link[rel="icon"], link[rel="shortcut icon"], link[rel="apple-touch-icon"]`).First().Attr("href")
	}
	site.LogoURL = resolve(pageURL, logo)

	doc.Find("h1, h2, h3").Each(func(_ int, s *goquery.Selection) {
		if len(site.Headings) >= maxHeadings {
			return
		}
		if text := cleanText(s.Text()); text != "" {
			site.Headings = append(site.Headings, text)
		}
	})

	var allText strings.Builder
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		text := cleanText(s.Text())
		if len(text) < 30 || len(site.Paragraphs) >= maxParagraphs {
			return
		}
		if len(text) > maxParagraph {
			text = text[:maxParagraph]
		}
		site.Paragraphs = append(site.Paragraphs, text)
		allText.WriteString(text)
		allText.WriteString(" ")
	})

	site.LangGuess = guessLanguage(site.Title + " " + allText.String())
	return site
}

func meta(doc *goquery.Document, selector string) string {
	v, _ := doc.Find(selector).First().Attr("content")
	return cleanText(v)
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func normalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty url", ErrInvalidURL)
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: no host", ErrInvalidURL)
	}
	return u.String(), nil
}

func resolve(base, ref string) string {
	if ref == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

func guessLanguage(text string) string {
	if strings.TrimSpace(text) == "" {
		return "unknown"
	}

	var cyrillic, latin, arabic, cjk, total int
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		total++
		switch {
		case unicode.Is(unicode.Cyrillic, r):
			cyrillic++
		case unicode.Is(unicode.Latin, r):
			latin++
		case unicode.Is(unicode.Arabic, r):
			arabic++
		case unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r):
			cjk++
		}
	}

	if total == 0 {
		return "unknown"
	}

	pct := func(n int) float64 { return float64(n) / float64(total) }
	switch {
	case pct(cyrillic) >= 0.3:
		return "ru"
	case pct(arabic) >= 0.3:
		return "ar"
	case pct(cjk) >= 0.3:
		return "zh"
	case pct(latin) >= 0.3:
		return "en"
	default:
		return "other"
	}
}
