// Package scrape fetches web pages and reduces them to readable text for
// model consumption. Script, style and navigation noise is stripped; links
// are collected separately so workflows can crawl outward.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/planweave/planweave/tool"
)

// Page is the readable projection of a fetched document.
type Page struct {
	URL   string   `json:"url"`
	Title string   `json:"title"`
	Text  string   `json:"text"`
	Links []string `json:"links"`
}

// Options configure the scraper.
type Options struct {
	// HTTPClient overrides the HTTP client.
	HTTPClient *http.Client
	// MaxBytes caps the response body read. Defaults to 2MB.
	MaxBytes int64
	// MaxTextLen truncates extracted text. Defaults to 20000 runes.
	MaxTextLen int
}

// Scraper fetches and cleans pages.
type Scraper struct {
	httpClient *http.Client
	maxBytes   int64
	maxTextLen int
}

// New creates a scraper.
func New(optFns ...func(o *Options)) *Scraper {
	opts := Options{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		MaxBytes:   2 << 20,
		MaxTextLen: 20000,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Scraper{
		httpClient: opts.HTTPClient,
		maxBytes:   opts.MaxBytes,
		maxTextLen: opts.MaxTextLen,
	}
}

// Fetch retrieves a page and extracts title, text and absolute links.
func (s *Scraper) Fetch(ctx context.Context, pageURL string) (Page, error) {
	base, err := url.Parse(pageURL)
	if err != nil || !base.IsAbs() {
		return Page{}, fmt.Errorf("invalid url %q", pageURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return Page{}, fmt.Errorf("create scrape request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Page{}, fmt.Errorf("fetch %s: HTTP %d", pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes))
	if err != nil {
		return Page{}, fmt.Errorf("read %s: %w", pageURL, err)
	}

	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return Page{}, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	page := Page{URL: pageURL}
	page.Title = findTitle(doc)
	page.Text = truncate(extractText(doc), s.maxTextLen)
	page.Links = extractLinks(doc, base)
	return page, nil
}

// Tool wraps the scraper as a callable tool returning readable page text.
func (s *Scraper) Tool() tool.Tool {
	type args struct {
		URL string `json:"url" description:"The page URL to fetch"`
	}
	return tool.NewFunctionToolFromStruct(
		"scrape_page",
		"Fetch a web page and return its readable text content",
		args{},
		func(ctx context.Context, args map[string]any) (any, error) {
			pageURL, _ := args["url"].(string)
			page, err := s.Fetch(ctx, pageURL)
			if err != nil {
				return nil, err
			}
			var sb strings.Builder
			if page.Title != "" {
				fmt.Fprintf(&sb, "# %s\n\n", page.Title)
			}
			sb.WriteString(page.Text)
			return sb.String(), nil
		},
	)
}

func findTitle(doc *html.Node) string {
	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			title = strings.TrimSpace(n.FirstChild.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title
}

// extractText walks visible nodes, skipping script/style/nav noise, and
// joins text runs with newlines.
func extractText(doc *html.Node) string {
	skip := map[string]bool{
		"script": true, "style": true, "noscript": true,
		"nav": true, "header": true, "footer": true, "iframe": true,
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skip[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				sb.WriteString(text)
				sb.WriteString("\n")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.TrimSpace(sb.String())
}

// extractLinks collects unique absolute http(s) links.
func extractLinks(doc *html.Node, base *url.URL) []string {
	seen := map[string]bool{}
	var links []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				ref, err := url.Parse(strings.TrimSpace(attr.Val))
				if err != nil {
					continue
				}
				abs := base.ResolveReference(ref)
				if abs.Scheme != "http" && abs.Scheme != "https" {
					continue
				}
				abs.Fragment = ""
				link := abs.String()
				if !seen[link] {
					seen[link] = true
					links = append(links, link)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links
}

func truncate(text string, maxLen int) string {
	if maxLen <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen])
}
