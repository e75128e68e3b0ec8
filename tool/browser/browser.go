// Package browser visits pages with a headless Chromium instance via
// go-rod. It exists for JS-heavy sites where plain HTTP scraping returns
// an empty shell; the site analyzer falls back to it when scrape yields
// too little text.
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/planweave/planweave/tool"
)

// Page is the rendered projection of a visited document.
type Page struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Text        string `json:"text"`
}

// Options configure the browser.
type Options struct {
	// ControlURL connects to an existing browser instead of launching one.
	ControlURL string
	// Headless controls whether the launched Chromium shows a window.
	// Defaults to true.
	Headless bool
	// NavigationTimeout bounds page loads. Defaults to 30s.
	NavigationTimeout time.Duration
	// MaxTextLen truncates extracted text. Defaults to 20000 runes.
	MaxTextLen int
}

// Browser renders pages headlessly.
type Browser struct {
	opts    Options
	browser *rod.Browser
}

// New creates a browser handle. The underlying Chromium is launched lazily
// on first Visit so constructing a Browser is cheap.
func New(optFns ...func(o *Options)) *Browser {
	opts := Options{
		Headless:          true,
		NavigationTimeout: 30 * time.Second,
		MaxTextLen:        20000,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Browser{opts: opts}
}

func (b *Browser) connect() (*rod.Browser, error) {
	if b.browser != nil {
		return b.browser, nil
	}
	controlURL := b.opts.ControlURL
	if controlURL == "" {
		launched, err := launcher.New().Headless(b.opts.Headless).Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		controlURL = launched
	}
	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	b.browser = browser
	return browser, nil
}

// Visit renders a page and extracts title, meta description and body text.
func (b *Browser) Visit(ctx context.Context, pageURL string) (Page, error) {
	browser, err := b.connect()
	if err != nil {
		return Page{}, err
	}

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{URL: pageURL})
	if err != nil {
		return Page{}, fmt.Errorf("open %s: %w", pageURL, err)
	}
	defer page.Close()

	page = page.Timeout(b.opts.NavigationTimeout)
	if err := page.WaitLoad(); err != nil {
		return Page{}, fmt.Errorf("load %s: %w", pageURL, err)
	}

	out := Page{URL: pageURL}

	info, err := page.Info()
	if err == nil {
		out.Title = info.Title
	}

	if desc, err := page.Eval(`() => {
		const m = document.querySelector('meta[name="description"]');
		return m ? m.content : "";
	}`); err == nil {
		out.Description = desc.Value.Str()
	}

	text, err := page.Eval(`() => document.body ? document.body.innerText : ""`)
	if err != nil {
		return Page{}, fmt.Errorf("extract text from %s: %w", pageURL, err)
	}
	out.Text = truncate(strings.TrimSpace(text.Value.Str()), b.opts.MaxTextLen)

	return out, nil
}

// Close shuts down the launched browser, if any.
func (b *Browser) Close() error {
	if b.browser == nil {
		return nil
	}
	err := b.browser.Close()
	b.browser = nil
	return err
}

// Tool wraps the browser as a callable tool.
func (b *Browser) Tool() tool.Tool {
	type args struct {
		URL string `json:"url" description:"The page URL to render"`
	}
	return tool.NewFunctionToolFromStruct(
		"browse_page",
		"Render a JavaScript-heavy page in a headless browser and return its text content",
		args{},
		func(ctx context.Context, args map[string]any) (any, error) {
			pageURL, _ := args["url"].(string)
			page, err := b.Visit(ctx, pageURL)
			if err != nil {
				return nil, err
			}
			var sb strings.Builder
			if page.Title != "" {
				fmt.Fprintf(&sb, "# %s\n\n", page.Title)
			}
			if page.Description != "" {
				fmt.Fprintf(&sb, "%s\n\n", page.Description)
			}
			sb.WriteString(page.Text)
			return sb.String(), nil
		},
	)
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
