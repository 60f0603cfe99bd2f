package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/fibersift/fibersift/internal/catalog"
	"github.com/fibersift/fibersift/internal/config"
)

// productLinkRe matches product detail links in listing markup.
var productLinkRe = regexp.MustCompile(`p?\d+\.html`)

// BrowserFetcher implements PageFetcher with a headless browser via Rod.
// Each OpenSession launches its own Chromium so concurrent ingestion runs
// never share browser state.
type BrowserFetcher struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewBrowserFetcher creates a browser-backed page fetcher.
func NewBrowserFetcher(cfg *config.Config, logger *slog.Logger) *BrowserFetcher {
	return &BrowserFetcher{
		cfg:    cfg,
		logger: logger.With("component", "browser_fetcher"),
	}
}

// OpenSession launches a Chromium instance and prepares a single reusable
// page. The session is sequential by design: one page, one fetch at a time,
// so the remote site sees a single browsing client.
func (bf *BrowserFetcher) OpenSession(ctx context.Context) (Session, error) {
	l := launcher.New().
		Headless(bf.cfg.Scraper.Headless).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-blink-features", "AutomationControlled")

	launchURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(launchURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	page, err := stealth.Page(browser)
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("stealth page: %w", err)
	}

	if ua := bf.cfg.Scraper.UserAgent; ua != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: ua}); err != nil {
			bf.logger.Warn("failed to set user agent", "error", err)
		}
	}

	bf.logger.Info("browser session ready", "headless", bf.cfg.Scraper.Headless)

	return &browserSession{
		cfg:     bf.cfg,
		browser: browser,
		page:    page,
		logger:  bf.logger,
	}, nil
}

// browserSession holds one live browser for the duration of a batch.
type browserSession struct {
	cfg     *config.Config
	browser *rod.Browser
	page    *rod.Page
	logger  *slog.Logger
	closed  bool
}

// DiscoverProductURLs renders the category listing page and collects product
// detail links, deduplicated in document order, up to limit.
func (s *browserSession) DiscoverProductURLs(ctx context.Context, category, gender string, limit int) ([]string, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}

	listingURL := s.listingURL(category, gender)
	html, err := s.render(ctx, listingURL)
	if err != nil {
		return nil, &FetchError{URL: listingURL, Err: err}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &FetchError{URL: listingURL, Err: err}
	}

	base, err := url.Parse(listingURL)
	if err != nil {
		return nil, &FetchError{URL: listingURL, Err: err}
	}

	seen := make(map[string]struct{})
	var urls []string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if href == "" || !productLinkRe.MatchString(href) {
			return true
		}
		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		abs := base.ResolveReference(ref).String()
		if _, dup := seen[abs]; dup {
			return true
		}
		seen[abs] = struct{}{}
		urls = append(urls, abs)
		return len(urls) < limit
	})

	if len(urls) == 0 {
		return nil, &FetchError{URL: listingURL, Err: ErrNoListing}
	}

	s.logger.Debug("listing discovered",
		"category", category,
		"gender", gender,
		"urls", len(urls),
	)
	return urls, nil
}

// ExtractRawProduct renders a product page and extracts its raw fields.
func (s *browserSession) ExtractRawProduct(ctx context.Context, productURL string) (*catalog.RawProduct, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}

	html, err := s.render(ctx, productURL)
	if err != nil {
		return nil, &FetchError{URL: productURL, Err: err}
	}
	return ExtractProduct(html, productURL)
}

// Close shuts down the browser. Safe to call once per session on any exit
// path; repeated calls are no-ops.
func (s *browserSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.browser.Close()
}

// render navigates the session page to a URL and returns the settled HTML.
func (s *browserSession) render(ctx context.Context, target string) (string, error) {
	page := s.page.Context(ctx).Timeout(s.cfg.Scraper.FetchTimeout)

	if err := page.Navigate(target); err != nil {
		return "", err
	}
	if err := page.WaitStable(s.cfg.Scraper.StabilizeWait); err != nil {
		s.logger.Warn("page stability timeout, continuing", "url", target, "error", err)
	}

	return page.HTML()
}

// listingURL builds the category listing path from the site's gendered
// section conventions.
func (s *browserSession) listingURL(category, gender string) string {
	base := strings.TrimRight(s.cfg.Scraper.BaseURL, "/")

	var segment string
	switch gender {
	case catalog.GenderFemale:
		segment = "woman"
	case catalog.GenderMale:
		segment = "man"
	}

	category = url.PathEscape(strings.ToLower(strings.TrimSpace(category)))
	if segment != "" {
		return fmt.Sprintf("%s/%s/%s", base, segment, category)
	}
	return fmt.Sprintf("%s/%s", base, category)
}
