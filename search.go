package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

const (
	defaultSearchEndpoint  = "https://html.duckduckgo.com/html/"
	defaultSearchTimeout   = 30 * time.Second
	defaultSearchUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	maxSearchPageBytes     = 1 << 20
)

// SearchEngine runs a web search and returns at most maxResults hits
type SearchEngine interface {
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
}

// DuckDuckGoEngine scrapes the DuckDuckGo HTML endpoint, which needs no API key
type DuckDuckGoEngine struct {
	endpoint  string
	userAgent string
	client    *http.Client
	converter *md.Converter
}

// NewDuckDuckGoEngine creates an engine from the search settings
func NewDuckDuckGoEngine(cfg SearchSettings) *DuckDuckGoEngine {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultSearchEndpoint
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultSearchTimeout
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultSearchUserAgent
	}

	return &DuckDuckGoEngine{
		endpoint:  endpoint,
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
		converter: md.NewConverter("", true, nil),
	}
}

// NewSearchEngine builds the engine named in the settings
func NewSearchEngine(cfg SearchSettings) (SearchEngine, error) {
	switch cfg.Engine {
	case "duckduckgo", "":
		return NewDuckDuckGoEngine(cfg), nil
	default:
		return nil, fmt.Errorf("unknown search engine %q", cfg.Engine)
	}
}

// Search fetches the result page for query and parses the organic results
func (e *DuckDuckGoEngine) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	if maxResults <= 0 {
		return nil, nil
	}

	searchURL := e.endpoint + "?" + url.Values{"q": {query}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: e.endpoint}
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxSearchPageBytes))
	if err != nil {
		return nil, fmt.Errorf("parsing search results: %w", err)
	}

	return e.parseResults(doc, maxResults), nil
}

// parseResults extracts organic results, skipping ads and incomplete entries
func (e *DuckDuckGoEngine) parseResults(doc *goquery.Document, maxResults int) []SearchResult {
	var results []SearchResult

	doc.Find("div.result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.HasClass("result--ad") {
			return true
		}

		link := s.Find("a.result__a").First()
		href, _ := link.Attr("href")
		title := strings.Join(strings.Fields(link.Text()), " ")
		target := resolveResultURL(href)
		if title == "" || target == "" {
			return true
		}

		results = append(results, SearchResult{
			Title: title,
			Body:  e.snippetText(s.Find(".result__snippet").First()),
			URL:   target,
		})
		return len(results) < maxResults
	})

	return results
}

// snippetText converts snippet HTML (with <b> highlights) to markdown text
func (e *DuckDuckGoEngine) snippetText(s *goquery.Selection) string {
	if s.Length() == 0 {
		return ""
	}
	html, err := s.Html()
	if err == nil {
		if markdown, err := e.converter.ConvertString(html); err == nil {
			return strings.Join(strings.Fields(markdown), " ")
		}
	}
	return strings.Join(strings.Fields(s.Text()), " ")
}

// resolveResultURL unwraps DuckDuckGo's //duckduckgo.com/l/?uddg= redirect links
func resolveResultURL(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if strings.HasSuffix(parsed.Host, "duckduckgo.com") && parsed.Path == "/l/" {
		if target := parsed.Query().Get("uddg"); target != "" {
			return target
		}
	}
	return href
}
