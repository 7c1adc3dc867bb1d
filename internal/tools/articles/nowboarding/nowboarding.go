// Package nowboarding fetches destination articles from the Now Boarding
// travel magazine search API.
package nowboarding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-shiori/go-readability"

	"tripweaver/config"
	"tripweaver/internal/tools/articles"
)

const (
	baseURL        = "https://nowboarding.changiairport.com"
	excerptMaxLen  = 150
	defaultLimit   = 3
	fetchUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
)

// Client queries the Now Boarding search endpoint and ranks the results.
type Client struct {
	feedURL         string
	excerptFallback bool
	httpClient      *http.Client
	logger          *log.Logger

	// now drives the recent-year preference; tests pin it
	now func() time.Time
}

// New creates a Now Boarding article fetcher.
func New(cfg config.ArticlesConfig, logger *log.Logger) *Client {
	feedURL := cfg.FeedURL
	if feedURL == "" {
		feedURL = baseURL
	}
	return &Client{
		feedURL:         feedURL,
		excerptFallback: cfg.ExcerptFallback,
		httpClient:      &http.Client{},
		logger:          logger,
		now:             time.Now,
	}
}

type searchResponse struct {
	SearchResults []searchResult `json:"searchResults"`
}

type searchResult struct {
	Title         string `json:"title"`
	Excerpt       string `json:"excerpt"`
	Description   string `json:"description"`
	PageURL       string `json:"pageUrl"`
	Date          string `json:"date"`
	FormattedDate string `json:"formattedDate"`
	Category      struct {
		Title string `json:"title"`
	} `json:"category"`
}

// Fetch implements articles.Fetcher. Articles dated this year or next are
// preferred; within each group bleve relevance to the destination decides
// the order.
func (c *Client) Fetch(ctx context.Context, destination string, limit int) ([]articles.Article, error) {
	if destination == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	term := url.PathEscape(strings.ToLower(destination))
	endpoint := fmt.Sprintf("%s/search.nbsearch.%s.0.data", c.feedURL, term)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", fetchUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("article search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("article search status %d", resp.StatusCode)
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode article search response: %w", err)
	}

	recent, older := c.splitByYear(out.SearchResults)
	selected := articles.Rank(toArticles(c.feedURL, recent), destination, limit)
	if len(selected) < limit {
		selected = append(selected, articles.Rank(toArticles(c.feedURL, older), destination, limit-len(selected))...)
	}

	if c.excerptFallback {
		c.fillExcerpts(ctx, selected)
	}
	if c.logger != nil {
		c.logger.Printf("nowboarding: %d articles for %s (%d candidates)", len(selected), destination, len(out.SearchResults))
	}
	return selected, nil
}

func (c *Client) splitByYear(results []searchResult) (recent, older []searchResult) {
	thisYear := strconv.Itoa(c.now().Year())
	nextYear := strconv.Itoa(c.now().Year() + 1)
	for _, r := range results {
		if strings.Contains(r.Date, thisYear) || strings.Contains(r.Date, nextYear) {
			recent = append(recent, r)
		} else {
			older = append(older, r)
		}
	}
	return recent, older
}

func toArticles(feedURL string, results []searchResult) []articles.Article {
	out := make([]articles.Article, 0, len(results))
	for _, r := range results {
		excerpt := r.Excerpt
		if excerpt == "" {
			excerpt = r.Description
		}
		excerpt = truncate(excerpt, excerptMaxLen)
		out = append(out, articles.Article{
			Title:    r.Title,
			Excerpt:  excerpt,
			URL:      feedURL + r.PageURL,
			Date:     r.FormattedDate,
			Category: r.Category.Title,
		})
	}
	return out
}

// fillExcerpts fetches the article page and extracts a short excerpt for
// entries the feed returned without one. Failures leave the excerpt empty.
func (c *Client) fillExcerpts(ctx context.Context, list []articles.Article) {
	for i := range list {
		if list[i].Excerpt != "" {
			continue
		}
		excerpt, err := c.pageExcerpt(ctx, list[i].URL)
		if err != nil {
			if c.logger != nil {
				c.logger.Printf("nowboarding: excerpt fallback for %s: %v", list[i].URL, err)
			}
			continue
		}
		list[i].Excerpt = excerpt
	}
}

func (c *Client) pageExcerpt(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return "", err
	}
	article, err := readability.FromReader(strings.NewReader(string(body)), parsed)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(article.TextContent)
	text = strings.Join(strings.Fields(text), " ")
	return truncate(text, excerptMaxLen), nil
}

// truncate caps s at max bytes, backing up to a rune boundary so the cut
// never leaves a partial UTF-8 sequence.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
