// Package arxiv is a client for the arXiv Atom search API.
package arxiv

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed/atom"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ideascout/internal/domain"
)

// DefaultBaseURL is the public arXiv query endpoint.
const DefaultBaseURL = "https://export.arxiv.org/api/query"

// Paper is one search hit.
type Paper struct {
	ID         string
	Title      string
	Summary    string
	AbsURL     string
	PDFURL     string
	Authors    []string
	Categories []string
	Published  time.Time
}

// Config holds the client settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  *zap.Logger
}

// Client queries the arXiv API.
type Client struct {
	http    *http.Client
	baseURL string
	logger  *zap.Logger
}

// New creates an arXiv API client.
func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
		logger:  logger,
	}
}

// Search runs searchQuery sorted by submission date, newest first.
func (c *Client) Search(ctx context.Context, searchQuery string, maxResults int) ([]Paper, error) {
	params := url.Values{}
	params.Set("search_query", searchQuery)
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(maxResults))
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "descending")

	feed, err := c.fetch(ctx, params)
	if err != nil {
		return nil, err
	}

	papers := make([]Paper, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		papers = append(papers, toPaper(e))
	}

	c.logger.Debug("arxiv search",
		zap.String("query", searchQuery),
		zap.Int("results", len(papers)),
	)
	return papers, nil
}

// HealthCheck issues a zero-result query to verify the API answers.
func (c *Client) HealthCheck(ctx context.Context) error {
	params := url.Values{}
	params.Set("search_query", "cat:cs.AI")
	params.Set("max_results", "0")
	if _, err := c.fetch(ctx, params); err != nil {
		return err
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, params url.Values) (*atom.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arxiv request: %w: %w", domain.ErrLiteratureAPI, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("arxiv status %d: %s: %w",
			resp.StatusCode, strings.TrimSpace(string(body)), domain.ErrLiteratureAPI)
	}

	fp := &atom.Parser{}
	feed, err := fp.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse arxiv feed: %w: %w", domain.ErrLiteratureAPI, err)
	}
	return feed, nil
}

func toPaper(e *atom.Entry) Paper {
	p := Paper{
		ID:      e.ID,
		Title:   collapseSpace(e.Title),
		Summary: collapseSpace(e.Summary),
		AbsURL:  e.ID,
	}

	for _, l := range e.Links {
		switch {
		case l.Title == "pdf" || l.Type == "application/pdf":
			p.PDFURL = l.Href
		case l.Rel == "alternate" && l.Href != "":
			p.AbsURL = l.Href
		}
	}
	if p.PDFURL == "" {
		p.PDFURL = strings.Replace(p.AbsURL, "/abs/", "/pdf/", 1)
	}

	for _, a := range e.Authors {
		if a != nil && a.Name != "" {
			p.Authors = append(p.Authors, strings.TrimSpace(a.Name))
		}
	}
	for _, cat := range e.Categories {
		if cat != nil && cat.Term != "" {
			p.Categories = append(p.Categories, cat.Term)
		}
	}

	switch {
	case e.PublishedParsed != nil:
		p.Published = e.PublishedParsed.UTC()
	case e.UpdatedParsed != nil:
		p.Published = e.UpdatedParsed.UTC()
	}
	return p
}

// arXiv wraps titles and abstracts across lines.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
