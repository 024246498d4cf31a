// Package enrich looks up a picture and a short description for a guessed name.
package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the Wikipedia REST API root.
const DefaultBaseURL = "https://en.wikipedia.org/api/rest_v1"

// ErrNotFound is returned by a Source when it has no page for a title.
var ErrNotFound = errors.New("page not found")

// Image is an image reference in a page summary.
type Image struct {
	Source string `json:"source"`
}

// Summary is the subset of a page summary the client reads.
type Summary struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Extract       string `json:"extract"`
	Original      *Image `json:"original,omitempty"`
	OriginalImage *Image `json:"originalimage,omitempty"`
	Thumbnail     *Image `json:"thumbnail,omitempty"`
}

// Source fetches a page summary by title.
type Source interface {
	Summary(ctx context.Context, title string) (*Summary, error)
}

// WikipediaSource reads summaries from the Wikipedia REST API.
type WikipediaSource struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

var _ Source = (*WikipediaSource)(nil)

// NewWikipediaSource creates a source rooted at baseURL.
func NewWikipediaSource(baseURL, userAgent string, timeout time.Duration) *WikipediaSource {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &WikipediaSource{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Summary fetches {base}/page/summary/{title}.
func (s *WikipediaSource) Summary(ctx context.Context, title string) (*Summary, error) {
	endpoint := s.baseURL + "/page/summary/" + url.PathEscape(title)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch summary: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("fetch summary: unexpected status %d", resp.StatusCode)
	}

	var summary Summary
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&summary); err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}
	return &summary, nil
}
