// Package github talks to the source hosting API: it lists the firmware
// repository's tags and builds archive download URLs for them.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ZebulonRouseFrantzich/exinstall/internal/config"
)

// maxPages bounds Link-header pagination.
const maxPages = 50

// Tag is one entry of the git refs listing.
type Tag struct {
	Ref    string `json:"ref"`
	NodeID string `json:"node_id,omitempty"`
	URL    string `json:"url,omitempty"`
	Object struct {
		SHA  string `json:"sha"`
		Type string `json:"type"`
		URL  string `json:"url,omitempty"`
	} `json:"object"`
}

// RateLimitError indicates GitHub's API rate limit was hit.
type RateLimitError struct {
	StatusCode int
	Status     string
	Remaining  *int
	Reset      time.Time
}

func (e *RateLimitError) Error() string {
	remainingText := "unknown"
	if e.Remaining != nil {
		remainingText = strconv.Itoa(*e.Remaining)
	}
	msg := fmt.Sprintf("github api rate limit exceeded (%s, remaining=%s)", e.Status, remainingText)
	if !e.Reset.IsZero() {
		msg += ", resets at " + e.Reset.Format(time.RFC3339)
	}
	return msg
}

// IsRateLimitError reports whether err represents a GitHub API rate-limit condition.
func IsRateLimitError(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// StatusError reports any other non-200 API response.
type StatusError struct {
	URL    string
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %s", e.URL, e.Status)
}

// Options configures a Client. Zero values select the defaults.
type Options struct {
	TagsURL       string
	ArchivePrefix string
	Timeout       time.Duration
	UserAgent     string
	HTTPClient    *http.Client
}

// Client lists tags and resolves archive URLs for one repository.
type Client struct {
	tagsURL       string
	archivePrefix string
	userAgent     string
	httpClient    *http.Client
}

// NewClient creates a client. TagsURL and ArchivePrefix are required.
func NewClient(opts Options) (*Client, error) {
	if opts.TagsURL == "" {
		return nil, fmt.Errorf("tags URL is required")
	}
	if opts.ArchivePrefix == "" {
		return nil, fmt.Errorf("archive prefix is required")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Minute
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = config.UserAgent
	}

	return &Client{
		tagsURL:       opts.TagsURL,
		archivePrefix: opts.ArchivePrefix,
		userAgent:     userAgent,
		httpClient:    httpClient,
	}, nil
}

// ListTags fetches every tag ref, following Link pagination when present.
func (c *Client) ListTags(ctx context.Context) ([]Tag, error) {
	var tags []Tag
	next := c.tagsURL

	for page := 0; next != ""; page++ {
		if page >= maxPages {
			return nil, fmt.Errorf("list tags: more than %d pages", maxPages)
		}

		pageTags, link, err := c.fetchPage(ctx, next)
		if err != nil {
			return nil, err
		}
		tags = append(tags, pageTags...)
		next = nextLink(link)
	}

	return tags, nil
}

// TagRefs lists the tags and returns only their ref strings.
func (c *Client) TagRefs(ctx context.Context) ([]string, error) {
	tags, err := c.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	return Refs(tags), nil
}

// Refs returns the ref strings of tags in order.
func Refs(tags []Tag) []string {
	refs := make([]string, 0, len(tags))
	for _, t := range tags {
		refs = append(refs, t.Ref)
	}
	return refs
}

// ArchiveURL returns the zip download URL for a raw ref such as
// "refs/tags/v4.2.1-Prod".
func (c *Client) ArchiveURL(ref string) string {
	return c.archivePrefix + strings.TrimPrefix(ref, "/") + ".zip"
}

func (c *Client) fetchPage(ctx context.Context, url string) ([]Tag, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("list tags: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if rateLimitErr := rateLimitErrorFromResponse(resp); rateLimitErr != nil {
			return nil, "", rateLimitErr
		}
		return nil, "", &StatusError{URL: url, Status: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read tags: %w", err)
	}

	tags, err := decodeTags(body)
	if err != nil {
		return nil, "", fmt.Errorf("decode tags: %w", err)
	}

	return tags, resp.Header.Get("Link"), nil
}

// decodeTags accepts the usual array and the single object GitHub returns
// when a refs query matches exactly one ref.
func decodeTags(body []byte) ([]Tag, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var tag Tag
		if err := json.Unmarshal(trimmed, &tag); err != nil {
			return nil, err
		}
		return []Tag{tag}, nil
	}

	var tags []Tag
	if err := json.Unmarshal(trimmed, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

func rateLimitErrorFromResponse(resp *http.Response) *RateLimitError {
	if resp == nil {
		return nil
	}

	reset := parseReset(resp.Header.Get("X-RateLimit-Reset"))
	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{StatusCode: resp.StatusCode, Status: resp.Status, Reset: reset}
	}
	// GitHub returns 403 Forbidden for unauthenticated exhaustion; confirm with rate-limit headers.
	if resp.StatusCode == http.StatusForbidden {
		remainingStr := strings.TrimSpace(resp.Header.Get("X-RateLimit-Remaining"))
		if remainingStr == "" {
			return nil
		}
		remaining, err := strconv.Atoi(remainingStr)
		if err != nil {
			return nil //nolint:nilerr // Malformed header means we cannot confirm rate limiting.
		}
		if remaining == 0 {
			return &RateLimitError{StatusCode: resp.StatusCode, Status: resp.Status, Remaining: &remaining, Reset: reset}
		}
	}
	return nil
}

func parseReset(raw string) time.Time {
	secs, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || secs <= 0 {
		return time.Time{}
	}
	return time.Unix(secs, 0).UTC()
}

// nextLink extracts the rel="next" target from an RFC 8288 Link header.
func nextLink(header string) string {
	for _, part := range strings.Split(header, ",") {
		segments := strings.Split(part, ";")
		if len(segments) < 2 {
			continue
		}
		target := strings.TrimSpace(segments[0])
		if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
			continue
		}
		for _, param := range segments[1:] {
			if strings.ReplaceAll(strings.TrimSpace(param), " ", "") == `rel="next"` {
				return target[1 : len(target)-1]
			}
		}
	}
	return ""
}
