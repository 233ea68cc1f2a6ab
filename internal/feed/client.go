package feed

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

// ErrSourceUnavailable marks transport failure that persisted through the
// retry backoff ceiling. The poller logs it and keeps retrying at the ceiling
// interval; it is never fatal.
var ErrSourceUnavailable = errors.New("event source unavailable")

// StatusError is returned when the events endpoint answers with a non-2xx
// status. Server-side (5xx) statuses are routine on long-poll timeouts and
// are backed off differently from client-side errors.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("events API error (status %d): %s", e.Code, e.Body)
}

// IsServerError reports whether err is a 5xx StatusError.
func IsServerError(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code >= 500
}

// Client fetches event pages from the events API.
type Client struct {
	HTTPClient *http.Client
}

// NewClient creates a feed client with the given request timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// FeedURL builds the initial long-poll URL for a broadcaster's event feed.
// Subsequent URLs come from FeedResponse.NextURL.
func FeedURL(base, username, token string, timeout int) string {
	return fmt.Sprintf("%s/%s/%s/?timeout=%d",
		strings.TrimSuffix(base, "/"),
		url.PathEscape(username),
		url.PathEscape(token),
		timeout,
	)
}

// FetchEvents performs one long-poll request against u and returns the page.
// The request is bound to ctx so shutdown does not wait out the long poll.
func (c *Client) FetchEvents(ctx context.Context, u string) (*FeedResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch events: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var page FeedResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &page, nil
}
