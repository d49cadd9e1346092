// Package baserow implements the HTTP client for the Baserow rows API:
// one authenticated request per page, with bounded retry and backoff.
package baserow

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/tooldash/tablesnap/internal/config"
	"github.com/tooldash/tablesnap/pkg/logger"
	"github.com/tooldash/tablesnap/pkg/models"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 3
)

// Client fetches pages from a Baserow instance.
type Client struct {
	BaseURL  string
	Token    string
	PageSize int

	// MaxRetries bounds retry attempts per page for rate-limit,
	// transient and malformed-response failures.
	MaxRetries uint64
	// RetryInterval is the initial backoff interval. Lowered in tests.
	RetryInterval time.Duration

	httpClient *http.Client
}

// NewClient builds a client from the loaded environment config.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		BaseURL:       cfg.BaseURL,
		Token:         cfg.Token,
		PageSize:      cfg.PageSize,
		MaxRetries:    defaultMaxRetries,
		RetryInterval: time.Second,
		httpClient:    &http.Client{Timeout: defaultTimeout},
	}
}

// PageURL returns the first-page URL for a table.
func (c *Client) PageURL(tableID int64) string {
	return fmt.Sprintf("%s/api/database/rows/table/%d/?size=%d", c.BaseURL, tableID, c.PageSize)
}

// FetchPage retrieves one page. An empty cursor means the first page;
// otherwise the cursor is the absolute "next" URL of the prior page.
// Rate-limit and transient failures are retried with exponential backoff
// up to MaxRetries; auth failures and other client errors return
// immediately.
func (c *Client) FetchPage(ctx context.Context, tableID int64, cursor string) (*models.Page, error) {
	url := cursor
	if url == "" {
		url = c.PageURL(tableID)
	}

	var page *models.Page
	operation := func() error {
		p, err := c.fetchOnce(ctx, url)
		if err != nil {
			if retryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		page = p
		return nil
	}

	expB := backoff.NewExponentialBackOff()
	expB.InitialInterval = c.RetryInterval
	b := backoff.WithContext(backoff.WithMaxRetries(expB, c.MaxRetries), ctx)

	err := backoff.RetryNotify(operation, b, func(err error, wait time.Duration) {
		logger.Warnf("table %d: %v, retrying in %s", tableID, err, wait.Round(time.Millisecond))
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (c *Client) fetchOnce(ctx context.Context, url string) (*models.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransientError{Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &AuthError{Status: resp.StatusCode}
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &RateLimitError{Status: resp.StatusCode}
	case resp.StatusCode >= 500:
		return nil, &TransientError{Status: resp.StatusCode}
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &HTTPError{Status: resp.StatusCode, Body: string(body)}
	}

	// UseNumber keeps numeric field values as json.Number so row IDs and
	// large numbers survive the round trip to disk unchanged.
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()

	var page models.Page
	if err := dec.Decode(&page); err != nil {
		return nil, &MalformedResponseError{Err: err}
	}
	return &page, nil
}
