// Package feed fetches raw lead records from the spreadsheet-backed JSON API.
package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/phbpx/leadsync"
	"github.com/phbpx/leadsync/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultURL     = "https://opensheet.elk.sh/1RsvlpFEVERK8myvdbQnlbt6yB2uz6gPHe9PqDpIbEdw/Sheet1"
	DefaultTimeout = 30 * time.Second

	// maxErrorBody bounds how much of a non-2xx body ends up in the error.
	maxErrorBody = 512
)

// Client performs single-attempt GETs against the feed.
type Client struct {
	defaultURL string
	http       *http.Client
}

// NewClient returns a Client falling back to defaultURL when Fetch is called
// without one. Empty arguments select DefaultURL and DefaultTimeout.
func NewClient(defaultURL string, timeout time.Duration) *Client {
	if defaultURL == "" {
		defaultURL = DefaultURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		defaultURL: defaultURL,
		http:       &http.Client{Timeout: timeout},
	}
}

// DefaultURL is the endpoint used when Fetch receives an empty url.
func (c *Client) DefaultURL() string {
	return c.defaultURL
}

// Fetch issues one GET against url (or the default endpoint) and returns the
// elements of the top-level JSON array undecoded. Failures wrap
// leadsync.ErrTransport or leadsync.ErrInvalidFormat.
func (c *Client) Fetch(ctx context.Context, url string) ([]json.RawMessage, error) {
	if url == "" {
		url = c.defaultURL
	}

	ctx, span := otel.GetTracerProvider().Tracer("").Start(ctx, "feed.fetch")
	span.SetAttributes(attribute.String("feed.url", url))
	defer span.End()

	records, reason, err := c.fetch(ctx, url)
	if err != nil {
		metrics.RecordFeedError(reason)
		span.RecordError(err)
		span.SetStatus(codes.Error, reason)
		return nil, err
	}

	span.SetAttributes(attribute.Int("feed.records", len(records)))
	return records, nil
}

func (c *Client) fetch(ctx context.Context, url string) ([]json.RawMessage, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "request", fmt.Errorf("%w: building request: %v", leadsync.ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "transport", fmt.Errorf("%w: %v", leadsync.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, "status", fmt.Errorf("%w: unexpected status %d: %s",
			leadsync.ErrTransport, resp.StatusCode, bytes.TrimSpace(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "transport", fmt.Errorf("%w: reading body: %v", leadsync.ErrTransport, err)
	}

	records, err := decode(body)
	if err != nil {
		return nil, "format", err
	}
	return records, "", nil
}

// decode accepts only a top-level JSON array.
func decode(body []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: expected a JSON array", leadsync.ErrInvalidFormat)
	}

	var records []json.RawMessage
	if err := json.Unmarshal(trimmed, &records); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, fmt.Errorf("%w: malformed JSON at offset %d", leadsync.ErrInvalidFormat, syntaxErr.Offset)
		}
		return nil, fmt.Errorf("%w: %v", leadsync.ErrInvalidFormat, err)
	}
	if records == nil {
		records = []json.RawMessage{}
	}
	return records, nil
}
