package httputil

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/matzehuels/jarmill/pkg/buildinfo"
	"github.com/matzehuels/jarmill/pkg/errors"
	"github.com/matzehuels/jarmill/pkg/observability"
)

// DefaultTimeout bounds a whole request including the body. Game jars are
// tens of megabytes, so this is generous.
const DefaultTimeout = 5 * time.Minute

// Client performs GET requests and reports them to the registered HTTP hooks.
type Client struct {
	http      *http.Client
	userAgent string
}

// NewClient creates a Client. A zero timeout uses [DefaultTimeout].
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		userAgent: buildinfo.UserAgent(),
	}
}

// NewClientFrom wraps an existing http.Client, e.g. one from httptest.
func NewClientFrom(c *http.Client) *Client {
	return &Client{http: c, userAgent: buildinfo.UserAgent()}
}

// Get issues a GET request and returns the body of a 200 response. The
// caller must close it. See the package documentation for how failures are
// classified.
func (c *Client) Get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "bad url %s", rawURL)
	}
	req.Header.Set("User-Agent", c.userAgent)

	host, path := hostPath(rawURL)
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, http.MethodGet, host, path)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, http.MethodGet, host, path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "GET %s", rawURL)}
	}
	hooks.OnResponse(ctx, http.MethodGet, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(rawURL, resp.StatusCode); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func checkStatus(rawURL string, code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "GET %s: not found", rawURL)
	case code == http.StatusTooManyRequests, code >= 500:
		return &RetryableError{Err: errors.New(errors.ErrCodeNetwork, "GET %s: status %d", rawURL, code)}
	default:
		return errors.New(errors.ErrCodeNetwork, "GET %s: status %d", rawURL, code)
	}
}

func hostPath(rawURL string) (string, string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", rawURL
	}
	return u.Host, u.Path
}
