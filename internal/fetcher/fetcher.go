// Package fetcher downloads district geometry archives over HTTP or FTP.
package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/district-cli/internal/resilience"
)

// Client downloads remote geometry sources. Census publishes TIGER/Line
// archives on both HTTPS and FTP mirrors, so both schemes are supported.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// Option configures the fetcher client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithUserAgent sets the User-Agent header for HTTP downloads.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a fetcher client.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		userAgent:  "district-cli/1.0",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DownloadToFile fetches rawURL and writes it to path, dispatching on the
// URL scheme. Transient failures restart the whole transfer. Returns bytes
// written.
func (c *Client) DownloadToFile(ctx context.Context, rawURL, path string) (int64, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, eris.Wrapf(err, "fetcher: parse url %s", rawURL)
	}

	return resilience.DoVal(ctx, resilience.DownloadPolicy(), "fetch "+rawURL,
		func(ctx context.Context) (int64, error) {
			return c.downloadOnce(ctx, u, rawURL, path)
		})
}

func (c *Client) downloadOnce(ctx context.Context, u *url.URL, rawURL, path string) (int64, error) {
	var body io.ReadCloser
	var err error
	switch u.Scheme {
	case "http", "https":
		body, err = c.downloadHTTP(ctx, rawURL)
	case "ftp":
		body, err = c.downloadFTP(ctx, u)
	default:
		return 0, eris.Errorf("fetcher: unsupported scheme %q", u.Scheme)
	}
	if err != nil {
		return 0, err
	}
	defer body.Close() //nolint:errcheck

	out, err := os.Create(path)
	if err != nil {
		return 0, eris.Wrapf(err, "fetcher: create %s", path)
	}
	defer out.Close() //nolint:errcheck

	n, err := io.Copy(out, body)
	if err != nil {
		return n, eris.Wrap(err, "fetcher: write body")
	}

	zap.L().Info("downloaded geometry source",
		zap.String("url", rawURL),
		zap.Int64("bytes", n),
	)
	return n, nil
}

func (c *Client) downloadHTTP(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: build request")
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: GET %s", rawURL)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close() //nolint:errcheck
		statusErr := eris.Errorf("fetcher: GET %s returned status %d", rawURL, resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(statusErr, resp.StatusCode)
		}
		return nil, statusErr
	}
	return resp.Body, nil
}
