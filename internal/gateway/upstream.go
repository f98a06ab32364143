package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client issues outbound fetches to the camera device and to HLS origins.
// Every fetch is bounded by an explicit per-call timeout that covers the wait
// for response headers; once headers arrive the timer is released so that
// long-lived bodies (MJPEG relays) are not cut off mid-stream. Body reads stay
// tied to the caller's context, so a disconnecting browser cancels the
// upstream transfer.
type Client struct {
	http *http.Client
}

// NewClient returns a Client backed by a plain http.Client with no global
// timeout; deadlines are applied per call.
func NewClient() *Client {
	return &Client{http: &http.Client{}}
}

// Fetch issues a GET for url and returns the response. Non-2xx statuses are
// reported as errors with the body drained and closed. The returned body must
// be closed by the caller.
func (c *Client) Fetch(ctx context.Context, url string, timeout time.Duration) (*http.Response, error) {
	ctx, cancel := context.WithCancel(ctx)
	timer := time.AfterFunc(timeout, cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		timer.Stop()
		cancel()
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		timer.Stop()
		cancel()
		return nil, err
	}

	timer.Stop()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("upstream status %d for %s", resp.StatusCode, url)
	}

	// Closing the body releases the derived context.
	resp.Body = &cancelBody{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// FetchText fetches url and returns the full body as a string. Used for
// playlists, which are small.
func (c *Client) FetchText(ctx context.Context, url string, timeout time.Duration) (string, error) {
	resp, err := c.Fetch(ctx, url, timeout)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// cancelBody couples a response body to the context cancel func of its fetch.
type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
