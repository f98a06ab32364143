package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// errUnavailable signals that a snapshot provider cannot serve right now and
// the next provider in the chain should be tried.
var errUnavailable = errors.New("snapshot unavailable")

// Snapshot is one current camera image ready to stream to a client.
type Snapshot struct {
	Body        io.ReadCloser
	ContentType string
}

// snapshotProvider yields one current frame, or errUnavailable to pass the
// request down the fallback chain.
type snapshotProvider interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// upstreamSnapshots fetches snapshots from the camera device. Any fetch
// failure (unreachable, timeout, non-2xx) is reported as errUnavailable so
// the mock tier takes over.
type upstreamSnapshots struct {
	client  *Client
	url     string
	timeout time.Duration
}

func (p *upstreamSnapshots) Snapshot(ctx context.Context) (*Snapshot, error) {
	if p.url == "" {
		return nil, errUnavailable
	}
	// Cache-busting query, same as a browser <img> repoll would send.
	url := fmt.Sprintf("%s?t=%d", p.url, time.Now().UnixMilli())
	resp, err := p.client.Fetch(ctx, url, p.timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errUnavailable, err)
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "image/jpeg"
	}
	return &Snapshot{Body: resp.Body, ContentType: ct}, nil
}

// mockSnapshots serves a random still from the local mock directory.
type mockSnapshots struct {
	lib *MockLibrary
}

func (p *mockSnapshots) Snapshot(ctx context.Context) (*Snapshot, error) {
	path, ct, ok := p.lib.RandomSnapshot()
	if !ok {
		return nil, errUnavailable
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errUnavailable, err)
	}
	return &Snapshot{Body: f, ContentType: ct}, nil
}
