package gateway

import (
	"strings"
	"time"
)

// Default sub-paths on the camera device. ESP32-CAM firmware serves the
// MJPEG stream on a second HTTP port, hence the ":81" form.
const (
	DefaultStreamPath   = ":81/stream"
	DefaultSnapshotPath = "/capture"
)

// Default outbound timeouts. The probe is deliberately short so /api/cam/info
// answers quickly; stream/playlist fetches get the longest budget.
const (
	DefaultProbeTimeout    = 4 * time.Second
	DefaultSnapshotTimeout = 15 * time.Second
	DefaultStreamTimeout   = 25 * time.Second
)

// DefaultFrameInterval is the mock MJPEG frame period (~10 fps).
const DefaultFrameInterval = 100 * time.Millisecond

// Config holds all gateway settings. It is built once at process start and
// never mutated afterwards; handlers only read it.
type Config struct {
	// UpstreamBase is the camera device base URL, e.g. "http://192.168.1.50".
	// Empty means no device is configured and every endpoint runs in mock mode.
	UpstreamBase string

	// StreamPath and SnapshotPath are appended to UpstreamBase.
	StreamPath   string
	SnapshotPath string

	// MockSnapshotDir holds still images served by /api/cam/capture when the
	// device is absent or unreachable. MockFramesDir holds the ordered frames
	// used to synthesize a mock MJPEG stream.
	MockSnapshotDir string
	MockFramesDir   string

	// FrameInterval is the delay between frames of the synthesized stream.
	FrameInterval time.Duration

	ProbeTimeout    time.Duration
	SnapshotTimeout time.Duration
	StreamTimeout   time.Duration
}

// normalized returns a copy of c with defaults filled in and the upstream
// base stripped of trailing slashes, so path concatenation stays predictable.
func (c Config) normalized() Config {
	c.UpstreamBase = strings.TrimRight(c.UpstreamBase, "/")
	if c.StreamPath == "" {
		c.StreamPath = DefaultStreamPath
	}
	if c.SnapshotPath == "" {
		c.SnapshotPath = DefaultSnapshotPath
	}
	if c.MockSnapshotDir == "" {
		c.MockSnapshotDir = "./mock"
	}
	if c.MockFramesDir == "" {
		c.MockFramesDir = "./frames"
	}
	if c.FrameInterval <= 0 {
		c.FrameInterval = DefaultFrameInterval
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = DefaultProbeTimeout
	}
	if c.SnapshotTimeout <= 0 {
		c.SnapshotTimeout = DefaultSnapshotTimeout
	}
	if c.StreamTimeout <= 0 {
		c.StreamTimeout = DefaultStreamTimeout
	}
	return c
}

// MockMode reports whether no camera device is configured.
func (c Config) MockMode() bool {
	return c.UpstreamBase == ""
}

// SnapshotURL returns the absolute upstream snapshot URL, or "" in mock mode.
func (c Config) SnapshotURL() string {
	if c.MockMode() {
		return ""
	}
	return c.UpstreamBase + c.SnapshotPath
}

// StreamURL returns the absolute upstream stream URL, or "" in mock mode.
func (c Config) StreamURL() string {
	if c.MockMode() {
		return ""
	}
	return c.UpstreamBase + c.StreamPath
}
