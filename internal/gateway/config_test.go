package gateway

import (
	"testing"
	"time"
)

func TestConfig_normalized_defaults(t *testing.T) {
	c := Config{}.normalized()

	if c.StreamPath != DefaultStreamPath || c.SnapshotPath != DefaultSnapshotPath {
		t.Errorf("unexpected paths: %q %q", c.StreamPath, c.SnapshotPath)
	}
	if c.FrameInterval != DefaultFrameInterval {
		t.Errorf("unexpected frame interval: %v", c.FrameInterval)
	}
	if c.ProbeTimeout != DefaultProbeTimeout || c.SnapshotTimeout != DefaultSnapshotTimeout || c.StreamTimeout != DefaultStreamTimeout {
		t.Error("unexpected timeout defaults")
	}
	if !c.MockMode() {
		t.Error("empty base must mean mock mode")
	}
	if c.SnapshotURL() != "" || c.StreamURL() != "" {
		t.Error("mock mode must have no upstream URLs")
	}
}

func TestConfig_normalized_trims_base(t *testing.T) {
	c := Config{UpstreamBase: "http://cam.local//", FrameInterval: 50 * time.Millisecond}.normalized()

	if c.UpstreamBase != "http://cam.local" {
		t.Errorf("trailing slashes not stripped: %q", c.UpstreamBase)
	}
	if c.SnapshotURL() != "http://cam.local/capture" {
		t.Errorf("unexpected snapshot url: %q", c.SnapshotURL())
	}
	if c.StreamURL() != "http://cam.local:81/stream" {
		t.Errorf("unexpected stream url: %q", c.StreamURL())
	}
	if c.FrameInterval != 50*time.Millisecond {
		t.Error("explicit frame interval must be kept")
	}
}
