package gateway

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"cam-gateway/internal/platform/metrics"
)

const (
	playlistContentType = "application/vnd.apple.mpegurl"
	segmentContentType  = "video/mp2t"
	mjpegContentType    = "multipart/x-mixed-replace; boundary=frame"
)

// Handler exposes the gateway HTTP endpoints.
type Handler struct {
	cfg     Config
	client  *Client
	mock    *MockLibrary
	log     *slog.Logger
	metrics *metrics.Metrics

	snapshots []snapshotProvider
}

// NewHandler builds a Handler from an immutable Config. Metrics may be nil to
// disable metric recording (e.g. in tests).
func NewHandler(cfg Config, log *slog.Logger, m *metrics.Metrics) *Handler {
	cfg = cfg.normalized()
	client := NewClient()
	mock := NewMockLibrary(cfg.MockSnapshotDir, cfg.MockFramesDir)

	h := &Handler{
		cfg:     cfg,
		client:  client,
		mock:    mock,
		log:     log,
		metrics: m,
	}
	// Fallback order: live device first, then local mock stills.
	h.snapshots = []snapshotProvider{
		&upstreamSnapshots{client: client, url: cfg.SnapshotURL(), timeout: cfg.SnapshotTimeout},
		&mockSnapshots{lib: mock},
	}
	return h
}

type healthResponse struct {
	OK bool  `json:"ok"`
	TS int64 `json:"ts"`
}

// Health handles GET /api/health. It always succeeds.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{OK: true, TS: time.Now().UnixMilli()})
}

type camInfo struct {
	Active bool   `json:"active"`
	Base   string `json:"base,omitempty"`
	CT     string `json:"ct,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Info handles GET /api/cam/info: a fast reachability probe against the
// device's snapshot endpoint. Errors never surface as HTTP failures; they
// become active:false with a reason.
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	if h.cfg.MockMode() {
		writeJSON(w, http.StatusOK, camInfo{Active: false, Reason: "no-env"})
		return
	}

	resp, err := h.client.Fetch(r.Context(), h.cfg.SnapshotURL(), h.cfg.ProbeTimeout)
	if err != nil {
		h.countUpstreamError()
		writeJSON(w, http.StatusOK, camInfo{Active: false, Base: h.cfg.UpstreamBase, Reason: "unreachable"})
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	ct := resp.Header.Get("Content-Type")
	active := strings.Contains(ct, "jpeg") || strings.Contains(ct, "jpg")
	writeJSON(w, http.StatusOK, camInfo{Active: active, Base: h.cfg.UpstreamBase, CT: ct})
}

// Capture handles GET /api/cam/capture: one current image, from the first
// provider in the chain able to serve it.
func (h *Handler) Capture(w http.ResponseWriter, r *http.Request) {
	for i, p := range h.snapshots {
		snap, err := p.Snapshot(r.Context())
		if err != nil {
			if i == 0 && !h.cfg.MockMode() {
				h.log.Warn("upstream snapshot failed, trying mock", slog.String("error", err.Error()))
				h.countUpstreamError()
			}
			continue
		}
		defer snap.Body.Close()
		if i > 0 {
			h.countMockFallback()
		}
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Content-Type", snap.ContentType)
		w.WriteHeader(http.StatusOK)
		io.Copy(w, snap.Body)
		return
	}

	http.Error(w, "no snapshot", http.StatusNotFound)
}

// Stream handles GET /api/cam/stream: relay the device's live MJPEG stream,
// or synthesize one from local frames when the device is absent or down.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.MockMode() {
		resp, err := h.client.Fetch(r.Context(), h.cfg.StreamURL(), h.cfg.StreamTimeout)
		if err == nil {
			defer resp.Body.Close()
			ct := resp.Header.Get("Content-Type")
			if ct == "" {
				ct = mjpegContentType
			}
			w.Header().Set("Content-Type", ct)
			w.Header().Set("Cache-Control", "no-store")
			w.WriteHeader(http.StatusOK)
			io.Copy(newFlushWriter(w), resp.Body)
			return
		}
		h.log.Error("upstream stream error", slog.String("url", h.cfg.StreamURL()), slog.String("error", err.Error()))
		h.countUpstreamError()
		h.countMockFallback()
	}

	h.serveMockStream(w, r)
}

// serveMockStream writes a multipart MJPEG response from the frame directory,
// one frame per tick, looping with wraparound. The frame list is re-read every
// tick so directory changes take effect mid-stream. The loop has a single exit
// path: request-context cancellation or the first I/O error, whichever comes
// first; the deferred Stop tears the ticker down exactly once.
func (h *Handler) serveMockStream(w http.ResponseWriter, r *http.Request) {
	if len(h.mock.Frames()) == 0 {
		http.Error(w, "no frames for mock", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", mjpegContentType)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)

	fw := newFlushWriter(w)

	if h.metrics != nil {
		h.metrics.AddStreamClient()
		defer h.metrics.RemoveStreamClient()
	}

	ticker := time.NewTicker(h.cfg.FrameInterval)
	defer ticker.Stop()

	i := 0
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			frames := h.mock.Frames()
			if len(frames) == 0 {
				return
			}
			if err := writeFrame(fw, frames[i%len(frames)]); err != nil {
				return
			}
			i++
		}
	}
}

// writeFrame writes one MJPEG part: boundary, part headers, image bytes,
// trailing CRLF.
func writeFrame(w io.Writer, path string) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(buf)); err != nil {
		return err
	}
	if _, err := w.Write(buf); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\r\n")
	return err
}

// ProxyPlaylist handles GET /proxy/hls: fetch the playlist named by src,
// rewrite its URIs through the gateway, and return it uncached.
func (h *Handler) ProxyPlaylist(w http.ResponseWriter, r *http.Request) {
	src := r.URL.Query().Get("src")
	if src == "" {
		http.Error(w, "missing src", http.StatusBadRequest)
		return
	}

	text, err := h.client.FetchText(r.Context(), src, h.cfg.StreamTimeout)
	if err != nil {
		h.log.Error("proxy hls error", slog.String("src", src), slog.String("error", err.Error()))
		h.countUpstreamError()
		http.Error(w, "Bad gateway", http.StatusBadGateway)
		return
	}

	body := RewritePlaylist(text, src)
	if h.metrics != nil {
		h.metrics.IncPlaylistRewrites()
	}

	w.Header().Set("Content-Type", playlistContentType)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, body)
}

// ProxySegment handles GET /proxy/hls/seg: stream one segment or key through.
// seg may be relative to src, the playlist it came from.
func (h *Handler) ProxySegment(w http.ResponseWriter, r *http.Request) {
	src := r.URL.Query().Get("src")
	seg := r.URL.Query().Get("seg")
	if src == "" || seg == "" {
		http.Error(w, "missing src/seg", http.StatusBadRequest)
		return
	}

	target := resolveURL(src, seg)
	resp, err := h.client.Fetch(r.Context(), target, h.cfg.StreamTimeout)
	if err != nil {
		h.log.Error("proxy seg error", slog.String("target", target), slog.String("error", err.Error()))
		h.countUpstreamError()
		w.WriteHeader(http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = segmentContentType
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	io.Copy(newFlushWriter(w), resp.Body)
}

func (h *Handler) countUpstreamError() {
	if h.metrics != nil {
		h.metrics.IncUpstreamErrors()
	}
}

func (h *Handler) countMockFallback() {
	if h.metrics != nil {
		h.metrics.IncMockFallbacks()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// flushWriter flushes after every write so relayed stream bytes reach the
// client immediately instead of sitting in the response buffer.
type flushWriter struct {
	w io.Writer
	f http.Flusher
}

func newFlushWriter(w http.ResponseWriter) *flushWriter {
	f, _ := w.(http.Flusher)
	return &flushWriter{w: w, f: f}
}

func (fw *flushWriter) Write(p []byte) (int, error) {
	n, err := fw.w.Write(p)
	if fw.f != nil {
		fw.f.Flush()
	}
	return n, err
}
