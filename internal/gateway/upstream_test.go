package gateway

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestClient_Fetch_success(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("payload"))
	}))
	defer origin.Close()

	c := NewClient()
	resp, err := c.Fetch(context.Background(), origin.URL, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("unexpected content type: %s", ct)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "payload" {
		t.Errorf("unexpected body: %q", b)
	}
}

func TestClient_Fetch_non2xx_is_error(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer origin.Close()

	c := NewClient()
	_, err := c.Fetch(context.Background(), origin.URL, time.Second)
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("expected status in error, got %v", err)
	}
}

func TestClient_Fetch_header_timeout(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer origin.Close()

	c := NewClient()
	start := time.Now()
	_, err := c.Fetch(context.Background(), origin.URL, 30*time.Millisecond)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > 200*time.Millisecond {
		t.Errorf("fetch was not aborted by the timeout, took %v", time.Since(start))
	}
}

func TestClient_Fetch_slow_body_not_cut_off(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f := w.(http.Flusher)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("first"))
		f.Flush()
		// Body keeps flowing past the header timeout.
		time.Sleep(80 * time.Millisecond)
		w.Write([]byte("second"))
	}))
	defer origin.Close()

	c := NewClient()
	resp, err := c.Fetch(context.Background(), origin.URL, 30*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("body read failed after header timeout elapsed: %v", err)
	}
	if string(b) != "firstsecond" {
		t.Errorf("unexpected body: %q", b)
	}
}

func TestClient_Fetch_caller_cancellation(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer origin.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	c := NewClient()
	_, err := c.Fetch(ctx, origin.URL, 5*time.Second)
	if err == nil {
		t.Fatal("expected error after caller cancellation")
	}
}

func TestClient_FetchText(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("#EXTM3U\n"))
	}))
	defer origin.Close()

	c := NewClient()
	text, err := c.FetchText(context.Background(), origin.URL, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "#EXTM3U\n" {
		t.Errorf("unexpected text: %q", text)
	}
}
