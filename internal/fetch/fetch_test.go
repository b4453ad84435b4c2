package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestClient_ManifestIsCached(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte("#EXTM3U"))
	}))
	defer srv.Close()

	c := New(5 * time.Second)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		body, err := c.Manifest(ctx, srv.URL)
		if err != nil {
			t.Fatalf("Manifest: %v", err)
		}
		if string(body) != "#EXTM3U" {
			t.Errorf("body = %q", body)
		}
	}

	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("expected 1 request due to caching, got %d", got)
	}
}

func TestClient_SegmentSendsRangeHeader(t *testing.T) {
	var gotRange string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRange = r.Header.Get("Range")
		w.Write([]byte("chunk"))
	}))
	defer srv.Close()

	c := New(5 * time.Second)
	_, err := c.Segment(context.Background(), srv.URL, ByteRange{Offset: 100, Length: 50})
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	if gotRange != "bytes=100-149" {
		t.Errorf("Range header = %q", gotRange)
	}
}

func TestClient_RetriesOnFailureThenSucceeds(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := New(5 * time.Second)
	body, err := c.Segment(context.Background(), srv.URL, ByteRange{})
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	if string(body) != "ok" {
		t.Errorf("body = %q", body)
	}
	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestClient_GivesUpAfterMaxAttempts(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(5 * time.Second)
	_, err := c.Segment(context.Background(), srv.URL, ByteRange{})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if got := atomic.LoadInt32(&attempts); got != maxAttempts {
		t.Errorf("expected %d attempts, got %d", maxAttempts, got)
	}
}
