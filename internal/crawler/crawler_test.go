
package crawler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchHTML(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "test-agent" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(200)
		_, _ = w.Write([]byte("<html><title>x</title></html>"))
	}))
	defer ts.Close()

	client := NewHTTPClient(5*time.Second, 2*time.Second, 1024).SetUserAgent("test-agent")
	res, err := client.Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("fetch err: %v", err)
	}
	if res.FinalURL == "" || res.ContentType == "" || len(res.Body) == 0 {
		t.Fatal("unexpected empty values")
	}
}

func TestFetchSizeCap(t *testing.T) {
	const page = "<html><body>0123456789</body></html>"
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(page))
	}))
	defer ts.Close()

	res, err := NewHTTPClient(5*time.Second, 2*time.Second, 8).Fetch(context.Background(), ts.URL)
	if !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("want ErrBodyTooLarge, got %v", err)
	}
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("want TransportError, got %T", err)
	}
	if len(res.Body) != 0 {
		t.Fatalf("oversized body leaked %d bytes", len(res.Body))
	}

	res, err = NewHTTPClient(5*time.Second, 2*time.Second, int64(len(page))).Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("body at the cap: %v", err)
	}
	if string(res.Body) != page {
		t.Fatalf("got %q", res.Body)
	}
}

func TestRejectNonHTML(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(200)
		w.Write([]byte("{}"))
	}))
	defer ts.Close()

	client := NewHTTPClient(5*time.Second, 2*time.Second, 1024)
	_, err := client.Fetch(context.Background(), ts.URL)
	if err == nil {
		t.Fatal("expected error for non-html")
	}
}

func TestStatusIsTransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	_, err := NewHTTPClient(5*time.Second, 2*time.Second, 1024).Fetch(context.Background(), ts.URL)
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("want TransportError, got %v", err)
	}
	if te.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("want 503, got %d", te.StatusCode)
	}
}

func TestInvalidURL(t *testing.T) {
	_, err := NewHTTPClient(time.Second, time.Second, 1024).Fetch(context.Background(), "/weekly/2024/10/1")
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("want TransportError, got %v", err)
	}
}
