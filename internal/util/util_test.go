package util

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/ppiankov/ytverify/internal/model"
)

func TestNewProxyFunc_NoProxyBypass(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.internal:3128", "", "localhost,.example.com")

	req := &http.Request{URL: &url.URL{Scheme: "https", Host: "www.youtube.com"}}
	got, err := proxy(req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got == nil || got.Host != "proxy.internal:3128" {
		t.Errorf("Expected https request to use http proxy, got %v", got)
	}

	req = &http.Request{URL: &url.URL{Scheme: "http", Host: "api.example.com"}}
	got, err = proxy(req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("Expected no proxy for no_proxy host, got %v", got)
	}
}

func TestNewHTTPClient_Timeout(t *testing.T) {
	client := NewHTTPClient(model.HTTPConfig{})
	if client.Timeout != 30*time.Second {
		t.Errorf("Expected default timeout 30s, got %v", client.Timeout)
	}

	client = NewHTTPClient(model.HTTPConfig{Timeout: 5 * time.Second})
	if client.Timeout != 5*time.Second {
		t.Errorf("Expected timeout 5s, got %v", client.Timeout)
	}
}

func TestRobotsChecker(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		hits++
		fmt.Fprint(w, "User-agent: *\nDisallow: /private\nCrawl-delay: 2\n")
	}))
	defer srv.Close()

	checker := NewRobotsChecker("ytverify/1.0", srv.Client(), time.Second, nil)
	ctx := context.Background()

	if !checker.IsAllowed(ctx, srv.URL+"/watch?v=dQw4w9WgXcQ") {
		t.Error("Expected /watch to be allowed")
	}
	allowed, delay, err := checker.CanFetch(ctx, srv.URL+"/private/page")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if allowed {
		t.Error("Expected /private to be disallowed")
	}
	if delay != 2*time.Second {
		t.Errorf("Expected crawl delay 2s, got %v", delay)
	}
	if hits != 1 {
		t.Errorf("Expected robots.txt to be fetched once, got %d", hits)
	}
}

func TestRobotsChecker_UnreachableAllows(t *testing.T) {
	checker := NewRobotsChecker("ytverify", nil, 50*time.Millisecond, nil)
	if !checker.IsAllowed(context.Background(), "http://127.0.0.1:1/watch") {
		t.Error("Expected unreachable robots.txt to allow")
	}
}

func TestNormalizeUserAgent(t *testing.T) {
	tests := map[string]string{
		"ytverify/1.0 (+https://example.com)": "ytverify",
		"Mozilla/5.0":                         "Mozilla",
		"":                                    "",
	}
	for in, want := range tests {
		if got := NormalizeUserAgent(in); got != want {
			t.Errorf("NormalizeUserAgent(%q): expected %q, got %q", in, want, got)
		}
	}
}
