package util

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func request(t *testing.T, rawURL string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, rawURL, nil)
	return req
}

func TestNewProxyFunc_Explicit(t *testing.T) {
	proxyFn := NewProxyFunc("http://proxy.local:3128", "", "")

	u, err := proxyFn(request(t, "http://scorer.internal/score"))
	if err != nil {
		t.Fatalf("proxy func failed: %v", err)
	}
	if u == nil || u.Host != "proxy.local:3128" {
		t.Errorf("expected explicit proxy, got %v", u)
	}
}

func TestNewProxyFunc_HTTPSOverride(t *testing.T) {
	proxyFn := NewProxyFunc("http://proxy.local:3128", "http://sproxy.local:3129", "")

	u, err := proxyFn(request(t, "https://scorer.internal/score"))
	if err != nil {
		t.Fatalf("proxy func failed: %v", err)
	}
	if u == nil || u.Host != "sproxy.local:3129" {
		t.Errorf("expected https proxy, got %v", u)
	}
}

func TestNewProxyFunc_NoProxyBypass(t *testing.T) {
	proxyFn := NewProxyFunc("http://proxy.local:3128", "", "internal, localhost")

	// Exact match and subdomain suffix both bypass.
	for _, rawURL := range []string{"http://internal/score", "http://scorer.internal/score", "http://localhost:8801/score"} {
		u, err := proxyFn(request(t, rawURL))
		if err != nil {
			t.Fatalf("proxy func failed: %v", err)
		}
		if u != nil {
			t.Errorf("%s: expected bypass, got %v", rawURL, u)
		}
	}

	// Unlisted hosts still go through the proxy.
	u, err := proxyFn(request(t, "http://example.com/score"))
	if err != nil {
		t.Fatal(err)
	}
	if u == nil {
		t.Error("expected proxy for unlisted host")
	}
}
