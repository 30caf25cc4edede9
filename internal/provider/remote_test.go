package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/veridict/internal/model"
)

// fastSleep replaces the retry backoff for the duration of a test.
func fastSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var slept []time.Duration
	orig := remoteSleepFunc
	remoteSleepFunc = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return ctx.Err()
	}
	t.Cleanup(func() { remoteSleepFunc = orig })
	return &slept
}

func newRemote(endpoint string, maxRetries int) *Remote {
	return NewRemote(model.ChannelTamper, endpoint, model.ProvidersConfig{
		Timeout:    5 * time.Second,
		MaxRetries: maxRetries,
	})
}

func TestRemote_Score(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected json content type, got %s", ct)
		}
		_, _ = w.Write([]byte(`{"score": 0.73}`))
	}))
	defer server.Close()

	r := newRemote(server.URL, 1)
	score, err := r.Score(context.Background(), "img.jpg", "text")
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if score != 0.73 {
		t.Errorf("expected 0.73, got %f", score)
	}
}

func TestRemote_RetriesServerErrors(t *testing.T) {
	slept := fastSleep(t)

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"score": 0.4}`))
	}))
	defer server.Close()

	r := newRemote(server.URL, 3)
	score, err := r.Score(context.Background(), "img.jpg", "text")
	if err != nil {
		t.Fatalf("Score failed after retries: %v", err)
	}
	if score != 0.4 {
		t.Errorf("expected 0.4, got %f", score)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	// Exponential backoff: 1s then 2s.
	if len(*slept) != 2 || (*slept)[0] != time.Second || (*slept)[1] != 2*time.Second {
		t.Errorf("unexpected backoff sequence: %v", *slept)
	}
}

func TestRemote_ClientErrorNotRetried(t *testing.T) {
	fastSleep(t)

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	r := newRemote(server.URL, 3)
	_, err := r.Score(context.Background(), "img.jpg", "text")
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("client errors must not retry, got %d calls", calls)
	}
}

func TestRemote_OutOfRangeScore(t *testing.T) {
	fastSleep(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"score": 1.7}`))
	}))
	defer server.Close()

	r := newRemote(server.URL, 1)
	_, err := r.Score(context.Background(), "img.jpg", "text")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable for out-of-range score, got %v", err)
	}
}

func TestRemote_ServiceError(t *testing.T) {
	fastSleep(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"score": 0, "error": "model not loaded"}`))
	}))
	defer server.Close()

	r := newRemote(server.URL, 1)
	_, err := r.Score(context.Background(), "img.jpg", "text")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable for service error, got %v", err)
	}
}

func TestRemote_CancelledContextSkipsBackoff(t *testing.T) {
	// Real backoff sleeps here: cancellation mid-retry must return at once
	// instead of sitting out the full backoff.
	ctx, cancel := context.WithCancel(context.Background())

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		cancel()
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	r := newRemote(server.URL, 3)
	start := time.Now()
	_, err := r.Score(ctx, "img.jpg", "text")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("backoff ignored cancellation, took %v", elapsed)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("expected 1 call before cancellation, got %d", calls)
	}
}

func TestRemote_TransportErrorRetried(t *testing.T) {
	slept := fastSleep(t)

	// Point at a closed server so every attempt fails at the transport.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	r := newRemote(server.URL, 2)
	_, err := r.Score(context.Background(), "img.jpg", "text")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
	if len(*slept) != 1 {
		t.Errorf("expected 1 backoff between 2 attempts, got %v", *slept)
	}
}
