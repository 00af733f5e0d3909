package http_test

import (
	"encoding/json"
	gohttp "net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"finqa/internal/http"
)

func TestClientRequest(t *testing.T) {
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		if r.Method != "POST" || r.URL.Path != "/predict" {
			gohttp.NotFound(w, r)
			return
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("got content type %q", ct)
		}

		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("failed to decode payload: %v", err)
		}
		if payload["question"] != "q1" {
			t.Errorf("got question %v", payload["question"])
		}

		json.NewEncoder(w).Encode(map[string]any{"predicted_answer": "B"})
	}))
	defer srv.Close()

	client := http.NewClient(srv.URL)
	resp, err := client.Request(http.MethodPost, "/predict", map[string]any{"question": "q1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp["predicted_answer"] != "B" {
		t.Errorf("got %v", resp["predicted_answer"])
	}
}

func TestClientRequestAuthHeader(t *testing.T) {
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("got authorization %q", got)
		}
		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	client := http.NewClient(srv.URL, http.WithApiKey("secret"))
	if _, err := client.Request(http.MethodGet, "/", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClientRetriesServerErrors(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		// the body must be readable on every attempt
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("attempt %d: failed to decode payload: %v", attempts.Load(), err)
		}

		if attempts.Add(1) == 1 {
			gohttp.Error(w, "busy", gohttp.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	client := http.NewClient(srv.URL)
	resp, err := client.Request(http.MethodPost, "/", map[string]any{"a": 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp["ok"] != true {
		t.Errorf("got %v", resp)
	}
	if attempts.Load() != 2 {
		t.Errorf("got %d attempts, expected 2", attempts.Load())
	}
}

func TestClientNoRetryOnClientError(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		attempts.Add(1)
		gohttp.Error(w, "bad request", gohttp.StatusBadRequest)
	}))
	defer srv.Close()

	client := http.NewClient(srv.URL)
	_, err := client.Request(http.MethodPost, "/", nil)
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if !strings.Contains(err.Error(), "400") {
		t.Errorf("got error %v, expected status code in message", err)
	}
	if attempts.Load() != 1 {
		t.Errorf("got %d attempts, expected no retries", attempts.Load())
	}
}
