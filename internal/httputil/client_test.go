package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// =============================================================================
// Client Tests
// =============================================================================

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(ClientConfig{BaseURL: "http://localhost:8080/"})

	if client.baseURL != "http://localhost:8080" {
		t.Errorf("baseURL = %s, want trailing slash trimmed", client.baseURL)
	}
	if client.attempts != 3 {
		t.Errorf("default attempts = %d, want 3", client.attempts)
	}
	if client.delay != 500*time.Millisecond {
		t.Errorf("default delay = %v, want 500ms", client.delay)
	}
}

func TestClient_PostJSONSendsHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("X-Title"); got != "test" {
			t.Errorf("X-Title = %q", got)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(map[string]string{"echo": body["q"]})
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, Headers: map[string]string{"Authorization": "Bearer key"}})
	var out map[string]string
	err := client.PostJSON(context.Background(), "/chat", map[string]string{"q": "hi"}, &out, map[string]string{"X-Title": "test"})
	if err != nil {
		t.Fatalf("PostJSON() error = %v", err)
	}
	if out["echo"] != "hi" {
		t.Errorf("echo = %q, want hi", out["echo"])
	}
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, RetryDelay: time.Millisecond})
	var out struct{ OK bool }
	if err := client.GetJSON(context.Background(), "/", &out, nil); err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if !out.OK || atomic.LoadInt32(&calls) != 3 {
		t.Errorf("ok=%v calls=%d, want success on third call", out.OK, calls)
	}
}

func TestClient_GivesUpAfterAttempts(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, Attempts: 2, RetryDelay: time.Millisecond})
	_, err := client.Do(context.Background(), http.MethodGet, "/", nil, nil)
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected StatusError 503, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, RetryDelay: time.Millisecond})
	err := client.GetJSON(context.Background(), "/", &struct{}{}, nil)
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusUnauthorized || !strings.Contains(se.Body, "bad key") {
		t.Fatalf("expected 401 StatusError, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestReadAllWithLimit(t *testing.T) {
	data, truncated, err := ReadAllWithLimit(strings.NewReader("abcdef"), 4)
	if err != nil || !truncated || string(data) != "abcd" {
		t.Fatalf("got %q truncated=%v err=%v", data, truncated, err)
	}
	data, truncated, _ = ReadAllWithLimit(strings.NewReader("ab"), 4)
	if truncated || string(data) != "ab" {
		t.Fatalf("got %q truncated=%v", data, truncated)
	}
}
