package providers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testProviderConfig(baseURL string) ProviderConfig {
	return ProviderConfig{
		Name:       "test-provider",
		Type:       TypeOpenAI,
		BaseURL:    baseURL,
		Model:      "test-model",
		Timeout:    2 * time.Second,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	}
}

func TestHTTPProvider_RetryOn5xx(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	provider := NewHTTPProvider(testProviderConfig(server.URL))
	defer provider.Close()

	resp, err := provider.DoRequest(context.Background(), http.MethodPost, server.URL, []byte(`{}`), nil)
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	resp.Body.Close()

	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
	if !provider.IsHealthy() {
		t.Error("expected provider to be healthy after success")
	}
}

func TestHTTPProvider_SameBodyOnEveryAttempt(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"prompt":"x"}` {
			t.Errorf("attempt %d: unexpected body %q", atomic.LoadInt32(&calls)+1, body)
		}
		if r.Header.Get("X-Test") != "kept" {
			t.Errorf("expected header to be resent, got %q", r.Header.Get("X-Test"))
		}
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	provider := NewHTTPProvider(testProviderConfig(server.URL))
	defer provider.Close()

	resp, err := provider.DoRequest(context.Background(), http.MethodPost, server.URL,
		[]byte(`{"prompt":"x"}`), map[string]string{"X-Test": "kept"})
	if err != nil {
		t.Fatalf("DoRequest failed: %v", err)
	}
	resp.Body.Close()
}

func TestHTTPProvider_NoRetryOn4xx(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		headers map[string]string
		check   func(t *testing.T, err error)
	}{
		{
			name:   "bad request",
			status: http.StatusBadRequest,
			check: func(t *testing.T, err error) {
				var pe *ProviderError
				if !errors.As(err, &pe) || pe.StatusCode != http.StatusBadRequest {
					t.Errorf("expected ProviderError with status 400, got %T: %v", err, err)
				}
			},
		},
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			check: func(t *testing.T, err error) {
				var ae *AuthError
				if !errors.As(err, &ae) {
					t.Errorf("expected AuthError, got %T: %v", err, err)
				}
			},
		},
		{
			name:   "forbidden",
			status: http.StatusForbidden,
			check: func(t *testing.T, err error) {
				var ae *AuthError
				if !errors.As(err, &ae) {
					t.Errorf("expected AuthError, got %T: %v", err, err)
				}
			},
		},
		{
			name:    "rate limited",
			status:  http.StatusTooManyRequests,
			headers: map[string]string{"Retry-After": "7"},
			check: func(t *testing.T, err error) {
				var re *RateLimitError
				if !errors.As(err, &re) {
					t.Fatalf("expected RateLimitError, got %T: %v", err, err)
				}
				if re.RetryAfter != 7*time.Second {
					t.Errorf("expected retry after 7s, got %s", re.RetryAfter)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				for k, v := range tt.headers {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error":"nope"}`))
			}))
			defer server.Close()

			provider := NewHTTPProvider(testProviderConfig(server.URL))
			defer provider.Close()

			_, err := provider.DoRequest(context.Background(), http.MethodPost, server.URL, []byte(`{}`), nil)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			tt.check(t, err)

			if got := atomic.LoadInt32(&calls); got != 1 {
				t.Errorf("expected exactly 1 attempt, got %d", got)
			}
		})
	}
}

func TestHTTPProvider_MaxRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := testProviderConfig(server.URL)
	cfg.MaxRetries = 3
	provider := NewHTTPProvider(cfg)
	defer provider.Close()

	_, err := provider.DoRequest(context.Background(), http.MethodGet, server.URL, nil, nil)

	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %T: %v", err, err)
	}
	if pe.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", pe.StatusCode)
	}
	if got := atomic.LoadInt32(&calls); got != 4 {
		t.Errorf("expected 4 attempts (1 + 3 retries), got %d", got)
	}

	health := provider.GetHealth()
	if health.FailedRequests != 4 {
		t.Errorf("expected 4 failed requests, got %d", health.FailedRequests)
	}
}

func TestHTTPProvider_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	provider := NewHTTPProvider(testProviderConfig(server.URL))
	defer provider.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := provider.DoRequest(ctx, http.MethodGet, server.URL, nil, nil)

	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("expected TimeoutError, got %T: %v", err, err)
	}
}

func TestHTTPProvider_DoJSONRequest(t *testing.T) {
	t.Run("decodes response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Content-Type") != "application/json" {
				t.Errorf("expected JSON content type, got %q", r.Header.Get("Content-Type"))
			}
			w.Write([]byte(`{"answer":42}`))
		}))
		defer server.Close()

		provider := NewHTTPProvider(testProviderConfig(server.URL))
		defer provider.Close()

		var out struct {
			Answer int `json:"answer"`
		}
		err := provider.DoJSONRequest(context.Background(), http.MethodPost, server.URL,
			map[string]string{"q": "life"}, &out, nil)
		if err != nil {
			t.Fatalf("DoJSONRequest failed: %v", err)
		}
		if out.Answer != 42 {
			t.Errorf("expected 42, got %d", out.Answer)
		}
	})

	t.Run("malformed response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{not json`))
		}))
		defer server.Close()

		provider := NewHTTPProvider(testProviderConfig(server.URL))
		defer provider.Close()

		var out map[string]any
		err := provider.DoJSONRequest(context.Background(), http.MethodPost, server.URL, nil, &out, nil)

		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("expected ParseError, got %T: %v", err, err)
		}
		if pe.RawResponse != `{not json` {
			t.Errorf("expected raw response to be kept, got %q", pe.RawResponse)
		}
	})
}

func TestHTTPProvider_ResolveModel(t *testing.T) {
	provider := NewHTTPProvider(testProviderConfig("http://localhost"))
	defer provider.Close()

	req := &CompletionRequest{}
	provider.ResolveModel(req)
	if req.Model != "test-model" {
		t.Errorf("expected default model, got %q", req.Model)
	}

	req = &CompletionRequest{Model: "explicit"}
	provider.ResolveModel(req)
	if req.Model != "explicit" {
		t.Errorf("expected explicit model to win, got %q", req.Model)
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		header string
		want   time.Duration
	}{
		{"", 0},
		{"30", 30 * time.Second},
		{"garbage", 0},
	}
	for _, tt := range tests {
		if got := parseRetryAfter(tt.header); got != tt.want {
			t.Errorf("parseRetryAfter(%q): expected %s, got %s", tt.header, tt.want, got)
		}
	}

	future := time.Now().Add(time.Minute).UTC().Format(http.TimeFormat)
	if got := parseRetryAfter(future); got <= 0 || got > time.Minute {
		t.Errorf("expected HTTP-date to parse within a minute, got %s", got)
	}
}
