package clients

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-engine/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quote-engine/internal/platform/config"
)

func testConfig(baseURL string) *Config {
	return &Config{
		BaseURL:     baseURL,
		ServiceName: "account-service",
		Timeout:     5 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     3,
			InitialInterval: 5 * time.Millisecond,
			MaxInterval:     20 * time.Millisecond,
			Multiplier:      2.0,
		},
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   5,
			Timeout:       time.Second,
			HalfOpenLimit: 2,
		},
	}
}

func closeBody(t *testing.T, resp *http.Response) {
	t.Helper()
	require.NoError(t, resp.Body.Close())
}

// statusSequence answers with codes in order and repeats the last one.
func statusSequence(calls *int32, codes ...int) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		n := int(atomic.AddInt32(calls, 1))
		if n > len(codes) {
			n = len(codes)
		}

		w.WriteHeader(codes[n-1])
	}
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	require.ErrorContains(t, err, "config is required")

	cfg := testConfig("https://crm.example.com/")
	cfg.ServiceName = ""
	_, err = New(cfg)
	require.ErrorContains(t, err, "service name is required")

	cfg = testConfig("https://crm.example.com/")
	cfg.Timeout = 0
	cfg.Retry.MaxAttempts = 0

	client, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, "https://crm.example.com", client.baseURL)
	assert.Equal(t, defaultTimeout, cfg.Timeout)
	assert.Equal(t, 1, cfg.Retry.MaxAttempts)
	assert.Equal(t, "account-service", client.ServiceName())
}

func TestClient_Retries(t *testing.T) {
	tests := []struct {
		name         string
		codes        []int
		maxAttempts  int
		wantStatus   int
		wantErr      error
		wantAttempts int32
	}{
		{
			name:         "recovers after server errors",
			codes:        []int{500, 502, 200},
			maxAttempts:  3,
			wantStatus:   http.StatusOK,
			wantAttempts: 3,
		},
		{
			name:         "client error is not retried",
			codes:        []int{400},
			maxAttempts:  3,
			wantStatus:   http.StatusBadRequest,
			wantAttempts: 1,
		},
		{
			name:         "gives up",
			codes:        []int{503},
			maxAttempts:  3,
			wantErr:      ErrMaxRetriesExceeded,
			wantAttempts: 3,
		},
		{
			name:         "single attempt",
			codes:        []int{503, 200},
			maxAttempts:  1,
			wantErr:      ErrMaxRetriesExceeded,
			wantAttempts: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32

			server := httptest.NewServer(statusSequence(&calls, tt.codes...))
			defer server.Close()

			cfg := testConfig(server.URL)
			cfg.Retry.MaxAttempts = tt.maxAttempts

			client, err := New(cfg)
			require.NoError(t, err)

			resp, err := client.Get(context.Background(), "/accounts/acc-1")

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				defer closeBody(t, resp)
				assert.Equal(t, tt.wantStatus, resp.StatusCode)
			}

			assert.Equal(t, tt.wantAttempts, atomic.LoadInt32(&calls))
		})
	}
}

func TestClient_ReplaysBodyOnRetry(t *testing.T) {
	var calls int32

	bodies := make(chan string, 2)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies <- string(b)

		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}

		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client, err := New(testConfig(server.URL))
	require.NoError(t, err)

	resp, err := client.Post(context.Background(), "/accounts", strings.NewReader(`{"name":"Acme"}`))
	require.NoError(t, err)
	defer closeBody(t, resp)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, `{"name":"Acme"}`, <-bodies)
	assert.Equal(t, `{"name":"Acme"}`, <-bodies)
}

func TestClient_Methods(t *testing.T) {
	tests := []struct {
		method string
		call   func(*Client) (*http.Response, error)
	}{
		{http.MethodGet, func(c *Client) (*http.Response, error) { return c.Get(context.Background(), "/x") }},
		{http.MethodPut, func(c *Client) (*http.Response, error) {
			return c.Put(context.Background(), "/x", strings.NewReader("{}"))
		}},
		{http.MethodDelete, func(c *Client) (*http.Response, error) { return c.Delete(context.Background(), "x") }},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			var got string

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Method + " " + r.URL.Path
				w.WriteHeader(http.StatusNoContent)
			}))
			defer server.Close()

			client, err := New(testConfig(server.URL))
			require.NoError(t, err)

			resp, err := tt.call(client)
			require.NoError(t, err)
			defer closeBody(t, resp)

			assert.Equal(t, tt.method+" /x", got)
		})
	}
}

func TestClient_Headers(t *testing.T) {
	var calls, auths int32

	var requestID, correlationID, authorization atomic.Value

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID.Store(r.Header.Get(middleware.HeaderRequestID))
		correlationID.Store(r.Header.Get(middleware.HeaderCorrelationID))
		authorization.Store(r.Header.Get("Authorization"))

		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.AuthFunc = func(r *http.Request) {
		atomic.AddInt32(&auths, 1)
		r.Header.Set("Authorization", "Bearer crm-token")
	}

	client, err := New(cfg)
	require.NoError(t, err)

	ctx := middleware.ContextWithRequestID(context.Background(), "req-123")
	ctx = middleware.ContextWithCorrelationID(ctx, "corr-456")

	resp, err := client.Get(ctx, "/accounts/acc-1")
	require.NoError(t, err)
	defer closeBody(t, resp)

	assert.Equal(t, "req-123", requestID.Load())
	assert.Equal(t, "corr-456", correlationID.Load())
	assert.Equal(t, "Bearer crm-token", authorization.Load())
	assert.Equal(t, int32(2), atomic.LoadInt32(&auths))
}

func TestClient_CircuitBreaker(t *testing.T) {
	var calls int32

	server := httptest.NewServer(statusSequence(&calls, http.StatusServiceUnavailable))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Retry.MaxAttempts = 1
	cfg.Circuit.MaxFailures = 2

	client, err := New(cfg)
	require.NoError(t, err)

	_, err = client.Get(context.Background(), "/accounts/acc-1")
	require.Error(t, err)
	assert.Equal(t, StateClosed, client.CircuitState())

	_, err = client.Get(context.Background(), "/accounts/acc-1")
	require.Error(t, err)
	assert.Equal(t, StateOpen, client.CircuitState())

	_, err = client.Get(context.Background(), "/accounts/acc-1")
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_Deadlines(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	t.Run("attempt timeout", func(t *testing.T) {
		cfg := testConfig(server.URL)
		cfg.Timeout = 30 * time.Millisecond
		cfg.Retry.MaxAttempts = 1

		client, err := New(cfg)
		require.NoError(t, err)

		_, err = client.Get(context.Background(), "/slow")
		require.Error(t, err)
	})

	t.Run("caller deadline", func(t *testing.T) {
		client, err := New(testConfig(server.URL))
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()

		_, err = client.Get(ctx, "/slow")
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestClient_BuildURL(t *testing.T) {
	client, err := New(testConfig("https://crm.example.com/"))
	require.NoError(t, err)

	assert.Equal(t, "https://crm.example.com/accounts", client.buildURL("/accounts"))
	assert.Equal(t, "https://crm.example.com/accounts", client.buildURL("accounts"))
}

func TestClient_BackOffFromConfig(t *testing.T) {
	cfg := testConfig("http://localhost")
	cfg.Retry.InitialInterval = 100 * time.Millisecond
	cfg.Retry.MaxInterval = 300 * time.Millisecond
	cfg.Retry.Multiplier = 2

	client, err := New(cfg)
	require.NoError(t, err)

	b := client.newBackOff()

	assert.Equal(t, 100*time.Millisecond, b.NextBackOff())
	assert.Equal(t, 200*time.Millisecond, b.NextBackOff())
	assert.Equal(t, 300*time.Millisecond, b.NextBackOff())
	assert.Equal(t, 300*time.Millisecond, b.NextBackOff())
}

type fakeNetError struct{ timeout bool }

func (e fakeNetError) Error() string   { return "net error" }
func (e fakeNetError) Timeout() bool   { return e.timeout }
func (e fakeNetError) Temporary() bool { return false }

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"net timeout", fakeNetError{timeout: true}, true},
		{"net other", fakeNetError{}, false},
		{"connection refused", &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableError(tt.err))
		})
	}
}
