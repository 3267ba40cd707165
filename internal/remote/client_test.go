package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/containerd/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picklr-io/stackctl/internal/stackerr"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  map[string]string
	Body   map[string]any
	Header http.Header
}

// newTestClient starts a server answering with handler and returns a client
// pointed at it, plus the requests the server saw.
func newTestClient(t *testing.T, handler func(w http.ResponseWriter, r *recordedRequest)) (*Client, *[]*recordedRequest) {
	t.Helper()

	var seen []*recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  map[string]string{},
			Header: r.Header.Clone(),
		}
		for k := range r.URL.Query() {
			rec.Query[k] = r.URL.Query().Get(k)
		}
		if r.Body != nil {
			dec := json.NewDecoder(r.Body)
			dec.UseNumber()
			_ = dec.Decode(&rec.Body)
		}
		seen = append(seen, rec)
		handler(w, rec)
	}))
	t.Cleanup(srv.Close)

	cli, err := NewClientWithOpts(WithHost(srv.URL), WithToken("dapi-test"))
	require.NoError(t, err)
	return cli, &seen
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewClientWithOpts_RequiresHost(t *testing.T) {
	_, err := NewClientWithOpts()
	require.Error(t, err)
	assert.True(t, errdefs.IsInvalidArgument(err))
}

func TestWithHost(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		scheme   string
		addr     string
		basePath string
		wantErr  bool
	}{
		{name: "bare host defaults to https", host: "example.cloud.databricks.com", scheme: "https", addr: "example.cloud.databricks.com"},
		{name: "http with port", host: "http://127.0.0.1:8080", scheme: "http", addr: "127.0.0.1:8080"},
		{name: "base path", host: "https://proxy.internal/databricks/", scheme: "https", addr: "proxy.internal", basePath: "/databricks"},
		{name: "unsupported scheme", host: "ftp://example.com", wantErr: true},
		{name: "empty", host: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli, err := NewClientWithOpts(WithHost(tt.host))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.scheme, cli.scheme)
			assert.Equal(t, tt.addr, cli.addr)
			assert.Equal(t, tt.basePath, cli.basePath)
		})
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvOverrideHost, "https://env.example.com")
	t.Setenv(EnvOverrideToken, "dapi-env")

	cli, err := NewClientWithOpts(FromEnv)
	require.NoError(t, err)
	assert.Equal(t, "env.example.com", cli.addr)
	assert.Equal(t, "dapi-env", cli.token)
	assert.Equal(t, "https://env.example.com", cli.Host())
}

func TestFromEnv_ExplicitOptionsWin(t *testing.T) {
	t.Setenv(EnvOverrideHost, "https://env.example.com")

	cli, err := NewClientWithOpts(FromEnv, WithHost("https://flag.example.com"))
	require.NoError(t, err)
	assert.Equal(t, "flag.example.com", cli.addr)
}

func TestRequestHeaders(t *testing.T) {
	cli, seen := newTestClient(t, func(w http.ResponseWriter, _ *recordedRequest) {
		writeJSON(w, http.StatusOK, map[string]any{})
	})

	_, err := cli.GetStatus(context.Background(), "/Shared")
	require.NoError(t, err)

	require.Len(t, *seen, 1)
	hdr := (*seen)[0].Header
	assert.Equal(t, "Bearer dapi-test", hdr.Get("Authorization"))
	assert.Contains(t, hdr.Get("User-Agent"), "stackctl/")
}

func TestRemoteErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		check   func(error) bool
		code    string
		message string
	}{
		{
			name:    "structured error",
			status:  http.StatusBadRequest,
			body:    `{"error_code":"RESOURCE_ALREADY_EXISTS","message":"Node named 'etl' already exists"}`,
			check:   errdefs.IsAlreadyExists,
			code:    "RESOURCE_ALREADY_EXISTS",
			message: "Node named 'etl' already exists",
		},
		{
			name:    "missing object",
			status:  http.StatusNotFound,
			body:    `{"error_code":"RESOURCE_DOES_NOT_EXIST","message":"Path (/Shared/x) doesn't exist."}`,
			check:   errdefs.IsNotFound,
			code:    "RESOURCE_DOES_NOT_EXIST",
			message: "Path (/Shared/x) doesn't exist.",
		},
		{
			name:    "plain text from a proxy",
			status:  http.StatusBadGateway,
			body:    "upstream unavailable\n",
			check:   errdefs.IsInternal,
			message: "upstream unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli, _ := newTestClient(t, func(w http.ResponseWriter, _ *recordedRequest) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := cli.GetStatus(context.Background(), "/Shared/x")
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error class: %v", err)

			var rerr *stackerr.RemoteServiceError
			require.ErrorAs(t, err, &rerr)
			assert.Equal(t, tt.status, rerr.StatusCode)
			assert.Equal(t, tt.code, rerr.ErrorCode)
			assert.Equal(t, tt.message, rerr.Message)
			assert.Equal(t, "/api/2.0/workspace/get-status", rerr.Path)
		})
	}
}

func TestConnectionFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	cli, err := NewClientWithOpts(WithHost(addr))
	require.NoError(t, err)

	_, err = cli.GetJob(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, errdefs.IsUnavailable(err), "expected unavailable, got %v", err)
}

func TestContextCancellationIsNotDecorated(t *testing.T) {
	cli, _ := newTestClient(t, func(w http.ResponseWriter, _ *recordedRequest) {
		writeJSON(w, http.StatusOK, map[string]any{})
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := cli.GetJob(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errdefs.IsUnavailable(err))
}
