package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/containerd/errdefs"

	"github.com/picklr-io/stackctl/internal/logging"
	"github.com/picklr-io/stackctl/internal/stackerr"
)

// errorResponse is the error body returned by the platform API.
type errorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

type errConnectionFailed struct {
	error
}

func (e errConnectionFailed) Unwrap() []error {
	return []error{errdefs.ErrUnavailable, e.error}
}

// get sends an http GET request to the API.
func (cli *Client) get(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	return cli.sendRequest(ctx, http.MethodGet, path, query, nil, nil)
}

// post sends an http POST request with a JSON body to the API.
func (cli *Client) post(ctx context.Context, path string, query url.Values, body any) (*http.Response, error) {
	var (
		reader  io.Reader
		headers http.Header
	)
	if body != nil {
		buf, err := jsonEncode(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = buf
		headers = http.Header{"Content-Type": []string{"application/json"}}
	}
	return cli.sendRequest(ctx, http.MethodPost, path, query, reader, headers)
}

func (cli *Client) buildRequest(ctx context.Context, method, path string, query url.Values, body io.Reader, headers http.Header) (*http.Request, error) {
	apiPath := cli.basePath + path
	if len(query) > 0 {
		apiPath += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, apiPath, body)
	if err != nil {
		return nil, err
	}
	req.URL.Scheme = cli.scheme
	req.URL.Host = cli.addr
	req.Host = cli.addr

	for k, v := range cli.customHTTPHeaders {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header[http.CanonicalHeaderKey(k)] = v
	}
	if cli.userAgent != nil {
		if *cli.userAgent == "" {
			req.Header.Del("User-Agent")
		} else {
			req.Header.Set("User-Agent", *cli.userAgent)
		}
	}
	if cli.token != "" {
		req.Header.Set("Authorization", "Bearer "+cli.token)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (cli *Client) sendRequest(ctx context.Context, method, path string, query url.Values, body io.Reader, headers http.Header) (*http.Response, error) {
	req, err := cli.buildRequest(ctx, method, path, query, body, headers)
	if err != nil {
		return nil, err
	}

	logging.Debug("api request", "method", method, "path", path)
	resp, err := cli.doRequest(req)
	if err != nil {
		return resp, err
	}

	return resp, checkResponseErr(resp)
}

// doRequest wraps http.Client.Do, decorating connection failures. A non-2xx
// status is not an error here.
func (cli *Client) doRequest(req *http.Request) (*http.Response, error) {
	resp, err := cli.client.Do(req)
	if err == nil {
		return resp, nil
	}

	// Context sentinels are returned as-is so callers can compare them.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}
	return nil, errConnectionFailed{fmt.Errorf("error during connect to %s: %w", cli.host, err)}
}

// checkResponseErr turns a non-2xx response into a RemoteServiceError.
func checkResponseErr(resp *http.Response) error {
	if resp == nil {
		return nil
	}
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}

	rerr := &stackerr.RemoteServiceError{StatusCode: resp.StatusCode}
	if resp.Request != nil {
		rerr.Method = resp.Request.Method
		rerr.Path = resp.Request.URL.Path
	}

	if resp.Body == nil {
		return rerr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read error response: %w", err)
	}

	var errResp errorResponse
	if json.Unmarshal(body, &errResp) == nil && (errResp.ErrorCode != "" || errResp.Message != "") {
		rerr.ErrorCode = errResp.ErrorCode
		rerr.Message = strings.TrimSpace(errResp.Message)
	} else {
		// Proxies may answer with plain text or HTML.
		rerr.Message = strings.TrimSpace(string(body))
	}
	return rerr
}

// decodeJSON reads a JSON response body. Numbers are kept as json.Number so
// job ids and timestamps survive a trip through the status document.
func decodeJSON(resp *http.Response, v any) error {
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("failed to decode response from %s: %w", resp.Request.URL.Path, err)
	}
	return nil
}

func jsonEncode(data any) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		return nil, err
	}
	return &buf, nil
}

func ensureReaderClosed(resp *http.Response) {
	if resp != nil && resp.Body != nil {
		// Drain so the transport can reuse the connection.
		_, _ = io.CopyN(io.Discard, resp.Body, 512)
		_ = resp.Body.Close()
	}
}
