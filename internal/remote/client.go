package remote

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/containerd/errdefs"

	"github.com/picklr-io/stackctl/internal/version"
)

const (
	// EnvOverrideHost is the name of the environment variable holding the
	// workspace URL, e.g. "https://example.cloud.databricks.com".
	EnvOverrideHost = "STACKCTL_HOST"

	// EnvOverrideToken is the name of the environment variable holding the
	// personal access token sent as a bearer credential.
	EnvOverrideToken = "STACKCTL_TOKEN"

	defaultTimeout = 60 * time.Second
)

// Client talks to the platform REST API. It implements the job and
// workspace services the deployers consume.
type Client struct {
	scheme   string
	addr     string
	basePath string
	host     string

	token     string
	userAgent *string
	client    *http.Client

	customHTTPHeaders map[string]string
}

// Opt configures a Client.
type Opt func(*Client) error

// NewClientWithOpts initializes a new API client. A host must be supplied
// through WithHost or FromEnv.
func NewClientWithOpts(ops ...Opt) (*Client, error) {
	c := &Client{
		client:            &http.Client{Timeout: defaultTimeout},
		customHTTPHeaders: map[string]string{},
	}

	for _, op := range ops {
		if err := op(c); err != nil {
			return nil, err
		}
	}

	if c.addr == "" {
		return nil, errdefs.ErrInvalidArgument.WithMessage(fmt.Sprintf("no API host configured, use --host or %s", EnvOverrideHost))
	}
	if c.userAgent == nil {
		ua := "stackctl/" + version.Version
		c.userAgent = &ua
	}

	return c, nil
}

// WithHost overrides the API host, including any base path.
func WithHost(host string) Opt {
	return func(c *Client) error {
		u, err := parseHostURL(host)
		if err != nil {
			return err
		}
		c.host = host
		c.scheme = u.Scheme
		c.addr = u.Host
		c.basePath = strings.TrimRight(u.Path, "/")
		return nil
	}
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Opt {
	return func(c *Client) error {
		c.token = token
		return nil
	}
}

// WithHTTPClient overrides the http client used to send requests.
func WithHTTPClient(client *http.Client) Opt {
	return func(c *Client) error {
		if client != nil {
			c.client = client
		}
		return nil
	}
}

// WithUserAgent sets the User-Agent header. An empty value removes it.
func WithUserAgent(ua string) Opt {
	return func(c *Client) error {
		c.userAgent = &ua
		return nil
	}
}

// WithHTTPHeaders adds headers sent with every request.
func WithHTTPHeaders(headers map[string]string) Opt {
	return func(c *Client) error {
		for k, v := range headers {
			c.customHTTPHeaders[k] = v
		}
		return nil
	}
}

// FromEnv configures the client from STACKCTL_HOST and STACKCTL_TOKEN.
// Unset variables leave the current value alone.
func FromEnv(c *Client) error {
	if host := os.Getenv(EnvOverrideHost); host != "" {
		if err := WithHost(host)(c); err != nil {
			return err
		}
	}
	if token := os.Getenv(EnvOverrideToken); token != "" {
		c.token = token
	}
	return nil
}

// Host returns the host the client was configured with.
func (cli *Client) Host() string {
	return cli.host
}

func parseHostURL(host string) (*url.URL, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return nil, errdefs.ErrInvalidArgument.WithMessage("host is empty")
	}
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}

	u, err := url.Parse(host)
	if err != nil {
		return nil, errdefs.ErrInvalidArgument.WithMessage(fmt.Sprintf("unable to parse host %q: %v", host, err))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errdefs.ErrInvalidArgument.WithMessage(fmt.Sprintf("unsupported protocol scheme %q", u.Scheme))
	}
	if u.Host == "" {
		return nil, errdefs.ErrInvalidArgument.WithMessage(fmt.Sprintf("host %q has no address", host))
	}
	return u, nil
}
