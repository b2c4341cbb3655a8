// Package cloudclient implements the authenticated client for the Vagrant
// Cloud account API.
//
// The client re-resolves the access token on every call and classifies
// transport and protocol failures into a small error taxonomy (see errors.go)
// at the network-call boundary. It never retries and never persists tokens on
// its own; storing a token obtained from Login is an explicit caller action
// via the token source.
package cloudclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/calebmarchent/vagrant/internal/tokensource"
)

const (
	// DefaultBaseURL is the production Vagrant Cloud address.
	DefaultBaseURL = "https://vagrantcloud.com"

	// authenticatePath serves both the login handshake (POST) and the token
	// verification check (GET).
	authenticatePath = "/api/v1/authenticate"

	userAgent = "Vagrant/2.4.0 (+https://www.vagrantup.com)"
)

// proxyEnvVars are checked in order; the first present value configures the
// outbound proxy.
var proxyEnvVars = []string{"HTTPS_PROXY", "https_proxy", "HTTP_PROXY", "http_proxy"}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the server address. If not provided, DefaultBaseURL is used.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client. If not provided, a client with
// environment-based proxy selection is used.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLookupEnv sets a custom environment lookup for proxy discovery.
// If not provided, os.LookupEnv is used.
func WithLookupEnv(lookup tokensource.LookupEnvFunc) Option {
	return func(c *Client) {
		c.lookupEnv = lookup
	}
}

// WithLogger sets the logger for request traces. If not provided,
// slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.log = logger
	}
}

// Client talks to the Vagrant Cloud account API. It is stateless across
// calls: every operation re-resolves the access token through the source.
type Client struct {
	baseURL    string
	source     *tokensource.Source
	httpClient *http.Client
	lookupEnv  tokensource.LookupEnvFunc
	log        *slog.Logger
}

// New creates a Client backed by the given token source.
func New(source *tokensource.Source, opts ...Option) (*Client, error) {
	if source == nil {
		return nil, fmt.Errorf("missing token source")
	}

	c := &Client{
		baseURL:   DefaultBaseURL,
		source:    source,
		lookupEnv: os.LookupEnv,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Transport: &http.Transport{Proxy: c.proxyFromEnv},
		}
	}

	return c, nil
}

// IsAuthenticated reports whether the current token is accepted by the
// server. An absent token returns false without a network call; a rejected
// token (HTTP 401) returns false. Any other failure is returned to the
// caller rather than folded into false.
func (c *Client) IsAuthenticated(ctx context.Context) (bool, error) {
	token, err := c.source.Resolve(ctx)
	if err != nil {
		return false, err
	}
	if token == "" {
		return false, nil
	}

	checkURL := c.baseURL + authenticatePath + "?access_token=" + url.QueryEscape(token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, checkURL, nil)
	if err != nil {
		return false, err
	}

	status, body, err := c.do(req)
	if err != nil {
		return false, c.classifyTransport(err)
	}

	if is2xx(status) {
		return true, nil
	}

	err = classifyStatus(status, body)
	if errors.Is(err, ErrUnauthenticated) {
		return false, nil
	}
	return false, err
}

// loginRequest is the wire format of the login handshake.
type loginRequest struct {
	User struct {
		Login    string `json:"login"`
		Password string `json:"password"`
	} `json:"user"`
	Token struct {
		Description *string `json:"description"`
	} `json:"token"`
}

// Login performs the login handshake and returns the token granted by the
// server. A nominally successful response may carry a null token; it is
// returned as the empty string with a nil error and interpreted by the
// caller. The returned token is not persisted.
func (c *Client) Login(ctx context.Context, login, password, description string) (string, error) {
	var payload loginRequest
	payload.User.Login = login
	payload.User.Password = password
	if description != "" {
		payload.Token.Description = &description
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+authenticatePath, bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	status, respBody, err := c.do(req)
	if err != nil {
		return "", c.classifyTransport(err)
	}

	if !is2xx(status) {
		return "", classifyStatus(status, respBody)
	}

	var granted struct {
		Token *string `json:"token"`
	}
	if err := json.Unmarshal(respBody, &granted); err != nil {
		return "", fmt.Errorf("decoding login response: %w", err)
	}
	if granted.Token == nil {
		return "", nil
	}
	return *granted.Token, nil
}

// do sends the request with the fixed client headers and returns the status
// and the fully-read body. Transport-level failures are returned unclassified.
func (c *Client) do(req *http.Request) (int, []byte, error) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	requestID := uuid.NewString()
	req.Header.Set("X-Request-Id", requestID)

	c.log.DebugContext(req.Context(), "calling Vagrant Cloud",
		"method", req.Method, "url", req.URL.String(), "request_id", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}

	return resp.StatusCode, body, nil
}

// proxyFromEnv selects the outbound proxy from the environment, checking
// HTTPS variants before HTTP, upper case before lower.
func (c *Client) proxyFromEnv(*http.Request) (*url.URL, error) {
	for _, key := range proxyEnvVars {
		value, ok := c.lookupEnv(key)
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		proxyURL, err := url.Parse(value)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy address in %s: %w", key, err)
		}
		return proxyURL, nil
	}
	return nil, nil
}

// classifyTransport maps connection-level failures (DNS, socket) to
// ServerUnreachableError carrying the configured server address. Other
// transport errors (e.g. context cancellation) propagate unclassified.
func (c *Client) classifyTransport(err error) error {
	var dnsErr *net.DNSError
	var opErr *net.OpError
	if errors.As(err, &dnsErr) || errors.As(err, &opErr) {
		return &ServerUnreachableError{Address: c.baseURL}
	}
	return err
}

// classifyStatus maps a non-2xx response to the error taxonomy. Statuses
// other than 401 and 406 propagate as plain errors; only those two carry
// meaning in the account API's protocol.
func classifyStatus(status int, body []byte) error {
	switch status {
	case http.StatusUnauthorized:
		return ErrUnauthenticated
	case http.StatusNotAcceptable:
		var rejected struct {
			Errors []string `json:"errors"`
		}
		if err := json.Unmarshal(body, &rejected); err != nil {
			return &UnexpectedFailureError{Detail: strings.TrimSpace(string(body))}
		}
		return &ServerRejectedError{Messages: rejected.Errors}
	default:
		return fmt.Errorf("unexpected response from Vagrant Cloud: %d %s", status, http.StatusText(status))
	}
}

func is2xx(status int) bool {
	return status >= 200 && status < 300
}
