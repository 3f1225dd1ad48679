// Package sinum provides an API client for the Sinum home-automation
// controller.
//
// The controller's HTTP API differs between firmware revisions: login and
// room-listing endpoints live at different paths, responses come in several
// envelope formats and the Authorization header may need the token bare or
// Bearer-prefixed. The client probes a fixed list of endpoint candidates,
// tries the known envelope shapes in priority order and tracks the session
// token's expiry so it re-authenticates before the controller rejects it.
//
// Using this package typically involves creating a Client and polling
// GetRooms:
//
//	c := sinum.New(sinum.Config{
//	    Host:     "http://sinum.local",
//	    Username: "your-username",
//	    Password: "your-password",
//	}, nil, slog.Default())
//	defer c.Shutdown()
//	rooms, err := c.GetRooms(ctx)
package sinum

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

var (
	// ErrInvalidAuth indicates the controller rejected the configured
	// credentials, or that no login candidate produced a usable token.
	ErrInvalidAuth = errors.New("invalid credentials")
	// ErrCannotConnect indicates the controller could not be reached on any
	// endpoint candidate.
	ErrCannotConnect = errors.New("cannot connect to controller")

	// errUnauthorized is returned by doGet when the controller rejects the
	// session token. Never escapes the client: call() converts it to
	// ErrInvalidAuth after the re-authentication retry.
	errUnauthorized = errors.New("unauthorized")
	// errNotFound signals an endpoint-shape mismatch during probing.
	errNotFound = errors.New("not found")
)

// AuthScheme selects how the session token is sent in the Authorization
// header. Deployed controllers differ: recent firmware wants "Bearer <token>",
// older revisions the bare token.
type AuthScheme string

const (
	AuthSchemeBearer AuthScheme = "bearer"
	AuthSchemeRaw    AuthScheme = "raw"
)

func (s AuthScheme) header(token string) string {
	if s == AuthSchemeRaw {
		return token
	}
	return "Bearer " + token
}

// Config holds the connection parameters for one controller instance.
type Config struct {
	// Host is the base address of the controller, e.g. "http://sinum.local".
	Host string
	// Username and Password are passed to the controller as-is.
	Username string
	Password string
	// AuthScheme defaults to AuthSchemeBearer.
	AuthScheme AuthScheme
	// Timeout bounds every request. Defaults to 10 seconds.
	Timeout time.Duration
}

const defaultTimeout = 10 * time.Second

// Client is an API client for one Sinum controller. It maintains a single
// session (token and expiry) and one connection pool for its lifetime.
// Safe for concurrent use.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger

	auth    singleflight.Group
	lock    sync.RWMutex
	session session
}

// New returns a Client for the controller at cfg.Host. If httpClient is nil,
// a default client with cfg.Timeout is used.
func New(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	cfg.Host = strings.TrimSuffix(cfg.Host, "/")
	if cfg.AuthScheme == "" {
		cfg.AuthScheme = AuthSchemeBearer
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Shutdown releases the client's connection pool. The client must not be
// used afterwards.
func (c *Client) Shutdown() {
	c.httpClient.CloseIdleConnections()
}

// call performs an authenticated GET and returns the raw response body. An
// unauthorized response clears the session, re-authenticates and retries the
// request exactly once; a second rejection is a hard ErrInvalidAuth.
func (c *Client) call(ctx context.Context, path string) ([]byte, error) {
	if err := c.ensureSession(ctx); err != nil {
		return nil, err
	}

	body, err := c.doGet(ctx, path)
	if !errors.Is(err, errUnauthorized) {
		return body, err
	}

	c.clearSession()
	if err = c.Authenticate(ctx); err != nil {
		return nil, err
	}
	if body, err = c.doGet(ctx, path); errors.Is(err, errUnauthorized) {
		c.clearSession()
		return nil, fmt.Errorf("%w: session rejected after re-authentication", ErrInvalidAuth)
	}
	return body, err
}

func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Host+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.cfg.AuthScheme.header(c.token()))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCannotConnect, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCannotConnect, err)
		}
		return body, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, errUnauthorized
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", errNotFound, path)
	default:
		return nil, fmt.Errorf("sinum: %s: %s", path, resp.Status)
	}
}

func (c *Client) postJSON(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Host+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.httpClient.Do(req)
}
