package sinum

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// loginPaths are the login endpoint candidates, in preference order. The
// path moved between firmware revisions; the first candidate that answers
// wins.
var loginPaths = []string{
	"/api/v1/auth/login",
	"/api/auth/login",
	"/login",
}

const (
	// defaultSessionLifetime is assumed when neither the token nor the login
	// response discloses an expiry.
	defaultSessionLifetime = 30 * time.Minute
	// expiryGuardWindow is subtracted from every computed expiry so the
	// session is refreshed before the controller rejects it.
	expiryGuardWindow = 5 * time.Minute
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse covers the known login envelope shapes: token and expiry
// either nested under "data" or at the top level, under several field names.
type loginResponse struct {
	Data        loginData `json:"data"`
	Token       string    `json:"token"`
	AccessToken string    `json:"access_token"`
	SessionID   string    `json:"session_id"`
	ExpiresIn   int64     `json:"expires_in"`
	ExpiresAt   int64     `json:"expires_at"`
}

type loginData struct {
	Token       string `json:"token"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	ExpiresAt   int64  `json:"expires_at"`
}

// tokenExtractors are tried in order; the first non-empty match wins.
var tokenExtractors = []func(loginResponse) string{
	func(r loginResponse) string { return r.Data.Token },
	func(r loginResponse) string { return r.Data.AccessToken },
	func(r loginResponse) string { return r.Token },
	func(r loginResponse) string { return r.AccessToken },
	func(r loginResponse) string { return r.SessionID },
}

func (r loginResponse) extractToken() string {
	for _, extract := range tokenExtractors {
		if token := extract(r); token != "" {
			return token
		}
	}
	return ""
}

func (r loginResponse) expiresIn() int64 {
	if r.Data.ExpiresIn > 0 {
		return r.Data.ExpiresIn
	}
	return r.ExpiresIn
}

func (r loginResponse) expiresAt() int64 {
	if r.Data.ExpiresAt > 0 {
		return r.Data.ExpiresAt
	}
	return r.ExpiresAt
}

// Authenticate logs in to the controller and stores the session token.
// Concurrent callers coalesce onto a single login attempt: duplicate logins
// are wasteful and may invalidate each other's sessions depending on the
// controller's session semantics.
func (c *Client) Authenticate(ctx context.Context) error {
	_, err, _ := c.auth.Do("login", func() (any, error) {
		return nil, c.login(ctx)
	})
	return err
}

// login probes the login candidates in order. A 404 or a transport error
// advances the probe; a credentials rejection is conclusive and fails
// immediately. A 2xx response without a recognizable token field counts as a
// tentative failure: the request reached a server, but not the expected one.
func (c *Client) login(ctx context.Context) error {
	body, err := json.Marshal(credentials{Username: c.cfg.Username, Password: c.cfg.Password})
	if err != nil {
		return err
	}

	var (
		lastErr   error
		sawServer bool
	)
	for _, path := range loginPaths {
		resp, err := c.postJSON(ctx, path, body)
		if err != nil {
			c.logger.Debug("login candidate unreachable", slog.String("path", path), slog.Any("err", err))
			lastErr = err
			continue
		}

		s, err := c.handleLoginResponse(resp)
		if err != nil {
			if errors.Is(err, ErrInvalidAuth) {
				return err
			}
			if !errors.Is(err, errNotFound) {
				sawServer = true
			}
			c.logger.Debug("login candidate failed", slog.String("path", path), slog.Any("err", err))
			lastErr = err
			continue
		}

		c.setSession(s)
		c.logger.Debug("authenticated", slog.String("path", path), slog.Time("expiry", s.expiry))
		return nil
	}

	if sawServer {
		return fmt.Errorf("%w: no login endpoint produced a token", ErrInvalidAuth)
	}
	return fmt.Errorf("%w: %w", ErrCannotConnect, lastErr)
}

func (c *Client) handleLoginResponse(resp *http.Response) (session, error) {
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return session{}, fmt.Errorf("%w: login rejected (%s)", ErrInvalidAuth, resp.Status)
	case resp.StatusCode == http.StatusNotFound:
		return session{}, errNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return session{}, errors.New("login failed: " + resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return session{}, err
	}
	var r loginResponse
	if err = json.Unmarshal(body, &r); err != nil {
		return session{}, fmt.Errorf("login response: %w", err)
	}
	token := r.extractToken()
	if token == "" {
		return session{}, errors.New("login response contains no token")
	}
	return session{token: token, expiry: sessionExpiry(token, r, time.Now())}, nil
}

// sessionExpiry determines when the session should be refreshed: the exp
// claim embedded in the token if it parses as a JWT, otherwise the expiry
// fields of the login response, otherwise a fixed lifetime. The guard window
// is always subtracted so refresh happens slightly early.
func sessionExpiry(token string, r loginResponse, now time.Time) time.Time {
	expiry := now.Add(defaultSessionLifetime)
	if exp, ok := tokenClaimExpiry(token); ok {
		expiry = exp
	} else if at := r.expiresAt(); at > 0 {
		expiry = time.Unix(at, 0)
	} else if in := r.expiresIn(); in > 0 {
		expiry = now.Add(time.Duration(in) * time.Second)
	}
	return expiry.Add(-expiryGuardWindow)
}

func tokenClaimExpiry(token string) (time.Time, bool) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
