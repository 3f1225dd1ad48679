package sinum

import (
	"context"
	"time"
)

// session holds the bearer credential for the controller. A zero expiry
// means the controller did not disclose one; the token is then trusted until
// it is rejected.
type session struct {
	token  string
	expiry time.Time
}

func (s session) valid(now time.Time) bool {
	return s.token != "" && (s.expiry.IsZero() || now.Before(s.expiry))
}

// ensureSession guarantees a usable session, authenticating if the current
// one is absent or past its expiry.
func (c *Client) ensureSession(ctx context.Context) error {
	c.lock.RLock()
	ok := c.session.valid(time.Now())
	c.lock.RUnlock()
	if ok {
		return nil
	}
	return c.Authenticate(ctx)
}

func (c *Client) token() string {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.session.token
}

func (c *Client) setSession(s session) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.session = s
}

func (c *Client) clearSession() {
	c.setSession(session{})
}
