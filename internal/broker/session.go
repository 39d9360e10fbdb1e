package broker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/pquerna/otp/totp"
)

// Login generates a fresh TOTP code and exchanges credentials for a
// session token. No-op when no client code is configured (open backend).
func (c *Client) Login(ctx context.Context) error {
	if c.cfg.ClientCode == "" {
		return nil
	}

	code, err := totp.GenerateCode(c.cfg.TOTPSecret, time.Now())
	if err != nil {
		return fmt.Errorf("broker: generate totp: %w", err)
	}

	body := map[string]string{
		"client_code": c.cfg.ClientCode,
		"password":    c.cfg.Password,
		"totp":        code,
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.post(ctx, "session.login", body, &resp); err != nil {
		return fmt.Errorf("broker: login: %w", err)
	}
	if resp.Token == "" {
		return fmt.Errorf("broker: login: empty token in response")
	}

	c.mu.Lock()
	c.accessToken = resp.Token
	c.mu.Unlock()

	log.Printf("[broker] session established for %s", c.cfg.ClientCode)
	return nil
}

func (c *Client) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}
