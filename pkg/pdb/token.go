package pdb

import (
	"context"
	"fmt"
	"time"

	"github.com/rakuworks/pdbot/pkg/logger"
)

// expiryBuffer is the look-ahead window: a token due to expire within it is
// refreshed before use.
const expiryBuffer = time.Hour

// nowMillis is swapped in tests.
var nowMillis = func() int64 { return time.Now().UnixMilli() }

// TokenExpired reports whether the access token is inside the expiry buffer.
// An unset expiry is treated as not expired.
func (c *Client) TokenExpired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return tokenExpired(c.tokens)
}

func tokenExpired(t Tokens) bool {
	if t.ExpireAt == 0 {
		return false
	}
	return nowMillis() >= t.ExpireAt-expiryBuffer.Milliseconds()
}

// ensureValidToken refreshes the access token when it is near expiry.
// The refresh is single-flight: a second caller arriving while a refresh is
// in progress waits and then sees the fresh token instead of spending the
// refresh token twice.
func (c *Client) ensureValidToken(ctx context.Context) error {
	c.mu.Lock()
	needs := tokenExpired(c.tokens) && c.tokens.RefreshToken != ""
	c.mu.Unlock()
	if !needs {
		return nil
	}

	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	// Re-check under the guard: an interleaved call may have refreshed.
	c.mu.Lock()
	needs = tokenExpired(c.tokens) && c.tokens.RefreshToken != ""
	c.mu.Unlock()
	if !needs {
		return nil
	}

	logger.InfoC("pdb", "Access token near expiry, refreshing")
	if _, err := c.refreshLocked(ctx); err != nil {
		return err
	}
	return nil
}

// Refresh exchanges the refresh token for a new token pair, persists it, and
// notifies refresh listeners.
func (c *Client) Refresh(ctx context.Context) (Tokens, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	return c.refreshLocked(ctx)
}

func (c *Client) refreshLocked(ctx context.Context) (Tokens, error) {
	c.mu.Lock()
	refreshToken := c.tokens.RefreshToken
	c.mu.Unlock()
	if refreshToken == "" {
		return Tokens{}, ErrNoRefreshToken
	}

	resp, err := c.http.R().SetContext(ctx).
		SetHeader("Authorization", "Bearer "+refreshToken).
		Post("token/refresh")
	if err != nil {
		return Tokens{}, fmt.Errorf("%w: %v", ErrTokenRefresh, err)
	}

	var fresh Tokens
	if err := decodeData(resp, &fresh); err != nil {
		return Tokens{}, fmt.Errorf("%w: %v", ErrTokenRefresh, err)
	}

	c.mu.Lock()
	c.tokens = fresh
	persist := c.persist
	c.mu.Unlock()

	if persist != nil {
		if err := persist(fresh); err != nil {
			logger.ErrorCF("pdb", "Failed to persist refreshed tokens", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	logger.InfoC("pdb", "Token refreshed")
	c.notifyRefresh(fresh)
	return fresh, nil
}
