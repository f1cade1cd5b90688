package pdb

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rakuworks/pdbot/pkg/config"
)

const testNowMillis = int64(1_000_000_000)

func fixedNow(t *testing.T) {
	t.Helper()
	orig := nowMillis
	nowMillis = func() int64 { return testNowMillis }
	t.Cleanup(func() { nowMillis = orig })
}

func newTestClient(serverURL string) *Client {
	cfg := config.DefaultConfig().PDB
	cfg.BaseURL = serverURL
	return NewClient(cfg)
}

func freshExpiry() int64 {
	return testNowMillis + 2*time.Hour.Milliseconds()
}

func expiredTokens() Tokens {
	return Tokens{
		AccessToken:  "old-access",
		RefreshToken: "old-refresh",
		ExpireAt:     testNowMillis, // inside the 1h buffer
	}
}

func refreshHandler(t *testing.T, calls *int32) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token/refresh" {
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer old-refresh" {
			t.Errorf("refresh must use the refresh token, got %q", got)
		}
		atomic.AddInt32(calls, 1)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": Tokens{
				AccessToken:  "new-access",
				RefreshToken: "new-refresh",
				ExpireAt:     freshExpiry(),
			},
		})
	}
}

// TestTokenExpired_Buffer verifies the 1-hour look-ahead window
func TestTokenExpired_Buffer(t *testing.T) {
	fixedNow(t)

	cases := []struct {
		label    string
		expireAt int64
		want     bool
	}{
		{"unset expiry", 0, false},
		{"far future", testNowMillis + 2*time.Hour.Milliseconds(), false},
		{"inside buffer", testNowMillis + 30*time.Minute.Milliseconds(), true},
		{"already past", testNowMillis - 1000, true},
		{"exactly at buffer edge", testNowMillis + time.Hour.Milliseconds(), true},
	}

	for _, tc := range cases {
		if got := tokenExpired(Tokens{ExpireAt: tc.expireAt}); got != tc.want {
			t.Errorf("%s: tokenExpired = %v, want %v", tc.label, got, tc.want)
		}
	}
}

// TestRefresh_SwapsTokensAndNotifies verifies the success path end to end
func TestRefresh_SwapsTokensAndNotifies(t *testing.T) {
	fixedNow(t)
	var calls int32
	server := httptest.NewServer(refreshHandler(t, &calls))
	defer server.Close()

	c := newTestClient(server.URL)
	c.SetTokens(expiredTokens())

	var persisted Tokens
	c.SetPersistFunc(func(tok Tokens) error {
		persisted = tok
		return nil
	})
	var notified Tokens
	c.OnTokenRefresh(func(tok Tokens) error {
		notified = tok
		return nil
	})

	fresh, err := c.Refresh(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if fresh.AccessToken != "new-access" || fresh.RefreshToken != "new-refresh" {
		t.Errorf("unexpected tokens: %+v", fresh)
	}
	if got := c.TokenSnapshot(); got != fresh {
		t.Errorf("snapshot should match refreshed tokens, got %+v", got)
	}
	if persisted != fresh {
		t.Errorf("persist hook should see the fresh tokens, got %+v", persisted)
	}
	if notified != fresh {
		t.Errorf("refresh listener should see the fresh tokens, got %+v", notified)
	}
}

// TestRefresh_FailureReturnsSentinel verifies error taxonomy on rejection
func TestRefresh_FailureReturnsSentinel(t *testing.T) {
	fixedNow(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"code": "E401000", "message": "refresh token revoked"},
		})
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	c.SetTokens(expiredTokens())

	_, err := c.Refresh(context.Background())
	if !errors.Is(err, ErrTokenRefresh) {
		t.Errorf("expected ErrTokenRefresh, got %v", err)
	}
}

// TestRefresh_NoRefreshToken verifies the invalid state short-circuits
func TestRefresh_NoRefreshToken(t *testing.T) {
	c := newTestClient("http://127.0.0.1:0")

	_, err := c.Refresh(context.Background())
	if !errors.Is(err, ErrNoRefreshToken) {
		t.Errorf("expected ErrNoRefreshToken, got %v", err)
	}
}

// TestEnsureValidToken_SingleFlight verifies concurrent checks refresh once
func TestEnsureValidToken_SingleFlight(t *testing.T) {
	fixedNow(t)
	var calls int32
	base := refreshHandler(t, &calls)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond) // hold the door open for the second caller
		base(w, r)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	c.SetTokens(expiredTokens())

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.ensureValidToken(context.Background()); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected exactly 1 refresh call, got %d", got)
	}
}

// TestEnsureValidToken_FreshTokenSkipsRefresh verifies no needless refresh
func TestEnsureValidToken_FreshTokenSkipsRefresh(t *testing.T) {
	fixedNow(t)
	var calls int32
	server := httptest.NewServer(refreshHandler(t, &calls))
	defer server.Close()

	c := newTestClient(server.URL)
	c.SetTokens(Tokens{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpireAt:     freshExpiry(),
	})

	if err := c.ensureValidToken(context.Background()); err != nil {
		t.Fatal(err)
	}
	if calls != 0 {
		t.Errorf("fresh token should not trigger a refresh, got %d calls", calls)
	}
}

// TestRefresh_ListenerFailureDoesNotAbort verifies listener isolation
func TestRefresh_ListenerFailureDoesNotAbort(t *testing.T) {
	fixedNow(t)
	var calls int32
	server := httptest.NewServer(refreshHandler(t, &calls))
	defer server.Close()

	c := newTestClient(server.URL)
	c.SetTokens(expiredTokens())
	c.OnTokenRefresh(func(Tokens) error { return errors.New("reconnect blew up") })

	if _, err := c.Refresh(context.Background()); err != nil {
		t.Errorf("listener failure must not fail the refresh: %v", err)
	}
	if got := c.TokenSnapshot().AccessToken; got != "new-access" {
		t.Errorf("tokens should still be swapped, got %q", got)
	}
}
