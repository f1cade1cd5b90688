package pdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/rakuworks/pdbot/pkg/config"
	"github.com/rakuworks/pdbot/pkg/logger"
)

// retryStatusCodes are the transient statuses worth a retry. Everything else
// fails fast.
var retryStatusCodes = map[int]bool{
	408: true, 413: true, 429: true,
	500: true, 502: true, 503: true, 504: true,
	521: true, 522: true, 524: true,
}

// RefreshListener is invoked after every successful token refresh, e.g. to
// re-establish the realtime session with fresh credentials.
type RefreshListener func(Tokens) error

// Client talks to the identity/API provider. All authenticated calls go
// through ensureValidToken, which refreshes the access token before it
// enters the 1-hour expiry window.
type Client struct {
	http *resty.Client
	cfg  config.PDBConfig

	mu        sync.Mutex // guards tokens and listeners
	refreshMu sync.Mutex // single-flight guard for refresh
	tokens    Tokens
	listeners []RefreshListener

	// persist is called with the new tokens after a successful refresh so
	// disk stays in sync with memory.
	persist func(Tokens) error
}

func NewClient(cfg config.PDBConfig) *Client {
	httpc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true // transport-level error, worth retrying
			}
			return retryStatusCodes[r.StatusCode()]
		}).
		SetHeader("X-Device", cfg.DeviceToken).
		SetHeader("X-Region", cfg.Region).
		SetHeader("X-Locale", cfg.Locale).
		SetHeader("X-Locale-Settings", cfg.Locale).
		SetHeader("X-TZ-Database-Name", cfg.Timezone).
		SetHeader("Accept", "*/*").
		SetHeader("Accept-Language", fmt.Sprintf("%s-%s,%s;q=0.9", cfg.Locale, cfg.Region, cfg.Locale)).
		SetHeader("User-Agent", "PDB/2625 CFNetwork/3860.200.71 Darwin/25.1.0").
		SetHeader("Content-Type", "application/json")

	return &Client{
		http: httpc,
		cfg:  cfg,
	}
}

// SetTokens restores a saved credential set, e.g. at startup.
func (c *Client) SetTokens(t Tokens) {
	c.mu.Lock()
	c.tokens = t
	c.mu.Unlock()
}

// TokenSnapshot returns a copy of the current tokens.
func (c *Client) TokenSnapshot() Tokens {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens
}

// SetPersistFunc registers the hook that writes refreshed tokens to durable
// storage.
func (c *Client) SetPersistFunc(fn func(Tokens) error) {
	c.mu.Lock()
	c.persist = fn
	c.mu.Unlock()
}

// OnTokenRefresh registers a listener called after every successful refresh.
func (c *Client) OnTokenRefresh(fn RefreshListener) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// envelope is the provider's {"data": ...} response wrapper.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

type apiErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeError(resp *resty.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode()}
	var body apiErrorBody
	if err := json.Unmarshal(resp.Body(), &body); err == nil {
		apiErr.Code = body.Code
		apiErr.Message = body.Message
		if apiErr.Code == "" {
			apiErr.Code = body.Error.Code
		}
		if apiErr.Message == "" {
			apiErr.Message = body.Error.Message
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode())
	}
	return apiErr
}

func decodeData(resp *resty.Response, out any) error {
	if resp.IsError() {
		return decodeError(resp)
	}
	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return fmt.Errorf("pdb: decode response: %w", err)
	}
	if env.Data == nil {
		return fmt.Errorf("pdb: invalid response: missing data field")
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("pdb: decode data: %w", err)
	}
	return nil
}

// request builds a request with the current access token attached.
func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.http.R().SetContext(ctx)
	c.mu.Lock()
	if c.tokens.AccessToken != "" {
		req.SetHeader("Authorization", "Bearer "+c.tokens.AccessToken)
	}
	c.mu.Unlock()
	return req
}

// SendDigits requests an OTP email for login or signup. Unauthenticated.
func (c *Client) SendDigits(ctx context.Context, email string) (*OTPResult, error) {
	resp, err := c.http.R().SetContext(ctx).
		SetBody(map[string]string{"email": email}).
		Post("oauth/email/send_digits")
	if err != nil {
		return nil, fmt.Errorf("pdb: send digits: %w", err)
	}
	var out OTPResult
	if err := decodeData(resp, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	return &out, nil
}

// Login exchanges an email and OTP code for tokens. Unauthenticated.
func (c *Client) Login(ctx context.Context, email, code, device string) (*LoginResult, error) {
	if device == "" {
		device = "android"
	}
	resp, err := c.http.R().SetContext(ctx).
		SetBody(map[string]string{"email": email, "code": code, "device": device}).
		Post("oauth/email/login")
	if err != nil {
		return nil, fmt.Errorf("pdb: login: %w", err)
	}
	var out LoginResult
	if err := decodeData(resp, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	if out.AccessToken != "" {
		c.mu.Lock()
		c.tokens = out.Tokens
		c.mu.Unlock()
	}
	return &out, nil
}

// CurrentUserInfo fetches the bot's chat identity and Stream credentials.
func (c *Client) CurrentUserInfo(ctx context.Context) (*UserInfo, error) {
	if err := c.ensureValidToken(ctx); err != nil {
		return nil, err
	}
	resp, err := c.request(ctx).Get("chats/currentUserInfo")
	if err != nil {
		return nil, fmt.Errorf("pdb: current user info: %w", err)
	}
	var out UserInfo
	if err := decodeData(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// WebSocketToken fetches realtime endpoint credentials.
func (c *Client) WebSocketToken(ctx context.Context) (*WSToken, error) {
	if err := c.ensureValidToken(ctx); err != nil {
		return nil, err
	}
	resp, err := c.request(ctx).Get("ws/token")
	if err != nil {
		return nil, fmt.Errorf("pdb: ws token: %w", err)
	}
	var out WSToken
	if err := decodeData(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateChat opens a direct chat with the target user.
func (c *Client) CreateChat(ctx context.Context, targetUserID int64) (*ChatInfo, error) {
	if err := c.ensureValidToken(ctx); err != nil {
		return nil, err
	}
	resp, err := c.request(ctx).
		SetBody(map[string]string{"targetUserID": fmt.Sprint(targetUserID)}).
		Post("chats/create")
	if err != nil {
		return nil, fmt.Errorf("pdb: create chat: %w", err)
	}
	var out ChatInfo
	if err := decodeData(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChatInfo looks up an existing direct chat with the target user.
func (c *Client) ChatInfo(ctx context.Context, targetUserID int64) (*ChatInfo, error) {
	if err := c.ensureValidToken(ctx); err != nil {
		return nil, err
	}
	resp, err := c.request(ctx).
		SetQueryParam("targetUserID", fmt.Sprint(targetUserID)).
		Get("chats/info")
	if err != nil {
		return nil, fmt.Errorf("pdb: chat info: %w", err)
	}
	var out ChatInfo
	if err := decodeData(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteGroupMessage removes a message from a group chat.
func (c *Client) DeleteGroupMessage(ctx context.Context, groupChatID, messageID string) error {
	if err := c.ensureValidToken(ctx); err != nil {
		return err
	}
	resp, err := c.request(ctx).
		SetQueryParam("messageID", messageID).
		Delete(fmt.Sprintf("group_chats/%s/message", groupChatID))
	if err != nil {
		return fmt.Errorf("pdb: delete message: %w", err)
	}
	return decodeData(resp, nil)
}

// SendServerMessage posts a server-side notice into a group chat.
func (c *Client) SendServerMessage(ctx context.Context, groupChatID, message string) error {
	if err := c.ensureValidToken(ctx); err != nil {
		return err
	}
	resp, err := c.request(ctx).
		SetBody(map[string]string{"message": message}).
		Post(fmt.Sprintf("group_chats/%s/server_message", groupChatID))
	if err != nil {
		return fmt.Errorf("pdb: server message: %w", err)
	}
	return decodeData(resp, nil)
}

// LeaveGroupChat removes the bot from a group chat.
func (c *Client) LeaveGroupChat(ctx context.Context, groupChatID string) error {
	if err := c.ensureValidToken(ctx); err != nil {
		return err
	}
	resp, err := c.request(ctx).
		SetBody(map[string]string{}).
		Post(fmt.Sprintf("group_chats/%s/leave", groupChatID))
	if err != nil {
		return fmt.Errorf("pdb: leave group: %w", err)
	}
	return decodeData(resp, nil)
}

func (c *Client) notifyRefresh(t Tokens) {
	c.mu.Lock()
	listeners := make([]RefreshListener, len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	for _, fn := range listeners {
		if err := fn(t); err != nil {
			logger.ErrorCF("pdb", "Token refresh listener failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
}
