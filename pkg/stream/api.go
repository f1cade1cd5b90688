package stream

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/rakuworks/pdbot/pkg/logger"
)

// apiRequest builds an authenticated REST request against the chat backend.
func (c *Client) apiRequest(ctx context.Context) *resty.Request {
	c.mu.Lock()
	user := c.user
	c.mu.Unlock()
	return c.http.R().SetContext(ctx).
		SetQueryParam("api_key", user.APIKey).
		SetQueryParam("user_id", user.ID).
		SetHeader("Authorization", user.Token).
		SetHeader("Stream-Auth-Type", "jwt")
}

// SendMessage posts a message to a channel and returns the created message.
func (c *Client) SendMessage(ctx context.Context, ref ChannelRef, text string, opts SendOptions) (*Message, error) {
	msg := map[string]interface{}{
		"id":   uuid.NewString(),
		"text": text,
	}
	if opts.QuotedMessageID != "" {
		msg["quoted_message_id"] = opts.QuotedMessageID
	}
	if len(opts.MentionedUsers) > 0 {
		msg["mentioned_users"] = opts.MentionedUsers
	}

	var out struct {
		Message *Message `json:"message"`
	}
	resp, err := c.apiRequest(ctx).
		SetBody(map[string]interface{}{
			"message":   msg,
			"skip_push": opts.SkipPush,
		}).
		SetResult(&out).
		Post(fmt.Sprintf("%s/channels/%s/%s/message", c.apiBase, ref.Type, ref.ID))
	if err != nil {
		return nil, fmt.Errorf("stream: send message: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("stream: send message: status %d: %s", resp.StatusCode(), resp.String())
	}

	logger.DebugCF("stream", "Message sent", map[string]interface{}{"cid": ref.CID()})
	return out.Message, nil
}

// DeleteMessage removes a message by id.
func (c *Client) DeleteMessage(ctx context.Context, messageID string) error {
	resp, err := c.apiRequest(ctx).
		Delete(fmt.Sprintf("%s/messages/%s", c.apiBase, messageID))
	if err != nil {
		return fmt.Errorf("stream: delete message: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("stream: delete message: status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// WatchChannel subscribes the connection to a channel's events.
func (c *Client) WatchChannel(ctx context.Context, ref ChannelRef) error {
	resp, err := c.apiRequest(ctx).
		SetBody(map[string]interface{}{"watch": true, "state": true}).
		Post(fmt.Sprintf("%s/channels/%s/%s/query", c.apiBase, ref.Type, ref.ID))
	if err != nil {
		return fmt.Errorf("stream: watch channel: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("stream: watch channel: status %d: %s", resp.StatusCode(), resp.String())
	}

	c.mu.Lock()
	c.watched[ref.CID()] = ref
	c.mu.Unlock()
	return nil
}

// UnwatchChannel stops watching a channel.
func (c *Client) UnwatchChannel(ctx context.Context, ref ChannelRef) error {
	resp, err := c.apiRequest(ctx).
		SetBody(map[string]interface{}{}).
		Post(fmt.Sprintf("%s/channels/%s/%s/stop-watching", c.apiBase, ref.Type, ref.ID))
	if err != nil {
		return fmt.Errorf("stream: unwatch channel: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("stream: unwatch channel: status %d: %s", resp.StatusCode(), resp.String())
	}

	c.mu.Lock()
	delete(c.watched, ref.CID())
	c.mu.Unlock()
	return nil
}

// QueryMemberChannels watches every channel the connected user is a member
// of and returns their references.
func (c *Client) QueryMemberChannels(ctx context.Context) ([]ChannelRef, error) {
	c.mu.Lock()
	userID := c.user.ID
	c.mu.Unlock()

	var out struct {
		Channels []struct {
			Channel struct {
				CID string `json:"cid"`
			} `json:"channel"`
		} `json:"channels"`
	}
	resp, err := c.apiRequest(ctx).
		SetBody(map[string]interface{}{
			"filter_conditions": map[string]interface{}{
				"members": map[string]interface{}{"$in": []string{userID}},
			},
			"sort":  []map[string]interface{}{{"field": "last_message_at", "direction": -1}},
			"watch": true,
			"state": true,
		}).
		SetResult(&out).
		Post(fmt.Sprintf("%s/channels", c.apiBase))
	if err != nil {
		return nil, fmt.Errorf("stream: query channels: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("stream: query channels: status %d: %s", resp.StatusCode(), resp.String())
	}

	refs := make([]ChannelRef, 0, len(out.Channels))
	c.mu.Lock()
	for _, ch := range out.Channels {
		ref := ParseCID(ch.Channel.CID)
		c.watched[ref.CID()] = ref
		refs = append(refs, ref)
	}
	c.mu.Unlock()
	return refs, nil
}

// UpdateUser upserts the connected user's profile, e.g. the avatar image.
func (c *Client) UpdateUser(ctx context.Context, user User) error {
	resp, err := c.apiRequest(ctx).
		SetBody(map[string]interface{}{
			"users": map[string]interface{}{user.ID: user},
		}).
		Post(fmt.Sprintf("%s/users", c.apiBase))
	if err != nil {
		return fmt.Errorf("stream: update user: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("stream: update user: status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
