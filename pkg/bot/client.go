// Package bot wires the chat transport, identity provider, and policy
// stores into the message-routing pipeline.
package bot

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/rakuworks/pdbot/pkg/admin"
	"github.com/rakuworks/pdbot/pkg/ai"
	"github.com/rakuworks/pdbot/pkg/config"
	"github.com/rakuworks/pdbot/pkg/ghost"
	"github.com/rakuworks/pdbot/pkg/logger"
	"github.com/rakuworks/pdbot/pkg/memory"
	"github.com/rakuworks/pdbot/pkg/pdb"
	"github.com/rakuworks/pdbot/pkg/stream"
	"github.com/rakuworks/pdbot/pkg/trivia"
	"github.com/rakuworks/pdbot/pkg/usage"
)

// Client is the assembled bot: one identity, one realtime session, one
// command registry, one router.
type Client struct {
	cfg    *config.Config
	pdb    *pdb.Client
	chat   *stream.Client
	policy *admin.Policy
	ai     *ai.Client
	trivia *trivia.Client
	usage  *usage.Store

	ghosts   *ghost.Registry
	memory   *memory.Conversations
	registry *Registry
	cooldown *Cooldown
	router   *Router

	mu       sync.Mutex
	user     pdb.UserInfo
	chatInfo map[int64]*pdb.ChatInfo
}

func New(cfg *config.Config, pdbClient *pdb.Client, chatClient *stream.Client, policy *admin.Policy, aiClient *ai.Client, triviaClient *trivia.Client, usageStore *usage.Store) *Client {
	c := &Client{
		cfg:      cfg,
		pdb:      pdbClient,
		chat:     chatClient,
		policy:   policy,
		ai:       aiClient,
		trivia:   triviaClient,
		usage:    usageStore,
		ghosts:   ghost.NewRegistry(),
		memory:   memory.NewConversations(),
		registry: NewRegistry(),
		cooldown: NewCooldown(),
		chatInfo: make(map[int64]*pdb.ChatInfo),
	}
	c.registerCommands()
	return c
}

func (c *Client) registerCommands() {
	registerBasicCommands(c)
	registerMessagingCommands(c)
	registerGameCommands(c)
	registerSystemCommands(c)
	registerAdminCommands(c)
}

// Start fetches the bot's chat identity, connects the realtime session,
// watches member channels, and registers event handlers. Returns once the
// bot is ready; events flow on the transport's read loop.
func (c *Client) Start(ctx context.Context) error {
	if err := c.policy.Load(); err != nil {
		return fmt.Errorf("load admin policy: %w", err)
	}

	info, err := c.pdb.CurrentUserInfo(ctx)
	if err != nil {
		return fmt.Errorf("fetch chat identity: %w", err)
	}
	c.mu.Lock()
	c.user = *info
	c.mu.Unlock()

	// Rotate the realtime session whenever the identity provider rotates
	// tokens; the chat token is minted per user-info fetch.
	c.pdb.OnTokenRefresh(func(pdb.Tokens) error {
		return c.reconnectChat(context.Background())
	})

	if err := c.chat.Connect(ctx, c.connectUser(info)); err != nil {
		return fmt.Errorf("connect chat: %w", err)
	}

	refs, err := c.chat.QueryMemberChannels(ctx)
	if err != nil {
		return fmt.Errorf("watch channels: %w", err)
	}
	logger.InfoCF("bot", "Watching channels", map[string]interface{}{"count": len(refs)})

	c.router = NewRouter(c.cfg.Bot.CommandPrefix, c.chat, c.pdb, c.registry, c.cooldown, c.policy, c.ghosts, c.memory, c.ai)
	c.chat.On(stream.EventMessageNew, c.router.HandleMessageNew)
	c.chat.On(stream.EventMemberAdded, c.router.HandleMemberAdded)

	c.memory.StartSweeper(ctx)

	logger.InfoCF("bot", "Ready", map[string]interface{}{
		"user_id": info.ID,
		"name":    info.Name,
	})
	return nil
}

func (c *Client) connectUser(info *pdb.UserInfo) stream.ConnectUser {
	return stream.ConnectUser{
		ID:     strconv.FormatInt(info.ID, 10),
		Name:   info.Name,
		Image:  info.Image.PicURL,
		Token:  info.ChatToken,
		APIKey: info.ChatAPIKey,
	}
}

func (c *Client) reconnectChat(ctx context.Context) error {
	info, err := c.pdb.CurrentUserInfo(ctx)
	if err != nil {
		return fmt.Errorf("refresh chat identity: %w", err)
	}
	c.mu.Lock()
	c.user = *info
	c.mu.Unlock()
	return c.chat.Reconnect(ctx, c.connectUser(info))
}

// BotUser returns the identity the bot runs as.
func (c *Client) BotUser() pdb.UserInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

// getOrCreateChatInfo resolves the direct-chat channel for a target user,
// creating it on first contact and falling back to a lookup when the chat
// already exists.
func (c *Client) getOrCreateChatInfo(ctx context.Context, targetUserID int64) (*pdb.ChatInfo, error) {
	c.mu.Lock()
	if info, ok := c.chatInfo[targetUserID]; ok {
		c.mu.Unlock()
		return info, nil
	}
	c.mu.Unlock()

	info, err := c.pdb.CreateChat(ctx, targetUserID)
	if err != nil {
		if !pdb.IsNotFound(err) {
			return nil, err
		}
		info, err = c.pdb.ChatInfo(ctx, targetUserID)
		if err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	c.chatInfo[targetUserID] = info
	c.mu.Unlock()
	return info, nil
}

// Close tears the realtime session down.
func (c *Client) Close() {
	c.chat.Close()
}
