package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/rakuworks/pdbot/pkg/admin"
	"github.com/rakuworks/pdbot/pkg/ai"
	"github.com/rakuworks/pdbot/pkg/ghost"
	"github.com/rakuworks/pdbot/pkg/logger"
	"github.com/rakuworks/pdbot/pkg/memory"
	"github.com/rakuworks/pdbot/pkg/stream"
)

// GroupModerator deletes offending messages on the provider side, where
// group-chat moderation actually lives.
type GroupModerator interface {
	DeleteGroupMessage(ctx context.Context, groupChatID, messageID string) error
}

// Responder generates conversational replies and image reactions.
type Responder interface {
	Complete(ctx context.Context, channelID string, history []memory.Turn) (string, error)
	DescribeImage(ctx context.Context, imageURL, userMessage string) (string, error)
}

// Router runs the per-message decision pipeline: self-filter, link
// moderation, command dispatch with admin and cooldown gates, and the
// AI-reply path for plain chatter. Each branch is terminal; one message
// takes exactly one path.
type Router struct {
	prefix string

	chat      ChatTransport
	moderator GroupModerator
	registry  *Registry
	cooldown  *Cooldown
	policy    *admin.Policy
	ghosts    *ghost.Registry
	memory    *memory.Conversations
	ai        Responder
}

func NewRouter(prefix string, chat ChatTransport, moderator GroupModerator, registry *Registry, cooldown *Cooldown, policy *admin.Policy, ghosts *ghost.Registry, conversations *memory.Conversations, responder Responder) *Router {
	return &Router{
		prefix:    prefix,
		chat:      chat,
		moderator: moderator,
		registry:  registry,
		cooldown:  cooldown,
		policy:    policy,
		ghosts:    ghosts,
		memory:    conversations,
		ai:        responder,
	}
}

// HandleMessageNew processes one message.new event. Errors never escape; a
// bad message must not take the event loop down.
func (r *Router) HandleMessageNew(ev *stream.Event) {
	msg := ev.Message
	if msg == nil || msg.User == nil {
		return
	}
	if msg.User.ID == r.chat.BotUserID() {
		return
	}

	ctx := context.Background()

	if r.moderateInviteLinks(ctx, ev) {
		return
	}

	if name, args, ok := Parse(msg.Text, r.prefix); ok {
		r.dispatchCommand(ctx, ev, name, args)
		return
	}

	r.handleChatter(ctx, ev)
}

func (r *Router) dispatchCommand(ctx context.Context, ev *stream.Event, name string, args []string) {
	cmd, ok := r.registry.Get(name)
	if !ok {
		return
	}

	cctx := newCommandContext(ctx, r.chat, ev, name, args)

	requiresAdmin := cmd.AdminOnly || r.policy.IsCommandAdminOnly(name)
	isAdmin := r.policy.IsAdmin(cctx.Sender) || cctx.Sender == r.chat.BotUserID()

	if requiresAdmin && !isAdmin {
		if err := cctx.Reply("❌ You do not have permission to use this command."); err != nil {
			logger.WarnCF("router", "Failed to send permission notice", map[string]interface{}{
				"command": name,
				"error":   err.Error(),
			})
		}
		return
	}

	if !isAdmin && !r.cooldown.Allow(cctx.Sender) {
		logger.DebugCF("router", "Command dropped by cooldown", map[string]interface{}{
			"command": name,
			"sender":  cctx.Sender,
		})
		return
	}

	if err := cmd.Handler(cctx); err != nil {
		logger.ErrorCF("router", "Command failed", map[string]interface{}{
			"command": name,
			"sender":  cctx.Sender,
			"error":   err.Error(),
		})
		if replyErr := cctx.Reply(fmt.Sprintf("❌ Error executing command: %v", err)); replyErr != nil {
			logger.ErrorCF("router", "Failed to send error notice", map[string]interface{}{
				"command": name,
				"error":   replyErr.Error(),
			})
		}
	}
}

func (r *Router) handleChatter(ctx context.Context, ev *stream.Event) {
	msg := ev.Message
	text := strings.TrimSpace(msg.Text)
	if !passesQualityFilters(text) {
		return
	}

	sender := msg.User.ID
	if r.ghosts.IsGhosted(sender) {
		return
	}
	if !r.isAddressed(msg) {
		return
	}
	if r.ai == nil {
		return
	}

	channel := ev.Channel()
	content := text
	if imageURL := firstImageURL(msg.Attachments); imageURL != "" {
		reaction, err := r.ai.DescribeImage(ctx, imageURL, text)
		if err != nil {
			logger.WarnCF("router", "Image enrichment failed", map[string]interface{}{
				"cid":   channel.CID(),
				"error": err.Error(),
			})
		} else if reaction != "" {
			content = strings.TrimSpace(content + "\n(shared an image: " + reaction + ")")
		}
	}

	senderName := msg.User.Name
	if senderName == "" {
		senderName = sender
	}
	r.memory.Append(channel.ID, memory.RoleUser, senderName+": "+content)

	reply, err := r.ai.Complete(ctx, channel.ID, r.memory.History(channel.ID))
	if err != nil {
		logger.ErrorCF("router", "Failed to get AI response", map[string]interface{}{
			"cid":   channel.CID(),
			"error": err.Error(),
		})
		return
	}

	if clean, minutes, ok := ai.ParseGhostMarker(reply); ok {
		r.ghosts.Ghost(sender, minutes)
		reply = clean
	}
	if reply == "" {
		return
	}

	r.memory.Append(channel.ID, memory.RoleAssistant, reply)
	if _, err := r.chat.SendMessage(ctx, channel, reply, stream.SendOptions{QuotedMessageID: msg.ID}); err != nil {
		logger.ErrorCF("router", "Failed to send AI reply", map[string]interface{}{
			"cid":   channel.CID(),
			"error": err.Error(),
		})
	}
}

// isAddressed reports whether the message talks to the bot: a reply to one
// of its messages or an explicit mention.
func (r *Router) isAddressed(msg *stream.Message) bool {
	botID := r.chat.BotUserID()
	if q := msg.QuotedMessage; q != nil && q.User != nil && q.User.ID == botID {
		return true
	}
	for _, u := range msg.MentionedUsers {
		if u.ID == botID {
			return true
		}
	}
	return false
}

func firstImageURL(attachments []stream.Attachment) string {
	for _, a := range attachments {
		if a.Type != "image" && !strings.HasPrefix(a.MimeType, "image/") {
			continue
		}
		if a.ImageURL != "" {
			return a.ImageURL
		}
		if a.AssetURL != "" {
			return a.AssetURL
		}
	}
	return ""
}

// HandleMemberAdded greets a new channel member with a mention.
func (r *Router) HandleMemberAdded(ev *stream.Event) {
	userID, userName := memberIdentity(ev)
	if userID == "" {
		return
	}

	channel := ev.Channel()
	welcome := fmt.Sprintf("@%s welcome to the chat 👋", userName)
	if _, err := r.chat.SendMessage(context.Background(), channel, welcome, stream.SendOptions{
		MentionedUsers: []string{userID},
	}); err != nil {
		logger.ErrorCF("router", "Failed to send welcome message", map[string]interface{}{
			"cid":   channel.CID(),
			"error": err.Error(),
		})
		return
	}
	logger.InfoCF("router", "Welcomed new member", map[string]interface{}{
		"cid":     channel.CID(),
		"user_id": userID,
	})
}

func memberIdentity(ev *stream.Event) (id, name string) {
	if m := ev.Member; m != nil {
		id = m.UserID
		if m.User != nil && m.User.Name != "" {
			name = m.User.Name
		}
	}
	if id == "" && ev.User != nil {
		id = ev.User.ID
		if ev.User.Name != "" {
			name = ev.User.Name
		}
	}
	if name == "" {
		name = id
	}
	return id, name
}
