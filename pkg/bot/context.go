package bot

import (
	"context"

	"github.com/rakuworks/pdbot/pkg/stream"
)

// ChatTransport is the outbound realtime surface the router and command
// contexts need. *stream.Client satisfies it; tests use fakes.
type ChatTransport interface {
	BotUserID() string
	SendMessage(ctx context.Context, ref stream.ChannelRef, text string, opts stream.SendOptions) (*stream.Message, error)
	WatchChannel(ctx context.Context, ref stream.ChannelRef) error
	UnwatchChannel(ctx context.Context, ref stream.ChannelRef) error
	UpdateUser(ctx context.Context, user stream.User) error
}

// CommandContext is what a command handler sees: the parsed invocation plus
// reply capability bound to the originating channel.
type CommandContext struct {
	Command    string
	Args       []string
	Sender     string
	SenderName string
	Channel    stream.ChannelRef

	Event   *stream.Event
	Message *stream.Message

	ctx  context.Context
	chat ChatTransport
}

func newCommandContext(ctx context.Context, chat ChatTransport, ev *stream.Event, command string, args []string) *CommandContext {
	msg := ev.Message
	sender, senderName := "", "Unknown"
	if msg.User != nil {
		sender = msg.User.ID
		if msg.User.Name != "" {
			senderName = msg.User.Name
		} else {
			senderName = msg.User.ID
		}
	}
	return &CommandContext{
		Command:    command,
		Args:       args,
		Sender:     sender,
		SenderName: senderName,
		Channel:    ev.Channel(),
		Event:      ev,
		Message:    msg,
		ctx:        ctx,
		chat:       chat,
	}
}

func (c *CommandContext) Context() context.Context {
	return c.ctx
}

// Quoted returns the message this invocation replied to, if any.
func (c *CommandContext) Quoted() *stream.Message {
	if c.Message == nil {
		return nil
	}
	return c.Message.QuotedMessage
}

// GroupChatID returns the provider-side group id used by moderation calls.
func (c *CommandContext) GroupChatID() string {
	if c.Event.ChannelCustom == nil {
		return ""
	}
	return c.Event.ChannelCustom.GroupChatID
}

// Reply sends text into the originating channel quoting the invoking
// message.
func (c *CommandContext) Reply(text string) error {
	quoted := ""
	if c.Message != nil {
		quoted = c.Message.ID
	}
	return c.ReplyTo(text, quoted)
}

// ReplyTo sends text quoting a specific message id.
func (c *CommandContext) ReplyTo(text, quotedMessageID string) error {
	_, err := c.chat.SendMessage(c.ctx, c.Channel, text, stream.SendOptions{
		QuotedMessageID: quotedMessageID,
	})
	return err
}

// Send posts text into the originating channel without quoting.
func (c *CommandContext) Send(text string) error {
	_, err := c.chat.SendMessage(c.ctx, c.Channel, text, stream.SendOptions{})
	return err
}
