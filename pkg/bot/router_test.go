package bot

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rakuworks/pdbot/pkg/admin"
	"github.com/rakuworks/pdbot/pkg/ghost"
	"github.com/rakuworks/pdbot/pkg/memory"
	"github.com/rakuworks/pdbot/pkg/stream"
)

const testBotID = "999"

type sentMessage struct {
	ref  stream.ChannelRef
	text string
	opts stream.SendOptions
}

type fakeChat struct {
	sent      []sentMessage
	watched   []stream.ChannelRef
	unwatched []stream.ChannelRef
	updated   []stream.User
}

func (f *fakeChat) BotUserID() string { return testBotID }

func (f *fakeChat) SendMessage(_ context.Context, ref stream.ChannelRef, text string, opts stream.SendOptions) (*stream.Message, error) {
	f.sent = append(f.sent, sentMessage{ref: ref, text: text, opts: opts})
	return &stream.Message{ID: "sent", Text: text}, nil
}

func (f *fakeChat) WatchChannel(_ context.Context, ref stream.ChannelRef) error {
	f.watched = append(f.watched, ref)
	return nil
}

func (f *fakeChat) UnwatchChannel(_ context.Context, ref stream.ChannelRef) error {
	f.unwatched = append(f.unwatched, ref)
	return nil
}

func (f *fakeChat) UpdateUser(_ context.Context, user stream.User) error {
	f.updated = append(f.updated, user)
	return nil
}

type deletedMessage struct {
	groupChatID string
	messageID   string
}

type fakeModerator struct {
	deleted []deletedMessage
}

func (f *fakeModerator) DeleteGroupMessage(_ context.Context, groupChatID, messageID string) error {
	f.deleted = append(f.deleted, deletedMessage{groupChatID: groupChatID, messageID: messageID})
	return nil
}

type fakeResponder struct {
	reply       string
	err         error
	completions [][]memory.Turn
	described   []string
}

func (f *fakeResponder) Complete(_ context.Context, _ string, history []memory.Turn) (string, error) {
	snapshot := make([]memory.Turn, len(history))
	copy(snapshot, history)
	f.completions = append(f.completions, snapshot)
	return f.reply, f.err
}

func (f *fakeResponder) DescribeImage(_ context.Context, imageURL, _ string) (string, error) {
	f.described = append(f.described, imageURL)
	return "nice pic", nil
}

// memStore is an in-memory admin.Store for router tests.
type memStore struct {
	admins   map[string]bool
	commands map[string]bool
}

func newMemStore() *memStore {
	return &memStore{admins: map[string]bool{}, commands: map[string]bool{}}
}

func (s *memStore) ListAdmins() ([]string, error) {
	out := make([]string, 0, len(s.admins))
	for id := range s.admins {
		out = append(out, id)
	}
	return out, nil
}

func (s *memStore) ListAdminCommands() ([]string, error) {
	out := make([]string, 0, len(s.commands))
	for name := range s.commands {
		out = append(out, name)
	}
	return out, nil
}

func (s *memStore) InsertAdmin(userID, _ string) error { s.admins[userID] = true; return nil }
func (s *memStore) DeleteAdmin(userID string) error { delete(s.admins, userID); return nil }
func (s *memStore) InsertAdminCommand(name, _ string) error { s.commands[name] = true; return nil }
func (s *memStore) DeleteAdminCommand(name string) error { delete(s.commands, name); return nil }
func (s *memStore) Close() error { return nil }

type routerFixture struct {
	router    *Router
	chat      *fakeChat
	moderator *fakeModerator
	responder *fakeResponder
	registry  *Registry
	ghosts    *ghost.Registry
	memory    *memory.Conversations
	store     *memStore
}

func newRouterFixture() *routerFixture {
	f := &routerFixture{
		chat:      &fakeChat{},
		moderator: &fakeModerator{},
		responder: &fakeResponder{reply: "hey"},
		registry:  NewRegistry(),
		ghosts:    ghost.NewRegistry(),
		memory:    memory.NewConversations(),
		store:     newMemStore(),
	}
	f.router = NewRouter("!", f.chat, f.moderator, f.registry, NewCooldown(),
		admin.NewPolicy(f.store), f.ghosts, f.memory, f.responder)
	return f
}

func newMessageEvent(senderID, senderName, text string) *stream.Event {
	return &stream.Event{
		Type:          stream.EventMessageNew,
		CID:           "messaging:chan1",
		ChannelType:   "messaging",
		ChannelID:     "chan1",
		ChannelCustom: &stream.ChannelCustom{GroupChatID: "group1"},
		Message: &stream.Message{
			ID:   "msg1",
			Text: text,
			User: &stream.User{ID: senderID, Name: senderName},
		},
	}
}

func mentionBot(ev *stream.Event) *stream.Event {
	ev.Message.MentionedUsers = append(ev.Message.MentionedUsers, stream.User{ID: testBotID})
	return ev
}

// TestRouter_PingCommand verifies the happy command path replies exactly once
func TestRouter_PingCommand(t *testing.T) {
	f := newRouterFixture()
	f.registry.Register(&Command{
		Name: "ping",
		Handler: func(ctx *CommandContext) error {
			return ctx.Reply("Pong! 🏓")
		},
	})

	f.router.HandleMessageNew(newMessageEvent("u1", "Alice", "!ping"))

	if len(f.chat.sent) != 1 {
		t.Fatalf("expected exactly 1 reply, got %d", len(f.chat.sent))
	}
	if f.chat.sent[0].text != "Pong! 🏓" {
		t.Errorf("unexpected reply text: %q", f.chat.sent[0].text)
	}
	if f.chat.sent[0].opts.QuotedMessageID != "msg1" {
		t.Errorf("reply should quote the invoking message, got %q", f.chat.sent[0].opts.QuotedMessageID)
	}
}

// TestRouter_SelfMessageIgnored verifies the bot never reacts to itself
func TestRouter_SelfMessageIgnored(t *testing.T) {
	f := newRouterFixture()
	invoked := false
	f.registry.Register(&Command{
		Name:    "ping",
		Handler: func(ctx *CommandContext) error { invoked = true; return nil },
	})

	f.router.HandleMessageNew(mentionBot(newMessageEvent(testBotID, "Bot", "!ping")))

	if invoked {
		t.Error("handler should not run for the bot's own message")
	}
	if len(f.chat.sent) != 0 {
		t.Errorf("no reply expected, got %d", len(f.chat.sent))
	}
}

// TestRouter_UnknownCommandIgnored verifies unregistered commands are dropped
func TestRouter_UnknownCommandIgnored(t *testing.T) {
	f := newRouterFixture()

	f.router.HandleMessageNew(newMessageEvent("u1", "Alice", "!nosuchcommand"))

	if len(f.chat.sent) != 0 {
		t.Errorf("unknown command should be silent, got %d messages", len(f.chat.sent))
	}
}

// TestRouter_AdminOnlyDenied verifies the permission gate
func TestRouter_AdminOnlyDenied(t *testing.T) {
	f := newRouterFixture()
	invoked := false
	f.registry.Register(&Command{
		Name:      "setadmin",
		AdminOnly: true,
		Handler:   func(ctx *CommandContext) error { invoked = true; return nil },
	})

	f.router.HandleMessageNew(newMessageEvent("u1", "Alice", "!setadmin u2"))

	if invoked {
		t.Error("admin-only handler should not run for a non-admin")
	}
	if len(f.chat.sent) != 1 || !strings.Contains(f.chat.sent[0].text, "permission") {
		t.Fatalf("expected a permission-denied reply, got %v", f.chat.sent)
	}
}

// TestRouter_AdminAllowed verifies admins pass the gate and skip cooldown
func TestRouter_AdminAllowed(t *testing.T) {
	f := newRouterFixture()
	f.store.admins["u1"] = true
	invocations := 0
	f.registry.Register(&Command{
		Name:      "setadmin",
		AdminOnly: true,
		Handler:   func(ctx *CommandContext) error { invocations++; return nil },
	})

	f.router.HandleMessageNew(newMessageEvent("u1", "Alice", "!setadmin u2"))
	f.router.HandleMessageNew(newMessageEvent("u1", "Alice", "!setadmin u3"))

	if invocations != 2 {
		t.Errorf("admin should bypass the cooldown, got %d invocations", invocations)
	}
}

// TestRouter_PolicyMarkedCommandRequiresAdmin verifies runtime admin-only marks
func TestRouter_PolicyMarkedCommandRequiresAdmin(t *testing.T) {
	f := newRouterFixture()
	f.store.commands["ping"] = true
	invoked := false
	f.registry.Register(&Command{
		Name:    "ping",
		Handler: func(ctx *CommandContext) error { invoked = true; return nil },
	})

	f.router.HandleMessageNew(newMessageEvent("u1", "Alice", "!ping"))

	if invoked {
		t.Error("policy-marked command should be gated for non-admins")
	}
}

// TestRouter_CooldownSuppressesSecondCall verifies the non-admin rate gate
func TestRouter_CooldownSuppressesSecondCall(t *testing.T) {
	f := newRouterFixture()
	invocations := 0
	f.registry.Register(&Command{
		Name:    "ping",
		Handler: func(ctx *CommandContext) error { invocations++; return nil },
	})

	f.router.HandleMessageNew(newMessageEvent("u1", "Alice", "!ping"))
	f.router.HandleMessageNew(newMessageEvent("u1", "Alice", "!ping"))

	if invocations != 1 {
		t.Errorf("expected 1 invocation inside the cooldown window, got %d", invocations)
	}
	if len(f.chat.sent) != 0 {
		t.Errorf("cooldown drop should be silent, got %d messages", len(f.chat.sent))
	}
}

// TestRouter_HandlerErrorIsolated verifies a failing handler cannot escape
func TestRouter_HandlerErrorIsolated(t *testing.T) {
	f := newRouterFixture()
	f.registry.Register(&Command{
		Name:    "boom",
		Handler: func(ctx *CommandContext) error { return errors.New("kaput") },
	})

	f.router.HandleMessageNew(newMessageEvent("u1", "Alice", "!boom"))

	if len(f.chat.sent) != 1 || !strings.Contains(f.chat.sent[0].text, "kaput") {
		t.Fatalf("expected an error notice, got %v", f.chat.sent)
	}
}

// TestRouter_ForeignInviteLinkModerated verifies delete + notice + stop
func TestRouter_ForeignInviteLinkModerated(t *testing.T) {
	f := newRouterFixture()
	text := "join here https://www.personality-database.com/join_group?cid=messaging:other9&hl=en"

	f.router.HandleMessageNew(mentionBot(newMessageEvent("u1", "Alice", text)))

	if len(f.moderator.deleted) != 1 {
		t.Fatalf("expected exactly 1 delete, got %d", len(f.moderator.deleted))
	}
	if f.moderator.deleted[0].groupChatID != "group1" || f.moderator.deleted[0].messageID != "msg1" {
		t.Errorf("unexpected delete target: %+v", f.moderator.deleted[0])
	}
	if len(f.responder.completions) != 0 {
		t.Error("moderated message must not reach the AI path")
	}

	var noticeToCurrent, inviteToLinked bool
	for _, m := range f.chat.sent {
		if m.ref.ID == "chan1" && len(m.opts.MentionedUsers) == 1 && m.opts.MentionedUsers[0] == "u1" {
			noticeToCurrent = true
		}
		if m.ref.ID == "other9" && strings.Contains(m.text, "join_group?cid=") {
			inviteToLinked = true
		}
	}
	if !noticeToCurrent {
		t.Error("expected a mention notice in the current channel")
	}
	if !inviteToLinked {
		t.Error("expected a corrective invite in the linked channel")
	}
	if len(f.chat.unwatched) != 1 || f.chat.unwatched[0].ID != "other9" {
		t.Errorf("expected the linked channel to be unwatched, got %v", f.chat.unwatched)
	}
}

// TestRouter_OwnInviteLinkPasses verifies links to the current channel are fine
func TestRouter_OwnInviteLinkPasses(t *testing.T) {
	f := newRouterFixture()
	text := "invite: https://personality-database.com/join_group?cid=messaging:chan1&x=1"

	f.router.HandleMessageNew(newMessageEvent("u1", "Alice", text))

	if len(f.moderator.deleted) != 0 {
		t.Errorf("own-channel link should not be deleted, got %d deletes", len(f.moderator.deleted))
	}
}

// TestRouter_MentionTriggersAIReply verifies the full chatter path
func TestRouter_MentionTriggersAIReply(t *testing.T) {
	f := newRouterFixture()
	f.responder.reply = "oh hey Alice"

	f.router.HandleMessageNew(mentionBot(newMessageEvent("u1", "Alice", "hey bot what's up")))

	if len(f.responder.completions) != 1 {
		t.Fatalf("expected 1 completion, got %d", len(f.responder.completions))
	}
	thread := f.responder.completions[0]
	if len(thread) != 1 || thread[0].Content != "Alice: hey bot what's up" {
		t.Errorf("unexpected thread passed to the AI: %+v", thread)
	}
	if len(f.chat.sent) != 1 {
		t.Fatalf("expected 1 reply, got %d", len(f.chat.sent))
	}
	if f.chat.sent[0].text != "oh hey Alice" {
		t.Errorf("unexpected reply: %q", f.chat.sent[0].text)
	}
	if f.chat.sent[0].opts.QuotedMessageID != "msg1" {
		t.Error("AI reply should quote the original message")
	}

	history := f.memory.History("chan1")
	if len(history) != 2 || history[1].Role != memory.RoleAssistant {
		t.Errorf("assistant turn should be recorded, got %+v", history)
	}
}

// TestRouter_ReplyToBotMessageTriggersAI verifies quoting the bot counts
func TestRouter_ReplyToBotMessageTriggersAI(t *testing.T) {
	f := newRouterFixture()
	ev := newMessageEvent("u1", "Alice", "what do you mean")
	ev.Message.QuotedMessage = &stream.Message{
		ID:   "prev",
		User: &stream.User{ID: testBotID},
	}

	f.router.HandleMessageNew(ev)

	if len(f.responder.completions) != 1 {
		t.Errorf("expected the AI path for a reply to the bot, got %d completions", len(f.responder.completions))
	}
}

// TestRouter_UnaddressedChatterIgnored verifies plain chatter is not answered
func TestRouter_UnaddressedChatterIgnored(t *testing.T) {
	f := newRouterFixture()

	f.router.HandleMessageNew(newMessageEvent("u1", "Alice", "just chatting with folks"))

	if len(f.responder.completions) != 0 {
		t.Error("unaddressed chatter should not reach the AI")
	}
	if len(f.chat.sent) != 0 {
		t.Errorf("no reply expected, got %d", len(f.chat.sent))
	}
}

// TestRouter_GhostedUserSuppressed verifies ghost suppression of the AI path
func TestRouter_GhostedUserSuppressed(t *testing.T) {
	f := newRouterFixture()
	f.ghosts.Ghost("u1", 10)

	f.router.HandleMessageNew(mentionBot(newMessageEvent("u1", "Alice", "talk to me")))

	if len(f.responder.completions) != 0 {
		t.Error("ghosted sender should not get an AI turn")
	}
	if len(f.chat.sent) != 0 {
		t.Errorf("ghost drop should be silent, got %d messages", len(f.chat.sent))
	}
}

// TestRouter_GhostMarkerStrippedAndRegistered verifies the control marker
func TestRouter_GhostMarkerStrippedAndRegistered(t *testing.T) {
	f := newRouterFixture()
	f.responder.reply = "okay i'm done with you [GHOST:10]"

	f.router.HandleMessageNew(mentionBot(newMessageEvent("u1", "Alice", "annoying message")))

	if len(f.chat.sent) != 1 {
		t.Fatalf("expected 1 reply, got %d", len(f.chat.sent))
	}
	if strings.Contains(f.chat.sent[0].text, "[GHOST") {
		t.Errorf("marker must be stripped from the reply: %q", f.chat.sent[0].text)
	}
	if !f.ghosts.IsGhosted("u1") {
		t.Error("sender should be ghosted after the marker")
	}
}

// TestRouter_QualityFilterBlocksAI verifies symbol spam never reaches the AI
func TestRouter_QualityFilterBlocksAI(t *testing.T) {
	f := newRouterFixture()

	f.router.HandleMessageNew(mentionBot(newMessageEvent("u1", "Alice", "??!! ... ---")))

	if len(f.responder.completions) != 0 {
		t.Error("symbol-only text should be filtered before the AI")
	}
}

// TestRouter_ImageAttachmentEnrichesThread verifies image-to-text enrichment
func TestRouter_ImageAttachmentEnrichesThread(t *testing.T) {
	f := newRouterFixture()
	ev := mentionBot(newMessageEvent("u1", "Alice", "look at this"))
	ev.Message.Attachments = []stream.Attachment{
		{Type: "image", ImageURL: "https://cdn.example/pic.jpg"},
	}

	f.router.HandleMessageNew(ev)

	if len(f.responder.described) != 1 || f.responder.described[0] != "https://cdn.example/pic.jpg" {
		t.Fatalf("expected one image description call, got %v", f.responder.described)
	}
	if len(f.responder.completions) != 1 {
		t.Fatalf("expected 1 completion, got %d", len(f.responder.completions))
	}
	if !strings.Contains(f.responder.completions[0][0].Content, "nice pic") {
		t.Errorf("thread should carry the image reaction, got %+v", f.responder.completions[0])
	}
}

// TestRouter_MemberAddedWelcome verifies the greeting on member.added
func TestRouter_MemberAddedWelcome(t *testing.T) {
	f := newRouterFixture()
	ev := &stream.Event{
		Type:        stream.EventMemberAdded,
		CID:         "messaging:chan1",
		ChannelType: "messaging",
		ChannelID:   "chan1",
		Member: &stream.Member{
			UserID: "u7",
			User:   &stream.User{ID: "u7", Name: "Bob"},
		},
	}

	f.router.HandleMemberAdded(ev)

	if len(f.chat.sent) != 1 {
		t.Fatalf("expected 1 welcome message, got %d", len(f.chat.sent))
	}
	if f.chat.sent[0].text != "@Bob welcome to the chat 👋" {
		t.Errorf("unexpected welcome text: %q", f.chat.sent[0].text)
	}
	if len(f.chat.sent[0].opts.MentionedUsers) != 1 || f.chat.sent[0].opts.MentionedUsers[0] != "u7" {
		t.Errorf("welcome should mention the new member, got %v", f.chat.sent[0].opts.MentionedUsers)
	}
}
