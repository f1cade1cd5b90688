package stream

import "strings"

// Event types the client dispatches on.
const (
	EventMessageNew  = "message.new"
	EventMemberAdded = "member.added"
	EventHealthCheck = "health.check"
)

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Image string `json:"image,omitempty"`
}

type Attachment struct {
	Type     string `json:"type,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	AssetURL string `json:"asset_url,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
}

type Message struct {
	ID             string       `json:"id"`
	Text           string       `json:"text"`
	User           *User        `json:"user,omitempty"`
	QuotedMessage  *Message     `json:"quoted_message,omitempty"`
	MentionedUsers []User       `json:"mentioned_users,omitempty"`
	Attachments    []Attachment `json:"attachments,omitempty"`
}

// ChannelRef addresses a conversation by type plus id ("messaging:12345").
type ChannelRef struct {
	Type string
	ID   string
}

func (r ChannelRef) CID() string {
	return r.Type + ":" + r.ID
}

// ParseCID splits a "type:id" channel identifier. Missing type defaults to
// messaging, matching the backend's default channel type.
func ParseCID(cid string) ChannelRef {
	if idx := strings.IndexByte(cid, ':'); idx >= 0 {
		return ChannelRef{Type: cid[:idx], ID: cid[idx+1:]}
	}
	return ChannelRef{Type: "messaging", ID: cid}
}

type Member struct {
	UserID string `json:"user_id"`
	User   *User  `json:"user,omitempty"`
}

// ChannelCustom carries provider-specific channel metadata attached to
// events, notably the group chat id used by the moderation API.
type ChannelCustom struct {
	GroupChatID   string `json:"groupChatID"`
	GroupChatType string `json:"groupChatType"`
}

// Event is one realtime event from the socket. Only the variants the bot
// reacts to are modeled; unknown types pass through with Type set.
type Event struct {
	Type          string         `json:"type"`
	CID           string         `json:"cid"`
	ChannelType   string         `json:"channel_type"`
	ChannelID     string         `json:"channel_id"`
	Message       *Message       `json:"message,omitempty"`
	Member        *Member        `json:"member,omitempty"`
	User          *User          `json:"user,omitempty"`
	ChannelCustom *ChannelCustom `json:"channel_custom,omitempty"`
}

// Channel resolves the event's channel reference, preferring the explicit
// type/id fields and falling back to the cid.
func (e *Event) Channel() ChannelRef {
	if e.ChannelType != "" && e.ChannelID != "" {
		return ChannelRef{Type: e.ChannelType, ID: e.ChannelID}
	}
	return ParseCID(e.CID)
}

// Handler consumes one event. Handlers run on the socket read loop; panics
// are recovered and logged so one handler cannot take down the loop.
type Handler func(*Event)

// SendOptions mirror the backend's per-message flags.
type SendOptions struct {
	QuotedMessageID string
	MentionedUsers  []string
	SkipPush        bool
}
