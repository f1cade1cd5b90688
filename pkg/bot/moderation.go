package bot

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/rakuworks/pdbot/pkg/logger"
	"github.com/rakuworks/pdbot/pkg/stream"
)

var (
	inviteLinkRe = regexp.MustCompile(`(?i)https?://(www\.)?personality-database\.com/join_group\?[^\s]+`)
	inviteCIDRe  = regexp.MustCompile(`cid=([^&\s]+)`)
)

// moderateInviteLinks scans a message for join links pointing at other
// groups. On the first foreign link it deletes the message, calls out the
// sender, posts a corrective invite into the linked group, and reports the
// message as handled. Links back to the current channel pass.
func (r *Router) moderateInviteLinks(ctx context.Context, ev *stream.Event) bool {
	msg := ev.Message
	if strings.TrimSpace(msg.Text) == "" {
		return false
	}

	links := inviteLinkRe.FindAllString(msg.Text, -1)
	if len(links) == 0 {
		return false
	}

	current := ev.Channel()
	for _, link := range links {
		decoded, err := url.QueryUnescape(link)
		if err != nil {
			decoded = link
		}
		m := inviteCIDRe.FindStringSubmatch(decoded)
		if m == nil {
			continue
		}

		linked := stream.ParseCID(m[1])
		if linked.ID == current.ID {
			continue
		}

		logger.InfoCF("moderation", "Foreign invite link detected", map[string]interface{}{
			"cid":        current.CID(),
			"linked_cid": linked.CID(),
			"sender":     msg.User.ID,
		})
		r.removeInviteMessage(ctx, ev, linked)
		return true
	}
	return false
}

func (r *Router) removeInviteMessage(ctx context.Context, ev *stream.Event, linked stream.ChannelRef) {
	msg := ev.Message
	current := ev.Channel()

	groupChatID := ""
	if ev.ChannelCustom != nil {
		groupChatID = ev.ChannelCustom.GroupChatID
	}
	if err := r.moderator.DeleteGroupMessage(ctx, groupChatID, msg.ID); err != nil {
		logger.ErrorCF("moderation", "Failed to delete invite message", map[string]interface{}{
			"message_id": msg.ID,
			"error":      err.Error(),
		})
	}

	senderName := msg.User.Name
	if senderName == "" {
		senderName = msg.User.ID
	}
	notice := fmt.Sprintf("@%s fuck off don't send links from other groups.", senderName)
	if _, err := r.chat.SendMessage(ctx, current, notice, stream.SendOptions{
		MentionedUsers: []string{msg.User.ID},
	}); err != nil {
		logger.ErrorCF("moderation", "Failed to send moderation notice", map[string]interface{}{
			"cid":   current.CID(),
			"error": err.Error(),
		})
	}

	r.postCorrectiveInvite(ctx, current, linked)
}

// postCorrectiveInvite drops an invite for the current group into the group
// the offending link pointed at, then stops watching it so its traffic does
// not reach the router.
func (r *Router) postCorrectiveInvite(ctx context.Context, current, linked stream.ChannelRef) {
	if err := r.chat.WatchChannel(ctx, linked); err != nil {
		logger.WarnCF("moderation", "Could not watch linked channel", map[string]interface{}{
			"linked_cid": linked.CID(),
			"error":      err.Error(),
		})
		return
	}

	invite := "https://www.personality-database.com/join_group?cid=" + url.QueryEscape(current.CID())
	if _, err := r.chat.SendMessage(ctx, linked, "join us instead: "+invite, stream.SendOptions{}); err != nil {
		logger.WarnCF("moderation", "Failed to post corrective invite", map[string]interface{}{
			"linked_cid": linked.CID(),
			"error":      err.Error(),
		})
	}

	if err := r.chat.UnwatchChannel(ctx, linked); err != nil {
		logger.WarnCF("moderation", "Failed to unwatch linked channel", map[string]interface{}{
			"linked_cid": linked.CID(),
			"error":      err.Error(),
		})
	}
}
