package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rakuworks/pdbot/pkg/logger"
	"github.com/rakuworks/pdbot/pkg/pdb"
	"github.com/rakuworks/pdbot/pkg/stream"
)

func registerMessagingCommands(c *Client) {
	c.registry.Register(&Command{
		Name: "send",
		Handler: func(ctx *CommandContext) error {
			if len(ctx.Args) < 2 {
				return ctx.Reply("❌ Invalid command. Usage: `!send <user_id> <message>`")
			}

			targetUserID, err := strconv.ParseInt(ctx.Args[0], 10, 64)
			if err != nil {
				return ctx.Reply("❌ Invalid user ID. Please provide a valid number.")
			}

			messageText := strings.TrimSpace(strings.Join(ctx.Args[1:], " "))
			if messageText == "" {
				return ctx.Reply("❌ Message cannot be empty.")
			}

			chatInfo, err := c.getOrCreateChatInfo(ctx.Context(), targetUserID)
			if err != nil {
				return ctx.Reply(sendFailureText(targetUserID, err))
			}
			if chatInfo.ChatChannelInfo == nil {
				return ctx.Reply(fmt.Sprintf("⚠️ Chat not found for user %d.", targetUserID))
			}

			ref := stream.ChannelRef{
				Type: chatInfo.ChatChannelInfo.ChannelType,
				ID:   chatInfo.ChatChannelInfo.ChannelID,
			}
			if _, err := c.chat.SendMessage(ctx.Context(), ref, messageText, stream.SendOptions{}); err != nil {
				return ctx.Reply(sendFailureText(targetUserID, err))
			}

			logger.InfoCF("commands", "Direct message sent", map[string]interface{}{
				"target": targetUserID,
			})
			return ctx.Reply(fmt.Sprintf("✅ Message sent successfully to user %d!", targetUserID))
		},
	})
}

// sendFailureText translates provider error codes into user-facing replies.
func sendFailureText(targetUserID int64, err error) string {
	switch pdb.ErrorCode(err) {
	case pdb.CodeInactiveRecipient:
		return fmt.Sprintf("⚠️ User %d is inactive and cannot receive messages.", targetUserID)
	case pdb.CodeChatLimitReached:
		return "⚠️ Chat creation limit reached. Cannot create more chat channels."
	}
	switch pdb.StatusCode(err) {
	case 404:
		return fmt.Sprintf("⚠️ Chat not found for user %d.", targetUserID)
	case 401:
		return "❌ Authentication failed. Please check your access token."
	case 403:
		return fmt.Sprintf("❌ Forbidden: %v", err)
	}
	return fmt.Sprintf("❌ Failed to send message: %v", err)
}
