package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rakuworks/pdbot/pkg/logger"
	"github.com/rakuworks/pdbot/pkg/stream"
)

func registerAdminCommands(c *Client) {
	c.registry.Register(&Command{
		Name:      "setadmin",
		AdminOnly: true,
		Handler: func(ctx *CommandContext) error {
			if len(ctx.Args) == 0 {
				return ctx.Reply("Usage: !setadmin <userId>")
			}
			userID := ctx.Args[0]

			added, err := c.policy.AddAdmin(userID, ctx.Sender)
			if err != nil {
				return ctx.Reply(fmt.Sprintf("❌ Error adding admin: %v", err))
			}
			if !added {
				return ctx.Reply(fmt.Sprintf("⚠️ User %s is already an admin.", userID))
			}
			return ctx.Reply(fmt.Sprintf("✅ User %s added as admin.", userID))
		},
	})

	c.registry.Register(&Command{
		Name:      "removeadmin",
		AdminOnly: true,
		Handler: func(ctx *CommandContext) error {
			if len(ctx.Args) == 0 {
				return ctx.Reply("Usage: !removeadmin <userId>")
			}
			userID := ctx.Args[0]

			removed, err := c.policy.RemoveAdmin(userID)
			if err != nil {
				return ctx.Reply(fmt.Sprintf("❌ Error removing admin: %v", err))
			}
			if !removed {
				return ctx.Reply(fmt.Sprintf("⚠️ User %s is not an admin.", userID))
			}
			return ctx.Reply(fmt.Sprintf("✅ User %s removed from admins.", userID))
		},
	})

	c.registry.Register(&Command{
		Name:      "adminset",
		AdminOnly: true,
		Handler: func(ctx *CommandContext) error {
			if len(ctx.Args) == 0 {
				return ctx.Reply("Usage: !adminset <commandName>")
			}
			name := strings.ToLower(ctx.Args[0])

			added, err := c.policy.AddAdminCommand(name, ctx.Sender)
			if err != nil {
				return ctx.Reply(fmt.Sprintf("❌ Error setting command permission: %v", err))
			}
			if !added {
				return ctx.Reply(fmt.Sprintf("⚠️ Command '%s' is already admin-only.", name))
			}
			return ctx.Reply(fmt.Sprintf("✅ Command '%s' is now admin-only.", name))
		},
	})

	c.registry.Register(&Command{
		Name:      "adminremove",
		AdminOnly: true,
		Handler: func(ctx *CommandContext) error {
			if len(ctx.Args) == 0 {
				return ctx.Reply("Usage: !adminremove <commandName>")
			}
			name := strings.ToLower(ctx.Args[0])

			removed, err := c.policy.RemoveAdminCommand(name)
			if err != nil {
				return ctx.Reply(fmt.Sprintf("❌ Error removing command permission: %v", err))
			}
			if !removed {
				return ctx.Reply(fmt.Sprintf("⚠️ Command '%s' is not in the admin-only list.", name))
			}
			return ctx.Reply(fmt.Sprintf("✅ Command '%s' is no longer admin-only.", name))
		},
	})

	c.registry.Register(&Command{
		Name:      "setprofile",
		AdminOnly: true,
		Handler: func(ctx *CommandContext) error {
			quoted := ctx.Quoted()
			if quoted == nil {
				return ctx.Reply("❌ You must reply to a message with an image attachment to set the profile picture.")
			}
			if len(quoted.Attachments) == 0 {
				return ctx.Reply("❌ The quoted message has no attachments.")
			}

			attachment := quoted.Attachments[0]
			if attachment.Type != "image" && !strings.HasPrefix(attachment.MimeType, "image/") {
				return ctx.Reply("❌ The first attachment must be an image.")
			}

			imageURL := attachment.ImageURL
			if imageURL == "" {
				imageURL = attachment.AssetURL
			}
			if imageURL == "" {
				return ctx.Reply("❌ Could not find image URL in attachment.")
			}

			botID := strconv.FormatInt(c.BotUser().ID, 10)
			if err := c.chat.UpdateUser(ctx.Context(), stream.User{ID: botID, Image: imageURL}); err != nil {
				return ctx.Reply(fmt.Sprintf("❌ Failed to set profile: %v", err))
			}

			logger.InfoCF("commands", "Profile image updated", map[string]interface{}{
				"image": imageURL,
			})
			return ctx.Reply("✅ Profile image updated successfully!")
		},
	})
}
