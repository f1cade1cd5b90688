package bot

import (
	"fmt"
	"time"

	"github.com/rakuworks/pdbot/pkg/usage"
)

func registerSystemCommands(c *Client) {
	c.registry.Register(&Command{
		Name: "refresh",
		Handler: func(ctx *CommandContext) error {
			tokens, err := c.pdb.Refresh(ctx.Context())
			if err != nil {
				return ctx.Reply(fmt.Sprintf("❌ Failed to refresh token: %v", err))
			}
			expiry := time.UnixMilli(tokens.ExpireAt).UTC().Format(time.RFC3339)
			return ctx.Reply(fmt.Sprintf("✅ Token refreshed. Valid until %s.", expiry))
		},
	})

	c.registry.Register(&Command{
		Name:      "clear",
		AdminOnly: true,
		Handler: func(ctx *CommandContext) error {
			c.memory.Clear(ctx.Channel.ID)
			return ctx.Reply("✅ Conversation memory cleared for this channel.")
		},
	})

	c.registry.Register(&Command{
		Name: "usage",
		Handler: func(ctx *CommandContext) error {
			day := c.usage.TodayKey()
			records := c.usage.Query(usage.Filter{DayKey: day})
			if len(records) == 0 {
				return ctx.Reply(fmt.Sprintf("No AI usage recorded for %s yet.", day))
			}
			return ctx.Reply(usage.Summary(day, records))
		},
	})
}
