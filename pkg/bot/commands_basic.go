package bot

import (
	"fmt"
	"strings"

	"github.com/rakuworks/pdbot/pkg/logger"
)

func registerBasicCommands(c *Client) {
	c.registry.Register(&Command{
		Name: "hello",
		Handler: func(ctx *CommandContext) error {
			logger.DebugCF("commands", "Executing hello", map[string]interface{}{"sender": ctx.SenderName})
			return ctx.Reply(fmt.Sprintf("Hello %s! 👋", ctx.SenderName))
		},
	})

	c.registry.Register(&Command{
		Name: "ping",
		Handler: func(ctx *CommandContext) error {
			return ctx.Reply("Pong! 🏓")
		},
	})

	c.registry.Register(&Command{
		Name: "help",
		Handler: func(ctx *CommandContext) error {
			prefix := c.cfg.Bot.CommandPrefix
			names := c.registry.Names()
			listed := make([]string, len(names))
			for i, name := range names {
				listed[i] = "`" + prefix + name + "`"
			}
			helpText := "**📋 Available Commands**\n\n" +
				strings.Join(listed, ", ") +
				fmt.Sprintf("\n\nUse `%shelp <command>` for more info about a specific command.", prefix)
			return ctx.Reply(helpText)
		},
	})
}
