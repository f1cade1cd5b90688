package bot

import (
	"fmt"
	"strings"

	"github.com/rakuworks/pdbot/pkg/trivia"
)

func validRating(rating string) bool {
	switch rating {
	case trivia.RatingPG, trivia.RatingPG13, trivia.RatingR:
		return true
	}
	return false
}

func registerGameCommands(c *Client) {
	c.registry.Register(&Command{
		Name: "truth",
		Handler: func(ctx *CommandContext) error {
			rating := trivia.RatingPG
			if len(ctx.Args) > 0 {
				rating = strings.ToUpper(ctx.Args[0])
			}
			if !validRating(rating) {
				return ctx.Reply("❌ Invalid rating. Use: PG, PG13, or R")
			}

			question, err := c.trivia.Truth(ctx.Context(), rating)
			if err != nil {
				return ctx.Reply(fmt.Sprintf("❌ Failed to get truth question: %v", err))
			}
			return ctx.Reply(fmt.Sprintf("🤔 **Truth (%s):** %s", rating, question))
		},
	})

	c.registry.Register(&Command{
		Name: "dare",
		Handler: func(ctx *CommandContext) error {
			rating := trivia.RatingPG
			if len(ctx.Args) > 0 {
				rating = strings.ToUpper(ctx.Args[0])
			}
			if !validRating(rating) {
				return ctx.Reply("❌ Invalid rating. Use: PG, PG13, or R")
			}

			dare, err := c.trivia.Dare(ctx.Context(), rating)
			if err != nil {
				return ctx.Reply(fmt.Sprintf("❌ Failed to get dare: %v", err))
			}
			return ctx.Reply(fmt.Sprintf("😈 **Dare (%s):** %s", rating, dare))
		},
	})
}
