package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const visionTimeout = 60 * time.Second

// DescribeImage reacts to an image the way the persona would, optionally
// folding in the text the sender attached to it. The result feeds the
// conversation history, not the wire, so failures are safe to swallow
// upstream.
func (c *Client) DescribeImage(ctx context.Context, imageURL, userMessage string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, visionTimeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.visionModel,
		MaxTokens: 512,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: visionPrompt(userMessage),
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: imageURL,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("describe image: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("describe image: no choices returned")
	}

	c.record(resp.Model, "", resp.Usage)
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
