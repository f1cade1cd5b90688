// Package ai generates conversational replies through an OpenAI-compatible
// chat completions endpoint.
package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/rakuworks/pdbot/pkg/config"
	"github.com/rakuworks/pdbot/pkg/logger"
	"github.com/rakuworks/pdbot/pkg/memory"
)

const completionTimeout = 45 * time.Second

// Recorder receives per-completion token accounting. Implemented by the
// usage store; a nil Recorder disables accounting.
type Recorder interface {
	RecordUsage(model, channelID string, promptTokens, completionTokens, totalTokens int)
}

// Client wraps the chat and vision models behind one surface.
type Client struct {
	client       *openai.Client
	model        string
	visionModel  string
	temperature  float32
	systemPrompt string
	recorder     Recorder
}

func NewClient(cfg config.AIConfig, recorder Recorder) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = cfg.BaseURL

	return &Client{
		client:       openai.NewClientWithConfig(oc),
		model:        cfg.Model,
		visionModel:  cfg.VisionModel,
		temperature:  float32(cfg.Temperature),
		systemPrompt: defaultSystemPrompt,
		recorder:     recorder,
	}
}

// SetSystemPrompt replaces the persona prompt for subsequent completions.
func (c *Client) SetSystemPrompt(prompt string) {
	c.systemPrompt = prompt
}

// Complete generates the next reply for a channel from its history. The
// newest user turn is expected to already be in history.
func (c *Client) Complete(ctx context.Context, channelID string, history []memory.Turn) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, completionTimeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: c.systemPrompt,
	})
	for _, turn := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    turn.Role,
			Content: turn.Content,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: no choices returned")
	}

	c.record(resp.Model, channelID, resp.Usage)

	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", fmt.Errorf("chat completion: empty reply")
	}
	return reply, nil
}

func (c *Client) record(model, channelID string, u openai.Usage) {
	if c.recorder == nil {
		return
	}
	if model == "" {
		model = c.model
	}
	c.recorder.RecordUsage(model, channelID, u.PromptTokens, u.CompletionTokens, u.TotalTokens)
	logger.DebugCF("ai", "Recorded completion usage", map[string]interface{}{
		"channel_id":        channelID,
		"prompt_tokens":     u.PromptTokens,
		"completion_tokens": u.CompletionTokens,
	})
}
