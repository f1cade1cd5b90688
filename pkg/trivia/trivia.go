// Package trivia fetches truth questions and dare challenges from the
// truthordarebot.xyz API.
package trivia

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Rating levels accepted by the API.
const (
	RatingPG   = "PG"
	RatingPG13 = "PG13"
	RatingR    = "R"
)

type Client struct {
	http *resty.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(5 * time.Second),
	}
}

type questionResponse struct {
	Question string `json:"question"`
}

// Truth returns a truth question at the given rating.
func (c *Client) Truth(ctx context.Context, rating string) (string, error) {
	return c.fetch(ctx, "truth", rating)
}

// Dare returns a dare challenge at the given rating.
func (c *Client) Dare(ctx context.Context, rating string) (string, error) {
	return c.fetch(ctx, "dare", rating)
}

func (c *Client) fetch(ctx context.Context, kind, rating string) (string, error) {
	if rating == "" {
		rating = RatingPG
	}

	var body questionResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("rating", rating).
		SetResult(&body).
		Get("/" + kind)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", kind, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("fetch %s: status %d", kind, resp.StatusCode())
	}
	if body.Question == "" {
		return "", fmt.Errorf("fetch %s: empty question", kind)
	}
	return body.Question, nil
}
