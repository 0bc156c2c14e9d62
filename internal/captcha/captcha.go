package captcha

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"campusportal/portal/internal/api"
)

// ErrChallengeUnavailable means no challenge could be obtained; the caller may retry.
var ErrChallengeUnavailable = errors.New("captcha_unavailable")

// Challenge is a single-use captcha. Image is renderable markup from the backend.
type Challenge struct {
	ID    string `json:"id"`
	Image string `json:"image"`
}

type Source interface {
	Captcha(ctx context.Context) (api.CaptchaResponse, error)
}

type Client struct {
	source Source
}

func NewClient(source Source) *Client {
	return &Client{source: source}
}

// Fetch always asks the backend for a brand new challenge.
func (c *Client) Fetch(ctx context.Context) (Challenge, error) {
	resp, err := c.source.Captcha(ctx)
	if err != nil {
		return Challenge{}, fmt.Errorf("%w: %v", ErrChallengeUnavailable, err)
	}
	if strings.TrimSpace(resp.ID) == "" {
		return Challenge{}, fmt.Errorf("%w: empty challenge id", ErrChallengeUnavailable)
	}
	return Challenge{ID: resp.ID, Image: resp.Image}, nil
}
