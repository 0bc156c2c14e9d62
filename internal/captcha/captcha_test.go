package captcha

import (
	"context"
	"errors"
	"testing"

	"campusportal/portal/internal/api"
)

type stubSource struct {
	resp api.CaptchaResponse
	err  error
}

func (s stubSource) Captcha(context.Context) (api.CaptchaResponse, error) {
	return s.resp, s.err
}

func TestFetch(t *testing.T) {
	c := NewClient(stubSource{resp: api.CaptchaResponse{ID: "c-1", Image: "<svg/>"}})
	ch, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ch.ID != "c-1" || ch.Image != "<svg/>" {
		t.Fatalf("unexpected challenge %+v", ch)
	}
}

func TestFetchUnavailable(t *testing.T) {
	cases := []stubSource{
		{err: &api.FetchError{Endpoint: api.EndpointCaptcha, Err: errors.New("dial tcp: refused")}},
		{resp: api.CaptchaResponse{ID: "  ", Image: "<svg/>"}},
	}
	for _, src := range cases {
		if _, err := NewClient(src).Fetch(context.Background()); !errors.Is(err, ErrChallengeUnavailable) {
			t.Fatalf("expected ErrChallengeUnavailable, got %v", err)
		}
	}
}
