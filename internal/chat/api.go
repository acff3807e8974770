package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"
)

// SlackAPI is the subset of *slack.Client the bots call. Tests substitute
// chattest.FakeAPI.
type SlackAPI interface {
	AuthTestContext(ctx context.Context) (*slack.AuthTestResponse, error)
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	PostEphemeralContext(ctx context.Context, channelID, userID string, options ...slack.MsgOption) (string, error)
	UpdateMessageContext(ctx context.Context, channelID, timestamp string, options ...slack.MsgOption) (string, string, string, error)
	OpenViewContext(ctx context.Context, triggerID string, view slack.ModalViewRequest) (*slack.ViewResponse, error)
}

type ClientConfig struct {
	BotToken string
	AppToken string
	Debug    bool
}

// NewClient builds the Web API client and the Socket Mode connection that
// shares it.
func NewClient(cfg ClientConfig) (*slack.Client, *socketmode.Client, error) {
	if cfg.BotToken == "" {
		return nil, nil, errors.New("bot token is required")
	}
	if cfg.AppToken == "" {
		return nil, nil, errors.New("app token is required for socket mode")
	}
	if !strings.HasPrefix(cfg.AppToken, "xapp-") {
		return nil, nil, errors.New("app token must start with xapp-")
	}

	api := slack.New(
		cfg.BotToken,
		slack.OptionDebug(cfg.Debug),
		slack.OptionAppLevelToken(cfg.AppToken),
	)
	socket := socketmode.New(api, socketmode.OptionDebug(cfg.Debug))
	return api, socket, nil
}
