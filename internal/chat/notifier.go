package chat

import (
	"context"
	"errors"

	"github.com/slack-go/slack"

	"github.com/KangGunn/Madcamp-Week4/internal/metrics"
)

// ErrDelivery matches every error returned for a failed Slack API call.
var ErrDelivery = errors.New("slack delivery failed")

type DeliveryError struct {
	Op  string
	Err error
}

func (e *DeliveryError) Error() string {
	return "slack " + e.Op + ": " + e.Err.Error()
}

func (e *DeliveryError) Unwrap() error { return e.Err }

func (e *DeliveryError) Is(target error) bool { return target == ErrDelivery }

// Notifier sends messages and modals to Slack. It never retries; callers
// that need retries wrap it.
type Notifier struct {
	api SlackAPI
}

func NewNotifier(api SlackAPI) *Notifier {
	return &Notifier{api: api}
}

// Post sends a channel message and returns its timestamp. text is the
// notification fallback when blocks are given.
func (n *Notifier) Post(ctx context.Context, channelID, text string, blocks ...slack.Block) (string, error) {
	_, ts, err := n.api.PostMessageContext(ctx, channelID, messageOptions(text, blocks)...)
	if err != nil {
		return "", fail("post", err)
	}
	return ts, nil
}

// SendText posts a plain message.
func (n *Notifier) SendText(ctx context.Context, channelID, text string) error {
	_, err := n.Post(ctx, channelID, text)
	return err
}

func (n *Notifier) Update(ctx context.Context, channelID, ts, text string, blocks ...slack.Block) error {
	if _, _, _, err := n.api.UpdateMessageContext(ctx, channelID, ts, messageOptions(text, blocks)...); err != nil {
		return fail("update", err)
	}
	return nil
}

// Ephemeral shows a message only to userID. Without a user the message is
// posted to the whole channel.
func (n *Notifier) Ephemeral(ctx context.Context, channelID, userID, text string, blocks ...slack.Block) error {
	if userID == "" {
		_, err := n.Post(ctx, channelID, text, blocks...)
		return err
	}
	if _, err := n.api.PostEphemeralContext(ctx, channelID, userID, messageOptions(text, blocks)...); err != nil {
		return fail("ephemeral", err)
	}
	return nil
}

func (n *Notifier) Warn(ctx context.Context, channelID, userID, text string) error {
	return n.Ephemeral(ctx, channelID, userID, ":warning: "+text)
}

func (n *Notifier) OpenModal(ctx context.Context, triggerID string, view slack.ModalViewRequest) error {
	if _, err := n.api.OpenViewContext(ctx, triggerID, view); err != nil {
		return fail("open_view", err)
	}
	return nil
}

func messageOptions(text string, blocks []slack.Block) []slack.MsgOption {
	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if len(blocks) > 0 {
		opts = append(opts, slack.MsgOptionBlocks(blocks...))
	}
	return opts
}

func fail(op string, err error) error {
	metrics.IncNotificationFailure(op)
	return &DeliveryError{Op: op, Err: err}
}
