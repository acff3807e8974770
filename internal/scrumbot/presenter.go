package scrumbot

import (
	"context"
	"errors"

	"github.com/KangGunn/Madcamp-Week4/internal/chat"
	"github.com/KangGunn/Madcamp-Week4/internal/domain/vote"
	"github.com/KangGunn/Madcamp-Week4/internal/metrics"
)

// Presenter shows votes in their channel through the Slack notifier.
type Presenter struct {
	notifier *chat.Notifier
}

func NewPresenter(notifier *chat.Notifier) *Presenter {
	return &Presenter{notifier: notifier}
}

func (p *Presenter) Announce(ctx context.Context, v vote.Vote) (vote.MessageRef, error) {
	ts, err := p.notifier.Post(ctx, v.ChannelID, "A vote has been created!", RenderVote(v)...)
	if err != nil {
		return vote.MessageRef{}, err
	}
	return vote.MessageRef{ChannelID: v.ChannelID, Timestamp: ts}, nil
}

func (p *Presenter) Refresh(ctx context.Context, v vote.Vote) error {
	if v.MessageRef.IsZero() {
		return nil
	}
	return p.notifier.Update(ctx, v.MessageRef.ChannelID, v.MessageRef.Timestamp, "The vote has been updated!", RenderVote(v)...)
}

// Conclude posts the results and freezes the live message.
func (p *Presenter) Conclude(ctx context.Context, o vote.Outcome) error {
	metrics.IncVoteFinalized(string(o.Trigger))

	_, postErr := p.notifier.Post(ctx, o.Vote.ChannelID, RenderResults(o))

	var updateErr error
	if ref := o.Vote.MessageRef; !ref.IsZero() {
		updateErr = p.notifier.Update(ctx, ref.ChannelID, ref.Timestamp, "The vote has ended.", RenderClosedVote(o)...)
	}
	return errors.Join(postErr, updateErr)
}

func (p *Presenter) Retire(ctx context.Context, v vote.Vote) error {
	if v.MessageRef.IsZero() {
		return nil
	}
	return p.notifier.Update(ctx, v.MessageRef.ChannelID, v.MessageRef.Timestamp, "This vote was replaced.", RenderReplacedVote(v)...)
}
