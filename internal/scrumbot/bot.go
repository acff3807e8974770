package scrumbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/slack-go/slack"

	"github.com/KangGunn/Madcamp-Week4/internal/chat"
	"github.com/KangGunn/Madcamp-Week4/internal/domain/scrum"
	"github.com/KangGunn/Madcamp-Week4/internal/domain/vote"
	"github.com/KangGunn/Madcamp-Week4/internal/metrics"
)

// Bot wires the scrum commands and the vote interactions to the router.
type Bot struct {
	votes    *vote.Service
	scrum    *scrum.Service
	notifier *chat.Notifier
	logger   *slog.Logger
}

func New(votes *vote.Service, scrumSvc *scrum.Service, notifier *chat.Notifier, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		votes:    votes,
		scrum:    scrumSvc,
		notifier: notifier,
		logger:   logger.With("module", "scrumbot"),
	}
}

func (b *Bot) Register(r *chat.Router) {
	r.Command("/set-scrum-time", b.setScrumTime)
	r.Command("/get-scrum-time", b.getScrumTime)
	r.Command("/create-vote", b.openCreateVote)

	r.View(createVoteCallbackID, b.submitCreateVote)
	r.View(addOptionCallbackID, b.submitAddOption)

	r.Block(BallotBlockID, b.castBallot)
	r.Action(ActionAddOption, b.openAddOption)
	r.Action(ActionEndVote, b.endVote)
	// Checkbox toggles inside the create modal only matter on submit.
	r.Action(allowAddActionID, ignoreAction)
	r.Action(anonActionID, ignoreAction)

	r.OnError(b.reportError)
}

func (b *Bot) setScrumTime(ctx context.Context, cmd slack.SlashCommand) error {
	setting, err := b.scrum.Set(ctx, cmd.ChannelID, cmd.Text)
	if err != nil {
		return err
	}
	_, err = b.notifier.Post(ctx, cmd.ChannelID, fmt.Sprintf("Scrum time is set to %s.", setting.Time))
	return err
}

func (b *Bot) getScrumTime(ctx context.Context, cmd slack.SlashCommand) error {
	setting, err := b.scrum.Get(ctx, cmd.ChannelID)
	if errors.Is(err, scrum.ErrNotSet) {
		_, err = b.notifier.Post(ctx, cmd.ChannelID, "Scrum time has not been set yet.")
		return err
	}
	if err != nil {
		return err
	}
	_, err = b.notifier.Post(ctx, cmd.ChannelID, fmt.Sprintf("Scrum time is %s.", setting.Time))
	return err
}

func (b *Bot) openCreateVote(ctx context.Context, cmd slack.SlashCommand) error {
	return b.notifier.OpenModal(ctx, cmd.TriggerID, createVoteModal(cmd.ChannelID))
}

func (b *Bot) submitCreateVote(ctx context.Context, cb slack.InteractionCallback) error {
	form := parseCreateVote(cb.View)
	_, err := b.votes.Create(ctx, vote.CreateRequest{
		ChannelID:   cb.View.PrivateMetadata,
		CreatedBy:   cb.User.ID,
		OptionsText: form.Options,
		EndTimeText: form.EndTime,
		AllowAdd:    form.AllowAdd,
		Anonymous:   form.Anonymous,
	})
	return err
}

func (b *Bot) castBallot(ctx context.Context, cb slack.InteractionCallback, action *slack.BlockAction) error {
	if _, err := b.votes.CastFrom(ctx, messageRef(cb), cb.User.ID, action.Value); err != nil {
		return err
	}
	metrics.IncVoteCast()
	return nil
}

func (b *Bot) openAddOption(ctx context.Context, cb slack.InteractionCallback, _ *slack.BlockAction) error {
	ref := messageRef(cb)
	v, ok := b.votes.Get(ref.ChannelID)
	if !ok || (ref.Timestamp != "" && v.MessageRef.Timestamp != ref.Timestamp) {
		return vote.ErrNoActiveVote
	}
	return b.notifier.OpenModal(ctx, cb.TriggerID, addOptionModal(cb.Channel.ID))
}

func (b *Bot) submitAddOption(ctx context.Context, cb slack.InteractionCallback) error {
	_, err := b.votes.AddOption(ctx, cb.View.PrivateMetadata, parseNewOption(cb.View))
	return err
}

func (b *Bot) endVote(ctx context.Context, cb slack.InteractionCallback, _ *slack.BlockAction) error {
	_, err := b.votes.FinalizeFrom(ctx, messageRef(cb))
	if errors.Is(err, vote.ErrNoActiveVote) {
		return nil
	}
	return err
}

// messageRef identifies the vote message a button was clicked on.
func messageRef(cb slack.InteractionCallback) vote.MessageRef {
	ts := cb.Container.MessageTs
	if ts == "" {
		ts = cb.Message.Timestamp
	}
	return vote.MessageRef{ChannelID: cb.Channel.ID, Timestamp: ts}
}

func ignoreAction(context.Context, slack.InteractionCallback, *slack.BlockAction) error {
	return nil
}

// reportError tells the requester about problems they can fix and logs the
// rest.
func (b *Bot) reportError(ctx context.Context, origin chat.Origin, err error) {
	appErr := mapError(err)
	if !appErr.UserFacing() || origin.ChannelID == "" {
		b.logger.Error("slack handler failed",
			"event", "scrumbot_handler_failed",
			"kind", origin.Kind,
			"name", origin.Name,
			"channel_id", origin.ChannelID,
			"code", appErr.Code,
			"error", err.Error(),
		)
		return
	}

	b.logger.Info("request rejected",
		"event", "scrumbot_request_rejected",
		"name", origin.Name,
		"channel_id", origin.ChannelID,
		"code", appErr.Code,
	)
	if warnErr := b.notifier.Warn(ctx, origin.ChannelID, origin.UserID, appErr.Message); warnErr != nil {
		b.logger.Error("warning delivery failed",
			"event", "scrumbot_warn_failed",
			"channel_id", origin.ChannelID,
			"error", warnErr.Error(),
		)
	}
}
