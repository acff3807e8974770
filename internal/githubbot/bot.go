package githubbot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"github.com/KangGunn/Madcamp-Week4/internal/chat"
)

const slackbotUserID = "USLACKBOT"

type Options struct {
	// GreetMessages greets the author of every plain channel message.
	GreetMessages bool
	Logger        *slog.Logger
}

// Bot answers the GitHub convention commands and greets channel members.
type Bot struct {
	notifier *chat.Notifier
	opts     Options
	logger   *slog.Logger

	mu        sync.RWMutex
	botUserID string
}

func New(notifier *chat.Notifier, opts Options) *Bot {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		notifier: notifier,
		opts:     opts,
		logger:   logger.With("module", "githubbot"),
	}
}

// SetBotUserID records the bot's own user so its messages are not greeted.
func (b *Bot) SetBotUserID(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.botUserID = id
}

func (b *Bot) Register(r *chat.Router) {
	r.Command("/conv-commit", b.reply(commitConvention))
	r.Command("/conv-issue", b.reply(issueTemplate))
	r.Command("/conv-pr", b.reply(pullRequestTemplate))
	r.Command("/conv-help", b.reply(helpText))

	r.Event(string(slackevents.Message), b.greet)
	r.Event(string(slackevents.AppMention), b.mention)
}

func (b *Bot) reply(text string) chat.CommandHandler {
	return func(ctx context.Context, cmd slack.SlashCommand) error {
		return b.notifier.Ephemeral(ctx, cmd.ChannelID, cmd.UserID, text)
	}
}

func (b *Bot) greet(ctx context.Context, evt slackevents.EventsAPIInnerEvent) error {
	if !b.opts.GreetMessages {
		return nil
	}
	msg, ok := evt.Data.(*slackevents.MessageEvent)
	if !ok || !b.isHumanMessage(msg) {
		return nil
	}
	_, err := b.notifier.Post(ctx, msg.Channel, fmt.Sprintf("<@%s>, keep it up today!", msg.User))
	return err
}

func (b *Bot) mention(ctx context.Context, evt slackevents.EventsAPIInnerEvent) error {
	mention, ok := evt.Data.(*slackevents.AppMentionEvent)
	if !ok {
		return nil
	}
	_, err := b.notifier.Post(ctx, mention.Channel, fmt.Sprintf("<@%s>, you called? Try `/conv-help`.", mention.User))
	return err
}

// isHumanMessage filters out edits, joins, bot posts and the bot's own
// messages.
func (b *Bot) isHumanMessage(msg *slackevents.MessageEvent) bool {
	if msg.SubType != "" || msg.BotID != "" || msg.User == "" || msg.User == slackbotUserID {
		return false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return msg.User != b.botUserID
}
