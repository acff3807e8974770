package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/KangGunn/Madcamp-Week4/internal/metrics"
)

const handlerTimeout = 30 * time.Second

// Acker acknowledges socket mode requests. *socketmode.Client implements it.
type Acker interface {
	Ack(req socketmode.Request, payload ...interface{})
}

type (
	CommandHandler func(ctx context.Context, cmd slack.SlashCommand) error
	ActionHandler  func(ctx context.Context, cb slack.InteractionCallback, action *slack.BlockAction) error
	ViewHandler    func(ctx context.Context, cb slack.InteractionCallback) error
	EventHandler   func(ctx context.Context, evt slackevents.EventsAPIInnerEvent) error
)

// Origin identifies who triggered a failed handler and where.
type Origin struct {
	Kind      string
	Name      string
	ChannelID string
	UserID    string
}

type ErrorHandler func(ctx context.Context, origin Origin, err error)

// Router acknowledges every socket mode request straight away and then runs
// the matching handler on its own goroutine. A panicking handler only loses
// its own event.
type Router struct {
	commands map[string]CommandHandler
	actions  map[string]ActionHandler
	blocks   map[string]ActionHandler
	views    map[string]ViewHandler
	events   map[string]EventHandler
	onError  ErrorHandler
	logger   *slog.Logger

	connected atomic.Bool
	inflight  sync.WaitGroup
}

func NewRouter(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Router{
		commands: make(map[string]CommandHandler),
		actions:  make(map[string]ActionHandler),
		blocks:   make(map[string]ActionHandler),
		views:    make(map[string]ViewHandler),
		events:   make(map[string]EventHandler),
		logger:   logger.With("module", "slack_router"),
	}
	r.onError = r.logError
	return r
}

// Command routes a slash command such as "/create-vote".
func (r *Router) Command(name string, h CommandHandler) { r.commands[name] = h }

// Action routes a block action by its action ID.
func (r *Router) Action(actionID string, h ActionHandler) { r.actions[actionID] = h }

// Block routes block actions whose action ID has no handler by block ID.
// A block ID may carry a ":"-separated suffix; routing uses the part before it.
func (r *Router) Block(blockID string, h ActionHandler) { r.blocks[blockID] = h }

// View routes a view submission by callback ID.
func (r *Router) View(callbackID string, h ViewHandler) { r.views[callbackID] = h }

// Event routes an Events API callback by inner event type, e.g. "message".
func (r *Router) Event(eventType string, h EventHandler) { r.events[eventType] = h }

// OnError replaces the handler for errors returned by routed handlers.
func (r *Router) OnError(h ErrorHandler) {
	if h != nil {
		r.onError = h
	}
}

// Connected reports whether the socket mode connection is up.
func (r *Router) Connected() bool { return r.connected.Load() }

// Run drains the client's event stream until ctx is done.
func (r *Router) Run(ctx context.Context, client *socketmode.Client) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-client.Events:
				if !ok {
					return
				}
				r.Handle(ctx, client, evt)
			}
		}
	}()

	err := client.RunContext(ctx)
	cancel()
	<-drained
	r.connected.Store(false)
	r.Wait()
	return err
}

// AwaitRun waits up to timeout for the result of Run sent on done. Run only
// returns once in-flight handlers have finished. ok is false on timeout.
func AwaitRun(done <-chan error, timeout time.Duration) (ok bool, err error) {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case err := <-done:
		return true, err
	case <-t.C:
		return false, nil
	}
}

// Wait blocks until every dispatched handler has returned.
func (r *Router) Wait() { r.inflight.Wait() }

func (r *Router) Handle(ctx context.Context, acker Acker, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		r.logger.Info("connecting to socket mode")

	case socketmode.EventTypeConnected:
		r.connected.Store(true)
		r.logger.Info("connected to socket mode")

	case socketmode.EventTypeConnectionError, socketmode.EventTypeDisconnect:
		r.connected.Store(false)
		r.logger.Warn("socket mode connection lost", "event", string(evt.Type))

	case socketmode.EventTypeSlashCommand:
		cmd, ok := evt.Data.(slack.SlashCommand)
		if !ok {
			return
		}
		r.ack(acker, evt)
		r.routeCommand(ctx, cmd)

	case socketmode.EventTypeInteractive:
		cb, ok := evt.Data.(slack.InteractionCallback)
		if !ok {
			return
		}
		r.ack(acker, evt)
		r.routeInteraction(ctx, cb)

	case socketmode.EventTypeEventsAPI:
		apiEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			return
		}
		r.ack(acker, evt)
		if apiEvent.Type == slackevents.CallbackEvent {
			r.routeEvent(ctx, apiEvent.InnerEvent)
		}
	}
}

func (r *Router) ack(acker Acker, evt socketmode.Event) {
	if evt.Request != nil {
		acker.Ack(*evt.Request)
	}
}

func (r *Router) routeCommand(ctx context.Context, cmd slack.SlashCommand) {
	origin := Origin{Kind: "command", Name: cmd.Command, ChannelID: cmd.ChannelID, UserID: cmd.UserID}
	h, ok := r.commands[cmd.Command]
	if !ok {
		r.unhandled(origin)
		return
	}
	r.dispatch(ctx, origin, func(ctx context.Context) error { return h(ctx, cmd) })
}

func (r *Router) routeInteraction(ctx context.Context, cb slack.InteractionCallback) {
	switch cb.Type {
	case slack.InteractionTypeBlockActions:
		for _, action := range cb.ActionCallback.BlockActions {
			origin := Origin{Kind: "action", Name: action.ActionID, ChannelID: cb.Channel.ID, UserID: cb.User.ID}
			h, ok := r.actions[action.ActionID]
			if !ok {
				blockID, _, _ := strings.Cut(action.BlockID, ":")
				h, ok = r.blocks[blockID]
			}
			if !ok {
				r.unhandled(origin)
				continue
			}
			r.dispatch(ctx, origin, func(ctx context.Context) error { return h(ctx, cb, action) })
		}

	case slack.InteractionTypeViewSubmission:
		origin := Origin{Kind: "view", Name: cb.View.CallbackID, ChannelID: cb.View.PrivateMetadata, UserID: cb.User.ID}
		h, ok := r.views[cb.View.CallbackID]
		if !ok {
			r.unhandled(origin)
			return
		}
		r.dispatch(ctx, origin, func(ctx context.Context) error { return h(ctx, cb) })
	}
}

func (r *Router) routeEvent(ctx context.Context, inner slackevents.EventsAPIInnerEvent) {
	origin := Origin{Kind: "event", Name: inner.Type}
	h, ok := r.events[inner.Type]
	if !ok {
		return
	}
	r.dispatch(ctx, origin, func(ctx context.Context) error { return h(ctx, inner) })
}

func (r *Router) dispatch(ctx context.Context, origin Origin, fn func(ctx context.Context) error) {
	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()
		defer func() {
			if p := recover(); p != nil {
				metrics.IncSlackEvent(origin.Kind, "panic")
				r.logger.Error("slack handler panicked",
					"event", "slack_handler_panic",
					"kind", origin.Kind,
					"name", origin.Name,
					"channel_id", origin.ChannelID,
					"panic", fmt.Sprint(p),
				)
			}
		}()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), handlerTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			metrics.IncSlackEvent(origin.Kind, "error")
			r.onError(ctx, origin, err)
			return
		}
		metrics.IncSlackEvent(origin.Kind, "ok")
	}()
}

func (r *Router) unhandled(origin Origin) {
	metrics.IncSlackEvent(origin.Kind, "unhandled")
	r.logger.Warn("no handler registered",
		"event", "slack_unhandled",
		"kind", origin.Kind,
		"name", origin.Name,
	)
}

func (r *Router) logError(_ context.Context, origin Origin, err error) {
	r.logger.Error("slack handler failed",
		"event", "slack_handler_failed",
		"kind", origin.Kind,
		"name", origin.Name,
		"channel_id", origin.ChannelID,
		"user_id", origin.UserID,
		"error", err.Error(),
	)
}
