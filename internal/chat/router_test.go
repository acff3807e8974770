package chat

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
)

type recordingAcker struct {
	mu    sync.Mutex
	acked []string
}

func (a *recordingAcker) Ack(req socketmode.Request, payload ...interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked = append(a.acked, req.EnvelopeID)
}

func commandEvent(envelope, name string) socketmode.Event {
	return socketmode.Event{
		Type:    socketmode.EventTypeSlashCommand,
		Data:    slack.SlashCommand{Command: name, ChannelID: "C1", UserID: "U1"},
		Request: &socketmode.Request{EnvelopeID: envelope},
	}
}

func blockActionEvent(envelope string, actions ...*slack.BlockAction) socketmode.Event {
	cb := slack.InteractionCallback{Type: slack.InteractionTypeBlockActions}
	cb.Channel.ID = "C1"
	cb.User.ID = "U1"
	cb.ActionCallback.BlockActions = actions
	return socketmode.Event{
		Type:    socketmode.EventTypeInteractive,
		Data:    cb,
		Request: &socketmode.Request{EnvelopeID: envelope},
	}
}

func TestRouterAcksAndDispatchesCommands(t *testing.T) {
	r := NewRouter(nil)
	acker := &recordingAcker{}

	var mu sync.Mutex
	var got []string
	r.Command("/create-vote", func(ctx context.Context, cmd slack.SlashCommand) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, cmd.ChannelID)
		return nil
	})

	r.Handle(context.Background(), acker, commandEvent("e1", "/create-vote"))
	r.Handle(context.Background(), acker, commandEvent("e2", "/unknown"))
	r.Wait()

	if len(acker.acked) != 2 {
		t.Fatalf("expected every request acknowledged, got %v", acker.acked)
	}
	if len(got) != 1 || got[0] != "C1" {
		t.Fatalf("unexpected dispatch %v", got)
	}
}

func TestRouterPrefersActionIDThenBlockID(t *testing.T) {
	r := NewRouter(nil)

	var mu sync.Mutex
	calls := map[string][]string{}
	record := func(name string) ActionHandler {
		return func(ctx context.Context, cb slack.InteractionCallback, action *slack.BlockAction) error {
			mu.Lock()
			defer mu.Unlock()
			calls[name] = append(calls[name], action.Value)
			return nil
		}
	}
	r.Action("end_vote_now", record("end"))
	r.Block("vote_ballots", record("ballot"))

	r.Handle(context.Background(), &recordingAcker{}, blockActionEvent("e1",
		&slack.BlockAction{ActionID: "end_vote_now", BlockID: "vote_controls"},
		&slack.BlockAction{ActionID: "cast_0", BlockID: "vote_ballots", Value: "A"},
		&slack.BlockAction{ActionID: "cast_30", BlockID: "vote_ballots:1", Value: "B"},
		&slack.BlockAction{ActionID: "mystery", BlockID: "other"},
	))
	r.Wait()

	if len(calls["end"]) != 1 {
		t.Fatalf("expected end handler once, got %v", calls)
	}
	ballots := calls["ballot"]
	if len(ballots) != 2 {
		t.Fatalf("expected two ballot dispatches, got %v", ballots)
	}
}

func TestRouterIsolatesPanics(t *testing.T) {
	r := NewRouter(nil)
	done := make(chan struct{})
	r.Command("/boom", func(ctx context.Context, cmd slack.SlashCommand) error {
		panic("boom")
	})
	r.Command("/ok", func(ctx context.Context, cmd slack.SlashCommand) error {
		close(done)
		return nil
	})

	r.Handle(context.Background(), &recordingAcker{}, commandEvent("e1", "/boom"))
	r.Handle(context.Background(), &recordingAcker{}, commandEvent("e2", "/ok"))
	r.Wait()

	select {
	case <-done:
	default:
		t.Fatalf("second handler did not run")
	}
}

func TestRouterReportsHandlerErrors(t *testing.T) {
	r := NewRouter(nil)
	want := errors.New("bad input")

	var got Origin
	var gotErr error
	r.OnError(func(ctx context.Context, origin Origin, err error) {
		got, gotErr = origin, err
	})
	r.Command("/set-scrum-time", func(ctx context.Context, cmd slack.SlashCommand) error {
		return want
	})

	r.Handle(context.Background(), &recordingAcker{}, commandEvent("e1", "/set-scrum-time"))
	r.Wait()

	if !errors.Is(gotErr, want) {
		t.Fatalf("expected handler error, got %v", gotErr)
	}
	if got.ChannelID != "C1" || got.UserID != "U1" || got.Name != "/set-scrum-time" {
		t.Fatalf("unexpected origin %+v", got)
	}
}

func TestRouterRoutesViewsAndEvents(t *testing.T) {
	r := NewRouter(nil)

	var mu sync.Mutex
	var seen []string
	r.View("create_vote_modal", func(ctx context.Context, cb slack.InteractionCallback) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, "view:"+cb.View.PrivateMetadata)
		return nil
	})
	r.Event("app_mention", func(ctx context.Context, evt slackevents.EventsAPIInnerEvent) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, "event:"+evt.Type)
		return nil
	})

	cb := slack.InteractionCallback{Type: slack.InteractionTypeViewSubmission}
	cb.View.CallbackID = "create_vote_modal"
	cb.View.PrivateMetadata = "C9"
	r.Handle(context.Background(), &recordingAcker{}, socketmode.Event{
		Type:    socketmode.EventTypeInteractive,
		Data:    cb,
		Request: &socketmode.Request{EnvelopeID: "e1"},
	})
	r.Handle(context.Background(), &recordingAcker{}, socketmode.Event{
		Type: socketmode.EventTypeEventsAPI,
		Data: slackevents.EventsAPIEvent{
			Type:       slackevents.CallbackEvent,
			InnerEvent: slackevents.EventsAPIInnerEvent{Type: "app_mention"},
		},
		Request: &socketmode.Request{EnvelopeID: "e2"},
	})
	r.Wait()

	if len(seen) != 2 {
		t.Fatalf("expected view and event dispatch, got %v", seen)
	}
}

func TestRouterTracksConnection(t *testing.T) {
	r := NewRouter(nil)
	acker := &recordingAcker{}
	r.Handle(context.Background(), acker, socketmode.Event{Type: socketmode.EventTypeConnected})
	if !r.Connected() {
		t.Fatalf("expected connected")
	}
	r.Handle(context.Background(), acker, socketmode.Event{Type: socketmode.EventTypeConnectionError})
	if r.Connected() {
		t.Fatalf("expected disconnected")
	}
}

func TestAwaitRunWaitsForInflightHandlers(t *testing.T) {
	r := NewRouter(nil)
	release := make(chan struct{})
	var finished atomic.Bool
	r.Command("/slow", func(ctx context.Context, cmd slack.SlashCommand) error {
		<-release
		finished.Store(true)
		return nil
	})

	r.Handle(context.Background(), &recordingAcker{}, socketmode.Event{
		Type:    socketmode.EventTypeSlashCommand,
		Data:    slack.SlashCommand{Command: "/slow", ChannelID: "C1"},
		Request: &socketmode.Request{EnvelopeID: "e1"},
	})

	done := make(chan error, 1)
	go func() {
		r.Wait()
		done <- errors.New("socket closed")
	}()

	if ok, _ := AwaitRun(done, 20*time.Millisecond); ok {
		t.Fatalf("expected timeout while a handler is still running")
	}

	close(release)
	ok, err := AwaitRun(done, time.Second)
	if !ok || err == nil || err.Error() != "socket closed" {
		t.Fatalf("expected run result, got ok=%v err=%v", ok, err)
	}
	if !finished.Load() {
		t.Fatalf("handler must finish before the run result is delivered")
	}
}
