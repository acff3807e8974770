// Package chattest provides an in-memory SlackAPI for handler tests.
package chattest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/slack-go/slack"
)

// Message is a recorded chat.postMessage, chat.update or chat.postEphemeral.
type Message struct {
	Channel   string
	User      string
	Timestamp string
	Text      string
	// BlocksJSON is the raw encoded blocks payload, empty without blocks.
	BlocksJSON string
	Blocks     slack.Blocks
}

type FakeAPI struct {
	mu sync.Mutex

	BotUserID string

	Posted     []Message
	Updated    []Message
	Ephemerals []Message
	Views      []slack.ModalViewRequest

	FailPost      error
	FailUpdate    error
	FailEphemeral error
	FailOpenView  error

	ts int
}

func (f *FakeAPI) AuthTestContext(ctx context.Context) (*slack.AuthTestResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &slack.AuthTestResponse{UserID: f.BotUserID}, nil
}

func (f *FakeAPI) PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailPost != nil {
		return "", "", f.FailPost
	}
	msg, err := decode(channelID, options)
	if err != nil {
		return "", "", err
	}
	f.ts++
	msg.Timestamp = fmt.Sprintf("1700000000.%06d", f.ts)
	f.Posted = append(f.Posted, msg)
	return channelID, msg.Timestamp, nil
}

func (f *FakeAPI) PostEphemeralContext(ctx context.Context, channelID, userID string, options ...slack.MsgOption) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailEphemeral != nil {
		return "", f.FailEphemeral
	}
	msg, err := decode(channelID, options)
	if err != nil {
		return "", err
	}
	msg.User = userID
	f.Ephemerals = append(f.Ephemerals, msg)
	return "", nil
}

func (f *FakeAPI) UpdateMessageContext(ctx context.Context, channelID, timestamp string, options ...slack.MsgOption) (string, string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailUpdate != nil {
		return "", "", "", f.FailUpdate
	}
	msg, err := decode(channelID, options)
	if err != nil {
		return "", "", "", err
	}
	msg.Timestamp = timestamp
	f.Updated = append(f.Updated, msg)
	return channelID, timestamp, msg.Text, nil
}

func (f *FakeAPI) OpenViewContext(ctx context.Context, triggerID string, view slack.ModalViewRequest) (*slack.ViewResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailOpenView != nil {
		return nil, f.FailOpenView
	}
	f.Views = append(f.Views, view)
	return &slack.ViewResponse{}, nil
}

// Snapshot returns copies of everything recorded so far.
func (f *FakeAPI) Snapshot() (posted, updated, ephemerals []Message, views []slack.ModalViewRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Message(nil), f.Posted...),
		append([]Message(nil), f.Updated...),
		append([]Message(nil), f.Ephemerals...),
		append([]slack.ModalViewRequest(nil), f.Views...)
}

func decode(channelID string, options []slack.MsgOption) (Message, error) {
	_, values, err := slack.UnsafeApplyMsgOptions("", channelID, "", options...)
	if err != nil {
		return Message{}, err
	}
	msg := Message{Channel: channelID, Text: values.Get("text"), BlocksJSON: values.Get("blocks")}
	if msg.BlocksJSON != "" {
		if err := json.Unmarshal([]byte(msg.BlocksJSON), &msg.Blocks); err != nil {
			return Message{}, err
		}
	}
	return msg, nil
}
