package vote

import (
	"context"
	"sort"
	"time"
)

// MessageRef points at the Slack message that shows a vote's live state.
type MessageRef struct {
	ChannelID string `json:"channel_id"`
	Timestamp string `json:"ts"`
}

func (r MessageRef) IsZero() bool {
	return r.Timestamp == ""
}

// Ballot is one voter's current selection. Seq orders ballots by casting time.
type Ballot struct {
	Option string `json:"option"`
	Seq    uint64 `json:"seq"`
}

type Vote struct {
	ID         string            `json:"id"`
	ChannelID  string            `json:"channel_id"`
	Question   string            `json:"question"`
	Options    []string          `json:"options"`
	Ballots    map[string]Ballot `json:"ballots"`
	AllowAdd   bool              `json:"allow_add"`
	Anonymous  bool              `json:"anonymous"`
	MessageRef MessageRef        `json:"message_ref"`
	EndTime    time.Time         `json:"end_time"`
	CreatedBy  string            `json:"created_by,omitempty"`

	seq uint64
}

// Clone returns a deep copy so callers never share maps with the store.
func (v Vote) Clone() Vote {
	c := v
	c.Options = append([]string(nil), v.Options...)
	c.Ballots = make(map[string]Ballot, len(v.Ballots))
	for voter, b := range v.Ballots {
		c.Ballots[voter] = b
	}
	return c
}

func (v Vote) HasOption(option string) bool {
	for _, o := range v.Options {
		if o == option {
			return true
		}
	}
	return false
}

// shownAt reports whether ts is the vote's live message. An empty ts matches
// any vote.
func (v Vote) shownAt(ts string) bool {
	return ts == "" || v.MessageRef.Timestamp == ts
}

// Selection returns the option voter currently has selected.
func (v Vote) Selection(voter string) (string, bool) {
	b, ok := v.Ballots[voter]
	return b.Option, ok
}

// OptionTally is a display row: options sort lexicographically and voters
// are listed in the order they cast their ballots.
type OptionTally struct {
	Option string   `json:"option"`
	Count  int      `json:"count"`
	Voters []string `json:"voters,omitempty"`
}

func (v Vote) Tally() []OptionTally {
	options := append([]string(nil), v.Options...)
	sort.Strings(options)

	type cast struct {
		voter string
		seq   uint64
	}
	byOption := make(map[string][]cast, len(options))
	for voter, b := range v.Ballots {
		byOption[b.Option] = append(byOption[b.Option], cast{voter: voter, seq: b.Seq})
	}

	rows := make([]OptionTally, 0, len(options))
	for _, option := range options {
		casts := byOption[option]
		sort.Slice(casts, func(i, j int) bool {
			if casts[i].seq == casts[j].seq {
				return casts[i].voter < casts[j].voter
			}
			return casts[i].seq < casts[j].seq
		})
		row := OptionTally{Option: option, Count: len(casts)}
		for _, c := range casts {
			row.Voters = append(row.Voters, c.voter)
		}
		rows = append(rows, row)
	}
	return rows
}

type Result struct {
	Option string `json:"option"`
	Votes  int    `json:"votes"`
}

// Results orders options by vote count, highest first. Ties keep the
// lexicographic order of Tally.
func (v Vote) Results() []Result {
	rows := v.Tally()
	results := make([]Result, 0, len(rows))
	for _, row := range rows {
		results = append(results, Result{Option: row.Option, Votes: row.Count})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Votes > results[j].Votes
	})
	return results
}

type Trigger string

const (
	TriggerDeadline Trigger = "deadline"
	TriggerManual   Trigger = "manual"
)

// Outcome is what a finalized vote hands to the Presenter.
type Outcome struct {
	Vote    Vote     `json:"vote"`
	Results []Result `json:"results"`
	Trigger Trigger  `json:"trigger"`
}

// Presenter shows vote state in the channel. Calls happen inside the
// channel's critical section, after the state change has been committed.
type Presenter interface {
	Announce(ctx context.Context, v Vote) (MessageRef, error)
	Refresh(ctx context.Context, v Vote) error
	Conclude(ctx context.Context, o Outcome) error
	// Retire freezes the message of a vote that a newer one replaced.
	Retire(ctx context.Context, v Vote) error
}

// Scheduler runs fn once at the given instant unless cancelled. Token ties a
// timer to the vote instance that created it.
type Scheduler interface {
	Schedule(key, token string, at time.Time, fn func())
	Cancel(key, token string) bool
}
