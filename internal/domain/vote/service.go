package vote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KangGunn/Madcamp-Week4/internal/platform/clock"
)

var (
	ErrNoActiveVote      = errors.New("no active vote in channel")
	ErrInvalidTimeFormat = errors.New("end time must be HH:MM (24-hour)")
	ErrTimeInPast        = errors.New("end time has already passed")
	ErrEmptyOption       = errors.New("option is empty")
	ErrOptionTooLong     = errors.New("option is too long")
	ErrDuplicateOption   = errors.New("option already exists")
	ErrUnknownOption     = errors.New("option is not part of the vote")
	ErrAddOptionDisabled = errors.New("adding options is disabled for this vote")
)

// finalizeTimeout bounds the Presenter call made from a deadline timer, which
// has no request context of its own.
const finalizeTimeout = 30 * time.Second

type CreateRequest struct {
	ChannelID   string
	CreatedBy   string
	OptionsText string
	EndTimeText string
	AllowAdd    bool
	Anonymous   bool
}

type Options struct {
	// EnforceAllowAdd rejects AddOption on votes created without AllowAdd.
	EnforceAllowAdd bool
	Logger          *slog.Logger
}

// Service is the vote state machine. Every transition on a channel runs
// inside that channel's critical section, including the Presenter call that
// reflects it.
type Service struct {
	store     *Store
	timers    Scheduler
	clock     clock.Clock
	presenter Presenter
	opts      Options
	logger    *slog.Logger
}

func NewService(store *Store, timers Scheduler, clk clock.Clock, presenter Presenter, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		timers:    timers,
		clock:     clk,
		presenter: presenter,
		opts:      opts,
		logger:    logger.With("module", "vote"),
	}
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (Vote, error) {
	now := s.clock.Now()
	end, err := ParseEndTime(req.EndTimeText, now)
	if err != nil {
		return Vote{}, err
	}

	options := ParseOptions(req.OptionsText)
	for _, o := range options {
		if err := ValidateOption(o); err != nil {
			return Vote{}, err
		}
	}

	v := Vote{
		ID:        uuid.NewString(),
		ChannelID: req.ChannelID,
		Question:  fmt.Sprintf("Scrum time vote (ends at %s)", end.Format(endTimeLayout)),
		Options:   options,
		Ballots:   make(map[string]Ballot),
		AllowAdd:  req.AllowAdd,
		Anonymous: req.Anonymous,
		EndTime:   end,
		CreatedBy: req.CreatedBy,
	}

	unlock := s.store.Lock(req.ChannelID)
	defer unlock()

	prev, replaced := s.store.Create(v)
	if replaced {
		s.timers.Cancel(prev.ChannelID, prev.ID)
	}

	ref, err := s.presenter.Announce(ctx, v.Clone())
	if err != nil {
		// The new vote was never shown; put the channel back the way it was.
		s.store.Remove(v.ChannelID)
		if replaced {
			s.store.Create(prev)
			s.schedule(prev)
		}
		return Vote{}, err
	}
	if replaced {
		s.logger.Info("vote replaced",
			"event", "vote_replaced",
			"channel_id", prev.ChannelID,
			"previous_vote_id", prev.ID,
			"vote_id", v.ID,
		)
		if err := s.presenter.Retire(ctx, prev); err != nil {
			s.logger.Warn("replaced vote message not closed",
				"event", "vote_retire_failed",
				"channel_id", prev.ChannelID,
				"vote_id", prev.ID,
				"error", err.Error(),
			)
		}
	}

	v, err = s.store.mutate(v.ChannelID, func(stored *Vote) error {
		stored.MessageRef = ref
		return nil
	})
	if err != nil {
		return Vote{}, err
	}

	s.schedule(v)

	s.logger.Info("vote created",
		"event", "vote_created",
		"channel_id", v.ChannelID,
		"vote_id", v.ID,
		"options", len(v.Options),
		"ends_at", end,
	)
	return v, nil
}

// Cast records voter's choice. Casting the option the voter already holds
// retracts the ballot.
func (s *Service) Cast(ctx context.Context, channelID, voter, option string) (Vote, error) {
	return s.cast(ctx, channelID, "", voter, option)
}

// CastFrom is Cast for a click on the vote message at ref. A click on any
// other message, such as one left by a replaced vote, gets ErrNoActiveVote.
func (s *Service) CastFrom(ctx context.Context, ref MessageRef, voter, option string) (Vote, error) {
	return s.cast(ctx, ref.ChannelID, ref.Timestamp, voter, option)
}

func (s *Service) cast(ctx context.Context, channelID, messageTS, voter, option string) (Vote, error) {
	unlock := s.store.Lock(channelID)
	defer unlock()

	v, err := s.store.mutate(channelID, func(v *Vote) error {
		if !v.shownAt(messageTS) {
			return ErrNoActiveVote
		}
		if !v.HasOption(option) {
			return ErrUnknownOption
		}
		if current, ok := v.Ballots[voter]; ok && current.Option == option {
			delete(v.Ballots, voter)
			return nil
		}
		v.seq++
		v.Ballots[voter] = Ballot{Option: option, Seq: v.seq}
		return nil
	})
	if err != nil {
		return Vote{}, err
	}

	s.refresh(ctx, v)
	return v, nil
}

func (s *Service) AddOption(ctx context.Context, channelID, option string) (Vote, error) {
	option = strings.TrimSpace(option)
	if err := ValidateOption(option); err != nil {
		return Vote{}, err
	}

	unlock := s.store.Lock(channelID)
	defer unlock()

	v, err := s.store.mutate(channelID, func(v *Vote) error {
		if s.opts.EnforceAllowAdd && !v.AllowAdd {
			return ErrAddOptionDisabled
		}
		if v.HasOption(option) {
			return ErrDuplicateOption
		}
		v.Options = append(v.Options, option)
		return nil
	})
	if err != nil {
		return Vote{}, err
	}

	s.refresh(ctx, v)
	return v, nil
}

// Finalize ends the channel's vote immediately. It returns ErrNoActiveVote
// when the vote is already gone, which callers treat as a no-op.
func (s *Service) Finalize(ctx context.Context, channelID string) (Outcome, error) {
	return s.finalize(ctx, channelID, "", "", TriggerManual)
}

// FinalizeFrom is Finalize for an "End now" click on the vote message at ref.
func (s *Service) FinalizeFrom(ctx context.Context, ref MessageRef) (Outcome, error) {
	return s.finalize(ctx, ref.ChannelID, "", ref.Timestamp, TriggerManual)
}

func (s *Service) Get(channelID string) (Vote, bool) {
	return s.store.Get(channelID)
}

func (s *Service) List() []Vote {
	return s.store.List()
}

func (s *Service) schedule(v Vote) {
	channelID, voteID := v.ChannelID, v.ID
	s.timers.Schedule(channelID, voteID, v.EndTime, func() {
		s.expire(channelID, voteID)
	})
}

func (s *Service) expire(channelID, voteID string) {
	ctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()

	if _, err := s.finalize(ctx, channelID, voteID, "", TriggerDeadline); err != nil && !errors.Is(err, ErrNoActiveVote) {
		s.logger.Error("vote expiry failed",
			"event", "vote_expiry_failed",
			"channel_id", channelID,
			"vote_id", voteID,
			"error", err.Error(),
		)
	}
}

// finalize removes the vote and announces its results. A non-empty voteID
// or messageTS restricts it to that vote instance.
func (s *Service) finalize(ctx context.Context, channelID, voteID, messageTS string, trigger Trigger) (Outcome, error) {
	unlock := s.store.Lock(channelID)
	defer unlock()

	current, ok := s.store.Get(channelID)
	if !ok || (voteID != "" && current.ID != voteID) || !current.shownAt(messageTS) {
		return Outcome{}, ErrNoActiveVote
	}
	v, _ := s.store.Remove(channelID)
	s.timers.Cancel(channelID, v.ID)

	outcome := Outcome{Vote: v, Results: v.Results(), Trigger: trigger}
	if err := s.presenter.Conclude(ctx, outcome); err != nil {
		s.logger.Error("vote result announcement failed",
			"event", "vote_conclude_failed",
			"channel_id", channelID,
			"vote_id", v.ID,
			"error", err.Error(),
		)
	}

	s.logger.Info("vote finalized",
		"event", "vote_finalized",
		"channel_id", channelID,
		"vote_id", v.ID,
		"trigger", string(trigger),
		"ballots", len(v.Ballots),
	)
	return outcome, nil
}

func (s *Service) refresh(ctx context.Context, v Vote) {
	if err := s.presenter.Refresh(ctx, v); err != nil {
		s.logger.Warn("vote message refresh failed",
			"event", "vote_refresh_failed",
			"channel_id", v.ChannelID,
			"vote_id", v.ID,
			"error", err.Error(),
		)
	}
}
