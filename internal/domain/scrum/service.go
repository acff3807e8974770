package scrum

import (
	"context"
	"errors"
	"log/slog"
)

var (
	ErrInvalidTime = errors.New("scrum time must be HH:MM (24-hour)")
	ErrNotSet      = errors.New("scrum time not set")
)

type Service struct {
	repo   Repository
	sched  Scheduler
	logger *slog.Logger
}

func NewService(repo Repository, sched Scheduler, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, sched: sched, logger: logger.With("module", "scrum")}
}

// Set stores the channel's scrum time and re-arms its reminders.
func (s *Service) Set(ctx context.Context, channelID, raw string) (Setting, error) {
	t, err := ParseTime(raw)
	if err != nil {
		return Setting{}, err
	}
	setting := Setting{ChannelID: channelID, Time: t}
	if err := s.repo.Save(ctx, setting); err != nil {
		return Setting{}, err
	}
	if err := s.sched.Schedule(setting); err != nil {
		return Setting{}, err
	}
	s.logger.Info("scrum time set",
		"event", "scrum_time_set",
		"channel_id", channelID,
		"scrum_time", t,
	)
	return setting, nil
}

func (s *Service) Get(ctx context.Context, channelID string) (Setting, error) {
	return s.repo.Get(ctx, channelID)
}

func (s *Service) List(ctx context.Context) ([]Setting, error) {
	return s.repo.List(ctx)
}

// Restore schedules reminders for every persisted setting. Invalid entries
// are logged and skipped.
func (s *Service) Restore(ctx context.Context) (int, error) {
	settings, err := s.repo.List(ctx)
	if err != nil {
		return 0, err
	}
	restored := 0
	for _, setting := range settings {
		if err := s.sched.Schedule(setting); err != nil {
			s.logger.Warn("skipping stored scrum time",
				"event", "scrum_restore_skipped",
				"channel_id", setting.ChannelID,
				"scrum_time", setting.Time,
				"error", err.Error(),
			)
			continue
		}
		restored++
	}
	return restored, nil
}
