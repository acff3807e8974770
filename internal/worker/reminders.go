package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/KangGunn/Madcamp-Week4/internal/domain/scrum"
	"github.com/KangGunn/Madcamp-Week4/internal/metrics"
	"github.com/KangGunn/Madcamp-Week4/internal/retry"
)

// Sender posts a plain text message to a channel.
type Sender interface {
	SendText(ctx context.Context, channelID, text string) error
}

// Reminders runs the daily scrum reminders of every channel on a cron
// scheduler. It implements scrum.Scheduler.
type Reminders struct {
	cron    *cron.Cron
	sender  Sender
	policy  retry.Policy
	timeout time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	entries map[string][]cron.EntryID
}

func NewReminders(loc *time.Location, sender Sender, logger *slog.Logger) *Reminders {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reminders{
		cron:    cron.New(cron.WithLocation(loc)),
		sender:  sender,
		policy:  retry.Policy{Attempts: 3, BaseDelay: 2 * time.Second, MaxDelay: 10 * time.Second},
		timeout: time.Minute,
		logger:  logger.With("module", "scrum_reminders"),
		entries: make(map[string][]cron.EntryID),
	}
}

// Schedule replaces the channel's reminders with ones for s.
func (r *Reminders) Schedule(s scrum.Setting) error {
	reminders, err := scrum.Reminders(s.Time)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.entries[s.ChannelID] {
		r.cron.Remove(id)
	}
	delete(r.entries, s.ChannelID)

	ids := make([]cron.EntryID, 0, len(reminders))
	for _, rem := range reminders {
		channelID, text := s.ChannelID, scrum.ReminderText(rem.Offset, s.Time)
		id, err := r.cron.AddFunc(fmt.Sprintf("%d %d * * *", rem.Minute, rem.Hour), func() {
			r.send(channelID, text)
		})
		if err != nil {
			for _, added := range ids {
				r.cron.Remove(added)
			}
			return fmt.Errorf("schedule reminder for %s: %w", s.ChannelID, err)
		}
		ids = append(ids, id)
	}
	r.entries[s.ChannelID] = ids
	return nil
}

// Scheduled reports how many reminders are armed for channelID.
func (r *Reminders) Scheduled(channelID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries[channelID])
}

// Run starts the scheduler and blocks until ctx is done.
func (r *Reminders) Run(ctx context.Context) {
	r.logger.Info("scrum reminders started")
	r.cron.Start()

	<-ctx.Done()

	stopped := r.cron.Stop()
	<-stopped.Done()
	r.logger.Info("scrum reminders stopped")
}

func (r *Reminders) send(channelID, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	err := retry.Do(ctx, r.policy, func(ctx context.Context) error {
		return r.sender.SendText(ctx, channelID, text)
	})
	if err != nil {
		metrics.IncReminder("failed")
		r.logger.Error("scrum reminder failed",
			"event", "scrum_reminder_failed",
			"channel_id", channelID,
			"error", err.Error(),
		)
		return
	}
	metrics.IncReminder("sent")
}
