package scrum

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Setting is the daily scrum time of a channel, formatted HH:MM.
type Setting struct {
	ChannelID string `json:"channel_id"`
	Time      string `json:"scrum_time"`
}

// ReminderOffsets are the minutes before the scrum at which reminders go out.
var ReminderOffsets = []int{60, 30, 0}

const minutesPerDay = 24 * 60

// Reminder is one daily reminder at Hour:Minute, Offset minutes ahead of the
// scrum.
type Reminder struct {
	Offset int
	Hour   int
	Minute int
}

type Repository interface {
	Save(ctx context.Context, s Setting) error
	Get(ctx context.Context, channelID string) (Setting, error)
	List(ctx context.Context) ([]Setting, error)
}

// Scheduler replaces the reminders of s.ChannelID with the ones for s.
type Scheduler interface {
	Schedule(s Setting) error
}

// ParseTime validates a 24-hour time and returns it normalized to HH:MM.
func ParseTime(raw string) (string, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(raw))
	if err != nil {
		return "", ErrInvalidTime
	}
	return t.Format("15:04"), nil
}

// Reminders computes the wall-clock times of each reminder, wrapping across
// midnight.
func Reminders(scrumTime string) ([]Reminder, error) {
	normalized, err := ParseTime(scrumTime)
	if err != nil {
		return nil, err
	}
	t, _ := time.Parse("15:04", normalized)
	start := t.Hour()*60 + t.Minute()

	res := make([]Reminder, 0, len(ReminderOffsets))
	for _, offset := range ReminderOffsets {
		at := ((start-offset)%minutesPerDay + minutesPerDay) % minutesPerDay
		res = append(res, Reminder{Offset: offset, Hour: at / 60, Minute: at % 60})
	}
	return res, nil
}

func ReminderText(offset int, scrumTime string) string {
	if offset == 0 {
		return fmt.Sprintf("⏰ Time to start the scrum! (%s)", scrumTime)
	}
	return fmt.Sprintf("⏰ Scrum starts in %d minutes! (%s)", offset, scrumTime)
}
