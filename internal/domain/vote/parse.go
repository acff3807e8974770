package vote

import (
	"strings"
	"time"
	"unicode/utf8"
)

const endTimeLayout = "15:04"

// MaxOptionLength is the longest label a Slack button can show.
const MaxOptionLength = 75

// ValidateOption checks a trimmed option label.
func ValidateOption(label string) error {
	if label == "" {
		return ErrEmptyOption
	}
	if utf8.RuneCountInString(label) > MaxOptionLength {
		return ErrOptionTooLong
	}
	return nil
}

// ParseOptions splits comma separated labels, trimming blanks and keeping the
// first occurrence of each label.
func ParseOptions(raw string) []string {
	options := []string{}
	seen := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		label := strings.TrimSpace(part)
		if label == "" {
			continue
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		options = append(options, label)
	}
	return options
}

// ParseEndTime reads a 24-hour HH:MM time on the calendar day of now, in
// now's location. The result must be strictly after now.
func ParseEndTime(raw string, now time.Time) (time.Time, error) {
	t, err := time.Parse(endTimeLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, ErrInvalidTimeFormat
	}
	end := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location())
	if !end.After(now) {
		return time.Time{}, ErrTimeInPast
	}
	return end, nil
}
