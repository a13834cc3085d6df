package models

import (
	"fmt"
	"time"
)

// RelativeAge is an elapsed-time breakdown for display. Minutes is always
// present; Hours appears once the age reaches a full hour and Days once it
// reaches a full day. Absent and zero are different things here: a 30-minute
// old article has no Hours field at all, while a 1440-minute old one carries
// Days:1, Hours:0, Minutes:0.
type RelativeAge struct {
	Minutes int  `json:"minutes"`
	Hours   *int `json:"hours,omitempty"`
	Days    *int `json:"days,omitempty"`
}

// AgeFromMinutes cascades whole minutes into minutes/hours/days.
// Negative input is a caller bug, not a recoverable condition.
func AgeFromMinutes(elapsed int) RelativeAge {
	if elapsed < 0 {
		panic(fmt.Sprintf("models: negative elapsed minutes: %d", elapsed))
	}

	age := RelativeAge{Minutes: elapsed}
	if elapsed < 60 {
		return age
	}

	hours := elapsed / 60
	age.Minutes = elapsed % 60
	if hours >= 24 {
		days := hours / 24
		hours %= 24
		age.Days = &days
	}
	age.Hours = &hours
	return age
}

// AgeSince measures created -> now at whole-minute granularity.
func AgeSince(created, now time.Time) RelativeAge {
	return AgeFromMinutes(int(now.Sub(created).Minutes()))
}
