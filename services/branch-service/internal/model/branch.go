package model

import (
	"time"

	"github.com/nusrat-jahan/clinicbook/libs/clock"
)

type Branch struct {
	ID        int64
	Name      string
	Address   string
	Phone     string
	CreatedAt time.Time
}

// DayHours is one weekday row of a branch's operating schedule. Break
// bounds are nil together when the day has no break.
type DayHours struct {
	BranchID   int64
	Weekday    time.Weekday
	IsOpen     bool
	Open       clock.Minute
	Close      clock.Minute
	BreakStart *clock.Minute
	BreakEnd   *clock.Minute
}

type Treatment struct {
	ID                     string
	BranchID               int64
	Name                   string
	DefaultDurationMinutes int
	CreatedAt              time.Time
}

type BlockedPeriod struct {
	ID       string
	BranchID int64
	Date     time.Time
	Start    clock.Minute
	End      clock.Minute
	Reason   string
}
